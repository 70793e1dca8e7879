package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		name    string
		want    time.Weekday
		wantErr bool
	}{
		{"Sun", time.Sunday, false},
		{"Mon", time.Monday, false},
		{"Wed", time.Wednesday, false},
		{"Sat", time.Saturday, false},
		{"mon", 0, true},
		{"Monday", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWeekday(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidWeekday)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.name, DayName(got))
		})
	}
}

func TestDate_TruncatesToMidnight(t *testing.T) {
	loc := time.FixedZone("X", -5*3600)
	got := Date(time.Date(2018, 9, 3, 23, 59, 0, 0, loc))
	assert.Equal(t, time.Date(2018, 9, 3, 0, 0, 0, 0, loc), got)
}

func TestNewFixedDate(t *testing.T) {
	t.Run("zero end is a single day", func(t *testing.T) {
		fd, err := NewFixedDate("Labor Day", date(2018, 9, 3), time.Time{}, false)
		require.NoError(t, err)
		assert.Equal(t, fd.Start(), fd.End())
		assert.Equal(t, "Labor Day", fd.Name())
		assert.Equal(t, "Labor Day", fd.String())
		assert.False(t, fd.IsClassDay())
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := NewFixedDate("Backwards", date(2018, 9, 3), date(2018, 9, 1), false)
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("time of day is dropped", func(t *testing.T) {
		fd, err := NewFixedDate("Exam", date(2018, 10, 15).Add(9*time.Hour), time.Time{}, false)
		require.NoError(t, err)
		assert.Equal(t, date(2018, 10, 15), fd.Start())
	})
}

func TestFixedDate_Includes(t *testing.T) {
	fd, err := NewFixedDate("Fall Break", date(2018, 10, 19), date(2018, 10, 22), false)
	require.NoError(t, err)

	assert.False(t, fd.Includes(date(2018, 10, 18)))
	assert.True(t, fd.Includes(date(2018, 10, 19)), "start is inclusive")
	assert.True(t, fd.Includes(date(2018, 10, 20)))
	assert.True(t, fd.Includes(date(2018, 10, 22)), "end is inclusive")
	assert.True(t, fd.Includes(date(2018, 10, 22).Add(23*time.Hour)))
	assert.False(t, fd.Includes(date(2018, 10, 23)))
}

func TestNewSemester_InvalidRange(t *testing.T) {
	_, err := NewSemester("Backwards", date(2018, 12, 7), date(2018, 8, 27), nil)
	assert.ErrorIs(t, err, ErrInvalidRange)

	sem, err := NewSemester("One Day", date(2018, 8, 27), date(2018, 8, 27), nil)
	require.NoError(t, err)
	assert.Equal(t, sem.Start, sem.End)
}

func TestNewCourse(t *testing.T) {
	sem, err := NewSemester("Fall 2018", date(2018, 8, 27), date(2018, 12, 7), nil)
	require.NoError(t, err)

	t.Run("days are deduplicated and sorted", func(t *testing.T) {
		c, err := NewCourse("COS 243", "Web", sem, []string{"Fri", "Mon", "Wed", "Mon"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, c.DaysOfWeek)
		assert.True(t, c.MeetsOn(date(2018, 8, 27)))
		assert.False(t, c.MeetsOn(date(2018, 8, 28)))
	})

	t.Run("invalid day names", func(t *testing.T) {
		_, err := NewCourse("COS 243", "Web", sem, []string{"Mon", "Funday", "tue"}, nil)
		require.ErrorIs(t, err, ErrInvalidWeekday)
		assert.Contains(t, err.Error(), "Funday, tue")
	})

	t.Run("nil semester", func(t *testing.T) {
		_, err := NewCourse("COS 243", "Web", nil, []string{"Mon"}, nil)
		assert.Error(t, err)
	})
}

func TestCourse_FixedDateFor(t *testing.T) {
	holiday, err := NewFixedDate("Holiday", date(2018, 10, 15), date(2018, 10, 16), false)
	require.NoError(t, err)
	other, err := NewFixedDate("Other", date(2018, 10, 15), time.Time{}, false)
	require.NoError(t, err)
	exam, err := NewFixedDate("Exam 1", date(2018, 10, 15), time.Time{}, true)
	require.NoError(t, err)

	sem, err := NewSemester("Fall 2018", date(2018, 8, 27), date(2018, 12, 7), []FixedDate{holiday, other})
	require.NoError(t, err)

	t.Run("course dates win over semester dates", func(t *testing.T) {
		c, err := NewCourse("COS 243", "Web", sem, []string{"Mon"}, []FixedDate{exam})
		require.NoError(t, err)

		fd, ok := c.FixedDateFor(date(2018, 10, 15))
		require.True(t, ok)
		assert.Equal(t, "Exam 1", fd.Name())
		assert.True(t, fd.IsClassDay())
	})

	t.Run("first semester date wins", func(t *testing.T) {
		c, err := NewCourse("COS 243", "Web", sem, []string{"Mon"}, nil)
		require.NoError(t, err)

		fd, ok := c.FixedDateFor(date(2018, 10, 15))
		require.True(t, ok)
		assert.Equal(t, "Holiday", fd.Name())

		fd, ok = c.FixedDateFor(date(2018, 10, 16))
		require.True(t, ok)
		assert.Equal(t, "Holiday", fd.Name())
	})

	t.Run("no match", func(t *testing.T) {
		c, err := NewCourse("COS 243", "Web", sem, []string{"Mon"}, nil)
		require.NoError(t, err)

		_, ok := c.FixedDateFor(date(2018, 10, 22))
		assert.False(t, ok)
	})
}
