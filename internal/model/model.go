package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	// ErrInvalidRange is returned when a date range ends before it starts.
	ErrInvalidRange = errors.New("range ends before it starts")
	// ErrInvalidWeekday is returned for a day name outside Sun..Sat.
	ErrInvalidWeekday = errors.New("invalid day name")
)

// dayNames are the canonical weekday abbreviations, indexed by time.Weekday.
var dayNames = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// DayName returns the canonical abbreviation for a weekday (e.g. "Mon").
func DayName(d time.Weekday) string {
	return dayNames[d]
}

// ParseWeekday maps a canonical abbreviation back to a time.Weekday.
// Matching is exact: "mon" and "Monday" are rejected.
func ParseWeekday(name string) (time.Weekday, error) {
	for i, n := range dayNames {
		if n == name {
			return time.Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrInvalidWeekday, name)
}

// Date truncates t to midnight in its own location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// FixedDate is a named, closed date interval that overrides ordinary class
// day treatment (holiday, exam, special event). It is immutable once built.
type FixedDate struct {
	name       string
	start      time.Time
	end        time.Time
	isClassDay bool
}

// NewFixedDate builds a fixed date. A zero end means a single-day interval.
func NewFixedDate(name string, start, end time.Time, isClassDay bool) (FixedDate, error) {
	start = Date(start)
	if end.IsZero() {
		end = start
	}
	end = Date(end)
	if end.Before(start) {
		return FixedDate{}, fmt.Errorf("fixed date %q: %w", name, ErrInvalidRange)
	}
	return FixedDate{name: name, start: start, end: end, isClassDay: isClassDay}, nil
}

func (f FixedDate) Name() string { return f.name }
func (f FixedDate) Start() time.Time { return f.start }
func (f FixedDate) End() time.Time { return f.end }
func (f FixedDate) IsClassDay() bool { return f.isClassDay }
func (f FixedDate) String() string { return f.name }

// Includes reports whether date falls inside [start, end], both ends inclusive.
func (f FixedDate) Includes(date time.Time) bool {
	d := Date(date.In(f.start.Location()))
	return !d.Before(f.start) && !d.After(f.end)
}

// Semester is a date range plus fixed dates shared by every course in it.
type Semester struct {
	Name       string
	Start      time.Time
	End        time.Time
	FixedDates []FixedDate
}

// NewSemester validates the range and returns a semester.
func NewSemester(name string, start, end time.Time, fixedDates []FixedDate) (*Semester, error) {
	start, end = Date(start), Date(end)
	if start.After(end) {
		return nil, fmt.Errorf("semester %q: %w", name, ErrInvalidRange)
	}
	return &Semester{
		Name:       name,
		Start:      start,
		End:        end,
		FixedDates: fixedDates,
	}, nil
}

// Course is one course taught in a semester on a fixed set of weekdays.
type Course struct {
	Name       string
	Title      string
	Semester   *Semester
	DaysOfWeek []time.Weekday
	FixedDates []FixedDate
}

// NewCourse validates day names and returns a course. Duplicate day names
// are collapsed; the resulting DaysOfWeek is sorted Sunday first.
func NewCourse(name, title string, semester *Semester, names []string, fixedDates []FixedDate) (*Course, error) {
	if semester == nil {
		return nil, fmt.Errorf("course %q: semester is nil", name)
	}

	days := make([]time.Weekday, 0, len(names))
	var bad []string
	for _, n := range names {
		wd, err := ParseWeekday(n)
		if err != nil {
			bad = append(bad, n)
			continue
		}
		if !slices.Contains(days, wd) {
			days = append(days, wd)
		}
	}
	if len(bad) > 0 {
		return nil, fmt.Errorf("course %q: %w in [%s]", name, ErrInvalidWeekday, strings.Join(bad, ", "))
	}
	slices.Sort(days)

	return &Course{
		Name:       name,
		Title:      title,
		Semester:   semester,
		DaysOfWeek: days,
		FixedDates: fixedDates,
	}, nil
}

// MeetsOn reports whether the course meets on date's weekday.
func (c *Course) MeetsOn(date time.Time) bool {
	return slices.Contains(c.DaysOfWeek, date.Weekday())
}

// FixedDateFor returns the first fixed date containing date. Course-specific
// fixed dates are searched before semester ones; list order decides ties.
func (c *Course) FixedDateFor(date time.Time) (FixedDate, bool) {
	for _, fd := range c.FixedDates {
		if fd.Includes(date) {
			return fd, true
		}
	}
	for _, fd := range c.Semester.FixedDates {
		if fd.Includes(date) {
			return fd, true
		}
	}
	return FixedDate{}, false
}
