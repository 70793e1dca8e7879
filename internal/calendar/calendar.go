// Package calendar enumerates the meeting days of a course and classifies each
// one as an ordinary class day or a fixed-date override.
package calendar

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/teambition/rrule-go"

	appLog "coursecal/internal/log"
	"coursecal/internal/model"
)

// Kind tells whether a course day still counts as instruction.
type Kind int

const (
	// Instructional days receive topics and advance the class-day counter.
	Instructional Kind = iota
	// NonInstructional days are fixed dates (holidays, exams) with no class.
	NonInstructional
)

func (k Kind) String() string {
	switch k {
	case Instructional:
		return "instructional"
	case NonInstructional:
		return "non-instructional"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Day is the scheduling record of a single course day.
type Day struct {
	Date time.Time

	// Week is the 1-based week within the semester.
	Week int
	// NthCourseDay counts every retained meeting day.
	NthCourseDay int
	// NthClassDay counts class days only. A non-instructional day carries
	// the number the next class day will receive.
	NthClassDay int

	Kind Kind
	// Override is the name of the fixed date covering this day, if any.
	Override string

	Topics      []string
	Assignments []string
	Todos       []string

	FirstDayOfWeek bool
	NearestToToday bool
}

// IsClassDay reports whether instruction happens on this day.
func (d *Day) IsClassDay() bool {
	return d.Kind == Instructional
}

func (d *Day) AddTopic(topic string) { d.Topics = append(d.Topics, topic) }
func (d *Day) AddAssignment(assignment string) { d.Assignments = append(d.Assignments, assignment) }
func (d *Day) AddTodo(todo string) { d.Todos = append(d.Todos, todo) }

// Calendar is the ordered sequence of course days for one course.
type Calendar struct {
	Course *model.Course
	Days   []*Day

	nextCourseDay int
	nextClassDay  int
}

// New builds the calendar of course. now is used only to mark the day
// nearest to today.
func New(course *model.Course, now time.Time) (*Calendar, error) {
	if course == nil || course.Semester == nil {
		return nil, errors.New("calendar: course and semester are required")
	}
	sem := course.Semester
	start, end := model.Date(sem.Start), model.Date(sem.End)
	if start.After(end) {
		return nil, fmt.Errorf("calendar: semester %q: %w", sem.Name, model.ErrInvalidRange)
	}

	dates, err := enumerateDates(start, end)
	if err != nil {
		return nil, fmt.Errorf("calendar: %w", err)
	}

	c := &Calendar{
		Course:        course,
		Days:          make([]*Day, 0, len(dates)),
		nextCourseDay: 1,
		nextClassDay:  1,
	}

	for _, date := range dates {
		if !course.MeetsOn(date) {
			continue
		}
		c.Days = append(c.Days, c.classify(date))
	}

	c.setFirstDayOfWeek()
	c.setNearestToToday(now)

	appLog.Debug("calendar built",
		"course", course.Name,
		"semester", sem.Name,
		"course_days", c.TotalCourseDays(),
		"class_days", c.TotalClassDays(),
	)
	return c, nil
}

// enumerateDates lists every distinct date in [start, end] with a daily
// rule. Zones that skipped a calendar day make the rule repeat a date.
func enumerateDates(start, end time.Time) ([]time.Time, error) {
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: start,
		Until:   end,
	})
	if err != nil {
		return nil, err
	}

	all := r.All()
	dates := make([]time.Time, 0, len(all))
	for _, d := range all {
		d = model.Date(d)
		if n := len(dates); n > 0 && !d.After(dates[n-1]) {
			continue
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// classify numbers a meeting day and applies any fixed-date override.
func (c *Calendar) classify(date time.Time) *Day {
	day := &Day{
		Date:         model.Date(date),
		Week:         c.weekOf(date),
		NthCourseDay: c.nextCourseDay,
	}
	c.nextCourseDay++

	fd, ok := c.Course.FixedDateFor(date)
	switch {
	case !ok:
		day.Kind = Instructional
		day.NthClassDay = c.nextClassDay
		c.nextClassDay++
	case fd.IsClassDay():
		day.Kind = Instructional
		day.NthClassDay = c.nextClassDay
		c.nextClassDay++
		day.Override = fd.Name()
		day.AddTopic(fd.Name())
	default:
		day.Kind = NonInstructional
		day.NthClassDay = c.nextClassDay
		day.Override = fd.Name()
		day.AddTopic(fd.Name())
	}
	return day
}

// weekOf returns 1 + the number of ISO weeks between the first retained day
// and date. Weeks start on Monday.
func (c *Calendar) weekOf(date time.Time) int {
	if len(c.Days) == 0 {
		return 1
	}
	first := isoWeekStart(c.Days[0].Date)
	this := isoWeekStart(date)
	return daysBetween(first, this)/7 + 1
}

func isoWeekStart(t time.Time) time.Time {
	d := model.Date(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// daysBetween counts calendar days from a to b, ignoring DST shifts.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

func (c *Calendar) setFirstDayOfWeek() {
	currentWeek := -1
	for _, day := range c.Days {
		if day.Week != currentWeek {
			currentWeek = day.Week
			day.FirstDayOfWeek = true
		}
	}
}

func (c *Calendar) setNearestToToday(now time.Time) {
	if len(c.Days) == 0 {
		return
	}

	nearest := c.Days[0]
	smallest := int64(math.MaxInt64)
	for _, day := range c.Days {
		diff := now.Sub(day.Date)
		if diff < 0 {
			diff = -diff
		}
		hours := int64(diff / time.Hour)
		if hours < smallest {
			smallest = hours
			nearest = day
		}
	}
	nearest.NearestToToday = true
}

// TotalCourseDays is the number of retained meeting days.
func (c *Calendar) TotalCourseDays() int {
	return c.nextCourseDay - 1
}

// TotalClassDays is the number of instructional days.
func (c *Calendar) TotalClassDays() int {
	return c.nextClassDay - 1
}

// ClassDays returns the instructional days in calendar order.
func (c *Calendar) ClassDays() []*Day {
	out := make([]*Day, 0, c.TotalClassDays())
	for _, day := range c.Days {
		if day.IsClassDay() {
			out = append(out, day)
		}
	}
	return out
}

// Day returns the course day falling on date, if any.
func (c *Calendar) Day(date time.Time) (*Day, bool) {
	want := model.Date(date)
	for _, day := range c.Days {
		if day.Date.Equal(want) {
			return day, true
		}
	}
	return nil, false
}

// Nearest returns the day marked NearestToToday.
func (c *Calendar) Nearest() (*Day, bool) {
	for _, day := range c.Days {
		if day.NearestToToday {
			return day, true
		}
	}
	return nil, false
}
