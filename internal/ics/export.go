package ics

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"coursecal/internal/calendar"
	"coursecal/internal/model"
	"coursecal/internal/schedule"
)

const productID = "-//coursecal//course schedule//EN"

// Categories attached to exported days.
const (
	CategoryClass   = "CLASS"
	CategoryNoClass = "NO CLASS"
)

// uidNamespace seeds the name-based UUIDs of exported events, so the same
// course day always exports with the same UID.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://coursecal.invalid/day"))

// DayUID returns the stable UID of a course day.
func DayUID(course *model.Course, day *calendar.Day) string {
	key := course.Name + "|" + course.Semester.Name + "|" + day.Date.Format("2006-01-02")
	return uuid.NewSHA1(uidNamespace, []byte(key)).String() + "@coursecal"
}

// Calendar converts a schedule into an iCalendar with one all-day event per
// course day. stamp becomes every event's DTSTAMP.
func Calendar(s *schedule.Schedule, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(strings.TrimSpace(s.Course.Name + " " + s.Course.Title))

	for _, day := range s.Calendar.Days {
		ev := cal.AddEvent(DayUID(s.Course, day))
		ev.SetDtStampTime(stamp.UTC())
		ev.SetAllDayStartAt(day.Date)
		ev.SetAllDayEndAt(day.Date.AddDate(0, 0, 1))
		ev.SetSummary(summary(s.Course, day))
		if desc := description(day); desc != "" {
			ev.SetDescription(desc)
		}
		if day.IsClassDay() {
			ev.AddProperty(ical.ComponentPropertyCategories, CategoryClass)
		} else {
			ev.AddProperty(ical.ComponentPropertyCategories, CategoryNoClass)
		}
	}
	return cal
}

// Export writes the schedule as an .ics document.
func Export(w io.Writer, s *schedule.Schedule, stamp time.Time) error {
	return Calendar(s, stamp).SerializeTo(w)
}

func summary(course *model.Course, day *calendar.Day) string {
	if len(day.Topics) == 0 {
		return fmt.Sprintf("%s: class %d", course.Name, day.NthClassDay)
	}
	return course.Name + ": " + strings.Join(day.Topics, "; ")
}

func description(day *calendar.Day) string {
	var b strings.Builder
	writeList := func(label string, items []string) {
		if len(items) == 0 {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(strings.Join(items, ", "))
	}
	writeList("Topics", day.Topics)
	writeList("Due", day.Assignments)
	writeList("Todo", day.Todos)
	return b.String()
}
