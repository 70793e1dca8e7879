package web

import (
	"time"

	"coursecal/internal/calendar"
	"coursecal/internal/outline"
	"coursecal/internal/schedule"
)

const dateLayout = "2006-01-02"

// calendarResponse is the JSON shape of /api/calendar.
type calendarResponse struct {
	Course     string    `json:"course"`
	Title      string    `json:"title"`
	Semester   string    `json:"semester"`
	BuiltAt    time.Time `json:"built_at"`
	CourseDays int       `json:"course_days"`
	ClassDays  int       `json:"class_days"`
	Days       []dayDTO  `json:"days"`
}

// dayDTO is a JSON-friendly view of calendar.Day.
type dayDTO struct {
	Date           string    `json:"date"`
	Time           time.Time `json:"-"`
	Weekday        string    `json:"weekday"`
	Week           int       `json:"week"`
	NthCourseDay   int       `json:"nth_course_day"`
	NthClassDay    int       `json:"nth_class_day"`
	ClassDay       bool      `json:"class_day"`
	Override       string    `json:"override,omitempty"`
	Topics         []string  `json:"topics"`
	Assignments    []string  `json:"assignments"`
	Todos          []string  `json:"todos"`
	FirstDayOfWeek bool      `json:"first_day_of_week"`
	NearestToToday bool      `json:"nearest_to_today"`
}

func newDayDTO(d *calendar.Day) dayDTO {
	return dayDTO{
		Date:           d.Date.Format(dateLayout),
		Time:           d.Date,
		Weekday:        d.Date.Weekday().String()[:3],
		Week:           d.Week,
		NthCourseDay:   d.NthCourseDay,
		NthClassDay:    d.NthClassDay,
		ClassDay:       d.IsClassDay(),
		Override:       d.Override,
		Topics:         nonNil(d.Topics),
		Assignments:    nonNil(d.Assignments),
		Todos:          nonNil(d.Todos),
		FirstDayOfWeek: d.FirstDayOfWeek,
		NearestToToday: d.NearestToToday,
	}
}

func newCalendarResponse(s *schedule.Schedule, builtAt time.Time) calendarResponse {
	days := make([]dayDTO, 0, len(s.Calendar.Days))
	for _, d := range s.Calendar.Days {
		days = append(days, newDayDTO(d))
	}
	return calendarResponse{
		Course:     s.Course.Name,
		Title:      s.Course.Title,
		Semester:   s.Course.Semester.Name,
		BuiltAt:    builtAt,
		CourseDays: s.Calendar.TotalCourseDays(),
		ClassDays:  s.Calendar.TotalClassDays(),
		Days:       days,
	}
}

// outlineResponse is the JSON shape of /api/outline.
type outlineResponse struct {
	Course       string      `json:"course"`
	DeepestLevel int         `json:"deepest_level"`
	Root         outlineNode `json:"root"`
}

type outlineNode struct {
	ID       int           `json:"id"`
	Type     string        `json:"type"`
	Title    string        `json:"title"`
	Tags     []string      `json:"tags"`
	Level    int           `json:"level"`
	Date     string        `json:"date,omitempty"`
	Children []outlineNode `json:"children"`
}

func newOutlineNode(n *outline.Node) outlineNode {
	out := outlineNode{
		ID:       n.ID,
		Type:     string(n.Type),
		Title:    n.Title,
		Tags:     nonNil(n.Tags),
		Level:    n.Level,
		Children: make([]outlineNode, 0, len(n.Children)),
	}
	if n.Day != nil {
		out.Date = n.Day.Date.Format(dateLayout)
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, newOutlineNode(c))
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
