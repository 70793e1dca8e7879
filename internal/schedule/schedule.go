// Package schedule binds a course outline onto a course calendar.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"coursecal/internal/calendar"
	appLog "coursecal/internal/log"
	"coursecal/internal/model"
	"coursecal/internal/outline"
)

// ErrNoClassDays is returned when a node must be scheduled but the calendar
// has no class days at all.
var ErrNoClassDays = errors.New("calendar has no class days")

// Outline tags that drive scheduling.
const (
	TagTopic    = "topic"
	TagHomework = "hw"
	TagBefore   = "before"
	TagAfter    = "after"
)

// homeworkPlan holds cursor offsets for one homework placement policy.
type homeworkPlan struct {
	due, prep, assign, grade int
}

var (
	// hw+before is due on the current class day.
	planBefore = homeworkPlan{due: 0, prep: -2, assign: -1, grade: 1}
	// hw+after is due on the class day after the current one.
	planAfter = homeworkPlan{due: 1, prep: -1, assign: 0, grade: 2}
)

// Schedule is a course calendar with its outline bound onto it.
type Schedule struct {
	Course   *model.Course
	Calendar *calendar.Calendar
	Outline  *outline.Outline
}

// New builds the outline and the calendar, then binds one onto the other.
func New(course *model.Course, src outline.Source, now time.Time) (*Schedule, error) {
	cal, err := calendar.New(course, now)
	if err != nil {
		return nil, err
	}
	ol, err := outline.Build(src)
	if err != nil {
		return nil, err
	}
	if err := Bind(cal, ol); err != nil {
		return nil, err
	}

	appLog.Debug("schedule built",
		"course", course.Name,
		"nodes", ol.Len(),
		"class_days", cal.TotalClassDays(),
	)
	return &Schedule{Course: course, Calendar: cal, Outline: ol}, nil
}

// Bind walks ol in pre-order and writes topics, assignments and todos onto
// the class days of cal. Scheduled nodes get their Day set.
func Bind(cal *calendar.Calendar, ol *outline.Outline) error {
	cur := NewCursor(cal)
	for node := range ol.Nodes() {
		switch node.Type {
		case outline.TypeRoot:
			continue
		case outline.TypeHeadline:
			if err := bindHeadline(cur, node); err != nil {
				return err
			}
		default:
			return fmt.Errorf("schedule: node %d: %w %q", node.ID, outline.ErrUnknownNodeType, node.Type)
		}
	}
	return nil
}

func bindHeadline(cur *Cursor, n *outline.Node) error {
	switch {
	case n.HasTag(TagTopic):
		if cur.Len() == 0 {
			return fmt.Errorf("schedule: topic %q: %w", n.Title, ErrNoClassDays)
		}
		cur.AdvanceUnlessPristine()
		day := cur.Current()
		day.AddTopic(n.Title)
		n.Day = day
		cur.MarkDirty()
	case n.HasTag(TagHomework) && n.HasTag(TagBefore):
		return placeHomework(cur, n, planBefore)
	case n.HasTag(TagHomework) && n.HasTag(TagAfter):
		return placeHomework(cur, n, planAfter)
	}
	return nil
}

func placeHomework(cur *Cursor, n *outline.Node, plan homeworkPlan) error {
	if cur.Len() == 0 {
		return fmt.Errorf("schedule: assignment %q: %w", n.Title, ErrNoClassDays)
	}

	due := cur.Offset(plan.due)
	due.AddAssignment(n.Title)
	n.Day = due

	cur.Offset(plan.prep).AddTodo("Prep " + n.Title)
	cur.Offset(plan.assign).AddTodo("Assign " + n.Title)
	cur.Offset(plan.grade).AddTodo("Grade " + n.Title)
	return nil
}

// Scheduled returns the outline nodes that were bound to a day, in pre-order.
func (s *Schedule) Scheduled() []*outline.Node {
	var out []*outline.Node
	for n := range s.Outline.Nodes() {
		if n.Day != nil {
			out = append(out, n)
		}
	}
	return out
}
