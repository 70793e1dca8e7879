package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "coursecal/internal/log"
	"coursecal/internal/model"
)

// ParsedEvent is a VEVENT from a holiday feed, reduced to what is needed to
// turn it into fixed dates.
type ParsedEvent struct {
	Source Source

	UID     string
	Summary string

	// First and Last are the first and last calendar dates the event
	// covers, both inclusive, at midnight in the parse location.
	First  time.Time
	Last   time.Time
	AllDay bool

	RawRRule string
	ExDates  []time.Time
}

// Days is the number of calendar days covered by one occurrence.
func (e ParsedEvent) Days() int {
	return int(e.Last.Sub(e.First).Hours()/24+0.5) + 1
}

// ParseICS parses a feed body into events. Dates are interpreted in loc so
// they line up with course dates.
func ParseICS(src Source, body []byte, loc *time.Location) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID, "origin", src.origin())
		return nil, err
	}

	events := make([]ParsedEvent, 0)
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(src, ve, loc)
		if perr != nil {
			appLog.Warn("ics vevent skipped", "id", src.ID, "reason", perr.Error())
			continue
		}
		events = append(events, ev)
	}

	appLog.Info("ics parse completed", "id", src.ID, "origin", src.origin(), "event_count", len(events))
	return events, nil
}

func parseVEvent(src Source, ve *ical.VEvent, loc *time.Location) (ParsedEvent, error) {
	out := ParsedEvent{Source: src}

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = strings.TrimSpace(p.Value)
	}
	if out.Summary == "" {
		return out, errors.New("missing SUMMARY")
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, errors.New("missing DTSTART")
	}
	out.AllDay = isDateValue(dtStart)

	first, err := eventDate(ve, dtStart, out.AllDay, loc, true)
	if err != nil {
		return out, err
	}
	out.First = first
	out.Last = first

	if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
		end, err := eventDate(ve, dtEnd, out.AllDay, loc, false)
		if err != nil {
			return out, err
		}
		// All-day DTEND is exclusive.
		if out.AllDay {
			end = end.AddDate(0, 0, -1)
		}
		if end.After(first) {
			out.Last = end
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part, loc); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	return out, nil
}

// isDateValue reports whether a DTSTART/DTEND holds a DATE rather than a
// DATE-TIME.
func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// eventDate returns the calendar date of a DTSTART or DTEND in loc.
func eventDate(ve *ical.VEvent, p *ical.IANAProperty, allDay bool, loc *time.Location, start bool) (time.Time, error) {
	if allDay {
		return parseICSTime(p.Value, loc)
	}

	// Timed values may carry a TZID; let the library resolve it.
	var t time.Time
	var err error
	if start {
		t, err = ve.GetStartAt()
	} else {
		t, err = ve.GetEndAt()
	}
	if err != nil {
		return time.Time{}, err
	}
	return model.Date(t.In(loc)), nil
}

// parseICSTime parses a basic ICS DATE or DATE-TIME and returns the
// calendar date in loc.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	switch {
	case strings.HasSuffix(v, "Z"):
		t, err := time.Parse("20060102T150405Z", v)
		if err != nil {
			return time.Time{}, err
		}
		return model.Date(t.In(loc)), nil
	case strings.Contains(v, "T"):
		t, err := time.ParseInLocation("20060102T150405", v, loc)
		if err != nil {
			return time.Time{}, err
		}
		return model.Date(t), nil
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
