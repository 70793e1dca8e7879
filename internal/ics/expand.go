package ics

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/teambition/rrule-go"

	appLog "coursecal/internal/log"
	"coursecal/internal/model"
)

const defaultMaxOccurrencesPerEvent = 500

// ExpandConfig bounds recurrence expansion.
type ExpandConfig struct {
	// From / To is the inclusive date window, normally the semester.
	From time.Time
	To   time.Time

	// MaxOccurrencesPerEvent caps runaway rules. Zero means
	// defaultMaxOccurrencesPerEvent.
	MaxOccurrencesPerEvent int
}

// ExpandFixedDates turns feed events into fixed dates overlapping the
// window. Recurring events are expanded with their RRULE minus EXDATEs.
// Results are ordered by start date, then by feed order.
func ExpandFixedDates(events []ParsedEvent, cfg ExpandConfig) ([]model.FixedDate, error) {
	if cfg.To.Before(cfg.From) {
		return nil, errors.New("expand: To is before From")
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}
	from, to := model.Date(cfg.From), model.Date(cfg.To)

	var out []model.FixedDate
	for _, ev := range events {
		firsts, err := occurrenceStarts(ev, from, to, cfg.MaxOccurrencesPerEvent)
		if err != nil {
			appLog.Error("expand: skipping event", err, "id", ev.Source.ID, "uid", ev.UID)
			continue
		}

		span := ev.Days() - 1
		for _, first := range firsts {
			last := first.AddDate(0, 0, span)
			if last.Before(from) || first.After(to) {
				continue
			}
			fd, err := model.NewFixedDate(ev.Summary, first, last, ev.Source.ClassDay)
			if err != nil {
				return nil, fmt.Errorf("expand %q: %w", ev.Summary, err)
			}
			out = append(out, fd)
		}
	}

	slices.SortStableFunc(out, func(a, b model.FixedDate) int {
		return a.Start().Compare(b.Start())
	})
	return out, nil
}

// occurrenceStarts returns the first date of each occurrence of ev that may
// overlap [from, to].
func occurrenceStarts(ev ParsedEvent, from, to time.Time, limit int) ([]time.Time, error) {
	if ev.RawRRule == "" {
		return []time.Time{ev.First}, nil
	}

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		return nil, fmt.Errorf("parse RRULE %q: %w", ev.RawRRule, err)
	}
	r.DTStart(ev.First)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex)
	}

	// Widen the window so multi-day occurrences starting before From count.
	span := ev.Days() - 1
	starts := set.Between(from.AddDate(0, 0, -span), to, true)
	if len(starts) > limit {
		appLog.Warn("expand: occurrences truncated", "uid", ev.UID, "cap", limit)
		starts = starts[:limit]
	}
	for i, s := range starts {
		starts[i] = model.Date(s)
	}
	return starts, nil
}
