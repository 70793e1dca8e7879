// Package pipeline turns a config file into a bound schedule: holiday
// feeds, course, outline, calendar.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"coursecal/internal/config"
	"coursecal/internal/ics"
	appLog "coursecal/internal/log"
	"coursecal/internal/model"
	"coursecal/internal/outline"
	"coursecal/internal/schedule"
)

// Builder builds schedules from one config.
type Builder struct {
	Config *config.Config
	// ConfigPath anchors relative outline and feed paths.
	ConfigPath string
	Fetcher    *ics.Fetcher
	// Now is read once per build. Nil means time.Now.
	Now func() time.Time
}

// New returns a Builder with a fetcher caching under cfg.CacheDir.
func New(cfg *config.Config, configPath string) *Builder {
	return &Builder{
		Config:     cfg,
		ConfigPath: configPath,
		Fetcher:    ics.NewFetcher(cfg.CacheDir),
	}
}

// Build validates the config and produces a fresh schedule. A failing
// holiday feed is logged and skipped; every other failure is returned.
func (b *Builder) Build(ctx context.Context) (*schedule.Schedule, error) {
	cfg := b.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	course, err := cfg.BuildCourse(nil)
	if err != nil {
		return nil, err
	}

	if holidays := b.holidays(ctx, course.Semester); len(holidays) > 0 {
		if course, err = cfg.BuildCourse(holidays); err != nil {
			return nil, err
		}
	}

	src, err := outline.LoadFile(config.Resolve(b.ConfigPath, cfg.Outline))
	if err != nil {
		return nil, fmt.Errorf("load outline: %w", err)
	}

	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	s, err := schedule.New(course, src, now())
	if err != nil {
		return nil, err
	}

	appLog.Info("schedule built",
		"course", course.Name,
		"semester", course.Semester.Name,
		"course_days", s.Calendar.TotalCourseDays(),
		"class_days", s.Calendar.TotalClassDays(),
		"scheduled_nodes", len(s.Scheduled()),
	)
	return s, nil
}

func (b *Builder) holidays(ctx context.Context, sem *model.Semester) []model.FixedDate {
	if len(b.Config.HolidayFeeds) == 0 {
		return nil
	}

	sources := make([]ics.Source, 0, len(b.Config.HolidayFeeds))
	for _, f := range b.Config.HolidayFeeds {
		src := ics.Source{ID: f.ID, URL: f.URL, ClassDay: f.ClassDay}
		if f.Path != "" {
			src.Path = config.Resolve(b.ConfigPath, f.Path)
		}
		sources = append(sources, src)
	}

	fetcher := b.Fetcher
	if fetcher == nil {
		fetcher = ics.NewFetcher(b.Config.CacheDir)
	}
	dates, err := fetcher.HolidayDates(ctx, sources, sem.Start, sem.End)
	if err != nil {
		appLog.Warn("some holiday feeds were skipped", "reason", err.Error())
	}
	appLog.Debug("holiday feeds loaded", "feeds", len(sources), "fixed_dates", len(dates))
	return dates
}
