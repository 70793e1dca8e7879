package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/robfig/cron/v3"

	"coursecal/internal/model"
)

// Validate checks the configuration and reports every problem at once as
// criterio.FieldErrors.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("timezone", c.Timezone, validTimezone),
		criterio.Run("semester.name", c.Semester.Name, required),
		criterio.Run("semester.start", c.Semester.Start, validDate),
		criterio.Run("semester.end", c.Semester.End, validDate),
		c.validateSemesterRange(),
		criterio.Run("course.name", c.Course.Name, required),
		c.validateDays(),
		validateFixedDates("semester.fixed_dates", c.Semester.FixedDates),
		validateFixedDates("course.fixed_dates", c.Course.FixedDates),
		c.validateFeeds(),
		criterio.Run("refresh", c.RefreshCron, validCron),
	)
}

func required(v string) error {
	if v == "" {
		return errors.New("is required")
	}
	return nil
}

func validTimezone(tz string) error {
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("unknown timezone %q", tz)
	}
	return nil
}

func validDate(v string) error {
	if v == "" {
		return errors.New("is required")
	}
	if _, err := time.Parse(DateLayout, v); err != nil {
		return fmt.Errorf("invalid date %q, want YYYY-MM-DD", v)
	}
	return nil
}

func validCron(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return nil
}

func (c *Config) validateSemesterRange() error {
	start, err1 := time.Parse(DateLayout, c.Semester.Start)
	end, err2 := time.Parse(DateLayout, c.Semester.End)
	if err1 != nil || err2 != nil {
		return nil // reported by validDate
	}
	if start.After(end) {
		return criterio.NewFieldErrors("semester", fmt.Errorf("start %s is after end %s", c.Semester.Start, c.Semester.End))
	}
	return nil
}

func (c *Config) validateDays() error {
	if len(c.Course.Days) == 0 {
		return criterio.NewFieldErrors("course.days", errors.New("at least one meeting day is required"))
	}
	var errs criterio.FieldErrorsBuilder
	for i, d := range c.Course.Days {
		if _, err := model.ParseWeekday(d); err != nil {
			errs = errs.Append(fmt.Sprintf("course.days[%d]", i), fmt.Errorf("%w, want one of Sun Mon Tue Wed Thu Fri Sat", err))
		}
	}
	return errs.ToError()
}

func validateFixedDates(field string, fds []FixedDateConfig) error {
	var errs criterio.FieldErrorsBuilder
	for i, fd := range fds {
		prefix := fmt.Sprintf("%s[%d]", field, i)
		if fd.Name == "" {
			errs = errs.Append(prefix+".name", errors.New("is required"))
		}
		if err := validDate(fd.Start); err != nil {
			errs = errs.Append(prefix+".start", err)
			continue
		}
		if fd.End == "" {
			continue
		}
		if err := validDate(fd.End); err != nil {
			errs = errs.Append(prefix+".end", err)
			continue
		}
		if fd.End < fd.Start {
			errs = errs.Append(prefix, fmt.Errorf("end %s is before start %s", fd.End, fd.Start))
		}
	}
	return errs.ToError()
}

func (c *Config) validateFeeds() error {
	var errs criterio.FieldErrorsBuilder
	for i, f := range c.HolidayFeeds {
		prefix := fmt.Sprintf("holiday_feeds[%d]", i)
		switch {
		case f.URL == "" && f.Path == "":
			errs = errs.Append(prefix, errors.New("one of url or path is required"))
		case f.URL != "" && f.Path != "":
			errs = errs.Append(prefix, errors.New("url and path are mutually exclusive"))
		}
	}
	return errs.ToError()
}
