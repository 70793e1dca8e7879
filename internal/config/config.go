package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"coursecal/internal/model"
)

// DateLayout is the layout of every date in the config file.
const DateLayout = "2006-01-02"

// FixedDateConfig describes a holiday, exam or other fixed date.
type FixedDateConfig struct {
	Name  string `yaml:"name" toml:"name" json:"name"`
	Start string `yaml:"start" toml:"start" json:"start"`
	// End is optional; an empty End means a single-day fixed date.
	End string `yaml:"end,omitempty" toml:"end,omitempty" json:"end,omitempty"`
	// ClassDay keeps the day instructional even though it is fixed.
	ClassDay bool `yaml:"class_day,omitempty" toml:"class_day,omitempty" json:"class_day,omitempty"`
}

// SemesterConfig describes the semester the course is taught in.
type SemesterConfig struct {
	Name       string            `yaml:"name" toml:"name" json:"name"`
	Start      string            `yaml:"start" toml:"start" json:"start"`
	End        string            `yaml:"end" toml:"end" json:"end"`
	FixedDates []FixedDateConfig `yaml:"fixed_dates" toml:"fixed_dates" json:"fixed_dates"`
}

// CourseConfig describes the course itself.
type CourseConfig struct {
	Name  string `yaml:"name" toml:"name" json:"name"`
	Title string `yaml:"title" toml:"title" json:"title"`
	// Days lists meeting days as Sun, Mon, Tue, Wed, Thu, Fri, Sat.
	Days       []string          `yaml:"days" toml:"days" json:"days"`
	FixedDates []FixedDateConfig `yaml:"fixed_dates" toml:"fixed_dates" json:"fixed_dates"`
}

// FeedConfig describes an ICS holiday feed whose events become
// semester-wide fixed dates.
type FeedConfig struct {
	// ID is an internal identifier used for caching and logging.
	ID string `yaml:"id" toml:"id" json:"id"`
	// URL is an http(s) ICS endpoint. Mutually exclusive with Path.
	URL string `yaml:"url,omitempty" toml:"url,omitempty" json:"url,omitempty"`
	// Path is a local .ics file, relative to the config file.
	Path string `yaml:"path,omitempty" toml:"path,omitempty" json:"path,omitempty"`
	// ClassDay marks the feed's dates as still instructional.
	ClassDay bool `yaml:"class_day,omitempty" toml:"class_day,omitempty" json:"class_day,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the web server.
type BasicAuthConfig struct {
	Username string `yaml:"username" toml:"username" json:"username"`
	Password string `yaml:"password" toml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Timezone is the IANA zone course dates are interpreted in.
	// "Local" uses the host zone.
	Timezone string `yaml:"timezone" toml:"timezone" json:"timezone"`

	Semester SemesterConfig `yaml:"semester" toml:"semester" json:"semester"`
	Course   CourseConfig   `yaml:"course" toml:"course" json:"course"`

	// Outline is the path of the outline source (JSON or YAML), relative
	// to the config file.
	Outline string `yaml:"outline" toml:"outline" json:"outline"`

	HolidayFeeds []FeedConfig `yaml:"holiday_feeds" toml:"holiday_feeds" json:"holiday_feeds"`

	// Listen is the HTTP listen address of `coursecal serve`.
	Listen string `yaml:"listen" toml:"listen" json:"listen"`

	// RefreshCron is a standard cron spec controlling how often the served
	// schedule is rebuilt.
	RefreshCron string `yaml:"refresh" toml:"refresh" json:"refresh"`

	// CacheDir holds cached holiday feed bodies.
	CacheDir string `yaml:"cache_dir" toml:"cache_dir" json:"cache_dir"`

	// BasicAuth, if set, protects every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" toml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone: "Local",
		Semester: SemesterConfig{
			Name:  "Fall 2018",
			Start: "2018-08-27",
			End:   "2018-12-07",
			FixedDates: []FixedDateConfig{
				{Name: "Labor Day", Start: "2018-09-03"},
				{Name: "Fall Break", Start: "2018-10-19", End: "2018-10-22"},
				{Name: "Thanksgiving", Start: "2018-11-21", End: "2018-11-25"},
			},
		},
		Course: CourseConfig{
			Name:  "COS 243",
			Title: "Multi-Tier Web App Dev",
			Days:  []string{"Mon", "Wed", "Fri"},
			FixedDates: []FixedDateConfig{
				{Name: "Exam 1", Start: "2018-10-15"},
				{Name: "Exam 2", Start: "2018-11-19"},
				{Name: "Show & Tell", Start: "2018-12-07", ClassDay: true},
			},
		},
		Outline:      "outline.json",
		HolidayFeeds: []FeedConfig{},
		Listen:       "127.0.0.1:8080",
		RefreshCron:  "0 * * * *",
		CacheDir:     DefaultCacheDir(),
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "0 * * * *"
	}
	if c.CacheDir == "" {
		c.CacheDir = DefaultCacheDir()
	}
	if c.Outline == "" {
		c.Outline = "outline.json"
	}
	if c.HolidayFeeds == nil {
		c.HolidayFeeds = []FeedConfig{}
	}
	for i := range c.HolidayFeeds {
		if c.HolidayFeeds[i].ID == "" {
			c.HolidayFeeds[i].ID = fmt.Sprintf("feed-%d", i+1)
		}
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Resolve makes a config-relative path absolute. Absolute paths and URLs
// are returned unchanged.
func Resolve(configPath, p string) string {
	if p == "" || filepath.IsAbs(p) || strings.Contains(p, "://") {
		return p
	}
	return filepath.Join(filepath.Dir(configPath), p)
}

// BuildCourse materializes the configured semester and course. extra fixed dates
// (from holiday feeds) are appended after the semester's own fixed dates.
func (c *Config) BuildCourse(extra []model.FixedDate) (*model.Course, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}

	semStart, err := time.ParseInLocation(DateLayout, c.Semester.Start, loc)
	if err != nil {
		return nil, fmt.Errorf("semester.start: %w", err)
	}
	semEnd, err := time.ParseInLocation(DateLayout, c.Semester.End, loc)
	if err != nil {
		return nil, fmt.Errorf("semester.end: %w", err)
	}

	semFixed, err := fixedDates(c.Semester.FixedDates, loc)
	if err != nil {
		return nil, fmt.Errorf("semester.fixed_dates: %w", err)
	}
	semFixed = append(semFixed, extra...)

	sem, err := model.NewSemester(c.Semester.Name, semStart, semEnd, semFixed)
	if err != nil {
		return nil, err
	}

	courseFixed, err := fixedDates(c.Course.FixedDates, loc)
	if err != nil {
		return nil, fmt.Errorf("course.fixed_dates: %w", err)
	}

	return model.NewCourse(c.Course.Name, c.Course.Title, sem, c.Course.Days, courseFixed)
}

func fixedDates(in []FixedDateConfig, loc *time.Location) ([]model.FixedDate, error) {
	out := make([]model.FixedDate, 0, len(in))
	for i, fc := range in {
		start, err := time.ParseInLocation(DateLayout, fc.Start, loc)
		if err != nil {
			return nil, fmt.Errorf("[%d].start: %w", i, err)
		}
		var end time.Time
		if fc.End != "" {
			end, err = time.ParseInLocation(DateLayout, fc.End, loc)
			if err != nil {
				return nil, fmt.Errorf("[%d].end: %w", i, err)
			}
		}
		fd, err := model.NewFixedDate(fc.Name, start, end, fc.ClassDay)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out = append(out, fd)
	}
	return out, nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load loads configuration from the given YAML or TOML path (chosen by
// extension).
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the file is decoded and normalized. Validation is left to
//     the caller (see Validate).
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	return Decode(data, isTOML(path))
}

// Decode parses config bytes and normalizes the result.
func Decode(data []byte, asTOML bool) (*Config, error) {
	var cfg Config
	if asTOML {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return err
		}
		data = buf.Bytes()
	} else {
		var err error
		data, err = yaml.Marshal(cfg)
		if err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(dir, ".coursecal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method that delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
