package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"coursecal/internal/config"
	appLog "coursecal/internal/log"
	"coursecal/internal/pipeline"
	"coursecal/internal/schedule"
)

var version = "0.1.0-dev"

// globalFlags holds flags shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	now        string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "coursecal",
		Short: "Course calendar and outline scheduler",
		Long: `coursecal lays a course outline onto the class meetings of a semester.

Every meeting day of the course gets its topics, the assignments due and the
Prep/Assign/Grade reminders derived from them. Holidays and other fixed dates
come from the config file and from optional ICS holiday feeds.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return appLog.Setup(os.Stderr, g.logLevel, appLog.Format(g.logFormat))
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", config.DefaultConfigPath(), "path to config file (.yaml or .toml)")
	pf.StringVar(&g.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&g.logFormat, "log-format", string(appLog.FormatConsole), "log format (console, json)")
	pf.StringVar(&g.now, "now", "", "pretend today is this date (YYYY-MM-DD or RFC3339)")

	rootCmd.AddCommand(newShowCmd(g))
	rootCmd.AddCommand(newOutlineCmd(g))
	rootCmd.AddCommand(newExportCmd(g))
	rootCmd.AddCommand(newServeCmd(g))
	rootCmd.AddCommand(newCaptureCmd())
	rootCmd.AddCommand(newInitCmd(g))

	return rootCmd
}

// loadConfig reads the config at path; a missing file is created with
// defaults (see config.Load).
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// nowFunc resolves --now in the config's timezone.
func nowFunc(value string, cfg *config.Config) (func() time.Time, error) {
	if value == "" {
		return time.Now, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return func() time.Time { return t }, nil
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	t, err := time.ParseInLocation(config.DateLayout, value, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid --now %q: want YYYY-MM-DD or RFC3339", value)
	}
	// Noon keeps "nearest to today" on the given date.
	t = t.Add(12 * time.Hour)
	return func() time.Time { return t }, nil
}

func newBuilder(g *globalFlags, configPath string) (*pipeline.Builder, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	now, err := nowFunc(g.now, cfg)
	if err != nil {
		return nil, err
	}
	b := pipeline.New(cfg, configPath)
	b.Now = now
	return b, nil
}

func buildSchedule(ctx context.Context, g *globalFlags) (*schedule.Schedule, error) {
	b, err := newBuilder(g, g.configPath)
	if err != nil {
		return nil, err
	}
	return b.Build(ctx)
}
