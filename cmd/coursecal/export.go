package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"coursecal/internal/ics"
	appLog "coursecal/internal/log"
	"coursecal/internal/schedule"
)

func newExportCmd(g *globalFlags) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export [config-glob]",
		Short: "Export the course calendar as iCalendar",
		Long: `Export writes one VEVENT per course day.

Without arguments the course from --config is written to --out ("-" is
stdout). With a glob such as "courses/**/*.yaml" every matching config is
built and written to <out>/<course>.ics.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				s, err := buildSchedule(cmd.Context(), g)
				if err != nil {
					return err
				}
				if out == "" || out == "-" {
					return ics.Export(cmd.OutOrStdout(), s, time.Now())
				}
				return writeICS(out, s)
			}

			paths, err := doublestar.FilepathGlob(args[0])
			if err != nil {
				return fmt.Errorf("bad glob %q: %w", args[0], err)
			}
			if len(paths) == 0 {
				return fmt.Errorf("no config files match %q", args[0])
			}
			if out == "" || out == "-" {
				out = "."
			}

			var failed int
			for _, p := range paths {
				b, err := newBuilder(g, p)
				if err != nil {
					appLog.Error("skipping config", err, "config_path", p)
					failed++
					continue
				}
				s, err := b.Build(cmd.Context())
				if err != nil {
					appLog.Error("skipping config", err, "config_path", p)
					failed++
					continue
				}
				dst := filepath.Join(out, icsFileName(s.Course.Name))
				if err := writeICS(dst, s); err != nil {
					return err
				}
				appLog.Info("calendar exported", "course", s.Course.Name, "path", dst)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d configs failed", failed, len(paths))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, or directory when a glob is given")
	return cmd
}

func writeICS(path string, s *schedule.Schedule) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ics.Export(f, s, time.Now()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// icsFileName maps "COS 243" to "cos-243.ics".
func icsFileName(course string) string {
	name := strings.Join(strings.Fields(strings.ToLower(course)), "-")
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return -1
	}, name)
	if name == "" {
		name = "course"
	}
	return name + ".ics"
}

