package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"coursecal/internal/config"
	appLog "coursecal/internal/log"
)

const sampleOutline = `["org-data", {"title": "COS 243"},
  ["headline", {"title": "Introduction", "tags": ["topic"], "level": 1}],
  ["headline", {"title": "HTTP", "tags": ["topic"], "level": 1},
    ["headline", {"title": "Reading: [[https://developer.mozilla.org/en-US/docs/Web/HTTP][MDN HTTP]]", "level": 2}]],
  ["headline", {"title": "Quiz 1", "tags": ["hw", "before"], "level": 1}],
  ["headline", {"title": "Databases", "tags": ["topic"], "level": 1}],
  ["headline", {"title": "Project 1", "tags": ["hw", "after"], "level": 1}]
]
`

func newInitCmd(g *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample config and outline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := g.configPath
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}

			cfg := config.DefaultConfig()
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			appLog.Info("config written", "path", path)

			outlinePath := config.Resolve(path, cfg.Outline)
			if _, err := os.Stat(outlinePath); err == nil && !force {
				appLog.Info("keeping existing outline", "path", outlinePath)
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(outlinePath), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(outlinePath, []byte(sampleOutline), 0o644); err != nil {
				return err
			}
			appLog.Info("outline written", "path", outlinePath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	return cmd
}
