package main

import (
	"time"

	"github.com/spf13/cobra"

	"coursecal/internal/capture"
	appLog "coursecal/internal/log"
)

func newCaptureCmd() *cobra.Command {
	var opts capture.Options
	var timeout int

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Screenshot a running schedule page with headless Chromium",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Timeout = time.Duration(timeout) * time.Second
			if err := capture.SchedulePNG(cmd.Context(), opts); err != nil {
				return err
			}
			appLog.Info("schedule captured", "url", opts.URL, "path", opts.OutputPath)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.URL, "url", "http://127.0.0.1:8080/", "page to capture")
	f.StringVarP(&opts.OutputPath, "out", "o", "schedule.png", "output PNG path")
	f.IntVar(&opts.Width, "width", capture.DefaultWidth, "viewport width in pixels")
	f.IntVar(&opts.Height, "height", capture.DefaultHeight, "viewport height in pixels")
	f.IntVar(&timeout, "timeout", capture.DefaultTimeoutSec, "timeout in seconds")
	return cmd
}
