package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"coursecal/internal/capture"
	appLog "coursecal/internal/log"
	"coursecal/internal/web"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var (
		listen      string
		capturePath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calendar over HTTP and rebuild it on a schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := newBuilder(g, g.configPath)
			if err != nil {
				return err
			}
			cfg := b.Config
			if listen != "" {
				cfg.Listen = listen
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				select {
				case sig := <-sigCh:
					appLog.Info("signal received, shutting down", "signal", sig.String())
					cancel()
				case <-ctx.Done():
				}
			}()

			srv := web.NewServer(cfg, b)

			refresh := func() {
				if err := srv.Rebuild(ctx); err != nil {
					return
				}
				if capturePath == "" {
					return
				}
				err := capture.SchedulePNG(ctx, capture.Options{
					URL:        "http://" + cfg.Listen + "/",
					OutputPath: capturePath,
				})
				if err != nil {
					appLog.Error("schedule capture failed", err, "path", capturePath)
					return
				}
				appLog.Info("schedule captured", "path", capturePath)
			}

			// The first build must succeed so the server never starts empty.
			if err := srv.Rebuild(ctx); err != nil {
				return err
			}

			c := cron.New(cron.WithLogger(appLog.CronLogger{}))
			if _, err := c.AddFunc(cfg.RefreshCron, refresh); err != nil {
				return err
			}
			c.Start()
			defer func() {
				stopCtx := c.Stop()
				select {
				case <-stopCtx.Done():
				case <-time.After(5 * time.Second):
				}
			}()
			appLog.Info("refresh scheduled", "cron", cfg.RefreshCron)

			if capturePath != "" {
				// Capture needs the listener up; run it once shortly after start.
				go func() {
					select {
					case <-time.After(time.Second):
						refresh()
					case <-ctx.Done():
					}
				}()
			}

			return srv.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config)")
	cmd.Flags().StringVar(&capturePath, "capture", "", "write a PNG screenshot of the page here after every rebuild")
	return cmd
}
