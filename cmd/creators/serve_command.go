package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"creators/internal/daemon"
	"creators/internal/logging"
	"creators/internal/metrics"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the creators HTTP API",
		Long: "Serve the /creators routes and /metrics until interrupted. " +
			"When api.update_interval_minutes is set, updates also run on that schedule.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if bind != "" {
				cfg.API.Bind = bind
			}

			logFile := fmt.Sprintf("creators-%s.log", time.Now().UTC().Format("20060102T150405"))
			logger, err := logging.NewFromConfig(cfg, logFile)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			m := metrics.New(registry)

			s, err := ctx.openSession(cmd.Context(), logger, m)
			if err != nil {
				return err
			}
			defer s.Close()

			d, err := daemon.New(cfg, daemon.Deps{
				Runner:   s.runner,
				Metrics:  m,
				Registry: registry,
				LogFile:  logFile,
			}, logger)
			if err != nil {
				return err
			}
			logger.Info("log file", logging.String("path", filepath.Join(cfg.Paths.LogDir, logFile)))
			return d.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address, overriding api.bind")
	return cmd
}
