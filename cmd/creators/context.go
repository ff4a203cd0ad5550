package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"creators/internal/config"
	"creators/internal/logging"
	"creators/internal/metrics"
	"creators/internal/pasta"
	"creators/internal/pipeline"
	"creators/internal/store"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// commandLogger logs to the command's stderr in the configured format.
func (c *commandContext) commandLogger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level
	if c.verbose != nil && *c.verbose {
		level = "debug"
	}
	return logging.New(logging.Options{
		Level:  level,
		Format: cfg.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
}

// session bundles what a command opened so it can be closed together.
type session struct {
	cfg    *config.Config
	store  *store.Store
	runner *pipeline.Runner
	logger *slog.Logger
}

func (s *session) Close() error {
	if s == nil || s.store == nil {
		return nil
	}
	return s.store.Close()
}

// openSession opens the store and builds a runner. The repository client
// is configured whenever a base URL is set.
func (c *commandContext) openSession(ctx context.Context, logger *slog.Logger, m *metrics.Metrics) (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	opts := []pipeline.Option{pipeline.WithLogger(logger), pipeline.WithMetrics(m)}
	if cfg.PASTA.BaseURL != "" {
		client, err := newPASTAClient(cfg, logger, m)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		opts = append(opts, pipeline.WithClient(client))
	}
	runner, err := pipeline.New(ctx, cfg, st, opts...)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return &session{cfg: cfg, store: st, runner: runner, logger: logger}, nil
}

func newPASTAClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*pasta.Client, error) {
	return pasta.New(cfg.PASTA.BaseURL,
		pasta.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout()}),
		pasta.WithBurstSize(cfg.PASTA.BurstSize),
		pasta.WithRetries(cfg.PASTA.MaxRetries, cfg.RetryDelay()),
		pasta.WithSkipScopes(cfg.PASTA.SkipScopes),
		pasta.WithLogger(logger),
		pasta.WithMetrics(m),
	)
}

// withSession runs fn with a logger and open session for one-shot commands.
func (c *commandContext) withSession(cmd *cobra.Command, fn func(*session) error) error {
	logger, err := c.commandLogger(cmd)
	if err != nil {
		return err
	}
	s, err := c.openSession(cmd.Context(), logger, nil)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
