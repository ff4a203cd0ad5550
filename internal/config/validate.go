package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePASTA(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePASTA() error {
	if c.PASTA.BaseURL == "" {
		return errors.New("pasta.base_url must be set")
	}
	parsed, err := url.Parse(c.PASTA.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("pasta.base_url %q is not an absolute URL", c.PASTA.BaseURL)
	}
	if err := ensurePositiveMap(map[string]int{
		"pasta.burst_size":              c.PASTA.BurstSize,
		"pasta.max_retries":             c.PASTA.MaxRetries,
		"pasta.request_timeout_seconds": c.PASTA.RequestTimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.PASTA.RetryDelaySeconds < 0 {
		return errors.New("pasta.retry_delay_seconds must be >= 0")
	}
	if _, err := time.Parse(FromDateLayout, c.PASTA.DefaultFromDate); err != nil {
		return fmt.Errorf("pasta.default_from_date must be YYYY-MM-DD: %w", err)
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.UpdateIntervalMinutes < 0 {
		return errors.New("api.update_interval_minutes must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
