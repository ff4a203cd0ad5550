package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCorrections()
	c.normalizePASTA()
	c.normalizeAPI()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		key      string
		value    *string
		fallback string
	}{
		{"paths.data_dir", &c.Paths.DataDir, defaultDataDir},
		{"paths.eml_dir", &c.Paths.EMLDir, defaultEMLDir},
		{"paths.corrections_dir", &c.Paths.CorrectionsDir, defaultCorrectionsDir},
		{"paths.snapshot_dir", &c.Paths.SnapshotDir, defaultSnapshotDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"paths.database_path", &c.Paths.DatabasePath, defaultDatabasePath},
		{"paths.lock_path", &c.Paths.LockPath, defaultLockPath},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	if value, ok := os.LookupEnv("CREATORS_CORRECTIONS_DIR"); ok && strings.TrimSpace(value) != "" {
		expanded, err := expandPath(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("CREATORS_CORRECTIONS_DIR: %w", err)
		}
		c.Paths.CorrectionsDir = expanded
	}
	return nil
}

func (c *Config) normalizeCorrections() {
	trimOr := func(value *string, fallback string) {
		*value = strings.TrimSpace(*value)
		if *value == "" {
			*value = fallback
		}
	}
	trimOr(&c.Corrections.Nicknames, defaultNicknamesFile)
	trimOr(&c.Corrections.PersonVariants, defaultPersonVariantsFile)
	trimOr(&c.Corrections.Overrides, defaultOverridesFile)
	trimOr(&c.Corrections.IdentifierCorrections, defaultIdentifierFile)
	trimOr(&c.Corrections.Organizations, defaultOrganizationsFile)
}

func (c *Config) normalizePASTA() {
	c.PASTA.BaseURL = strings.TrimRight(strings.TrimSpace(c.PASTA.BaseURL), "/")
	if c.PASTA.BaseURL == "" {
		if value, ok := os.LookupEnv("PASTA_BASE_URL"); ok {
			c.PASTA.BaseURL = strings.TrimRight(strings.TrimSpace(value), "/")
		}
	}
	c.PASTA.DefaultFromDate = strings.TrimSpace(c.PASTA.DefaultFromDate)
	if c.PASTA.DefaultFromDate == "" {
		c.PASTA.DefaultFromDate = defaultFromDate
	}
	scopes := make([]string, 0, len(c.PASTA.SkipScopes))
	seen := make(map[string]struct{}, len(c.PASTA.SkipScopes))
	for _, scope := range c.PASTA.SkipScopes {
		normalized := strings.ToLower(strings.TrimSpace(scope))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		scopes = append(scopes, normalized)
	}
	c.PASTA.SkipScopes = scopes
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv("CREATORS_API_TOKEN"); ok {
			c.API.Token = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
