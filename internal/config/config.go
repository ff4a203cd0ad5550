package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations.
type Paths struct {
	DataDir        string `toml:"data_dir"`
	EMLDir         string `toml:"eml_dir"`
	CorrectionsDir string `toml:"corrections_dir"`
	SnapshotDir    string `toml:"snapshot_dir"`
	LogDir         string `toml:"log_dir"`
	DatabasePath   string `toml:"database_path"`
	LockPath       string `toml:"lock_path"`
}

// Corrections names the reference data files inside Paths.CorrectionsDir.
type Corrections struct {
	Nicknames             string `toml:"nicknames"`
	PersonVariants        string `toml:"person_variants"`
	Overrides             string `toml:"overrides"`
	IdentifierCorrections string `toml:"identifier_corrections"`
	Organizations         string `toml:"organizations"`
}

// PASTA contains configuration for the repository the EML documents come from.
type PASTA struct {
	BaseURL               string   `toml:"base_url"`
	BurstSize             int      `toml:"burst_size"`
	MaxRetries            int      `toml:"max_retries"`
	RetryDelaySeconds     int      `toml:"retry_delay_seconds"`
	RequestTimeoutSeconds int      `toml:"request_timeout_seconds"`
	DefaultFromDate       string   `toml:"default_from_date"`
	SkipScopes            []string `toml:"skip_scopes"`
}

// Matching tunes the clustering engine.
type Matching struct {
	CreatorsOnly          bool `toml:"creators_only"`
	MatchSharedIdentifier bool `toml:"match_shared_identifier"`
}

// API contains the daemon HTTP settings.
type API struct {
	Bind                  string `toml:"bind"`
	UpdateIntervalMinutes int    `toml:"update_interval_minutes"`
	// Token, when set, is required as a bearer token on POST routes.
	Token string `toml:"token"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for creators.
//
// Configuration sections by subsystem:
//   - Paths: data, EML archive, reference data, snapshots, logs, database
//   - Corrections: reference data file names
//   - PASTA: change feed and metadata retrieval
//   - Matching: clustering switches
//   - API: daemon bind address and update schedule
//   - Logging: log format, level, and retention
type Config struct {
	Paths       Paths       `toml:"paths"`
	Corrections Corrections `toml:"corrections"`
	PASTA       PASTA       `toml:"pasta"`
	Matching    Matching    `toml:"matching"`
	API         API         `toml:"api"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("creators.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemon and CLI write into.
// The corrections directory is curated by hand and is never created here.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DataDir,
		c.Paths.EMLDir,
		c.Paths.SnapshotDir,
		c.Paths.LogDir,
		filepath.Dir(c.Paths.DatabasePath),
		filepath.Dir(c.Paths.LockPath),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CorrectionsFile returns the absolute path of a reference data file name.
func (c *Config) CorrectionsFile(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Paths.CorrectionsDir, name)
}

// RetryDelay returns the pause between retrieval attempts.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.PASTA.RetryDelaySeconds) * time.Second
}

// RequestTimeout returns the per-request HTTP timeout for PASTA calls.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.PASTA.RequestTimeoutSeconds) * time.Second
}

// UpdateInterval returns the daemon's scheduled update period; zero disables it.
func (c *Config) UpdateInterval() time.Duration {
	return time.Duration(c.API.UpdateIntervalMinutes) * time.Minute
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	pathValue = os.ExpandEnv(pathValue)
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
