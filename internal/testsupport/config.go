package testsupport

import (
	"path/filepath"
	"testing"

	"creators/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose every path lives in a per-test temp
// directory. Retry delays are zeroed so failing fetches finish quickly.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths = config.Paths{
		DataDir:        filepath.Join(base, "data"),
		EMLDir:         filepath.Join(base, "data", "eml"),
		CorrectionsDir: filepath.Join(base, "corrections"),
		SnapshotDir:    filepath.Join(base, "data", "possible_dups"),
		LogDir:         filepath.Join(base, "logs"),
		DatabasePath:   filepath.Join(base, "data", "creators.db"),
		LockPath:       filepath.Join(base, "data", "update.lock"),
	}
	cfgVal.PASTA.RetryDelaySeconds = 0
	cfgVal.PASTA.MaxRetries = 2
	cfgVal.API.Bind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithPASTA points the config at a test server.
func WithPASTA(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.PASTA.BaseURL = baseURL
	}
}

// WithSkipScopes replaces the skipped scope list.
func WithSkipScopes(scopes ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.PASTA.SkipScopes = scopes
	}
}

// WithAllRoles clusters every party, not only creators.
func WithAllRoles() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Matching.CreatorsOnly = false
	}
}

// WithCorrections writes the default reference data, with any files in
// bodies replacing the defaults. See WriteCorrections.
func WithCorrections(bodies map[string]string) ConfigOption {
	return func(b *configBuilder) {
		WriteCorrections(b.t, b.cfg, bodies)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.CorrectionsDir)
}
