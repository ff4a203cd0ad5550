package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creators/internal/api"
	"creators/internal/canonical"
	"creators/internal/config"
	"creators/internal/observation"
	"creators/internal/testsupport"
)

type cliEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLI(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cfg := testsupport.NewConfig(t, testsupport.WithCorrections(nil))
	cfg.Logging.Level = "error"

	data, err := toml.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	testsupport.WriteEML(t, cfg, observation.PackageID{Scope: "edi", Identifier: 1, Revision: 1}, testsupport.EML(
		testsupport.Creator{Given: "Robert", Surname: "Smith"},
		testsupport.Creator{Given: "Bob", Surname: "Smith"},
	))
	testsupport.WriteEML(t, cfg, observation.PackageID{Scope: "edi", Identifier: 2, Revision: 1}, testsupport.EML(
		testsupport.Creator{Given: "Stephen", Surname: "Carpenter"},
	))
	return &cliEnv{cfg: cfg, configPath: path}
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestRecomputeThenRead(t *testing.T) {
	env := setupCLI(t)

	out, err := env.run(t, "recompute", "--add", "edi.1.1", "--add", "edi.2.1", "--json")
	require.NoError(t, err)
	var summary api.RunSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, "recompute", summary.Kind)
	assert.Equal(t, 2, summary.Added)
	assert.Equal(t, 2, summary.Names)
	assert.Empty(t, summary.Error)

	out, err = env.run(t, "names")
	require.NoError(t, err)
	assert.Equal(t, "Carpenter, Stephen\nSmith, Robert\n", out)

	out, err = env.run(t, "variants", "Smith, Robert", "--json")
	require.NoError(t, err)
	var variants []string
	require.NoError(t, json.Unmarshal([]byte(out), &variants))
	assert.Equal(t, []string{"Smith, Bob", "Smith, Robert"}, variants)

	out, err = env.run(t, "scope", "edi")
	require.NoError(t, err)
	assert.Equal(t, "Carpenter, Stephen\nSmith, Robert\n", out)

	out, err = env.run(t, "status", "--json")
	require.NoError(t, err)
	var status api.Status
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, 2, status.Counts.Packages)
	assert.Equal(t, 2, status.Counts.CanonicalNames)
	assert.Equal(t, 2, status.Archived)

	out, err = env.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "== Creators ==")
	assert.Contains(t, out, "[WARN] Never")
}

func TestRecomputeTableOutput(t *testing.T) {
	env := setupCLI(t)

	out, err := env.run(t, "recompute", "--add", "edi.2.1")
	require.NoError(t, err)
	assert.Contains(t, out, "Canonical names")
	assert.Contains(t, out, "recompute")
}

func TestVariantsUnknownNameFails(t *testing.T) {
	env := setupCLI(t)

	_, err := env.run(t, "variants", "Nobody, Here")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Nobody, Here")
}

func TestRecomputeRejectsBadPackageID(t *testing.T) {
	env := setupCLI(t)

	_, err := env.run(t, "recompute", "--add", "edi.one.1")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "--add:"), err.Error())
}

func TestDupsFlush(t *testing.T) {
	env := setupCLI(t)

	for range 2 {
		out, err := env.run(t, "dups")
		require.NoError(t, err)
		assert.Equal(t, canonical.Separator+"\n", out, "no duplicates leaves only the separator")
	}

	out, err := env.run(t, "dups", "--flush", "--json")
	require.NoError(t, err)
	var flush api.FlushResponse
	require.NoError(t, json.Unmarshal([]byte(out), &flush))
	assert.Equal(t, "Flush completed", flush.Message)
	assert.Equal(t, 1, flush.Removed)
}

func TestOrphansEmpty(t *testing.T) {
	env := setupCLI(t)

	out, err := env.run(t, "orphans")
	require.NoError(t, err)
	assert.Equal(t, "No orphans\n", out)
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLI(t)
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, err := env.run(t, "config", "init", "--path", target)
	require.NoError(t, err)
	assert.Contains(t, out, target)

	_, err = env.run(t, "config", "init", "--path", target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	out, err = env.run(t, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")

	require.NoError(t, os.Remove(env.cfg.CorrectionsFile(env.cfg.Corrections.Nicknames)))
	_, err = env.run(t, "config", "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reference data")
}
