package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "optstrat/internal/errors"
)

func TestLoadCreatesTemplate(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.FileExists(t, TemplatePath(dir))
	assert.FileExists(t, filepath.Join(dir, ".env"))

	assert.Equal(t, filepath.Join(dir, "contracts.csv"), cfg.Contracts.Path)
	assert.Equal(t, filepath.Join(dir, "optstrat.db"), cfg.Store.Path)
	assert.True(t, cfg.Store.Enabled)
	assert.Equal(t, 1.0, cfg.Payoff.Step)
	assert.Equal(t, 0.1, cfg.Payoff.Padding)
	assert.Equal(t, 1.0, cfg.Payoff.Multiplier)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadReadsFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[contracts]
path = "/data/es.json"

[payoff]
step = 5
padding = 0.05

[log]
level = "debug"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/data/es.json", cfg.Contracts.Path)
	assert.Equal(t, 5.0, cfg.Payoff.Step)
	assert.Equal(t, 0.05, cfg.Payoff.Padding)
	assert.Equal(t, "debug", cfg.Log.Level)
	// unset keys keep their defaults
	assert.Equal(t, 1.0, cfg.Payoff.Multiplier)
	assert.Equal(t, filepath.Join(dir, "optstrat.db"), cfg.Store.Path)
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("OPTSTRAT_CONTRACTS", "/tmp/contracts.csv")
	t.Setenv("OPTSTRAT_DB", "/tmp/optstrat.db")
	t.Setenv("OPTSTRAT_LOG_LEVEL", "warn")
	t.Setenv("OPTSTRAT_STEP", "2.5")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/contracts.csv", cfg.Contracts.Path)
	assert.Equal(t, "/tmp/optstrat.db", cfg.Store.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 2.5, cfg.Payoff.Step)
}

func TestDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OPTSTRAT_DB=/var/lib/optstrat.db\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("OPTSTRAT_DB") })

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/optstrat.db", cfg.Store.Path)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[payoff]\nstep = 0\n"), 0644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConfigInvalid), "got %v", err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero step", func(c *Config) { c.Payoff.Step = 0 }, true},
		{"negative padding", func(c *Config) { c.Payoff.Padding = -0.1 }, true},
		{"zero multiplier", func(c *Config) { c.Payoff.Multiplier = 0 }, true},
		{"store without path", func(c *Config) { c.Store.Path = "" }, true},
		{"disabled store without path", func(c *Config) { c.Store.Enabled = false; c.Store.Path = "" }, false},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.True(t, apperrors.Is(err, apperrors.ErrConfigInvalid), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
