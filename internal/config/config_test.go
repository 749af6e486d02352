package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Config Loading Tests
// =============================================================================

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "./pulse-mapper.db", cfg.Store.DSN)
	assert.Equal(t, "./pulse-mapper.db", cfg.Store.Location())
	assert.Equal(t, FormatText, cfg.Output.Format)
}

func TestLoad_FromFile(t *testing.T) {
	clearEnv(t)

	configContent := `
log:
  level: debug
  format: json
store:
  driver: file
  dir: /tmp/pulse-templates
output:
  format: yaml
`
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(configContent), 0o644))

	cfg, err := Load(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "file", cfg.Store.Driver)
	assert.Equal(t, "/tmp/pulse-templates", cfg.Store.Location())
	assert.Equal(t, FormatYAML, cfg.Output.Format)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	clearEnv(t)

	t.Setenv("PULSEMAP_LOG_LEVEL", "error")
	t.Setenv("PULSEMAP_STORE_DSN", "/custom/templates.db")
	t.Setenv("PULSEMAP_OUTPUT_FORMAT", "json")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "/custom/templates.db", cfg.Store.DSN)
	assert.Equal(t, FormatJSON, cfg.Output.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  string
		val  string
	}{
		{"log format", "PULSEMAP_LOG_FORMAT", "xml"},
		{"store driver", "PULSEMAP_STORE_DRIVER", "postgres"},
		{"output format", "PULSEMAP_OUTPUT_FORMAT", "csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.env, tt.val)

			_, err := Load("")
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

// =============================================================================
// Test Helpers
// =============================================================================

func clearEnv(t *testing.T) {
	t.Helper()

	for _, v := range []string{
		"PULSEMAP_LOG_LEVEL",
		"PULSEMAP_LOG_FORMAT",
		"PULSEMAP_STORE_DRIVER",
		"PULSEMAP_STORE_DSN",
		"PULSEMAP_STORE_DIR",
		"PULSEMAP_OUTPUT_FORMAT",
	} {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
}
