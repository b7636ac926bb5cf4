package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 8080

[catalog]
cache_duration = "12h"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "12h", cfg.Catalog.CacheDuration)
	assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
}

func TestLoad_MissingEnvVar(t *testing.T) {
	path := writeConfig(t, `
[tmdb]
api_key = "${DICE_TEST_MISSING_KEY}"
`)

	_, err := Load(path)
	require.Error(t, err)

	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, []string{"DICE_TEST_MISSING_KEY"}, cerr.Missing)
	assert.Equal(t, path, cerr.Path)
}

func TestLoad_ValidationError(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 99999
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "server.port"), "expected server.port in error, got %v", err)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "./data/dice.db", cfg.Database.Path)
	assert.Equal(t, "en", cfg.Catalog.DefaultLanguage)
	assert.Equal(t, 500, cfg.Catalog.MaxPages)
	assert.Equal(t, uint(2), cfg.Posters.DownloadAttempts)
	assert.Equal(t, 45, cfg.Scheduler.Concurrency)
	assert.Zero(t, cfg.Scheduler.RequestsPerSecond)
}

func TestLoad_ParseError(t *testing.T) {
	path := writeConfig(t, "[server\nport = ")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestLoadWithoutValidation(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 99999
`)

	cfg, err := LoadWithoutValidation(path)
	require.NoError(t, err)
	assert.Equal(t, 99999, cfg.Server.Port)
}

func TestLoad_EnvVarDefault(t *testing.T) {
	path := writeConfig(t, `
[server]
host = "${DICE_TEST_OPTIONAL_HOST:-localhost}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Server.Host)
}
