package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigError(t *testing.T) {
	empty := &ConfigError{Path: "/etc/tmdbdice/config.toml"}
	assert.False(t, empty.HasErrors())
	assert.Empty(t, empty.Error())

	missing := &ConfigError{Missing: []string{"TMDB_API_KEY", "RPDB_API_KEY"}}
	assert.True(t, missing.HasErrors())
	assert.Equal(t, "missing environment variables: TMDB_API_KEY, RPDB_API_KEY", missing.Error())

	both := &ConfigError{
		Missing: []string{"TMDB_API_KEY"},
		Errors:  []string{"server.port: must be between 1 and 65535, got 0", "catalog.max_pages: must be between 1 and 500, got 900"},
	}
	assert.Equal(t, "missing environment variables: TMDB_API_KEY\n"+
		"validation failed:\n"+
		"  - server.port: must be between 1 and 65535, got 0\n"+
		"  - catalog.max_pages: must be between 1 and 500, got 900", both.Error())
}
