package config

import (
	"fmt"
	"net/url"

	"github.com/vmunix/tmdbdice/internal/cache"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}
	if u, err := url.Parse(c.Server.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("server.base_url: must be an absolute URL, got %q", c.Server.BaseURL))
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path: required")
	}

	if _, err := cache.ParseDuration(c.Catalog.CacheDuration); err != nil {
		errs = append(errs, fmt.Sprintf("catalog.cache_duration: %v", err))
	}
	if c.Catalog.MaxPages < 1 || c.Catalog.MaxPages > 500 {
		errs = append(errs, fmt.Sprintf("catalog.max_pages: must be between 1 and 500, got %d", c.Catalog.MaxPages))
	}

	if _, err := cache.ParseDuration(c.Posters.CacheDuration); err != nil {
		errs = append(errs, fmt.Sprintf("posters.cache_duration: %v", err))
	}
	if c.Posters.Dir == "" {
		errs = append(errs, "posters.dir: required")
	}

	if c.Scheduler.Concurrency < 1 {
		errs = append(errs, fmt.Sprintf("scheduler.concurrency: must be at least 1, got %d", c.Scheduler.Concurrency))
	}
	if c.Scheduler.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Sprintf("scheduler.requests_per_second: must not be negative, got %g", c.Scheduler.RequestsPerSecond))
	}

	return errs
}
