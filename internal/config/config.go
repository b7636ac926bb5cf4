// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	TMDB      TMDBConfig      `toml:"tmdb"`
	RPDB      RPDBConfig      `toml:"rpdb"`
	Fanart    FanartConfig    `toml:"fanart"`
	Catalog   CatalogConfig   `toml:"catalog"`
	Posters   PostersConfig   `toml:"posters"`
	Scheduler SchedulerConfig `toml:"scheduler"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
	LogFile  string `toml:"log_file"` // empty logs to stderr only
	BaseURL  string `toml:"base_url"` // public address, used for local poster URLs
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type TMDBConfig struct {
	APIKey       string `toml:"api_key"` // default when a request brings none
	BaseURL      string `toml:"base_url"`
	ImageBaseURL string `toml:"image_base_url"`
}

type RPDBConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

type FanartConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

type CatalogConfig struct {
	CacheDuration   string `toml:"cache_duration"` // "3d", "12h"
	DefaultLanguage string `toml:"default_language"`
	MaxPages        int    `toml:"max_pages"`
}

type PostersConfig struct {
	Dir              string `toml:"dir"`
	CacheDuration    string `toml:"cache_duration"`
	DownloadAttempts uint   `toml:"download_attempts"`
}

type SchedulerConfig struct {
	Concurrency       int     `toml:"concurrency"`
	RequestsPerSecond float64 `toml:"requests_per_second"` // 0 disables the limiter
}

// Load reads, substitutes, applies defaults and validates the configuration file.
// Problems are reported together as a *ConfigError.
func Load(path string) (*Config, error) {
	cfg, missing, err := load(path)
	if err != nil {
		return nil, err
	}

	cerr := &ConfigError{Path: path, Missing: missing, Errors: cfg.Validate()}
	if cerr.HasErrors() {
		return nil, cerr
	}
	return cfg, nil
}

// LoadWithoutValidation reads the file and applies defaults, tolerating unresolved
// variables and invalid values. Used by `config test` to report everything at once.
func LoadWithoutValidation(path string) (*Config, error) {
	cfg, _, err := load(path)
	return cfg, err
}

func load(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, missing, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 7000
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/dice.db"
	}
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = "https://api.themoviedb.org"
	}
	if c.TMDB.ImageBaseURL == "" {
		c.TMDB.ImageBaseURL = "https://image.tmdb.org/t/p"
	}
	if c.RPDB.BaseURL == "" {
		c.RPDB.BaseURL = "https://api.ratingposterdb.com"
	}
	if c.Fanart.BaseURL == "" {
		c.Fanart.BaseURL = "https://webservice.fanart.tv/v3"
	}
	if c.Catalog.CacheDuration == "" {
		c.Catalog.CacheDuration = "3d"
	}
	if c.Catalog.DefaultLanguage == "" {
		c.Catalog.DefaultLanguage = "en"
	}
	if c.Catalog.MaxPages == 0 {
		c.Catalog.MaxPages = 500
	}
	if c.Posters.Dir == "" {
		c.Posters.Dir = "./data/posters"
	}
	if c.Posters.CacheDuration == "" {
		c.Posters.CacheDuration = "3d"
	}
	if c.Posters.DownloadAttempts == 0 {
		c.Posters.DownloadAttempts = 2
	}
	if c.Scheduler.Concurrency == 0 {
		c.Scheduler.Concurrency = 45
	}
}

// ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:-|:\?)([^}]*))?\}`)

// substituteEnvVars expands variable references. Unresolved references stay in place
// and are returned in missing; a ":?" reference reports "VAR: message".
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		m := envVarPattern.FindStringSubmatch(match)
		name, op, arg := m[1], m[2], m[3]
		value, ok := os.LookupEnv(name)

		switch op {
		case ":-":
			if !ok || value == "" {
				return arg
			}
			return value
		case ":?":
			if !ok || value == "" {
				missing = append(missing, name+": "+arg)
				return match
			}
			return value
		default:
			if !ok {
				missing = append(missing, name)
				return match
			}
			return value
		}
	})
	return out, missing
}
