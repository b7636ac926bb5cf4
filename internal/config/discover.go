package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvConfigPath names the variable that pins the config file location.
const EnvConfigPath = "DICE_CONFIG"

// DefaultPath returns the XDG-compliant per-user config path.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "./config.toml"
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "tmdbdice", "config.toml")
}

// SearchPaths lists the locations Discover tries, in order, when DICE_CONFIG is unset.
func SearchPaths() []string {
	return []string{
		"./config.toml",
		DefaultPath(),
		"/etc/tmdbdice/config.toml",
	}
}

// Discover returns the first existing config file. DICE_CONFIG, when set, must exist.
func Discover() (string, error) {
	if pinned := os.Getenv(EnvConfigPath); pinned != "" {
		if _, err := os.Stat(pinned); err != nil {
			return "", fmt.Errorf("%s=%s: %w", EnvConfigPath, pinned, err)
		}
		return pinned, nil
	}

	candidates := SearchPaths()
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w, checked: %s", ErrNotFound, strings.Join(candidates, ", "))
}
