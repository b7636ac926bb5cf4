package api

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"
)

// userConfig is the client configuration carried in the first path segment.
type userConfig struct {
	Language     string   `json:"language"`
	HideNoPoster flexBool `json:"hideNoPoster"`
	TMDBKey      string   `json:"tmdbApiKey"`
	RPDBKey      string   `json:"rpdbApiKey"`
	FanartKey    string   `json:"fanartApiKey"`
}

// flexBool accepts true, "true" and "1".
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*b = false
		return nil
	}
	v, err := strconv.ParseBool(string(data))
	if err != nil {
		return fmt.Errorf("hideNoPoster: %w", err)
	}
	*b = flexBool(v)
	return nil
}

// parseUserConfig decodes the raw (still path-escaped) segment. Empty means no configuration.
func parseUserConfig(raw string) (userConfig, error) {
	var cfg userConfig
	if raw == "" {
		return cfg, nil
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	if err := json.Unmarshal([]byte(decoded), &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
