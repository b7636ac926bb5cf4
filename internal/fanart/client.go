// Package fanart provides a client for fanart.tv logo artwork.
package fanart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://webservice.fanart.tv/v3"

// ErrNotFound is returned when fanart.tv has no artwork for the id.
var ErrNotFound = errors.New("no fanart")

// Image is one artwork entry.
type Image struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Lang  string `json:"lang"`
	Likes string `json:"likes"`
}

type artwork struct {
	HDMovieLogo []Image `json:"hdmovielogo"`
	MovieLogo   []Image `json:"movielogo"`
	HDTVLogo    []Image `json:"hdtvlogo"`
	ClearLogo   []Image `json:"clearlogo"`
}

// Client is a fanart.tv API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// NewClient creates a fanart.tv client. The API key is supplied per call.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Logo returns the best logo URL for a TMDB id, preferring language, then English, then anything.
func (c *Client) Logo(ctx context.Context, apiKey, kind string, id int64, language string) (string, error) {
	section := "movies"
	if kind == "tv" {
		section = "tv"
	}
	url := fmt.Sprintf("%s/%s/%s?api_key=%s", c.baseURL, section, strconv.FormatInt(id, 10), apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fanart API error: %s", resp.Status)
	}

	var art artwork
	if err := json.NewDecoder(resp.Body).Decode(&art); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	var logos []Image
	if kind == "tv" {
		logos = append(art.HDTVLogo, art.ClearLogo...)
	} else {
		logos = append(art.HDMovieLogo, art.MovieLogo...)
	}
	base, _, _ := strings.Cut(language, "-")
	if logo := pick(logos, strings.ToLower(base)); logo != "" {
		return logo, nil
	}
	return "", ErrNotFound
}

// pick keeps list order (hd before sd) within each language tier.
func pick(logos []Image, language string) string {
	for _, lang := range []string{language, "en"} {
		if lang == "" {
			continue
		}
		for _, l := range logos {
			if l.Lang == lang {
				return l.URL
			}
		}
	}
	if len(logos) > 0 {
		return logos[0].URL
	}
	return ""
}
