package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL      = "https://api.themoviedb.org"
	defaultImageBaseURL = "https://image.tmdb.org/t/p"
)

var (
	// ErrNotFound is returned when the requested resource doesn't exist in TMDB.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when TMDB rejects the API key.
	ErrUnauthorized = errors.New("invalid tmdb api key")

	// ErrNoAPIKey is returned when neither the query nor the client carries a key.
	ErrNoAPIKey = errors.New("no tmdb api key")
)

// Client is a TMDB API client.
type Client struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	httpClient   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithImageBaseURL sets the image CDN base URL.
func WithImageBaseURL(url string) Option {
	return func(c *Client) {
		c.imageBaseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new TMDB client. apiKey is the default used when a call carries none.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:       apiKey,
		baseURL:      defaultBaseURL,
		imageBaseURL: defaultImageBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DiscoverQuery selects one page of /discover/{kind}.
type DiscoverQuery struct {
	Kind   string     // "movie" or "tv"
	Params url.Values // filters, language and page
	APIKey string     // overrides the client default when set
}

// Discover fetches one page of discover results.
func (c *Client) Discover(ctx context.Context, q DiscoverQuery) (*DiscoverPage, error) {
	var page DiscoverPage
	if err := c.get(ctx, "/3/discover/"+q.Kind, q.APIKey, q.Params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Genres fetches the genre list for kind in the given language.
func (c *Client) Genres(ctx context.Context, kind, language, apiKey string) ([]Genre, error) {
	params := url.Values{}
	if language != "" {
		params.Set("language", language)
	}
	var list genreList
	if err := c.get(ctx, "/3/genre/"+kind+"/list", apiKey, params, &list); err != nil {
		return nil, err
	}
	return list.Genres, nil
}

// ImageURL returns the full image URL for a poster or backdrop path.
// Size can be: w92, w154, w185, w342, w500, w780, original
func (c *Client) ImageURL(size, path string) string {
	if path == "" {
		return ""
	}
	return c.imageBaseURL + "/" + size + path
}

func (c *Client) get(ctx context.Context, path, apiKey string, params url.Values, out any) error {
	if apiKey == "" {
		apiKey = c.apiKey
	}
	if apiKey == "" {
		return ErrNoAPIKey
	}

	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("api_key", apiKey)

	// Build request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	// Execute
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	// Handle errors
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		return fmt.Errorf("TMDB API error: %s", resp.Status)
	}

	// Decode
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
