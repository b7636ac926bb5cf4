// Package catalog serves randomized, non-repeating pages of discover results.
package catalog

import (
	"errors"

	"github.com/vmunix/tmdbdice/internal/filter"
)

// ErrUpstreamUnavailable wraps any failure talking to the discover API.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// Credentials are the per-request API keys. Empty keys disable the matching feature.
type Credentials struct {
	CatalogKey string // TMDB
	PosterKey  string // RPDB
	LogoKey    string // fanart.tv
}

// Request is one catalog fetch.
type Request struct {
	Kind          filter.MediaKind
	CatalogID     string
	Extra         map[string]string
	Language      string
	CacheDuration string // "3d", "12h"; empty uses the pipeline default
	Credentials   Credentials
}

// Meta is an enriched catalog item in addon form.
type Meta struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Poster      string   `json:"poster,omitempty"`
	Banner      string   `json:"banner,omitempty"`
	Logo        string   `json:"logo,omitempty"`
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	ReleaseInfo string   `json:"releaseInfo,omitempty"`
	IMDBRating  string   `json:"imdbRating,omitempty"`
	Genres      []string `json:"genres"`
}

// Result is the outcome of a fetch.
type Result struct {
	Items     []Meta
	Page      int  // upstream page served, 0 when exhausted
	Exhausted bool // every page for the filters has been served
	Cached    bool
}
