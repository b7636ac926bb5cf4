// Package manifest builds the addon manifest advertised to Stremio clients.
package manifest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vmunix/tmdbdice/internal/tmdb"
)

const (
	// ID is the addon identifier.
	ID = "community.stremiotmdbdice"

	firstYear     = 1880
	yearsPerRange = 4
	noGenres      = "No genres available"
	logoURL       = "https://www.themoviedb.org/assets/2/v4/logos/v2/blue_square_2-d537fb228cf3ded904ef09b136fe3fec72548ebc1fea3fbbd1ad9e36364db38b.svg"
)

// RatingOptions are the advertised rating ranges, best first.
var RatingOptions = []string{"8-10", "6-8", "4-6", "2-4", "0-2"}

// Manifest is the addon manifest document.
type Manifest struct {
	ID            string        `json:"id"`
	Version       string        `json:"version"`
	Logo          string        `json:"logo"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Types         []string      `json:"types"`
	IDPrefixes    []string      `json:"idPrefixes"`
	Resources     []string      `json:"resources"`
	Catalogs      []Catalog     `json:"catalogs"`
	BehaviorHints BehaviorHints `json:"behaviorHints"`
}

// Catalog is one advertised catalog.
type Catalog struct {
	Type  string  `json:"type"`
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Extra []Extra `json:"extra"`
}

// Extra is a catalog filter.
type Extra struct {
	Name       string   `json:"name"`
	Options    []string `json:"options,omitempty"`
	IsRequired bool     `json:"isRequired"`
}

// BehaviorHints tells clients the addon can be configured.
type BehaviorHints struct {
	Configurable          bool `json:"configurable"`
	ConfigurationRequired bool `json:"configurationRequired"`
}

// GenreLister lists stored genres.
type GenreLister interface {
	List(ctx context.Context, kind, language string) ([]tmdb.Genre, error)
}

// Generator builds manifests from stored genres.
type Generator struct {
	genres  GenreLister
	version string
	log     *slog.Logger
	now     func() time.Time
}

// NewGenerator creates a generator advertising version.
func NewGenerator(genres GenreLister, version string, log *slog.Logger) *Generator {
	return &Generator{
		genres:  genres,
		version: version,
		log:     log.With("component", "manifest"),
		now:     time.Now,
	}
}

// Generate builds the manifest with genre options in language.
func (g *Generator) Generate(ctx context.Context, language string) (*Manifest, error) {
	movie, err := g.genreNames(ctx, "movie", language)
	if err != nil {
		return nil, err
	}
	series, err := g.genreNames(ctx, "tv", language)
	if err != nil {
		return nil, err
	}
	years := YearIntervals(firstYear, g.now().Year(), yearsPerRange)

	return &Manifest{
		ID:          ID,
		Version:     g.version,
		Logo:        logoURL,
		Name:        "Stremio TMDB Dice",
		Description: "A catalog featuring content from TMDB with filters that allow for generating random content recommendations.",
		Types:       []string{"movie", "series"},
		IDPrefixes:  []string{"tt"},
		Resources:   []string{"catalog"},
		Catalogs: []Catalog{
			catalog("movie", "random_movies", "Random Movies", movie, years),
			catalog("series", "random_series", "Random Series", series, years),
		},
		BehaviorHints: BehaviorHints{Configurable: true},
	}, nil
}

func (g *Generator) genreNames(ctx context.Context, kind, language string) ([]string, error) {
	genres, err := g.genres.List(ctx, kind, language)
	if err != nil {
		return nil, fmt.Errorf("list %s genres: %w", kind, err)
	}
	if len(genres) == 0 {
		g.log.Debug("no genres stored", "media_type", kind, "language", language)
		return []string{noGenres}, nil
	}
	names := make([]string, len(genres))
	for i, genre := range genres {
		names[i] = genre.Name
	}
	return names, nil
}

func catalog(addonType, id, name string, genres, years []string) Catalog {
	return Catalog{
		Type: addonType,
		ID:   id,
		Name: name,
		Extra: []Extra{
			{Name: "genre", Options: genres},
			{Name: "rating", Options: RatingOptions},
			{Name: "year", Options: years},
			{Name: "skip"},
		},
	}
}

// YearIntervals splits [start, end] into "from-to" ranges of size years, newest first.
// The oldest range is clipped at start.
func YearIntervals(start, end, size int) []string {
	if end < start {
		end = start
	}
	var intervals []string
	for year := end; year >= start; year -= size {
		from := max(year-size+1, start)
		intervals = append(intervals, fmt.Sprintf("%d-%d", from, year))
	}
	return intervals
}
