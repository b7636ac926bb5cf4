// Package filter normalizes catalog filters into signatures and upstream query parameters.
package filter

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// MediaKind is the upstream media type.
type MediaKind string

const (
	Movie MediaKind = "movie"
	TV    MediaKind = "tv"
)

// ErrInvalidKind is returned for media types other than movie, tv and series.
var ErrInvalidKind = errors.New("invalid media type")

// ParseKind accepts "movie", "tv" and the addon alias "series".
func ParseKind(s string) (MediaKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie":
		return Movie, nil
	case "tv", "series":
		return TV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// AddonType is the Stremio name for the kind.
func (k MediaKind) AddonType() string {
	if k == TV {
		return "series"
	}
	return string(k)
}

// YearRange is an inclusive range of release years.
type YearRange struct {
	From int
	To   int
}

func (r YearRange) String() string {
	return fmt.Sprintf("%d-%d", r.From, r.To)
}

// RatingRange is an inclusive vote average range.
type RatingRange struct {
	Min float64
	Max float64
}

func (r RatingRange) String() string {
	return strconv.FormatFloat(r.Min, 'f', -1, 64) + "-" + strconv.FormatFloat(r.Max, 'f', -1, 64)
}

// Signature identifies a distinct catalog query for page tracking.
// Two requests with the same semantic filters produce equal signatures.
type Signature struct {
	Kind   MediaKind
	Genre  string // "" when unfiltered
	Year   *YearRange
	Rating *RatingRange
}

// Parse builds the signature for kind from request extras.
// Malformed year or rating ranges are treated as absent.
func Parse(kind MediaKind, extra map[string]string) Signature {
	sig := Signature{
		Kind:  kind,
		Genre: strings.TrimSpace(extra["genre"]),
	}
	if yr, ok := ParseYearRange(extra["year"]); ok {
		sig.Year = &yr
	}
	if rr, ok := ParseRatingRange(extra["rating"]); ok {
		sig.Rating = &rr
	}
	return sig
}

// Components returns the storage form of the optional filters ("" when absent).
func (s Signature) Components() (genre, year, rating string) {
	genre = s.Genre
	if s.Year != nil {
		year = s.Year.String()
	}
	if s.Rating != nil {
		rating = s.Rating.String()
	}
	return genre, year, rating
}

// Key is a deterministic string form of the signature.
func (s Signature) Key() string {
	genre, year, rating := s.Components()
	return fmt.Sprintf("%s|genre=%s|year=%s|rating=%s", s.Kind, genre, year, rating)
}

// ParseYearRange parses "1990-1999".
func ParseYearRange(s string) (YearRange, bool) {
	lo, hi, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return YearRange{}, false
	}
	from, err1 := strconv.Atoi(strings.TrimSpace(lo))
	to, err2 := strconv.Atoi(strings.TrimSpace(hi))
	if err1 != nil || err2 != nil || from > to {
		return YearRange{}, false
	}
	return YearRange{From: from, To: to}, true
}

// ParseRatingRange parses "6-8" or "6.5-8".
func ParseRatingRange(s string) (RatingRange, bool) {
	lo, hi, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return RatingRange{}, false
	}
	minR, err1 := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	maxR, err2 := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err1 != nil || err2 != nil || minR > maxR {
		return RatingRange{}, false
	}
	return RatingRange{Min: minR, Max: maxR}, true
}

// reserved extras are consumed by the addon and never forwarded upstream.
var reserved = map[string]bool{
	"year":         true,
	"rating":       true,
	"hideNoPoster": true,
	"skip":         true,
	"genre":        true,
}

// GenreIDs resolves genre display names to upstream ids.
type GenreIDs interface {
	IDByName(ctx context.Context, kind, name string) (int, bool)
}

// ResolveGenre sets with_genres in extra from the genre extra.
// It reports false only when a genre is named but unknown.
func ResolveGenre(ctx context.Context, ids GenreIDs, kind MediaKind, extra map[string]string) bool {
	name := extra["genre"]
	if name == "" {
		return true
	}
	id, ok := ids.IDByName(ctx, string(kind), name)
	if !ok {
		return false
	}
	extra["with_genres"] = strconv.Itoa(id)
	return true
}

// DiscoverParams builds the upstream discover query for one page.
func DiscoverParams(sig Signature, extra map[string]string, page int) url.Values {
	params := url.Values{}

	if sig.Year != nil {
		field := "primary_release_date"
		if sig.Kind == TV {
			field = "first_air_date"
		}
		params.Set(field+".gte", fmt.Sprintf("%04d-01-01", sig.Year.From))
		params.Set(field+".lte", fmt.Sprintf("%04d-12-31", sig.Year.To))
	}
	if sig.Rating != nil {
		params.Set("vote_average.gte", strconv.FormatFloat(sig.Rating.Min, 'f', -1, 64))
		params.Set("vote_average.lte", strconv.FormatFloat(sig.Rating.Max, 'f', -1, 64))
	}

	for k, v := range extra {
		if reserved[k] || k == "page" || v == "" {
			continue
		}
		params.Set(k, v)
	}
	params.Set("page", strconv.Itoa(page))
	return params
}

// SerializeExtra renders extras with sorted keys so key order never changes the result.
func SerializeExtra(extra map[string]string) string {
	values := url.Values{}
	for k, v := range extra {
		values.Set(k, v)
	}
	return values.Encode()
}

// ParseExtra parses the addon path form "genre=Action&skip=20".
// Values are URL-decoded; pairs without "=" are skipped.
func ParseExtra(s string) map[string]string {
	extra := make(map[string]string)
	for _, pair := range strings.Split(s, "&") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		if dk, err := url.QueryUnescape(k); err == nil {
			k = dk
		}
		if dv, err := url.QueryUnescape(v); err == nil {
			v = dv
		}
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		extra[k] = strings.TrimSpace(v)
	}
	return extra
}
