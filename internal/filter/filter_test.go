package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want MediaKind
	}{
		{"movie", Movie},
		{"series", TV},
		{"tv", TV},
		{" Movie ", Movie},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseKind("channel")
	assert.ErrorIs(t, err, ErrInvalidKind)
	assert.Equal(t, "series", TV.AddonType())
	assert.Equal(t, "movie", Movie.AddonType())
}

func TestParse_Signature(t *testing.T) {
	sig := Parse(Movie, map[string]string{
		"genre":  "Action",
		"year":   "1990-1999",
		"rating": "6-8",
		"skip":   "20",
	})

	assert.Equal(t, "Action", sig.Genre)
	require.NotNil(t, sig.Year)
	assert.Equal(t, YearRange{From: 1990, To: 1999}, *sig.Year)
	require.NotNil(t, sig.Rating)
	assert.Equal(t, RatingRange{Min: 6, Max: 8}, *sig.Rating)

	genre, year, rating := sig.Components()
	assert.Equal(t, "Action", genre)
	assert.Equal(t, "1990-1999", year)
	assert.Equal(t, "6-8", rating)
}

func TestParse_MalformedRangesAreAbsent(t *testing.T) {
	sig := Parse(TV, map[string]string{"year": "1999", "rating": "high-low"})
	assert.Nil(t, sig.Year)
	assert.Nil(t, sig.Rating)

	sig = Parse(TV, map[string]string{"year": "2000-1990"})
	assert.Nil(t, sig.Year, "inverted range")
}

func TestSignature_KeyIgnoresUnrelatedExtras(t *testing.T) {
	a := Parse(Movie, map[string]string{"genre": "Drama", "skip": "0", "language": "fr"})
	b := Parse(Movie, map[string]string{"language": "de", "genre": "Drama", "skip": "100"})
	assert.Equal(t, a.Key(), b.Key())

	c := Parse(TV, map[string]string{"genre": "Drama"})
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestDiscoverParams(t *testing.T) {
	extra := map[string]string{
		"genre":        "Action",
		"with_genres":  "28",
		"year":         "1990-1999",
		"rating":       "6-8",
		"skip":         "20",
		"hideNoPoster": "true",
		"language":     "fr",
	}
	params := DiscoverParams(Parse(Movie, extra), extra, 7)

	assert.Equal(t, "1990-01-01", params.Get("primary_release_date.gte"))
	assert.Equal(t, "1999-12-31", params.Get("primary_release_date.lte"))
	assert.Equal(t, "6", params.Get("vote_average.gte"))
	assert.Equal(t, "8", params.Get("vote_average.lte"))
	assert.Equal(t, "28", params.Get("with_genres"))
	assert.Equal(t, "fr", params.Get("language"))
	assert.Equal(t, "7", params.Get("page"))
	for _, k := range []string{"genre", "year", "rating", "skip", "hideNoPoster"} {
		assert.False(t, params.Has(k), "%s must not be forwarded", k)
	}
}

func TestDiscoverParams_TVUsesFirstAirDate(t *testing.T) {
	extra := map[string]string{"year": "2010-2013"}
	params := DiscoverParams(Parse(TV, extra), extra, 1)
	assert.Equal(t, "2010-01-01", params.Get("first_air_date.gte"))
	assert.False(t, params.Has("primary_release_date.gte"))
}

func TestSerializeExtra_Deterministic(t *testing.T) {
	a := SerializeExtra(map[string]string{"b": "2", "a": "1", "c": "x y"})
	b := SerializeExtra(map[string]string{"c": "x y", "a": "1", "b": "2"})
	assert.Equal(t, a, b)
	assert.Equal(t, "a=1&b=2&c=x+y", a)
}

func TestParseExtra(t *testing.T) {
	extra := ParseExtra("genre=Science%20Fiction&skip=20&broken&=empty")
	assert.Equal(t, map[string]string{"genre": "Science Fiction", "skip": "20"}, extra)
}

type genreTable map[string]int

func (g genreTable) IDByName(_ context.Context, kind, name string) (int, bool) {
	id, ok := g[kind+"/"+name]
	return id, ok
}

func TestResolveGenre(t *testing.T) {
	ids := genreTable{"movie/Drama": 18, "tv/Drama": 18, "tv/Kids": 10762}
	ctx := context.Background()

	extra := map[string]string{"genre": "Drama"}
	assert.True(t, ResolveGenre(ctx, ids, Movie, extra))
	assert.Equal(t, "18", extra["with_genres"])

	extra = map[string]string{"genre": "Kids"}
	assert.False(t, ResolveGenre(ctx, ids, Movie, extra), "kinds are looked up separately")
	assert.NotContains(t, extra, "with_genres")
	assert.True(t, ResolveGenre(ctx, ids, TV, extra))
	assert.Equal(t, "10762", extra["with_genres"])

	extra = map[string]string{"year": "1990-1999"}
	assert.True(t, ResolveGenre(ctx, ids, Movie, extra))
	assert.NotContains(t, extra, "with_genres")
}
