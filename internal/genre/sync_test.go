package genre

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/tmdbdice/internal/scheduler"
	"github.com/vmunix/tmdbdice/internal/tmdb"
)

type fakeFetcher struct {
	calls  int
	genres map[string][]tmdb.Genre
	err    error
}

func (f *fakeFetcher) Genres(_ context.Context, kind, language, apiKey string) ([]tmdb.Genre, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.genres[kind+"/"+language], nil
}

func TestSyncer_EnsureFetchesOnce(t *testing.T) {
	store := NewStore(setupTestDB(t), testLogger())
	fetcher := &fakeFetcher{genres: map[string][]tmdb.Genre{
		"movie/fr": {{ID: 18, Name: "Drame"}},
		"tv/fr":    {{ID: 10765, Name: "Science-Fiction & Fantastique"}},
	}}
	syncer := NewSyncer(store, fetcher, scheduler.New(scheduler.Config{Concurrency: 2}, testLogger()), testLogger())
	ctx := context.Background()

	require.NoError(t, syncer.Ensure(ctx, "fr", "key"))
	assert.Equal(t, 2, fetcher.calls, "movie and tv lists")

	require.NoError(t, syncer.Ensure(ctx, "fr", "key"))
	assert.Equal(t, 2, fetcher.calls, "already stored")

	assert.Equal(t, []string{"Drame"}, store.Names(ctx, []int{18}, "movie", "fr"))
	assert.Equal(t, []string{"Science-Fiction & Fantastique"}, store.Names(ctx, []int{10765}, "tv", "fr"))
}

func TestSyncer_FetchError(t *testing.T) {
	store := NewStore(setupTestDB(t), testLogger())
	fetcher := &fakeFetcher{err: errors.New("tmdb down")}
	syncer := NewSyncer(store, fetcher, scheduler.New(scheduler.Config{}, testLogger()), testLogger())

	err := syncer.Sync(context.Background(), "de", "key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tmdb down")
}
