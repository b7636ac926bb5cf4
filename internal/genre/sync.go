package genre

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vmunix/tmdbdice/internal/scheduler"
	"github.com/vmunix/tmdbdice/internal/tmdb"
)

// Fetcher is the upstream genre list endpoint.
type Fetcher interface {
	Genres(ctx context.Context, kind, language, apiKey string) ([]tmdb.Genre, error)
}

// Syncer copies upstream genre lists into the Store.
type Syncer struct {
	store  *Store
	client Fetcher
	sched  *scheduler.Scheduler
	log    *slog.Logger
}

// NewSyncer creates a syncer. Upstream calls go through sched.
func NewSyncer(store *Store, client Fetcher, sched *scheduler.Scheduler, log *slog.Logger) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	return &Syncer{store: store, client: client, sched: sched, log: log}
}

// Sync fetches and stores movie and tv genres for language.
func (s *Syncer) Sync(ctx context.Context, language, apiKey string) error {
	for _, kind := range []string{"movie", "tv"} {
		genres, err := scheduler.Submit(ctx, s.sched, func(ctx context.Context) ([]tmdb.Genre, error) {
			return s.client.Genres(ctx, kind, language, apiKey)
		})
		if err != nil {
			return fmt.Errorf("fetch %s genres: %w", kind, err)
		}
		if err := s.store.Save(ctx, genres, kind, language); err != nil {
			return fmt.Errorf("store %s genres: %w", kind, err)
		}
	}
	s.log.Info("genres synced", "language", language)
	return nil
}

// Ensure syncs language unless genres for it are already stored.
func (s *Syncer) Ensure(ctx context.Context, language, apiKey string) error {
	ok, err := s.store.HasLanguage(ctx, language)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	s.log.Debug("fetching genres", "language", language)
	return s.Sync(ctx, language, apiKey)
}
