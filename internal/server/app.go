package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/vmunix/tmdbdice/internal/api"
	"github.com/vmunix/tmdbdice/internal/cache"
	"github.com/vmunix/tmdbdice/internal/catalog"
	"github.com/vmunix/tmdbdice/internal/config"
	"github.com/vmunix/tmdbdice/internal/database"
	"github.com/vmunix/tmdbdice/internal/fanart"
	"github.com/vmunix/tmdbdice/internal/genre"
	"github.com/vmunix/tmdbdice/internal/manifest"
	"github.com/vmunix/tmdbdice/internal/pages"
	"github.com/vmunix/tmdbdice/internal/poster"
	"github.com/vmunix/tmdbdice/internal/scheduler"
	"github.com/vmunix/tmdbdice/internal/tmdb"
)

// App holds the wired services.
type App struct {
	DB        *sql.DB
	Scheduler *scheduler.Scheduler
	TMDB      *tmdb.Client
	Genres    *genre.Store
	Syncer    *genre.Syncer
	Pages     *pages.Tracker
	Cache     *cache.Catalog
	Posters   *poster.Cache
	Pipeline  *catalog.Pipeline
	API       *api.Server
}

// genres joins lookups and on-demand sync for the HTTP layer.
type genres struct {
	*genre.Store
	*genre.Syncer
}

// Options override infrastructure for tests.
type Options struct {
	PosterFs afero.Fs // defaults to the OS filesystem
}

// NewApp opens the database and builds every service from cfg.
func NewApp(ctx context.Context, cfg *config.Config, version string, log *slog.Logger, opts Options) (*App, error) {
	posterTTL, err := cache.ParseDuration(cfg.Posters.CacheDuration)
	if err != nil {
		return nil, fmt.Errorf("posters.cache_duration: %w", err)
	}
	if opts.PosterFs == nil {
		opts.PosterFs = afero.NewOsFs()
	}

	db, err := database.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	sched := scheduler.New(scheduler.Config{
		Concurrency:       cfg.Scheduler.Concurrency,
		RequestsPerSecond: cfg.Scheduler.RequestsPerSecond,
	}, log.With("component", "scheduler"))

	tmdbClient := tmdb.NewClient(cfg.TMDB.APIKey,
		tmdb.WithBaseURL(cfg.TMDB.BaseURL),
		tmdb.WithImageBaseURL(cfg.TMDB.ImageBaseURL))
	fanartClient := fanart.NewClient(fanart.WithBaseURL(cfg.Fanart.BaseURL))

	genreStore := genre.NewStore(db, log.With("component", "genres"))
	syncer := genre.NewSyncer(genreStore, tmdbClient, sched, log.With("component", "genres"))
	tracker := pages.NewTracker(db, cfg.Catalog.MaxPages, log.With("component", "pages"))
	catalogCache := cache.NewCatalog(db, log.With("component", "cache"))

	posterCache := poster.NewCache(opts.PosterFs, poster.CacheConfig{
		Dir:              cfg.Posters.Dir,
		TTL:              posterTTL,
		BaseURL:          cfg.Server.BaseURL,
		DownloadAttempts: cfg.Posters.DownloadAttempts,
	}, log.With("component", "posters"))
	resolver := poster.NewResolver(poster.ResolverConfig{RPDBBaseURL: cfg.RPDB.BaseURL},
		posterCache, tmdbClient, fanartClient, sched, log)

	pipeline := catalog.New(catalog.Deps{
		Upstream:    tmdbClient,
		Cache:       catalogCache,
		Pages:       tracker,
		Genres:      genreStore,
		Posters:     resolver,
		PosterStore: posterCache,
		Images:      tmdbClient,
		Scheduler:   sched,
	}, catalog.Config{
		DefaultLanguage:      cfg.Catalog.DefaultLanguage,
		DefaultCacheDuration: cfg.Catalog.CacheDuration,
	}, log)

	server := api.New(api.Deps{
		Catalogs:  pipeline,
		Manifests: manifest.NewGenerator(genreStore, version, log),
		Genres:    genres{Store: genreStore, Syncer: syncer},
		Posters:   posterCache,
	}, api.Defaults{
		Language:      cfg.Catalog.DefaultLanguage,
		CacheDuration: cfg.Catalog.CacheDuration,
		TMDBKey:       cfg.TMDB.APIKey,
		RPDBKey:       cfg.RPDB.APIKey,
		FanartKey:     cfg.Fanart.APIKey,
	}, log)

	return &App{
		DB:        db,
		Scheduler: sched,
		TMDB:      tmdbClient,
		Genres:    genreStore,
		Syncer:    syncer,
		Pages:     tracker,
		Cache:     catalogCache,
		Posters:   posterCache,
		Pipeline:  pipeline,
		API:       server,
	}, nil
}

// Close waits for background poster writes and closes the database.
func (a *App) Close() error {
	a.Pipeline.Wait()
	return a.DB.Close()
}
