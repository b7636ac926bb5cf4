package catalog

//go:generate mockgen -destination=mocks/mock_upstream.go -package=mocks . Upstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/iter"

	"github.com/vmunix/tmdbdice/internal/cache"
	"github.com/vmunix/tmdbdice/internal/filter"
	"github.com/vmunix/tmdbdice/internal/pages"
	"github.com/vmunix/tmdbdice/internal/poster"
	"github.com/vmunix/tmdbdice/internal/scheduler"
	"github.com/vmunix/tmdbdice/internal/tmdb"
)

// Upstream is the discover API.
type Upstream interface {
	Discover(ctx context.Context, q tmdb.DiscoverQuery) (*tmdb.DiscoverPage, error)
}

// GenreNames resolves genre ids to display names. It never fails.
type GenreNames interface {
	Names(ctx context.Context, ids []int, kind, language string) []string
}

// Posters picks poster and logo URLs. It never fails.
type Posters interface {
	Poster(ctx context.Context, item poster.Item, rpdbKey, language string, queue *poster.WriteBackQueue) string
	Logo(ctx context.Context, item poster.Item, fanartKey, language string) string
}

// PosterStore persists a poster locally.
type PosterStore interface {
	Put(ctx context.Context, identity, sourceURL string) error
}

// Deps are the collaborators of a Pipeline.
type Deps struct {
	Upstream    Upstream
	Cache       *cache.Catalog
	Pages       *pages.Tracker
	Genres      GenreNames
	Posters     Posters
	PosterStore PosterStore
	Images      poster.ImageURLer
	Scheduler   *scheduler.Scheduler
}

// Config holds pipeline defaults.
type Config struct {
	DefaultLanguage      string
	DefaultCacheDuration string
}

// Pipeline turns a catalog request into one never-before-served page of enriched items.
type Pipeline struct {
	deps    Deps
	cfg     Config
	log     *slog.Logger
	flushes conc.WaitGroup
}

// New creates a pipeline.
func New(deps Deps, cfg Config, log *slog.Logger) *Pipeline {
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "en"
	}
	if cfg.DefaultCacheDuration == "" {
		cfg.DefaultCacheDuration = "3d"
	}
	return &Pipeline{
		deps: deps,
		cfg:  cfg,
		log:  log.With("component", "catalog"),
	}
}

// CacheKey is the cache key for a request after defaults are applied.
func CacheKey(kind filter.MediaKind, catalogID string, sig filter.Signature, language string, extra map[string]string) string {
	return fmt.Sprintf("catalog:%s:%s:%s:lang=%s:%s", kind, catalogID, sig.Key(), language, filter.SerializeExtra(extra))
}

// Fetch returns a cached batch for the request or serves a new random page.
// An exhausted signature is reported in Result, not as an error.
func (p *Pipeline) Fetch(ctx context.Context, req Request) (*Result, error) {
	durationSpec := req.CacheDuration
	if durationSpec == "" {
		durationSpec = p.cfg.DefaultCacheDuration
	}
	ttl, err := cache.ParseDuration(durationSpec)
	if err != nil {
		requestsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	language := req.Language
	if language == "" {
		language = p.cfg.DefaultLanguage
	}
	if req.Extra == nil {
		req.Extra = map[string]string{}
	}

	sig := filter.Parse(req.Kind, req.Extra)
	key := CacheKey(req.Kind, req.CatalogID, sig, language, req.Extra)
	log := p.log.With("run", uuid.NewString(), "kind", string(req.Kind), "catalog", req.CatalogID)

	if res, ok := p.fromCache(ctx, key, log); ok {
		requestsTotal.WithLabelValues("cached").Inc()
		return res, nil
	}

	first, err := p.discover(ctx, req, sig, language, 1)
	if err != nil {
		requestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	totalPages := first.TotalPages
	if totalPages > p.deps.Pages.MaxPages() {
		log.Debug("capping total pages", "total_pages", totalPages, "max_pages", p.deps.Pages.MaxPages())
	}

	page, err := p.deps.Pages.SelectUnconsumed(ctx, sig, totalPages)
	if errors.Is(err, pages.ErrExhausted) {
		log.Warn("all pages served for filters", "signature", sig.Key(), "total_pages", totalPages)
		requestsTotal.WithLabelValues("exhausted").Inc()
		return &Result{Items: []Meta{}, Exhausted: true}, nil
	}
	if err != nil {
		requestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("select page: %w", err)
	}
	log.Debug("page selected", "page", page, "total_pages", totalPages)

	selected := first
	if page != 1 {
		selected, err = p.discover(ctx, req, sig, language, page)
		if err != nil {
			requestsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
	}

	queue := poster.NewWriteBackQueue()
	items := p.enrich(ctx, req, language, selected.Results, queue)
	log.Info("fetched page", "page", page, "items", len(items))

	p.store(ctx, key, items, ttl, sig, page, req, log)

	if err := p.deps.Pages.RecordConsumed(ctx, sig, page); err != nil {
		log.Error("failed to record page", "page", page, "error", err)
	}

	p.flush(ctx, queue, log)

	requestsTotal.WithLabelValues("fresh").Inc()
	return &Result{Items: items, Page: page}, nil
}

// Wait blocks until background poster writes finish.
func (p *Pipeline) Wait() {
	p.flushes.Wait()
}

func (p *Pipeline) fromCache(ctx context.Context, key string, log *slog.Logger) (*Result, bool) {
	entry, ok := p.deps.Cache.Get(ctx, key)
	if !ok {
		return nil, false
	}
	var items []Meta
	if err := json.Unmarshal(entry.Value, &items); err != nil {
		log.Warn("discarding unreadable cache entry", "key", key, "error", err)
		return nil, false
	}
	log.Info("serving cached catalog", "key", key, "page", entry.Page)
	return &Result{Items: items, Page: entry.Page, Cached: true}, true
}

func (p *Pipeline) discover(ctx context.Context, req Request, sig filter.Signature, language string, page int) (*tmdb.DiscoverPage, error) {
	params := filter.DiscoverParams(sig, req.Extra, page)
	if params.Get("language") == "" {
		params.Set("language", language)
	}
	q := tmdb.DiscoverQuery{
		Kind:   string(req.Kind),
		Params: params,
		APIKey: req.Credentials.CatalogKey,
	}
	result, err := scheduler.Submit(ctx, p.deps.Scheduler, func(ctx context.Context) (*tmdb.DiscoverPage, error) {
		return p.deps.Upstream.Discover(ctx, q)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: discover %s page %d: %w", ErrUpstreamUnavailable, req.Kind, page, err)
	}
	return result, nil
}

func (p *Pipeline) enrich(ctx context.Context, req Request, language string, results []tmdb.Item, queue *poster.WriteBackQueue) []Meta {
	if len(results) == 0 {
		return []Meta{}
	}
	kind := string(req.Kind)
	mapper := iter.Mapper[tmdb.Item, Meta]{MaxGoroutines: p.deps.Scheduler.Limit()}
	return mapper.Map(results, func(item *tmdb.Item) Meta {
		ref := poster.Item{ID: item.ID, Kind: kind, PosterPath: item.PosterPath}

		meta := Meta{
			ID:          strconv.FormatInt(item.ID, 10),
			Name:        item.DisplayName(),
			Poster:      p.deps.Posters.Poster(ctx, ref, req.Credentials.PosterKey, language, queue),
			Logo:        p.deps.Posters.Logo(ctx, ref, req.Credentials.LogoKey, language),
			Type:        req.Kind.AddonType(),
			Description: item.Overview,
			ReleaseInfo: item.Released(),
			IMDBRating:  item.Rating(),
			Genres:      p.deps.Genres.Names(ctx, item.GenreIDs, kind, language),
		}
		if item.BackdropPath != "" {
			meta.Banner = p.deps.Images.ImageURL("original", item.BackdropPath)
		}
		return meta
	})
}

func (p *Pipeline) store(ctx context.Context, key string, items []Meta, ttl time.Duration, sig filter.Signature, page int, req Request, log *slog.Logger) {
	value, err := json.Marshal(items)
	if err != nil {
		log.Error("failed to encode catalog", "error", err)
		return
	}
	genre, year, rating := sig.Components()
	skip, _ := strconv.Atoi(req.Extra["skip"])
	meta := cache.Meta{
		Page:      page,
		Skip:      skip,
		Genre:     genre,
		Year:      year,
		Rating:    rating,
		MediaType: string(req.Kind),
	}
	if err := p.deps.Cache.Put(ctx, key, value, ttl, meta); err != nil {
		log.Error("failed to cache catalog", "key", key, "error", err)
	}
}

// flush stores staged posters in the background. The request context's cancellation
// doesn't stop it; Wait does not return until it finishes.
func (p *Pipeline) flush(ctx context.Context, queue *poster.WriteBackQueue, log *slog.Logger) {
	if queue.Len() == 0 || p.deps.PosterStore == nil {
		return
	}
	bg := context.WithoutCancel(ctx)
	p.flushes.Go(func() {
		stored, failed := poster.Flush(bg, queue, func(ctx context.Context, s poster.Staged) error {
			return p.deps.Scheduler.Do(ctx, func(ctx context.Context) error {
				return p.deps.PosterStore.Put(ctx, s.Identity, s.URL)
			})
		}, log)
		log.Debug("poster write-back finished", "stored", stored, "failed", failed)
	})
}
