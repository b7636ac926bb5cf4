package poster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/vmunix/tmdbdice/internal/scheduler"
)

// errNoPoster marks an RPDB answer that isn't 200. It doesn't count against the breaker.
var errNoPoster = errors.New("rpdb has no poster")

// Item is the subset of a catalog item the resolver needs.
type Item struct {
	ID         int64
	Kind       string // "movie" or "tv"
	PosterPath string
}

// Identity is the cache identity of an item's poster.
func Identity(kind string, id int64) string {
	return fmt.Sprintf("poster:%s:%d", kind, id)
}

// LocalCache looks up stored posters.
type LocalCache interface {
	Get(identity string) (string, bool)
}

// ImageURLer builds TMDB image URLs.
type ImageURLer interface {
	ImageURL(size, path string) string
}

// LogoSource finds an item's logo artwork.
type LogoSource interface {
	Logo(ctx context.Context, apiKey, kind string, id int64, language string) (string, error)
}

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	RPDBBaseURL string
	PosterSize  string
	HTTPClient  *http.Client
}

// Resolver picks the best poster URL for an item. It never fails; the worst case is an empty URL.
type Resolver struct {
	cache      LocalCache
	images     ImageURLer
	logos      LogoSource
	sched      *scheduler.Scheduler
	breaker    *gobreaker.CircuitBreaker[struct{}]
	httpClient *http.Client
	rpdbBase   string
	size       string
	log        *slog.Logger
}

// NewResolver creates a resolver. logos may be nil to disable logo lookups.
func NewResolver(cfg ResolverConfig, cache LocalCache, images ImageURLer, logos LogoSource, sched *scheduler.Scheduler, log *slog.Logger) *Resolver {
	if cfg.RPDBBaseURL == "" {
		cfg.RPDBBaseURL = DefaultRPDBBaseURL
	}
	if cfg.PosterSize == "" {
		cfg.PosterSize = "w500"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	log = log.With("component", "poster")

	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "rpdb",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 10
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errNoPoster)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Resolver{
		cache:      cache,
		images:     images,
		logos:      logos,
		sched:      sched,
		breaker:    breaker,
		httpClient: cfg.HTTPClient,
		rpdbBase:   cfg.RPDBBaseURL,
		size:       cfg.PosterSize,
		log:        log,
	}
}

// Poster returns the poster URL for item. A reachable RPDB poster is staged on queue for local storage.
func (r *Resolver) Poster(ctx context.Context, item Item, rpdbKey, language string, queue *WriteBackQueue) string {
	identity := Identity(item.Kind, item.ID)

	if rpdbKey != "" {
		if local, ok := r.cache.Get(identity); ok {
			resolutionsTotal.WithLabelValues("local").Inc()
			return local
		}

		candidate := RPDBURL(r.rpdbBase, rpdbKey, item.Kind, item.ID, language)
		if err := r.probe(ctx, candidate); err == nil {
			if queue != nil {
				queue.Stage(identity, candidate)
			}
			resolutionsTotal.WithLabelValues("rpdb").Inc()
			return candidate
		} else if !errors.Is(err, errNoPoster) {
			r.log.Debug("rpdb probe failed", "identity", identity, "error", err)
		}
	}

	if item.PosterPath == "" {
		resolutionsTotal.WithLabelValues("none").Inc()
		return ""
	}
	resolutionsTotal.WithLabelValues("tmdb").Inc()
	return r.images.ImageURL(r.size, item.PosterPath)
}

// Logo returns the item's logo URL, or "" when no key is set or nothing is found.
func (r *Resolver) Logo(ctx context.Context, item Item, fanartKey, language string) string {
	if fanartKey == "" || r.logos == nil {
		return ""
	}
	logo, err := scheduler.Submit(ctx, r.sched, func(ctx context.Context) (string, error) {
		return r.logos.Logo(ctx, fanartKey, item.Kind, item.ID, language)
	})
	if err != nil {
		r.log.Debug("logo lookup failed", "kind", item.Kind, "id", item.ID, "error", err)
		return ""
	}
	return logo
}

// probe sends a HEAD for url through the scheduler and the breaker.
func (r *Resolver) probe(ctx context.Context, url string) error {
	return r.sched.Do(ctx, func(ctx context.Context) error {
		_, err := r.breaker.Execute(func() (struct{}, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
			if err != nil {
				return struct{}{}, fmt.Errorf("create request: %w", err)
			}
			resp, err := r.httpClient.Do(req)
			if err != nil {
				return struct{}{}, fmt.Errorf("execute request: %w", err)
			}
			resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return struct{}{}, fmt.Errorf("%w: %s", errNoPoster, resp.Status)
			}
			return struct{}{}, nil
		})
		return err
	})
}
