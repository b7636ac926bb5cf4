// Package api serves the Stremio addon HTTP interface.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"

	"github.com/vmunix/tmdbdice/internal/catalog"
	"github.com/vmunix/tmdbdice/internal/manifest"
)

// Catalogs serves catalog pages.
type Catalogs interface {
	Fetch(ctx context.Context, req catalog.Request) (*catalog.Result, error)
}

// Manifests builds addon manifests.
type Manifests interface {
	Generate(ctx context.Context, language string) (*manifest.Manifest, error)
}

// Genres makes sure genre names exist for a language and resolves names to ids.
type Genres interface {
	Ensure(ctx context.Context, language, apiKey string) error
	IDByName(ctx context.Context, kind, name string) (int, bool)
}

// PosterFiles opens locally cached posters.
type PosterFiles interface {
	Open(name string) (afero.File, error)
}

// Deps are the services behind the routes.
type Deps struct {
	Catalogs  Catalogs
	Manifests Manifests
	Genres    Genres
	Posters   PosterFiles
}

// Defaults apply when a client configuration leaves a value out.
type Defaults struct {
	Language      string
	CacheDuration string
	TMDBKey       string
	RPDBKey       string
	FanartKey     string
}

// Server is the addon HTTP server.
type Server struct {
	deps     Deps
	defaults Defaults
	log      *slog.Logger
}

// New creates the server.
func New(deps Deps, defaults Defaults, log *slog.Logger) *Server {
	if defaults.Language == "" {
		defaults.Language = "en"
	}
	if defaults.CacheDuration == "" {
		defaults.CacheDuration = "3d"
	}
	return &Server{
		deps:     deps,
		defaults: defaults,
		log:      log.With("component", "api"),
	}
}

// Handler returns the routed handler with CORS and request logging.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.UseEncodedPath()

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/poster/{file}", s.poster).Methods(http.MethodGet, http.MethodHead)

	for _, prefix := range []string{"", "/{config}"} {
		r.HandleFunc(prefix+"/manifest.json", s.manifest).Methods(http.MethodGet, http.MethodOptions)
		r.HandleFunc(prefix+"/catalog/{type}/{id}.json", s.catalog).Methods(http.MethodGet, http.MethodOptions)
		r.HandleFunc(prefix+"/catalog/{type}/{id}/{extra}.json", s.catalog).Methods(http.MethodGet, http.MethodOptions)
	}

	r.Use(mux.CORSMethodMiddleware(r), cors, s.logRequests)
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}
