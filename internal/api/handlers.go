package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vmunix/tmdbdice/internal/cache"
	"github.com/vmunix/tmdbdice/internal/catalog"
	"github.com/vmunix/tmdbdice/internal/filter"
)

type catalogResponse struct {
	Metas []catalog.Meta `json:"metas"`
}

var emptyCatalog = catalogResponse{Metas: []catalog.Meta{}}

func (s *Server) manifest(w http.ResponseWriter, r *http.Request) {
	cfg, err := parseUserConfig(mux.Vars(r)["config"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	language := s.language(cfg)

	if err := s.deps.Genres.Ensure(r.Context(), language, s.tmdbKey(cfg)); err != nil {
		s.log.Warn("genres unavailable for manifest", "language", language, "error", err)
	}

	m, err := s.deps.Manifests.Generate(r.Context(), language)
	if err != nil {
		s.log.Error("manifest generation failed", "language", language, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error generating manifest"})
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) catalog(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ctx := r.Context()

	cfg, err := parseUserConfig(vars["config"])
	if err != nil {
		s.log.Warn("bad client configuration", "error", err)
		writeJSON(w, http.StatusBadRequest, emptyCatalog)
		return
	}

	kind, err := filter.ParseKind(vars["type"])
	if err != nil {
		s.log.Warn("invalid catalog type", "type", vars["type"])
		writeJSON(w, http.StatusBadRequest, emptyCatalog)
		return
	}

	query := r.URL.Query()
	cacheDuration := query.Get("cacheDuration")
	if cacheDuration == "" {
		cacheDuration = s.defaults.CacheDuration
	}

	extra := make(map[string]string)
	for k := range query {
		if k != "cacheDuration" {
			extra[k] = query.Get(k)
		}
	}
	for k, v := range filter.ParseExtra(vars["extra"]) {
		extra[k] = v
	}

	if !filter.ResolveGenre(ctx, s.deps.Genres, kind, extra) {
		s.log.Warn("genre not found", "genre", extra["genre"], "media_type", string(kind))
	}

	res, err := s.deps.Catalogs.Fetch(ctx, catalog.Request{
		Kind:          kind,
		CatalogID:     vars["id"],
		Extra:         extra,
		Language:      s.language(cfg),
		CacheDuration: cacheDuration,
		Credentials: catalog.Credentials{
			CatalogKey: s.tmdbKey(cfg),
			PosterKey:  firstNonEmpty(cfg.RPDBKey, s.defaults.RPDBKey),
			LogoKey:    firstNonEmpty(cfg.FanartKey, s.defaults.FanartKey),
		},
	})
	switch {
	case errors.Is(err, cache.ErrInvalidDuration):
		s.log.Warn("invalid cache duration", "cache_duration", cacheDuration)
		writeJSON(w, http.StatusBadRequest, emptyCatalog)
		return
	case err != nil:
		s.log.Error("catalog fetch failed", "type", string(kind), "id", vars["id"], "error", err)
		writeJSON(w, http.StatusInternalServerError, emptyCatalog)
		return
	}

	metas := res.Items
	if bool(cfg.HideNoPoster) || extra["hideNoPoster"] == "true" {
		kept := make([]catalog.Meta, 0, len(metas))
		for _, m := range metas {
			if m.Poster != "" {
				kept = append(kept, m)
			}
		}
		metas = kept
	}
	writeJSON(w, http.StatusOK, catalogResponse{Metas: metas})
}

func (s *Server) poster(w http.ResponseWriter, r *http.Request) {
	if s.deps.Posters == nil {
		http.NotFound(w, r)
		return
	}
	f, err := s.deps.Posters.Open(mux.Vars(r)["file"])
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (s *Server) language(cfg userConfig) string {
	return firstNonEmpty(cfg.Language, s.defaults.Language)
}

func (s *Server) tmdbKey(cfg userConfig) string {
	return firstNonEmpty(cfg.TMDBKey, s.defaults.TMDBKey)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
