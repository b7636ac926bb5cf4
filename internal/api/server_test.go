package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/tmdbdice/internal/cache"
	"github.com/vmunix/tmdbdice/internal/catalog"
	"github.com/vmunix/tmdbdice/internal/filter"
	"github.com/vmunix/tmdbdice/internal/manifest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeCatalogs struct {
	got    catalog.Request
	result *catalog.Result
	err    error
}

func (f *fakeCatalogs) Fetch(_ context.Context, req catalog.Request) (*catalog.Result, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	if _, err := cache.ParseDuration(req.CacheDuration); err != nil {
		return nil, err
	}
	return f.result, nil
}

type fakeManifests struct {
	language string
}

func (f *fakeManifests) Generate(_ context.Context, language string) (*manifest.Manifest, error) {
	f.language = language
	return &manifest.Manifest{ID: manifest.ID, Version: "test"}, nil
}

type fakeGenres struct {
	ensured []string
	ids     map[string]int
}

func (f *fakeGenres) Ensure(_ context.Context, language, apiKey string) error {
	f.ensured = append(f.ensured, language+"/"+apiKey)
	return nil
}

func (f *fakeGenres) IDByName(_ context.Context, _ string, name string) (int, bool) {
	id, ok := f.ids[name]
	return id, ok
}

type memPosters struct {
	fs afero.Fs
}

func (m memPosters) Open(name string) (afero.File, error) {
	return m.fs.Open("/" + name)
}

type testEnv struct {
	handler   http.Handler
	catalogs  *fakeCatalogs
	manifests *fakeManifests
	genres    *fakeGenres
	fs        afero.Fs
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		catalogs: &fakeCatalogs{result: &catalog.Result{Items: []catalog.Meta{
			{ID: "1", Name: "With Poster", Poster: "https://img/1.jpg", Type: "movie", Genres: []string{}},
			{ID: "2", Name: "No Poster", Type: "movie", Genres: []string{}},
		}, Page: 3}},
		manifests: &fakeManifests{},
		genres:    &fakeGenres{ids: map[string]int{"Action": 28}},
		fs:        afero.NewMemMapFs(),
	}
	srv := New(Deps{
		Catalogs:  env.catalogs,
		Manifests: env.manifests,
		Genres:    env.genres,
		Posters:   memPosters{fs: env.fs},
	}, Defaults{TMDBKey: "server-key"}, testLogger())
	env.handler = srv.Handler()
	return env
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeMetas(t *testing.T, rec *httptest.ResponseRecorder) []catalog.Meta {
	t.Helper()
	var resp catalogResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Metas)
	return resp.Metas
}

func configSegment(t *testing.T, cfg map[string]any) string {
	t.Helper()
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	return url.PathEscape(string(data))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.get(t, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/manifest.json")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodOptions, "/catalog/movie/random_movies.json", nil)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCatalog_InvalidType(t *testing.T) {
	env := newTestEnv(t)
	rec := env.get(t, "/catalog/anime/random_movies.json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"metas":[]}`, rec.Body.String())
}

func TestCatalog_Basic(t *testing.T) {
	env := newTestEnv(t)
	rec := env.get(t, "/catalog/movie/random_movies.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeMetas(t, rec), 2)

	got := env.catalogs.got
	assert.Equal(t, filter.Movie, got.Kind)
	assert.Equal(t, "random_movies", got.CatalogID)
	assert.Equal(t, "en", got.Language)
	assert.Equal(t, "3d", got.CacheDuration)
	assert.Equal(t, "server-key", got.Credentials.CatalogKey)
}

func TestCatalog_SeriesWithExtrasAndConfig(t *testing.T) {
	env := newTestEnv(t)
	cfg := configSegment(t, map[string]any{
		"language":     "fr-FR",
		"tmdbApiKey":   "user-key",
		"rpdbApiKey":   "t1-rpdb",
		"fanartApiKey": "fan",
	})
	path := fmt.Sprintf("/%s/catalog/series/random_series/genre=Action&skip=20.json?cacheDuration=12h&with_original_language=ko", cfg)

	rec := env.get(t, path)
	require.Equal(t, http.StatusOK, rec.Code)

	got := env.catalogs.got
	assert.Equal(t, filter.TV, got.Kind)
	assert.Equal(t, "random_series", got.CatalogID)
	assert.Equal(t, "fr-FR", got.Language)
	assert.Equal(t, "12h", got.CacheDuration)
	assert.Equal(t, catalog.Credentials{CatalogKey: "user-key", PosterKey: "t1-rpdb", LogoKey: "fan"}, got.Credentials)
	assert.Equal(t, map[string]string{
		"genre":                  "Action",
		"with_genres":            "28",
		"skip":                   "20",
		"with_original_language": "ko",
	}, got.Extra)
}

func TestCatalog_EncodedExtraValue(t *testing.T) {
	env := newTestEnv(t)
	rec := env.get(t, "/catalog/movie/random_movies/genre=Sci-Fi%20%26%20Fantasy&skip=0.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Sci-Fi & Fantasy", env.catalogs.got.Extra["genre"])
	assert.Equal(t, "0", env.catalogs.got.Extra["skip"])
}

func TestCatalog_InvalidCacheDuration(t *testing.T) {
	env := newTestEnv(t)
	rec := env.get(t, "/catalog/movie/random_movies.json?cacheDuration=3w")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"metas":[]}`, rec.Body.String())
}

func TestCatalog_PipelineFailure(t *testing.T) {
	env := newTestEnv(t)
	env.catalogs.err = fmt.Errorf("%w: connection refused", catalog.ErrUpstreamUnavailable)

	rec := env.get(t, "/catalog/movie/random_movies.json")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"metas":[]}`, rec.Body.String())
}

func TestCatalog_Exhausted(t *testing.T) {
	env := newTestEnv(t)
	env.catalogs.result = &catalog.Result{Items: []catalog.Meta{}, Exhausted: true}

	rec := env.get(t, "/catalog/movie/random_movies.json")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"metas":[]}`, rec.Body.String())
}

func TestCatalog_HideNoPoster(t *testing.T) {
	env := newTestEnv(t)

	for _, v := range []any{true, "true"} {
		cfg := configSegment(t, map[string]any{"hideNoPoster": v})
		rec := env.get(t, "/"+cfg+"/catalog/movie/random_movies.json")
		require.Equal(t, http.StatusOK, rec.Code)

		metas := decodeMetas(t, rec)
		require.Len(t, metas, 1)
		assert.Equal(t, "1", metas[0].ID)
	}
}

func TestCatalog_BadConfig(t *testing.T) {
	env := newTestEnv(t)
	rec := env.get(t, "/"+url.PathEscape("{not json")+"/catalog/movie/random_movies.json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestManifest(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/manifest.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "en", env.manifests.language)

	cfg := configSegment(t, map[string]any{"language": "de", "tmdbApiKey": "k"})
	rec = env.get(t, "/"+cfg+"/manifest.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "de", env.manifests.language)
	assert.Equal(t, []string{"en/server-key", "de/k"}, env.genres.ensured)

	var m manifest.Manifest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, manifest.ID, m.ID)
}

func TestPoster(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, afero.WriteFile(env.fs, "/poster_movie_1.jpg", []byte("\xff\xd8\xffjpeg"), 0o644))

	rec := env.get(t, "/poster/poster_movie_1.jpg")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "\xff\xd8\xffjpeg", rec.Body.String())

	rec = env.get(t, "/poster/missing.jpg")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserConfig_FlexBool(t *testing.T) {
	for raw, want := range map[string]bool{
		`{"hideNoPoster":true}`:    true,
		`{"hideNoPoster":"true"}`:  true,
		`{"hideNoPoster":"false"}`: false,
		`{"hideNoPoster":null}`:    false,
		`{}`:                       false,
	} {
		cfg, err := parseUserConfig(url.PathEscape(raw))
		require.NoError(t, err, raw)
		assert.Equal(t, want, bool(cfg.HideNoPoster), raw)
	}

	_, err := parseUserConfig(url.PathEscape(`{"hideNoPoster":"maybe"}`))
	assert.Error(t, err)
}

func TestServer_RequestLog(t *testing.T) {
	var buf bytes.Buffer
	srv := New(Deps{
		Catalogs:  &fakeCatalogs{},
		Manifests: &fakeManifests{},
		Genres:    &fakeGenres{},
		Posters:   memPosters{fs: afero.NewMemMapFs()},
	}, Defaults{}, slog.New(slog.NewJSONHandler(&buf, nil)))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "request", entry["msg"])
	assert.Equal(t, "/health", entry["path"])
	assert.EqualValues(t, 200, entry["status"])
	assert.Contains(t, entry, "duration_ms")
	assert.NotContains(t, entry, "duration")
}
