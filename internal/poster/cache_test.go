package poster

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00\xff\xd9")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCache(t *testing.T, now *time.Time) (*Cache, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	c := NewCache(fs, CacheConfig{
		Dir:              "/posters",
		TTL:              72 * time.Hour,
		BaseURL:          "http://localhost:7000/",
		DownloadAttempts: 2,
	}, testLogger(), WithClock(func() time.Time { return *now }))
	return c, fs
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "poster_movie_550.jpg", FileName("poster:movie:550"))
	assert.Equal(t, "a_b-c_d.jpg", FileName("a/b-c.d"))
}

func TestCache_PutThenGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(jpegBytes)
	}))
	defer server.Close()

	now := time.Now()
	c, fs := newTestCache(t, &now)

	_, ok := c.Get("poster:movie:550")
	assert.False(t, ok)

	require.NoError(t, c.Put(context.Background(), "poster:movie:550", server.URL+"/a.jpg"))

	url, ok := c.Get("poster:movie:550")
	require.True(t, ok)
	assert.Equal(t, "http://localhost:7000/poster/poster_movie_550.jpg", url)

	data, err := afero.ReadFile(fs, "/posters/poster_movie_550.jpg")
	require.NoError(t, err)
	assert.Equal(t, jpegBytes, data)

	exists, err := afero.Exists(fs, "/posters/poster_movie_550.jpg.tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCache_ExpiredFileIsDeletedOnRead(t *testing.T) {
	now := time.Now()
	c, fs := newTestCache(t, &now)

	require.NoError(t, fs.MkdirAll("/posters", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/posters/poster_tv_1399.jpg", jpegBytes, 0o644))
	written := now.Add(-73 * time.Hour)
	require.NoError(t, fs.Chtimes("/posters/poster_tv_1399.jpg", written, written))

	_, ok := c.Get("poster:tv:1399")
	assert.False(t, ok)

	exists, err := afero.Exists(fs, "/posters/poster_tv_1399.jpg")
	require.NoError(t, err)
	assert.False(t, exists, "stale poster should be removed")
}

func TestCache_FreshFileJustUnderTTL(t *testing.T) {
	now := time.Now()
	c, fs := newTestCache(t, &now)

	require.NoError(t, fs.MkdirAll("/posters", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/posters/poster_tv_1399.jpg", jpegBytes, 0o644))
	written := now.Add(-71 * time.Hour)
	require.NoError(t, fs.Chtimes("/posters/poster_tv_1399.jpg", written, written))

	_, ok := c.Get("poster:tv:1399")
	assert.True(t, ok)
}

func TestCache_PutRejectsNonImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>rate limited</body></html>"))
	}))
	defer server.Close()

	now := time.Now()
	c, fs := newTestCache(t, &now)

	err := c.Put(context.Background(), "poster:movie:1", server.URL)
	require.ErrorIs(t, err, ErrNotImage)

	exists, _ := afero.Exists(fs, "/posters/poster_movie_1.jpg")
	assert.False(t, exists)
}

func TestCache_PutRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write(jpegBytes)
	}))
	defer server.Close()

	now := time.Now()
	c, _ := newTestCache(t, &now)

	require.NoError(t, c.Put(context.Background(), "poster:movie:2", server.URL))
	assert.Equal(t, int32(2), calls.Load())
}

func TestCache_PutDoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	now := time.Now()
	c, _ := newTestCache(t, &now)

	require.Error(t, c.Put(context.Background(), "poster:movie:3", server.URL))
	assert.Equal(t, int32(1), calls.Load())
}

func TestCache_Open(t *testing.T) {
	now := time.Now()
	c, fs := newTestCache(t, &now)
	require.NoError(t, fs.MkdirAll("/posters", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/posters/poster_movie_7.jpg", jpegBytes, 0o644))

	f, err := c.Open("poster_movie_7.jpg")
	require.NoError(t, err)
	defer f.Close()

	_, err = c.Open("../etc/passwd")
	assert.Error(t, err)
}
