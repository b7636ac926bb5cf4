// Package poster resolves catalog poster images and keeps a local copy of premium posters.
package poster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// maxPosterBytes bounds a single download.
const maxPosterBytes = 10 << 20

// ErrNotImage is returned when a downloaded body isn't an image.
var ErrNotImage = errors.New("response is not an image")

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// FileName maps an identity to its on-disk name. Anything outside [a-zA-Z0-9_-] becomes "_".
func FileName(identity string) string {
	return unsafeChars.ReplaceAllString(identity, "_") + ".jpg"
}

// CacheConfig configures a Cache.
type CacheConfig struct {
	Dir              string        // directory on the Fs
	TTL              time.Duration // file age after which a poster is stale
	BaseURL          string        // public server URL, posters are served under /poster/
	DownloadAttempts uint
}

// Cache stores downloaded posters as files and uses their modification time as the cache age.
// Stale files are removed when read; nothing sweeps in the background.
type Cache struct {
	fs         afero.Fs
	cfg        CacheConfig
	httpClient *http.Client
	log        *slog.Logger
	now        func() time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithHTTPClient sets the client used for downloads.
func WithHTTPClient(hc *http.Client) CacheOption {
	return func(c *Cache) {
		c.httpClient = hc
	}
}

// WithClock overrides the time source (for testing).
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates a poster cache rooted at cfg.Dir on fs.
func NewCache(fs afero.Fs, cfg CacheConfig, log *slog.Logger, opts ...CacheOption) *Cache {
	if cfg.DownloadAttempts == 0 {
		cfg.DownloadAttempts = 1
	}
	if log == nil {
		log = slog.Default()
	}
	c := &Cache{
		fs:         fs,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fs exposes the backing filesystem for serving.
func (c *Cache) Fs() afero.Fs {
	return c.fs
}

// Dir returns the poster directory.
func (c *Cache) Dir() string {
	return c.cfg.Dir
}

// LocalURL is the address the HTTP server serves identity's file under.
func (c *Cache) LocalURL(identity string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/poster/" + FileName(identity)
}

// Get returns the local URL for identity if a fresh file exists.
// A stale file is deleted and reported as absent.
func (c *Cache) Get(identity string) (string, bool) {
	p := path.Join(c.cfg.Dir, FileName(identity))
	info, err := c.fs.Stat(p)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.log.Warn("poster cache stat failed", "identity", identity, "error", err)
		}
		return "", false
	}

	if c.now().Sub(info.ModTime()) >= c.cfg.TTL {
		c.log.Debug("poster cache expired", "identity", identity)
		if err := c.fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			c.log.Warn("remove stale poster failed", "identity", identity, "error", err)
		}
		return "", false
	}
	return c.LocalURL(identity), true
}

// Put downloads sourceURL and stores it under identity's file name.
func (c *Cache) Put(ctx context.Context, identity, sourceURL string) error {
	data, err := retry.DoWithData(
		func() ([]byte, error) { return c.download(ctx, sourceURL) },
		retry.Context(ctx),
		retry.Attempts(c.cfg.DownloadAttempts),
		retry.Delay(250*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("download poster %s: %w", identity, err)
	}

	if err := c.fs.MkdirAll(c.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("create poster dir: %w", err)
	}

	p := path.Join(c.cfg.Dir, FileName(identity))
	tmp := p + ".tmp"
	if err := afero.WriteFile(c.fs, tmp, data, 0o644); err != nil {
		_ = c.fs.Remove(tmp)
		return fmt.Errorf("write poster: %w", err)
	}
	if err := c.fs.Rename(tmp, p); err != nil {
		_ = c.fs.Remove(tmp)
		return fmt.Errorf("write poster: %w", err)
	}

	c.log.Debug("poster cached", "identity", identity, "path", p, "bytes", len(data))
	return nil
}

func (c *Cache) download(ctx context.Context, sourceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("create request: %w", err))
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("poster source returned %s", resp.Status)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, retry.Unrecoverable(err)
		}
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPosterBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if mt := mimetype.Detect(data); !strings.HasPrefix(mt.String(), "image/") {
		return nil, retry.Unrecoverable(fmt.Errorf("%w: %s", ErrNotImage, mt.String()))
	}
	return data, nil
}

// Open opens a cached poster by file name for serving. Directory components are stripped.
func (c *Cache) Open(name string) (afero.File, error) {
	name = path.Base(path.Clean("/" + name))
	if name == "/" || !strings.HasSuffix(name, ".jpg") {
		return nil, os.ErrNotExist
	}
	return c.fs.Open(path.Join(c.cfg.Dir, name))
}
