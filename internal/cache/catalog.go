// Package cache provides the SQLite-backed catalog result cache.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Meta describes the request that produced a cached value.
type Meta struct {
	Page      int
	Skip      int
	Genre     string
	Year      string
	Rating    string
	MediaType string
}

// Entry is a live cache record.
type Entry struct {
	Value     []byte
	WrittenAt time.Time
	TTL       time.Duration
	Meta
}

// Catalog maps request keys to serialized result batches.
// Expired rows stay on disk until overwritten or pruned.
type Catalog struct {
	db  *sql.DB
	log *slog.Logger
	now func() time.Time
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithClock overrides the time source (for testing).
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) {
		c.now = now
	}
}

// NewCatalog creates a catalog cache.
func NewCatalog(db *sql.DB, log *slog.Logger, opts ...Option) *Catalog {
	if log == nil {
		log = slog.Default()
	}
	c := &Catalog{db: db, log: log, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the entry for key if it was written less than its TTL ago.
// Missing, expired and unreadable entries are all reported as absent.
func (c *Catalog) Get(ctx context.Context, key string) (*Entry, bool) {
	var (
		value     string
		writtenAt int64
		ttlMillis int64
		e         Entry
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT value, written_at_ms, ttl_ms, page, skip, genre, year, rating, media_type
		 FROM catalog_cache WHERE key = ?`, key,
	).Scan(&value, &writtenAt, &ttlMillis, &e.Page, &e.Skip, &e.Genre, &e.Year, &e.Rating, &e.MediaType)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			c.log.Warn("catalog cache read failed", "key", key, "error", err)
		}
		return nil, false
	}

	e.WrittenAt = time.UnixMilli(writtenAt)
	e.TTL = time.Duration(ttlMillis) * time.Millisecond
	if c.now().Sub(e.WrittenAt) >= e.TTL {
		c.log.Debug("catalog cache expired", "key", key)
		return nil, false
	}
	e.Value = []byte(value)
	return &e, true
}

// Put stores value under key, replacing any previous entry.
func (c *Catalog) Put(ctx context.Context, key string, value []byte, ttl time.Duration, meta Meta) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO catalog_cache (key, value, written_at_ms, ttl_ms, page, skip, genre, year, rating, media_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			written_at_ms = excluded.written_at_ms,
			ttl_ms = excluded.ttl_ms,
			page = excluded.page,
			skip = excluded.skip,
			genre = excluded.genre,
			year = excluded.year,
			rating = excluded.rating,
			media_type = excluded.media_type`,
		key, string(value), c.now().UnixMilli(), ttl.Milliseconds(),
		meta.Page, meta.Skip, meta.Genre, meta.Year, meta.Rating, meta.MediaType,
	)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Delete removes a cached value.
func (c *Catalog) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM catalog_cache WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// Prune removes all expired entries.
// Returns the number of entries removed.
func (c *Catalog) Prune(ctx context.Context) (int64, error) {
	result, err := c.db.ExecContext(ctx,
		"DELETE FROM catalog_cache WHERE written_at_ms + ttl_ms <= ?", c.now().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("cache prune: %w", err)
	}
	return result.RowsAffected()
}
