// Package pages tracks which upstream pages have been served for each filter signature.
package pages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/vmunix/tmdbdice/internal/filter"
)

// DefaultMaxPages is the last page the discover API will serve.
const DefaultMaxPages = 500

// ErrExhausted means every page in range has been served for the signature.
// This is a terminal state, not a failure.
var ErrExhausted = errors.New("all pages consumed")

// Tracker persists page consumption per signature.
type Tracker struct {
	db       *sql.DB
	maxPages int
	log      *slog.Logger
	intn     func(n int) int
}

// NewTracker creates a tracker. maxPages <= 0 selects DefaultMaxPages.
func NewTracker(db *sql.DB, maxPages int, log *slog.Logger) *Tracker {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{db: db, maxPages: maxPages, log: log, intn: rand.Intn}
}

// MaxPages returns the page cap.
func (t *Tracker) MaxPages() int {
	return t.maxPages
}

// SelectUnconsumed picks a page in [1, totalPages] uniformly at random among the pages
// not yet recorded for sig. totalPages is capped at MaxPages.
func (t *Tracker) SelectUnconsumed(ctx context.Context, sig filter.Signature, totalPages int) (int, error) {
	if totalPages > t.maxPages {
		totalPages = t.maxPages
	}
	if totalPages < 1 {
		return 0, ErrExhausted
	}

	consumed, err := t.Consumed(ctx, sig)
	if err != nil {
		return 0, err
	}
	seen := make(map[int]bool, len(consumed))
	for _, p := range consumed {
		seen[p] = true
	}

	available := make([]int, 0, totalPages)
	for p := 1; p <= totalPages; p++ {
		if !seen[p] {
			available = append(available, p)
		}
	}
	if len(available) == 0 {
		return 0, ErrExhausted
	}

	page := available[t.intn(len(available))]
	t.log.Debug("page selected", "signature", sig.Key(), "page", page, "available", len(available), "total", totalPages)
	return page, nil
}

// RecordConsumed marks page as served for sig. Recording the same page twice is a no-op.
func (t *Tracker) RecordConsumed(ctx context.Context, sig filter.Signature, page int) error {
	genre, year, rating := sig.Components()
	_, err := t.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO page_records (media_type, genre, year, rating, page, consumed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(sig.Kind), genre, year, rating, page, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("record page: %w", err)
	}
	return nil
}

// Consumed lists served pages for sig in ascending order.
func (t *Tracker) Consumed(ctx context.Context, sig filter.Signature) ([]int, error) {
	genre, year, rating := sig.Components()
	rows, err := t.db.QueryContext(ctx,
		`SELECT page FROM page_records
		 WHERE media_type = ? AND genre = ? AND year = ? AND rating = ?
		 ORDER BY page`,
		string(sig.Kind), genre, year, rating,
	)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pages []int
	for rows.Next() {
		var p int
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// Reset forgets every page served for sig and returns how many records were removed.
func (t *Tracker) Reset(ctx context.Context, sig filter.Signature) (int64, error) {
	genre, year, rating := sig.Components()
	result, err := t.db.ExecContext(ctx,
		`DELETE FROM page_records WHERE media_type = ? AND genre = ? AND year = ? AND rating = ?`,
		string(sig.Kind), genre, year, rating,
	)
	if err != nil {
		return 0, fmt.Errorf("reset pages: %w", err)
	}
	return result.RowsAffected()
}
