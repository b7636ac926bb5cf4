// Package genre stores upstream genre tables and resolves genre ids and names.
package genre

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/vmunix/tmdbdice/internal/tmdb"
)

const memoTTL = 10 * time.Minute

// Store provides access to the genres table.
type Store struct {
	db   *sql.DB
	memo *memo
	log  *slog.Logger
}

// NewStore creates a new genre store.
func NewStore(db *sql.DB, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{db: db, memo: newMemo(memoTTL), log: log}
}

// Begin starts a transaction.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx, ctx: ctx}, nil
}

// Tx wraps a database transaction for bulk genre writes.
type Tx struct {
	tx  *sql.Tx
	ctx context.Context
}

// Put upserts one genre.
func (t *Tx) Put(g tmdb.Genre, kind, language string) error {
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO genres (genre_id, genre_name, media_type, language)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(genre_id, media_type, language) DO UPDATE SET genre_name = excluded.genre_name`,
		g.ID, g.Name, kind, language,
	)
	if err != nil {
		return fmt.Errorf("insert genre %d: %w", g.ID, err)
	}
	return nil
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// Save stores a genre list for (kind, language) atomically.
func (s *Store) Save(ctx context.Context, genres []tmdb.Genre, kind, language string) (err error) {
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, g := range genres {
		if err = tx.Put(g, kind, language); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit genres: %w", err)
	}

	s.memo.forget(language)
	s.log.Info("genres stored", "media_type", kind, "language", language, "count", len(genres))
	return nil
}

// HasLanguage reports whether any genres are stored for language.
func (s *Store) HasLanguage(ctx context.Context, language string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM genres WHERE language = ? LIMIT 1`, language).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check genres: %w", err)
	}
	return true, nil
}

// List returns the genres for (kind, language) sorted by name.
func (s *Store) List(ctx context.Context, kind, language string) ([]tmdb.Genre, error) {
	table, err := s.table(ctx, kind, language)
	if err != nil {
		return nil, err
	}
	genres := make([]tmdb.Genre, 0, len(table))
	for id, name := range table {
		genres = append(genres, tmdb.Genre{ID: id, Name: name})
	}
	sort.Slice(genres, func(i, j int) bool { return genres[i].Name < genres[j].Name })
	return genres, nil
}

// Names resolves ids to names in the order given. Unknown ids are skipped and
// lookup failures yield an empty list; this never returns an error.
func (s *Store) Names(ctx context.Context, ids []int, kind, language string) []string {
	names := []string{}
	if len(ids) == 0 {
		return names
	}
	table, err := s.table(ctx, kind, language)
	if err != nil {
		s.log.Warn("genre lookup failed", "media_type", kind, "language", language, "error", err)
		return names
	}
	for _, id := range ids {
		if name, ok := table[id]; ok {
			names = append(names, name)
		}
	}
	return names
}

// IDByName resolves a genre name in any stored language to its id.
// Exact matches win, then accent/case-folded matches, then close fuzzy matches.
func (s *Store) IDByName(ctx context.Context, kind, name string) (int, bool) {
	var id int
	err := s.db.QueryRowContext(ctx,
		`SELECT genre_id FROM genres WHERE media_type = ? AND genre_name = ? LIMIT 1`, kind, name,
	).Scan(&id)
	if err == nil {
		return id, true
	}
	if !errors.Is(err, sql.ErrNoRows) {
		s.log.Warn("genre id lookup failed", "media_type", kind, "name", name, "error", err)
		return 0, false
	}

	rows, err := s.db.QueryContext(ctx, `SELECT genre_id, genre_name FROM genres WHERE media_type = ?`, kind)
	if err != nil {
		s.log.Warn("genre id lookup failed", "media_type", kind, "name", name, "error", err)
		return 0, false
	}
	defer func() { _ = rows.Close() }()

	var ids []int
	var names []string
	for rows.Next() {
		var gid int
		var gname string
		if err := rows.Scan(&gid, &gname); err != nil {
			return 0, false
		}
		ids = append(ids, gid)
		names = append(names, gname)
	}

	folded := fold(name)
	for i, n := range names {
		if fold(n) == folded {
			return ids[i], true
		}
	}
	if i := bestMatch(name, names); i >= 0 {
		s.log.Debug("genre fuzzy match", "name", name, "matched", names[i])
		return ids[i], true
	}
	return 0, false
}

func (s *Store) table(ctx context.Context, kind, language string) (map[int]string, error) {
	if table, ok := s.memo.get(kind, language); ok {
		return table, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT genre_id, genre_name FROM genres WHERE media_type = ? AND language = ?`, kind, language,
	)
	if err != nil {
		return nil, fmt.Errorf("query genres: %w", err)
	}
	defer func() { _ = rows.Close() }()

	table := make(map[int]string)
	for rows.Next() {
		var id int
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		table[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Don't memoize an empty table; a sync may be about to fill it
	if len(table) > 0 {
		s.memo.set(kind, language, table)
	}
	return table, nil
}
