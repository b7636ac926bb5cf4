package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dice.db")

	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for _, table := range []string{"catalog_cache", "page_records", "genres"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dice.db")
	ctx := context.Background()

	db, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO page_records (media_type, page, consumed_at) VALUES ('movie', 3, 0)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Migrations are idempotent and data survives a restart
	db, err = Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var page int
	require.NoError(t, db.QueryRow(`SELECT page FROM page_records WHERE media_type = 'movie'`).Scan(&page))
	assert.Equal(t, 3, page)
}

func TestOpen_CacheColumnsAreMillis(t *testing.T) {
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "dice.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`INSERT INTO catalog_cache (key, value, written_at_ms, ttl_ms) VALUES ('k', 'v', 1700000000900, 3600000)`)
	require.NoError(t, err)
}
