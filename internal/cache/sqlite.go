package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS render_cache (
	collection   TEXT NOT NULL,
	path         TEXT NOT NULL,
	layout       TEXT NOT NULL,
	html         TEXT NOT NULL,
	source_mtime INTEGER NOT NULL,
	rendered_at  INTEGER NOT NULL,
	PRIMARY KEY (collection, path, layout)
);
`

// SQLiteCache persists rendered HTML across runs in a single SQLite file.
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache opens (creating if needed) the cache database at path.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}
	// The driver serializes writes; a single connection avoids
	// SQLITE_BUSY on concurrent stores.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: init schema: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

// Get retrieves cached HTML, treating an mtime mismatch as a miss.
func (c *SQLiteCache) Get(key Key, sourceMod time.Time) (string, bool) {
	var html string
	var storedMtime int64
	err := c.db.QueryRow(
		`SELECT html, source_mtime FROM render_cache
		 WHERE collection = ? AND path = ? AND layout = ?`,
		key.Collection, key.Path, key.Layout,
	).Scan(&html, &storedMtime)
	if err != nil {
		return "", false
	}
	if storedMtime != sourceMod.UnixNano() {
		return "", false
	}
	return html, true
}

// Store saves rendered HTML for the key, replacing any previous entry.
func (c *SQLiteCache) Store(key Key, html string, sourceMod time.Time) error {
	_, err := c.db.Exec(
		`INSERT INTO render_cache (collection, path, layout, html, source_mtime, rendered_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (collection, path, layout) DO UPDATE SET
			html = excluded.html,
			source_mtime = excluded.source_mtime,
			rendered_at = excluded.rendered_at`,
		key.Collection, key.Path, key.Layout, html, sourceMod.UnixNano(), time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("cache: store %s/%s: %w", key.Collection, key.Path, err)
	}
	return nil
}

// Invalidate removes matching entries; empty selectors widen the match.
func (c *SQLiteCache) Invalidate(collection, path string) error {
	var err error
	switch {
	case collection == "" && path == "":
		_, err = c.db.Exec(`DELETE FROM render_cache`)
	case path == "":
		_, err = c.db.Exec(`DELETE FROM render_cache WHERE collection = ?`, collection)
	case collection == "":
		_, err = c.db.Exec(`DELETE FROM render_cache WHERE path = ?`, path)
	default:
		_, err = c.db.Exec(`DELETE FROM render_cache WHERE collection = ? AND path = ?`, collection, path)
	}
	if err != nil {
		return fmt.Errorf("cache: invalidate: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (c *SQLiteCache) Close() error {
	if c.db == nil {
		return errors.New("cache: already closed")
	}
	err := c.db.Close()
	c.db = nil
	return err
}
