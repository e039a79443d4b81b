// Package sqlcache is a SQLite-backed durable tier for the directive
// cache. It keeps every entry in one table keyed by scope and
// directive key, which makes it easy to inspect a cache with ordinary
// SQL tooling.
package sqlcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// SQLite driver
	_ "modernc.org/sqlite"

	"github.com/thymelang/thyme/pkg/cache"
)

const schema = `
CREATE TABLE IF NOT EXISTS directive_results (
	scope TEXT NOT NULL,
	key TEXT NOT NULL,
	data BLOB NOT NULL,
	stored_at TIMESTAMP NOT NULL,
	PRIMARY KEY (scope, key)
);

CREATE INDEX IF NOT EXISTS idx_results_scope ON directive_results(scope);
`

// DB is a persistent cache over one SQLite file.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens or creates the cache database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlcache: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlcache: create schema: %w", err)
	}
	return &DB{db: db, path: path}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// Get returns the stored bytes for key, or nil when nothing is stored.
func (d *DB) Get(ctx context.Context, scope cache.Scope, key cache.Key) ([]byte, error) {
	const query = `SELECT data FROM directive_results WHERE scope = ? AND key = ?`

	var data []byte
	err := d.db.QueryRowContext(ctx, query, scope.String(), key.String()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlcache: get: %w", err)
	}
	return data, nil
}

// Put stores data under key, replacing any previous entry.
func (d *DB) Put(ctx context.Context, scope cache.Scope, key cache.Key, data []byte) error {
	const query = `
		INSERT INTO directive_results (scope, key, data, stored_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (scope, key) DO UPDATE SET data = excluded.data, stored_at = excluded.stored_at`

	if _, err := d.db.ExecContext(ctx, query, scope.String(), key.String(), data, time.Now().UTC()); err != nil {
		return fmt.Errorf("sqlcache: put: %w", err)
	}
	return nil
}

// Remove drops one entry. Removing an absent entry is not an error.
func (d *DB) Remove(ctx context.Context, scope cache.Scope, key cache.Key) error {
	const query = `DELETE FROM directive_results WHERE scope = ? AND key = ?`

	if _, err := d.db.ExecContext(ctx, query, scope.String(), key.String()); err != nil {
		return fmt.Errorf("sqlcache: remove: %w", err)
	}
	return nil
}

// ClearScope drops every entry in the scope.
func (d *DB) ClearScope(ctx context.Context, scope cache.Scope) error {
	const query = `DELETE FROM directive_results WHERE scope = ?`

	if _, err := d.db.ExecContext(ctx, query, scope.String()); err != nil {
		return fmt.Errorf("sqlcache: clear scope: %w", err)
	}
	return nil
}

var _ cache.PersistentCache = (*DB)(nil)
