// Package sqlite implements storage.KV on a single SQLite file.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the client builds
// without a C toolchain. Use ":memory:" for a throwaway store in tests.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/skillflow/internal/storage"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// compile-time check that *DB implements storage.KV
var _ storage.KV = (*DB)(nil)

// DB wraps a sql.DB connection pool holding the local_storage table.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One connection: a ":memory:" database exists per connection, and the
	// CLI never needs more than one writer.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS local_storage (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating local_storage table: %w", err)
	}
	return nil
}

// Get returns the value stored under key.
func (db *DB) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := db.conn.QueryRowContext(ctx,
		`SELECT value FROM local_storage WHERE key = ?`, key,
	).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("sqlite: getting key %s: %w", key, err)
	}
	return value, true, nil
}

// Set inserts or replaces the value under key.
func (db *DB) Set(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO local_storage (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting key %s: %w", key, err)
	}
	return nil
}

// Delete removes the given keys in one transaction.
func (db *DB) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning delete: %w", err)
	}
	defer tx.Rollback()

	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, `DELETE FROM local_storage WHERE key = ?`, k); err != nil {
			return fmt.Errorf("sqlite: deleting key %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing delete: %w", err)
	}
	return nil
}

// Clear removes every key.
func (db *DB) Clear(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM local_storage`); err != nil {
		return fmt.Errorf("sqlite: clearing storage: %w", err)
	}
	return nil
}

// Keys lists the stored keys in sorted order.
func (db *DB) Keys(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT key FROM local_storage ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("sqlite: scanning key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
