// Package sqlite contains the embedded SQLite implementation of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/and161185/gk-vault/internal/migrate"
)

// pragmas applied to every file-backed connection. synchronous(FULL) makes
// each committed statement durable on return.
const pragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)&_pragma=foreign_keys(ON)"

// DB wraps the single SQLite handle the process owns.
type DB struct {
	SQL *sql.DB
}

// Open opens (creating if needed) the entry database at path and applies migrations.
func Open(ctx context.Context, path string, log *zap.Logger) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?%s", filepath.ToSlash(path), pragmas)
	return OpenDSN(ctx, dsn, log)
}

// OpenDSN opens a database from a raw modernc.org/sqlite DSN and applies migrations.
func OpenDSN(ctx context.Context, dsn string, log *zap.Logger) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection per process: no contention, and a shared in-memory
	// database lives exactly as long as this handle.
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := migrate.Up(ctx, conn, log); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &DB{SQL: conn}, nil
}

// Close closes the underlying handle.
func (db *DB) Close() error { return db.SQL.Close() }
