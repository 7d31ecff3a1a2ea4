// Package storage provides the read-only SQLite query layer over the site
// database produced by the ingestion pipeline.
//
// The schema is external: this package never creates or migrates tables, it
// only reads them. Every query method takes a context and returns model
// structs with wrapped errors.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite handle for the external site database.
type DB struct {
	sqlDB  *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens the site database read-only and verifies it is reachable.
func Open(ctx context.Context, path string, busyTimeout time.Duration, logger *slog.Logger) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("storage: database path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(%d)", cleanPath, busyTimeout.Milliseconds())
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("storage: ping database: %w", err)
	}
	logger.Info("storage: opened site database", "path", cleanPath)
	return &DB{sqlDB: sqlDB, path: cleanPath, logger: logger}, nil
}

// Path returns the cleaned filesystem path of the database file.
func (db *DB) Path() string {
	return db.path
}

// Ping verifies the database handle is still usable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("storage: ping database: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (db *DB) Close() error {
	return db.sqlDB.Close()
}
