// Package sqlite implements all Vigil storage interfaces on a single SQLite
// database file. It is the default backend: a personal dashboard rarely
// exceeds a few thousand rows per table, well within SQLite's comfort zone.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/vigil-app/vigil/internal/storage"
)

// Store implements the Vigil storage interfaces using SQLite.
type Store struct {
	db *sql.DB
}

// Compile-time interface assertions.
var (
	_ storage.MetricStore        = (*Store)(nil)
	_ storage.RelationshipLedger = (*Store)(nil)
	_ storage.InsightStore       = (*Store)(nil)
	_ storage.PatternStore       = (*Store)(nil)
	_ storage.FragmentStore      = (*Store)(nil)
	_ storage.ConversationStore  = (*Store)(nil)
	_ storage.ActivityLog        = (*Store)(nil)
)

// Open opens a SQLite database, configures WAL mode, and creates the schema.
// Pass ":memory:" for an ephemeral database in tests.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Using a single open
	// connection serialises writes and avoids SQLITE_BUSY errors under
	// concurrent load. WAL mode lets readers proceed without blocking the
	// writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Wait instead of failing immediately when the connection is held by
	// another goroutine.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// DB exposes the underlying handle for callers that need raw access
// (e.g. ad hoc maintenance queries).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return nil
}
