// Package store implements C1: the embedded relational store backing
// every other component. Single writer, many readers, prepared
// parameterized queries only.
package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/oracle-mind/oracle/internal/applog"
	"github.com/oracle-mind/oracle/internal/store/migrations"
)

var logger = applog.Named("store")

// Store owns the single *sqlx.DB connection for the process. Cross-process
// writers are disallowed by the HTTP instance lock; within the
// process every write goes through this type.
type Store struct {
	db   *sqlx.DB
	path string
}

// Open opens (creating if absent) the database file at path, applies
// pragmas for single-writer/many-reader concurrency, and runs any pending
// migrations. Corrupt stores are fatal.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	s := &Store{db: db, path: path}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating store: %w", err)
	}

	return s, nil
}

// migrate applies embedded goose migrations idempotently.
func (s *Store) migrate() error {
	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(s.db.DB, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	logger.Info("schema migrated")
	return nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the raw *sqlx.DB for components needing direct prepared
// queries beyond what this package's typed methods offer.
func (s *Store) DB() *sqlx.DB { return s.db }
