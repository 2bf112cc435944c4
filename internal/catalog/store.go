// Package catalog implements the catalog store: a
// modernc.org/sqlite-backed (pure Go, no cgo) persistence layer for
// FileRecord/FolderHashRecord/FolderActionRecord, built on the same
// idempotent-migration style as a PRAGMA-table_info-gated schema, with
// foldersort's own three tables in place of a vector-search schema.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"foldersort/internal/errkind"
	"foldersort/internal/logging"
)

// Store wraps a *sql.DB opened against a single SQLite file in WAL mode.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the catalog database at path,
// enables WAL journaling and NORMAL synchronous mode for write
// throughput, and applies every pending schema migration.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog db %s: %w: %w", path, errkind.Database, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w: %w", p, errkind.Database, err)
		}
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating catalog db: %w: %w", errkind.Database, err)
	}

	logging.Get(logging.CategoryStore).Info("catalog db opened at %s", path)
	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for ad-hoc queries (the store tests
// use it to inspect the schema). Callers must not close it.
func (s *Store) DB() *sql.DB {
	return s.db
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error (including a panic, which is re-raised after
// rollback).
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w: %w", errkind.Database, err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w: %w", errkind.Database, err)
	}
	return nil
}
