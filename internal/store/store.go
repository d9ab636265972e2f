// Package store handles SQLite persistence for both halves of katalyst: the
// learner's session snapshots and settings, and the server's catalog and
// progress records.
package store

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection serializes writers, so read-modify-write
	// transactions never interleave.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS courses (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			body TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS progress_records (
			user_id TEXT NOT NULL,
			course_id TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (user_id, course_id)
		);`,
		`CREATE TABLE IF NOT EXISTS progress_scores (
			user_id TEXT NOT NULL,
			course_id TEXT NOT NULL,
			lesson_id TEXT NOT NULL,
			score INTEGER NOT NULL,
			PRIMARY KEY (user_id, course_id, lesson_id)
		);`,
		`CREATE TABLE IF NOT EXISTS progress_completed (
			user_id TEXT NOT NULL,
			course_id TEXT NOT NULL,
			lesson_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			PRIMARY KEY (user_id, course_id, lesson_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_progress_completed_seq ON progress_completed(user_id, course_id, seq);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func closeRows(rows *sql.Rows) {
	if cerr := rows.Close(); cerr != nil {
		// Best-effort rows close.
		_ = cerr
	}
}

func rollback(tx *sql.Tx) {
	if rerr := tx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
		// Best-effort rollback.
		_ = rerr
	}
}
