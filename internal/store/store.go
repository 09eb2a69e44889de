// Package store is the SQLite persistence layer: spaces, pages with a
// versioned mutation protocol, labels, links, and full-text search. One
// Store owns one database handle; multi-process coordination is left to
// SQLite (WAL + busy timeout).
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps the database handle. Open with Open; close with Close.
type Store struct {
	db   *sql.DB
	path string
}

// DefaultPath resolves the database file location: $WHATIDID_PATH when set,
// otherwise ~/.whatidid/kb.db.
func DefaultPath() (string, error) {
	if p := os.Getenv("WHATIDID_PATH"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", &IOError{Path: "~", Err: err}
	}
	return filepath.Join(home, ".whatidid", "kb.db"), nil
}

// Open opens (creating if needed) the database at path, applies connection
// pragmas, and runs migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &IOError{Path: dir, Err: err}
		}
	}

	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errStorage("open", err)
	}
	// One connection per process; the engine arbitrates between processes.
	db.SetMaxOpenConns(1)

	// WAL enables one writer + many readers; busy_timeout avoids
	// "database is locked" flakiness under concurrent writers.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, errStorage("pragma", err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path this store was opened on.
func (s *Store) Path() string { return s.path }

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
