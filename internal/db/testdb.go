package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// NewTestDB creates a fresh in-memory SQLite database with the schema applied.
// It has a single connection.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	return newTestDB(t, ":memory:")
}

// NewTestFileDB creates a fresh file-backed database in a temporary
// directory. Unlike NewTestDB it has a pool of several connections, so
// tests see concurrent writers and per-connection settings.
func NewTestFileDB(t *testing.T) *sql.DB {
	t.Helper()
	db := newTestDB(t, filepath.Join(t.TempDir(), "barter.sqlite3"))
	db.SetMaxOpenConns(8)
	return db
}

func newTestDB(t *testing.T, path string) *sql.DB {
	t.Helper()

	db, err := Open(path)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := EnsureSchema(db); err != nil {
		db.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
