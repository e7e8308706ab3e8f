// Package testutil provides helpers shared by package tests.
package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cinetrack/cinetrack/internal/database"
)

// TestDB wraps a migrated test database.
type TestDB struct {
	Manager *database.Manager
	Conn    *sql.DB
	Path    string
	Logger  zerolog.Logger
}

// NewTestDB creates a migrated database in a temp directory. The caller
// should defer Close().
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dir := t.TempDir()
	logger := NewTestLogger(t)

	manager, err := database.NewManager(filepath.Join(dir, "test.db"), filepath.Join(dir, "test_dev.db"), logger)
	if err != nil {
		t.Fatalf("Failed to create database manager: %v", err)
	}

	if err := manager.Migrate(); err != nil {
		manager.Close()
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return &TestDB{
		Manager: manager,
		Conn:    manager.Conn(),
		Path:    dir,
		Logger:  logger,
	}
}

// Close closes the database. The temp directory is removed by the test
// framework.
func (tdb *TestDB) Close() {
	if tdb.Manager != nil {
		tdb.Manager.Close()
	}
}

// NewTestLogger creates a logger that writes through t.Log.
func NewTestLogger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
}

// NopLogger returns a no-op logger for tests that don't need output.
func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}
