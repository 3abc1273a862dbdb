package database

import (
	"path/filepath"
	"testing"
)

func setupTestDatabase(t *testing.T) *DB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "writecoach_test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := setupTestDatabase(t)

	// A second run must skip every applied migration without error.
	if err := db.Migrate(); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}

	var version int
	err := db.Conn().QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version)
	if err != nil {
		t.Fatalf("Failed to read schema version: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("Expected schema version %d, got %d", len(migrations), version)
	}
}
