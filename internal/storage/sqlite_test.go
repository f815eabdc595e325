package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

// newTestDB creates an in-memory SQLite database with migrations applied.
// The database is automatically closed when the test completes.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := OpenDatabase(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := RunMigrations(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	return db
}

// newTestStore creates an in-memory Store with migrations applied.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(newTestDB(t))
}

func TestOpenDatabase_InMemory(t *testing.T) {
	db, err := OpenDatabase(":memory:")
	if err != nil {
		t.Fatalf("OpenDatabase(:memory:) error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		t.Fatalf("Ping() error: %v", err)
	}
}

func TestOpenDatabase_CreatesDirectoryAndFile(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "nested", "deep", "herald.db")

	db, err := OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("OpenDatabase(%q) error: %v", dbPath, err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database file not created at %q: %v", dbPath, err)
	}
}

func TestRunMigrations_AppliesSchema(t *testing.T) {
	db := newTestDB(t)

	for _, table := range []string{"users", "schema_migrations"} {
		var name string
		err := db.QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&name)
		if err != nil {
			t.Errorf("expected table %q to exist: %v", table, err)
		}
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := newTestDB(t)

	// Running again must be a no-op, not a duplicate-table error.
	if err := RunMigrations(db); err != nil {
		t.Fatalf("second RunMigrations error: %v", err)
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		filename string
		want     int
	}{
		{"001_users.sql", 1},
		{"042_add_column.sql", 42},
		{"no_version.sql", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := parseVersion(tt.filename); got != tt.want {
			t.Errorf("parseVersion(%q) = %d, want %d", tt.filename, got, tt.want)
		}
	}
}
