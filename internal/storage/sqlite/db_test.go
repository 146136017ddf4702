// ABOUTME: Tests for SQLite database connection and schema initialization
// ABOUTME: Verifies database creation, idempotent setup, and legacy column migration
package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenInMemory(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	if db.Conn() == nil {
		t.Error("Conn() should not be nil")
	}

	if db.Path() != ":memory:" {
		t.Errorf("Path() = %v, want :memory:", db.Path())
	}
}

func TestSchemaInitialization(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()

	tables := []string{"saves", "collections", "collection_items"}
	for _, table := range tables {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s does not exist: %v", table, err)
		}
	}

	indexes := []string{"idx_saves_createdAt", "idx_saves_platform", "idx_saves_category"}
	for _, index := range indexes {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='index' AND name=?", index).Scan(&name)
		if err != nil {
			t.Errorf("Index %s does not exist: %v", index, err)
		}
	}

	version, err := db.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("SchemaVersion() = %d, want %d", version, SchemaVersion)
	}
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	store := NewSaveStore(db)
	id, err := store.Add(ctx, sampleInput("https://example.com/keep"))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := db.EnsureSchema(ctx); err != nil {
			t.Fatalf("EnsureSchema() run %d error = %v", i, err)
		}
	}

	save, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if save == nil {
		t.Fatal("save disappeared after repeated EnsureSchema")
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "subdir", "nested", "stash.db")

	db, err := Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	var mode string
	if err := db.QueryRowContext(context.Background(), "PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode query error = %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestOpenMigratesLegacySchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "legacy.db")

	// First release: no summary or embedding columns
	legacy, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	_, err = legacy.Exec(`
		CREATE TABLE saves (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			url TEXT UNIQUE NOT NULL,
			title TEXT NOT NULL,
			imageUrl TEXT,
			siteName TEXT,
			platform TEXT NOT NULL,
			category TEXT,
			note TEXT,
			createdAt TEXT NOT NULL,
			updatedAt TEXT NOT NULL
		);
		INSERT INTO saves (url, title, platform, category, createdAt, updatedAt)
		VALUES ('https://old.example.com', 'Old', 'web', 'Recipes', '2023-05-01T10:00:00.000Z', '2023-05-01T10:00:00.000Z');
	`)
	if err != nil {
		t.Fatalf("legacy setup error = %v", err)
	}
	_ = legacy.Close()

	db, err := Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	columns, err := db.columns(context.Background(), "saves")
	if err != nil {
		t.Fatalf("columns() error = %v", err)
	}
	found := map[string]bool{}
	for _, c := range columns {
		found[c] = true
	}
	for _, want := range []string{"summary", "embedding"} {
		if !found[want] {
			t.Errorf("column %s missing after migration; have %v", want, columns)
		}
	}

	save, err := NewSaveStore(db).GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if save == nil {
		t.Fatal("legacy row lost during migration")
	}
	if save.Summary != nil || save.Embedding != nil {
		t.Errorf("migrated row should have NULL summary/embedding, got %v/%v", save.Summary, save.Embedding)
	}
	if tags := save.Tags(); len(tags) != 1 || tags[0] != "Recipes" {
		t.Errorf("legacy category Tags() = %v, want [Recipes]", tags)
	}
}

func TestDefaultDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

	if got := DefaultDataDir(); got != "/tmp/xdg-data/stash" {
		t.Errorf("DefaultDataDir() = %v, want /tmp/xdg-data/stash", got)
	}
	if got := DefaultDBPath(); got != "/tmp/xdg-data/stash/stash.db" {
		t.Errorf("DefaultDBPath() = %v, want /tmp/xdg-data/stash/stash.db", got)
	}
}
