// ABOUTME: SQLite database schema for saves, collections, and membership
// ABOUTME: Tables are created if absent; later columns are added by EnsureSchema
package sqlite

// SchemaVersion is recorded in PRAGMA user_version after setup
const SchemaVersion = 2

// savesTable is created before column migrations so they can inspect it
const savesTable = `
CREATE TABLE IF NOT EXISTS saves (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    url TEXT UNIQUE NOT NULL,
    title TEXT NOT NULL,
    imageUrl TEXT,
    siteName TEXT,
    platform TEXT NOT NULL,
    category TEXT,
    note TEXT,
    summary TEXT,
    embedding TEXT,
    createdAt TEXT NOT NULL,
    updatedAt TEXT NOT NULL
);
`

type columnMigration struct {
	table      string
	name       string
	definition string
}

// addedColumns lists columns introduced after the first release, in order
var addedColumns = []columnMigration{
	{table: "saves", name: "summary", definition: "TEXT"},
	{table: "saves", name: "embedding", definition: "TEXT"},
}

// Schema contains the indexes and collection tables
const Schema = `
CREATE INDEX IF NOT EXISTS idx_saves_createdAt ON saves (createdAt DESC);
CREATE INDEX IF NOT EXISTS idx_saves_platform ON saves (platform);
CREATE INDEX IF NOT EXISTS idx_saves_category ON saves (category);

CREATE TABLE IF NOT EXISTS collections (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL,
    createdAt TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS collection_items (
    collection_id INTEGER,
    save_id INTEGER,
    addedAt TEXT NOT NULL,
    PRIMARY KEY (collection_id, save_id),
    FOREIGN KEY (collection_id) REFERENCES collections(id) ON DELETE CASCADE,
    FOREIGN KEY (save_id) REFERENCES saves(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_collection_items_save ON collection_items (save_id);
`
