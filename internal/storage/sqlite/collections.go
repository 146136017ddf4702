// ABOUTME: Collection storage operations for SQLite
// ABOUTME: Implements named groupings of saves and their membership edges
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/harper/stash/internal/models"
)

// CollectionStore handles collection and membership persistence
type CollectionStore struct {
	db  *DB
	now func() time.Time
}

// NewCollectionStore creates a new CollectionStore
func NewCollectionStore(db *DB) *CollectionStore {
	return &CollectionStore{db: db, now: time.Now}
}

// Create inserts a collection and returns its id
func (s *CollectionStore) Create(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("collection name is required")
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO collections (name, createdAt) VALUES (?, ?)", name, formatTime(s.now()))
	if err != nil {
		if isUniqueViolation(err, "collections.name") {
			return 0, ErrDuplicateCollection
		}
		return 0, err
	}
	return res.LastInsertId()
}

// GetByID retrieves a collection, or nil when it does not exist
func (s *CollectionStore) GetByID(ctx context.Context, id int64) (*models.Collection, error) {
	var (
		c         models.Collection
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, createdAt FROM collections WHERE id = ?", id).Scan(&c.ID, &c.Name, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns every collection with its live member count, sorted by name
func (s *CollectionStore) List(ctx context.Context) ([]models.CollectionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, COUNT(ci.save_id)
		FROM collections c
		LEFT JOIN collection_items ci ON ci.collection_id = c.id
		GROUP BY c.id
		ORDER BY c.name COLLATE NOCASE ASC, c.id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	collections := []models.CollectionSummary{}
	for rows.Next() {
		var c models.CollectionSummary
		if err := rows.Scan(&c.ID, &c.Name, &c.Count); err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	return collections, rows.Err()
}

// AddItem adds a save to a collection. Adding an existing membership is a no-op.
func (s *CollectionStore) AddItem(ctx context.Context, collectionID, saveID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO collection_items (collection_id, save_id, addedAt)
		VALUES (?, ?, ?)
	`, collectionID, saveID, formatTime(s.now()))
	return err
}

// RemoveItem removes a save from a collection
func (s *CollectionStore) RemoveItem(ctx context.Context, collectionID, saveID int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM collection_items WHERE collection_id = ? AND save_id = ?", collectionID, saveID)
	return err
}

// Items returns the saves in a collection, most recently added first
func (s *CollectionStore) Items(ctx context.Context, collectionID int64) ([]models.Save, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+saveColumns+`
		FROM saves s
		INNER JOIN collection_items ci ON ci.save_id = s.id
		WHERE ci.collection_id = ?
		ORDER BY ci.addedAt DESC, s.id DESC
	`, collectionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanSaves(rows)
}

// Delete removes a collection. Membership edges cascade; member saves survive.
func (s *CollectionStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM collections WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Rename changes a collection's name
func (s *CollectionStore) Rename(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("collection name is required")
	}

	res, err := s.db.ExecContext(ctx, "UPDATE collections SET name = ? WHERE id = ?", name, id)
	if err != nil {
		if isUniqueViolation(err, "collections.name") {
			return ErrDuplicateCollection
		}
		return err
	}
	return requireAffected(res)
}

// ForSave returns the collection a save belongs to, or nil. When the save
// has several memberships the earliest one wins.
func (s *CollectionStore) ForSave(ctx context.Context, saveID int64) (*models.Collection, error) {
	var (
		c         models.Collection
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT c.id, c.name, c.createdAt
		FROM collections c
		INNER JOIN collection_items ci ON ci.collection_id = c.id
		WHERE ci.save_id = ?
		ORDER BY ci.addedAt ASC, c.id ASC
		LIMIT 1
	`, saveID).Scan(&c.ID, &c.Name, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &c, nil
}
