// ABOUTME: Unified Storage layer that wraps the save and collection stores
// ABOUTME: Pushes tag and collection snapshots to the shared mirror after mutations
package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/harper/stash/internal/models"
)

// Mirror receives full-replace snapshots of the tag vocabulary and the
// collection list for readers in other processes.
type Mirror interface {
	SyncCollections(ctx context.Context, collections []models.SyncedCollection) error
	SyncTags(ctx context.Context, tags []string) error
}

// Storage manages all persistent data for stash using SQLite
type Storage struct {
	db          *DB
	saves       *SaveStore
	collections *CollectionStore
	mirror      Mirror
	// serializes snapshot-then-push so an older snapshot never lands last
	mirrorMu sync.Mutex
	logger   *log.Logger
}

// NewStorage initializes storage at the default database path
func NewStorage(ctx context.Context) (*Storage, error) {
	return NewStorageWithPath(ctx, DefaultDBPath())
}

// NewStorageWithPath initializes storage with a custom database path
func NewStorageWithPath(ctx context.Context, dbPath string) (*Storage, error) {
	db, err := Open(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newStorage(db), nil
}

// NewStorageInMemory creates an in-memory storage (for testing)
func NewStorageInMemory() (*Storage, error) {
	db, err := OpenInMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	return newStorage(db), nil
}

func newStorage(db *DB) *Storage {
	return &Storage{
		db:          db,
		saves:       NewSaveStore(db),
		collections: NewCollectionStore(db),
		logger:      log.WithPrefix("storage"),
	}
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying database
func (s *Storage) DB() *DB {
	return s.db
}

// SetMirror sets the snapshot receiver. A nil mirror disables pushes.
func (s *Storage) SetMirror(m Mirror) {
	s.mirrorMu.Lock()
	defer s.mirrorMu.Unlock()
	s.mirror = m
}

// SetLogger replaces the component logger
func (s *Storage) SetLogger(l *log.Logger) {
	s.logger = l
}

// AddSave inserts a save. ErrDuplicateURL is returned when the url exists.
func (s *Storage) AddSave(ctx context.Context, in models.SaveInput) (int64, error) {
	id, err := s.saves.Add(ctx, in)
	if err != nil {
		return 0, err
	}
	s.syncTags(ctx)
	return id, nil
}

// GetSaves runs the filter and ranking pipeline
func (s *Storage) GetSaves(ctx context.Context, f SaveFilter) ([]models.Save, error) {
	return s.saves.List(ctx, f)
}

// GetSaveByID retrieves a save, or nil when it does not exist
func (s *Storage) GetSaveByID(ctx context.Context, id int64) (*models.Save, error) {
	return s.saves.GetByID(ctx, id)
}

// UpdateSave applies a sparse update
func (s *Storage) UpdateSave(ctx context.Context, id int64, u models.SaveUpdate) error {
	if err := s.saves.Update(ctx, id, u); err != nil {
		return err
	}
	if u.Category != nil {
		s.syncTags(ctx)
	}
	return nil
}

// DeleteSave removes a save and its collection memberships
func (s *Storage) DeleteSave(ctx context.Context, id int64) error {
	if err := s.saves.Delete(ctx, id); err != nil {
		return err
	}
	s.syncTags(ctx)
	return nil
}

// CountSaves returns the number of stored saves
func (s *Storage) CountSaves(ctx context.Context) (int, error) {
	return s.saves.Count(ctx)
}

// GetCategories returns the sorted tag vocabulary
func (s *Storage) GetCategories(ctx context.Context) ([]string, error) {
	return s.saves.Categories(ctx)
}

// CreateCollection creates a collection and returns its id
func (s *Storage) CreateCollection(ctx context.Context, name string) (int64, error) {
	id, err := s.collections.Create(ctx, name)
	if err != nil {
		return 0, err
	}
	s.syncCollections(ctx)
	return id, nil
}

// GetCollections lists collections with member counts
func (s *Storage) GetCollections(ctx context.Context) ([]models.CollectionSummary, error) {
	return s.collections.List(ctx)
}

// GetCollection retrieves a collection, or nil when it does not exist
func (s *Storage) GetCollection(ctx context.Context, id int64) (*models.Collection, error) {
	return s.collections.GetByID(ctx, id)
}

// AddToCollection adds a membership; repeating it is a no-op
func (s *Storage) AddToCollection(ctx context.Context, collectionID, saveID int64) error {
	return s.collections.AddItem(ctx, collectionID, saveID)
}

// RemoveFromCollection removes a membership
func (s *Storage) RemoveFromCollection(ctx context.Context, collectionID, saveID int64) error {
	return s.collections.RemoveItem(ctx, collectionID, saveID)
}

// GetCollectionItems lists a collection's saves, newest membership first
func (s *Storage) GetCollectionItems(ctx context.Context, collectionID int64) ([]models.Save, error) {
	return s.collections.Items(ctx, collectionID)
}

// DeleteCollection removes a collection; its saves survive
func (s *Storage) DeleteCollection(ctx context.Context, id int64) error {
	if err := s.collections.Delete(ctx, id); err != nil {
		return err
	}
	s.syncCollections(ctx)
	return nil
}

// RenameCollection renames a collection
func (s *Storage) RenameCollection(ctx context.Context, id int64, name string) error {
	if err := s.collections.Rename(ctx, id, name); err != nil {
		return err
	}
	s.syncCollections(ctx)
	return nil
}

// GetCollectionForSave returns the collection holding a save, or nil
func (s *Storage) GetCollectionForSave(ctx context.Context, saveID int64) (*models.Collection, error) {
	return s.collections.ForSave(ctx, saveID)
}

// SyncMirror pushes both snapshots
func (s *Storage) SyncMirror(ctx context.Context) {
	s.syncCollections(ctx)
	s.syncTags(ctx)
}

// syncTags pushes the tag vocabulary. Failures are logged, never returned.
func (s *Storage) syncTags(ctx context.Context) {
	s.mirrorMu.Lock()
	defer s.mirrorMu.Unlock()
	if s.mirror == nil {
		return
	}

	tags, err := s.saves.Categories(ctx)
	if err != nil {
		s.logger.Warn("failed to read tags for mirror", "err", err)
		return
	}
	if err := s.mirror.SyncTags(ctx, tags); err != nil {
		s.logger.Warn("failed to sync tags", "err", err)
	}
}

// syncCollections pushes the collection list. Failures are logged, never returned.
func (s *Storage) syncCollections(ctx context.Context) {
	s.mirrorMu.Lock()
	defer s.mirrorMu.Unlock()
	if s.mirror == nil {
		return
	}

	collections, err := s.collections.List(ctx)
	if err != nil {
		s.logger.Warn("failed to read collections for mirror", "err", err)
		return
	}

	synced := make([]models.SyncedCollection, 0, len(collections))
	for _, c := range collections {
		synced = append(synced, models.SyncedCollection{
			ID:   strconv.FormatInt(c.ID, 10),
			Name: c.Name,
		})
	}
	if err := s.mirror.SyncCollections(ctx, synced); err != nil {
		s.logger.Warn("failed to sync collections", "err", err)
	}
}
