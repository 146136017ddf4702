// ABOUTME: Case-insensitive collection name resolution shared by the add flow and the reconciler
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harper/stash/internal/storage/sqlite"
)

// collectionIndex maps lowercased collection names to ids so that
// "Reading" and "reading" resolve to the same collection within a batch.
type collectionIndex struct {
	store  *sqlite.Storage
	byName map[string]int64
}

func loadCollectionIndex(ctx context.Context, store *sqlite.Storage) (*collectionIndex, error) {
	idx := &collectionIndex{store: store}
	if err := idx.reload(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

func (c *collectionIndex) reload(ctx context.Context) error {
	list, err := c.store.GetCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to load collections: %w", err)
	}
	c.byName = make(map[string]int64, len(list))
	for _, col := range list {
		key := strings.ToLower(col.Name)
		// first by the NOCASE ordering wins
		if _, ok := c.byName[key]; !ok {
			c.byName[key] = col.ID
		}
	}
	return nil
}

// resolve returns the id of the collection called name, creating it when no
// case-insensitive match exists. created reports whether a row was inserted.
func (c *collectionIndex) resolve(ctx context.Context, name string) (id int64, created bool, err error) {
	name = strings.TrimSpace(name)
	key := strings.ToLower(name)
	if id, ok := c.byName[key]; ok {
		return id, false, nil
	}

	id, err = c.store.CreateCollection(ctx, name)
	if errors.Is(err, sqlite.ErrDuplicateCollection) {
		// another writer created it since the index was loaded
		if err := c.reload(ctx); err != nil {
			return 0, false, err
		}
		if id, ok := c.byName[key]; ok {
			return id, false, nil
		}
	}
	if err != nil {
		return 0, false, err
	}
	c.byName[key] = id
	return id, true, nil
}
