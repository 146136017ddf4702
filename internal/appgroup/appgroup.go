// ABOUTME: Shared app-group namespace exchanged with the share extension
// ABOUTME: Holds the pending-save queue and the mirrored collection and tag snapshots
package appgroup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/harper/stash/internal/models"
)

// Fixed keys inside the namespace
const (
	KeyPendingShare      = "pending_share"
	KeySyncedCollections = "synced_collections"
	KeySyncedTags        = "synced_tags"
)

// ErrMalformed is returned when a key holds data that is not the expected JSON
var ErrMalformed = errors.New("malformed shared data")

// Group is one shared namespace. The main process writes the synced
// snapshots and drains the queue; the extension appends to the queue and
// reads the snapshots.
type Group struct {
	id    string
	store Store
	now   func() time.Time
}

// New creates a Group over store
func New(id string, store Store) *Group {
	return &Group{id: id, store: store, now: time.Now}
}

// ID returns the namespace identifier
func (g *Group) ID() string {
	return g.id
}

// Close closes the underlying store
func (g *Group) Close() error {
	return g.store.Close()
}

// SyncCollections replaces the mirrored collection list
func (g *Group) SyncCollections(ctx context.Context, collections []models.SyncedCollection) error {
	if collections == nil {
		collections = []models.SyncedCollection{}
	}
	return g.setJSON(ctx, KeySyncedCollections, collections)
}

// SyncTags replaces the mirrored tag vocabulary
func (g *Group) SyncTags(ctx context.Context, tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	return g.setJSON(ctx, KeySyncedTags, tags)
}

// SyncedCollections returns the mirrored collection list, empty when never synced
func (g *Group) SyncedCollections(ctx context.Context) ([]models.SyncedCollection, error) {
	collections := []models.SyncedCollection{}
	if err := g.getJSON(ctx, KeySyncedCollections, &collections); err != nil {
		return nil, err
	}
	if collections == nil {
		collections = []models.SyncedCollection{}
	}
	return collections, nil
}

// SyncedTags returns the mirrored tag vocabulary, empty when never synced
func (g *Group) SyncedTags(ctx context.Context) ([]string, error) {
	tags := []string{}
	if err := g.getJSON(ctx, KeySyncedTags, &tags); err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

// AddPendingSave appends a save request to the queue and returns it with
// its id and timestamp filled in. A queue holding malformed data is
// replaced by a new one.
func (g *Group) AddPendingSave(ctx context.Context, p models.PendingSave) (models.PendingSave, error) {
	if p.URL == "" {
		return p, fmt.Errorf("pending save url is required")
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Timestamp == 0 {
		p.Timestamp = g.now().UnixMilli()
	}

	err := g.store.Update(ctx, KeyPendingShare, func(old []byte) ([]byte, error) {
		queue, err := decodeQueue(old)
		if err != nil {
			log.WithPrefix("appgroup").Warn("replacing malformed pending queue", "group", g.id, "err", err)
			queue = nil
		}
		return json.Marshal(append(queue, p))
	})
	if err != nil {
		return p, err
	}
	return p, nil
}

// PendingSaves returns the queued save requests in stored order
func (g *Group) PendingSaves(ctx context.Context) ([]models.PendingSave, error) {
	data, err := g.store.Get(ctx, KeyPendingShare)
	if err != nil {
		return nil, err
	}
	return decodeQueue(data)
}

// RemovePendingSaves removes the given entries from the queue. Entries
// appended after they were read are kept.
func (g *Group) RemovePendingSaves(ctx context.Context, drained []models.PendingSave) error {
	if len(drained) == 0 {
		return nil
	}
	done := make(map[string]bool, len(drained))
	for _, p := range drained {
		done[queueKey(p)] = true
	}

	return g.store.Update(ctx, KeyPendingShare, func(old []byte) ([]byte, error) {
		queue, err := decodeQueue(old)
		if err != nil {
			// Unreadable queue: drop it rather than keep failing
			return nil, nil
		}
		kept := queue[:0]
		for _, p := range queue {
			if !done[queueKey(p)] {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			return nil, nil
		}
		return json.Marshal(kept)
	})
}

// ClearPendingSaves removes the whole queue
func (g *Group) ClearPendingSaves(ctx context.Context) error {
	return g.store.Delete(ctx, KeyPendingShare)
}

// queueKey identifies a queue entry; entries written without an id fall
// back to url and timestamp
func queueKey(p models.PendingSave) string {
	if p.ID != "" {
		return "id:" + p.ID
	}
	return fmt.Sprintf("url:%s@%d", p.URL, p.Timestamp)
}

func decodeQueue(data []byte) ([]models.PendingSave, error) {
	if len(data) == 0 {
		return []models.PendingSave{}, nil
	}
	var queue []models.PendingSave
	if err := json.Unmarshal(data, &queue); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, KeyPendingShare, err)
	}
	if queue == nil {
		queue = []models.PendingSave{}
	}
	return queue, nil
}

func (g *Group) setJSON(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return g.store.Set(ctx, key, data)
}

func (g *Group) getJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := g.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
	}
	return nil
}
