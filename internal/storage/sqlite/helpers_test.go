// ABOUTME: Shared fixtures for SQLite store tests
// ABOUTME: Provides an in-memory Storage with a controllable clock and a recording mirror
package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/harper/stash/internal/models"
)

type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time {
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

// newTestStorage returns an in-memory Storage whose stores read time from the clock
func newTestStorage(t *testing.T) (*Storage, *testClock) {
	t.Helper()
	s, err := NewStorageInMemory()
	if err != nil {
		t.Fatalf("NewStorageInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	clock := &testClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	s.saves.now = clock.now
	s.collections.now = clock.now
	return s, clock
}

// mustAddSave inserts a save and advances the clock so createdAt values differ
func mustAddSave(t *testing.T, s *Storage, clock *testClock, in models.SaveInput) int64 {
	t.Helper()
	if in.Platform == "" {
		in.Platform = models.PlatformWeb
	}
	if in.Title == "" {
		in.Title = in.URL
	}
	id, err := s.AddSave(context.Background(), in)
	if err != nil {
		t.Fatalf("AddSave(%q) error = %v", in.URL, err)
	}
	clock.advance(time.Second)
	return id
}

func tagsPtr(tags ...string) *string {
	s := models.EncodeTags(tags)
	return &s
}

func savedIDs(saves []models.Save) []int64 {
	ids := make([]int64, 0, len(saves))
	for _, s := range saves {
		ids = append(ids, s.ID)
	}
	return ids
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// recordingMirror captures every snapshot it receives
type recordingMirror struct {
	mu          sync.Mutex
	collections [][]models.SyncedCollection
	tags        [][]string
	fail        bool
}

func (m *recordingMirror) SyncCollections(_ context.Context, c []models.SyncedCollection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("mirror unavailable")
	}
	m.collections = append(m.collections, c)
	return nil
}

func (m *recordingMirror) SyncTags(_ context.Context, tags []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("mirror unavailable")
	}
	m.tags = append(m.tags, tags)
	return nil
}

func (m *recordingMirror) lastTags() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.tags) == 0 {
		return nil
	}
	return m.tags[len(m.tags)-1]
}

func (m *recordingMirror) lastCollections() []models.SyncedCollection {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.collections) == 0 {
		return nil
	}
	return m.collections[len(m.collections)-1]
}

func (m *recordingMirror) pushes() (collections, tags int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.collections), len(m.tags)
}
