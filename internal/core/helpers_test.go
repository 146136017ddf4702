// ABOUTME: Shared fakes for core tests: AI collaborators, metadata fetcher, and pending queue
package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/harper/stash/internal/models"
	"github.com/harper/stash/internal/storage/sqlite"
)

func newTestStorage(t *testing.T) *sqlite.Storage {
	t.Helper()
	store, err := sqlite.NewStorageInMemory()
	if err != nil {
		t.Fatalf("NewStorageInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func addSave(t *testing.T, store *sqlite.Storage, in models.SaveInput) int64 {
	t.Helper()
	if in.Platform == "" {
		in.Platform = models.PlatformWeb
	}
	id, err := store.AddSave(context.Background(), in)
	if err != nil {
		t.Fatalf("AddSave(%s) error = %v", in.URL, err)
	}
	return id
}

func mustGet(t *testing.T, store *sqlite.Storage, id int64) *models.Save {
	t.Helper()
	save, err := store.GetSaveByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetSaveByID(%d) error = %v", id, err)
	}
	if save == nil {
		t.Fatalf("GetSaveByID(%d) = nil", id)
	}
	return save
}

func strPtr(s string) *string { return &s }

var errFake = errors.New("fake failure")

type fakeSummarizer struct {
	mu      sync.Mutex
	summary string
	err     error
	calls   int
}

func (f *fakeSummarizer) GenerateSummary(ctx context.Context, title, url, description string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.summary, f.err
}

type fakeEmbedder struct {
	mu     sync.Mutex
	vector []float64
	err    error
	inputs []string
}

func (f *fakeEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, text)
	return f.vector, f.err
}

func (f *fakeEmbedder) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

type fakeFetcher struct {
	md models.Metadata
}

func (f fakeFetcher) Fetch(ctx context.Context, rawURL string) models.Metadata {
	return f.md
}

type fakeTagger struct {
	tags []string
	err  error
}

func (f fakeTagger) SuggestTags(ctx context.Context, url, title, description string) ([]string, error) {
	return f.tags, f.err
}

// fakeQueue is an in-memory pending queue. When entered is set, PendingSaves
// signals on it and then waits for release.
type fakeQueue struct {
	mu      sync.Mutex
	entries []models.PendingSave
	readErr error
	removed int
	cleared int

	entered chan struct{}
	release chan struct{}
}

func (q *fakeQueue) PendingSaves(ctx context.Context) ([]models.PendingSave, error) {
	if q.entered != nil {
		q.entered <- struct{}{}
		<-q.release
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.readErr != nil {
		return nil, q.readErr
	}
	out := make([]models.PendingSave, len(q.entries))
	copy(out, q.entries)
	return out, nil
}

func (q *fakeQueue) RemovePendingSaves(ctx context.Context, drained []models.PendingSave) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.removed++
	done := make(map[string]bool, len(drained))
	for _, d := range drained {
		done[d.ID] = true
	}
	kept := q.entries[:0]
	for _, e := range q.entries {
		if !done[e.ID] {
			kept = append(kept, e)
		}
	}
	q.entries = kept
	return nil
}

func (q *fakeQueue) ClearPendingSaves(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cleared++
	q.entries = nil
	return nil
}

func (q *fakeQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
