// ABOUTME: Tests for the pending-save reconciler
// ABOUTME: Covers collection name collisions, fault isolation, ordering, and the re-entry guard
package core

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/harper/stash/internal/appgroup"
	"github.com/harper/stash/internal/models"
	"github.com/harper/stash/internal/storage/sqlite"
)

func TestDrain_CollectionCollisionResolution(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	queue := &fakeQueue{entries: []models.PendingSave{
		{ID: "1", URL: "https://a.com", Title: "A", Platform: "web", NewCollectionName: "Ideas", Timestamp: 1},
		{ID: "2", URL: "https://b.com", Title: "B", Platform: "web", NewCollectionName: " ideas ", Timestamp: 2},
	}}

	result, err := NewReconciler(store, queue, nil).Drain(ctx)
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if result.Imported != 2 || result.CollectionsCreated != 1 {
		t.Errorf("Drain() = %+v, want 2 imported and 1 collection", result)
	}

	collections, _ := store.GetCollections(ctx)
	if len(collections) != 1 || collections[0].Name != "Ideas" || collections[0].Count != 2 {
		t.Errorf("GetCollections() = %+v, want one Ideas with 2 items", collections)
	}
}

func TestDrain_ReusesExistingCollection(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	existing, err := store.CreateCollection(ctx, "Reading")
	if err != nil {
		t.Fatalf("CreateCollection() error = %v", err)
	}

	queue := &fakeQueue{entries: []models.PendingSave{
		{ID: "1", URL: "https://a.com", Platform: "web", NewCollectionName: "READING"},
	}}
	result, err := NewReconciler(store, queue, nil).Drain(ctx)
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if result.CollectionsCreated != 0 {
		t.Errorf("CollectionsCreated = %d, want 0", result.CollectionsCreated)
	}

	items, _ := store.GetCollectionItems(ctx, existing)
	if len(items) != 1 || items[0].URL != "https://a.com" {
		t.Errorf("GetCollectionItems() = %+v", items)
	}
}

func TestDrain_FaultIsolation(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	addSave(t, store, models.SaveInput{URL: "https://dup.com", Title: "already here"})

	queue := &fakeQueue{entries: []models.PendingSave{
		{ID: "1", URL: "https://one.com", Title: "One", Platform: "web", Timestamp: 1},
		{ID: "2", URL: "https://dup.com", Title: "Dup", Platform: "web", Timestamp: 2},
		{ID: "3", URL: "https://three.com", Title: "Three", Platform: "web", Timestamp: 3},
	}}

	result, err := NewReconciler(store, queue, nil).Drain(ctx)
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if result.Imported != 2 || result.Failed != 1 {
		t.Errorf("Drain() = %+v, want 2 imported 1 failed", result)
	}
	if queue.len() != 0 {
		t.Errorf("queue has %d entries after drain, want 0", queue.len())
	}

	saves, _ := store.GetSaves(ctx, sqlite.SaveFilter{})
	urls := map[string]bool{}
	for _, s := range saves {
		urls[s.URL] = true
	}
	if !urls["https://one.com"] || !urls["https://three.com"] || len(saves) != 3 {
		t.Errorf("saves after drain = %v", urls)
	}
}

func TestDrain_TimestampOrder(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	queue := &fakeQueue{entries: []models.PendingSave{
		{ID: "late", URL: "https://late.com", Platform: "web", NewCollectionName: "Ideas", Timestamp: 20},
		{ID: "early", URL: "https://early.com", Platform: "web", NewCollectionName: "IDEAS", Timestamp: 10},
	}}

	if _, err := NewReconciler(store, queue, nil).Drain(ctx); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}

	collections, _ := store.GetCollections(ctx)
	if len(collections) != 1 || collections[0].Name != "IDEAS" {
		t.Errorf("GetCollections() = %+v, want the earliest entry's spelling", collections)
	}
}

func TestDrain_CollectionID(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	colID, _ := store.CreateCollection(ctx, "Inbox")

	queue := &fakeQueue{entries: []models.PendingSave{
		{ID: "1", URL: "https://a.com", Platform: "web", CollectionID: strconv.FormatInt(colID, 10)},
		{ID: "2", URL: "https://b.com", Platform: "web", CollectionID: "not-a-number"},
		{ID: "3", URL: "https://c.com", Platform: "web", CollectionID: "9999"},
	}}

	result, err := NewReconciler(store, queue, nil).Drain(ctx)
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if result.Imported != 3 {
		t.Errorf("Imported = %d, want 3 (bad collection ids must not block the save)", result.Imported)
	}

	items, _ := store.GetCollectionItems(ctx, colID)
	if len(items) != 1 || items[0].URL != "https://a.com" {
		t.Errorf("GetCollectionItems() = %+v", items)
	}
}

func TestDrain_PlatformFallback(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	queue := &fakeQueue{entries: []models.PendingSave{
		{ID: "1", URL: "https://youtu.be/xyz", Platform: ""},
		{ID: "2", URL: "https://example.com", Platform: "instagram"},
	}}

	if _, err := NewReconciler(store, queue, nil).Drain(ctx); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}

	saves, _ := store.GetSaves(ctx, sqlite.SaveFilter{})
	got := map[string]models.Platform{}
	for _, s := range saves {
		got[s.URL] = s.Platform
	}
	if got["https://youtu.be/xyz"] != models.PlatformYouTube {
		t.Errorf("detected platform = %s, want youtube", got["https://youtu.be/xyz"])
	}
	if got["https://example.com"] != models.PlatformInstagram {
		t.Errorf("explicit platform = %s, want instagram", got["https://example.com"])
	}
}

func TestDrain_ReentryGuard(t *testing.T) {
	store := newTestStorage(t)
	queue := &fakeQueue{
		entries: []models.PendingSave{{ID: "1", URL: "https://a.com", Platform: "web"}},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	r := NewReconciler(store, queue, nil)

	done := make(chan error, 1)
	go func() {
		_, err := r.Drain(context.Background())
		done <- err
	}()
	<-queue.entered

	if _, err := r.Drain(context.Background()); !errors.Is(err, ErrDrainInProgress) {
		t.Errorf("second Drain() error = %v, want ErrDrainInProgress", err)
	}

	close(queue.release)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("first Drain() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("first Drain() did not finish")
	}
	if queue.removed != 1 {
		t.Errorf("queue cleared %d times, want 1", queue.removed)
	}

	// The guard is released once the drain finishes
	queue.entered = nil
	if _, err := r.Drain(context.Background()); err != nil {
		t.Errorf("Drain() after completion error = %v", err)
	}
}

func TestDrain_UnreadableQueueIsKept(t *testing.T) {
	store := newTestStorage(t)
	queue := &fakeQueue{readErr: errFake}
	reloads := 0
	r := NewReconciler(store, queue, nil)
	r.OnReload(func() { reloads++ })

	if _, err := r.Drain(context.Background()); !errors.Is(err, errFake) {
		t.Errorf("Drain() error = %v, want wrapped read error", err)
	}
	if queue.removed != 0 || queue.cleared != 0 || reloads != 0 {
		t.Errorf("removed=%d cleared=%d reloads=%d, want none", queue.removed, queue.cleared, reloads)
	}
}

func TestDrain_MalformedQueueIsCleared(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	shared := appgroup.NewMemoryStore()
	group := appgroup.New("group.test", shared)
	if err := shared.Set(ctx, appgroup.KeyPendingShare, []byte(`{"not":"an array"}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	reloads := 0
	r := NewReconciler(store, group, nil)
	r.OnReload(func() { reloads++ })

	result, err := r.Drain(ctx)
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if result.Imported != 0 || result.Failed != 0 || reloads != 1 {
		t.Errorf("result=%+v reloads=%d, want empty result and one reload", result, reloads)
	}
	if pending, err := group.PendingSaves(ctx); err != nil || len(pending) != 0 {
		t.Fatalf("PendingSaves() = %v, %v, want empty queue", pending, err)
	}

	// the queue works again for both sides
	if _, err := group.AddPendingSave(ctx, models.PendingSave{URL: "https://a.com", Title: "A", Platform: "web"}); err != nil {
		t.Fatalf("AddPendingSave() error = %v", err)
	}
	result, err = r.Drain(ctx)
	if err != nil || result.Imported != 1 {
		t.Errorf("second Drain() = %+v, %v, want one import", result, err)
	}
}

func TestDrain_ReloadSignal(t *testing.T) {
	store := newTestStorage(t)
	queue := &fakeQueue{}
	reloads := 0
	r := NewReconciler(store, queue, nil)
	r.OnReload(func() { reloads++ })

	if _, err := r.Drain(context.Background()); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if reloads != 0 {
		t.Errorf("empty drain emitted %d reloads", reloads)
	}

	queue.entries = []models.PendingSave{{ID: "1", URL: "https://dup.com", Platform: "web"}}
	addSave(t, store, models.SaveInput{URL: "https://dup.com"})
	if _, err := r.Drain(context.Background()); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if reloads != 1 {
		t.Errorf("reloads = %d, want 1 even when every entry failed", reloads)
	}
}

func TestDrain_EnrichesImportedSaves(t *testing.T) {
	store := newTestStorage(t)
	embedder := &fakeEmbedder{vector: []float64{1}}
	enricher := NewEnricher(store, nil, embedder)
	queue := &fakeQueue{entries: []models.PendingSave{{ID: "1", URL: "https://a.com", Title: "A", Platform: "web"}}}

	if _, err := NewReconciler(store, queue, enricher).Drain(context.Background()); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	enricher.Wait()

	if embedder.calls() != 1 {
		t.Errorf("embedder calls = %d, want 1", embedder.calls())
	}
}

func TestDrain_SharedNamespace(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	group := appgroup.New("group.test", appgroup.NewMemoryStore())
	store.SetMirror(group)

	// the extension side enqueues through the same group
	if _, err := group.AddPendingSave(ctx, models.PendingSave{
		URL: "https://a.com", Title: "A", Platform: "web",
		Category: strPtr(`["news"]`), NewCollectionName: "Later",
	}); err != nil {
		t.Fatalf("AddPendingSave() error = %v", err)
	}

	result, err := NewReconciler(store, group, nil).Drain(ctx)
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if result.Imported != 1 {
		t.Errorf("Imported = %d", result.Imported)
	}

	pending, _ := group.PendingSaves(ctx)
	if len(pending) != 0 {
		t.Errorf("PendingSaves() = %+v, want empty", pending)
	}
	tags, _ := group.SyncedTags(ctx)
	if len(tags) != 1 || tags[0] != "news" {
		t.Errorf("SyncedTags() = %v, want [news]", tags)
	}
	collections, _ := group.SyncedCollections(ctx)
	if len(collections) != 1 || collections[0].Name != "Later" {
		t.Errorf("SyncedCollections() = %+v, want [Later]", collections)
	}
}
