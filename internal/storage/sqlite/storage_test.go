// ABOUTME: Tests for the Storage facade's mirror pushes
// ABOUTME: Verifies which mutations refresh tags or collections and that mirror failures stay silent
package sqlite

import (
	"context"
	"reflect"
	"strconv"
	"testing"

	"github.com/harper/stash/internal/models"
)

func TestStorageMirrorTagPushes(t *testing.T) {
	s, clock := newTestStorage(t)
	ctx := context.Background()
	mirror := &recordingMirror{}
	s.SetMirror(mirror)

	id := mustAddSave(t, s, clock, models.SaveInput{URL: "https://m.com", Category: tagsPtr("go")})
	if got := mirror.lastTags(); !reflect.DeepEqual(got, []string{"go"}) {
		t.Errorf("tags after AddSave = %v, want [go]", got)
	}

	_, tagPushes := mirror.pushes()
	if err := s.UpdateSave(ctx, id, models.SaveUpdate{Note: models.StringPtr("no tag change")}); err != nil {
		t.Fatalf("UpdateSave() error = %v", err)
	}
	if _, after := mirror.pushes(); after != tagPushes {
		t.Errorf("note-only update pushed tags (%d -> %d)", tagPushes, after)
	}

	if err := s.UpdateSave(ctx, id, models.SaveUpdate{Category: tagsPtr("go", "db")}); err != nil {
		t.Fatalf("UpdateSave() error = %v", err)
	}
	if got := mirror.lastTags(); !reflect.DeepEqual(got, []string{"db", "go"}) {
		t.Errorf("tags after category update = %v, want [db go]", got)
	}

	if err := s.DeleteSave(ctx, id); err != nil {
		t.Fatalf("DeleteSave() error = %v", err)
	}
	if got := mirror.lastTags(); len(got) != 0 {
		t.Errorf("tags after DeleteSave = %v, want empty", got)
	}
}

func TestStorageMirrorCollectionPushes(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()
	mirror := &recordingMirror{}
	s.SetMirror(mirror)

	id, err := s.CreateCollection(ctx, "Reading")
	if err != nil {
		t.Fatalf("CreateCollection() error = %v", err)
	}
	want := []models.SyncedCollection{{ID: strconv.FormatInt(id, 10), Name: "Reading"}}
	if got := mirror.lastCollections(); !reflect.DeepEqual(got, want) {
		t.Errorf("collections after create = %v, want %v", got, want)
	}

	if err := s.RenameCollection(ctx, id, "Later"); err != nil {
		t.Fatalf("RenameCollection() error = %v", err)
	}
	if got := mirror.lastCollections(); len(got) != 1 || got[0].Name != "Later" {
		t.Errorf("collections after rename = %v, want Later", got)
	}

	if err := s.DeleteCollection(ctx, id); err != nil {
		t.Fatalf("DeleteCollection() error = %v", err)
	}
	if got := mirror.lastCollections(); len(got) != 0 {
		t.Errorf("collections after delete = %v, want empty", got)
	}
}

func TestStorageMirrorFailureIsSilent(t *testing.T) {
	s, clock := newTestStorage(t)
	ctx := context.Background()
	s.SetMirror(&recordingMirror{fail: true})

	id := mustAddSave(t, s, clock, models.SaveInput{URL: "https://ok.com", Category: tagsPtr("x")})
	if _, err := s.CreateCollection(ctx, "Still works"); err != nil {
		t.Fatalf("CreateCollection() error = %v with failing mirror", err)
	}
	if err := s.DeleteSave(ctx, id); err != nil {
		t.Fatalf("DeleteSave() error = %v with failing mirror", err)
	}
}

func TestSyncMirror(t *testing.T) {
	s, clock := newTestStorage(t)
	ctx := context.Background()

	// Mutations before a mirror is attached push nothing
	_ = mustAddSave(t, s, clock, models.SaveInput{URL: "https://pre.com", Category: tagsPtr("early")})
	_, _ = s.CreateCollection(ctx, "Early")

	mirror := &recordingMirror{}
	s.SetMirror(mirror)
	s.SyncMirror(ctx)

	collections, tags := mirror.pushes()
	if collections != 1 || tags != 1 {
		t.Fatalf("SyncMirror() pushes = %d/%d, want 1/1", collections, tags)
	}
	if got := mirror.lastTags(); !reflect.DeepEqual(got, []string{"early"}) {
		t.Errorf("synced tags = %v, want [early]", got)
	}
	if got := mirror.lastCollections(); len(got) != 1 || got[0].Name != "Early" {
		t.Errorf("synced collections = %v, want [Early]", got)
	}
}
