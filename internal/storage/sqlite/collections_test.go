// ABOUTME: Tests for collection storage and membership edges
// ABOUTME: Verifies counts, idempotent membership, and cascade behaviour
package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harper/stash/internal/models"
)

func TestCreateCollectionDuplicate(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	if _, err := s.CreateCollection(ctx, "Reading"); err != nil {
		t.Fatalf("CreateCollection() error = %v", err)
	}
	_, err := s.CreateCollection(ctx, "Reading")
	if !errors.Is(err, ErrDuplicateCollection) {
		t.Errorf("duplicate CreateCollection() error = %v, want ErrDuplicateCollection", err)
	}

	if _, err := s.CreateCollection(ctx, "   "); err == nil {
		t.Error("CreateCollection() with blank name should fail")
	}
}

func TestGetCollectionsCountsAndOrder(t *testing.T) {
	s, clock := newTestStorage(t)
	ctx := context.Background()

	zeta, _ := s.CreateCollection(ctx, "zeta")
	alpha, _ := s.CreateCollection(ctx, "Alpha")
	_, _ = s.CreateCollection(ctx, "middle")

	a := mustAddSave(t, s, clock, models.SaveInput{URL: "https://a.com"})
	b := mustAddSave(t, s, clock, models.SaveInput{URL: "https://b.com"})

	for _, pair := range [][2]int64{{alpha, a}, {alpha, b}, {zeta, a}} {
		if err := s.AddToCollection(ctx, pair[0], pair[1]); err != nil {
			t.Fatalf("AddToCollection(%d, %d) error = %v", pair[0], pair[1], err)
		}
	}

	collections, err := s.GetCollections(ctx)
	if err != nil {
		t.Fatalf("GetCollections() error = %v", err)
	}

	want := []struct {
		name  string
		count int
	}{
		{"Alpha", 2},
		{"middle", 0},
		{"zeta", 1},
	}
	if len(collections) != len(want) {
		t.Fatalf("GetCollections() returned %d, want %d", len(collections), len(want))
	}
	for i, w := range want {
		if collections[i].Name != w.name || collections[i].Count != w.count {
			t.Errorf("collections[%d] = %s/%d, want %s/%d", i, collections[i].Name, collections[i].Count, w.name, w.count)
		}
	}
}

func TestAddToCollectionIdempotent(t *testing.T) {
	s, clock := newTestStorage(t)
	ctx := context.Background()

	cid, _ := s.CreateCollection(ctx, "Later")
	sid := mustAddSave(t, s, clock, models.SaveInput{URL: "https://twice.com"})

	for i := 0; i < 2; i++ {
		if err := s.AddToCollection(ctx, cid, sid); err != nil {
			t.Fatalf("AddToCollection() call %d error = %v", i+1, err)
		}
	}

	var rows int
	err := s.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM collection_items WHERE collection_id = ? AND save_id = ?", cid, sid).Scan(&rows)
	if err != nil {
		t.Fatalf("count query error = %v", err)
	}
	if rows != 1 {
		t.Errorf("membership rows = %d, want 1", rows)
	}
}

func TestAddToCollectionUnknownIDs(t *testing.T) {
	s, _ := newTestStorage(t)

	if err := s.AddToCollection(context.Background(), 7, 8); err == nil {
		t.Error("AddToCollection() with unknown ids should fail the foreign key check")
	}
}

func TestDeleteCollectionKeepsSaves(t *testing.T) {
	s, clock := newTestStorage(t)
	ctx := context.Background()

	cid, _ := s.CreateCollection(ctx, "Temp")
	sid := mustAddSave(t, s, clock, models.SaveInput{URL: "https://survivor.com"})
	_ = s.AddToCollection(ctx, cid, sid)

	if err := s.DeleteCollection(ctx, cid); err != nil {
		t.Fatalf("DeleteCollection() error = %v", err)
	}

	save, err := s.GetSaveByID(ctx, sid)
	if err != nil {
		t.Fatalf("GetSaveByID() error = %v", err)
	}
	if save == nil {
		t.Fatal("member save was deleted with its collection")
	}

	c, err := s.GetCollectionForSave(ctx, sid)
	if err != nil {
		t.Fatalf("GetCollectionForSave() error = %v", err)
	}
	if c != nil {
		t.Errorf("GetCollectionForSave() = %+v, want nil after collection delete", c)
	}

	if err := s.DeleteCollection(ctx, cid); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteCollection() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteSaveRemovesMembership(t *testing.T) {
	s, clock := newTestStorage(t)
	ctx := context.Background()

	cid, _ := s.CreateCollection(ctx, "Box")
	keep := mustAddSave(t, s, clock, models.SaveInput{URL: "https://keep.com"})
	gone := mustAddSave(t, s, clock, models.SaveInput{URL: "https://gone.com"})
	_ = s.AddToCollection(ctx, cid, keep)
	_ = s.AddToCollection(ctx, cid, gone)

	if err := s.DeleteSave(ctx, gone); err != nil {
		t.Fatalf("DeleteSave() error = %v", err)
	}

	items, err := s.GetCollectionItems(ctx, cid)
	if err != nil {
		t.Fatalf("GetCollectionItems() error = %v", err)
	}
	if got := savedIDs(items); !equalIDs(got, []int64{keep}) {
		t.Errorf("GetCollectionItems() = %v, want [%d]", got, keep)
	}
}

func TestGetCollectionItemsOrder(t *testing.T) {
	s, clock := newTestStorage(t)
	ctx := context.Background()

	cid, _ := s.CreateCollection(ctx, "Ordered")
	first := mustAddSave(t, s, clock, models.SaveInput{URL: "https://1.com"})
	second := mustAddSave(t, s, clock, models.SaveInput{URL: "https://2.com"})

	// second is added to the collection before first
	_ = s.AddToCollection(ctx, cid, second)
	clock.advance(time.Second)
	_ = s.AddToCollection(ctx, cid, first)

	items, err := s.GetCollectionItems(ctx, cid)
	if err != nil {
		t.Fatalf("GetCollectionItems() error = %v", err)
	}
	if got := savedIDs(items); !equalIDs(got, []int64{first, second}) {
		t.Errorf("GetCollectionItems() = %v, want most recently added first", got)
	}
}

func TestRenameCollection(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	a, _ := s.CreateCollection(ctx, "A")
	_, _ = s.CreateCollection(ctx, "B")

	if err := s.RenameCollection(ctx, a, "Renamed"); err != nil {
		t.Fatalf("RenameCollection() error = %v", err)
	}
	c, _ := s.GetCollection(ctx, a)
	if c == nil || c.Name != "Renamed" {
		t.Errorf("GetCollection() = %+v, want name Renamed", c)
	}

	if err := s.RenameCollection(ctx, a, "B"); !errors.Is(err, ErrDuplicateCollection) {
		t.Errorf("RenameCollection() to taken name error = %v, want ErrDuplicateCollection", err)
	}
	if err := s.RenameCollection(ctx, 999, "C"); !errors.Is(err, ErrNotFound) {
		t.Errorf("RenameCollection() missing id error = %v, want ErrNotFound", err)
	}
}

func TestGetCollectionForSave(t *testing.T) {
	s, clock := newTestStorage(t)
	ctx := context.Background()

	cid, _ := s.CreateCollection(ctx, "Home")
	in := mustAddSave(t, s, clock, models.SaveInput{URL: "https://in.com"})
	out := mustAddSave(t, s, clock, models.SaveInput{URL: "https://out.com"})
	_ = s.AddToCollection(ctx, cid, in)

	c, err := s.GetCollectionForSave(ctx, in)
	if err != nil {
		t.Fatalf("GetCollectionForSave() error = %v", err)
	}
	if c == nil || c.ID != cid || c.Name != "Home" {
		t.Errorf("GetCollectionForSave() = %+v, want Home", c)
	}

	c, err = s.GetCollectionForSave(ctx, out)
	if err != nil {
		t.Fatalf("GetCollectionForSave() error = %v", err)
	}
	if c != nil {
		t.Errorf("GetCollectionForSave() = %+v, want nil", c)
	}

	if err := s.RemoveFromCollection(ctx, cid, in); err != nil {
		t.Fatalf("RemoveFromCollection() error = %v", err)
	}
	if c, _ := s.GetCollectionForSave(ctx, in); c != nil {
		t.Errorf("GetCollectionForSave() after remove = %+v, want nil", c)
	}
}
