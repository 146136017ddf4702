// ABOUTME: Tests for the tag vocabulary derived from saves
package sqlite

import (
	"context"
	"reflect"
	"testing"

	"github.com/harper/stash/internal/models"
)

func TestGetCategoriesRoundTrip(t *testing.T) {
	s, clock := newTestStorage(t)
	ctx := context.Background()

	onlyB := mustAddSave(t, s, clock, models.SaveInput{URL: "https://ab.com", Category: tagsPtr("a", "b")})
	_ = mustAddSave(t, s, clock, models.SaveInput{URL: "https://a.com", Category: tagsPtr("a")})

	categories, err := s.GetCategories(ctx)
	if err != nil {
		t.Fatalf("GetCategories() error = %v", err)
	}
	if !reflect.DeepEqual(categories, []string{"a", "b"}) {
		t.Errorf("GetCategories() = %v, want [a b]", categories)
	}

	if err := s.DeleteSave(ctx, onlyB); err != nil {
		t.Fatalf("DeleteSave() error = %v", err)
	}

	categories, err = s.GetCategories(ctx)
	if err != nil {
		t.Fatalf("GetCategories() error = %v", err)
	}
	if !reflect.DeepEqual(categories, []string{"a"}) {
		t.Errorf("GetCategories() after delete = %v, want [a]", categories)
	}
}

func TestGetCategoriesDegradesOnLegacyValues(t *testing.T) {
	s, clock := newTestStorage(t)

	_ = mustAddSave(t, s, clock, models.SaveInput{URL: "https://1.com", Category: models.StringPtr("Recipes")})
	_ = mustAddSave(t, s, clock, models.SaveInput{URL: "https://2.com", Category: models.StringPtr(`["broken"`)})
	_ = mustAddSave(t, s, clock, models.SaveInput{URL: "https://3.com", Category: models.StringPtr("[]")})
	_ = mustAddSave(t, s, clock, models.SaveInput{URL: "https://4.com", Category: models.StringPtr(`["Recipes","Baking"]`)})
	_ = mustAddSave(t, s, clock, models.SaveInput{URL: "https://5.com"})

	categories, err := s.GetCategories(context.Background())
	if err != nil {
		t.Fatalf("GetCategories() error = %v", err)
	}

	want := []string{"Baking", "Recipes", `["broken"`}
	if !reflect.DeepEqual(categories, want) {
		t.Errorf("GetCategories() = %v, want %v", categories, want)
	}
}

func TestGetCategoriesEmpty(t *testing.T) {
	s, _ := newTestStorage(t)

	categories, err := s.GetCategories(context.Background())
	if err != nil {
		t.Fatalf("GetCategories() error = %v", err)
	}
	if categories == nil || len(categories) != 0 {
		t.Errorf("GetCategories() = %#v, want empty non-nil slice", categories)
	}
}
