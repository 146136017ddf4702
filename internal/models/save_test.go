package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSaveView(t *testing.T) {
	note := "  "
	category := `["go","db"]`
	embedding := "[1,2,3]"
	s := &Save{
		ID: 7, URL: "https://a.com", Title: "A", Platform: PlatformWeb,
		Category: &category, Note: &note, Embedding: &embedding,
	}

	v := s.View()
	if v.ID != 7 || strings.Join(v.Tags, ",") != "go,db" {
		t.Errorf("View() = %+v", v)
	}

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "embedding") {
		t.Errorf("view should not expose the embedding: %s", data)
	}
	if strings.Contains(string(data), `"collection"`) {
		t.Errorf("nil collection should be omitted: %s", data)
	}
}

func TestSaveViewEmptyTags(t *testing.T) {
	s := &Save{URL: "https://a.com", Title: "A", Platform: PlatformWeb}
	data, _ := json.Marshal(s.View())
	if !strings.Contains(string(data), `"tags":[]`) {
		t.Errorf("missing tags should encode as [], got %s", data)
	}
}

func TestSaveHelpers(t *testing.T) {
	blank := " "
	note := "hi"
	empty := "[]"
	tags := `["x"]`

	tests := []struct {
		name     string
		save     Save
		hasNote  bool
		hasTags  bool
		checkTag string
		hasTag   bool
	}{
		{"bare", Save{}, false, false, "x", false},
		{"blank note", Save{Note: &blank}, false, false, "x", false},
		{"note", Save{Note: &note}, true, false, "x", false},
		{"empty array", Save{Category: &empty}, false, false, "x", false},
		{"tagged", Save{Category: &tags}, false, true, "x", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.save.HasNote(); got != tt.hasNote {
				t.Errorf("HasNote() = %v, want %v", got, tt.hasNote)
			}
			if got := tt.save.HasTags(); got != tt.hasTags {
				t.Errorf("HasTags() = %v, want %v", got, tt.hasTags)
			}
			if got := tt.save.HasTag(tt.checkTag); got != tt.hasTag {
				t.Errorf("HasTag(%q) = %v, want %v", tt.checkTag, got, tt.hasTag)
			}
		})
	}

	if len(Views(nil)) != 0 || Views(nil) == nil {
		t.Error("Views(nil) should be an empty, non-nil slice")
	}
}
