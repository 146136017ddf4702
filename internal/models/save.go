// ABOUTME: Save represents a stored link with scraped metadata, tags, and AI-derived fields
// ABOUTME: Optional columns are pointers so NULL survives the round trip through SQLite and JSON
package models

import (
	"strings"
	"time"
)

// Platform identifies the source a link was saved from
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformWeb       Platform = "web"
)

// AllFilter is the sentinel value meaning "no filter" for platform and tag options
const AllFilter = "all"

// Valid reports whether p is one of the known platforms
func (p Platform) Valid() bool {
	switch p {
	case PlatformYouTube, PlatformTikTok, PlatformInstagram, PlatformWeb:
		return true
	}
	return false
}

// Save is a saved link
type Save struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	ImageURL  *string   `json:"imageUrl"`
	SiteName  *string   `json:"siteName"`
	Platform  Platform  `json:"platform"`
	Category  *string   `json:"category"`
	Note      *string   `json:"note"`
	Summary   *string   `json:"summary"`
	Embedding *string   `json:"embedding"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Tags returns the parsed tag list of the save's category column
func (s *Save) Tags() []string {
	return ParseTags(s.Category)
}

// HasTag reports whether the save carries tag
func (s *Save) HasTag(tag string) bool {
	for _, t := range s.Tags() {
		if t == tag {
			return true
		}
	}
	return false
}

// HasNote reports whether the save has a non-blank note
func (s *Save) HasNote() bool {
	return !IsBlank(s.Note)
}

// HasTags reports whether the category column holds at least one tag
func (s *Save) HasTags() bool {
	return len(s.Tags()) > 0
}

// Vector returns the decoded embedding, or nil when absent or malformed
func (s *Save) Vector() []float64 {
	return ParseEmbedding(s.Embedding)
}

// SaveInput carries the caller-provided fields of a new save.
// Timestamps are assigned by the store.
type SaveInput struct {
	URL       string   `json:"url"`
	Title     string   `json:"title"`
	ImageURL  *string  `json:"imageUrl,omitempty"`
	SiteName  *string  `json:"siteName,omitempty"`
	Platform  Platform `json:"platform"`
	Category  *string  `json:"category,omitempty"`
	Note      *string  `json:"note,omitempty"`
	Summary   *string  `json:"summary,omitempty"`
	Embedding *string  `json:"embedding,omitempty"`
}

// SaveUpdate is a sparse update; nil fields are left untouched
type SaveUpdate struct {
	Category  *string `json:"category,omitempty"`
	Note      *string `json:"note,omitempty"`
	Summary   *string `json:"summary,omitempty"`
	Embedding *string `json:"embedding,omitempty"`
}

// Empty reports whether the update touches no field
func (u SaveUpdate) Empty() bool {
	return u.Category == nil && u.Note == nil && u.Summary == nil && u.Embedding == nil
}

// StringPtr returns a pointer to s, or nil when s is empty
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or ""
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// IsBlank reports whether s is nil or only whitespace
func IsBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// SaveView is a save as shown to API and agent clients: tags decoded,
// embedding omitted, collection filled in by the caller when known
type SaveView struct {
	ID         int64     `json:"id"`
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Platform   Platform  `json:"platform"`
	SiteName   *string   `json:"siteName,omitempty"`
	ImageURL   *string   `json:"imageUrl,omitempty"`
	Tags       []string  `json:"tags"`
	Note       *string   `json:"note,omitempty"`
	Summary    *string   `json:"summary,omitempty"`
	Collection *string   `json:"collection,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// View returns the client-facing projection of s
func (s *Save) View() SaveView {
	tags := s.Tags()
	if tags == nil {
		tags = []string{}
	}
	return SaveView{
		ID:        s.ID,
		URL:       s.URL,
		Title:     s.Title,
		Platform:  s.Platform,
		SiteName:  s.SiteName,
		ImageURL:  s.ImageURL,
		Tags:      tags,
		Note:      s.Note,
		Summary:   s.Summary,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// Views projects a slice of saves
func Views(saves []Save) []SaveView {
	out := make([]SaveView, 0, len(saves))
	for i := range saves {
		out = append(out, saves[i].View())
	}
	return out
}
