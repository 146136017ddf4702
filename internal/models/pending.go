// ABOUTME: Messages exchanged with the share extension through the shared namespace
// ABOUTME: Field names match the JSON the extension writes and reads
package models

import "strings"

// PendingSave is a save request authored by the share extension.
// At most one of CollectionID and NewCollectionName is expected to be set.
type PendingSave struct {
	ID                string  `json:"id,omitempty"`
	URL               string  `json:"url"`
	Title             string  `json:"title"`
	ImageURL          *string `json:"imageUrl,omitempty"`
	SiteName          *string `json:"siteName,omitempty"`
	Platform          string  `json:"platform"`
	Category          *string `json:"category,omitempty"`
	Note              *string `json:"note,omitempty"`
	CollectionID      string  `json:"collectionId,omitempty"`
	NewCollectionName string  `json:"newCollectionName,omitempty"`
	Timestamp         int64   `json:"timestamp"`
}

// NewCollection returns the trimmed ad-hoc collection name, if any
func (p PendingSave) NewCollection() string {
	return strings.TrimSpace(p.NewCollectionName)
}

// SyncedCollection is the read-only projection of a collection mirrored to the extension
type SyncedCollection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
