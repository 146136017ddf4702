// ABOUTME: Collection and membership models
// ABOUTME: A collection groups saves; deleting it never deletes the saves
package models

import "time"

// Collection is a named grouping of saves
type Collection struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// CollectionSummary is a collection annotated with its live member count
type CollectionSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CollectionItem is a membership edge between a collection and a save
type CollectionItem struct {
	CollectionID int64     `json:"collectionId"`
	SaveID       int64     `json:"saveId"`
	AddedAt      time.Time `json:"addedAt"`
}
