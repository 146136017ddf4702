// ABOUTME: Metadata is the best-effort scrape result for a URL
package models

// Metadata describes a fetched page. Description is only used as AI context.
type Metadata struct {
	Title       string   `json:"title"`
	ImageURL    *string  `json:"imageUrl"`
	SiteName    *string  `json:"siteName"`
	Categories  []string `json:"categories"`
	Description string   `json:"description,omitempty"`
}
