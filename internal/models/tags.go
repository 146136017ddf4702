// ABOUTME: Tag column codec: tags are stored as a JSON-encoded array of strings
// ABOUTME: Legacy rows hold a plain string, which decodes as a single tag
package models

import (
	"encoding/json"
	"strings"
)

// ParseTags decodes a category column value.
// NULL and empty strings yield no tags. A JSON array yields one tag per
// element: strings as-is, null skipped, other values as their JSON text.
// Anything else (invalid JSON, a JSON scalar) is treated as one tag equal
// to the raw value.
func ParseTags(raw *string) []string {
	if raw == nil || *raw == "" {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(*raw), &items); err != nil || items == nil {
		return []string{*raw}
	}

	tags := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		switch {
		case string(item) == "null":
		case json.Unmarshal(item, &s) == nil:
			tags = append(tags, s)
		default:
			tags = append(tags, string(item))
		}
	}
	return tags
}

// EncodeTags encodes tags for the category column. Tags are trimmed, blanks
// dropped, and duplicates removed while keeping first-seen order.
func EncodeTags(tags []string) string {
	clean := NormalizeTags(tags)
	data, _ := json.Marshal(clean)
	return string(data)
}

// NormalizeTags trims, drops blanks, and removes duplicates in order
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	clean := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		clean = append(clean, tag)
	}
	return clean
}

// SplitTags splits a comma-separated tag list as typed on the command line
func SplitTags(s string) []string {
	return NormalizeTags(strings.Split(s, ","))
}
