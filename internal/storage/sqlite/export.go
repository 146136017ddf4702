// ABOUTME: Export of the whole library for backup and reading outside the app
// ABOUTME: Supports YAML, JSON, and Markdown; embeddings are left out
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/harper/stash/internal/models"
	"gopkg.in/yaml.v3"
)

// ExportVersion is the layout version written into every export
const ExportVersion = "1.0"

// ExportData represents the complete exportable data structure
type ExportData struct {
	Version     string             `yaml:"version" json:"version"`
	ExportedAt  string             `yaml:"exported_at" json:"exported_at"`
	Tool        string             `yaml:"tool" json:"tool"`
	Saves       []ExportSave       `yaml:"saves" json:"saves"`
	Collections []ExportCollection `yaml:"collections" json:"collections"`
	Tags        []string           `yaml:"tags" json:"tags"`
}

// ExportSave represents a save for export
type ExportSave struct {
	ID          int64    `yaml:"id" json:"id"`
	URL         string   `yaml:"url" json:"url"`
	Title       string   `yaml:"title" json:"title"`
	SiteName    string   `yaml:"site_name,omitempty" json:"site_name,omitempty"`
	Platform    string   `yaml:"platform" json:"platform"`
	Tags        []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Note        string   `yaml:"note,omitempty" json:"note,omitempty"`
	Summary     string   `yaml:"summary,omitempty" json:"summary,omitempty"`
	Collections []string `yaml:"collections,omitempty" json:"collections,omitempty"`
	CreatedAt   string   `yaml:"created_at" json:"created_at"`
	UpdatedAt   string   `yaml:"updated_at" json:"updated_at"`
}

// ExportCollection represents a collection and the ids of its member saves
type ExportCollection struct {
	ID    int64   `yaml:"id" json:"id"`
	Name  string  `yaml:"name" json:"name"`
	Items []int64 `yaml:"items" json:"items"`
}

// Export collects every save, collection, and tag, oldest save first
func (s *Storage) Export(ctx context.Context) (*ExportData, error) {
	data := &ExportData{
		Version:     ExportVersion,
		ExportedAt:  s.saves.now().Format(time.RFC3339),
		Tool:        "stash",
		Saves:       []ExportSave{},
		Collections: []ExportCollection{},
	}

	collections, err := s.GetCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	memberOf := make(map[int64][]string)
	for _, c := range collections {
		items, err := s.GetCollectionItems(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list items of collection %d: %w", c.ID, err)
		}
		exported := ExportCollection{ID: c.ID, Name: c.Name, Items: make([]int64, 0, len(items))}
		for _, item := range items {
			exported.Items = append(exported.Items, item.ID)
			memberOf[item.ID] = append(memberOf[item.ID], c.Name)
		}
		data.Collections = append(data.Collections, exported)
	}

	saves, err := s.GetSaves(ctx, SaveFilter{SortBy: SortOldest})
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	for _, save := range saves {
		data.Saves = append(data.Saves, ExportSave{
			ID:          save.ID,
			URL:         save.URL,
			Title:       save.Title,
			SiteName:    models.Deref(save.SiteName),
			Platform:    string(save.Platform),
			Tags:        save.Tags(),
			Note:        models.Deref(save.Note),
			Summary:     models.Deref(save.Summary),
			Collections: memberOf[save.ID],
			CreatedAt:   save.CreatedAt.Format(time.RFC3339),
			UpdatedAt:   save.UpdatedAt.Format(time.RFC3339),
		})
	}

	tags, err := s.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	data.Tags = tags
	if data.Tags == nil {
		data.Tags = []string{}
	}

	return data, nil
}

// ExportToYAML writes the export as YAML
func (s *Storage) ExportToYAML(ctx context.Context, w io.Writer) error {
	data, err := s.Export(ctx)
	if err != nil {
		return err
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// ExportToJSON writes the export as indented JSON
func (s *Storage) ExportToJSON(ctx context.Context, w io.Writer) error {
	data, err := s.Export(ctx)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// ExportToMarkdown writes the export as a readable Markdown document
func (s *Storage) ExportToMarkdown(ctx context.Context, w io.Writer) error {
	data, err := s.Export(ctx)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "# Stash Export\n\n")
	_, _ = fmt.Fprintf(w, "Generated: %s\n\n", data.ExportedAt)

	if len(data.Collections) > 0 {
		titles := make(map[int64]ExportSave, len(data.Saves))
		for _, save := range data.Saves {
			titles[save.ID] = save
		}

		_, _ = fmt.Fprintln(w, "## Collections")
		_, _ = fmt.Fprintln(w)
		for _, c := range data.Collections {
			_, _ = fmt.Fprintf(w, "### %s (%d)\n\n", c.Name, len(c.Items))
			for _, id := range c.Items {
				save := titles[id]
				_, _ = fmt.Fprintf(w, "- [%s](%s)\n", markdownText(save.Title), save.URL)
			}
			_, _ = fmt.Fprintln(w)
		}
	}

	if len(data.Saves) > 0 {
		_, _ = fmt.Fprintln(w, "## Saves")
		_, _ = fmt.Fprintln(w)
		for _, save := range data.Saves {
			_, _ = fmt.Fprintf(w, "### %s\n\n", markdownText(save.Title))
			_, _ = fmt.Fprintf(w, "- **URL:** %s\n", save.URL)
			_, _ = fmt.Fprintf(w, "- **Platform:** %s\n", save.Platform)
			if len(save.Tags) > 0 {
				_, _ = fmt.Fprintf(w, "- **Tags:** %s\n", strings.Join(save.Tags, ", "))
			}
			if len(save.Collections) > 0 {
				_, _ = fmt.Fprintf(w, "- **Collections:** %s\n", strings.Join(save.Collections, ", "))
			}
			_, _ = fmt.Fprintf(w, "- **Saved:** %s\n\n", save.CreatedAt)
			if save.Note != "" {
				_, _ = fmt.Fprintf(w, "> %s\n\n", strings.ReplaceAll(save.Note, "\n", "\n> "))
			}
			if save.Summary != "" {
				_, _ = fmt.Fprintf(w, "%s\n\n", save.Summary)
			}
		}
	}

	if len(data.Tags) > 0 {
		_, _ = fmt.Fprintln(w, "## Tags")
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintf(w, "%s\n", strings.Join(data.Tags, ", "))
	}

	return nil
}

// markdownText keeps a title on one line and out of link syntax
func markdownText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.NewReplacer("[", `\[`, "]", `\]`).Replace(s)
}
