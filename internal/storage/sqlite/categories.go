// ABOUTME: Category index derived from the tag arrays stored on saves
package sqlite

import (
	"context"
	"database/sql"
	"sort"

	"github.com/harper/stash/internal/models"
)

// Categories returns the distinct tags across all saves, sorted
func (s *SaveStore) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT category FROM saves WHERE category IS NOT NULL")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	seen := make(map[string]bool)
	for rows.Next() {
		var raw sql.NullString
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		for _, tag := range models.ParseTags(stringPtr(raw)) {
			if tag != "" {
				seen[tag] = true
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}
