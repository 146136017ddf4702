// ABOUTME: Save listing pipeline: structural SQL filter, keyword rank, semantic rank, tag filter
// ABOUTME: Each ranking stage fully overrides the ordering of the previous one when active
package sqlite

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/harper/stash/internal/models"
)

// SortOrder is the base chronological ordering of a listing
type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
)

// ParseSortOrder accepts "newest", "oldest", or "" (newest)
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortNewest:
		return SortNewest, nil
	case SortOldest:
		return SortOldest, nil
	}
	return "", fmt.Errorf("unknown sort order %q (want newest or oldest)", s)
}

// Keyword relevance weights
const (
	noteScore = 50.0
	tagsScore = 30.0
	// recencyDivisor keeps the timestamp boost below 1 for any millisecond
	// timestamp before the year 2286
	recencyDivisor = 1e13
)

// SaveFilter selects and orders saves. Zero values mean "no constraint".
type SaveFilter struct {
	Search          string
	Platform        string
	Category        string
	SortBy          SortOrder
	CollectionID    int64
	SearchEmbedding []float64
	Limit           int
}

// List runs the listing pipeline. The stages run in a fixed order:
// structural filter with chronological base order, keyword re-rank when
// Search is non-blank, semantic re-rank when SearchEmbedding is set, tag
// post-filter, then Limit.
func (s *SaveStore) List(ctx context.Context, f SaveFilter) ([]models.Save, error) {
	saves, err := s.query(ctx, f)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(f.Search) != "" {
		RankByKeyword(saves)
	}

	if len(f.SearchEmbedding) > 0 {
		RankBySimilarity(saves, f.SearchEmbedding)
	}

	if f.Category != "" && f.Category != models.AllFilter {
		saves = FilterByTag(saves, f.Category)
	}

	if f.Limit > 0 && len(saves) > f.Limit {
		saves = saves[:f.Limit]
	}

	return saves, nil
}

// query applies the store-level filters
func (s *SaveStore) query(ctx context.Context, f SaveFilter) ([]models.Save, error) {
	var (
		b     strings.Builder
		args  []interface{}
		where []string
	)

	b.WriteString("SELECT " + saveColumns + " FROM saves s")

	if f.CollectionID > 0 {
		b.WriteString(" INNER JOIN collection_items ci ON ci.save_id = s.id")
		where = append(where, "ci.collection_id = ?")
		args = append(args, f.CollectionID)
	}

	if f.Platform != "" && f.Platform != models.AllFilter {
		where = append(where, "s.platform = ?")
		args = append(args, f.Platform)
	}

	if f.Search != "" {
		pattern := "%" + escapeLike(f.Search) + "%"
		where = append(where, `(s.title LIKE ? ESCAPE '\' OR s.note LIKE ? ESCAPE '\' OR s.category LIKE ? ESCAPE '\' OR s.url LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern, pattern)
	}

	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}

	if f.SortBy == SortOldest {
		b.WriteString(" ORDER BY s.createdAt ASC, s.id ASC")
	} else {
		b.WriteString(" ORDER BY s.createdAt DESC, s.id DESC")
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanSaves(rows)
}

// escapeLike escapes LIKE wildcards so they match literally
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// KeywordScore scores a search hit: notes and tags dominate, creation time
// only breaks ties toward newer saves.
func KeywordScore(save *models.Save) float64 {
	score := float64(save.CreatedAt.UnixMilli()) / recencyDivisor
	if save.HasNote() {
		score += noteScore
	}
	if save.HasTags() {
		score += tagsScore
	}
	return score
}

// RankByKeyword stably sorts saves by KeywordScore, highest first
func RankByKeyword(saves []models.Save) {
	scores := make(map[int64]float64, len(saves))
	for i := range saves {
		scores[saves[i].ID] = KeywordScore(&saves[i])
	}
	sort.SliceStable(saves, func(i, j int) bool {
		return scores[saves[i].ID] > scores[saves[j].ID]
	})
}

// RankBySimilarity stably sorts saves by cosine similarity to query, highest
// first. Saves without a usable embedding score 0.
func RankBySimilarity(saves []models.Save, query []float64) {
	scores := make(map[int64]float64, len(saves))
	for i := range saves {
		scores[saves[i].ID] = CosineSimilarity(query, saves[i].Vector())
	}
	sort.SliceStable(saves, func(i, j int) bool {
		return scores[saves[i].ID] > scores[saves[j].ID]
	})
}

// FilterByTag keeps the saves carrying tag, preserving order
func FilterByTag(saves []models.Save, tag string) []models.Save {
	kept := make([]models.Save, 0, len(saves))
	for _, save := range saves {
		if save.HasTag(tag) {
			kept = append(kept, save)
		}
	}
	return kept
}
