// ABOUTME: Builds the query vector for semantic search
package core

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
)

// minSemanticQuery is the shortest search text worth embedding
const minSemanticQuery = 4

// QueryEmbedding embeds search when an embedder is configured and the
// trimmed text is longer than three characters. Any failure means no vector.
func QueryEmbedding(ctx context.Context, embedder Embedder, search string) []float64 {
	search = strings.TrimSpace(search)
	if embedder == nil || len([]rune(search)) < minSemanticQuery {
		return nil
	}
	vec, err := embedder.GenerateEmbedding(ctx, search)
	if err != nil {
		log.WithPrefix("search").Warn("query embedding failed, using keyword ranking", "err", err)
		return nil
	}
	return vec
}
