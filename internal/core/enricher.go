// ABOUTME: Enricher fills in missing AI summaries and embeddings for saves
// ABOUTME: Runs detached from the save path; every failure is logged and swallowed
package core

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/stash/internal/models"
	"github.com/harper/stash/internal/storage/sqlite"
)

// DefaultEnrichTimeout bounds one detached enrichment job
const DefaultEnrichTimeout = 2 * time.Minute

// Summarizer produces a short bullet summary of a link
type Summarizer interface {
	GenerateSummary(ctx context.Context, title, url, description string) (string, error)
}

// Embedder turns text into a vector
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float64, error)
}

// Enricher is the AI enrichment pipeline. A nil *Enricher is valid and does
// nothing, which is how callers run with AI disabled.
type Enricher struct {
	store      *sqlite.Storage
	summarizer Summarizer
	embedder   Embedder
	timeout    time.Duration
	logger     *log.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewEnricher creates an enricher. Either collaborator may be nil, in which
// case that half of the pipeline is skipped.
func NewEnricher(store *sqlite.Storage, summarizer Summarizer, embedder Embedder) *Enricher {
	return &Enricher{
		store:      store,
		summarizer: summarizer,
		embedder:   embedder,
		timeout:    DefaultEnrichTimeout,
		logger:     log.WithPrefix("enricher"),
	}
}

// Embedder returns the configured embedder, or nil
func (e *Enricher) Embedder() Embedder {
	if e == nil {
		return nil
	}
	return e.embedder
}

// Enrich generates whatever of summary and embedding the save lacks and
// persists the result in a single update. It reports whether anything was
// written.
func (e *Enricher) Enrich(ctx context.Context, id int64) bool {
	if e == nil {
		return false
	}
	logger := e.logger.With("save", id)

	save, err := e.store.GetSaveByID(ctx, id)
	if err != nil {
		logger.Warn("enrichment skipped, load failed", "err", err)
		return false
	}
	if save == nil {
		logger.Debug("enrichment skipped, save not found")
		return false
	}

	needSummary := models.IsBlank(save.Summary)
	needEmbedding := models.IsBlank(save.Embedding)
	if !needSummary && !needEmbedding {
		return false
	}

	var update models.SaveUpdate
	summary := models.Deref(save.Summary)

	if needSummary && e.summarizer != nil {
		text, err := e.summarizer.GenerateSummary(ctx, save.Title, save.URL, models.Deref(save.Note))
		if err != nil {
			logger.Warn("summary generation failed", "err", err)
		} else if text = strings.TrimSpace(text); text != "" {
			summary = text
			update.Summary = &text
		}
	}

	if needEmbedding && e.embedder != nil {
		input := embeddingInput(save.Title, summary, save.Tags())
		vec, err := e.embedder.GenerateEmbedding(ctx, input)
		switch {
		case err != nil:
			logger.Warn("embedding generation failed", "err", err)
		case len(vec) > 0:
			encoded, err := models.EncodeEmbedding(vec)
			if err != nil {
				logger.Warn("embedding not encodable", "err", err)
				break
			}
			update.Embedding = &encoded
		}
	}

	if update.Empty() {
		return false
	}
	if err := e.store.UpdateSave(ctx, id, update); err != nil {
		logger.Warn("enrichment update failed", "err", err)
		return false
	}
	logger.Debug("save enriched", "summary", update.Summary != nil, "embedding", update.Embedding != nil)
	return true
}

// EnrichAsync runs Enrich on a detached goroutine with its own deadline.
// Use Wait to let in-flight jobs finish before exit. Jobs requested after
// Wait has been called are dropped.
func (e *Enricher) EnrichAsync(id int64) {
	if e == nil {
		return
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		e.logger.Debug("enrichment dropped, shutting down", "save", id)
		return
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		e.Enrich(ctx, id)
	}()
}

// Wait stops accepting new jobs and blocks until every job started by
// EnrichAsync has returned
func (e *Enricher) Wait() {
	if e == nil {
		return
	}
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.wg.Wait()
}

// embeddingInput joins title, summary, and tags, skipping empty parts
func embeddingInput(title, summary string, tags []string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{title, summary, strings.Join(tags, " ")} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
