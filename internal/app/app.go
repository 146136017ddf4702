// ABOUTME: Wires storage, the shared namespace, metadata, AI, and the core pipelines together
// ABOUTME: Every entry point (CLI, MCP server, HTTP API) opens one App and closes it on exit
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/harper/stash/internal/appgroup"
	"github.com/harper/stash/internal/config"
	"github.com/harper/stash/internal/core"
	"github.com/harper/stash/internal/llm"
	"github.com/harper/stash/internal/metadata"
	"github.com/harper/stash/internal/storage/sqlite"
	openai "github.com/sashabaranov/go-openai"
)

// App holds the long-lived components of one process
type App struct {
	Config     *config.Config
	Store      *sqlite.Storage
	Group      *appgroup.Group
	Fetcher    *metadata.Fetcher
	AI         *llm.OpenAIClient // nil when no API key is configured
	Enricher   *core.Enricher    // nil when AI is disabled
	Linker     *core.Linker
	Reconciler *core.Reconciler

	logger *log.Logger
}

// Open opens the database (running schema setup), the shared namespace, and
// the optional AI client, then pushes a fresh mirror snapshot.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := sqlite.NewStorageWithPath(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return openWith(ctx, cfg, store)
}

// OpenInMemory is Open over an in-memory database and a memory shared
// namespace
func OpenInMemory(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := sqlite.NewStorageInMemory()
	if err != nil {
		return nil, err
	}
	a := build(cfg, store, appgroup.New(cfg.AppGroupID, appgroup.NewMemoryStore()))
	store.SyncMirror(ctx)
	return a, nil
}

func openWith(ctx context.Context, cfg *config.Config, store *sqlite.Storage) (*App, error) {
	shared, err := appgroup.NewBadgerStore(cfg.SharedDir)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to open shared namespace: %w", err)
	}
	a := build(cfg, store, appgroup.New(cfg.AppGroupID, shared))
	store.SyncMirror(ctx)
	return a, nil
}

func build(cfg *config.Config, store *sqlite.Storage, group *appgroup.Group) *App {
	a := &App{
		Config:  cfg,
		Store:   store,
		Group:   group,
		Fetcher: metadata.New(metadata.Config{Timeout: cfg.MetadataTimeout}),
		logger:  log.WithPrefix("app"),
	}
	store.SetMirror(group)

	var tagger core.Tagger
	if cfg.AIEnabled() {
		client, err := llm.NewOpenAIClientWithConfig(&llm.ClientConfig{
			APIKey:         cfg.OpenAIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			ChatModel:      cfg.ChatModel,
			EmbeddingModel: openai.EmbeddingModel(cfg.EmbeddingModel),
			Timeout:        cfg.AITimeout,
			MaxRetries:     cfg.AIMaxRetries,
			RetryDelay:     cfg.AIRetryDelay,
		})
		if err != nil {
			a.logger.Warn("AI features disabled", "err", err)
		} else {
			a.AI = client
			tagger = client
			a.Enricher = core.NewEnricher(store, client, client)
		}
	} else {
		a.logger.Debug("OPENAI_API_KEY not set, AI features disabled")
	}

	a.Linker = core.NewLinker(store, a.Fetcher, tagger, a.Enricher)
	a.Reconciler = core.NewReconciler(store, group, a.Enricher)
	return a
}

// Embedder returns the query embedder, or nil when AI is disabled
func (a *App) Embedder() core.Embedder {
	return a.Enricher.Embedder()
}

// Foreground drains the pending queue the way a foreground transition does.
// Failures are logged; an overlapping drain is skipped.
func (a *App) Foreground(ctx context.Context) {
	result, err := a.Reconciler.Drain(ctx)
	switch {
	case errors.Is(err, core.ErrDrainInProgress):
		a.logger.Debug("drain skipped, already running")
	case err != nil:
		a.logger.Warn("pending import failed", "err", err)
	case result.Imported+result.Failed > 0:
		a.logger.Debug("pending import finished", "imported", result.Imported, "failed", result.Failed)
	}
}

// Close waits for in-flight enrichment, then closes the shared namespace and
// the database
func (a *App) Close() error {
	a.Enricher.Wait()
	var errs []error
	if err := a.Group.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
