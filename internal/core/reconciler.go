// ABOUTME: Reconciler imports saves queued by the share extension into the store
// ABOUTME: Entries are processed one at a time in enqueue order; a bad entry never aborts the batch
package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/harper/stash/internal/appgroup"
	"github.com/harper/stash/internal/metadata"
	"github.com/harper/stash/internal/models"
	"github.com/harper/stash/internal/storage/sqlite"
)

// ErrDrainInProgress is returned when Drain is called while another drain runs
var ErrDrainInProgress = errors.New("drain already in progress")

// Queue is the pending-save queue written by the extension
type Queue interface {
	PendingSaves(ctx context.Context) ([]models.PendingSave, error)
	RemovePendingSaves(ctx context.Context, drained []models.PendingSave) error
	ClearPendingSaves(ctx context.Context) error
}

// DrainResult summarizes one drain pass
type DrainResult struct {
	RunID              string `json:"runId"`
	Imported           int    `json:"imported"`
	Failed             int    `json:"failed"`
	CollectionsCreated int    `json:"collectionsCreated"`
}

// Reconciler drains the pending-save queue
type Reconciler struct {
	store    *sqlite.Storage
	queue    Queue
	enricher *Enricher
	logger   *log.Logger

	busy     atomic.Bool
	mu       sync.Mutex
	onReload []func()
}

// NewReconciler creates a reconciler. enricher may be nil.
func NewReconciler(store *sqlite.Storage, queue Queue, enricher *Enricher) *Reconciler {
	return &Reconciler{
		store:    store,
		queue:    queue,
		enricher: enricher,
		logger:   log.WithPrefix("reconciler"),
	}
}

// OnReload registers fn to run after every drain that processed entries
func (r *Reconciler) OnReload(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onReload = append(r.onReload, fn)
}

// Drain imports every queued save. Per-entry failures are logged and
// counted; the drained entries are then removed from the queue whether or
// not they imported. Entries appended while the drain runs are left for the
// next pass. A queue holding malformed data is discarded; one that cannot
// be read for any other reason is left untouched.
func (r *Reconciler) Drain(ctx context.Context) (DrainResult, error) {
	if !r.busy.CompareAndSwap(false, true) {
		return DrainResult{}, ErrDrainInProgress
	}
	defer r.busy.Store(false)

	result := DrainResult{RunID: uuid.NewString()}
	logger := r.logger.With("run", result.RunID)

	entries, err := r.queue.PendingSaves(ctx)
	if errors.Is(err, appgroup.ErrMalformed) {
		logger.Warn("discarding malformed pending queue", "err", err)
		if err := r.queue.ClearPendingSaves(ctx); err != nil {
			return result, fmt.Errorf("failed to clear malformed pending saves: %w", err)
		}
		r.emitReload()
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("failed to read pending saves: %w", err)
	}
	if len(entries) == 0 {
		return result, nil
	}

	ordered := make([]models.PendingSave, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp < ordered[j].Timestamp
	})

	collections, err := loadCollectionIndex(ctx, r.store)
	if err != nil {
		return result, err
	}

	for _, entry := range ordered {
		r.importOne(ctx, logger, collections, entry, &result)
	}

	if err := r.queue.RemovePendingSaves(ctx, entries); err != nil {
		return result, fmt.Errorf("failed to clear pending saves: %w", err)
	}
	r.store.SyncMirror(ctx)

	logger.Info("pending saves drained",
		"imported", result.Imported, "failed", result.Failed, "collections_created", result.CollectionsCreated)
	r.emitReload()
	return result, nil
}

func (r *Reconciler) importOne(ctx context.Context, logger *log.Logger, collections *collectionIndex, entry models.PendingSave, result *DrainResult) {
	logger = logger.With("url", entry.URL)

	var collectionID int64
	if name := entry.NewCollection(); name != "" {
		id, created, err := collections.resolve(ctx, name)
		if err != nil {
			logger.Warn("collection not resolved", "collection", name, "err", err)
		} else {
			collectionID = id
			if created {
				result.CollectionsCreated++
			}
		}
	} else if raw := strings.TrimSpace(entry.CollectionID); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			logger.Warn("ignoring malformed collection id", "collection_id", raw)
		} else {
			collectionID = id
		}
	}

	platform := models.Platform(entry.Platform)
	if !platform.Valid() {
		platform = metadata.DetectPlatform(entry.URL)
	}

	id, err := r.store.AddSave(ctx, models.SaveInput{
		URL:      entry.URL,
		Title:    entry.Title,
		ImageURL: entry.ImageURL,
		SiteName: entry.SiteName,
		Platform: platform,
		Category: entry.Category,
		Note:     entry.Note,
	})
	if err != nil {
		result.Failed++
		if errors.Is(err, sqlite.ErrDuplicateURL) {
			logger.Warn("pending save dropped, already saved")
		} else {
			logger.Warn("pending save dropped", "err", err)
		}
		return
	}
	result.Imported++

	if collectionID != 0 {
		if err := r.store.AddToCollection(ctx, collectionID, id); err != nil {
			logger.Warn("collection membership failed", "collection_id", collectionID, "err", err)
		}
	}

	r.enricher.EnrichAsync(id)
}

func (r *Reconciler) emitReload() {
	r.mu.Lock()
	fns := make([]func(), len(r.onReload))
	copy(fns, r.onReload)
	r.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
