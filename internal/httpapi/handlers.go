// ABOUTME: HTTP handlers for saves, tags, collections, and pending import
// ABOUTME: Store sentinel errors map to 400, 404, and 409 responses
package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/harper/stash/internal/core"
	"github.com/harper/stash/internal/models"
	"github.com/harper/stash/internal/storage/sqlite"
)

// Handlers serves the API routes
type Handlers struct {
	store      *sqlite.Storage
	linker     *core.Linker
	reconciler *core.Reconciler
	embedder   core.Embedder
	logger     *log.Logger
}

type createSaveRequest struct {
	URL        string   `json:"url"`
	Tags       []string `json:"tags"`
	Note       string   `json:"note"`
	Collection string   `json:"collection"`
}

type updateSaveRequest struct {
	Note *string   `json:"note"`
	Tags *[]string `json:"tags"`
}

type createCollectionRequest struct {
	Name string `json:"name"`
}

// ListSaves handles GET /saves
func (h *Handlers) ListSaves(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	sortBy, err := sqlite.ParseSortOrder(q.Get("sort"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	collectionID, err := queryInt64(r, "collection")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt64(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := sqlite.SaveFilter{
		Search:       q.Get("search"),
		Platform:     q.Get("platform"),
		Category:     q.Get("tag"),
		SortBy:       sortBy,
		CollectionID: collectionID,
		Limit:        int(limit),
	}
	if semantic, _ := strconv.ParseBool(q.Get("semantic")); semantic {
		filter.SearchEmbedding = core.QueryEmbedding(r.Context(), h.embedder, filter.Search)
	}

	saves, err := h.store.GetSaves(r.Context(), filter)
	if err != nil {
		h.serverError(w, "list saves", err)
		return
	}

	views := models.Views(saves)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"saves":    views,
		"count":    len(views),
		"semantic": len(filter.SearchEmbedding) > 0,
	})
}

// CreateSave handles POST /saves
func (h *Handlers) CreateSave(w http.ResponseWriter, r *http.Request) {
	var req createSaveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	save, err := h.linker.Save(r.Context(), core.LinkRequest{
		URL:        req.URL,
		Tags:       req.Tags,
		Note:       req.Note,
		Collection: req.Collection,
	})
	switch {
	case errors.Is(err, core.ErrInvalidURL):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, sqlite.ErrDuplicateURL):
		writeError(w, http.StatusConflict, fmt.Sprintf("already saved: %s", req.URL))
		return
	case err != nil:
		h.serverError(w, "save link", err)
		return
	}

	writeJSON(w, http.StatusCreated, save.View())
}

// GetSave handles GET /saves/{id}
func (h *Handlers) GetSave(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	save, err := h.store.GetSaveByID(r.Context(), id)
	if err != nil {
		h.serverError(w, "get save", err)
		return
	}
	if save == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("save %d not found", id))
		return
	}

	view := save.View()
	col, err := h.store.GetCollectionForSave(r.Context(), id)
	if err != nil {
		h.logger.Warn("collection lookup failed", "save", id, "err", err)
	} else if col != nil {
		view.Collection = &col.Name
	}
	writeJSON(w, http.StatusOK, view)
}

// UpdateSave handles PATCH /saves/{id}
func (h *Handlers) UpdateSave(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateSaveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var update models.SaveUpdate
	if req.Note != nil {
		update.Note = req.Note
	}
	if req.Tags != nil {
		encoded := models.EncodeTags(*req.Tags)
		update.Category = &encoded
	}
	if update.Empty() {
		writeError(w, http.StatusBadRequest, "nothing to update: pass note and/or tags")
		return
	}

	if err := h.store.UpdateSave(r.Context(), id, update); err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("save %d not found", id))
			return
		}
		h.serverError(w, "update save", err)
		return
	}

	save, err := h.store.GetSaveByID(r.Context(), id)
	if err != nil || save == nil {
		h.serverError(w, "reload save", err)
		return
	}
	writeJSON(w, http.StatusOK, save.View())
}

// DeleteSave handles DELETE /saves/{id}
func (h *Handlers) DeleteSave(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteSave(r.Context(), id); err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("save %d not found", id))
			return
		}
		h.serverError(w, "delete save", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTags handles GET /tags
func (h *Handlers) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.store.GetCategories(r.Context())
	if err != nil {
		h.serverError(w, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tags": tags})
}

// ListCollections handles GET /collections
func (h *Handlers) ListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.store.GetCollections(r.Context())
	if err != nil {
		h.serverError(w, "list collections", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"collections": collections})
}

// CreateCollection handles POST /collections
func (h *Handlers) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if models.IsBlank(&req.Name) {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	id, err := h.store.CreateCollection(r.Context(), req.Name)
	if errors.Is(err, sqlite.ErrDuplicateCollection) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.serverError(w, "create collection", err)
		return
	}

	col, err := h.store.GetCollection(r.Context(), id)
	if err != nil || col == nil {
		h.serverError(w, "reload collection", err)
		return
	}
	writeJSON(w, http.StatusCreated, col)
}

// Import handles POST /import
func (h *Handlers) Import(w http.ResponseWriter, r *http.Request) {
	result, err := h.reconciler.Drain(r.Context())
	if errors.Is(err, core.ErrDrainInProgress) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.serverError(w, "import pending", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) serverError(w http.ResponseWriter, op string, err error) {
	h.logger.Error("request failed", "op", op, "err", err)
	writeError(w, http.StatusInternalServerError, "failed to "+op)
}

// pathID parses the {id} URL parameter, writing a 400 when it is malformed
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid id %q", raw))
		return 0, false
	}
	return id, true
}
