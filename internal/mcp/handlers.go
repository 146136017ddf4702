// ABOUTME: MCP tool handler implementations for the stash server
// ABOUTME: Tool failures are returned as error results, never as protocol errors
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/harper/stash/internal/core"
	"github.com/harper/stash/internal/models"
	"github.com/harper/stash/internal/storage/sqlite"
	"github.com/mark3labs/mcp-go/mcp"
)

const defaultSearchLimit = 20

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	store      *sqlite.Storage
	linker     *core.Linker
	reconciler *core.Reconciler
	enricher   *core.Enricher
	embedder   core.Embedder
	logger     *log.Logger
}

// SaveLink handles the save_link tool
func (h *Handlers) SaveLink(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url argument is required and must be a string"), nil
	}

	save, err := h.linker.Save(ctx, core.LinkRequest{
		URL:        url,
		Tags:       stringArray(request, "tags"),
		Note:       request.GetString("note", ""),
		Collection: request.GetString("collection", ""),
	})
	if errors.Is(err, sqlite.ErrDuplicateURL) {
		return mcp.NewToolResultError(fmt.Sprintf("already saved: %s", url)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save link: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{"save": save.View()})
}

// SearchSaves handles the search_saves tool
func (h *Handlers) SearchSaves(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")

	sortBy, err := sqlite.ParseSortOrder(request.GetString("sort", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	filter := sqlite.SaveFilter{
		Search:       query,
		Platform:     request.GetString("platform", ""),
		Category:     request.GetString("tag", ""),
		SortBy:       sortBy,
		CollectionID: int64(request.GetInt("collection_id", 0)),
		Limit:        request.GetInt("limit", defaultSearchLimit),
	}
	if request.GetBool("semantic", false) {
		filter.SearchEmbedding = core.QueryEmbedding(ctx, h.embedder, query)
	}

	saves, err := h.store.GetSaves(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	views := models.Views(saves)
	return jsonResult(map[string]interface{}{
		"saves":    views,
		"count":    len(views),
		"semantic": len(filter.SearchEmbedding) > 0,
	})
}

// GetSave handles the get_save tool
func (h *Handlers) GetSave(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError("id argument is required and must be a number"), nil
	}

	save, err := h.store.GetSaveByID(ctx, int64(id))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get save: %v", err)), nil
	}
	if save == nil {
		return mcp.NewToolResultError(fmt.Sprintf("save %d not found", id)), nil
	}

	view := save.View()
	col, err := h.store.GetCollectionForSave(ctx, save.ID)
	if err != nil {
		h.logger.Warn("collection lookup failed", "save", save.ID, "err", err)
	} else if col != nil {
		view.Collection = &col.Name
	}

	return jsonResult(map[string]interface{}{"save": view})
}

// UpdateSave handles the update_save tool
func (h *Handlers) UpdateSave(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError("id argument is required and must be a number"), nil
	}

	var update models.SaveUpdate
	args := arguments(request)
	if _, ok := args["note"]; ok {
		note := request.GetString("note", "")
		update.Note = &note
	}
	if _, ok := args["tags"]; ok {
		encoded := models.EncodeTags(stringArray(request, "tags"))
		update.Category = &encoded
	}
	if update.Empty() {
		return mcp.NewToolResultError("nothing to update: pass note and/or tags"), nil
	}

	if err := h.store.UpdateSave(ctx, int64(id), update); err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("save %d not found", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to update save: %v", err)), nil
	}

	save, err := h.store.GetSaveByID(ctx, int64(id))
	if err != nil || save == nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to reload save %d: %v", id, err)), nil
	}
	return jsonResult(map[string]interface{}{"success": true, "save": save.View()})
}

// DeleteSave handles the delete_save tool
func (h *Handlers) DeleteSave(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError("id argument is required and must be a number"), nil
	}

	if err := h.store.DeleteSave(ctx, int64(id)); err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("save %d not found", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete save: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{"success": true, "id": id})
}

// ListTags handles the list_tags tool
func (h *Handlers) ListTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := h.store.GetCategories(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list tags: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{"tags": tags})
}

// ListCollections handles the list_collections tool
func (h *Handlers) ListCollections(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collections, err := h.store.GetCollections(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list collections: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{"collections": collections})
}

// CreateCollection handles the create_collection tool
func (h *Handlers) CreateCollection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required and must be a string"), nil
	}

	id, err := h.store.CreateCollection(ctx, name)
	if errors.Is(err, sqlite.ErrDuplicateCollection) {
		return mcp.NewToolResultError(fmt.Sprintf("collection %q already exists", strings.TrimSpace(name))), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create collection: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{"id": id, "name": strings.TrimSpace(name)})
}

// AddToCollection handles the add_to_collection tool
func (h *Handlers) AddToCollection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collectionID, err := request.RequireInt("collection_id")
	if err != nil {
		return mcp.NewToolResultError("collection_id argument is required and must be a number"), nil
	}
	saveID, err := request.RequireInt("save_id")
	if err != nil {
		return mcp.NewToolResultError("save_id argument is required and must be a number"), nil
	}

	if err := h.store.AddToCollection(ctx, int64(collectionID), int64(saveID)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add to collection: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{"success": true})
}

// ImportPending handles the import_pending tool
func (h *Handlers) ImportPending(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.reconciler.Drain(ctx)
	if errors.Is(err, core.ErrDrainInProgress) {
		return mcp.NewToolResultError("an import is already running"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("import failed: %v", err)), nil
	}
	return jsonResult(result)
}

// Shutdown waits for pending enrichment jobs to complete
func (h *Handlers) Shutdown() {
	h.logger.Info("waiting for pending enrichment to complete")
	h.enricher.Wait()
	h.logger.Info("all enrichment completed")
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func arguments(request mcp.CallToolRequest) map[string]any {
	args, _ := request.Params.Arguments.(map[string]any)
	return args
}

// stringArray extracts a string array argument, skipping non-string items
func stringArray(request mcp.CallToolRequest, key string) []string {
	raw, ok := arguments(request)[key].([]interface{})
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
