// ABOUTME: Tests for MCP tool handlers over an in-memory app
// ABOUTME: Pages are served by httptest so save_link runs the real metadata fetcher
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/harper/stash/internal/app"
	"github.com/harper/stash/internal/config"
	"github.com/harper/stash/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

func setupHandlers(t *testing.T) (*Handlers, *app.App, *httptest.Server) {
	t.Helper()
	a, err := app.OpenInMemory(context.Background(), config.Defaults())
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head><meta property="og:title" content="Page %s"><meta name="keywords" content="testing"></head></html>`, r.URL.Path)
	}))
	t.Cleanup(site.Close)

	server := mcpserver.NewMCPServer("stash", "test")
	return RegisterTools(server, a), a, site
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (*mcp.CallToolResult, string) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned protocol error: %v", err)
	}
	if len(result.Content) == 0 {
		t.Fatal("handler returned no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	return result, text.Text
}

func TestSaveLinkAndGet(t *testing.T) {
	h, _, site := setupHandlers(t)

	result, text := call(t, h.SaveLink, map[string]any{
		"url":        site.URL + "/one",
		"tags":       []interface{}{"mine", 7},
		"note":       "check later",
		"collection": "Reading",
	})
	if result.IsError {
		t.Fatalf("save_link error: %s", text)
	}

	var saved struct {
		Save models.SaveView `json:"save"`
	}
	if err := json.Unmarshal([]byte(text), &saved); err != nil {
		t.Fatalf("bad save_link response %q: %v", text, err)
	}
	if saved.Save.Title != "Page /one" {
		t.Errorf("Title = %q", saved.Save.Title)
	}
	if strings.Join(saved.Save.Tags, ",") != "mine,Testing" {
		t.Errorf("Tags = %v", saved.Save.Tags)
	}

	result, text = call(t, h.GetSave, map[string]any{"id": float64(saved.Save.ID)})
	if result.IsError {
		t.Fatalf("get_save error: %s", text)
	}
	if !strings.Contains(text, `"collection":"Reading"`) || !strings.Contains(text, `"note":"check later"`) {
		t.Errorf("get_save = %s", text)
	}

	result, text = call(t, h.SaveLink, map[string]any{"url": site.URL + "/one"})
	if !result.IsError || !strings.Contains(text, "already saved") {
		t.Errorf("duplicate save_link = %v %s", result.IsError, text)
	}
}

func TestSaveLinkRequiresURL(t *testing.T) {
	h, _, _ := setupHandlers(t)
	result, _ := call(t, h.SaveLink, map[string]any{})
	if !result.IsError {
		t.Error("save_link without url should be an error result")
	}
}

func TestSearchSaves(t *testing.T) {
	h, a, _ := setupHandlers(t)
	ctx := context.Background()
	for _, in := range []models.SaveInput{
		{URL: "https://a.com", Title: "Go tips", Platform: models.PlatformWeb, Category: strPtr(`["go"]`)},
		{URL: "https://b.com", Title: "Go video", Platform: models.PlatformYouTube},
		{URL: "https://c.com", Title: "Cooking", Platform: models.PlatformWeb},
	} {
		if _, err := a.Store.AddSave(ctx, in); err != nil {
			t.Fatalf("AddSave() error = %v", err)
		}
	}

	_, text := call(t, h.SearchSaves, map[string]any{"query": "go"})
	var resp struct {
		Saves    []models.SaveView `json:"saves"`
		Count    int               `json:"count"`
		Semantic bool              `json:"semantic"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Count != 2 || resp.Saves[0].URL != "https://a.com" {
		t.Errorf("search_saves = %+v, want tagged save ranked first", resp.Saves)
	}

	_, text = call(t, h.SearchSaves, map[string]any{"platform": "youtube"})
	if !strings.Contains(text, "https://b.com") || strings.Contains(text, "https://a.com") {
		t.Errorf("platform filter = %s", text)
	}

	// semantic without an embedder falls back to keyword ranking
	_, text = call(t, h.SearchSaves, map[string]any{"query": "go tips", "semantic": true})
	if !strings.Contains(text, `"semantic":false`) {
		t.Errorf("semantic without AI = %s", text)
	}

	result, _ := call(t, h.SearchSaves, map[string]any{"sort": "sideways"})
	if !result.IsError {
		t.Error("unknown sort should be an error result")
	}
}

func TestUpdateAndDeleteSave(t *testing.T) {
	h, a, _ := setupHandlers(t)
	ctx := context.Background()
	id, _ := a.Store.AddSave(ctx, models.SaveInput{URL: "https://a.com", Title: "A", Platform: models.PlatformWeb})

	result, text := call(t, h.UpdateSave, map[string]any{"id": float64(id), "tags": []interface{}{"x", "y"}})
	if result.IsError {
		t.Fatalf("update_save error: %s", text)
	}
	save, _ := a.Store.GetSaveByID(ctx, id)
	if strings.Join(save.Tags(), ",") != "x,y" || save.Note != nil {
		t.Errorf("after update: tags=%v note=%v", save.Tags(), save.Note)
	}

	result, _ = call(t, h.UpdateSave, map[string]any{"id": float64(id)})
	if !result.IsError {
		t.Error("empty update should be an error result")
	}
	result, _ = call(t, h.UpdateSave, map[string]any{"id": float64(999), "note": "x"})
	if !result.IsError {
		t.Error("update of a missing save should be an error result")
	}

	result, _ = call(t, h.DeleteSave, map[string]any{"id": float64(id)})
	if result.IsError {
		t.Fatal("delete_save failed")
	}
	result, text = call(t, h.DeleteSave, map[string]any{"id": float64(id)})
	if !result.IsError || !strings.Contains(text, "not found") {
		t.Errorf("second delete = %s", text)
	}
}

func TestCollectionsAndTags(t *testing.T) {
	h, a, _ := setupHandlers(t)
	ctx := context.Background()
	saveID, _ := a.Store.AddSave(ctx, models.SaveInput{
		URL: "https://a.com", Title: "A", Platform: models.PlatformWeb, Category: strPtr(`["b","a"]`),
	})

	result, text := call(t, h.CreateCollection, map[string]any{"name": "  Reading "})
	if result.IsError {
		t.Fatalf("create_collection error: %s", text)
	}
	var created struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal([]byte(text), &created)

	result, _ = call(t, h.CreateCollection, map[string]any{"name": "Reading"})
	if !result.IsError {
		t.Error("duplicate collection should be an error result")
	}

	for i := 0; i < 2; i++ {
		result, text = call(t, h.AddToCollection, map[string]any{"collection_id": float64(created.ID), "save_id": float64(saveID)})
		if result.IsError {
			t.Fatalf("add_to_collection error: %s", text)
		}
	}

	_, text = call(t, h.ListCollections, map[string]any{})
	if !strings.Contains(text, `"name":"Reading","count":1`) {
		t.Errorf("list_collections = %s", text)
	}

	_, text = call(t, h.ListTags, map[string]any{})
	if text != `{"tags":["a","b"]}` {
		t.Errorf("list_tags = %s", text)
	}
}

func TestImportPending(t *testing.T) {
	h, a, _ := setupHandlers(t)
	ctx := context.Background()
	if _, err := a.Group.AddPendingSave(ctx, models.PendingSave{URL: "https://shared.com", Title: "S", Platform: "web"}); err != nil {
		t.Fatalf("AddPendingSave() error = %v", err)
	}

	result, text := call(t, h.ImportPending, map[string]any{})
	if result.IsError {
		t.Fatalf("import_pending error: %s", text)
	}
	if !strings.Contains(text, `"imported":1`) {
		t.Errorf("import_pending = %s", text)
	}
	h.Shutdown()
}

func strPtr(s string) *string { return &s }
