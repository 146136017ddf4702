// ABOUTME: MCP tool definitions and registration for the stash server
// ABOUTME: Exposes saving, searching, editing, tagging, collections, and pending import as tools
package mcp

import (
	"github.com/charmbracelet/log"
	"github.com/harper/stash/internal/app"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, a *app.App) *Handlers {
	handlers := &Handlers{
		store:      a.Store,
		linker:     a.Linker,
		reconciler: a.Reconciler,
		enricher:   a.Enricher,
		embedder:   a.Embedder(),
		logger:     log.WithPrefix("mcp"),
	}

	// 1. save_link - fetch metadata and store a link
	server.AddTool(mcp.Tool{
		Name:        "save_link",
		Description: "Save a link. Page title, image, and categories are fetched automatically; tags are merged with any AI suggestions.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"url": map[string]interface{}{
					"type":        "string",
					"description": "URL to save (https:// is assumed when no scheme is given)",
				},
				"tags": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Tags to attach",
				},
				"note": map[string]interface{}{
					"type":        "string",
					"description": "Optional personal note",
				},
				"collection": map[string]interface{}{
					"type":        "string",
					"description": "Collection name; matched case-insensitively and created when missing",
				},
			},
			Required: []string{"url"},
		},
	}, handlers.SaveLink)

	// 2. search_saves - list saves through the ranking pipeline
	server.AddTool(mcp.Tool{
		Name:        "search_saves",
		Description: "Search saved links. Keyword search ranks saves with notes and tags first; semantic search ranks by embedding similarity.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Text matched against title, note, tags, and url",
				},
				"platform": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"all", "youtube", "tiktok", "instagram", "web"},
					"description": "Only saves from this platform",
				},
				"tag": map[string]interface{}{
					"type":        "string",
					"description": "Only saves carrying this exact tag",
				},
				"sort": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"newest", "oldest"},
					"description": "Base chronological order (default: newest)",
				},
				"collection_id": map[string]interface{}{
					"type":        "number",
					"description": "Only saves in this collection",
				},
				"semantic": map[string]interface{}{
					"type":        "boolean",
					"description": "Rank by embedding similarity to the query (requires an OpenAI key)",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of results (default: 20)",
					"default":     20,
				},
			},
		},
	}, handlers.SearchSaves)

	// 3. get_save - one save with its collection
	server.AddTool(mcp.Tool{
		Name:        "get_save",
		Description: "Get a saved link by id, including its summary and collection.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "number",
					"description": "Save id",
				},
			},
			Required: []string{"id"},
		},
	}, handlers.GetSave)

	// 4. update_save - sparse edit of note and tags
	server.AddTool(mcp.Tool{
		Name:        "update_save",
		Description: "Update the note or tags of a save. Omitted fields are left unchanged.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "number",
					"description": "Save id",
				},
				"note": map[string]interface{}{
					"type":        "string",
					"description": "New note",
				},
				"tags": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Replacement tag list",
				},
			},
			Required: []string{"id"},
		},
	}, handlers.UpdateSave)

	// 5. delete_save
	server.AddTool(mcp.Tool{
		Name:        "delete_save",
		Description: "Delete a saved link. Its collection memberships are removed with it.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "number",
					"description": "Save id",
				},
			},
			Required: []string{"id"},
		},
	}, handlers.DeleteSave)

	// 6. list_tags
	server.AddTool(mcp.Tool{
		Name:        "list_tags",
		Description: "List every distinct tag in use, sorted.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ListTags)

	// 7. list_collections
	server.AddTool(mcp.Tool{
		Name:        "list_collections",
		Description: "List collections with their item counts.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ListCollections)

	// 8. create_collection
	server.AddTool(mcp.Tool{
		Name:        "create_collection",
		Description: "Create a named collection.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Collection name (must be unique)",
				},
			},
			Required: []string{"name"},
		},
	}, handlers.CreateCollection)

	// 9. add_to_collection
	server.AddTool(mcp.Tool{
		Name:        "add_to_collection",
		Description: "Add a save to a collection. Adding twice is a no-op.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"collection_id": map[string]interface{}{
					"type":        "number",
					"description": "Collection id",
				},
				"save_id": map[string]interface{}{
					"type":        "number",
					"description": "Save id",
				},
			},
			Required: []string{"collection_id", "save_id"},
		},
	}, handlers.AddToCollection)

	// 10. import_pending - drain the share extension queue
	server.AddTool(mcp.Tool{
		Name:        "import_pending",
		Description: "Import links queued by the share extension.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ImportPending)

	return handlers
}
