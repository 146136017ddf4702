// ABOUTME: Main entry point for the stash MCP server with stdio transport
// ABOUTME: Opens the library, imports pending shares, and serves all tools
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/harper/stash/internal/app"
	"github.com/harper/stash/internal/config"
	"github.com/harper/stash/internal/mcp"
	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

func main() {
	log.SetOutput(os.Stderr)

	// Load .env file if it exists (for API keys)
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found", "err", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", "err", err)
	}
	log.SetLevel(cfg.Level())

	if !cfg.AIEnabled() {
		log.Warn("OPENAI_API_KEY not set, tag suggestions, summaries, and semantic search are off")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatal("failed to open library", "err", err)
	}
	a.Foreground(ctx)

	server := mcpserver.NewMCPServer("stash", "0.1.0")
	handlers := mcp.RegisterTools(server, a)

	log.Info("stash MCP server starting on stdio")
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		handlers.Shutdown()
	case err := <-serverErr:
		if err != nil {
			log.Error("server error", "err", err)
		}
	}

	if err := a.Close(); err != nil {
		log.Warn("error closing library", "err", err)
	}
}
