// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Lets LLM agents save, search, and organize links via stdio
package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/harper/stash/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs stash as an MCP (Model Context Protocol) server over stdio, so an
agent can save links, search the library, edit tags and notes, manage
collections, and import pending shares.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically launched by the agent host)
  stash mcp

  # Configure in the host's MCP config:
  # {
  #   "mcpServers": {
  #     "stash": {
  #       "command": "stash",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// stdout carries the protocol; logs go to stderr
	log.SetOutput(os.Stderr)

	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer closeApp(a)

	if !a.Config.AIEnabled() {
		log.Warn("OPENAI_API_KEY not set, tag suggestions, summaries, and semantic search are off")
	}

	server := mcpserver.NewMCPServer("stash", versionInfo.Version)
	handlers := mcp.RegisterTools(server, a)

	log.Info("MCP server starting on stdio")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, waiting for enrichment")
		handlers.Shutdown()
		log.Info("shutdown complete")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
