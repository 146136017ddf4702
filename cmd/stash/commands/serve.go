// ABOUTME: Serve command runs the local HTTP API
// ABOUTME: Binds to loopback by default and shuts down gracefully on SIGINT/SIGTERM
package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harper/stash/internal/httpapi"
)

var serveAddr string

// NewServeCmd creates serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the library over a local HTTP API",
		Long: `Serve the library as a JSON API.

Routes:
  GET    /saves          list and search (search, platform, tag, sort, collection, semantic, limit)
  POST   /saves          save a link
  GET    /saves/{id}     one save
  PATCH  /saves/{id}     edit note and tags
  DELETE /saves/{id}     delete a save
  GET    /tags           tag vocabulary
  GET    /collections    collections with counts
  POST   /collections    create a collection
  POST   /import         import pending shares`,
		Example: `  stash serve
  stash serve --addr 127.0.0.1:9000`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, 127.0.0.1:7474)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer closeApp(a)

	addr := a.Config.HTTPAddr
	if serveAddr != "" {
		addr = serveAddr
	}
	return httpapi.Serve(ctx, addr, httpapi.NewRouter(a))
}
