// ABOUTME: CLI command to handle stash:// deep links
// ABOUTME: save links are stored through the add flow; import links drain the pending queue
package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/stash/internal/core"
	"github.com/harper/stash/internal/deeplink"
	"github.com/harper/stash/internal/storage/sqlite"
)

// NewOpenCmd creates open command
func NewOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <link>",
		Short: "Handle a stash:// deep link",
		Long: `Handle a deep link in the configured URL scheme.

  stash://save?url=<url>   save the url
  stash://import           import pending shares

Pending shares are always imported first.`,
		Example: `  stash open "stash://save?url=https%3A%2F%2Fgo.dev"
  stash open stash://import`,
		Args: cobra.ExactArgs(1),
		RunE: runOpen,
	}
}

func runOpen(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer closeApp(a)

	link, err := deeplink.Parse(args[0], a.Config.URLScheme)
	if err != nil {
		return err
	}

	switch link.Action {
	case deeplink.ActionSave:
		save, err := a.Linker.Save(ctx, core.LinkRequest{URL: link.URL})
		if errors.Is(err, sqlite.ErrDuplicateURL) {
			return fmt.Errorf("already saved: %s", link.URL)
		}
		if err != nil {
			return fmt.Errorf("saving link: %w", err)
		}
		if jsonOutput() {
			return printJSON(cmd.OutOrStdout(), save.View())
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved #%d %s\n", save.ID, save.Title)
		}
	case deeplink.ActionImport:
		// the foreground drain above already ran
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Pending shares imported\n")
		}
	}
	return nil
}
