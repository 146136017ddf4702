// ABOUTME: CLI command to save a link
// ABOUTME: Fetches page metadata, merges tags, files into a collection, and queues enrichment
package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/stash/internal/core"
	"github.com/harper/stash/internal/storage/sqlite"
)

var (
	addTags       []string
	addNote       string
	addCollection string
)

// NewAddCmd creates add command
func NewAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Save a link",
		Long: `Save a link to the library.

The page is fetched for its title, image, and categories. Categories and
any AI-suggested tags are merged with the tags you pass. With --collection
the save is filed into that collection, which is created if needed.`,
		Example: `  stash add https://go.dev/blog
  stash add go.dev/doc --tags=go,docs --note "read the memory model"
  stash add https://youtu.be/abc --collection Watch`,
		Args: cobra.ExactArgs(1),
		RunE: runAdd,
	}

	cmd.Flags().StringSliceVar(&addTags, "tags", []string{}, "Tags for the save (comma-separated)")
	cmd.Flags().StringVar(&addNote, "note", "", "Personal note")
	cmd.Flags().StringVar(&addCollection, "collection", "", "Collection name (created when missing)")

	return cmd
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer closeApp(a)

	save, err := a.Linker.Save(ctx, core.LinkRequest{
		URL:        args[0],
		Tags:       addTags,
		Note:       addNote,
		Collection: addCollection,
	})
	if errors.Is(err, sqlite.ErrDuplicateURL) {
		return fmt.Errorf("already saved: %s", args[0])
	}
	if err != nil {
		return fmt.Errorf("saving link: %w", err)
	}

	view := save.View()
	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), view)
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved #%d %s\n", view.ID, view.Title)
	}
	return nil
}
