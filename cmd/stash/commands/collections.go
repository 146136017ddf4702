// ABOUTME: CLI commands to manage collections and their members
// ABOUTME: list, create, rename, delete, add, remove, and items subcommands
package commands

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/stash/internal/app"
	"github.com/harper/stash/internal/models"
	"github.com/harper/stash/internal/storage/sqlite"
)

// NewCollectionsCmd creates collections command
func NewCollectionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"col"},
		Short:   "Manage collections",
		Long: `Manage collections of saves.

Deleting a collection never deletes its saves. Collections are shared with
the share extension so it can file new links directly.`,
		Example: `  stash collections list
  stash collections create Reading
  stash collections add 1 12
  stash collections items 1`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List collections with item counts",
			Args:  cobra.NoArgs,
			RunE:  withApp(runCollectionsList),
		},
		&cobra.Command{
			Use:   "create <name>",
			Short: "Create a collection",
			Args:  cobra.ExactArgs(1),
			RunE:  withApp(runCollectionsCreate),
		},
		&cobra.Command{
			Use:   "rename <id> <name>",
			Short: "Rename a collection",
			Args:  cobra.ExactArgs(2),
			RunE:  withApp(runCollectionsRename),
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a collection, keeping its saves",
			Args:  cobra.ExactArgs(1),
			RunE:  withApp(runCollectionsDelete),
		},
		&cobra.Command{
			Use:   "add <collection-id> <save-id>",
			Short: "Add a save to a collection",
			Args:  cobra.ExactArgs(2),
			RunE:  withApp(runCollectionsAdd),
		},
		&cobra.Command{
			Use:   "remove <collection-id> <save-id>",
			Short: "Remove a save from a collection",
			Args:  cobra.ExactArgs(2),
			RunE:  withApp(runCollectionsRemove),
		},
		&cobra.Command{
			Use:   "items <id>",
			Short: "List the saves in a collection",
			Args:  cobra.ExactArgs(1),
			RunE:  withApp(runCollectionsItems),
		},
	)

	return cmd
}

type appRunFunc func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error

// withApp opens the library around a subcommand
func withApp(fn appRunFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, false)
		if err != nil {
			return err
		}
		defer closeApp(a)
		return fn(ctx, cmd, a, args)
	}
}

func runCollectionsList(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
	collections, err := a.Store.GetCollections(ctx)
	if err != nil {
		return fmt.Errorf("listing collections: %w", err)
	}

	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), collections)
	}
	if len(collections) == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No collections yet\n")
		}
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tNAME\tITEMS\n")
	fmt.Fprintf(w, "--\t----\t-----\n")
	for _, c := range collections {
		fmt.Fprintf(w, "%d\t%s\t%d\n", c.ID, truncate(c.Name, 40), c.Count)
	}
	return w.Flush()
}

func runCollectionsCreate(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
	id, err := a.Store.CreateCollection(ctx, args[0])
	if errors.Is(err, sqlite.ErrDuplicateCollection) {
		return fmt.Errorf("collection %q already exists", args[0])
	}
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), map[string]int64{"id": id})
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Created collection #%d\n", id)
	}
	return nil
}

func runCollectionsRename(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
	id, err := parseID(args[0], "collection id")
	if err != nil {
		return err
	}

	err = a.Store.RenameCollection(ctx, id, args[1])
	switch {
	case errors.Is(err, sqlite.ErrNotFound):
		return fmt.Errorf("collection %d not found", id)
	case errors.Is(err, sqlite.ErrDuplicateCollection):
		return fmt.Errorf("collection %q already exists", args[1])
	case err != nil:
		return fmt.Errorf("renaming collection: %w", err)
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Renamed collection #%d\n", id)
	}
	return nil
}

func runCollectionsDelete(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
	id, err := parseID(args[0], "collection id")
	if err != nil {
		return err
	}

	if err := a.Store.DeleteCollection(ctx, id); err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			return fmt.Errorf("collection %d not found", id)
		}
		return fmt.Errorf("deleting collection: %w", err)
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted collection #%d\n", id)
	}
	return nil
}

func runCollectionsAdd(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
	collectionID, saveID, err := membershipArgs(args)
	if err != nil {
		return err
	}

	if err := a.Store.AddToCollection(ctx, collectionID, saveID); err != nil {
		return fmt.Errorf("adding to collection: %w", err)
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Added #%d to collection #%d\n", saveID, collectionID)
	}
	return nil
}

func runCollectionsRemove(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
	collectionID, saveID, err := membershipArgs(args)
	if err != nil {
		return err
	}

	if err := a.Store.RemoveFromCollection(ctx, collectionID, saveID); err != nil {
		return fmt.Errorf("removing from collection: %w", err)
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed #%d from collection #%d\n", saveID, collectionID)
	}
	return nil
}

func runCollectionsItems(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
	id, err := parseID(args[0], "collection id")
	if err != nil {
		return err
	}

	saves, err := a.Store.GetCollectionItems(ctx, id)
	if err != nil {
		return fmt.Errorf("listing collection items: %w", err)
	}
	views := models.Views(saves)

	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), views)
	}
	if len(views) == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Collection is empty\n")
		}
		return nil
	}
	printSaves(cmd.OutOrStdout(), views)
	return nil
}

func membershipArgs(args []string) (collectionID, saveID int64, err error) {
	if collectionID, err = parseID(args[0], "collection id"); err != nil {
		return 0, 0, err
	}
	if saveID, err = parseID(args[1], "save id"); err != nil {
		return 0, 0, err
	}
	return collectionID, saveID, nil
}
