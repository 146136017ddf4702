// ABOUTME: CLI commands to show, edit, and delete a single save
package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/stash/internal/models"
	"github.com/harper/stash/internal/storage/sqlite"
)

var (
	editNote string
	editTags []string
)

// NewShowCmd creates show command
func NewShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "show <id>",
		Short:   "Show a saved link",
		Long:    `Show every field of a saved link, including its summary and collection.`,
		Example: `  stash show 12`,
		Args:    cobra.ExactArgs(1),
		RunE:    runShow,
	}
}

// NewEditCmd creates edit command
func NewEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit the note or tags of a save",
		Long: `Edit the note or tags of a save. Only the flags you pass are changed;
--tags replaces the whole tag list and --note "" clears the note.`,
		Example: `  stash edit 12 --note "great intro"
  stash edit 12 --tags=go,concurrency`,
		Args: cobra.ExactArgs(1),
		RunE: runEdit,
	}

	cmd.Flags().StringVar(&editNote, "note", "", "New note")
	cmd.Flags().StringSliceVar(&editTags, "tags", []string{}, "Replacement tags (comma-separated)")

	return cmd
}

// NewDeleteCmd creates delete command
func NewDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a saved link",
		Long:    `Delete a saved link. It is removed from any collection it was in.`,
		Example: `  stash delete 12`,
		Args:    cobra.ExactArgs(1),
		RunE:    runDelete,
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "id")
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer closeApp(a)

	save, err := a.Store.GetSaveByID(ctx, id)
	if err != nil {
		return fmt.Errorf("getting save: %w", err)
	}
	if save == nil {
		return fmt.Errorf("save %d not found", id)
	}

	view := save.View()
	col, err := a.Store.GetCollectionForSave(ctx, id)
	if err != nil {
		return fmt.Errorf("getting collection: %w", err)
	}
	if col != nil {
		view.Collection = &col.Name
	}

	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), view)
	}
	printSave(cmd.OutOrStdout(), view)
	return nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "id")
	if err != nil {
		return err
	}

	var update models.SaveUpdate
	if cmd.Flags().Changed("note") {
		update.Note = &editNote
	}
	if cmd.Flags().Changed("tags") {
		encoded := models.EncodeTags(editTags)
		update.Category = &encoded
	}
	if update.Empty() {
		return fmt.Errorf("nothing to edit: pass --note and/or --tags")
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer closeApp(a)

	if err := a.Store.UpdateSave(ctx, id, update); err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			return fmt.Errorf("save %d not found", id)
		}
		return fmt.Errorf("updating save: %w", err)
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated #%d\n", id)
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "id")
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer closeApp(a)

	if err := a.Store.DeleteSave(ctx, id); err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			return fmt.Errorf("save %d not found", id)
		}
		return fmt.Errorf("deleting save: %w", err)
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted #%d\n", id)
	}
	return nil
}
