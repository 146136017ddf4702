// ABOUTME: CLI command to backfill the AI summary and embedding of a save
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewEnrichCmd creates enrich command
func NewEnrichCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enrich <id>",
		Short: "Generate a summary and embedding for a save",
		Long: `Generate the AI summary and embedding of a save when either is missing.
Fields that are already present are left untouched. Requires OPENAI_API_KEY.`,
		Example: `  stash enrich 12`,
		Args:    cobra.ExactArgs(1),
		RunE:    runEnrich,
	}
}

func runEnrich(cmd *cobra.Command, args []string) error {
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

	if a.Enricher == nil {
		return fmt.Errorf("enrichment needs OPENAI_API_KEY")
	}

	save, err := a.Store.GetSaveByID(ctx, id)
	if err != nil {
		return fmt.Errorf("getting save: %w", err)
	}
	if save == nil {
		return fmt.Errorf("save %d not found", id)
	}

	if !a.Enricher.Enrich(ctx, id) {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Nothing changed for #%d\n", id)
		}
		return nil
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Enriched #%d\n", id)
	}
	return nil
}
