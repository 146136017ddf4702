// ABOUTME: CLI command to import links queued by the share extension
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewImportCmd creates import command
func NewImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Import links queued by the share extension",
		Long: `Import every pending share into the library, oldest first.

Ad-hoc collection names are matched case-insensitively against existing
collections and created when missing. An entry that cannot be saved, such
as a link that is already in the library, is dropped with a warning.`,
		Example: `  stash import`,
		Args:    cobra.NoArgs,
		RunE:    runImport,
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer closeApp(a)

	result, err := a.Reconciler.Drain(ctx)
	if err != nil {
		return fmt.Errorf("importing pending shares: %w", err)
	}

	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), result)
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d, dropped %d, new collections %d\n",
			result.Imported, result.Failed, result.CollectionsCreated)
	}
	return nil
}
