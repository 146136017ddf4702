// ABOUTME: CLI command to list the tag vocabulary
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewTagsCmd creates tags command
func NewTagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "tags",
		Short:   "List every tag in use",
		Long:    `List the distinct tags across all saves, sorted alphabetically.`,
		Example: `  stash tags`,
		Args:    cobra.NoArgs,
		RunE:    runTags,
	}
}

func runTags(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer closeApp(a)

	tags, err := a.Store.GetCategories(ctx)
	if err != nil {
		return fmt.Errorf("listing tags: %w", err)
	}

	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), tags)
	}
	if len(tags) == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No tags yet\n")
		}
		return nil
	}
	for _, tag := range tags {
		fmt.Fprintln(cmd.OutOrStdout(), tag)
	}
	return nil
}
