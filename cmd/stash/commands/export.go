// ABOUTME: CLI command to export the whole library
// ABOUTME: Writes YAML, JSON, or Markdown to stdout or a file
package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// NewExportCmd creates export command
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every save, collection, and tag",
		Long: `Export the library for backup or reading elsewhere.

YAML is the default. With the global --format json the export is written as
JSON unless --as says otherwise. Embeddings are not exported.`,
		Example: `  stash export > stash.yaml
  stash export --as markdown -o ~/notes/stash.md
  stash --format json export`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}

	cmd.Flags().String("as", "yaml", "Export format (yaml, json, markdown)")
	cmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	as, _ := cmd.Flags().GetString("as")
	output, _ := cmd.Flags().GetString("output")

	if !cmd.Flags().Changed("as") && jsonOutput() {
		as = "json"
	}
	as = strings.ToLower(strings.TrimSpace(as))
	switch as {
	case "yaml", "json", "markdown":
	case "md":
		as = "markdown"
	default:
		return fmt.Errorf("unknown export format %q (want yaml, json, or markdown)", as)
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer closeApp(a)

	var w io.Writer = cmd.OutOrStdout()
	if output != "" {
		if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		file, err := os.Create(output) // #nosec G304
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer func() { _ = file.Close() }()
		w = file
	}

	switch as {
	case "json":
		err = a.Store.ExportToJSON(ctx, w)
	case "markdown":
		err = a.Store.ExportToMarkdown(ctx, w)
	default:
		err = a.Store.ExportToYAML(ctx, w)
	}
	if err != nil {
		return fmt.Errorf("exporting: %w", err)
	}

	if output != "" && !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", output)
	}
	return nil
}
