// ABOUTME: Root command for the stash CLI
// ABOUTME: Defines global flags, log level handling, and registers every subcommand
package commands

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
)

const banner = `
 ███████╗████████╗ █████╗ ███████╗██╗  ██╗
 ██╔════╝╚══██╔══╝██╔══██╗██╔════╝██║  ██║
 ███████╗   ██║   ███████║███████╗███████║
 ╚════██║   ██║   ██╔══██║╚════██║██╔══██║
 ███████║   ██║   ██║  ██║███████║██║  ██║
 ╚══════╝   ╚═╝   ╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stash",
		Short: "Save links, tag them, and find them again",
		Long: banner + `

Stash keeps a local library of saved links. Page metadata is fetched on
save, tags and collections organize the library, and with an OpenAI key
saves are summarized and embedded for semantic search.

Links shared from other apps land in a pending queue that is imported
the next time stash runs in the foreground.`,
		SilenceUsage:      true,
		PersistentPreRunE: applyGlobalFlags,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (debug logging)")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print errors")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, table, or json")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(
		NewAddCmd(),
		NewListCmd(),
		NewShowCmd(),
		NewEditCmd(),
		NewDeleteCmd(),
		NewTagsCmd(),
		NewCollectionsCmd(),
		NewShareCmd(),
		NewImportCmd(),
		NewExportCmd(),
		NewOpenCmd(),
		NewEnrichCmd(),
		NewMCPCmd(),
		NewServeCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

func applyGlobalFlags(cmd *cobra.Command, args []string) error {
	switch outputFormat {
	case "auto", "table", "json":
	default:
		return fmt.Errorf("unknown --format %q (want auto, table, or json)", outputFormat)
	}
	log.SetReportTimestamp(false)
	return nil
}

// logLevel resolves the effective level: flags win over configuration
func logLevel(configured log.Level) log.Level {
	switch {
	case verbose:
		return log.DebugLevel
	case quiet:
		return log.ErrorLevel
	default:
		return configured
	}
}

func jsonOutput() bool {
	return outputFormat == "json"
}
