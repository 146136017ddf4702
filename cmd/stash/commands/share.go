// ABOUTME: CLI command that behaves like the share extension
// ABOUTME: Queues a pending save in the shared namespace without touching the library database
package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/stash/internal/appgroup"
	"github.com/harper/stash/internal/core"
	"github.com/harper/stash/internal/metadata"
	"github.com/harper/stash/internal/models"
)

var (
	shareTags       []string
	shareNote       string
	shareCollection string
	shareList       bool
)

// NewShareCmd creates share command
func NewShareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share [url]",
		Short: "Queue a link the way the share extension does",
		Long: `Queue a link in the shared pending queue, exactly as the share extension
would. The library database is not opened; the link is imported the next
time a foreground command (add, list, open, serve, mcp) or "stash import"
runs.

--collection picks an existing collection by name from the synced list, or
names a new one to be created on import. --list prints the collections and
tags the extension currently sees.`,
		Example: `  stash share https://example.com/post --collection Reading
  stash share --list`,
		Args: cobra.MaximumNArgs(1),
		RunE: runShare,
	}

	cmd.Flags().StringSliceVar(&shareTags, "tags", []string{}, "Tags (comma-separated)")
	cmd.Flags().StringVar(&shareNote, "note", "", "Personal note")
	cmd.Flags().StringVar(&shareCollection, "collection", "", "Collection name, existing or new")
	cmd.Flags().BoolVar(&shareList, "list", false, "Print the synced collections and tags")

	return cmd
}

func runShare(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !shareList {
		return fmt.Errorf("a url is required unless --list is given")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	shared, err := appgroup.NewBadgerStore(cfg.SharedDir)
	if err != nil {
		return fmt.Errorf("opening shared namespace: %w", err)
	}
	group := appgroup.New(cfg.AppGroupID, shared)
	defer func() { _ = group.Close() }()

	ctx := cmd.Context()
	synced, err := group.SyncedCollections(ctx)
	if err != nil {
		return fmt.Errorf("reading synced collections: %w", err)
	}

	if shareList {
		tags, err := group.SyncedTags(ctx)
		if err != nil {
			return fmt.Errorf("reading synced tags: %w", err)
		}
		if jsonOutput() {
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{"collections": synced, "tags": tags})
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "ID\tCOLLECTION\n")
		for _, c := range synced {
			fmt.Fprintf(w, "%s\t%s\n", c.ID, c.Name)
		}
		_ = w.Flush()
		fmt.Fprintf(cmd.OutOrStdout(), "\nTags: %s\n", strings.Join(tags, ", "))
		if len(args) == 0 {
			return nil
		}
	}

	target, err := core.NormalizeURL(args[0])
	if err != nil {
		return err
	}

	fetcher := metadata.New(metadata.Config{Timeout: cfg.MetadataTimeout})
	md := fetcher.Fetch(ctx, target)

	pending := models.PendingSave{
		URL:      target,
		Title:    md.Title,
		ImageURL: md.ImageURL,
		SiteName: md.SiteName,
		Platform: string(metadata.DetectPlatform(target)),
		Note:     models.StringPtr(strings.TrimSpace(shareNote)),
	}
	if tags := models.NormalizeTags(append(append([]string{}, shareTags...), md.Categories...)); len(tags) > 0 {
		encoded := models.EncodeTags(tags)
		pending.Category = &encoded
	}
	if name := strings.TrimSpace(shareCollection); name != "" {
		pending.NewCollectionName = name
		for _, c := range synced {
			if strings.EqualFold(c.Name, name) {
				pending.CollectionID = c.ID
				pending.NewCollectionName = ""
				break
			}
		}
	}

	queued, err := group.AddPendingSave(ctx, pending)
	if err != nil {
		return fmt.Errorf("queueing share: %w", err)
	}

	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), queued)
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Queued %s\n", queued.Title)
	}
	return nil
}
