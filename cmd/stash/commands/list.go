// ABOUTME: CLI command to list and search saves
// ABOUTME: Runs the filter and ranking pipeline with keyword or semantic ranking
package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/stash/internal/core"
	"github.com/harper/stash/internal/models"
	"github.com/harper/stash/internal/storage/sqlite"
)

var (
	listSearch     string
	listPlatform   string
	listTag        string
	listSort       string
	listCollection string
	listSemantic   bool
	listLimit      int
)

// NewListCmd creates list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List and search saved links",
		Long: `List saved links, newest first.

With --search, saves matching the text in title, note, tags, or URL are
ranked with noted and tagged saves first. Adding --semantic ranks them by
embedding similarity instead (requires an OpenAI key).`,
		Example: `  stash list
  stash list --search sqlite --tag databases
  stash list --platform youtube --sort oldest
  stash list --collection Reading --format json
  stash list --search "vector search in sqlite" --semantic`,
		Args: cobra.NoArgs,
		RunE: runList,
	}

	cmd.Flags().StringVarP(&listSearch, "search", "s", "", "Text to search for")
	cmd.Flags().StringVar(&listPlatform, "platform", "", "Platform: youtube, tiktok, instagram, web, or all")
	cmd.Flags().StringVar(&listTag, "tag", "", "Only saves with this tag")
	cmd.Flags().StringVar(&listSort, "sort", "newest", "Sort order: newest or oldest")
	cmd.Flags().StringVar(&listCollection, "collection", "", "Only saves in this collection (name or id)")
	cmd.Flags().BoolVar(&listSemantic, "semantic", false, "Rank by meaning instead of keywords")
	cmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "Maximum number of results (0 for all)")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sortBy, err := sqlite.ParseSortOrder(listSort)
	if err != nil {
		return err
	}
	if listLimit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", listLimit)
	}
	if listPlatform != "" && listPlatform != models.AllFilter && !models.Platform(listPlatform).Valid() {
		return fmt.Errorf("unknown platform %q", listPlatform)
	}

	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer closeApp(a)

	collectionID, err := resolveCollection(ctx, a.Store, listCollection)
	if err != nil {
		return err
	}

	filter := sqlite.SaveFilter{
		Search:       listSearch,
		Platform:     listPlatform,
		Category:     listTag,
		SortBy:       sortBy,
		CollectionID: collectionID,
		Limit:        listLimit,
	}
	if listSemantic {
		filter.SearchEmbedding = core.QueryEmbedding(ctx, a.Embedder(), listSearch)
	}

	saves, err := a.Store.GetSaves(ctx, filter)
	if err != nil {
		return fmt.Errorf("listing saves: %w", err)
	}
	views := models.Views(saves)

	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), views)
	}
	if len(views) == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No saves found\n")
		}
		return nil
	}

	printSaves(cmd.OutOrStdout(), views)
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\nTotal: %d save(s)\n", len(views))
	}
	return nil
}

// resolveCollection accepts a collection id or a case-insensitive name.
// An empty value means no collection filter.
func resolveCollection(ctx context.Context, store *sqlite.Storage, value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	if id, err := strconv.ParseInt(value, 10, 64); err == nil {
		col, err := store.GetCollection(ctx, id)
		if err != nil {
			return 0, err
		}
		if col != nil {
			return col.ID, nil
		}
	}

	collections, err := store.GetCollections(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing collections: %w", err)
	}
	for _, c := range collections {
		if strings.EqualFold(c.Name, value) {
			return c.ID, nil
		}
	}
	return 0, fmt.Errorf("collection %q not found", value)
}
