// ABOUTME: Shared utility functions for CLI commands
// ABOUTME: Formatting, id parsing, and JSON output helpers
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/harper/stash/internal/models"
)

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// formatTime formats a time for display
func formatTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	if diff < time.Minute {
		return "just now"
	} else if diff < time.Hour {
		mins := int(diff.Minutes())
		return fmt.Sprintf("%dm ago", mins)
	} else if diff < 24*time.Hour {
		hours := int(diff.Hours())
		return fmt.Sprintf("%dh ago", hours)
	} else if diff < 7*24*time.Hour {
		days := int(diff.Hours() / 24)
		return fmt.Sprintf("%dd ago", days)
	}
	return t.Format("2006-01-02")
}

// parseID parses a positive integer id argument
func parseID(s, name string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, s)
	}
	return id, nil
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// printSaves writes saves as a table
func printSaves(w io.Writer, saves []models.SaveView) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tTITLE\tPLATFORM\tTAGS\tSAVED\n")
	fmt.Fprintf(tw, "--\t-----\t--------\t----\t-----\n")
	for _, s := range saves {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			s.ID,
			truncate(s.Title, 40),
			s.Platform,
			truncate(strings.Join(s.Tags, ", "), 30),
			formatTime(s.CreatedAt))
	}
	_ = tw.Flush()
}

// printSave writes one save in detail
func printSave(w io.Writer, s models.SaveView) {
	fmt.Fprintf(w, "#%d %s\n", s.ID, s.Title)
	fmt.Fprintf(w, "  URL:        %s\n", s.URL)
	fmt.Fprintf(w, "  Platform:   %s\n", s.Platform)
	if s.SiteName != nil {
		fmt.Fprintf(w, "  Site:       %s\n", *s.SiteName)
	}
	if len(s.Tags) > 0 {
		fmt.Fprintf(w, "  Tags:       %s\n", strings.Join(s.Tags, ", "))
	}
	if s.Collection != nil {
		fmt.Fprintf(w, "  Collection: %s\n", *s.Collection)
	}
	if s.Note != nil {
		fmt.Fprintf(w, "  Note:       %s\n", *s.Note)
	}
	fmt.Fprintf(w, "  Saved:      %s\n", s.CreatedAt.Local().Format("2006-01-02 15:04"))
	if s.Summary != nil {
		fmt.Fprintf(w, "\n%s\n", *s.Summary)
	}
}
