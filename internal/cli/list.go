package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/notedesk/internal/markup"
	"github.com/rcliao/notedesk/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes in creation order",
		Run:   runList,
	}

	cmd.Flags().IntP("limit", "l", 0, "Max results (0 = all)")
	cmd.Flags().Bool("ids-only", false, "Only output note ids")

	RootCmd.AddCommand(cmd)
}

// noteSummary is the listing form of a note.
type noteSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Preview     string    `json:"preview,omitempty"`
	Messages    int       `json:"messages"`
	Active      bool      `json:"active,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"`
}

const previewLength = 60

func summarize(notes []model.Note, activeID string) []noteSummary {
	out := make([]noteSummary, 0, len(notes))
	for _, n := range notes {
		preview := []rune(markup.Strip(n.Content))
		if len(preview) > previewLength {
			preview = append(preview[:previewLength], '…')
		}
		out = append(out, noteSummary{
			ID:          n.ID,
			Title:       n.Title,
			Preview:     string(preview),
			Messages:    len(n.ChatHistory),
			Active:      n.ID == activeID,
			LastUpdated: n.LastUpdated,
		})
	}
	return out
}

func printSummaries(cmd *cobra.Command, notes []model.Note, activeID string, limit int, idsOnly bool) {
	if limit > 0 && len(notes) > limit {
		notes = notes[:limit]
	}
	w := cmd.OutOrStdout()
	if idsOnly {
		for _, n := range notes {
			fmt.Fprintln(w, n.ID)
		}
		return
	}
	if formatFlag == "text" {
		for _, s := range summarize(notes, activeID) {
			marker := " "
			if s.Active {
				marker = "*"
			}
			fmt.Fprintf(w, "%s %s  %s\n", marker, s.ID, s.Title)
		}
		return
	}
	printJSON(cmd, summarize(notes, activeID))
}

func runList(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	idsOnly, _ := cmd.Flags().GetBool("ids-only")

	a := mustOpen(cmd)
	defer a.Close()

	printSummaries(cmd, a.store.FilteredNotes(""), a.store.ActiveNoteID(), limit, idsOnly)
}
