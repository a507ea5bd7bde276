package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [term]",
		Short: "Search notes by title or text",
		Long:  "Case-insensitive substring match against the title and the note text with markup removed. Results keep creation order.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().IntP("limit", "l", 0, "Max results (0 = all)")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	term := strings.Join(args, " ")

	a := mustOpen(cmd)
	defer a.Close()

	printSummaries(cmd, a.store.FilteredNotes(term), a.store.ActiveNoteID(), limit, false)
}
