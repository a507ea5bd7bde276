package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export notes as JSON",
		Long:  "Export all notes, with chat history, as a JSON array. With --snapshot the full stored document (notes and active note) is written instead.",
		Run:   runExport,
	}

	cmd.Flags().Bool("snapshot", false, "Export the whole snapshot including the active note id")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	snapshot, _ := cmd.Flags().GetBool("snapshot")

	a := mustOpen(cmd)
	defer a.Close()

	st := a.store.Snapshot()
	if snapshot {
		printJSON(cmd, st)
		return
	}
	if st.Notes == nil {
		printJSON(cmd, []any{})
		return
	}
	printJSON(cmd, st.Notes)
}
