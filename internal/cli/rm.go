package cli

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rcliao/notedesk/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a note",
		Long:  "Delete a note. If it was active, the first remaining note becomes active.",
		Args:  cobra.ExactArgs(1),
		Run:   runRm,
	}

	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	id := args[0]

	a := mustOpenWritable(cmd)
	defer a.Close()

	if !a.store.DeleteNote(id) {
		exitErr("rm", errors.Wrapf(store.ErrNotFound, "note %s", id))
	}
	a.checkPersist()

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"id":%q,"activeNoteId":%q}`+"\n", id, a.store.ActiveNoteID())
}
