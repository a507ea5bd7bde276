package cli

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rcliao/notedesk/internal/model"
	"github.com/rcliao/notedesk/internal/store"
)

func init() {
	use := &cobra.Command{
		Use:   "use <id>",
		Short: "Make a note the active one",
		Args:  cobra.ExactArgs(1),
		Run:   runUse,
	}
	active := &cobra.Command{
		Use:   "active",
		Short: "Show the active note",
		Run:   runActive,
	}

	RootCmd.AddCommand(use, active)
}

func runUse(cmd *cobra.Command, args []string) {
	a := mustOpenWritable(cmd)
	defer a.Close()

	n, err := lookupNote(a, args)
	if err != nil {
		exitErr("use", err)
	}
	a.store.SetActiveNote(n.ID)
	a.checkPersist()

	printJSON(cmd, summarize([]model.Note{n}, n.ID)[0])
}

func runActive(cmd *cobra.Command, args []string) {
	a := mustOpen(cmd)
	defer a.Close()

	n, ok := a.store.ActiveNote()
	if !ok {
		exitErr("active", errors.Wrap(store.ErrNotFound, "no active note"))
	}
	printJSON(cmd, n)
}
