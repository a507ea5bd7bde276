package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/notedesk/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Change a note's title or content (default: the active note)",
		Args:  cobra.MaximumNArgs(1),
		Run:   runUpdate,
	}

	cmd.Flags().String("title", "", "New title")
	cmd.Flags().String("content", "", "New body (HTML)")
	cmd.Flags().String("markdown-file", "", "Read the new body from a markdown file")

	RootCmd.AddCommand(cmd)
}

func runUpdate(cmd *cobra.Command, args []string) {
	var p store.Patch
	if cmd.Flags().Changed("title") {
		title, _ := cmd.Flags().GetString("title")
		p.Title = &title
	}
	content, ok, err := readContent(cmd, false)
	if err != nil {
		exitErr("read content", err)
	}
	if ok {
		p.Content = &content
	}
	if p.Title == nil && p.Content == nil {
		exitErr("update", fmt.Errorf("%w: nothing to change (use --title, --content or --markdown-file)", store.ErrValidation))
	}

	a := mustOpenWritable(cmd)
	defer a.Close()

	if p.Title != nil {
		if err := store.ValidateTitle(*p.Title, a.cfg.Editor.TitleMaxLength); err != nil {
			exitErr("update", err)
		}
	}
	n, err := lookupNote(a, args)
	if err != nil {
		exitErr("update", err)
	}

	changed := a.store.UpdateNote(n.ID, p)
	a.checkPersist()

	n, _ = a.store.NoteByID(n.ID)
	if !changed {
		a.logger.Info("update was a no-op")
	}
	printJSON(cmd, n)
}
