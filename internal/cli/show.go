package cli

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rcliao/notedesk/internal/markup"
	"github.com/rcliao/notedesk/internal/model"
	"github.com/rcliao/notedesk/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show a note (default: the active note)",
		Args:  cobra.MaximumNArgs(1),
		Run:   runShow,
	}

	cmd.Flags().Bool("markdown", false, "Print the body as markdown")
	cmd.Flags().Bool("render", false, "Render the markdown body for the terminal")
	cmd.Flags().Int("width", 80, "Wrap width for --render")
	cmd.Flags().String("style", "dark", "Glamour style for --render (dark, light, notty, ...)")

	RootCmd.AddCommand(cmd)
}

// lookupNote returns the note named by args[0], or the active note.
func lookupNote(a *app, args []string) (model.Note, error) {
	if len(args) == 0 || args[0] == "" {
		n, ok := a.store.ActiveNote()
		if !ok {
			return model.Note{}, errors.Wrap(store.ErrNotFound, "no active note")
		}
		return n, nil
	}
	n, ok := a.store.NoteByID(args[0])
	if !ok {
		return model.Note{}, errors.Wrapf(store.ErrNotFound, "note %s", args[0])
	}
	return n, nil
}

func runShow(cmd *cobra.Command, args []string) {
	asMarkdown, _ := cmd.Flags().GetBool("markdown")
	render, _ := cmd.Flags().GetBool("render")
	width, _ := cmd.Flags().GetInt("width")
	style, _ := cmd.Flags().GetString("style")

	a := mustOpen(cmd)
	defer a.Close()

	n, err := lookupNote(a, args)
	if err != nil {
		exitErr("show", err)
	}

	w := cmd.OutOrStdout()
	switch {
	case render:
		md := "# " + n.Title + "\n\n" + markup.ToMarkdown(n.Content)
		fmt.Fprint(w, markup.Render(md, width, style))
	case asMarkdown:
		fmt.Fprintln(w, markup.ToMarkdown(n.Content))
	case formatFlag == "text":
		fmt.Fprintf(w, "%s\n\n%s\n", n.Title, markup.Strip(n.Content))
	default:
		printJSON(cmd, n)
	}
}
