package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/notedesk/internal/markup"
	"github.com/rcliao/notedesk/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Create a note and make it active",
		Long:  "Create a note. Content comes from --content, --markdown-file or stdin. A missing title becomes \"Untitled Note\".",
		Run:   runAdd,
	}

	cmd.Flags().String("content", "", "Note body (HTML)")
	cmd.Flags().String("markdown-file", "", "Read the body from a markdown file")

	RootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	title := strings.TrimSpace(strings.Join(args, " "))
	content, _, err := readContent(cmd, true)
	if err != nil {
		exitErr("read content", err)
	}

	a := mustOpenWritable(cmd)
	defer a.Close()

	if err := store.ValidateTitle(title, a.cfg.Editor.TitleMaxLength); err != nil {
		exitErr("add", err)
	}

	id := a.store.AddNote(title)
	if content != "" {
		a.store.UpdateNote(id, store.ContentPatch(content))
	}
	a.checkPersist()

	n, _ := a.store.NoteByID(id)
	printJSON(cmd, n)
}

// readContent resolves the note body from --content, --markdown-file or,
// when allowed, piped stdin. The bool reports whether any source was given.
func readContent(cmd *cobra.Command, stdin bool) (string, bool, error) {
	if cmd.Flags().Changed("content") {
		c, _ := cmd.Flags().GetString("content")
		return c, true, nil
	}
	if path, _ := cmd.Flags().GetString("markdown-file"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", false, err
		}
		html, err := markup.FromMarkdown(string(b))
		if err != nil {
			return "", false, fmt.Errorf("convert markdown: %w", err)
		}
		return html, true, nil
	}
	if !stdin {
		return "", false, nil
	}
	stat, _ := os.Stdin.Stat()
	if stat != nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", false, err
		}
		return strings.TrimSpace(string(b)), true, nil
	}
	return "", false, nil
}
