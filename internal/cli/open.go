package cli

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/rcliao/notedesk/internal/autosave"
	"github.com/rcliao/notedesk/internal/model"
	"github.com/rcliao/notedesk/internal/session"
	"github.com/rcliao/notedesk/internal/shortcut"
)

func init() {
	cmd := &cobra.Command{
		Use:   "open [id]",
		Short: "Edit a note interactively (default: the active note)",
		Long: `Line-based editor. Every text line is appended to the note as a paragraph
and saved after a short pause. Commands:

  :title <text>   rename the note
  :ask <text>     ask the writing helper
  :switch <id>    edit another note (unsaved edits are dropped)
  :show           print the note in the current view mode
  :status         print save status, view mode and chat visibility
  :clear          empty the note body
  ^s ^m ^/        save now, toggle markdown view, toggle chat
  :quit           save and leave`,
		Args: cobra.MaximumNArgs(1),
		Run:  runOpen,
	}

	RootCmd.AddCommand(cmd)
}

func runOpen(cmd *cobra.Command, args []string) {
	a := mustOpenWritable(cmd)
	defer a.Close()

	r := &repl{out: cmd.OutOrStdout()}
	sess, err := newSession(a, session.Options{OnReply: r.onReply, OnStatus: r.onStatus})
	if err != nil {
		exitErr("open", err)
	}
	defer sess.Close()
	r.sess = sess

	id := ""
	if len(args) == 1 {
		id = args[0]
	}
	if err := sess.Open(id); err != nil {
		exitErr("open", err)
	}
	r.banner()
	if err := r.run(cmd.InOrStdin()); err != nil {
		exitErr("open", err)
	}
	a.checkPersist()
}

// repl drives a session from text lines. Replies and status changes arrive
// on timer goroutines, so all output goes through printf.
type repl struct {
	sess *session.Session

	mu  sync.Mutex
	out io.Writer
}

func (r *repl) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

func (r *repl) onReply(_ string, m model.Message) {
	r.printf("helper> %s\n", m.Content)
}

func (r *repl) onStatus(s autosave.Status) {
	switch s {
	case autosave.StatusSaved, autosave.StatusFailed:
		r.printf("[%s]\n", s)
	}
}

func (r *repl) banner() {
	title, _ := r.sess.Draft()
	r.printf("editing %q (%s). :quit to leave.\n", title, r.sess.NoteID())
}

// run reads lines until EOF or :quit, then commits whatever is unsaved.
func (r *repl) run(in io.Reader) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if r.handle(sc.Text()) {
			break
		}
	}
	r.sess.Save()
	return sc.Err()
}

func isChord(s string) bool {
	for _, p := range []string{"^", "ctrl+", "cmd+", "meta+"} {
		if strings.HasPrefix(strings.ToLower(s), p) {
			return true
		}
	}
	return false
}

// handle processes one line and reports whether the session should end.
func (r *repl) handle(line string) bool {
	cmd := strings.TrimSpace(line)
	var err error
	switch {
	case cmd == "":
		return false
	case cmd == ":quit" || cmd == ":q":
		return true
	case strings.HasPrefix(cmd, ":title "):
		err = r.sess.EditTitle(strings.TrimSpace(strings.TrimPrefix(cmd, ":title ")))
	case strings.HasPrefix(cmd, ":ask "):
		_, err = r.sess.Ask(strings.TrimPrefix(cmd, ":ask "))
	case strings.HasPrefix(cmd, ":switch "):
		if err = r.sess.SwitchNote(strings.TrimSpace(strings.TrimPrefix(cmd, ":switch "))); err == nil {
			r.banner()
		}
	case cmd == ":show":
		title, _ := r.sess.Draft()
		r.printf("%s\n\n%s\n", title, r.sess.Body())
	case cmd == ":status":
		r.printf("status=%q view=%s chat=%t dirty=%t\n",
			r.sess.Status(), r.sess.View(), r.sess.ChatOpen(), r.sess.Dirty())
	case cmd == ":clear":
		err = r.sess.EditContent("")
	case isChord(cmd):
		err = r.chord(cmd)
	default:
		_, content := r.sess.Draft()
		err = r.sess.EditContent(content + "<p>" + html.EscapeString(line) + "</p>")
	}
	if err != nil {
		r.printf("error: %v\n", err)
	}
	return false
}

func (r *repl) chord(s string) error {
	c, err := shortcut.ParseChord(s)
	if err != nil {
		return err
	}
	ev := c.Event()
	dirty := r.sess.Dirty()
	if !r.sess.Key(ev) {
		r.printf("%s is not bound\n", c)
		return nil
	}
	action, _ := shortcut.Lookup(ev)
	switch action {
	case shortcut.ActionSave:
		if !dirty {
			r.printf("[nothing to save]\n")
		}
	case shortcut.ActionToggleView:
		r.printf("[view: %s]\n", r.sess.View())
	case shortcut.ActionToggleChat:
		if r.sess.ChatOpen() {
			r.printf("[chat: open]\n")
		} else {
			r.printf("[chat: hidden]\n")
		}
	}
	return nil
}
