package cli

import (
	"math/rand"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rcliao/notedesk/internal/assistant"
	"github.com/rcliao/notedesk/internal/model"
	"github.com/rcliao/notedesk/internal/session"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Ask the writing helper a question about a note",
		Long:  "Record the message in the note's chat, wait for the helper's reply and print both. Earlier messages in the chat are used as context.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAsk,
	}

	cmd.Flags().StringP("note", "n", "", "Note id (default: the active note)")
	cmd.Flags().Bool("no-delay", false, "Skip the thinking pause")

	RootCmd.AddCommand(cmd)
}

// newMatcher builds the assistant from config: custom rules file and seed.
func newMatcher(a *app) (*assistant.Matcher, error) {
	var rules *assistant.Rules
	if path := a.cfg.Assistant.RulesFile; path != "" {
		r, err := assistant.LoadRulesFile(path)
		if err != nil {
			return nil, err
		}
		rules = r
	}
	var rnd assistant.Rand
	if seed := a.cfg.Assistant.Seed; seed != 0 {
		rnd = rand.New(rand.NewSource(seed))
	}
	return assistant.NewMatcher(rules, rnd), nil
}

// newSession mounts an editing session configured from a.cfg. opts carries
// the caller's callbacks.
func newSession(a *app, opts session.Options) (*session.Session, error) {
	m, err := newMatcher(a)
	if err != nil {
		return nil, errors.Wrap(err, "load assistant rules")
	}
	delay, err := a.cfg.AutosaveDelay()
	if err != nil {
		return nil, err
	}
	saved, err := a.cfg.SavedDisplay()
	if err != nil {
		return nil, err
	}
	opts.Matcher = m
	opts.Logger = a.logger.Named("session")
	opts.AutosaveDelay = delay
	opts.SavedDisplay = saved
	opts.TitleMaxLength = a.cfg.Editor.TitleMaxLength
	return session.New(a.store, opts), nil
}

type askOutput struct {
	NoteID   string        `json:"noteId"`
	Question model.Message `json:"question"`
	Reply    model.Message `json:"reply"`
}

func runAsk(cmd *cobra.Command, args []string) {
	noteID, _ := cmd.Flags().GetString("note")
	noDelay, _ := cmd.Flags().GetBool("no-delay")
	text := strings.Join(args, " ")

	a := mustOpenWritable(cmd)
	defer a.Close()

	replies := make(chan model.Message, 1)
	opts := session.Options{
		OnReply: func(_ string, m model.Message) { replies <- m },
	}
	if noDelay {
		opts.ReplyDelay = func(string) time.Duration { return 0 }
	}
	sess, err := newSession(a, opts)
	if err != nil {
		exitErr("ask", err)
	}
	defer sess.Close()

	if err := sess.Open(noteID); err != nil {
		exitErr("ask", err)
	}
	q, err := sess.Ask(text)
	if err != nil {
		exitErr("ask", err)
	}

	select {
	case r := <-replies:
		a.checkPersist()
		printJSON(cmd, askOutput{NoteID: sess.NoteID(), Question: q, Reply: r})
	case <-time.After(assistant.ThinkingDelay(text) + 5*time.Second):
		exitErr("ask", errors.New("timed out waiting for a reply"))
	case <-cmd.Context().Done():
		exitErr("ask", cmd.Context().Err())
	}
}
