// Package session binds the note store, autosave, keyboard shortcuts and the
// chat assistant for one mounted note-editing view.
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/rcliao/notedesk/internal/assistant"
	"github.com/rcliao/notedesk/internal/autosave"
	"github.com/rcliao/notedesk/internal/logging"
	"github.com/rcliao/notedesk/internal/markup"
	"github.com/rcliao/notedesk/internal/model"
	"github.com/rcliao/notedesk/internal/shortcut"
	"github.com/rcliao/notedesk/internal/store"
	"github.com/rcliao/notedesk/internal/timer"
)

// ViewMode selects how the note body is shown.
type ViewMode string

const (
	ViewRich     ViewMode = "rich"
	ViewMarkdown ViewMode = "markdown"
)

// ErrClosed is returned by operations on a closed Session.
var ErrClosed = errors.New("session closed")

// NoteStore is the part of the store a Session drives.
type NoteStore interface {
	autosave.NoteStore
	SetActiveNote(id string) bool
	ActiveNoteID() string
	AddMessage(noteID string, in store.MessageInput) (model.Message, bool)
}

// Options configures a Session. Zero values pick the defaults.
type Options struct {
	Clock          timer.Clock
	Logger         *zap.Logger
	Matcher        *assistant.Matcher
	AutosaveDelay  time.Duration
	SavedDisplay   time.Duration
	TitleMaxLength int
	// ReplyDelay computes the typing pause before a reply. Defaults to
	// assistant.ThinkingDelay.
	ReplyDelay func(utterance string) time.Duration
	OnStatus   func(autosave.Status)
	// OnReply receives every bot message after it is stored.
	OnReply func(noteID string, msg model.Message)
}

// Session is a mounted note-editing view.
type Session struct {
	store    NoteStore
	autosave *autosave.Coordinator
	keys     *shortcut.Dispatcher
	matcher  *assistant.Matcher
	typing   *timer.Timer
	logger   *zap.Logger

	titleMax   int
	replyDelay func(string) time.Duration
	onReply    func(string, model.Message)

	mu       sync.Mutex
	view     ViewMode
	chatOpen bool
	closed   bool
}

// New mounts a Session over s. No note is loaded until Open.
func New(s NoteStore, opts Options) *Session {
	logger := logging.OrNop(opts.Logger)
	if opts.Matcher == nil {
		opts.Matcher = assistant.NewMatcher(nil, nil)
	}
	if opts.ReplyDelay == nil {
		opts.ReplyDelay = assistant.ThinkingDelay
	}
	sess := &Session{
		store:   s,
		matcher: opts.Matcher,
		typing:  timer.New(opts.Clock),
		logger:  logger,
		autosave: autosave.New(s, autosave.Options{
			Delay:        opts.AutosaveDelay,
			SavedDisplay: opts.SavedDisplay,
			Clock:        opts.Clock,
			Logger:       logger.Named("autosave"),
			OnStatus:     opts.OnStatus,
		}),
		titleMax:   opts.TitleMaxLength,
		replyDelay: opts.ReplyDelay,
		onReply:    opts.OnReply,
		view:       ViewRich,
	}
	sess.keys = shortcut.New(shortcut.Handlers{
		Save:       sess.Save,
		ToggleView: sess.ToggleView,
		ToggleChat: sess.ToggleChat,
	}, logger.Named("shortcut"))
	sess.keys.Mount()
	return sess
}

// Open loads a note for editing and makes it active. An empty id opens the
// currently active note.
func (s *Session) Open(noteID string) error {
	if s.isClosed() {
		return ErrClosed
	}
	if noteID == "" {
		noteID = s.store.ActiveNoteID()
		if noteID == "" {
			return errors.Wrap(store.ErrNotFound, "no active note")
		}
	}
	n, ok := s.store.NoteByID(noteID)
	if !ok {
		return errors.Wrapf(store.ErrNotFound, "note %s", noteID)
	}

	if s.typing.Cancel() {
		s.logger.Debug("dropped pending reply on note switch")
	}
	s.autosave.Load(n)
	s.store.SetActiveNote(n.ID)
	s.logger.Debug("opened note", zap.String(logging.FieldNoteID, n.ID))
	return nil
}

// SwitchNote moves the view to another note. Unsaved edits and a pending
// reply for the previous note are dropped. Switching to the note already
// open is a no-op and keeps the draft.
func (s *Session) SwitchNote(noteID string) error {
	if noteID == "" {
		return errors.Wrap(store.ErrValidation, "switch needs a note id")
	}
	if noteID == s.NoteID() {
		return nil
	}
	return s.Open(noteID)
}

// NoteID returns the note being edited, or "".
func (s *Session) NoteID() string { return s.autosave.NoteID() }

// EditTitle records a title edit. Titles over the length limit are rejected.
func (s *Session) EditTitle(title string) error {
	if s.isClosed() {
		return ErrClosed
	}
	if err := store.ValidateTitle(title, s.titleMax); err != nil {
		return err
	}
	if !s.autosave.EditTitle(title) {
		return errors.Wrap(store.ErrNotFound, "no note open")
	}
	return nil
}

// EditContent records a content edit.
func (s *Session) EditContent(content string) error {
	if s.isClosed() {
		return ErrClosed
	}
	if !s.autosave.EditContent(content) {
		return errors.Wrap(store.ErrNotFound, "no note open")
	}
	return nil
}

// Draft returns the unsaved title and content.
func (s *Session) Draft() (title, content string) { return s.autosave.Draft() }

// Status is the autosave indicator.
func (s *Session) Status() autosave.Status { return s.autosave.Status() }

// Dirty reports unsaved edits.
func (s *Session) Dirty() bool { return s.autosave.Dirty() }

// Key routes a keyboard event through the shortcut dispatcher.
func (s *Session) Key(ev *shortcut.KeyEvent) bool { return s.keys.Dispatch(ev) }

// Save commits the draft now. It reports false when there was nothing to save.
func (s *Session) Save() bool { return s.autosave.Flush() }

// ToggleView flips between rich text and markdown preview.
func (s *Session) ToggleView() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view == ViewRich {
		s.view = ViewMarkdown
	} else {
		s.view = ViewRich
	}
}

// View returns the current view mode.
func (s *Session) View() ViewMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// ToggleChat shows or hides the chat panel.
func (s *Session) ToggleChat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatOpen = !s.chatOpen
}

// ChatOpen reports whether the chat panel is visible.
func (s *Session) ChatOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatOpen
}

// Body renders the draft content for the current view mode.
func (s *Session) Body() string {
	_, content := s.autosave.Draft()
	if s.View() == ViewMarkdown {
		return markup.ToMarkdown(content)
	}
	return content
}

// Ask records text as a user message on the open note and schedules the
// assistant's reply after the thinking delay. Asking again before the reply
// lands replaces the pending reply.
func (s *Session) Ask(text string) (model.Message, error) {
	if s.isClosed() {
		return model.Message{}, ErrClosed
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Message{}, errors.Wrap(store.ErrValidation, "empty message")
	}
	noteID := s.NoteID()
	if noteID == "" {
		return model.Message{}, errors.Wrap(store.ErrNotFound, "no note open")
	}

	recent := s.recentUtterances(noteID)
	msg, ok := s.store.AddMessage(noteID, store.MessageInput{Content: text, Sender: model.SenderUser})
	if !ok {
		return model.Message{}, errors.Wrapf(store.ErrNotFound, "note %s", noteID)
	}

	delay := s.replyDelay(text)
	s.typing.Arm(noteID, delay, func(tag string) {
		s.reply(tag, text, recent)
	})
	s.logger.Debug("reply scheduled",
		zap.String(logging.FieldNoteID, noteID),
		zap.String(logging.FieldMessageID, msg.ID),
		zap.Duration(logging.FieldDelay, delay))
	return msg, nil
}

// Typing reports whether a reply is pending.
func (s *Session) Typing() bool { return s.typing.Pending() }

func (s *Session) reply(noteID, text string, recent []string) {
	if s.isClosed() || s.NoteID() != noteID {
		return
	}
	res := s.matcher.Match(text, recent)
	msg, ok := s.store.AddMessage(noteID, store.MessageInput{Content: res.Reply, Sender: model.SenderBot})
	if !ok {
		return
	}
	s.logger.Debug("assistant replied",
		zap.String(logging.FieldNoteID, noteID),
		zap.String(logging.FieldMessageID, msg.ID),
		zap.String(logging.FieldRule, res.Rule))
	if s.onReply != nil {
		s.onReply(noteID, msg)
	}
}

// recentUtterances returns up to assistant.DefaultWindow prior user messages
// of the note, oldest first.
func (s *Session) recentUtterances(noteID string) []string {
	n, ok := s.store.NoteByID(noteID)
	if !ok {
		return nil
	}
	w := assistant.NewWindow(assistant.DefaultWindow)
	for _, m := range n.ChatHistory {
		if m.Sender == model.SenderUser {
			w.Push(m.Content)
		}
	}
	return w.Items()
}

// Close unmounts the view. Pending edits and replies are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.keys.Unmount()
	s.typing.Cancel()
	s.autosave.Close()
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
