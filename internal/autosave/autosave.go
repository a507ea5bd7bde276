// Package autosave debounces edits to the active note and commits them to
// the note store after a quiet period.
package autosave

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rcliao/notedesk/internal/logging"
	"github.com/rcliao/notedesk/internal/model"
	"github.com/rcliao/notedesk/internal/store"
	"github.com/rcliao/notedesk/internal/timer"
)

// DefaultDelay is the quiet interval before an edit is committed.
const DefaultDelay = 1000 * time.Millisecond

// DefaultSavedDisplay is how long StatusSaved is shown before clearing.
const DefaultSavedDisplay = 2 * time.Second

// Status is what the presentation layer shows next to the editor.
type Status string

const (
	StatusNone   Status = ""
	StatusSaving Status = "saving"
	StatusSaved  Status = "saved"
	StatusFailed Status = "failed"
)

// State of the coordinator.
type State string

const (
	StateIdle    State = "idle"
	StatePending State = "pending"
)

// NoteStore is the part of the store the coordinator needs.
type NoteStore interface {
	UpdateNote(id string, p store.Patch) bool
	NoteByID(id string) (model.Note, bool)
	PersistErr() error
}

// Options tunes a Coordinator.
type Options struct {
	Delay        time.Duration
	SavedDisplay time.Duration
	Clock        timer.Clock
	Logger       *zap.Logger
	// OnStatus is called, outside any lock, whenever the status changes.
	OnStatus func(Status)
}

type draft struct {
	title   string
	content string
}

// Coordinator owns the edit session of one note at a time.
type Coordinator struct {
	store        NoteStore
	delay        time.Duration
	savedDisplay time.Duration
	logger       *zap.Logger
	onStatus     func(Status)

	debounce    *timer.Timer
	statusClear *timer.Timer

	mu     sync.Mutex
	noteID string
	draft  draft
	state  State
	status Status
}

// New returns an idle Coordinator with no note loaded.
func New(s NoteStore, opts Options) *Coordinator {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	return &Coordinator{
		store:        s,
		delay:        opts.Delay,
		savedDisplay: opts.SavedDisplay,
		logger:       logging.OrNop(opts.Logger),
		onStatus:     opts.OnStatus,
		debounce:     timer.New(opts.Clock),
		statusClear:  timer.New(opts.Clock),
		state:        StateIdle,
	}
}

// Load starts editing n. A save still pending for the previous note is
// dropped, not committed.
func (c *Coordinator) Load(n model.Note) {
	c.mu.Lock()
	if c.debounce.Cancel() {
		c.logger.Debug("dropped pending save on note switch",
			zap.String(logging.FieldNoteID, c.noteID))
	}
	c.statusClear.Cancel()
	c.noteID = n.ID
	c.draft = draft{title: n.Title, content: n.Content}
	c.state = StateIdle
	changed := c.setStatusLocked(StatusNone)
	c.mu.Unlock()

	c.emit(changed, StatusNone)
}

// Close ends the session without committing pending edits.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.debounce.Cancel()
	c.statusClear.Cancel()
	c.noteID = ""
	c.draft = draft{}
	c.state = StateIdle
	c.mu.Unlock()
}

// EditTitle records a title edit and restarts the debounce.
func (c *Coordinator) EditTitle(title string) bool {
	return c.edit(func(d *draft) { d.title = title })
}

// EditContent records a content edit and restarts the debounce.
func (c *Coordinator) EditContent(content string) bool {
	return c.edit(func(d *draft) { d.content = content })
}

func (c *Coordinator) edit(apply func(*draft)) bool {
	c.mu.Lock()
	if c.noteID == "" {
		c.mu.Unlock()
		return false
	}
	apply(&c.draft)

	// The commit is bound to the note and draft as of now; a later switch
	// cancels it rather than redirecting it.
	id, d := c.noteID, c.draft
	c.debounce.Arm(id, c.delay, func(tag string) {
		c.commit(tag, d, "debounce")
	})
	c.statusClear.Cancel()
	c.state = StatePending
	changed := c.setStatusLocked(StatusSaving)
	c.mu.Unlock()

	c.emit(changed, StatusSaving)
	return true
}

// Flush commits the current draft immediately, bypassing the debounce. It
// reports false when no note is loaded or there is nothing unsaved.
func (c *Coordinator) Flush() bool {
	c.mu.Lock()
	if c.noteID == "" || !c.dirtyLocked() {
		c.mu.Unlock()
		return false
	}
	c.debounce.Cancel()
	id, d := c.noteID, c.draft
	c.mu.Unlock()

	c.commit(id, d, "flush")
	return true
}

func (c *Coordinator) commit(noteID string, d draft, reason string) {
	c.mu.Lock()
	if c.noteID != noteID {
		c.mu.Unlock()
		return
	}
	c.store.UpdateNote(noteID, store.Patch{Title: &d.title, Content: &d.content})

	status := StatusSaved
	if err := c.store.PersistErr(); err != nil {
		status = StatusFailed
		c.logger.Warn("autosave commit not persisted",
			zap.String(logging.FieldNoteID, noteID), zap.Error(err))
	} else {
		c.logger.Debug("autosave committed",
			zap.String(logging.FieldNoteID, noteID), zap.String(logging.FieldAction, reason))
	}
	c.state = StateIdle
	changed := c.setStatusLocked(status)
	if changed {
		c.logger.Debug("status", zap.String(logging.FieldStatus, string(status)))
	}
	if status == StatusSaved && c.savedDisplay > 0 {
		c.statusClear.Arm(noteID, c.savedDisplay, func(string) { c.clearStatus(StatusSaved) })
	}
	c.mu.Unlock()

	c.emit(changed, status)
}

func (c *Coordinator) clearStatus(from Status) {
	c.mu.Lock()
	if c.status != from {
		c.mu.Unlock()
		return
	}
	changed := c.setStatusLocked(StatusNone)
	c.mu.Unlock()
	c.emit(changed, StatusNone)
}

func (c *Coordinator) setStatusLocked(s Status) bool {
	if c.status == s {
		return false
	}
	c.status = s
	return true
}

func (c *Coordinator) emit(changed bool, s Status) {
	if changed && c.onStatus != nil {
		c.onStatus(s)
	}
}

func (c *Coordinator) dirtyLocked() bool {
	n, ok := c.store.NoteByID(c.noteID)
	if !ok {
		return false
	}
	return n.Title != c.draft.title || n.Content != c.draft.content
}

// Dirty reports whether the draft differs from the stored note.
func (c *Coordinator) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.noteID != "" && c.dirtyLocked()
}

// NoteID returns the id of the loaded note, or "".
func (c *Coordinator) NoteID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.noteID
}

// Draft returns the current unsaved title and content.
func (c *Coordinator) Draft() (title, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.title, c.draft.content
}

// State returns idle or pending.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status returns the last reported status.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}
