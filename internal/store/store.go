// Package store owns the note collection, the active-note selection and
// their durable snapshot.
//
// Every mutation is a pure transition over model.State (see state.go); the
// Store applies it and then synchronously writes the full snapshot to its
// Slot. Persistence is best effort: a failed write is logged and recorded
// but never surfaced to the caller, and memory stays authoritative. A store
// whose snapshot could not be read is detached: it keeps working in memory
// but leaves the slot untouched until a Reload succeeds.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rcliao/notedesk/internal/idgen"
	"github.com/rcliao/notedesk/internal/logging"
	"github.com/rcliao/notedesk/internal/model"
)

// IDGenerator hands out unique ids.
type IDGenerator interface {
	NewID() string
}

// Store is the single source of truth for notes.
type Store struct {
	mu         sync.Mutex
	state      model.State
	slot       Slot
	ids        IDGenerator
	now        func() time.Time
	logger     *zap.Logger
	persistErr error
	// detached holds the load or decode error while the slot contents could
	// not be read. Writes are skipped until a successful Reload.
	detached error
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = logging.OrNop(l) }
}

// WithIDGenerator replaces the default ULID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) { s.ids = g }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open restores the store from slot, seeding it with the default notes on
// first run. If the slot cannot be read or decoded the returned Store is
// still usable: it starts from the seed state in memory, never writes to the
// slot, and the error is returned alongside it.
func Open(ctx context.Context, slot Slot, opts ...Option) (*Store, error) {
	s := &Store{
		slot:   slot,
		ids:    idgen.New(),
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	data, err := slot.Load(ctx)
	switch {
	case errors.Is(err, ErrNoSnapshot):
		s.state = SeedState(s.ids.NewID, s.now())
		s.logger.Info("seeded first-run notes", zap.Int(logging.FieldCount, len(s.state.Notes)))
		s.persistLocked("seed")
		return s, nil
	case err != nil:
		s.state = SeedState(s.ids.NewID, s.now())
		s.detach(err)
		s.logger.Error("load snapshot failed, continuing in memory",
			zap.String(logging.FieldBackend, slot.Backend()), zap.Error(err))
		return s, err
	}

	st, err := Decode(data)
	if err != nil {
		s.state = SeedState(s.ids.NewID, s.now())
		s.detach(err)
		s.logger.Error("decode snapshot failed, continuing in memory", zap.Error(err))
		return s, err
	}
	s.state = st
	s.logger.Debug("restored snapshot",
		zap.String(logging.FieldBackend, slot.Backend()),
		zap.Int(logging.FieldCount, len(st.Notes)))
	return s, nil
}

// Decode parses a snapshot and repairs the active-note reference.
func Decode(data []byte) (model.State, error) {
	var st model.State
	if err := json.Unmarshal(data, &st); err != nil {
		return model.State{}, unavailable(err, "decode snapshot")
	}
	return Repair(st), nil
}

// Encode serializes a snapshot.
func Encode(st model.State) ([]byte, error) {
	if st.Notes == nil {
		st.Notes = []model.Note{}
	}
	return json.Marshal(st)
}

// apply runs a transition and persists the result when it changed anything.
func (s *Store) apply(action string, fn func(model.State) (model.State, bool)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed := fn(s.state)
	if !changed {
		return false
	}
	s.state = next
	s.persistLocked(action)
	return true
}

func (s *Store) detach(err error) {
	s.detached = err
	s.persistErr = err
}

func (s *Store) persistLocked(action string) {
	if s.detached != nil {
		s.persistErr = s.detached
		s.logger.Warn("snapshot unreadable, change kept in memory only",
			zap.String(logging.FieldAction, action),
			zap.String(logging.FieldBackend, s.slot.Backend()),
			zap.Error(s.detached))
		return
	}
	data, err := Encode(s.state)
	if err == nil {
		err = s.slot.Save(context.Background(), data)
	}
	if err != nil {
		s.persistErr = err
		s.logger.Warn("persist snapshot failed",
			zap.String(logging.FieldAction, action),
			zap.String(logging.FieldBackend, s.slot.Backend()),
			zap.Error(err))
		return
	}
	s.persistErr = nil
	s.logger.Debug("persisted snapshot", zap.String(logging.FieldAction, action))
}

// AddNote creates an empty note, makes it active and returns its id.
// A blank title becomes model.DefaultTitle.
func (s *Store) AddNote(title string) string {
	id := s.ids.NewID()
	s.apply("add_note", func(st model.State) (model.State, bool) {
		return AddNote(st, id, title, s.now()), true
	})
	return id
}

// UpdateNote applies p. It reports false when the note is missing or p
// would not change it; nothing is persisted in that case.
func (s *Store) UpdateNote(id string, p Patch) bool {
	return s.apply("update_note", func(st model.State) (model.State, bool) {
		return UpdateNote(st, id, p, s.now())
	})
}

// DeleteNote removes a note, repairing the active selection.
func (s *Store) DeleteNote(id string) bool {
	return s.apply("delete_note", func(st model.State) (model.State, bool) {
		return DeleteNote(st, id)
	})
}

// SetActiveNote selects a note. Unknown ids are ignored.
func (s *Store) SetActiveNote(id string) bool {
	return s.apply("set_active", func(st model.State) (model.State, bool) {
		return SetActiveNote(st, id)
	})
}

// AddMessage appends a chat message to a note and returns it.
func (s *Store) AddMessage(noteID string, in MessageInput) (model.Message, bool) {
	msgID := s.ids.NewID()
	var added model.Message
	ok := s.apply("add_message", func(st model.State) (model.State, bool) {
		next, ok := AddMessage(st, noteID, msgID, in, s.now())
		if ok {
			n, _ := NoteByID(next, noteID)
			added = n.ChatHistory[len(n.ChatHistory)-1]
		}
		return next, ok
	})
	return added, ok
}

// ActiveNote returns the active note, if any.
func (s *Store) ActiveNote() (model.Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ActiveNote(s.state)
}

// ActiveNoteID returns the active note id, or "".
func (s *Store) ActiveNoteID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Active()
}

// NoteByID looks up a note.
func (s *Store) NoteByID(id string) (model.Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return NoteByID(s.state, id)
}

// FilteredNotes searches titles and tag-stripped content.
func (s *Store) FilteredNotes(term string) []model.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FilteredNotes(s.state, term)
}

// TotalNoteCount returns the number of notes.
func (s *Store) TotalNoteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.Notes)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneState(s.state)
}

// PersistErr returns the error of the last persistence attempt, or nil if it
// succeeded.
func (s *Store) PersistErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistErr
}

// Reload re-reads the slot, replacing the in-memory state. Used when another
// process changed the snapshot. A successful Reload ends detached mode.
func (s *Store) Reload(ctx context.Context) error {
	data, err := s.slot.Load(ctx)
	if err != nil {
		return err
	}
	st, err := Decode(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.state = st
	s.detached = nil
	s.persistErr = nil
	s.mu.Unlock()
	return nil
}

// Detached returns the load error that keeps the store from writing to its
// slot, or nil.
func (s *Store) Detached() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detached
}

// Backend names the slot implementation.
func (s *Store) Backend() string { return s.slot.Backend() }

// Close closes the slot.
func (s *Store) Close() error {
	return s.slot.Close()
}
