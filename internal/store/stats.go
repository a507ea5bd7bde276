package store

import (
	"context"
	"time"
)

// Stats summarizes the store.
type Stats struct {
	Backend      string    `json:"backend"`
	TotalNotes   int       `json:"total_notes"`
	Messages     int       `json:"messages"`
	ActiveNoteID string    `json:"active_note_id,omitempty"`
	LastUpdated  time.Time `json:"last_updated,omitempty"`
	// SlotUpdatedAt is when the backend last accepted a write, for slots
	// that track it.
	SlotUpdatedAt time.Time `json:"slot_updated_at,omitempty"`
	Detached      bool      `json:"detached,omitempty"`
	PersistError  string    `json:"persist_error,omitempty"`
}

// updatedAter is implemented by slots that record their last write time.
type updatedAter interface {
	UpdatedAt(ctx context.Context) (time.Time, error)
}

// Stats returns counts over the current state.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		Backend:      s.slot.Backend(),
		TotalNotes:   len(s.state.Notes),
		ActiveNoteID: s.state.Active(),
		Detached:     s.detached != nil,
	}
	for _, n := range s.state.Notes {
		st.Messages += len(n.ChatHistory)
		if n.LastUpdated.After(st.LastUpdated) {
			st.LastUpdated = n.LastUpdated
		}
	}
	if u, ok := s.slot.(updatedAter); ok {
		if at, err := u.UpdatedAt(context.Background()); err == nil {
			st.SlotUpdatedAt = at
		}
	}
	if s.persistErr != nil {
		st.PersistError = s.persistErr.Error()
	}
	return st
}
