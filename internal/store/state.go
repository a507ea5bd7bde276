package store

import (
	"strings"
	"time"

	"github.com/rcliao/notedesk/internal/markup"
	"github.com/rcliao/notedesk/internal/model"
)

// Patch lists the fields UpdateNote may change. Nil fields are left alone.
type Patch struct {
	Title       *string
	Content     *string
	ChatHistory []model.Message
	// SetChat distinguishes "replace history with an empty slice" from "leave it".
	SetChat bool
}

// TitlePatch is a convenience for a title-only Patch.
func TitlePatch(title string) Patch { return Patch{Title: &title} }

// ContentPatch is a convenience for a content-only Patch.
func ContentPatch(content string) Patch { return Patch{Content: &content} }

// MessageInput is the caller-supplied part of a new chat message.
type MessageInput struct {
	Content string
	Sender  model.Sender
}

// The functions below are pure: they never modify the State they are given
// and return a fresh State sharing no mutable slices with the input.

func cloneState(s model.State) model.State {
	out := model.State{Notes: make([]model.Note, len(s.Notes))}
	for i, n := range s.Notes {
		out.Notes[i] = n.Clone()
	}
	if s.ActiveNoteID != nil {
		id := *s.ActiveNoteID
		out.ActiveNoteID = &id
	}
	return out
}

func indexOf(s model.State, id string) int {
	for i, n := range s.Notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// NormalizeTitle applies the default title to blank input.
func NormalizeTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return model.DefaultTitle
	}
	return title
}

// AddNote appends a new empty note with the given id and makes it active.
func AddNote(s model.State, id, title string, now time.Time) model.State {
	out := cloneState(s)
	out.Notes = append(out.Notes, model.Note{
		ID:          id,
		Title:       NormalizeTitle(title),
		Content:     "",
		ChatHistory: []model.Message{},
		LastUpdated: now,
	})
	out.ActiveNoteID = &id
	return out
}

// UpdateNote applies p to the note with the given id. The second result is
// false, and the input is returned untouched, when the note does not exist or
// nothing in p differs from the stored values.
func UpdateNote(s model.State, id string, p Patch, now time.Time) (model.State, bool) {
	i := indexOf(s, id)
	if i < 0 {
		return s, false
	}
	cur := s.Notes[i]

	changed := false
	if p.Title != nil && *p.Title != cur.Title {
		changed = true
	}
	if p.Content != nil && *p.Content != cur.Content {
		changed = true
	}
	if p.SetChat && !sameHistory(p.ChatHistory, cur.ChatHistory) {
		changed = true
	}
	if !changed {
		return s, false
	}

	out := cloneState(s)
	n := &out.Notes[i]
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.SetChat {
		n.ChatHistory = append([]model.Message{}, p.ChatHistory...)
	}
	n.LastUpdated = now
	return out, true
}

func sameHistory(a, b []model.Message) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Content != b[i].Content ||
			a[i].Sender != b[i].Sender || !a[i].Timestamp.Equal(b[i].Timestamp) {
			return false
		}
	}
	return true
}

// DeleteNote removes the note. If it was active, the first remaining note
// becomes active, or none when the collection is empty.
func DeleteNote(s model.State, id string) (model.State, bool) {
	i := indexOf(s, id)
	if i < 0 {
		return s, false
	}
	out := cloneState(s)
	out.Notes = append(out.Notes[:i], out.Notes[i+1:]...)
	if out.Active() == id {
		out.ActiveNoteID = nil
		if len(out.Notes) > 0 {
			first := out.Notes[0].ID
			out.ActiveNoteID = &first
		}
	}
	return out, true
}

// SetActiveNote selects id. Unknown ids are ignored so the active reference
// always points at an existing note.
func SetActiveNote(s model.State, id string) (model.State, bool) {
	if indexOf(s, id) < 0 || s.Active() == id {
		return s, false
	}
	out := cloneState(s)
	out.ActiveNoteID = &id
	return out, true
}

// AddMessage appends a message with the given id and timestamp now. An
// unknown sender or note id changes nothing.
func AddMessage(s model.State, noteID, msgID string, in MessageInput, now time.Time) (model.State, bool) {
	i := indexOf(s, noteID)
	if i < 0 || !model.ValidSenders[in.Sender] {
		return s, false
	}
	out := cloneState(s)
	n := &out.Notes[i]
	n.ChatHistory = append(n.ChatHistory, model.Message{
		ID:        msgID,
		Content:   in.Content,
		Sender:    in.Sender,
		Timestamp: now,
	})
	n.LastUpdated = now
	return out, true
}

// Repair restores the active-note invariant on a decoded snapshot: a
// dangling reference falls back to the first note, or none.
func Repair(s model.State) model.State {
	if s.Notes == nil {
		s.Notes = []model.Note{}
	}
	for i := range s.Notes {
		if s.Notes[i].ChatHistory == nil {
			s.Notes[i].ChatHistory = []model.Message{}
		}
	}
	if s.ActiveNoteID != nil && indexOf(s, *s.ActiveNoteID) >= 0 {
		return s
	}
	s.ActiveNoteID = nil
	if len(s.Notes) > 0 {
		first := s.Notes[0].ID
		s.ActiveNoteID = &first
	}
	return s
}

// ActiveNote returns the active note.
func ActiveNote(s model.State) (model.Note, bool) {
	if s.ActiveNoteID == nil {
		return model.Note{}, false
	}
	return NoteByID(s, *s.ActiveNoteID)
}

// NoteByID looks up a note.
func NoteByID(s model.State, id string) (model.Note, bool) {
	i := indexOf(s, id)
	if i < 0 {
		return model.Note{}, false
	}
	return s.Notes[i].Clone(), true
}

// FilteredNotes returns notes whose title or tag-stripped content contains
// term, case-insensitively, in insertion order. A blank term matches all;
// otherwise the term is matched as typed, surrounding spaces included.
func FilteredNotes(s model.State, term string) []model.Note {
	out := make([]model.Note, 0, len(s.Notes))
	blank := strings.TrimSpace(term) == ""
	term = strings.ToLower(term)
	for _, n := range s.Notes {
		if blank ||
			strings.Contains(strings.ToLower(n.Title), term) ||
			strings.Contains(strings.ToLower(markup.Strip(n.Content)), term) {
			out = append(out, n.Clone())
		}
	}
	return out
}
