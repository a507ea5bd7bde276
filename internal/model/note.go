// Package model defines the core note data types.
package model

import (
	"encoding/json"
	"time"
)

const (
	// DefaultTitle is used when a note is created without a title.
	DefaultTitle = "Untitled Note"

	// MaxTitleLength caps titles at input boundaries. The store does not enforce it.
	MaxTitleLength = 50
)

// Sender identifies the author of a chat message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// ValidSenders are the accepted message senders. "ai" is a legacy alias for bot.
var ValidSenders = map[Sender]bool{
	SenderUser: true,
	SenderBot:  true,
}

// UnmarshalJSON folds the "ai" alias into SenderBot.
func (s *Sender) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == "ai" {
		raw = string(SenderBot)
	}
	*s = Sender(raw)
	return nil
}

// Message is a single chat entry attached to a note.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// Note is a user document with rich-text content and its own chat history.
type Note struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ChatHistory []Message `json:"chatHistory"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Clone returns a copy of n that shares no slices with it.
func (n Note) Clone() Note {
	if n.ChatHistory != nil {
		n.ChatHistory = append([]Message(nil), n.ChatHistory...)
	}
	return n
}

// State is the persisted snapshot of the note collection.
type State struct {
	Notes        []Note  `json:"notes"`
	ActiveNoteID *string `json:"activeNoteId"`
}

// Active returns the active note id, or "" when none is selected.
func (s State) Active() string {
	if s.ActiveNoteID == nil {
		return ""
	}
	return *s.ActiveNoteID
}
