package store

import (
	"time"

	"github.com/rcliao/notedesk/internal/model"
)

type seedNote struct {
	title   string
	content string
}

var seedNotes = []seedNote{
	{
		title: "Welcome to Notes",
		content: "<h1>Welcome to Notes</h1>" +
			"<p>This is your first note. Start typing to edit it; changes are saved automatically.</p>" +
			"<ul><li>Press <strong>Ctrl+S</strong> to save right away</li>" +
			"<li>Press <strong>Ctrl+M</strong> to switch to the markdown preview</li>" +
			"<li>Press <strong>Ctrl+/</strong> to open the assistant</li></ul>",
	},
	{
		title: "Study Plan",
		content: "<h2>This week</h2>" +
			"<ul><li>Review lecture notes</li><li>Summarize chapter 3</li></ul>" +
			"<p>Ask the assistant for study techniques or note templates.</p>",
	},
}

// SeedState builds the first-run state: the default notes with the first
// one active.
func SeedState(newID func() string, now time.Time) model.State {
	s := model.State{Notes: []model.Note{}}
	for _, sn := range seedNotes {
		s.Notes = append(s.Notes, model.Note{
			ID:          newID(),
			Title:       sn.title,
			Content:     sn.content,
			ChatHistory: []model.Message{},
			LastUpdated: now,
		})
	}
	first := s.Notes[0].ID
	s.ActiveNoteID = &first
	return s
}
