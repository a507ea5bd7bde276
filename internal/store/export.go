package store

import (
	"github.com/rcliao/notedesk/internal/model"
)

// ImportNotes appends notes whose ids are not already present. Notes without
// an id get a fresh one. The active selection is left alone unless nothing
// was selected.
func ImportNotes(s model.State, notes []model.Note, newID func() string) (model.State, int) {
	seen := make(map[string]bool, len(s.Notes))
	for _, n := range s.Notes {
		seen[n.ID] = true
	}

	out := cloneState(s)
	imported := 0
	for _, n := range notes {
		n = n.Clone()
		if n.ID == "" {
			n.ID = newID()
		}
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		n.Title = NormalizeTitle(n.Title)
		if n.ChatHistory == nil {
			n.ChatHistory = []model.Message{}
		}
		out.Notes = append(out.Notes, n)
		imported++
	}
	if imported == 0 {
		return s, 0
	}
	return Repair(out), imported
}

// Import merges notes from an export. Duplicates (same id) are skipped.
func (s *Store) Import(notes []model.Note) int {
	var n int
	s.apply("import", func(st model.State) (model.State, bool) {
		next, count := ImportNotes(st, notes, s.ids.NewID)
		n = count
		return next, count > 0
	})
	return n
}
