package store

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/notedesk/internal/model"
)

// applyOps interprets each op by op%4: 0 adds a note, 1 deletes the note at
// index op/4 modulo the current count, 2 rewrites that note's content and 3
// appends a chat message to it, alternating senders.
func applyOps(ops []int) model.State {
	s := model.State{Notes: []model.Note{}}
	ids := &seqIDs{}
	for i, op := range ops {
		if op%4 == 0 || len(s.Notes) == 0 {
			s = AddNote(s, ids.NewID(), fmt.Sprintf("Note %d", op), t0)
			continue
		}
		target := s.Notes[(op/4)%len(s.Notes)].ID
		at := t0.Add(time.Duration(i) * time.Second)
		switch op % 4 {
		case 1:
			s, _ = DeleteNote(s, target)
		case 2:
			s, _ = UpdateNote(s, target, ContentPatch(fmt.Sprintf("<p>draft %d &amp; caf\u00e9 <em>%d</em></p>", op, i)), at)
		case 3:
			sender := model.SenderUser
			if i%2 == 1 {
				sender = model.SenderBot
			}
			s, _ = AddMessage(s, target, ids.NewID(), MessageInput{Content: fmt.Sprintf("msg %d", i), Sender: sender}, at)
		}
	}
	return s
}

// normalize puts times in UTC and empty histories in one shape so decoded
// state compares structurally with the original.
func normalize(s model.State) model.State {
	out := model.State{ActiveNoteID: s.ActiveNoteID, Notes: make([]model.Note, len(s.Notes))}
	for i, n := range s.Notes {
		n = n.Clone()
		n.LastUpdated = n.LastUpdated.UTC()
		if n.ChatHistory == nil {
			n.ChatHistory = []model.Message{}
		}
		for j := range n.ChatHistory {
			n.ChatHistory[j].Timestamp = n.ChatHistory[j].Timestamp.UTC()
		}
		out.Notes[i] = n
	}
	return out
}

func activeIsValid(s model.State) bool {
	if s.ActiveNoteID == nil {
		return len(s.Notes) == 0
	}
	_, ok := NoteByID(s, *s.ActiveNoteID)
	return ok
}

func TestActiveNoteInvariantProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("active note is nil iff empty, otherwise exists", prop.ForAll(
		func(ops []int) bool {
			return activeIsValid(applyOps(ops))
		},
		gen.SliceOf(gen.IntRange(0, 80)),
	))

	properties.Property("filtered notes are a subset of all notes in order", prop.ForAll(
		func(ops []int, term string) bool {
			s := applyOps(ops)
			for i := range s.Notes {
				s, _ = UpdateNote(s, s.Notes[i].ID, ContentPatch("<p>"+term+"</p>"), t0)
			}
			all := FilteredNotes(s, "")
			sub := FilteredNotes(s, term)
			if len(all) != len(s.Notes) {
				return false
			}
			j := 0
			for _, n := range sub {
				for j < len(all) && all[j].ID != n.ID {
					j++
				}
				if j == len(all) {
					return false
				}
				j++
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 20)),
		gen.AlphaString(),
	))

	properties.Property("encode/decode round trip preserves whole notes and selection", prop.ForAll(
		func(ops []int) bool {
			s := applyOps(ops)
			data, err := Encode(s)
			if err != nil {
				return false
			}
			back, err := Decode(data)
			if err != nil || back.Active() != s.Active() {
				return false
			}
			return reflect.DeepEqual(normalize(s).Notes, normalize(back).Notes)
		},
		gen.SliceOf(gen.IntRange(0, 80)),
	))

	properties.TestingRun(t)
}

func TestRoundTripCoversContentAndMessages(t *testing.T) {
	s := applyOps([]int{0, 0, 2, 3, 7, 6})
	data, err := Encode(s)
	require.NoError(t, err)
	back, err := Decode(data)
	require.NoError(t, err)

	var messages int
	for _, n := range back.Notes {
		messages += len(n.ChatHistory)
	}
	assert.Equal(t, 2, messages)
	assert.Contains(t, back.Notes[0].Content, "caf\u00e9")
	assert.Equal(t, normalize(s), normalize(back))
}
