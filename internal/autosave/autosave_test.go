package autosave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/notedesk/internal/model"
	"github.com/rcliao/notedesk/internal/store"
	"github.com/rcliao/notedesk/internal/timer"
)

type statusLog struct {
	mu  sync.Mutex
	got []Status
}

func (l *statusLog) record(s Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.got = append(l.got, s)
}

func (l *statusLog) all() []Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Status(nil), l.got...)
}

type fixture struct {
	store  *store.Store
	slot   *store.MemorySlot
	clock  *timer.FakeClock
	coord  *Coordinator
	status *statusLog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	slot := store.NewMemorySlot()
	s, err := store.Open(context.Background(), slot)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := timer.NewFakeClock(time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC))
	log := &statusLog{}
	c := New(s, Options{
		Delay:        DefaultDelay,
		SavedDisplay: DefaultSavedDisplay,
		Clock:        clock,
		OnStatus:     log.record,
	})
	t.Cleanup(c.Close)
	return &fixture{store: s, slot: slot, clock: clock, coord: c, status: log}
}

func (f *fixture) note(t *testing.T, id string) model.Note {
	t.Helper()
	n, ok := f.store.NoteByID(id)
	require.True(t, ok, "note %s missing", id)
	return n
}

func TestEditBeforeLoadIsIgnored(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.coord.EditContent("orphan"))
	assert.Equal(t, 0, f.clock.Pending())
	assert.Equal(t, StateIdle, f.coord.State())
}

func TestDebounceCollapsesBurstIntoOneCommit(t *testing.T) {
	f := newFixture(t)
	id := f.store.AddNote("Draft")
	f.coord.Load(f.note(t, id))
	saves := f.slot.Saves

	for _, text := range []string{"a", "ab", "abc"} {
		require.True(t, f.coord.EditContent(text))
		f.clock.Advance(400 * time.Millisecond)
	}
	assert.Equal(t, saves, f.slot.Saves, "no commit while typing")
	assert.Equal(t, StatePending, f.coord.State())
	assert.Equal(t, StatusSaving, f.coord.Status())
	assert.Equal(t, "", f.note(t, id).Content)

	f.clock.Advance(600 * time.Millisecond)
	assert.Equal(t, saves+1, f.slot.Saves)
	assert.Equal(t, "abc", f.note(t, id).Content)
	assert.Equal(t, StateIdle, f.coord.State())
	assert.Equal(t, StatusSaved, f.coord.Status())
	assert.False(t, f.coord.Dirty())
}

func TestCommitWaitsFullDelayAfterLastEdit(t *testing.T) {
	f := newFixture(t)
	id := f.store.AddNote("Draft")
	f.coord.Load(f.note(t, id))

	f.coord.EditTitle("Renamed")
	f.clock.Advance(999 * time.Millisecond)
	assert.Equal(t, "Draft", f.note(t, id).Title)

	f.clock.Advance(time.Millisecond)
	assert.Equal(t, "Renamed", f.note(t, id).Title)
}

func TestSwitchingNotesDropsPendingSave(t *testing.T) {
	f := newFixture(t)
	first := f.store.AddNote("First")
	second := f.store.AddNote("Second")

	f.coord.Load(f.note(t, first))
	f.coord.EditContent("typed into first")
	f.clock.Advance(500 * time.Millisecond)

	f.coord.Load(f.note(t, second))
	f.clock.Advance(5 * time.Second)

	assert.Equal(t, "", f.note(t, first).Content)
	assert.Equal(t, "", f.note(t, second).Content, "edit must not leak into the new note")
	assert.Equal(t, second, f.coord.NoteID())
	assert.Equal(t, StatusNone, f.coord.Status())
}

func TestCommitTargetsNoteCapturedAtArmTime(t *testing.T) {
	f := newFixture(t)
	id := f.store.AddNote("Target")
	f.coord.Load(f.note(t, id))
	f.coord.EditContent("kept")

	// Another note becoming active in the store does not redirect the save.
	other := f.store.AddNote("Other")
	require.Equal(t, other, f.store.ActiveNoteID())

	f.clock.Advance(DefaultDelay)
	assert.Equal(t, "kept", f.note(t, id).Content)
	assert.Equal(t, "", f.note(t, other).Content)
}

func TestFlushCommitsImmediately(t *testing.T) {
	f := newFixture(t)
	id := f.store.AddNote("Draft")
	f.coord.Load(f.note(t, id))

	assert.False(t, f.coord.Flush(), "nothing to flush")

	f.coord.EditContent("now")
	assert.True(t, f.coord.Dirty())
	assert.True(t, f.coord.Flush())
	assert.Equal(t, "now", f.note(t, id).Content)
	assert.Equal(t, StatusSaved, f.coord.Status())

	saves := f.slot.Saves
	f.clock.Advance(DefaultDelay)
	assert.Equal(t, saves, f.slot.Saves, "cancelled debounce must not fire")
}

func TestSavedStatusClears(t *testing.T) {
	f := newFixture(t)
	id := f.store.AddNote("Draft")
	f.coord.Load(f.note(t, id))

	f.coord.EditContent("x")
	f.clock.Advance(DefaultDelay)
	require.Equal(t, StatusSaved, f.coord.Status())

	f.clock.Advance(DefaultSavedDisplay)
	assert.Equal(t, StatusNone, f.coord.Status())
	assert.Equal(t, []Status{StatusSaving, StatusSaved, StatusNone}, f.status.all())
}

func TestNewEditCancelsSavedClear(t *testing.T) {
	f := newFixture(t)
	id := f.store.AddNote("Draft")
	f.coord.Load(f.note(t, id))

	f.coord.EditContent("x")
	f.clock.Advance(DefaultDelay)
	f.coord.EditContent("xy")
	f.clock.Advance(DefaultSavedDisplay)
	assert.Equal(t, StatusSaved, f.coord.Status())
	assert.Equal(t, "xy", f.note(t, id).Content)
}

func TestFailedPersistReportsFailed(t *testing.T) {
	f := newFixture(t)
	id := f.store.AddNote("Draft")
	f.coord.Load(f.note(t, id))
	f.slot.FailSave = errors.New("quota exceeded")

	f.coord.EditContent("unsaved")
	f.clock.Advance(DefaultDelay)

	assert.Equal(t, StatusFailed, f.coord.Status())
	// The in-memory state still took the edit.
	assert.Equal(t, "unsaved", f.note(t, id).Content)

	f.clock.Advance(DefaultSavedDisplay)
	assert.Equal(t, StatusFailed, f.coord.Status(), "failed status stays until the next edit")
}

func TestCloseDropsPendingEdit(t *testing.T) {
	f := newFixture(t)
	id := f.store.AddNote("Draft")
	f.coord.Load(f.note(t, id))
	f.coord.EditContent("lost")

	f.coord.Close()
	f.clock.Advance(DefaultDelay)
	assert.Equal(t, "", f.note(t, id).Content)
	assert.Equal(t, "", f.coord.NoteID())
}

func TestDraftTracksEdits(t *testing.T) {
	f := newFixture(t)
	id := f.store.AddNote("Draft")
	f.coord.Load(f.note(t, id))
	f.coord.EditTitle("T")
	f.coord.EditContent("C")

	title, content := f.coord.Draft()
	assert.Equal(t, "T", title)
	assert.Equal(t, "C", content)

	f.clock.Advance(DefaultDelay)
	n := f.note(t, id)
	assert.Equal(t, "T", n.Title)
	assert.Equal(t, "C", n.Content)
}
