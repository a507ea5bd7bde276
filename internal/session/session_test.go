package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/notedesk/internal/assistant"
	"github.com/rcliao/notedesk/internal/autosave"
	"github.com/rcliao/notedesk/internal/model"
	"github.com/rcliao/notedesk/internal/shortcut"
	"github.com/rcliao/notedesk/internal/store"
	"github.com/rcliao/notedesk/internal/timer"
)

type firstRand struct{}

func (firstRand) Intn(int) int { return 0 }

type replies struct {
	mu  sync.Mutex
	got []model.Message
}

func (r *replies) add(_ string, m model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, m)
}

func (r *replies) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

type fixture struct {
	store   *store.Store
	clock   *timer.FakeClock
	sess    *Session
	replies *replies
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.Open(context.Background(), store.NewMemorySlot())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := timer.NewFakeClock(time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC))
	r := &replies{}
	sess := New(s, Options{
		Clock:        clock,
		Matcher:      assistant.NewMatcher(nil, firstRand{}),
		SavedDisplay: autosave.DefaultSavedDisplay,
		OnReply:      r.add,
	})
	t.Cleanup(sess.Close)
	return &fixture{store: s, clock: clock, sess: sess, replies: r}
}

func (f *fixture) note(t *testing.T, id string) model.Note {
	t.Helper()
	n, ok := f.store.NoteByID(id)
	require.True(t, ok)
	return n
}

func TestOpenActiveNote(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.Open(""))
	assert.Equal(t, f.store.ActiveNoteID(), f.sess.NoteID())

	title, _ := f.sess.Draft()
	assert.Equal(t, f.note(t, f.sess.NoteID()).Title, title)
}

func TestOpenUnknownNote(t *testing.T) {
	f := newFixture(t)
	err := f.sess.Open("missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, "", f.sess.NoteID())
}

func TestOpenMakesNoteActive(t *testing.T) {
	f := newFixture(t)
	first := f.store.AddNote("First")
	f.store.AddNote("Second")

	require.NoError(t, f.sess.Open(first))
	assert.Equal(t, first, f.store.ActiveNoteID())
}

func TestEditsAreAutosaved(t *testing.T) {
	f := newFixture(t)
	id := f.store.AddNote("Draft")
	require.NoError(t, f.sess.Open(id))

	require.NoError(t, f.sess.EditContent("<p>hello</p>"))
	assert.Equal(t, autosave.StatusSaving, f.sess.Status())
	assert.True(t, f.sess.Dirty())

	f.clock.Advance(autosave.DefaultDelay)
	assert.Equal(t, "<p>hello</p>", f.note(t, id).Content)
	assert.Equal(t, autosave.StatusSaved, f.sess.Status())
}

func TestEditWithoutOpenNote(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.sess.EditContent("x"), store.ErrNotFound)
}

func TestTitleLimit(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.Open(""))
	long := "0123456789012345678901234567890123456789012345678901"
	assert.ErrorIs(t, f.sess.EditTitle(long), store.ErrValidation)
	assert.NoError(t, f.sess.EditTitle(long[:50]))
}

func TestCtrlSFlushes(t *testing.T) {
	f := newFixture(t)
	id := f.store.AddNote("Draft")
	require.NoError(t, f.sess.Open(id))
	require.NoError(t, f.sess.EditTitle("Saved now"))

	ev := &shortcut.KeyEvent{Key: "s", Ctrl: true}
	assert.True(t, f.sess.Key(ev))
	assert.True(t, ev.Prevented)
	assert.Equal(t, "Saved now", f.note(t, id).Title)
	assert.False(t, f.sess.Dirty())

	ev = &shortcut.KeyEvent{Key: "s", Meta: true}
	assert.True(t, f.sess.Key(ev), "no edits, still consumed")
	assert.True(t, ev.Prevented)
}

func TestViewAndChatToggles(t *testing.T) {
	f := newFixture(t)
	id := f.store.AddNote("Draft")
	require.NoError(t, f.sess.Open(id))
	require.NoError(t, f.sess.EditContent("<p><strong>bold</strong> move</p>"))

	assert.Equal(t, ViewRich, f.sess.View())
	assert.Equal(t, "<p><strong>bold</strong> move</p>", f.sess.Body())

	f.sess.Key(&shortcut.KeyEvent{Key: "M", Ctrl: true})
	assert.Equal(t, ViewMarkdown, f.sess.View())
	assert.Contains(t, f.sess.Body(), "**bold**")

	f.sess.Key(&shortcut.KeyEvent{Key: "m", Meta: true})
	assert.Equal(t, ViewRich, f.sess.View())

	assert.False(t, f.sess.ChatOpen())
	f.sess.Key(&shortcut.KeyEvent{Key: "/", Ctrl: true})
	assert.True(t, f.sess.ChatOpen())
}

func TestSwitchDropsPendingEdit(t *testing.T) {
	f := newFixture(t)
	first := f.store.AddNote("First")
	second := f.store.AddNote("Second")

	require.NoError(t, f.sess.Open(first))
	require.NoError(t, f.sess.EditContent("half typed"))
	require.NoError(t, f.sess.SwitchNote(second))
	f.clock.Advance(10 * time.Second)

	assert.Equal(t, "", f.note(t, first).Content)
	assert.Equal(t, "", f.note(t, second).Content)
	assert.Equal(t, second, f.store.ActiveNoteID())
}

func TestAskRepliesAfterThinkingDelay(t *testing.T) {
	f := newFixture(t)
	id := f.store.AddNote("Chat")
	require.NoError(t, f.sess.Open(id))

	msg, err := f.sess.Ask("hello")
	require.NoError(t, err)
	assert.Equal(t, model.SenderUser, msg.Sender)
	assert.True(t, f.sess.Typing())
	assert.Len(t, f.note(t, id).ChatHistory, 1)

	f.clock.Advance(assistant.ThinkingDelay("hello") - time.Millisecond)
	assert.Len(t, f.note(t, id).ChatHistory, 1)

	f.clock.Advance(time.Millisecond)
	history := f.note(t, id).ChatHistory
	require.Len(t, history, 2)
	assert.Equal(t, model.SenderBot, history[1].Sender)
	assert.Equal(t, assistant.DefaultRules().Greeting.Reply, history[1].Content)
	assert.False(t, f.sess.Typing())
	assert.Equal(t, 1, f.replies.len())
}

func TestAskUsesEarlierUtterancesAsContext(t *testing.T) {
	f := newFixture(t)
	id := f.store.AddNote("Chat")
	require.NoError(t, f.sess.Open(id))

	_, err := f.sess.Ask("I want to organize my notes")
	require.NoError(t, err)
	f.clock.Advance(3 * time.Second)

	_, err = f.sess.Ask("ok, go on")
	require.NoError(t, err)
	f.clock.Advance(3 * time.Second)

	history := f.note(t, id).ChatHistory
	require.Len(t, history, 4)
	rules := assistant.DefaultRules()
	assert.Equal(t, rules.Context[0].Reply, history[3].Content)
}

func TestReaskReplacesPendingReply(t *testing.T) {
	f := newFixture(t)
	id := f.store.AddNote("Chat")
	require.NoError(t, f.sess.Open(id))

	_, err := f.sess.Ask("hello")
	require.NoError(t, err)
	_, err = f.sess.Ask("thanks")
	require.NoError(t, err)
	f.clock.Advance(3 * time.Second)

	history := f.note(t, id).ChatHistory
	require.Len(t, history, 3)
	assert.Equal(t, assistant.DefaultRules().Gratitude.Reply, history[2].Content)
}

func TestSwitchToOpenNoteKeepsDraft(t *testing.T) {
	f := newFixture(t)
	id := f.store.AddNote("Draft")
	require.NoError(t, f.sess.Open(id))

	require.NoError(t, f.sess.EditContent("<p>still typing</p>"))
	require.NoError(t, f.sess.SwitchNote(id))
	_, content := f.sess.Draft()
	assert.Equal(t, "<p>still typing</p>", content)
	assert.True(t, f.sess.Dirty())

	f.clock.Advance(autosave.DefaultDelay)
	assert.Equal(t, "<p>still typing</p>", f.note(t, id).Content)
}

func TestSwitchCancelsPendingReply(t *testing.T) {
	f := newFixture(t)
	first := f.store.AddNote("First")
	second := f.store.AddNote("Second")
	require.NoError(t, f.sess.Open(first))

	_, err := f.sess.Ask("hello")
	require.NoError(t, err)
	require.NoError(t, f.sess.SwitchNote(second))
	f.clock.Advance(3 * time.Second)

	assert.Len(t, f.note(t, first).ChatHistory, 1)
	assert.Empty(t, f.note(t, second).ChatHistory)
	assert.Zero(t, f.replies.len())
}

func TestAskValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.sess.Ask("hello")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, f.sess.Open(""))
	_, err = f.sess.Ask("   ")
	assert.ErrorIs(t, err, store.ErrValidation)
}

func TestCloseCancelsEverything(t *testing.T) {
	f := newFixture(t)
	id := f.store.AddNote("Draft")
	require.NoError(t, f.sess.Open(id))
	require.NoError(t, f.sess.EditContent("unsaved"))
	_, err := f.sess.Ask("hello")
	require.NoError(t, err)

	f.sess.Close()
	f.clock.Advance(10 * time.Second)

	n := f.note(t, id)
	assert.Equal(t, "", n.Content)
	assert.Len(t, n.ChatHistory, 1)
	assert.False(t, f.sess.Key(&shortcut.KeyEvent{Key: "m", Ctrl: true}))
	assert.ErrorIs(t, f.sess.Open(id), ErrClosed)
}
