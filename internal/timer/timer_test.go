package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func TestTimerFiresWithArmedTag(t *testing.T) {
	clock := NewFakeClock(epoch)
	tm := New(clock)

	var fired []string
	tm.Arm("note-a", time.Second, func(tag string) { fired = append(fired, tag) })
	assert.True(t, tm.Pending())
	assert.Equal(t, "note-a", tm.Tag())

	clock.Advance(999 * time.Millisecond)
	assert.Empty(t, fired)

	clock.Advance(time.Millisecond)
	assert.Equal(t, []string{"note-a"}, fired)
	assert.False(t, tm.Pending())
	assert.Equal(t, "", tm.Tag())
}

func TestTimerRearmReplacesPrevious(t *testing.T) {
	clock := NewFakeClock(epoch)
	tm := New(clock)

	var fired []string
	record := func(tag string) { fired = append(fired, tag) }

	tm.Arm("a", time.Second, record)
	clock.Advance(500 * time.Millisecond)
	tm.Arm("b", time.Second, record)
	clock.Advance(600 * time.Millisecond)
	assert.Empty(t, fired, "first arming must not fire after re-arm")

	clock.Advance(400 * time.Millisecond)
	assert.Equal(t, []string{"b"}, fired)
	assert.Equal(t, 0, clock.Pending())
}

func TestTimerCancel(t *testing.T) {
	clock := NewFakeClock(epoch)
	tm := New(clock)

	called := false
	tm.Arm("a", time.Second, func(string) { called = true })
	require.True(t, tm.Cancel())
	assert.False(t, tm.Cancel())

	clock.Advance(2 * time.Second)
	assert.False(t, called)
	assert.False(t, tm.Pending())
}

func TestTimerStaleFireIsDropped(t *testing.T) {
	clock := NewFakeClock(epoch)
	tm := New(clock)

	called := false
	tm.Arm("a", time.Second, func(string) { called = true })

	// Simulate the clock having already dispatched the callback before the
	// cancel landed: grab it, cancel, then run it by hand.
	clock.mu.Lock()
	stale := clock.pending[0].fn
	clock.mu.Unlock()

	tm.Cancel()
	stale()
	assert.False(t, called)
}

func TestRealClockTimer(t *testing.T) {
	tm := New(nil)
	done := make(chan string, 1)
	tm.Arm("real", 10*time.Millisecond, func(tag string) { done <- tag })

	select {
	case tag := <-done:
		assert.Equal(t, "real", tag)
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}
