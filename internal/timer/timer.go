package timer

import (
	"sync"
	"time"
)

// Timer is a single-shot timer that remembers the tag it was armed with.
// Arming replaces any previous arming, so at most one callback is live.
// A callback whose arming was cancelled or replaced never runs, even if the
// underlying clock already fired it.
type Timer struct {
	clock Clock

	mu      sync.Mutex
	gen     uint64
	tag     string
	stopper Stopper
	armed   bool
}

// New returns an idle Timer driven by clock (Real when nil).
func New(clock Clock) *Timer {
	if clock == nil {
		clock = Real
	}
	return &Timer{clock: clock}
}

// Arm schedules fn(tag) after d, cancelling any earlier arming.
func (t *Timer) Arm(tag string, d time.Duration, fn func(tag string)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.gen++
	gen := t.gen
	t.tag = tag
	t.armed = true
	t.stopper = t.clock.AfterFunc(d, func() {
		t.mu.Lock()
		if !t.armed || t.gen != gen {
			t.mu.Unlock()
			return
		}
		t.armed = false
		t.stopper = nil
		t.mu.Unlock()

		fn(tag)
	})
}

// Cancel drops the pending callback, if any. It reports whether one was pending.
func (t *Timer) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := t.armed
	t.stopLocked()
	t.gen++
	return was
}

// Pending reports whether a callback is scheduled.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed
}

// Tag returns the tag of the pending arming, or "" when idle.
func (t *Timer) Tag() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.armed {
		return ""
	}
	return t.tag
}

func (t *Timer) stopLocked() {
	if t.stopper != nil {
		t.stopper.Stop()
		t.stopper = nil
	}
	t.armed = false
	t.tag = ""
}
