package store

import (
	"context"
	"fmt"
	"testing"
	"time"
)

type seqIDs struct{ n int }

func (g *seqIDs) NewID() string {
	g.n++
	return fmt.Sprintf("id-%03d", g.n)
}

type tickClock struct{ t time.Time }

func (c *tickClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newClock() *tickClock {
	return &tickClock{t: time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)}
}

// newTestStore opens a Store over a fresh MemorySlot with deterministic ids
// and clock.
func newTestStore(t *testing.T) (*Store, *MemorySlot) {
	t.Helper()
	slot := NewMemorySlot()
	s, err := Open(context.Background(), slot,
		WithIDGenerator(&seqIDs{}),
		WithClock(newClock().now))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, slot
}
