// Package idgen produces unique, time-sortable identifiers for notes and messages.
package idgen

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator hands out ULIDs. The zero value is not usable; call New.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// New returns a Generator seeded from the current time.
func New() *Generator {
	return NewWithSource(rand.NewSource(time.Now().UnixNano()), time.Now)
}

// NewWithSource returns a Generator using the given entropy source and clock.
func NewWithSource(src rand.Source, now func() time.Time) *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.New(src), 0),
		now:     now,
	}
}

// NewID returns a fresh identifier. Ids generated within the same millisecond
// still sort in generation order.
func (g *Generator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
}
