package store

import "context"

// Slot is a single durable key-value cell holding the serialized note
// snapshot. Implementations must make Save atomic: after a crash the slot
// holds either the previous or the new snapshot, never a torn one.
type Slot interface {
	// Load returns the stored snapshot, or ErrNoSnapshot on first run.
	Load(ctx context.Context) ([]byte, error)

	// Save replaces the stored snapshot.
	Save(ctx context.Context, data []byte) error

	// Backend names the implementation for stats and logs.
	Backend() string

	// Close releases the underlying handle.
	Close() error
}

// MemorySlot keeps the snapshot in memory. Useful for tests and for running
// without any durable storage.
type MemorySlot struct {
	data []byte
	// FailSave, when set, is returned by Save.
	FailSave error
	// Saves counts successful writes.
	Saves int
}

func NewMemorySlot() *MemorySlot { return &MemorySlot{} }

func (m *MemorySlot) Load(ctx context.Context) ([]byte, error) {
	if m.data == nil {
		return nil, ErrNoSnapshot
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemorySlot) Save(ctx context.Context, data []byte) error {
	if m.FailSave != nil {
		return unavailable(m.FailSave, "memory save")
	}
	m.data = append([]byte(nil), data...)
	m.Saves++
	return nil
}

func (m *MemorySlot) Backend() string { return "memory" }

func (m *MemorySlot) Close() error { return nil }
