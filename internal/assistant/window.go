package assistant

// DefaultWindow is how many prior utterances feed the context rules.
const DefaultWindow = 5

// Window keeps the most recent utterances, oldest first.
type Window struct {
	max   int
	items []string
}

// NewWindow returns an empty Window holding at most max entries
// (DefaultWindow when max <= 0).
func NewWindow(max int) *Window {
	if max <= 0 {
		max = DefaultWindow
	}
	return &Window{max: max}
}

// Push appends s, evicting the oldest entry when full.
func (w *Window) Push(s string) {
	w.items = append(w.items, s)
	if over := len(w.items) - w.max; over > 0 {
		w.items = append(w.items[:0], w.items[over:]...)
	}
}

// Items returns a copy of the window contents.
func (w *Window) Items() []string {
	return append([]string(nil), w.items...)
}

func (w *Window) Len() int { return len(w.items) }
