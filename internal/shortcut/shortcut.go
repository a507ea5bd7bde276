// Package shortcut maps modifier+key chords to editor actions.
package shortcut

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/rcliao/notedesk/internal/logging"
)

// Action is an editor command bound to a chord.
type Action string

const (
	ActionSave       Action = "save"
	ActionToggleView Action = "toggle-view"
	ActionToggleChat Action = "toggle-chat"
)

// Bindings are the fixed chord keys. Ctrl or Meta must be held.
var Bindings = map[string]Action{
	"s": ActionSave,
	"m": ActionToggleView,
	"/": ActionToggleChat,
}

// KeyEvent is a keyboard event as delivered by the presentation layer.
// Prevented is set when the dispatcher consumes the event.
type KeyEvent struct {
	Key       string
	Ctrl      bool
	Meta      bool
	Shift     bool
	Alt       bool
	Prevented bool
}

// Chord is a parsed "ctrl+s" style key combination.
type Chord struct {
	Key  string
	Ctrl bool
	Meta bool
}

// Event returns the KeyEvent a terminal would deliver for c.
func (c Chord) Event() *KeyEvent {
	return &KeyEvent{Key: c.Key, Ctrl: c.Ctrl, Meta: c.Meta}
}

func (c Chord) String() string {
	switch {
	case c.Meta:
		return "meta+" + c.Key
	case c.Ctrl:
		return "ctrl+" + c.Key
	}
	return c.Key
}

// ParseChord accepts "ctrl+s", "cmd+m", "meta+/" and the caret form "^s".
func ParseChord(s string) (Chord, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if rest, ok := strings.CutPrefix(s, "^"); ok && rest != "" {
		return Chord{Key: rest, Ctrl: true}, nil
	}
	mod, key, ok := strings.Cut(s, "+")
	if !ok || key == "" {
		return Chord{}, fmt.Errorf("invalid chord %q: want modifier+key", s)
	}
	switch mod {
	case "ctrl", "control":
		return Chord{Key: key, Ctrl: true}, nil
	case "meta", "cmd", "super":
		return Chord{Key: key, Meta: true}, nil
	}
	return Chord{}, fmt.Errorf("invalid chord %q: unknown modifier %q", s, mod)
}

// Handlers perform the bound actions. Save reports whether it committed
// anything; it is expected to check its own precondition.
type Handlers struct {
	Save       func() bool
	ToggleView func()
	ToggleChat func()
}

// Dispatcher is the single key listener of a note-editing view. It only
// acts while mounted.
type Dispatcher struct {
	handlers Handlers
	logger   *zap.Logger

	mu      sync.Mutex
	mounted bool
}

// New returns an unmounted Dispatcher.
func New(h Handlers, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{handlers: h, logger: logging.OrNop(logger)}
}

// Mount starts handling events. Mounting twice is a no-op.
func (d *Dispatcher) Mount() {
	d.mu.Lock()
	d.mounted = true
	d.mu.Unlock()
}

// Unmount stops handling events.
func (d *Dispatcher) Unmount() {
	d.mu.Lock()
	d.mounted = false
	d.mu.Unlock()
}

// Mounted reports whether the dispatcher is listening.
func (d *Dispatcher) Mounted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mounted
}

// Lookup returns the action bound to ev, if any.
func Lookup(ev *KeyEvent) (Action, bool) {
	if ev == nil || !(ev.Ctrl || ev.Meta) {
		return "", false
	}
	a, ok := Bindings[strings.ToLower(ev.Key)]
	return a, ok
}

// Dispatch handles ev if it is a bound chord and the dispatcher is mounted.
// A handled event is marked Prevented even when its action had nothing to
// do. Everything else passes through untouched.
func (d *Dispatcher) Dispatch(ev *KeyEvent) bool {
	if !d.Mounted() {
		return false
	}
	action, ok := Lookup(ev)
	if !ok {
		return false
	}
	ev.Prevented = true

	switch action {
	case ActionSave:
		saved := false
		if d.handlers.Save != nil {
			saved = d.handlers.Save()
		}
		d.logger.Debug("shortcut", zap.String(logging.FieldChord, ev.Key),
			zap.String(logging.FieldAction, string(action)), zap.Bool("saved", saved))
		return true
	case ActionToggleView:
		if d.handlers.ToggleView != nil {
			d.handlers.ToggleView()
		}
	case ActionToggleChat:
		if d.handlers.ToggleChat != nil {
			d.handlers.ToggleChat()
		}
	}
	d.logger.Debug("shortcut", zap.String(logging.FieldChord, ev.Key),
		zap.String(logging.FieldAction, string(action)))
	return true
}
