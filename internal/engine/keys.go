package engine

import (
	"strings"
)

// KeyEvent is a keyboard event as delivered by the host surface.
type KeyEvent struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl,omitempty"`
	Alt   bool   `json:"alt,omitempty"`
	Meta  bool   `json:"meta,omitempty"`
	Shift bool   `json:"shift,omitempty"`
}

// Chord normalizes the event into the form used as a KeyTable key: lowercase,
// modifiers in ctrl, alt, meta, shift order, e.g. "ctrl+shift+z".
func (k KeyEvent) Chord() string {
	var b strings.Builder
	if k.Ctrl {
		b.WriteString("ctrl+")
	}
	if k.Alt {
		b.WriteString("alt+")
	}
	if k.Meta {
		b.WriteString("meta+")
	}
	if k.Shift {
		b.WriteString("shift+")
	}
	b.WriteString(strings.ToLower(strings.TrimSpace(k.Key)))
	return b.String()
}

// Command runs against the editor in response to a key chord.
type Command func(e *Editor)

// KeyTable binds normalized chords to commands.
type KeyTable map[string]Command

// DefaultKeyTable returns the editor's standard bindings.
func DefaultKeyTable() KeyTable {
	undo := func(e *Editor) { e.Undo() }
	redo := func(e *Editor) { e.Redo() }
	deleteSelection := func(e *Editor) { e.DeleteSelection() }
	mode := func(m Mode) Command {
		return func(e *Editor) { e.SetMode(m, false) }
	}

	return KeyTable{
		"delete":    deleteSelection,
		"backspace": deleteSelection,

		"ctrl+z":       undo,
		"meta+z":       undo,
		"ctrl+y":       redo,
		"ctrl+shift+z": redo,
		"meta+shift+z": redo,

		"escape": func(e *Editor) {
			e.Dispatch(CancelMember{})
			e.Dispatch(Select{})
		},

		"v": mode(ModeSelect),
		"n": mode(ModeAddNode),
		"m": mode(ModeAddMember),
		"l": mode(ModeAddLoad),
		"d": mode(ModeDelete),
	}
}
