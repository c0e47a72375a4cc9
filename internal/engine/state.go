package engine

import (
	"github.com/trussvision/trussvision/backend-go/internal/structure"
)

// Mode is the editor's top-level interaction mode.
type Mode string

const (
	ModeSelect    Mode = "select"
	ModeAddNode   Mode = "add-node"
	ModeAddMember Mode = "add-member"
	ModeAddLoad   Mode = "add-load"
	ModeDelete    Mode = "delete"
)

// ParseMode returns the mode named by s, or false for an unknown name.
func ParseMode(s string) (Mode, bool) {
	switch m := Mode(s); m {
	case ModeSelect, ModeAddNode, ModeAddMember, ModeAddLoad, ModeDelete:
		return m, true
	}
	return "", false
}

// ElementKind says what a Selection points at.
type ElementKind string

const (
	KindNone   ElementKind = "none"
	KindNode   ElementKind = "node"
	KindMember ElementKind = "member"
)

// Selection is the editor's current selection. The zero value selects nothing.
type Selection struct {
	Kind ElementKind `json:"kind"`
	ID   string      `json:"id,omitempty"`
}

func NodeSelection(id string) Selection   { return Selection{Kind: KindNode, ID: id} }
func MemberSelection(id string) Selection { return Selection{Kind: KindMember, ID: id} }

// IsEmpty reports whether nothing is selected.
func (s Selection) IsEmpty() bool {
	return s.ID == "" || (s.Kind != KindNode && s.Kind != KindMember)
}

// Resolve returns the selection if it still names an element of m, and an
// empty selection otherwise.
func (s Selection) Resolve(m structure.Model) Selection {
	switch s.Kind {
	case KindNode:
		if m.HasNode(s.ID) {
			return s
		}
	case KindMember:
		if _, ok := m.MemberByID(s.ID); ok {
			return s
		}
	}
	return Selection{}
}

// State is everything the editor snapshots or reduces over. Interaction
// sessions (pan, drag) and the viewport live outside it.
type State struct {
	History         History
	Mode            Mode
	Selection       Selection
	TempMemberStart string
}

// NewState starts an editor on the given initial snapshot in select mode.
func NewState(initial structure.Model) State {
	return State{
		History: NewHistory(initial),
		Mode:    ModeSelect,
	}
}

// Model returns the live model.
func (s State) Model() structure.Model {
	return s.History.Current()
}
