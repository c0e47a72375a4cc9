package engine

import (
	"github.com/trussvision/trussvision/backend-go/internal/structure"
	"github.com/trussvision/trussvision/backend-go/internal/typeid"
)

// MaxHistory bounds the number of snapshots kept for undo.
const MaxHistory = 50

// Snapshot is one immutable history entry.
type Snapshot struct {
	ID    string
	Model structure.Model
}

// History is a bounded, linear undo/redo stack. It is a value: Push, Undo and
// Redo return a new History and never modify the receiver's entries, so older
// editor states stay valid.
//
// Invariant: 0 <= index < len(entries) and entries[index] is the live model.
type History struct {
	entries []Snapshot
	index   int
}

// NewHistory starts a history whose only entry is initial.
func NewHistory(initial structure.Model) History {
	return History{
		entries: []Snapshot{{ID: typeid.NewSnapshotID(), Model: initial.Clone()}},
	}
}

// Current returns the live model.
func (h History) Current() structure.Model {
	if len(h.entries) == 0 {
		return structure.NewEmptyModel()
	}
	return h.entries[h.index].Model
}

// CurrentID returns the id of the live snapshot.
func (h History) CurrentID() string {
	if len(h.entries) == 0 {
		return ""
	}
	return h.entries[h.index].ID
}

func (h History) Index() int { return h.index }
func (h History) Len() int   { return len(h.entries) }

func (h History) CanUndo() bool { return h.index > 0 }
func (h History) CanRedo() bool { return h.index < len(h.entries)-1 }

// Push truncates everything after the cursor, appends m and drops from the
// front so at most MaxHistory entries remain. The cursor ends on m.
func (h History) Push(m structure.Model) History {
	keep := h.entries[:min(h.index+1, len(h.entries))]
	if drop := len(keep) + 1 - MaxHistory; drop > 0 {
		keep = keep[drop:]
	}

	entries := make([]Snapshot, 0, len(keep)+1)
	entries = append(entries, keep...)
	entries = append(entries, Snapshot{ID: typeid.NewSnapshotID(), Model: m.Clone()})

	return History{entries: entries, index: len(entries) - 1}
}

// Undo moves the cursor back one entry. ok is false at the oldest entry.
func (h History) Undo() (History, bool) {
	if !h.CanUndo() {
		return h, false
	}
	h.index--
	return h, true
}

// Redo moves the cursor forward one entry. ok is false at the newest entry.
func (h History) Redo() (History, bool) {
	if !h.CanRedo() {
		return h, false
	}
	h.index++
	return h, true
}
