package engine

import (
	"math"
	"strconv"
	"strings"

	"github.com/trussvision/trussvision/backend-go/internal/structure"
)

// Action is the closed set of editor transitions. Only types in this file
// implement it.
type Action interface {
	isAction()
	// Name identifies the action in logs and session messages.
	Name() string
}

// SetMode switches mode and drops any pending member start. Selection is
// kept unless ClearSelection is set.
type SetMode struct {
	Mode           Mode
	ClearSelection bool
}

// Select replaces the selection. Ids that do not exist select nothing.
type Select struct {
	Selection Selection
}

// BeginMember records the first endpoint of a two-click member gesture.
type BeginMember struct {
	NodeID string
}

// CancelMember forgets a pending member start.
type CancelMember struct{}

type AddNode struct {
	Node structure.Node
}

// AddMember connects two nodes and clears the pending member start.
type AddMember struct {
	Member structure.Member
}

// MoveNode commits a finished drag.
type MoveNode struct {
	ID   string
	X, Y float64
}

type DeleteNode struct {
	ID string
}

type DeleteMember struct {
	ID string
}

// UpdateNode applies a partial update from the properties surface.
type UpdateNode struct {
	ID    string
	Patch NodePatch
}

// UpdateMember applies a partial update from the properties surface.
type UpdateMember struct {
	ID    string
	Patch MemberPatch
}

type Undo struct{}
type Redo struct{}

// LoadSnapshot restarts the session on a new initial snapshot with a fresh
// history.
type LoadSnapshot struct {
	Model structure.Model
}

func (SetMode) isAction()      {}
func (Select) isAction()       {}
func (BeginMember) isAction()  {}
func (CancelMember) isAction() {}
func (AddNode) isAction()      {}
func (AddMember) isAction()    {}
func (MoveNode) isAction()     {}
func (DeleteNode) isAction()   {}
func (DeleteMember) isAction() {}
func (UpdateNode) isAction()   {}
func (UpdateMember) isAction() {}
func (Undo) isAction()         {}
func (Redo) isAction()         {}
func (LoadSnapshot) isAction() {}

func (SetMode) Name() string      { return "mode.set" }
func (Select) Name() string       { return "selection.set" }
func (BeginMember) Name() string  { return "member.begin" }
func (CancelMember) Name() string { return "member.cancel" }
func (AddNode) Name() string      { return "node.add" }
func (AddMember) Name() string    { return "member.add" }
func (MoveNode) Name() string     { return "node.move" }
func (DeleteNode) Name() string   { return "node.delete" }
func (DeleteMember) Name() string { return "member.delete" }
func (UpdateNode) Name() string   { return "node.update" }
func (UpdateMember) Name() string { return "member.update" }
func (Undo) Name() string         { return "history.undo" }
func (Redo) Name() string         { return "history.redo" }
func (LoadSnapshot) Name() string { return "snapshot.load" }

// NodePatch holds the node fields a properties update touches. Nil fields are
// left alone. FX and FY merge into the existing load; a load whose components
// are both zero is removed.
type NodePatch struct {
	X       *float64
	Y       *float64
	Support *structure.SupportType
	FX      *float64
	FY      *float64
}

// MemberPatch holds the member fields a properties update touches.
type MemberPatch struct {
	StartNodeID *string
	EndNodeID   *string
	MaterialTag *string
}

// ParseNodeFields converts raw properties-surface text into a patch.
// Malformed numbers become 0; unknown supports become none; unknown keys are
// ignored.
func ParseNodeFields(fields map[string]string) NodePatch {
	var p NodePatch
	for k, v := range fields {
		switch k {
		case "x":
			p.X = floatPtr(parseNumber(v))
		case "y":
			p.Y = floatPtr(parseNumber(v))
		case "fx":
			p.FX = floatPtr(parseNumber(v))
		case "fy":
			p.FY = floatPtr(parseNumber(v))
		case "support":
			s := structure.ParseSupport(v)
			p.Support = &s
		}
	}
	return p
}

// ParseMemberFields converts raw properties-surface text into a patch.
func ParseMemberFields(fields map[string]string) MemberPatch {
	var p MemberPatch
	for k, v := range fields {
		v := strings.TrimSpace(v)
		switch k {
		case "startNodeId":
			p.StartNodeID = &v
		case "endNodeId":
			p.EndNodeID = &v
		case "materialTag":
			p.MaterialTag = &v
		}
	}
	return p
}

func parseNumber(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func floatPtr(f float64) *float64 {
	return &f
}
