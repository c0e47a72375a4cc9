package engine

import (
	"github.com/trussvision/trussvision/backend-go/internal/structure"
)

// Reduce is the editor's transition function. It is total: actions that would
// break a model invariant, or that name missing elements, return s unchanged.
// Each accepted mutation pushes exactly one history entry; nothing else
// touches history.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case SetMode:
		if _, ok := ParseMode(string(a.Mode)); !ok {
			return s
		}
		s.Mode = a.Mode
		s.TempMemberStart = ""
		if a.ClearSelection {
			s.Selection = Selection{}
		}
		return s

	case Select:
		s.Selection = a.Selection.Resolve(s.Model())
		return s

	case BeginMember:
		if s.Mode != ModeAddMember || !s.Model().HasNode(a.NodeID) {
			return s
		}
		s.TempMemberStart = a.NodeID
		return s

	case CancelMember:
		s.TempMemberStart = ""
		return s

	case AddNode:
		next, _ := s.commit(s.Model().WithNode(a.Node))
		return next

	case AddMember:
		next, ok := s.commit(s.Model().WithMember(a.Member))
		if ok {
			next.TempMemberStart = ""
		}
		return next

	case MoveNode:
		if n, ok := s.Model().NodeByID(a.ID); ok && n.X == a.X && n.Y == a.Y {
			return s
		}
		m, ok := s.Model().WithNodeUpdated(a.ID, func(n *structure.Node) {
			n.X, n.Y = a.X, a.Y
		})
		next, _ := s.commit(m, ok)
		return next

	case DeleteNode:
		return s.commitDelete(s.Model().WithoutNode(a.ID))

	case DeleteMember:
		return s.commitDelete(s.Model().WithoutMember(a.ID))

	case UpdateNode:
		m, ok := s.Model().WithNodeUpdated(a.ID, func(n *structure.Node) {
			applyNodePatch(n, a.Patch)
		})
		next, _ := s.commit(m, ok)
		return next

	case UpdateMember:
		m, ok := s.Model().WithMemberUpdated(a.ID, func(mem *structure.Member) {
			applyMemberPatch(mem, a.Patch)
		})
		next, _ := s.commit(m, ok)
		return next

	case Undo:
		h, ok := s.History.Undo()
		if !ok {
			return s
		}
		return State{History: h, Mode: s.Mode}

	case Redo:
		h, ok := s.History.Redo()
		if !ok {
			return s
		}
		return State{History: h, Mode: s.Mode}

	case LoadSnapshot:
		return State{History: NewHistory(a.Model), Mode: s.Mode}
	}
	return s
}

// commit pushes m as a new history entry when the mutation was accepted.
func (s State) commit(m structure.Model, ok bool) (State, bool) {
	if !ok {
		return s, false
	}
	s.History = s.History.Push(m)
	s.Selection = s.Selection.Resolve(m)
	if s.TempMemberStart != "" && !m.HasNode(s.TempMemberStart) {
		s.TempMemberStart = ""
	}
	return s, true
}

// commitDelete commits a removal and drops the selection once it went through.
func (s State) commitDelete(m structure.Model, ok bool) State {
	next, ok := s.commit(m, ok)
	if ok {
		next.Selection = Selection{}
	}
	return next
}

func applyNodePatch(n *structure.Node, p NodePatch) {
	if p.X != nil {
		n.X = *p.X
	}
	if p.Y != nil {
		n.Y = *p.Y
	}
	if p.Support != nil {
		n.Support = *p.Support
	}
	if p.FX == nil && p.FY == nil {
		return
	}
	var load structure.Load
	if n.AppliedLoad != nil {
		load = *n.AppliedLoad
	}
	if p.FX != nil {
		load.FX = *p.FX
	}
	if p.FY != nil {
		load.FY = *p.FY
	}
	if load.IsZero() {
		n.AppliedLoad = nil
	} else {
		n.AppliedLoad = &load
	}
}

func applyMemberPatch(mem *structure.Member, p MemberPatch) {
	if p.StartNodeID != nil {
		mem.StartNodeID = *p.StartNodeID
	}
	if p.EndNodeID != nil {
		mem.EndNodeID = *p.EndNodeID
	}
	if p.MaterialTag != nil {
		mem.MaterialTag = *p.MaterialTag
	}
}
