package engine

import (
	"math"

	"github.com/trussvision/trussvision/backend-go/internal/structure"
)

const (
	// NodeHitRadius is measured in surface units and does not change with zoom.
	NodeHitRadius = 12.0
	// MemberHitRadius is measured in surface units and does not change with zoom.
	MemberHitRadius = 8.0
)

// HitNode returns the first node, in model order, whose surface position is
// within NodeHitRadius of (sx, sy).
func HitNode(m structure.Model, vp Viewport, sx, sy float64) (structure.Node, bool) {
	for _, n := range m.Nodes {
		nx, ny := vp.ModelToSurface(n.X, n.Y)
		if math.Hypot(sx-nx, sy-ny) <= NodeHitRadius {
			return n, true
		}
	}
	return structure.Node{}, false
}

// HitMember returns the first member, in model order, whose transformed
// segment is within MemberHitRadius of (sx, sy).
func HitMember(m structure.Model, vp Viewport, sx, sy float64) (structure.Member, bool) {
	nodes := m.NodeIndex()
	for _, mem := range m.Members {
		a, okA := nodes[mem.StartNodeID]
		b, okB := nodes[mem.EndNodeID]
		if !okA || !okB {
			continue
		}
		ax, ay := vp.ModelToSurface(a.X, a.Y)
		bx, by := vp.ModelToSurface(b.X, b.Y)
		if PointSegmentDistance(sx, sy, ax, ay, bx, by) <= MemberHitRadius {
			return mem, true
		}
	}
	return structure.Member{}, false
}

// HitTest resolves a surface point to a selection. Nodes take priority over
// members; a miss yields an empty selection.
func HitTest(m structure.Model, vp Viewport, sx, sy float64) Selection {
	if n, ok := HitNode(m, vp, sx, sy); ok {
		return NodeSelection(n.ID)
	}
	if mem, ok := HitMember(m, vp, sx, sy); ok {
		return MemberSelection(mem.ID)
	}
	return Selection{}
}
