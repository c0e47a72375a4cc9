package analysis

import (
	"math"

	"github.com/trussvision/trussvision/backend-go/internal/structure"
)

// NodeResult carries the per-node values returned by the analysis service.
// Absent values are nil.
type NodeResult struct {
	ReactionX     *float64 `json:"reactionX,omitempty"`
	ReactionY     *float64 `json:"reactionY,omitempty"`
	DisplacementX *float64 `json:"displacementX,omitempty"`
	DisplacementY *float64 `json:"displacementY,omitempty"`
}

// HasReaction reports whether either reaction component is present.
func (n NodeResult) HasReaction() bool {
	return n.ReactionX != nil || n.ReactionY != nil
}

// MemberResult carries the per-member values returned by the analysis service.
// AxialForce is positive in tension.
type MemberResult struct {
	AxialForce  float64 `json:"axialForce"`
	StressRatio float64 `json:"stressRatio"`
}

// Result is the read-only augmentation correlated to a model by id. Ids that do
// not match the model being drawn are ignored.
type Result struct {
	Nodes   map[string]NodeResult   `json:"nodes"`
	Members map[string]MemberResult `json:"members"`

	// Loads are the loads the analysis was run with, when they differ from
	// the loads stored on the model's nodes.
	Loads map[string]structure.Load `json:"loads,omitempty"`

	MaxDeflection float64 `json:"maxDeflection"`
}

// NewResult returns an empty result ready to be filled.
func NewResult() *Result {
	return &Result{
		Nodes:   make(map[string]NodeResult),
		Members: make(map[string]MemberResult),
	}
}

// Node returns the entry for a node id.
func (r *Result) Node(id string) (NodeResult, bool) {
	if r == nil {
		return NodeResult{}, false
	}
	n, ok := r.Nodes[id]
	return n, ok
}

// Member returns the entry for a member id.
func (r *Result) Member(id string) (MemberResult, bool) {
	if r == nil {
		return MemberResult{}, false
	}
	m, ok := r.Members[id]
	return m, ok
}

// Displacement returns the node displacement, zero when absent.
func (r *Result) Displacement(id string) (dx, dy float64) {
	n, ok := r.Node(id)
	if !ok {
		return 0, 0
	}
	if n.DisplacementX != nil {
		dx = *n.DisplacementX
	}
	if n.DisplacementY != nil {
		dy = *n.DisplacementY
	}
	return dx, dy
}

// Load returns the external load entry for a node, if any.
func (r *Result) Load(id string) (structure.Load, bool) {
	if r == nil || r.Loads == nil {
		return structure.Load{}, false
	}
	l, ok := r.Loads[id]
	return l, ok
}

// MaxAbsAxialForce returns the largest |axialForce| among members present in m.
func (r *Result) MaxAbsAxialForce(m structure.Model) float64 {
	var peak float64
	for _, mem := range m.Members {
		if res, ok := r.Member(mem.ID); ok {
			peak = math.Max(peak, math.Abs(res.AxialForce))
		}
	}
	return peak
}

func ptr(v float64) *float64 {
	return &v
}
