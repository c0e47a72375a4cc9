package analysis

import (
	"encoding/json"
	"fmt"

	"github.com/trussvision/trussvision/backend-go/internal/structure"
)

// The types below mirror the analysis service's JSON schema. The core never
// sends them anywhere; callers that own the network hop encode a Request and
// decode a ServiceResults.

type ServiceNode struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type ServiceMember struct {
	ID        string `json:"id"`
	StartNode string `json:"start_node"`
	EndNode   string `json:"end_node"`
	Material  string `json:"material"`
}

type ServiceSupport struct {
	NodeID string `json:"node_id"`
	Type   string `json:"type"`
}

type ServiceModel struct {
	Nodes    []ServiceNode    `json:"nodes"`
	Members  []ServiceMember  `json:"members"`
	Supports []ServiceSupport `json:"supports"`
}

type ServiceLoad struct {
	NodeID string  `json:"node_id"`
	FX     float64 `json:"fx"`
	FY     float64 `json:"fy"`
}

// Request is the body an analysis collaborator submits for a snapshot.
type Request struct {
	Model ServiceModel  `json:"model"`
	Loads []ServiceLoad `json:"loads"`
}

type ServiceMemberForce struct {
	MemberID string  `json:"member_id"`
	Axial    float64 `json:"axial"`
	Shear    float64 `json:"shear"`
	Moment   float64 `json:"moment"`
}

type ServiceReaction struct {
	NodeID string  `json:"node_id"`
	RX     float64 `json:"rx"`
	RY     float64 `json:"ry"`
}

type ServiceDisplacement struct {
	NodeID string  `json:"node_id"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
}

type ServiceCodeCheck struct {
	MemberID string  `json:"member_id"`
	Ratio    float64 `json:"ratio"`
}

// ServiceResults is the analysis service's response body.
type ServiceResults struct {
	MemberForces  []ServiceMemberForce  `json:"member_forces"`
	Reactions     []ServiceReaction     `json:"reactions"`
	Displacements []ServiceDisplacement `json:"displacements,omitempty"`
	CodeChecks    []ServiceCodeCheck    `json:"code_checks,omitempty"`
	MaxDeflection float64               `json:"max_deflection"`
}

// RequestFromModel flattens a snapshot into the service schema. Supports and
// loads live on nodes in the model but are separate lists on the wire.
func RequestFromModel(m structure.Model) Request {
	req := Request{
		Model: ServiceModel{
			Nodes:    make([]ServiceNode, 0, len(m.Nodes)),
			Members:  make([]ServiceMember, 0, len(m.Members)),
			Supports: []ServiceSupport{},
		},
		Loads: []ServiceLoad{},
	}
	for _, n := range m.Nodes {
		req.Model.Nodes = append(req.Model.Nodes, ServiceNode{ID: n.ID, X: n.X, Y: n.Y})
		if n.Support != structure.SupportNone && n.Support.Valid() {
			req.Model.Supports = append(req.Model.Supports, ServiceSupport{NodeID: n.ID, Type: string(n.Support)})
		}
		if n.AppliedLoad != nil && !n.AppliedLoad.IsZero() {
			req.Loads = append(req.Loads, ServiceLoad{NodeID: n.ID, FX: n.AppliedLoad.FX, FY: n.AppliedLoad.FY})
		}
	}
	for _, mem := range m.Members {
		req.Model.Members = append(req.Model.Members, ServiceMember{
			ID:        mem.ID,
			StartNode: mem.StartNodeID,
			EndNode:   mem.EndNodeID,
			Material:  mem.MaterialTag,
		})
	}
	return req
}

// FromService builds an id-keyed Result from a service response. A member
// with a code check but no force entry still gets its stress ratio.
func FromService(res ServiceResults) *Result {
	r := NewResult()
	r.MaxDeflection = res.MaxDeflection

	for _, f := range res.MemberForces {
		mr := r.Members[f.MemberID]
		mr.AxialForce = f.Axial
		r.Members[f.MemberID] = mr
	}
	for _, c := range res.CodeChecks {
		mr := r.Members[c.MemberID]
		mr.StressRatio = c.Ratio
		r.Members[c.MemberID] = mr
	}
	for _, rx := range res.Reactions {
		nr := r.Nodes[rx.NodeID]
		nr.ReactionX = ptr(rx.RX)
		nr.ReactionY = ptr(rx.RY)
		r.Nodes[rx.NodeID] = nr
	}
	for _, d := range res.Displacements {
		nr := r.Nodes[d.NodeID]
		nr.DisplacementX = ptr(d.DX)
		nr.DisplacementY = ptr(d.DY)
		r.Nodes[d.NodeID] = nr
	}
	return r
}

// Decode accepts either the id-keyed Result encoding or a raw service
// response and returns the id-keyed form.
func Decode(data []byte) (*Result, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode analysis result: %w", err)
	}

	if _, ok := probe["member_forces"]; ok {
		var res ServiceResults
		if err := json.Unmarshal(data, &res); err != nil {
			return nil, fmt.Errorf("decode service results: %w", err)
		}
		return FromService(res), nil
	}

	r := NewResult()
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("decode analysis result: %w", err)
	}
	if r.Nodes == nil {
		r.Nodes = make(map[string]NodeResult)
	}
	if r.Members == nil {
		r.Members = make(map[string]MemberResult)
	}
	return r, nil
}
