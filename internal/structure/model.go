package structure

import (
	"fmt"
	"strconv"
	"strings"
)

// Model is one immutable snapshot of the structural graph. Every With*/Without*
// helper returns a new Model and never touches the receiver's slices.
type Model struct {
	Nodes   []Node   `json:"nodes"`
	Members []Member `json:"members"`
}

type SupportType string

const (
	SupportNone   SupportType = "none"
	SupportPin    SupportType = "pin"
	SupportRoller SupportType = "roller"
	SupportFixed  SupportType = "fixed"
)

// ParseSupport maps a properties-surface value onto a support type.
// Unknown or empty values fall back to SupportNone.
func ParseSupport(s string) SupportType {
	switch SupportType(strings.ToLower(strings.TrimSpace(s))) {
	case SupportPin:
		return SupportPin
	case SupportRoller:
		return SupportRoller
	case SupportFixed:
		return SupportFixed
	default:
		return SupportNone
	}
}

// Valid reports whether t is one of the known support types.
func (t SupportType) Valid() bool {
	switch t {
	case SupportNone, SupportPin, SupportRoller, SupportFixed:
		return true
	}
	return false
}

// Load is a point load applied at a node, in model force units.
type Load struct {
	FX float64 `json:"fx"`
	FY float64 `json:"fy"`
}

// IsZero reports whether both components are zero.
func (l Load) IsZero() bool {
	return l.FX == 0 && l.FY == 0
}

type Node struct {
	ID          string      `json:"id"`
	X           float64     `json:"x"`
	Y           float64     `json:"y"`
	Support     SupportType `json:"support"`
	AppliedLoad *Load       `json:"appliedLoad,omitempty"`
}

type Member struct {
	ID          string `json:"id"`
	StartNodeID string `json:"startNodeId"`
	EndNodeID   string `json:"endNodeId"`
	MaterialTag string `json:"materialTag"`
}

// NewEmptyModel returns a model with no nodes and no members.
func NewEmptyModel() Model {
	return Model{Nodes: []Node{}, Members: []Member{}}
}

// Clone returns a deep copy that shares no mutable state with m.
func (m Model) Clone() Model {
	out := Model{
		Nodes:   make([]Node, len(m.Nodes)),
		Members: make([]Member, len(m.Members)),
	}
	for i, n := range m.Nodes {
		out.Nodes[i] = n.clone()
	}
	copy(out.Members, m.Members)
	return out
}

func (n Node) clone() Node {
	if n.AppliedLoad != nil {
		l := *n.AppliedLoad
		n.AppliedLoad = &l
	}
	return n
}

// NodeByID returns the node with the given id.
func (m Model) NodeByID(id string) (Node, bool) {
	for _, n := range m.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// MemberByID returns the member with the given id.
func (m Model) MemberByID(id string) (Member, bool) {
	for _, mem := range m.Members {
		if mem.ID == id {
			return mem, true
		}
	}
	return Member{}, false
}

// HasNode reports whether a node with the given id exists.
func (m Model) HasNode(id string) bool {
	_, ok := m.NodeByID(id)
	return ok
}

// NodeIndex returns a lookup from node id to node, for geometry passes over members.
func (m Model) NodeIndex() map[string]Node {
	idx := make(map[string]Node, len(m.Nodes))
	for _, n := range m.Nodes {
		idx[n.ID] = n
	}
	return idx
}

// WithNode returns a copy of m with n appended. A duplicate id leaves m unchanged.
func (m Model) WithNode(n Node) (Model, bool) {
	if n.ID == "" || m.HasNode(n.ID) {
		return m, false
	}
	if !n.Support.Valid() {
		n.Support = SupportNone
	}
	out := m.Clone()
	out.Nodes = append(out.Nodes, n.clone())
	return out, true
}

// WithMember returns a copy of m with mem appended. Members that would dangle,
// form a self-loop or reuse an id are rejected.
func (m Model) WithMember(mem Member) (Model, bool) {
	if mem.ID == "" || mem.StartNodeID == mem.EndNodeID {
		return m, false
	}
	if _, dup := m.MemberByID(mem.ID); dup {
		return m, false
	}
	if !m.HasNode(mem.StartNodeID) || !m.HasNode(mem.EndNodeID) {
		return m, false
	}
	if mem.MaterialTag == "" {
		mem.MaterialTag = DefaultMaterial
	}
	out := m.Clone()
	out.Members = append(out.Members, mem)
	return out, true
}

// WithoutNode removes the node and every member referencing it.
func (m Model) WithoutNode(id string) (Model, bool) {
	if !m.HasNode(id) {
		return m, false
	}
	out := Model{
		Nodes:   make([]Node, 0, len(m.Nodes)-1),
		Members: make([]Member, 0, len(m.Members)),
	}
	for _, n := range m.Nodes {
		if n.ID != id {
			out.Nodes = append(out.Nodes, n.clone())
		}
	}
	for _, mem := range m.Members {
		if mem.StartNodeID != id && mem.EndNodeID != id {
			out.Members = append(out.Members, mem)
		}
	}
	return out, true
}

// WithoutMember removes a single member.
func (m Model) WithoutMember(id string) (Model, bool) {
	if _, ok := m.MemberByID(id); !ok {
		return m, false
	}
	out := m.Clone()
	members := out.Members[:0]
	for _, mem := range out.Members {
		if mem.ID != id {
			members = append(members, mem)
		}
	}
	out.Members = members
	return out, true
}

// WithNodeUpdated applies fn to a copy of the node with the given id.
func (m Model) WithNodeUpdated(id string, fn func(*Node)) (Model, bool) {
	out := m.Clone()
	for i := range out.Nodes {
		if out.Nodes[i].ID == id {
			fn(&out.Nodes[i])
			if !out.Nodes[i].Support.Valid() {
				out.Nodes[i].Support = SupportNone
			}
			out.Nodes[i].ID = id
			return out, true
		}
	}
	return m, false
}

// WithMemberUpdated applies fn to a copy of the member with the given id.
// The update is rejected if the result would dangle or self-loop.
func (m Model) WithMemberUpdated(id string, fn func(*Member)) (Model, bool) {
	out := m.Clone()
	for i := range out.Members {
		if out.Members[i].ID != id {
			continue
		}
		fn(&out.Members[i])
		mem := &out.Members[i]
		mem.ID = id
		if mem.StartNodeID == mem.EndNodeID || !out.HasNode(mem.StartNodeID) || !out.HasNode(mem.EndNodeID) {
			return m, false
		}
		if mem.MaterialTag == "" {
			mem.MaterialTag = DefaultMaterial
		}
		return out, true
	}
	return m, false
}

// NextNodeID allocates a fresh "N<k>" id that no node in m uses.
func (m Model) NextNodeID() string {
	ids := make([]string, len(m.Nodes))
	for i, n := range m.Nodes {
		ids[i] = n.ID
	}
	return nextID("N", ids)
}

// NextMemberID allocates a fresh "M<k>" id that no member in m uses.
func (m Model) NextMemberID() string {
	ids := make([]string, len(m.Members))
	for i, mem := range m.Members {
		ids[i] = mem.ID
	}
	return nextID("M", ids)
}

func nextID(prefix string, existing []string) string {
	used := make(map[string]bool, len(existing))
	highest := 0
	for _, id := range existing {
		used[id] = true
		if k, err := strconv.Atoi(strings.TrimPrefix(id, prefix)); err == nil && strings.HasPrefix(id, prefix) && k > highest {
			highest = k
		}
	}
	for k := highest + 1; ; k++ {
		id := fmt.Sprintf("%s%d", prefix, k)
		if !used[id] {
			return id
		}
	}
}

// Bounds returns the axis-aligned extent of all nodes. ok is false for an empty model.
func (m Model) Bounds() (minX, minY, maxX, maxY float64, ok bool) {
	if len(m.Nodes) == 0 {
		return 0, 0, 0, 0, false
	}
	minX, minY = m.Nodes[0].X, m.Nodes[0].Y
	maxX, maxY = minX, minY
	for _, n := range m.Nodes[1:] {
		minX = min(minX, n.X)
		minY = min(minY, n.Y)
		maxX = max(maxX, n.X)
		maxY = max(maxY, n.Y)
	}
	return minX, minY, maxX, maxY, true
}
