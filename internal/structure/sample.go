package structure

// NewSampleModel returns a small Pratt truss: six panel points on a 600-unit
// span, pinned at the left, on a roller at the right, loaded at mid-span.
func NewSampleModel() Model {
	return Model{
		Nodes: []Node{
			{ID: "N1", X: 100, Y: 300, Support: SupportPin},
			{ID: "N2", X: 300, Y: 300, Support: SupportNone},
			{ID: "N3", X: 500, Y: 300, Support: SupportNone},
			{ID: "N4", X: 700, Y: 300, Support: SupportRoller},
			{ID: "N5", X: 300, Y: 150, Support: SupportNone},
			{ID: "N6", X: 500, Y: 150, Support: SupportNone, AppliedLoad: &Load{FX: 0, FY: 1000}},
		},
		Members: []Member{
			{ID: "M1", StartNodeID: "N1", EndNodeID: "N2", MaterialTag: "steel"},
			{ID: "M2", StartNodeID: "N2", EndNodeID: "N3", MaterialTag: "steel"},
			{ID: "M3", StartNodeID: "N3", EndNodeID: "N4", MaterialTag: "steel"},
			{ID: "M4", StartNodeID: "N1", EndNodeID: "N5", MaterialTag: "steel"},
			{ID: "M5", StartNodeID: "N5", EndNodeID: "N6", MaterialTag: "steel"},
			{ID: "M6", StartNodeID: "N6", EndNodeID: "N4", MaterialTag: "steel"},
			{ID: "M7", StartNodeID: "N2", EndNodeID: "N5", MaterialTag: "steel"},
			{ID: "M8", StartNodeID: "N3", EndNodeID: "N6", MaterialTag: "steel"},
			{ID: "M9", StartNodeID: "N2", EndNodeID: "N6", MaterialTag: "steel"},
		},
	}
}
