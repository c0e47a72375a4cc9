package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trussvision/trussvision/backend-go/internal/structure"
)

func twoNodeModel() structure.Model {
	return structure.Model{
		Nodes: []structure.Node{
			{ID: "N1", X: 0, Y: 0, Support: structure.SupportPin},
			{ID: "N2", X: 10, Y: 0, Support: structure.SupportNone},
		},
		Members: []structure.Member{
			{ID: "M1", StartNodeID: "N1", EndNodeID: "N2", MaterialTag: "steel"},
		},
	}
}

func assertNoDangling(t *testing.T, m structure.Model) {
	t.Helper()
	for _, mem := range m.Members {
		assert.True(t, m.HasNode(mem.StartNodeID), "member %s start %s", mem.ID, mem.StartNodeID)
		assert.True(t, m.HasNode(mem.EndNodeID), "member %s end %s", mem.ID, mem.EndNodeID)
	}
}

func TestAddNodeUndoRedo(t *testing.T) {
	s := NewState(twoNodeModel())
	n3 := structure.Node{ID: "N3", X: 5, Y: 5, Support: structure.SupportNone}

	s = Reduce(s, AddNode{Node: n3})
	require.Equal(t, 1, s.History.Index())
	assert.Len(t, s.Model().Nodes, 3)
	assert.Len(t, s.Model().Members, 1)

	s = Reduce(s, Undo{})
	assert.Equal(t, twoNodeModel(), s.Model())

	s = Reduce(s, Redo{})
	got, ok := s.Model().NodeByID("N3")
	require.True(t, ok)
	assert.Equal(t, n3, got)
}

func TestDeleteNodeCascadesAndClearsSelection(t *testing.T) {
	s := NewState(twoNodeModel())
	s = Reduce(s, Select{Selection: NodeSelection("N2")})
	require.Equal(t, NodeSelection("N2"), s.Selection)

	s = Reduce(s, DeleteNode{ID: "N2"})
	assert.Len(t, s.Model().Nodes, 1)
	assert.Empty(t, s.Model().Members)
	assert.True(t, s.Selection.IsEmpty())
	assertNoDangling(t, s.Model())

	s = Reduce(s, Undo{})
	assert.Len(t, s.Model().Members, 1)
	assertNoDangling(t, s.Model())
}

func TestRejectedMutationsAreNoOps(t *testing.T) {
	s := NewState(twoNodeModel())

	tests := []struct {
		name   string
		action Action
	}{
		{"self loop", AddMember{Member: structure.Member{ID: "M2", StartNodeID: "N1", EndNodeID: "N1"}}},
		{"dangling member", AddMember{Member: structure.Member{ID: "M2", StartNodeID: "N1", EndNodeID: "N9"}}},
		{"duplicate node", AddNode{Node: structure.Node{ID: "N1"}}},
		{"delete missing node", DeleteNode{ID: "N9"}},
		{"delete missing member", DeleteMember{ID: "M9"}},
		{"update missing node", UpdateNode{ID: "N9", Patch: NodePatch{X: floatPtr(1)}}},
		{"rewire to self", UpdateMember{ID: "M1", Patch: ParseMemberFields(map[string]string{"endNodeId": "N1"})}},
		{"move without change", MoveNode{ID: "N1", X: 0, Y: 0}},
		{"undo at start", Undo{}},
		{"redo at end", Redo{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := Reduce(s, tt.action)
			assert.Equal(t, s.History.CurrentID(), next.History.CurrentID())
			assert.Equal(t, s.History.Len(), next.History.Len())
			assert.Equal(t, s.Model(), next.Model())
		})
	}
}

func TestAddMemberGesture(t *testing.T) {
	s := NewState(twoNodeModel())
	s = Reduce(s, AddNode{Node: structure.Node{ID: "N3", X: 5, Y: 5}})

	s = Reduce(s, BeginMember{NodeID: "N1"})
	assert.Empty(t, s.TempMemberStart, "begin only applies in add-member mode")

	s = Reduce(s, SetMode{Mode: ModeAddMember})
	s = Reduce(s, BeginMember{NodeID: "N1"})
	assert.Equal(t, "N1", s.TempMemberStart)
	idx := s.History.Index()
	assert.Equal(t, idx, Reduce(s, BeginMember{NodeID: "N3"}).History.Index(), "beginning is not a mutation")

	s = Reduce(s, AddMember{Member: structure.Member{ID: "M2", StartNodeID: "N1", EndNodeID: "N3"}})
	assert.Empty(t, s.TempMemberStart)
	assert.Equal(t, idx+1, s.History.Index())

	mem, ok := s.Model().MemberByID("M2")
	require.True(t, ok)
	assert.Equal(t, structure.DefaultMaterial, mem.MaterialTag)
}

func TestSetModeKeepsSelection(t *testing.T) {
	s := NewState(twoNodeModel())
	s = Reduce(s, Select{Selection: MemberSelection("M1")})
	s = Reduce(s, SetMode{Mode: ModeAddMember})
	s = Reduce(s, BeginMember{NodeID: "N1"})

	s = Reduce(s, SetMode{Mode: ModeDelete})
	assert.Equal(t, MemberSelection("M1"), s.Selection)
	assert.Empty(t, s.TempMemberStart)
	assert.Equal(t, 0, s.History.Index())

	s = Reduce(s, SetMode{Mode: ModeSelect, ClearSelection: true})
	assert.True(t, s.Selection.IsEmpty())

	assert.Equal(t, ModeSelect, Reduce(s, SetMode{Mode: "bogus"}).Mode)
}

func TestSelectMissingElementSelectsNothing(t *testing.T) {
	s := NewState(twoNodeModel())
	s = Reduce(s, Select{Selection: NodeSelection("N9")})
	assert.True(t, s.Selection.IsEmpty())
}

func TestUndoClearsSelectionAndPendingMember(t *testing.T) {
	s := NewState(twoNodeModel())
	s = Reduce(s, AddNode{Node: structure.Node{ID: "N3"}})
	s = Reduce(s, Select{Selection: NodeSelection("N3")})
	s = Reduce(s, SetMode{Mode: ModeAddMember})
	s = Reduce(s, BeginMember{NodeID: "N1"})

	s = Reduce(s, Undo{})
	assert.True(t, s.Selection.IsEmpty())
	assert.Empty(t, s.TempMemberStart)
	assert.Equal(t, ModeAddMember, s.Mode)

	s = Reduce(s, Select{Selection: NodeSelection("N1")})
	s = Reduce(s, Redo{})
	assert.True(t, s.Selection.IsEmpty())
}

func TestUpdateNodeMergesLoad(t *testing.T) {
	s := NewState(twoNodeModel())

	s = Reduce(s, UpdateNode{ID: "N2", Patch: ParseNodeFields(map[string]string{"fy": "-250", "support": "roller"})})
	n, _ := s.Model().NodeByID("N2")
	require.NotNil(t, n.AppliedLoad)
	assert.Equal(t, structure.Load{FX: 0, FY: -250}, *n.AppliedLoad)
	assert.Equal(t, structure.SupportRoller, n.Support)

	s = Reduce(s, UpdateNode{ID: "N2", Patch: ParseNodeFields(map[string]string{"fx": "12.5"})})
	n, _ = s.Model().NodeByID("N2")
	assert.Equal(t, structure.Load{FX: 12.5, FY: -250}, *n.AppliedLoad)

	s = Reduce(s, UpdateNode{ID: "N2", Patch: ParseNodeFields(map[string]string{"fx": "0", "fy": "abc"})})
	n, _ = s.Model().NodeByID("N2")
	assert.Nil(t, n.AppliedLoad, "malformed text reads as 0 and a zero load is removed")
	assert.Equal(t, 3, s.History.Index())
}

func TestParseNodeFieldsMalformedNumbers(t *testing.T) {
	p := ParseNodeFields(map[string]string{"x": "12px", "y": " 7.5 ", "support": "hinge", "color": "red"})
	require.NotNil(t, p.X)
	require.NotNil(t, p.Y)
	require.NotNil(t, p.Support)
	assert.Equal(t, 0.0, *p.X)
	assert.Equal(t, 7.5, *p.Y)
	assert.Equal(t, structure.SupportNone, *p.Support)
	assert.Nil(t, p.FX)
}

func TestUpdateMemberRewire(t *testing.T) {
	s := NewState(twoNodeModel())
	s = Reduce(s, AddNode{Node: structure.Node{ID: "N3", X: 5, Y: 5}})
	s = Reduce(s, UpdateMember{ID: "M1", Patch: ParseMemberFields(map[string]string{"endNodeId": "N3", "materialTag": "wood"})})

	mem, _ := s.Model().MemberByID("M1")
	assert.Equal(t, "N3", mem.EndNodeID)
	assert.Equal(t, "wood", mem.MaterialTag)
	assertNoDangling(t, s.Model())
}

func TestLoadSnapshotResetsHistory(t *testing.T) {
	s := addNodes(NewState(structure.NewEmptyModel()), 3)
	s = Reduce(s, SetMode{Mode: ModeDelete})

	s = Reduce(s, LoadSnapshot{Model: structure.NewSampleModel()})
	assert.Equal(t, 1, s.History.Len())
	assert.Equal(t, ModeDelete, s.Mode)
	assert.Len(t, s.Model().Nodes, 6)
}

func TestNoDanglingAcrossRandomEdits(t *testing.T) {
	s := NewState(structure.NewSampleModel())
	actions := []Action{
		DeleteNode{ID: "N5"},
		AddNode{Node: structure.Node{ID: "N7", X: 400, Y: 100}},
		AddMember{Member: structure.Member{ID: "M10", StartNodeID: "N7", EndNodeID: "N6"}},
		DeleteNode{ID: "N6"},
		Undo{},
		UpdateMember{ID: "M10", Patch: ParseMemberFields(map[string]string{"startNodeId": "N5"})},
		DeleteMember{ID: "M1"},
		Redo{},
		DeleteNode{ID: "N2"},
	}
	for _, a := range actions {
		s = Reduce(s, a)
		assertNoDangling(t, s.Model())
	}
	for s.History.CanUndo() {
		s = Reduce(s, Undo{})
		assertNoDangling(t, s.Model())
	}
}
