package structure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoNodeModel() Model {
	return Model{
		Nodes: []Node{
			{ID: "N1", X: 0, Y: 0, Support: SupportPin},
			{ID: "N2", X: 10, Y: 0, Support: SupportNone},
		},
		Members: []Member{
			{ID: "M1", StartNodeID: "N1", EndNodeID: "N2", MaterialTag: "steel"},
		},
	}
}

func TestWithNodeDoesNotMutateReceiver(t *testing.T) {
	m := twoNodeModel()
	out, ok := m.WithNode(Node{ID: "N3", X: 5, Y: 5})
	require.True(t, ok)

	assert.Len(t, m.Nodes, 2)
	assert.Len(t, out.Nodes, 3)
	assert.Equal(t, SupportNone, out.Nodes[2].Support)

	_, ok = out.WithNode(Node{ID: "N3"})
	assert.False(t, ok, "duplicate id must be rejected")
}

func TestWithoutNodeCascadesMembers(t *testing.T) {
	m := twoNodeModel()
	out, ok := m.WithoutNode("N2")
	require.True(t, ok)

	assert.Len(t, out.Nodes, 1)
	assert.Empty(t, out.Members)
	assert.Len(t, m.Members, 1)

	_, ok = m.WithoutNode("missing")
	assert.False(t, ok)
}

func TestWithMemberRejectsInvalidEndpoints(t *testing.T) {
	m := twoNodeModel()

	_, ok := m.WithMember(Member{ID: "M2", StartNodeID: "N1", EndNodeID: "N1"})
	assert.False(t, ok, "self-loop")

	_, ok = m.WithMember(Member{ID: "M2", StartNodeID: "N1", EndNodeID: "N9"})
	assert.False(t, ok, "dangling")

	out, ok := m.WithMember(Member{ID: "M2", StartNodeID: "N2", EndNodeID: "N1"})
	require.True(t, ok, "duplicate pair is allowed")
	assert.Equal(t, DefaultMaterial, out.Members[1].MaterialTag)
}

func TestCloneSharesNoLoadPointers(t *testing.T) {
	m := twoNodeModel()
	m.Nodes[1].AppliedLoad = &Load{FY: 5}

	c := m.Clone()
	c.Nodes[1].AppliedLoad.FY = 99

	assert.Equal(t, 5.0, m.Nodes[1].AppliedLoad.FY)
}

func TestWithMemberUpdatedRejectsSelfLoop(t *testing.T) {
	m := twoNodeModel()
	_, ok := m.WithMemberUpdated("M1", func(mem *Member) { mem.EndNodeID = "N1" })
	assert.False(t, ok)

	out, ok := m.WithMemberUpdated("M1", func(mem *Member) { mem.MaterialTag = "wood" })
	require.True(t, ok)
	assert.Equal(t, "wood", out.Members[0].MaterialTag)
	assert.Equal(t, "steel", m.Members[0].MaterialTag)
}

func TestNextIDs(t *testing.T) {
	m := twoNodeModel()
	assert.Equal(t, "N3", m.NextNodeID())
	assert.Equal(t, "M2", m.NextMemberID())

	m.Nodes = append(m.Nodes, Node{ID: "N7"}, Node{ID: "custom"})
	assert.Equal(t, "N8", m.NextNodeID())
	assert.Equal(t, "N1", NewEmptyModel().NextNodeID())
}

func TestParseSupport(t *testing.T) {
	assert.Equal(t, SupportPin, ParseSupport("Pin"))
	assert.Equal(t, SupportRoller, ParseSupport(" roller "))
	assert.Equal(t, SupportFixed, ParseSupport("fixed"))
	assert.Equal(t, SupportNone, ParseSupport("clamped"))
}

func TestBounds(t *testing.T) {
	_, _, _, _, ok := NewEmptyModel().Bounds()
	assert.False(t, ok)

	minX, minY, maxX, maxY, ok := NewSampleModel().Bounds()
	require.True(t, ok)
	assert.Equal(t, []float64{100, 150, 700, 300}, []float64{minX, minY, maxX, maxY})
}

func TestValidateAndDecode(t *testing.T) {
	assert.Empty(t, Validate(NewSampleModel()))

	bad := Model{
		Nodes:   []Node{{ID: "N1"}, {ID: "N1"}, {ID: "N2", Support: "hinge"}},
		Members: []Member{{ID: "M1", StartNodeID: "N1", EndNodeID: "N1"}, {ID: "M2", StartNodeID: "N1", EndNodeID: "N9"}},
	}
	errs := Validate(bad)
	assert.Len(t, errs, 4)

	_, err := Decode([]byte(`{"nodes":[{"id":"N1"}],"members":[{"id":"M1","startNodeId":"N1","endNodeId":"N2"}]}`))
	assert.ErrorIs(t, err, ErrInvalidModel)

	m, err := Decode([]byte(`{"nodes":[{"id":"N1","x":1,"y":2},{"id":"N2"}],"members":[{"id":"M1","startNodeId":"N1","endNodeId":"N2"}]}`))
	require.NoError(t, err)
	assert.Equal(t, SupportNone, m.Nodes[0].Support)
	assert.Equal(t, DefaultMaterial, m.Members[0].MaterialTag)

	_, err = Decode([]byte(`{`))
	assert.Error(t, err)
}

func TestLookupMaterial(t *testing.T) {
	m, ok := LookupMaterial("Aluminum")
	require.True(t, ok)
	assert.Equal(t, 69000.0, m.E)

	_, ok = LookupMaterial("concrete")
	assert.False(t, ok)
	assert.Len(t, Materials(), 3)
}
