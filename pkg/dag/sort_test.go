package dag

import (
	"errors"
	"testing"

	"github.com/aurelia-hq/strand/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id string) *models.Node {
	return &models.Node{ID: id, Type: "log", Enabled: true}
}

func conn(source, target string) *models.Connection {
	return &models.Connection{ID: source + "->" + target, SourceNode: source, TargetNode: target}
}

func positions(ordered []*models.Node) map[string]int {
	pos := make(map[string]int, len(ordered))
	for i, n := range ordered {
		pos[n.ID] = i
	}

	return pos
}

func TestSort_LinearChain(t *testing.T) {
	nodes := []*models.Node{node("a"), node("b"), node("c")}
	conns := []*models.Connection{conn("a", "b"), conn("b", "c")}

	ordered, err := Sort(nodes, conns)

	require.NoError(t, err)
	require.Len(t, ordered, 3)
	assert.Equal(t, "a", ordered[0].ID)
	assert.Equal(t, "b", ordered[1].ID)
	assert.Equal(t, "c", ordered[2].ID)
}

func TestSort_EverySourcePrecedesTarget(t *testing.T) {
	nodes := []*models.Node{node("d"), node("b"), node("a"), node("c"), node("e")}
	conns := []*models.Connection{
		conn("a", "b"),
		conn("a", "c"),
		conn("b", "d"),
		conn("c", "d"),
		conn("d", "e"),
	}

	ordered, err := Sort(nodes, conns)
	require.NoError(t, err)

	pos := positions(ordered)
	for _, c := range conns {
		assert.Less(t, pos[c.SourceNode], pos[c.TargetNode],
			"edge %s must be respected", c.ID)
	}
}

func TestSort_StableTieBreakByDeclarationOrder(t *testing.T) {
	// Three independent roots keep their declared order.
	nodes := []*models.Node{node("z"), node("m"), node("a")}

	ordered, err := Sort(nodes, nil)

	require.NoError(t, err)
	assert.Equal(t, "z", ordered[0].ID)
	assert.Equal(t, "m", ordered[1].ID)
	assert.Equal(t, "a", ordered[2].ID)
}

func TestSort_BranchEdgesAreRealDependencies(t *testing.T) {
	// A condition node with two handles still orders both branches after it.
	nodes := []*models.Node{node("cond"), node("left"), node("right")}
	conns := []*models.Connection{
		{ID: "c1", SourceNode: "cond", TargetNode: "left", SourceHandle: "true"},
		{ID: "c2", SourceNode: "cond", TargetNode: "right", SourceHandle: "false"},
	}

	ordered, err := Sort(nodes, conns)
	require.NoError(t, err)

	pos := positions(ordered)
	assert.Less(t, pos["cond"], pos["left"])
	assert.Less(t, pos["cond"], pos["right"])
}

func TestSort_CycleDetected(t *testing.T) {
	nodes := []*models.Node{node("a"), node("b"), node("c")}
	conns := []*models.Connection{conn("a", "b"), conn("b", "c"), conn("c", "a")}

	ordered, err := Sort(nodes, conns)

	require.Error(t, err)
	assert.Nil(t, ordered, "no partial ordering on cycle")

	var cycleErr *CycleError
	require.True(t, errors.As(err, &cycleErr))
	assert.ElementsMatch(t, []string{"a", "b", "c"}, cycleErr.Nodes)
}

func TestSort_SelfLoopIsACycle(t *testing.T) {
	nodes := []*models.Node{node("a")}
	conns := []*models.Connection{conn("a", "a")}

	_, err := Sort(nodes, conns)

	var cycleErr *CycleError
	require.True(t, errors.As(err, &cycleErr))
	assert.Equal(t, []string{"a"}, cycleErr.Nodes)
}

func TestSort_UnknownEndpoint(t *testing.T) {
	nodes := []*models.Node{node("a")}

	_, err := Sort(nodes, []*models.Connection{conn("a", "ghost")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")

	_, err = Sort(nodes, []*models.Connection{conn("ghost", "a")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestSuccessors(t *testing.T) {
	conns := []*models.Connection{conn("a", "b"), conn("a", "c"), conn("b", "c")}

	adj := Successors(conns)

	require.Len(t, adj["a"], 2)
	require.Len(t, adj["b"], 1)
	assert.Empty(t, adj["c"])
}
