package graph

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planora/planora/internal/plan"
)

func item(id string, deps ...string) plan.WorkItem {
	return plan.WorkItem{
		ID:         id,
		Name:       "item " + id,
		Kind:       plan.ItemTask,
		WorkKind:   plan.KindFocused,
		Duration:   30,
		Importance: 5,
		Urgency:    5,
		Status:     plan.StatusNotStarted,
		DependsOn:  deps,
	}
}

// =============================================================================
// Graph Builder Tests
// =============================================================================

func TestBuild_MergesDependsOnAndExplicitEdges(t *testing.T) {
	items := []plan.WorkItem{item("a"), item("b", "a"), item("c")}
	edges := []plan.DependencyEdge{{From: "b", To: "c", Block: plan.BlockHard}}

	g, warnings, err := Build(items, edges)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, []string{"b"}, g.Adj["a"])
	assert.Equal(t, []string{"c"}, g.Adj["b"])
	assert.Equal(t, []string{"a"}, g.HardBlockers("b"))
	assert.Equal(t, []string{"b"}, g.HardBlockers("c"))
}

func TestBuild_DeduplicatesEdges(t *testing.T) {
	items := []plan.WorkItem{item("a"), item("b", "a")}
	edges := []plan.DependencyEdge{{From: "a", To: "b", Block: plan.BlockHard}}

	g, _, err := Build(items, edges)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, g.Adj["a"], "duplicate edge must collapse")
	assert.Equal(t, []string{"a"}, g.RevAdj["b"])
}

func TestBuild_RejectsSelfEdge(t *testing.T) {
	items := []plan.WorkItem{item("a")}
	edges := []plan.DependencyEdge{{From: "a", To: "a", Block: plan.BlockHard}}

	_, _, err := Build(items, edges)
	require.Error(t, err)
	assert.True(t, IsStructuralError(err))

	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrCodeSelfEdge, se.Code)
}

func TestBuild_DropsUnknownEdgeWithWarning(t *testing.T) {
	items := []plan.WorkItem{item("a")}
	edges := []plan.DependencyEdge{{From: "a", To: "ghost", Block: plan.BlockHard}}

	g, warnings, err := Build(items, edges)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnUnknownEdgeTarget, warnings[0].Code)
	assert.Empty(t, g.Adj["a"])
}

func TestBuild_DropsUnknownDependsOnWithWarning(t *testing.T) {
	// A depends on an item deleted from the snapshot.
	items := []plan.WorkItem{item("a", "deleted")}

	g, warnings, err := Build(items, nil)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnUnknownEdgeTarget, warnings[0].Code)
	assert.Empty(t, g.HardBlockers("a"))
}

func TestBuild_SoftEdgesDoNotConstrain(t *testing.T) {
	items := []plan.WorkItem{item("a"), item("b")}
	edges := []plan.DependencyEdge{{From: "a", To: "b", Block: plan.BlockSoft}}

	g, _, err := Build(items, edges)
	require.NoError(t, err)
	assert.Empty(t, g.Adj["a"], "soft edge must not enter the hard graph")
	assert.Equal(t, []string{"a"}, g.SoftBlockers("b"))
}

// =============================================================================
// Cycle Detector Tests
// =============================================================================

func TestWouldCreateCycle_ReverseOfExistingEdge(t *testing.T) {
	// Edge b -> a exists; requesting a -> b must be rejected.
	items := []plan.WorkItem{item("a", "b"), item("b")}
	g, _, err := Build(items, nil)
	require.NoError(t, err)

	assert.True(t, g.WouldCreateCycle("a", "b"))
	assert.False(t, g.WouldCreateCycle("b", "a"), "existing direction is not a cycle")
}

func TestWouldCreateCycle_Transitive(t *testing.T) {
	// a -> b -> c; adding c -> a closes a three-node loop.
	items := []plan.WorkItem{item("a"), item("b", "a"), item("c", "b")}
	g, _, err := Build(items, nil)
	require.NoError(t, err)

	assert.True(t, g.WouldCreateCycle("c", "a"))
	assert.False(t, g.WouldCreateCycle("a", "c"))
}

func TestWouldCreateCycle_SelfEdge(t *testing.T) {
	items := []plan.WorkItem{item("a")}
	g, _, err := Build(items, nil)
	require.NoError(t, err)

	assert.True(t, g.WouldCreateCycle("a", "a"))
}

func TestHasCycle_Acyclic(t *testing.T) {
	items := []plan.WorkItem{item("a"), item("b", "a"), item("c", "a", "b")}
	g, _, err := Build(items, nil)
	require.NoError(t, err)

	assert.Nil(t, g.HasCycle())
}

func TestHasCycle_FindsLoop(t *testing.T) {
	// Cycle assembled from merged sources: dependsOn a->b plus an
	// explicit edge b->a.
	items := []plan.WorkItem{item("a"), item("b", "a")}
	edges := []plan.DependencyEdge{{From: "b", To: "a", Block: plan.BlockHard}}

	g, _, err := Build(items, edges)
	require.NoError(t, err)

	se := g.HasCycle()
	require.NotNil(t, se)
	assert.Equal(t, ErrCodeCycleDetected, se.Code)
	assert.GreaterOrEqual(t, len(se.Path), 2)
	assert.Equal(t, se.Path[0], se.Path[len(se.Path)-1], "path must close on itself")
}

func TestHasCycle_DeepChainIterative(t *testing.T) {
	// A long chain exercises the explicit-stack DFS; a recursive
	// implementation would be at risk on chains like this.
	const n = 20000
	items := make([]plan.WorkItem, n)
	prev := ""
	for i := 0; i < n; i++ {
		id := itemID(i)
		if prev == "" {
			items[i] = item(id)
		} else {
			items[i] = item(id, prev)
		}
		prev = id
	}
	g, _, err := Build(items, nil)
	require.NoError(t, err)

	assert.Nil(t, g.HasCycle())
	assert.True(t, g.WouldCreateCycle(itemID(n-1), itemID(0)))
}

func itemID(i int) string {
	return "n" + strconv.Itoa(i)
}

// =============================================================================
// Topological Ranker Tests
// =============================================================================

func TestTopoSort_RespectsDependencies(t *testing.T) {
	items := []plan.WorkItem{item("c", "b"), item("b", "a"), item("a")}
	g, _, err := Build(items, nil)
	require.NoError(t, err)

	order, err := g.TopoSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestTopoSort_TieBreakByInputOrder(t *testing.T) {
	// z, m, a are all eligible simultaneously: input order wins, not
	// lexical order.
	items := []plan.WorkItem{item("z"), item("m"), item("a")}
	g, _, err := Build(items, nil)
	require.NoError(t, err)

	order, err := g.TopoSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "m", "a"}, order)
}

func TestTopoSort_NewlyEligibleKeepInputOrder(t *testing.T) {
	// After a completes, both c and b become eligible; b precedes c in
	// input order so it must come first.
	items := []plan.WorkItem{item("a"), item("b", "a"), item("c", "a")}
	g, _, err := Build(items, nil)
	require.NoError(t, err)

	order, err := g.TopoSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestTopoSort_Deterministic(t *testing.T) {
	items := []plan.WorkItem{item("d"), item("b", "d"), item("c", "d"), item("a", "b", "c")}
	g, _, err := Build(items, nil)
	require.NoError(t, err)

	first, err := g.TopoSort()
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := g.TopoSort()
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestTopoSort_CycleSurfacedAsStructuralError(t *testing.T) {
	items := []plan.WorkItem{item("a", "b"), item("b", "a")}
	g, _, err := Build(items, nil)
	require.NoError(t, err)

	_, err = g.TopoSort()
	require.Error(t, err)

	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrCodeUnprocessedNodes, se.Code)
	assert.ElementsMatch(t, []string{"a", "b"}, se.Path)
}
