// Package rank derives a total priority order from pairwise
// comparisons ("A is more important than B").
//
// Each comparison is a directed edge in a dedicated comparison graph;
// equality answers merge two nodes into one equivalence class before
// ranking, so a chain A=B, B>C implies A>C transitively. Ranking
// reuses the deterministic Kahn ordering from the graph package, and
// sorted position is mapped linearly onto a 1-10 score range.
package rank

import (
	"math"

	"github.com/planora/planora/internal/graph"
)

// Comparisons accumulates pairwise answers for one ranking session.
// Not safe for concurrent use; sessions are short-lived and
// single-caller, like every other engine structure.
type Comparisons struct {
	order  []string          // first-seen id order, drives tie-breaks
	seen   map[string]bool
	parent map[string]string // union-find over equivalence classes
	wins   [][2]string       // (winner, loser) pairs as recorded
}

// New creates an empty comparison session.
func New() *Comparisons {
	return &Comparisons{
		seen:   make(map[string]bool),
		parent: make(map[string]string),
	}
}

// AddItem registers an id without any comparison. Items must be
// registered (directly or via Add/AddEqual) before ranking so that
// never-compared items still appear in the output.
func (c *Comparisons) AddItem(id string) {
	if !c.seen[id] {
		c.seen[id] = true
		c.order = append(c.order, id)
		c.parent[id] = id
	}
}

// Add records that winner outranks loser.
func (c *Comparisons) Add(winner, loser string) {
	c.AddItem(winner)
	c.AddItem(loser)
	c.wins = append(c.wins, [2]string{winner, loser})
}

// AddEqual merges a and b into one equivalence class. All members of
// a class share every comparison and receive the same score.
func (c *Comparisons) AddEqual(a, b string) {
	c.AddItem(a)
	c.AddItem(b)
	ra, rb := c.find(a), c.find(b)
	if ra != rb {
		c.parent[rb] = ra
	}
}

func (c *Comparisons) find(id string) string {
	root := id
	for c.parent[root] != root {
		root = c.parent[root]
	}
	// Path compression.
	for c.parent[id] != root {
		c.parent[id], id = root, c.parent[id]
	}
	return root
}

// classGraph collapses equivalence classes to single nodes and builds
// the class-level comparison graph. Class identity is the first-seen
// member, and class order follows first appearance.
func (c *Comparisons) classGraph() (*graph.Graph, map[string][]string, error) {
	members := make(map[string][]string)
	var classOrder []string
	for _, id := range c.order {
		root := c.find(id)
		if len(members[root]) == 0 {
			classOrder = append(classOrder, root)
		}
		members[root] = append(members[root], id)
	}

	g := &graph.Graph{
		Adj:    make(map[string][]string, len(classOrder)),
		RevAdj: make(map[string][]string, len(classOrder)),
		Order:  classOrder,
	}
	dedup := make(map[[2]string]bool)
	for _, w := range c.wins {
		from, to := c.find(w[0]), c.find(w[1])
		if from == to {
			// A class outranking itself means the answers contradict
			// the equalities; surface it as a cycle.
			return nil, nil, graph.NewCycleError([]string{w[0], w[1], w[0]})
		}
		key := [2]string{from, to}
		if dedup[key] {
			continue
		}
		dedup[key] = true
		g.Adj[from] = append(g.Adj[from], to)
		g.RevAdj[to] = append(g.RevAdj[to], from)
	}

	if se := g.HasCycle(); se != nil {
		return nil, nil, se
	}
	return g, members, nil
}

// TopologicalSort returns all ids ordered from highest rank to
// lowest. Equivalence-class members appear consecutively in
// first-seen order. Contradictory comparisons return a structural
// error.
func (c *Comparisons) TopologicalSort() ([]string, error) {
	g, members, err := c.classGraph()
	if err != nil {
		return nil, err
	}
	classes, err := g.TopoSort()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, root := range classes {
		out = append(out, members[root]...)
	}
	return out, nil
}

// MapToRankings maps each id to a 1-10 score by sorted class
// position: first place scores 10, last place 1, and a single class
// (or single item) scores 10. Class members share one score.
func (c *Comparisons) MapToRankings() (map[string]int, error) {
	g, members, err := c.classGraph()
	if err != nil {
		return nil, err
	}
	classes, err := g.TopoSort()
	if err != nil {
		return nil, err
	}

	scores := make(map[string]int, len(c.order))
	n := len(classes)
	for i, root := range classes {
		score := 10
		if n > 1 {
			score = 10 - int(math.Round(float64(9*i)/float64(n-1)))
		}
		for _, id := range members[root] {
			scores[id] = score
		}
	}
	return scores, nil
}

// MissingComparisons returns every unordered pair whose relative
// order is not yet known, directly or transitively. Pairs already
// connected through a chain of wins (or merged by equality) are not
// reported, so the UI never asks a question the answers already
// decide.
func (c *Comparisons) MissingComparisons() ([][2]string, error) {
	g, _, err := c.classGraph()
	if err != nil {
		return nil, err
	}

	reach := make(map[string]map[string]bool, len(g.Order))
	for _, root := range g.Order {
		reach[root] = reachableFrom(g, root)
	}

	var missing [][2]string
	for i := 0; i < len(c.order); i++ {
		for j := i + 1; j < len(c.order); j++ {
			a, b := c.find(c.order[i]), c.find(c.order[j])
			if a == b || reach[a][b] || reach[b][a] {
				continue
			}
			missing = append(missing, [2]string{c.order[i], c.order[j]})
		}
	}
	return missing, nil
}

func reachableFrom(g *graph.Graph, start string) map[string]bool {
	visited := make(map[string]bool)
	stack := []string{start}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range g.Adj[node] {
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}
	return visited
}
