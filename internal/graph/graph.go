// Package graph builds and validates the dependency graph that drives
// scheduling.
//
// The graph is an explicit adjacency map keyed by item ID, never object
// references embedded in work items. This keeps single proposed edges
// trivially checkable (WouldCreateCycle diffs nothing but the map) and
// keeps the structure serializable for diagnostics.
//
// Determinism: adjacency lists are kept sorted and tie-breaks use the
// original input order, so every traversal over the same snapshot
// yields the same sequence. Map iteration order never leaks into
// results.
package graph

import (
	"fmt"
	"sort"

	"github.com/planora/planora/internal/plan"
)

// Graph is the directed "blocks" graph: an edge a -> b means a blocks
// b (b depends on a). Soft edges are tracked separately; they never
// constrain ordering, only produce warnings.
type Graph struct {
	// Adj maps an item to the items it hard-blocks, sorted.
	Adj map[string][]string
	// RevAdj maps an item to its hard blockers, sorted.
	RevAdj map[string][]string
	// SoftAdj maps an item to the items it soft-blocks, sorted.
	SoftAdj map[string][]string
	// Order holds all node IDs in original input order, used for
	// deterministic tie-breaking.
	Order []string
}

// Warning records a non-fatal problem found while building the graph,
// such as an edge referencing a deleted item. Warnings are surfaced on
// the schedule result, never silently swallowed.
type Warning struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	ItemIDs []string `json:"item_ids,omitempty"`
}

const (
	// WarnUnknownEdgeTarget marks an edge naming an ID not present in
	// the snapshot. The referenced item may have been deleted.
	WarnUnknownEdgeTarget = "UNKNOWN_EDGE_TARGET"
)

// Build assembles the dependency graph from per-item DependsOn lists
// and explicit cross-workflow edges, merged into one structure.
//
// Self-edges are rejected as a structural error. Edges referencing
// unknown identifiers are dropped with a warning. The returned graph
// has NOT been cycle-checked; callers run HasCycle before trusting it.
func Build(items []plan.WorkItem, edges []plan.DependencyEdge) (*Graph, []Warning, error) {
	g := &Graph{
		Adj:     make(map[string][]string, len(items)),
		RevAdj:  make(map[string][]string, len(items)),
		SoftAdj: make(map[string][]string),
		Order:   make([]string, 0, len(items)),
	}

	known := make(map[string]bool, len(items))
	for _, it := range items {
		known[it.ID] = true
		g.Order = append(g.Order, it.ID)
		g.Adj[it.ID] = nil
		g.RevAdj[it.ID] = nil
	}

	var warnings []Warning
	seen := make(map[[2]string]bool)

	addHard := func(from, to string) {
		key := [2]string{from, to}
		if seen[key] {
			return
		}
		seen[key] = true
		g.Adj[from] = append(g.Adj[from], to)
		g.RevAdj[to] = append(g.RevAdj[to], from)
	}

	warnUnknown := func(from, to, missing string) {
		warnings = append(warnings, Warning{
			Code:    WarnUnknownEdgeTarget,
			Message: fmt.Sprintf("edge %s -> %s dropped: %s not in snapshot", from, to, missing),
			ItemIDs: []string{from, to},
		})
	}

	// Per-item dependsOn lists: each dep hard-blocks the item.
	for _, it := range items {
		for _, dep := range it.DependsOn {
			if dep == it.ID {
				return nil, warnings, NewSelfEdgeError(it.ID)
			}
			if !known[dep] {
				warnUnknown(dep, it.ID, dep)
				continue
			}
			addHard(dep, it.ID)
		}
	}

	// Explicit edge records, including cross-workflow and cross-endeavor
	// edges carrying a hard/soft flag.
	for _, e := range edges {
		if e.From == e.To {
			return nil, warnings, NewSelfEdgeError(e.From)
		}
		if !known[e.From] {
			warnUnknown(e.From, e.To, e.From)
			continue
		}
		if !known[e.To] {
			warnUnknown(e.From, e.To, e.To)
			continue
		}
		if e.Block == plan.BlockSoft {
			g.SoftAdj[e.From] = append(g.SoftAdj[e.From], e.To)
			continue
		}
		addHard(e.From, e.To)
	}

	for k := range g.Adj {
		sort.Strings(g.Adj[k])
	}
	for k := range g.RevAdj {
		sort.Strings(g.RevAdj[k])
	}
	for k := range g.SoftAdj {
		sort.Strings(g.SoftAdj[k])
	}

	return g, warnings, nil
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.Order)
}

// HardBlockers returns the sorted hard blockers of an item.
func (g *Graph) HardBlockers(id string) []string {
	return g.RevAdj[id]
}

// SoftBlockers returns the items that soft-block id, in sorted order.
func (g *Graph) SoftBlockers(id string) []string {
	var out []string
	for _, from := range sortedKeys(g.SoftAdj) {
		for _, to := range g.SoftAdj[from] {
			if to == id {
				out = append(out, from)
			}
		}
	}
	return out
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
