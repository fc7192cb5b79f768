package graph

import "fmt"

// TopoSort orders the graph's nodes so every hard blocker precedes
// everything it blocks (Kahn's algorithm). When several nodes are
// simultaneously eligible the tie is broken by original input order,
// so scheduling output is reproducible across runs given identical
// input.
//
// Nodes left unprocessed after the queue drains indicate a cycle.
// HasCycle is expected to have run first; leftovers here are still
// surfaced as a structural error naming the remaining nodes, never
// silently dropped.
func (g *Graph) TopoSort() ([]string, error) {
	inDegree := make(map[string]int, len(g.Order))
	for _, id := range g.Order {
		inDegree[id] = len(g.RevAdj[id])
	}

	// rank restores input order when re-sorting newly eligible nodes.
	rank := make(map[string]int, len(g.Order))
	for i, id := range g.Order {
		rank[id] = i
	}

	// Seed with zero in-degree nodes in input order.
	var queue []string
	for _, id := range g.Order {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(g.Order))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		for _, succ := range g.Adj[node] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				queue = insertByRank(queue, succ, rank)
			}
		}
	}

	if len(order) != len(g.Order) {
		var leftover []string
		for _, id := range g.Order {
			if inDegree[id] > 0 {
				leftover = append(leftover, id)
			}
		}
		return nil, &StructuralError{
			Code:    ErrCodeUnprocessedNodes,
			Message: fmt.Sprintf("topological sort left %d of %d nodes unprocessed", len(leftover), len(g.Order)),
			Path:    leftover,
		}
	}

	return order, nil
}

// insertByRank inserts id into the queue keeping it sorted by input
// rank. The queue stays small (only simultaneously eligible nodes),
// so linear insertion beats a heap here.
func insertByRank(queue []string, id string, rank map[string]int) []string {
	pos := len(queue)
	for i, q := range queue {
		if rank[id] < rank[q] {
			pos = i
			break
		}
	}
	queue = append(queue, "")
	copy(queue[pos+1:], queue[pos:])
	queue[pos] = id
	return queue
}
