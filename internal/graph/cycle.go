package graph

// WouldCreateCycle reports whether adding the edge from -> to would
// close a cycle, without mutating the graph. It runs a reachability
// search from `to` looking for `from`: if `from` is reachable, the new
// edge completes a loop.
//
// The search is an iterative depth-first walk with an explicit stack,
// so pathological chains cannot blow the goroutine stack. O(V+E).
//
// Cycle checks run on every proposed edge insertion rather than
// periodically: an undetected cycle makes the allocator loop forever,
// so an edge must be proven safe before it is committed.
func (g *Graph) WouldCreateCycle(from, to string) bool {
	if from == to {
		return true
	}

	visited := make(map[string]bool, len(g.Order))
	stack := []string{to}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == from {
			return true
		}
		if visited[node] {
			continue
		}
		visited[node] = true
		stack = append(stack, g.Adj[node]...)
	}
	return false
}

// HasCycle checks the whole graph for a dependency cycle and returns
// it as a StructuralError carrying the cycle path, or nil if the graph
// is acyclic. Used to validate a graph merged from multiple sources
// (step dependsOn lists plus cross-workflow edges) in a single pass.
//
// Iterative DFS with white/gray/black coloring; a gray node reached
// again closes a cycle, reconstructed via the parent chain.
func (g *Graph) HasCycle() *StructuralError {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int, len(g.Order))
	parent := make(map[string]string)

	// Frames carry (node, next child index) so the walk is iterative.
	type frame struct {
		node string
		next int
	}

	for _, start := range g.Order {
		if color[start] != white {
			continue
		}

		stack := []frame{{node: start}}
		color[start] = gray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			children := g.Adj[top.node]

			if top.next >= len(children) {
				color[top.node] = black
				stack = stack[:len(stack)-1]
				continue
			}

			child := children[top.next]
			top.next++

			switch color[child] {
			case gray:
				// Back edge: reconstruct the cycle path.
				cycle := []string{child, top.node}
				cur := top.node
				for cur != child {
					cur = parent[cur]
					cycle = append(cycle, cur)
				}
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return NewCycleError(cycle)
			case white:
				parent[child] = top.node
				color[child] = gray
				stack = append(stack, frame{node: child})
			}
		}
	}
	return nil
}
