// Package cpm estimates workflow completion durations via critical
// path analysis.
//
// The critical path is the longest chain of (duration + async wait)
// through a workflow's step graph: a longest-path-in-a-DAG
// computation, not shortest-path. Async waits count toward the chain
// because a dependent step cannot start until the external process
// behind its predecessor finishes, even though the wait consumes no
// user capacity.
package cpm

import (
	"math"

	"github.com/planora/planora/internal/graph"
	"github.com/planora/planora/internal/plan"
)

// DefaultWorstCaseFactor pads the critical path to cover rework and
// retries. Configurable per run; 1.5 is the documented default.
const DefaultWorstCaseFactor = 1.5

// Estimate holds the analysis of one workflow.
type Estimate struct {
	// CriticalPath is the best-case completion duration in minutes.
	CriticalPath int
	// WorstCase is CriticalPath padded by the worst-case factor.
	// Invariant: CriticalPath <= WorstCase.
	WorstCase int
	// EarliestStart maps each step to the earliest minute (from
	// workflow start, ignoring availability) at which its
	// predecessors allow it to begin. Steps without predecessors map
	// to zero. The allocator's deadline math uses these offsets.
	EarliestStart map[string]int
}

// Analyze computes the estimate for one workflow's steps. Step
// dependencies outside the step set (cross-workflow edges) do not
// contribute: they constrain scheduling, not the workflow's own
// duration.
//
// A factor below 1 is treated as the default: a "worst case" shorter
// than the best case would be meaningless.
func Analyze(steps []plan.WorkItem, factor float64) (Estimate, error) {
	if factor < 1 {
		factor = DefaultWorstCaseFactor
	}

	inSet := make(map[string]plan.WorkItem, len(steps))
	for _, s := range steps {
		inSet[s.ID] = s
	}

	// Memoized depth-first accumulation. state tracks in-progress
	// nodes so a cycle inside the step graph is reported rather than
	// recursing forever.
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	accum := make(map[string]int, len(steps))
	state := make(map[string]int, len(steps))

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case done:
			return nil
		case visiting:
			return graph.NewCycleError([]string{id, id})
		}
		state[id] = visiting

		best := 0
		for _, dep := range inSet[id].DependsOn {
			pred, ok := inSet[dep]
			if !ok {
				continue // cross-workflow or deleted, level 0 contribution
			}
			if err := visit(dep); err != nil {
				return err
			}
			if v := accum[dep] + pred.Duration + pred.AsyncWait; v > best {
				best = v
			}
		}
		accum[id] = best
		state[id] = done
		return nil
	}

	est := Estimate{EarliestStart: make(map[string]int, len(steps))}
	for _, s := range steps {
		if err := visit(s.ID); err != nil {
			return Estimate{}, err
		}
	}

	for _, s := range steps {
		est.EarliestStart[s.ID] = accum[s.ID]
		if v := accum[s.ID] + s.Duration; v > est.CriticalPath {
			est.CriticalPath = v
		}
	}
	est.WorstCase = int(math.Ceil(float64(est.CriticalPath) * factor))
	return est, nil
}

// AnnotateSnapshot returns a copy of the snapshot with every
// workflow's CriticalPath and WorstCase filled in. The input snapshot
// is never mutated.
func AnnotateSnapshot(s *plan.Snapshot, factor float64) (plan.Snapshot, error) {
	out := plan.Snapshot{
		Items:     append([]plan.WorkItem(nil), s.Items...),
		Workflows: append([]plan.Workflow(nil), s.Workflows...),
		Edges:     append([]plan.DependencyEdge(nil), s.Edges...),
	}
	for i := range out.Workflows {
		est, err := Analyze(s.StepsOf(&out.Workflows[i]), factor)
		if err != nil {
			return plan.Snapshot{}, err
		}
		out.Workflows[i].CriticalPath = est.CriticalPath
		out.Workflows[i].WorstCase = est.WorstCase
	}
	return out, nil
}
