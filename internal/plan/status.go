package plan

// WorkflowStatus computes a workflow's overall status from its step
// statuses. The overall status is derived on read and never stored:
// step-level status is the single source of truth, so the two can
// never drift apart.
//
// Rules, in order:
//   - no steps (or all skipped)            => not_started
//   - any step in_progress or waiting      => in_progress
//   - all non-skipped steps completed      => completed
//   - some completed, some not             => in_progress
//   - otherwise                            => not_started
func (s *Snapshot) WorkflowStatus(wf *Workflow) Status {
	steps := s.StepsOf(wf)

	var active, completed, pending int
	for _, st := range steps {
		switch st.Status {
		case StatusInProgress, StatusWaiting:
			active++
		case StatusCompleted:
			completed++
		case StatusSkipped:
			// Skipped steps are inert: they count toward neither
			// completion nor pending work.
		default:
			pending++
		}
	}

	switch {
	case active > 0:
		return StatusInProgress
	case pending == 0 && completed > 0:
		return StatusCompleted
	case completed > 0:
		return StatusInProgress
	default:
		return StatusNotStarted
	}
}

// StartWorkflow returns a copy of the snapshot with the workflow's
// first eligible step (all in-workflow predecessors completed, lowest
// step index among candidates) marked in_progress. If no step is
// eligible the snapshot is returned unchanged.
func (s *Snapshot) StartWorkflow(workflowID string) Snapshot {
	out := s.clone()
	byID := out.ItemsByID()

	best := -1
	for i := range out.Items {
		it := &out.Items[i]
		if it.WorkflowID != workflowID || it.Status != StatusNotStarted {
			continue
		}
		if !predsCompleted(it, byID) {
			continue
		}
		if best == -1 || it.StepIndex < out.Items[best].StepIndex {
			best = i
		}
	}
	if best >= 0 {
		out.Items[best].Status = StatusInProgress
	}
	return out
}

// PauseWorkflow returns a copy with any in_progress step of the
// workflow reverted to not_started.
func (s *Snapshot) PauseWorkflow(workflowID string) Snapshot {
	out := s.clone()
	for i := range out.Items {
		it := &out.Items[i]
		if it.WorkflowID == workflowID && it.Status == StatusInProgress {
			it.Status = StatusNotStarted
		}
	}
	return out
}

// ResetWorkflow returns a copy with every step of the workflow back
// to not_started, clearing all completion state.
func (s *Snapshot) ResetWorkflow(workflowID string) Snapshot {
	out := s.clone()
	for i := range out.Items {
		if out.Items[i].WorkflowID == workflowID {
			out.Items[i].Status = StatusNotStarted
		}
	}
	return out
}

// predsCompleted reports whether every resolvable predecessor of the
// item is completed or skipped.
func predsCompleted(it *WorkItem, byID map[string]WorkItem) bool {
	for _, dep := range it.DependsOn {
		pred, ok := byID[dep]
		if !ok {
			continue // dangling reference, treated as satisfied
		}
		if !pred.IsDone() {
			return false
		}
	}
	return true
}

// clone deep-copies the snapshot so lifecycle helpers never mutate
// their receiver.
func (s *Snapshot) clone() Snapshot {
	out := Snapshot{
		Items:     make([]WorkItem, len(s.Items)),
		Workflows: make([]Workflow, len(s.Workflows)),
		Edges:     make([]DependencyEdge, len(s.Edges)),
	}
	copy(out.Items, s.Items)
	copy(out.Workflows, s.Workflows)
	copy(out.Edges, s.Edges)
	for i := range out.Items {
		out.Items[i].DependsOn = append([]string(nil), s.Items[i].DependsOn...)
	}
	for i := range out.Workflows {
		out.Workflows[i].Steps = append([]string(nil), s.Workflows[i].Steps...)
	}
	return out
}
