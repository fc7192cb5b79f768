package scheduler

// fairShare tracks how long a single workflow has held consecutive
// capacity, so one workflow cannot monopolize a planning window while
// other eligible work starves.
//
// The tracker watches the stream of placements: placing from the same
// workflow extends its run, placing anything else resets it. Once a
// workflow's run reaches the configured share, the allocator prefers
// eligible work from elsewhere before returning to it, unless hard
// dependency ordering leaves no alternative.
type fairShare struct {
	limit      int
	workflowID string
	run        int
}

func newFairShare(limit int) *fairShare {
	return &fairShare{limit: limit}
}

// Exhausted reports whether the workflow has consumed its share of
// consecutive minutes. Standalone tasks (empty workflow ID) are never
// throttled.
func (f *fairShare) Exhausted(workflowID string) bool {
	return workflowID != "" && workflowID == f.workflowID && f.run >= f.limit
}

// Record notes a placement of `minutes` from the given workflow.
func (f *fairShare) Record(workflowID string, minutes int) {
	if workflowID != "" && workflowID == f.workflowID {
		f.run += minutes
		return
	}
	f.workflowID = workflowID
	f.run = minutes
	if workflowID == "" {
		f.run = 0
	}
}
