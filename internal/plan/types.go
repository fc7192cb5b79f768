package plan

import "time"

// WorkKind categorizes a WorkItem for capacity accounting.
// The availability model tracks separate daily caps for focused and
// admin work; personal items consume window time but no cap.
type WorkKind string

const (
	KindFocused  WorkKind = "focused"
	KindAdmin    WorkKind = "admin"
	KindPersonal WorkKind = "personal"
)

// ValidWorkKinds defines the allowed work kinds.
var ValidWorkKinds = map[WorkKind]bool{
	KindFocused:  true,
	KindAdmin:    true,
	KindPersonal: true,
}

// ItemKind discriminates the WorkItem variant.
// Standalone tasks and workflow steps share one contract (duration,
// work kind, dependencies, status); the scheduler never branches on
// kind-specific behavior.
type ItemKind string

const (
	ItemTask ItemKind = "task"
	ItemStep ItemKind = "step"
)

// Status is the lifecycle state of a WorkItem.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusWaiting    Status = "waiting"
	StatusCompleted  Status = "completed"
	StatusSkipped    Status = "skipped"
)

// ValidStatuses defines the allowed lifecycle states.
var ValidStatuses = map[Status]bool{
	StatusNotStarted: true,
	StatusInProgress: true,
	StatusWaiting:    true,
	StatusCompleted:  true,
	StatusSkipped:    true,
}

// DeadlineKind distinguishes hard deadlines (drive priority boosts,
// missing one is a scheduling failure) from soft ones (advisory).
type DeadlineKind string

const (
	DeadlineHard DeadlineKind = "hard"
	DeadlineSoft DeadlineKind = "soft"
)

// BlockKind distinguishes hard dependency edges (the allocator must
// not place the blocked item before the blocker completes) from soft
// ones (violations produce warnings, not conflicts).
type BlockKind string

const (
	BlockHard BlockKind = "hard"
	BlockSoft BlockKind = "soft"
)

// WorkItem is the unit of schedulable work: either a standalone task
// or a single workflow step (tagged by Kind).
//
// Duration and AsyncWait are in minutes. AsyncWait is time after the
// item's active work during which an external process must complete
// before the item can finish; it consumes no user capacity, and other
// eligible work may be scheduled inside it.
type WorkItem struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Kind       ItemKind `json:"kind"`
	WorkKind   WorkKind `json:"work_kind"`
	Duration   int      `json:"duration"`
	Importance int      `json:"importance"` // 1-10
	Urgency    int      `json:"urgency"`    // 1-10
	DependsOn  []string `json:"depends_on,omitempty"`
	AsyncWait  int      `json:"async_wait,omitempty"`
	Status     Status   `json:"status"`

	// Workflow membership (steps only). StepIndex is a display and
	// tie-break aid; execution order is governed by DependsOn.
	WorkflowID string `json:"workflow_id,omitempty"`
	StepIndex  int    `json:"step_index,omitempty"`

	Deadline     *time.Time   `json:"deadline,omitempty"`
	DeadlineKind DeadlineKind `json:"deadline_kind,omitempty"`
}

// Priority returns the base priority score (importance x urgency).
// Deadline boosts are applied on top of this by the scheduler.
func (w *WorkItem) Priority() int {
	return w.Importance * w.Urgency
}

// IsDone reports whether the item needs no further scheduling.
func (w *WorkItem) IsDone() bool {
	return w.Status == StatusCompleted || w.Status == StatusSkipped
}

// Workflow is an ordered collection of steps sharing one identifier
// space. Steps holds step IDs in declaration order; the steps
// themselves live in the snapshot's item list.
//
// CriticalPath and WorstCase are in minutes and are annotated by the
// critical path estimator; they are derived values, never set by hand.
type Workflow struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Steps        []string `json:"steps"`
	CriticalPath int      `json:"critical_path,omitempty"`
	WorstCase    int      `json:"worst_case,omitempty"`
}

// DependencyEdge is an explicit blocking relation: From must complete
// before To starts (hard) or should complete first (soft). Edges may
// cross workflow and endeavor boundaries.
type DependencyEdge struct {
	From  string    `json:"from"`
	To    string    `json:"to"`
	Block BlockKind `json:"block"`
	Note  string    `json:"note,omitempty"`
}

// Snapshot is the immutable input to one scheduling run: all work
// items (tasks and steps), workflows, and explicit cross-workflow
// edges. The engine never mutates a snapshot; lifecycle helpers
// return modified copies.
type Snapshot struct {
	Items     []WorkItem       `json:"items"`
	Workflows []Workflow       `json:"workflows,omitempty"`
	Edges     []DependencyEdge `json:"edges,omitempty"`
}

// ItemsByID indexes the snapshot's items. The returned map points at
// copies, so mutating through it cannot corrupt the snapshot.
func (s *Snapshot) ItemsByID() map[string]WorkItem {
	m := make(map[string]WorkItem, len(s.Items))
	for _, it := range s.Items {
		m[it.ID] = it
	}
	return m
}

// StepsOf returns the workflow's steps in declaration order, skipping
// IDs that no longer resolve to an item.
func (s *Snapshot) StepsOf(wf *Workflow) []WorkItem {
	byID := s.ItemsByID()
	steps := make([]WorkItem, 0, len(wf.Steps))
	for _, id := range wf.Steps {
		if it, ok := byID[id]; ok {
			steps = append(steps, it)
		}
	}
	return steps
}
