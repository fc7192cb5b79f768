package scheduler

import (
	"time"

	"github.com/planora/planora/internal/graph"
	"github.com/planora/planora/internal/plan"
)

// Reason codes explain why an item ended up unscheduled. One item's
// infeasibility never aborts the run; it lands here instead.
type Reason string

const (
	// ReasonNoFeasibleWindow: no interval of the required duration and
	// work kind exists before the planning horizon ends.
	ReasonNoFeasibleWindow Reason = "no_feasible_window"

	// ReasonBlockedByUnscheduled: a hard blocker of the item could not
	// itself be scheduled, so the item never became eligible.
	ReasonBlockedByUnscheduled Reason = "blocked_by_unscheduled"

	// ReasonNotRequested: manual mode schedules only explicitly placed
	// items; everything else is reported here.
	ReasonNotRequested Reason = "not_requested"
)

// ScheduledSlot is one placement: an item, its concrete start and end,
// and the availability day it was drawn from. WaitUntil is set for
// items with an async wait: active work ends at End, but the item is
// waiting on an external process (and blocks dependents) until
// WaitUntil.
type ScheduledSlot struct {
	ItemID    string     `json:"item_id"`
	Start     time.Time  `json:"start"`
	End       time.Time  `json:"end"`
	Day       string     `json:"day"`
	WaitUntil *time.Time `json:"wait_until,omitempty"`
}

// Waiting reports whether the item sits in an async wait after its
// active duration.
func (s *ScheduledSlot) Waiting() bool {
	return s.WaitUntil != nil
}

// UnscheduledTask pairs an item with the reason it was not placed.
type UnscheduledTask struct {
	ItemID string `json:"item_id"`
	Reason Reason `json:"reason"`
}

// Conflict reports a hard-block or capacity violation detected during
// the run (manual placements mostly). Conflicts are reported, never
// silently corrected.
type Conflict struct {
	Description string   `json:"description"`
	ItemIDs     []string `json:"item_ids"`
}

// Result is the output of one scheduling run. The engine returns it
// instead of mutating caller state; the caller applies it back to
// persistent storage.
type Result struct {
	Mode             Mode              `json:"mode"`
	ScheduledItems   []ScheduledSlot   `json:"scheduled_items"`
	UnscheduledTasks []UnscheduledTask `json:"unscheduled_tasks,omitempty"`
	Conflicts        []Conflict        `json:"conflicts,omitempty"`
	Warnings         []graph.Warning   `json:"warnings,omitempty"`

	// Workflows carries the input workflows annotated with critical
	// path and worst case durations.
	Workflows []plan.Workflow `json:"workflows,omitempty"`
}

// NextScheduledItem returns the ID of the next actionable item at the
// given instant: the earliest slot that has not yet ended. Returns
// false when nothing remains. Drives "start next task" affordances.
func (r *Result) NextScheduledItem(now time.Time) (string, bool) {
	best := -1
	for i, s := range r.ScheduledItems {
		if !s.End.After(now) {
			continue
		}
		if best == -1 || s.Start.Before(r.ScheduledItems[best].Start) {
			best = i
		}
	}
	if best == -1 {
		return "", false
	}
	return r.ScheduledItems[best].ItemID, true
}

// SlotFor returns the slot for an item, if it was scheduled.
func (r *Result) SlotFor(itemID string) (ScheduledSlot, bool) {
	for _, s := range r.ScheduledItems {
		if s.ItemID == itemID {
			return s, true
		}
	}
	return ScheduledSlot{}, false
}
