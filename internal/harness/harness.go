package harness

import (
	"fmt"
	"sort"

	"github.com/planora/planora/internal/scheduler"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	Pass bool `json:"pass"`

	// Schedule is the engine's schedule result.
	Schedule *scheduler.Result `json:"schedule"`

	// Errors contains assertion failure messages. Empty if Pass.
	Errors []string `json:"errors,omitempty"`
}

// AddError adds an assertion failure and marks the result failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Run executes a scenario: builds the engine request, runs one
// scheduling pass, and checks every assertion. A structural error from
// the engine (cycle, invalid plan) fails the scenario rather than
// returning an error, so scenarios can assert on rejection too.
func Run(scenario *Scenario) (*Result, error) {
	req, err := scenario.buildRequest()
	if err != nil {
		return nil, err
	}

	result := &Result{Pass: true}

	schedule, err := scheduler.Run(req, scheduler.DefaultConfig())
	if err != nil {
		result.AddError("engine rejected scenario: %v", err)
		return result, nil
	}
	result.Schedule = schedule

	for i, a := range scenario.Assertions {
		checkAssertion(result, i, &a)
	}
	return result, nil
}

func checkAssertion(r *Result, index int, a *Assertion) {
	switch a.Type {
	case AssertScheduled:
		checkScheduled(r, index, a)
	case AssertUnscheduled:
		checkUnscheduled(r, index, a)
	case AssertOrder:
		checkOrder(r, index, a)
	case AssertConflictCount:
		if got := len(r.Schedule.Conflicts); got != a.Count {
			r.AddError("assertions[%d]: expected %d conflicts, got %d", index, a.Count, got)
		}
	case AssertWarning:
		checkWarning(r, index, a)
	}
}

func checkScheduled(r *Result, index int, a *Assertion) {
	slot, ok := r.Schedule.SlotFor(a.Item)
	if !ok {
		r.AddError("assertions[%d]: %s was not scheduled", index, a.Item)
		return
	}
	if a.Day != "" && slot.Day != a.Day {
		r.AddError("assertions[%d]: %s scheduled on %s, expected %s", index, a.Item, slot.Day, a.Day)
	}
	if a.Start != "" {
		if got := slot.Start.Format("15:04"); got != a.Start {
			r.AddError("assertions[%d]: %s starts at %s, expected %s", index, a.Item, got, a.Start)
		}
	}
	if a.Waiting && !slot.Waiting() {
		r.AddError("assertions[%d]: %s has no async wait", index, a.Item)
	}
}

func checkUnscheduled(r *Result, index int, a *Assertion) {
	if _, ok := r.Schedule.SlotFor(a.Item); ok {
		r.AddError("assertions[%d]: %s was scheduled, expected unscheduled", index, a.Item)
		return
	}
	if a.Reason == "" {
		return
	}
	for _, u := range r.Schedule.UnscheduledTasks {
		if u.ItemID == a.Item {
			if string(u.Reason) != a.Reason {
				r.AddError("assertions[%d]: %s unscheduled for %s, expected %s",
					index, a.Item, u.Reason, a.Reason)
			}
			return
		}
	}
	r.AddError("assertions[%d]: %s missing from unscheduled tasks", index, a.Item)
}

func checkOrder(r *Result, index int, a *Assertion) {
	slots := make([]scheduler.ScheduledSlot, len(r.Schedule.ScheduledItems))
	copy(slots, r.Schedule.ScheduledItems)
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].Start.Before(slots[j].Start)
	})

	position := make(map[string]int, len(slots))
	for i, s := range slots {
		position[s.ItemID] = i
	}

	prev := -1
	for _, id := range a.Items {
		pos, ok := position[id]
		if !ok {
			r.AddError("assertions[%d]: %s was not scheduled", index, id)
			return
		}
		if pos <= prev {
			r.AddError("assertions[%d]: %s out of order", index, id)
			return
		}
		prev = pos
	}
}

func checkWarning(r *Result, index int, a *Assertion) {
	for _, w := range r.Schedule.Warnings {
		if w.Code == a.Code {
			return
		}
	}
	r.AddError("assertions[%d]: no warning with code %s", index, a.Code)
}
