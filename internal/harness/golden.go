package harness

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/planora/planora/internal/plan"
	"github.com/planora/planora/internal/scheduler"
)

// ScheduleSnapshot captures a schedule for golden comparison. It is
// serialized with canonical JSON so key order and string normalization
// can never produce a spurious diff.
type ScheduleSnapshot struct {
	ScenarioName string
	Mode         scheduler.Mode
	Slots        []scheduler.ScheduledSlot
	Unscheduled  []scheduler.UnscheduledTask
}

// toCanonicalMap converts the snapshot to the map form the canonical
// marshaler accepts. Times are rendered as RFC 3339 UTC.
func (s *ScheduleSnapshot) toCanonicalMap() map[string]any {
	slots := make([]any, len(s.Slots))
	for i, slot := range s.Slots {
		m := map[string]any{
			"item_id": slot.ItemID,
			"start":   slot.Start.UTC().Format(time.RFC3339),
			"end":     slot.End.UTC().Format(time.RFC3339),
			"day":     slot.Day,
		}
		if slot.WaitUntil != nil {
			m["wait_until"] = slot.WaitUntil.UTC().Format(time.RFC3339)
		}
		slots[i] = m
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"mode":          string(s.Mode),
		"slots":         slots,
	}
	if len(s.Unscheduled) > 0 {
		unscheduled := make([]any, len(s.Unscheduled))
		for i, u := range s.Unscheduled {
			unscheduled[i] = map[string]any{
				"item_id": u.ItemID,
				"reason":  string(u.Reason),
			}
		}
		result["unscheduled"] = unscheduled
	}
	return result
}

// RunWithGolden executes a scenario, checks its assertions, and
// compares the schedule against a golden file under
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}

	snapshot := ScheduleSnapshot{
		ScenarioName: scenario.Name,
		Mode:         result.Schedule.Mode,
		Slots:        result.Schedule.ScheduledItems,
		Unscheduled:  result.Schedule.UnscheduledTasks,
	}

	scheduleJSON, err := plan.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, scheduleJSON)

	return nil
}
