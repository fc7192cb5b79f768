package scheduler

import (
	"math"
	"time"

	"github.com/planora/planora/internal/plan"
)

// deadlineBoost computes the priority boost for an item given its
// earliest feasible start. Only hard deadlines boost; soft deadlines
// are advisory.
//
// The curve is linear in consumed slack: with
//
//	slack = minutes from (earliestStart + duration) to the deadline
//	lead  = duration x DeadlineLeadFactor
//
// the boost is 0 while slack >= lead, ramps linearly as slack shrinks
// below lead, and pins at DeadlineBoostMax once slack <= 0 (the item
// can no longer finish by its deadline given current placement).
func deadlineBoost(it *plan.WorkItem, earliestStart time.Time, cfg Config) int {
	if it.Deadline == nil || it.DeadlineKind != plan.DeadlineHard {
		return 0
	}

	finish := earliestStart.Add(time.Duration(it.Duration) * time.Minute)
	slack := it.Deadline.Sub(finish).Minutes()
	lead := float64(it.Duration) * cfg.DeadlineLeadFactor
	if lead <= 0 {
		lead = 1
	}

	if slack <= 0 {
		return cfg.DeadlineBoostMax
	}
	if slack >= lead {
		return 0
	}
	return int(math.Round(float64(cfg.DeadlineBoostMax) * (1 - slack/lead)))
}
