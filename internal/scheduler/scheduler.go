// Package scheduler implements the capacity allocator: it walks the
// priority-ordered, dependency-respecting work items and places each
// into the next feasible slot of the availability calendar.
//
// ARCHITECTURE:
//
// One scheduling run is a pure, synchronous computation over an
// immutable input snapshot: graph build -> cycle check -> critical
// path annotation -> topological order -> allocation. It executes to
// completion without suspension points, performs no I/O, and holds no
// state between runs: all working structures (graph, pending pool,
// calendar) are local to a single call, so re-entrancy is safe from
// any concurrency model. Callers bound pathological inputs with the
// planning horizon; there is no internal timeout.
//
// ERROR HANDLING: structural errors (cycles, self-edges) abort the
// run before any allocation occurs; a corrupted graph cannot be
// partially trusted. Per-item infeasibility never aborts the run:
// the item lands in UnscheduledTasks or Conflicts and every other
// eligible item is still scheduled.
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/planora/planora/internal/avail"
	"github.com/planora/planora/internal/cpm"
	"github.com/planora/planora/internal/graph"
	"github.com/planora/planora/internal/plan"
)

// WarnSoftBlockViolation marks a soft dependency scheduled out of
// order. Soft blocks are advisory: the placement stands, the warning
// surfaces it.
const WarnSoftBlockViolation = "SOFT_BLOCK_VIOLATION"

// Placement is an explicit manual-mode request: put this item at this
// start time.
type Placement struct {
	ItemID string    `json:"item_id"`
	Start  time.Time `json:"start"`
}

// Request is the immutable input to one run. The caller guarantees
// the snapshot is consistent (no torn reads of the underlying store);
// the engine never mutates it.
type Request struct {
	Snapshot     plan.Snapshot
	Availability avail.Availability
	Mode         Mode
	Horizon      avail.Horizon
	// Placements drive manual mode and are ignored otherwise.
	Placements []Placement
}

// Run executes one scheduling run and returns the result, or a
// structural error if the dependency graph cannot be trusted. A run
// returning an error produced no schedule.
func Run(req Request, cfg Config) (*Result, error) {
	cfg = withDefaults(cfg)

	if !ValidModes[req.Mode] {
		return nil, fmt.Errorf("unknown scheduling mode %q", req.Mode)
	}
	if req.Horizon.Days <= 0 {
		return nil, fmt.Errorf("planning horizon must cover at least one day, got %d", req.Horizon.Days)
	}
	if err := req.Snapshot.Validate(); err != nil {
		return nil, err
	}
	if err := req.Availability.Validate(); err != nil {
		return nil, err
	}

	g, warnings, err := graph.Build(req.Snapshot.Items, req.Snapshot.Edges)
	if err != nil {
		return nil, err
	}
	if se := g.HasCycle(); se != nil {
		return nil, se
	}
	order, err := g.TopoSort()
	if err != nil {
		// Defensive: HasCycle ran first, so this should not occur.
		return nil, err
	}

	annotated, err := cpm.AnnotateSnapshot(&req.Snapshot, cfg.WorstCaseFactor)
	if err != nil {
		return nil, err
	}

	capFactor := 1.0
	if req.Mode == ModeBalanced {
		capFactor = cfg.BalancedHeadroom
	}
	cal := avail.NewCalendar(&req.Availability, req.Horizon,
		avail.BreakPolicy{BreakAfter: cfg.BreakAfter, BreakLength: cfg.BreakLength},
		capFactor)

	slog.Debug("scheduling run started",
		"mode", req.Mode,
		"items", len(req.Snapshot.Items),
		"horizon_days", req.Horizon.Days)

	run := &allocator{
		req:        &req,
		cfg:        cfg,
		g:          g,
		cal:        cal,
		byID:       req.Snapshot.ItemsByID(),
		result:     &Result{Mode: req.Mode, Warnings: warnings, Workflows: annotated.Workflows},
		completion: make(map[string]time.Time),
		share:      newFairShare(cfg.FairShareMinutes),
	}

	if req.Mode == ModeManual {
		run.manual()
	} else {
		run.auto(order)
	}
	run.collectSoftBlockWarnings()

	slog.Debug("scheduling run finished",
		"scheduled", len(run.result.ScheduledItems),
		"unscheduled", len(run.result.UnscheduledTasks),
		"conflicts", len(run.result.Conflicts))

	return run.result, nil
}

// withDefaults fills zero-valued config fields from DefaultConfig.
func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.DeadlineBoostMax == 0 {
		cfg.DeadlineBoostMax = def.DeadlineBoostMax
	}
	if cfg.DeadlineLeadFactor == 0 {
		cfg.DeadlineLeadFactor = def.DeadlineLeadFactor
	}
	if cfg.BreakAfter == 0 {
		cfg.BreakAfter = def.BreakAfter
	}
	if cfg.BreakLength == 0 {
		cfg.BreakLength = def.BreakLength
	}
	if cfg.WorstCaseFactor == 0 {
		cfg.WorstCaseFactor = def.WorstCaseFactor
	}
	if cfg.FairShareMinutes == 0 {
		cfg.FairShareMinutes = def.FairShareMinutes
	}
	if cfg.BalancedHeadroom == 0 {
		cfg.BalancedHeadroom = def.BalancedHeadroom
	}
	return cfg
}

// allocator is the working state of a single run. It is created,
// used, and discarded inside Run; nothing escapes but the result.
type allocator struct {
	req  *Request
	cfg  Config
	g    *graph.Graph
	cal  *avail.Calendar
	byID map[string]plan.WorkItem

	// completion maps a scheduled item to the instant its dependents
	// may start: slot end, pushed out by any async wait.
	completion map[string]time.Time

	share  *fairShare
	result *Result
}

// candidate is an eligible item in one selection round.
type candidate struct {
	id    string
	from  time.Time // earliest start allowed by hard blockers
	score int       // base priority + deadline boost
	order int       // input position, the deterministic tie-break
}

// auto runs the optimal/balanced strategies: repeatedly select the
// highest-priority eligible item and place it, re-evaluating the
// pending pool after each placement so items unblocked by a placement
// become candidates immediately.
func (a *allocator) auto(topoOrder []string) {
	inputRank := make(map[string]int, len(a.req.Snapshot.Items))
	for i, it := range a.req.Snapshot.Items {
		inputRank[it.ID] = i
	}

	var pending []string
	for _, id := range topoOrder {
		if it := a.byID[id]; !it.IsDone() {
			pending = append(pending, id)
		}
	}

	for len(pending) > 0 {
		eligible := a.eligibleCandidates(pending, inputRank)
		if len(eligible) == 0 {
			// Every remaining item waits on a blocker that failed to
			// schedule; report rather than loop.
			for _, id := range pending {
				a.result.UnscheduledTasks = append(a.result.UnscheduledTasks,
					UnscheduledTask{ItemID: id, Reason: ReasonBlockedByUnscheduled})
			}
			return
		}

		best := pickBest(eligible)
		if a.share.Exhausted(a.byID[best.id].WorkflowID) {
			// The workflow spent its share of consecutive capacity;
			// prefer eligible work from elsewhere when any exists.
			if alt, ok := pickOtherWorkflow(eligible, a.byID[best.id].WorkflowID, a.byID); ok {
				best = alt
			}
		}

		pending = remove(pending, best.id)
		a.place(best)
	}
}

// eligibleCandidates filters the pending pool down to items whose
// hard blockers are all completed or scheduled to complete, computing
// each one's earliest start and boosted score.
func (a *allocator) eligibleCandidates(pending []string, inputRank map[string]int) []candidate {
	var out []candidate
	for _, id := range pending {
		it := a.byID[id]
		from := a.req.Horizon.Start
		eligible := true
		for _, b := range a.g.HardBlockers(id) {
			blocker := a.byID[b]
			if blocker.IsDone() {
				continue
			}
			ct, placed := a.completion[b]
			if !placed {
				eligible = false
				break
			}
			if ct.After(from) {
				from = ct
			}
		}
		if !eligible {
			continue
		}
		out = append(out, candidate{
			id:    id,
			from:  from,
			score: it.Priority() + deadlineBoost(&it, from, a.cfg),
			order: inputRank[id],
		})
	}
	return out
}

// place books the item into the calendar. An item with an async wait
// occupies only its active duration; the wait interval blocks
// dependents but consumes no capacity, so other eligible work is
// scheduled into the same wall-clock window on later rounds.
func (a *allocator) place(c candidate) {
	it := a.byID[c.id]

	start, end, ok := a.cal.NextSlot(c.from, it.Duration, it.WorkKind)
	if !ok && a.req.Mode == ModeBalanced {
		// Unavoidable overflow: nothing inside the balanced target
		// fits anywhere in the horizon, so fall back to the full cap.
		start, end, ok = a.cal.NextSlotStrict(c.from, it.Duration, it.WorkKind)
	}
	if !ok {
		a.result.UnscheduledTasks = append(a.result.UnscheduledTasks,
			UnscheduledTask{ItemID: c.id, Reason: ReasonNoFeasibleWindow})
		return
	}

	a.cal.Reserve(start, end, it.WorkKind)
	slot := ScheduledSlot{
		ItemID: c.id,
		Start:  start,
		End:    end,
		Day:    start.Format("2006-01-02"),
	}
	completes := end
	if it.AsyncWait > 0 {
		wait := end.Add(time.Duration(it.AsyncWait) * time.Minute)
		slot.WaitUntil = &wait
		completes = wait
	}
	a.completion[c.id] = completes
	a.share.Record(it.WorkflowID, it.Duration)
	a.result.ScheduledItems = append(a.result.ScheduledItems, slot)
}

// manual checks each explicit placement for hard-block and capacity
// violations, booking the ones that fit. No ordering decisions are
// made; requests are processed in the order given.
func (a *allocator) manual() {
	placed := make(map[string]bool)

	for _, p := range a.req.Placements {
		it, ok := a.byID[p.ItemID]
		if !ok {
			a.conflict(fmt.Sprintf("placement references unknown item %s", p.ItemID), p.ItemID)
			continue
		}
		if it.IsDone() {
			a.conflict(fmt.Sprintf("item %s is already %s", p.ItemID, it.Status), p.ItemID)
			continue
		}

		blocked := false
		for _, b := range a.g.HardBlockers(p.ItemID) {
			blocker := a.byID[b]
			if blocker.IsDone() {
				continue
			}
			ct, wasPlaced := a.completion[b]
			if !wasPlaced || ct.After(p.Start) {
				a.conflict(fmt.Sprintf("placement of %s at %s precedes completion of hard blocker %s",
					p.ItemID, p.Start.Format(time.RFC3339), b), p.ItemID, b)
				blocked = true
				break
			}
		}
		if blocked {
			continue
		}

		if err := a.cal.Fits(p.Start, it.Duration, it.WorkKind); err != nil {
			a.conflict(fmt.Sprintf("placement of %s rejected: %v", p.ItemID, err), p.ItemID)
			continue
		}

		end := p.Start.Add(time.Duration(it.Duration) * time.Minute)
		a.cal.Reserve(p.Start, end, it.WorkKind)
		slot := ScheduledSlot{
			ItemID: p.ItemID,
			Start:  p.Start,
			End:    end,
			Day:    p.Start.Format("2006-01-02"),
		}
		completes := end
		if it.AsyncWait > 0 {
			wait := end.Add(time.Duration(it.AsyncWait) * time.Minute)
			slot.WaitUntil = &wait
			completes = wait
		}
		a.completion[p.ItemID] = completes
		placed[p.ItemID] = true
		a.result.ScheduledItems = append(a.result.ScheduledItems, slot)
	}

	for _, it := range a.req.Snapshot.Items {
		if !it.IsDone() && !placed[it.ID] {
			a.result.UnscheduledTasks = append(a.result.UnscheduledTasks,
				UnscheduledTask{ItemID: it.ID, Reason: ReasonNotRequested})
		}
	}
}

func (a *allocator) conflict(description string, ids ...string) {
	a.result.Conflicts = append(a.result.Conflicts, Conflict{
		Description: description,
		ItemIDs:     ids,
	})
}

// collectSoftBlockWarnings flags every scheduled item that starts
// before a soft blocker completes. Advisory only.
func (a *allocator) collectSoftBlockWarnings() {
	for _, slot := range a.result.ScheduledItems {
		for _, sb := range a.g.SoftBlockers(slot.ItemID) {
			blocker := a.byID[sb]
			if blocker.IsDone() {
				continue
			}
			ct, placed := a.completion[sb]
			if placed && !ct.After(slot.Start) {
				continue
			}
			a.result.Warnings = append(a.result.Warnings, graph.Warning{
				Code: WarnSoftBlockViolation,
				Message: fmt.Sprintf("%s scheduled before soft blocker %s completes",
					slot.ItemID, sb),
				ItemIDs: []string{sb, slot.ItemID},
			})
		}
	}
}

// pickBest selects by boosted score, then input order.
func pickBest(cands []candidate) candidate {
	best := cands[0]
	for _, c := range cands[1:] {
		if c.score > best.score || (c.score == best.score && c.order < best.order) {
			best = c
		}
	}
	return best
}

// pickOtherWorkflow selects the best candidate outside the given
// workflow, if any exists.
func pickOtherWorkflow(cands []candidate, workflowID string, byID map[string]plan.WorkItem) (candidate, bool) {
	var others []candidate
	for _, c := range cands {
		if byID[c.id].WorkflowID != workflowID {
			others = append(others, c)
		}
	}
	if len(others) == 0 {
		return candidate{}, false
	}
	return pickBest(others), true
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}
