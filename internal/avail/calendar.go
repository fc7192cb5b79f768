package avail

import (
	"fmt"
	"time"

	"github.com/planora/planora/internal/plan"
)

// Horizon bounds one scheduling run: the first day considered and how
// many days to look ahead. The engine has no internal timeout; the
// horizon is the caller's bound on pathological inputs.
type Horizon struct {
	Start time.Time
	Days  int
}

// End returns the first instant past the horizon.
func (h Horizon) End() time.Time {
	return dayMidnight(h.Start).AddDate(0, 0, h.Days)
}

// BreakPolicy configures mandatory break insertion. After BreakAfter
// continuous scheduled minutes, a BreakLength break is inserted.
// Breaks consume window time but never count against focused/admin
// caps.
type BreakPolicy struct {
	BreakAfter  int
	BreakLength int
}

// DefaultBreakPolicy is the documented default: a 15 minute break
// after 90 continuous minutes.
var DefaultBreakPolicy = BreakPolicy{BreakAfter: 90, BreakLength: 15}

// Calendar is the per-run working state of the availability model: it
// tracks which intervals are already occupied and how much of each
// day's caps has been consumed. A Calendar is local to a single
// scheduling run and is never shared between runs.
type Calendar struct {
	avail   *Availability
	horizon Horizon
	policy  BreakPolicy

	// capFactor scales daily caps down to a target (balanced mode
	// schedules against cap x factor; optimal mode uses 1.0).
	capFactor float64

	busy    map[string][]span // date key -> worked minute ranges, sorted
	breaks  map[string][]span // date key -> inserted break ranges, sorted
	focused map[string]int    // date key -> focused minutes consumed
	admin   map[string]int    // date key -> admin minutes consumed
}

// NewCalendar creates an empty calendar over the horizon.
func NewCalendar(a *Availability, horizon Horizon, policy BreakPolicy, capFactor float64) *Calendar {
	if policy.BreakAfter <= 0 {
		policy.BreakAfter = DefaultBreakPolicy.BreakAfter
	}
	if policy.BreakLength <= 0 {
		policy.BreakLength = DefaultBreakPolicy.BreakLength
	}
	if capFactor <= 0 || capFactor > 1 {
		capFactor = 1
	}
	return &Calendar{
		avail:     a,
		horizon:   horizon,
		policy:    policy,
		capFactor: capFactor,
		busy:      make(map[string][]span),
		breaks:    make(map[string][]span),
		focused:   make(map[string]int),
		admin:     make(map[string]int),
	}
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// dayStart returns midnight of the i-th horizon day in the horizon
// start's location.
func (c *Calendar) dayStart(i int) time.Time {
	y, m, d := c.horizon.Start.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.horizon.Start.Location()).AddDate(0, 0, i)
}

// capRemaining returns the remaining minutes of the day's cap for the
// work kind, against the scaled target. Personal work has no cap.
func (c *Calendar) capRemaining(day time.Time, kind plan.WorkKind, scale float64) int {
	decl, ok := c.avail.Days[day.Weekday()]
	if !ok {
		return 0
	}
	key := dateKey(day)
	switch kind {
	case plan.KindFocused:
		return int(float64(decl.FocusedCap)*scale) - c.focused[key]
	case plan.KindAdmin:
		return int(float64(decl.AdminCap)*scale) - c.admin[key]
	default:
		return 1 << 30 // personal: window time only
	}
}

// CapRemaining reports the unscaled remaining cap for a day and kind.
func (c *Calendar) CapRemaining(day time.Time, kind plan.WorkKind) int {
	return c.capRemaining(day, kind, 1)
}

// NextSlot finds the earliest feasible interval of the requested
// duration and work kind at or after `from`, inside declared windows,
// outside fixed blocks and already-reserved intervals, with enough
// remaining cap. Returns ok=false when no interval exists before the
// horizon ends.
func (c *Calendar) NextSlot(from time.Time, duration int, kind plan.WorkKind) (time.Time, time.Time, bool) {
	return c.nextSlot(from, duration, kind, c.capFactor)
}

// NextSlotStrict is NextSlot against the full declared caps rather
// than the scaled target. Balanced mode falls back to it when an item
// fits nowhere inside the target (unavoidable overflow).
func (c *Calendar) NextSlotStrict(from time.Time, duration int, kind plan.WorkKind) (time.Time, time.Time, bool) {
	return c.nextSlot(from, duration, kind, 1)
}

func (c *Calendar) nextSlot(from time.Time, duration int, kind plan.WorkKind, scale float64) (time.Time, time.Time, bool) {
	if from.Before(c.horizon.Start) {
		from = c.horizon.Start
	}

	for i := 0; i < c.horizon.Days; i++ {
		day := c.dayStart(i)
		dayEnd := day.AddDate(0, 0, 1)
		if !dayEnd.After(from) {
			continue
		}

		decl, ok := c.avail.Days[day.Weekday()]
		if !ok || len(decl.Windows) == 0 {
			continue
		}
		if c.capRemaining(day, kind, scale) < duration {
			continue
		}

		free := c.freeFor(decl, day)

		// Clip to `from` when it falls inside this day.
		fromMin := 0
		if from.After(day) {
			fromMin = int(from.Sub(day).Minutes())
		}

		for _, sp := range free {
			start := sp.start
			if start < fromMin {
				start = fromMin
			}
			if sp.end-start >= duration {
				s := day.Add(time.Duration(start) * time.Minute)
				return s, s.Add(time.Duration(duration) * time.Minute), true
			}
		}
	}
	return time.Time{}, time.Time{}, false
}

// Reserve commits an interval: marks it occupied, charges the day's
// cap for the work kind, and inserts a mandatory break when the
// continuous run of work ending here exceeds the break threshold.
func (c *Calendar) Reserve(start, end time.Time, kind plan.WorkKind) {
	key := dateKey(start)
	midnight := dayMidnight(start)
	s := int(start.Sub(midnight).Minutes())
	e := int(end.Sub(midnight).Minutes())

	c.busy[key] = insertSpan(c.busy[key], span{s, e})
	switch kind {
	case plan.KindFocused:
		c.focused[key] += e - s
	case plan.KindAdmin:
		c.admin[key] += e - s
	}

	if c.continuousRun(key, e) >= c.policy.BreakAfter {
		// The break occupies window time but charges no cap. Breaks
		// live apart from worked spans so the continuous-work count
		// restarts from zero once a break has been taken.
		c.breaks[key] = insertSpan(c.breaks[key], span{e, e + c.policy.BreakLength})
	}
}

// freeFor returns the day's declared free spans minus reservations and
// inserted breaks.
func (c *Calendar) freeFor(decl Day, day time.Time) []span {
	free := decl.freeSpans()
	key := dateKey(day)
	for _, b := range c.busy[key] {
		free = subtract(free, b)
	}
	for _, b := range c.breaks[key] {
		free = subtract(free, b)
	}
	return free
}

// Fits checks a manual placement: the interval must lie inside a
// declared window, clear of blocks and reservations, with cap to
// spare. Returns a descriptive error when it does not fit.
func (c *Calendar) Fits(start time.Time, duration int, kind plan.WorkKind) error {
	end := start.Add(time.Duration(duration) * time.Minute)
	if start.Before(c.horizon.Start) || end.After(c.horizon.End()) {
		return fmt.Errorf("placement %s outside planning horizon", start.Format(time.RFC3339))
	}
	day := dayMidnight(start)
	decl, ok := c.avail.Days[start.Weekday()]
	if !ok {
		return fmt.Errorf("no availability declared for %s", start.Weekday())
	}
	if c.capRemaining(day, kind, 1) < duration {
		return fmt.Errorf("%s cap exhausted on %s", kind, dateKey(day))
	}

	s := int(start.Sub(day).Minutes())
	for _, sp := range c.freeFor(decl, day) {
		if s >= sp.start && s+duration <= sp.end {
			return nil
		}
	}
	return fmt.Errorf("no free window at %s for %d minutes", start.Format("15:04"), duration)
}

// continuousRun measures the unbroken run of worked minutes ending at
// minute `end` of the day. Break spans are not in the busy list, so a
// taken break ends the chain and the count restarts after it.
func (c *Calendar) continuousRun(key string, end int) int {
	spans := c.busy[key]
	run := 0
	cursor := end
	for {
		extended := false
		for _, sp := range spans {
			if sp.end == cursor {
				run += sp.end - sp.start
				cursor = sp.start
				extended = true
				break
			}
		}
		if !extended {
			return run
		}
	}
}

// insertSpan keeps the day's busy list sorted by start.
func insertSpan(spans []span, sp span) []span {
	pos := len(spans)
	for i, s := range spans {
		if sp.start < s.start {
			pos = i
			break
		}
	}
	spans = append(spans, span{})
	copy(spans[pos+1:], spans[pos:])
	spans[pos] = sp
	return spans
}

func dayMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
