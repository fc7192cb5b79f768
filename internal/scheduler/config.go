package scheduler

// Mode selects the allocation strategy.
type Mode string

const (
	// ModeOptimal minimizes overall completion time: the next
	// eligible highest-priority item always takes the earliest
	// feasible slot, with only hard capacity caps respected.
	ModeOptimal Mode = "optimal"

	// ModeBalanced treats declared caps as targets rather than
	// maxima: work spreads out to keep each day under a comfortable
	// load, overflowing a target only when no later in-horizon day
	// can take the item.
	ModeBalanced Mode = "balanced"

	// ModeManual places items only at explicit user-requested
	// positions; the allocator does conflict detection, not ordering.
	ModeManual Mode = "manual"
)

// ValidModes defines the allowed modes.
var ValidModes = map[Mode]bool{
	ModeOptimal:  true,
	ModeBalanced: true,
	ModeManual:   true,
}

// Config carries the tunables the available material only describes
// qualitatively. All of them are explicit parameters rather than
// buried constants; the defaults below are the documented choices.
type Config struct {
	// DeadlineBoostMax is the priority boost applied once an item can
	// no longer finish by its hard deadline.
	DeadlineBoostMax int

	// DeadlineLeadFactor controls how early the boost ramp starts:
	// the boost begins growing once remaining slack drops below
	// duration x DeadlineLeadFactor.
	DeadlineLeadFactor float64

	// BreakAfter / BreakLength configure mandatory break insertion
	// (continuous minutes worked / break minutes).
	BreakAfter  int
	BreakLength int

	// WorstCaseFactor pads workflow critical paths.
	WorstCaseFactor float64

	// FairShareMinutes is how long one workflow may hold consecutive
	// capacity before other eligible work is preferred.
	FairShareMinutes int

	// BalancedHeadroom scales caps down to the balanced-mode target.
	BalancedHeadroom float64
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		DeadlineBoostMax:   100,
		DeadlineLeadFactor: 3.0,
		BreakAfter:         90,
		BreakLength:        15,
		WorstCaseFactor:    1.5,
		FairShareMinutes:   120,
		BalancedHeadroom:   0.85,
	}
}
