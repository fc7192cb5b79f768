// Package avail models the user's recurring capacity: per-weekday
// work windows, fixed non-negotiable blocks (sleep, meetings), and
// daily caps on focused and admin minutes.
//
// Availability is entirely user-declared per weekday. There is no
// built-in weekend pattern: a weekday with no declared windows simply
// has no capacity, whichever day of the week it is.
package avail

import (
	"fmt"
	"sort"
	"time"
)

// Window is a contiguous time range within a day, "HH:MM" inclusive
// start, exclusive end.
type Window struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// Day declares one weekday's capacity.
type Day struct {
	// Windows are the ranges available for work.
	Windows []Window `json:"windows,omitempty" yaml:"windows,omitempty"`
	// Blocks subtract from availability unconditionally (sleep,
	// standing meetings), regardless of remaining caps.
	Blocks []Window `json:"blocks,omitempty" yaml:"blocks,omitempty"`
	// FocusedCap and AdminCap limit scheduled minutes per day by work
	// kind. Zero means no work of that kind fits that day.
	FocusedCap int `json:"focused_cap" yaml:"focused_cap"`
	AdminCap   int `json:"admin_cap" yaml:"admin_cap"`
}

// Availability is the full weekly pattern.
type Availability struct {
	Days map[time.Weekday]Day `json:"days" yaml:"days"`
}

// Validate checks that every window and block parses and is
// well-ordered.
func (a *Availability) Validate() error {
	for wd, day := range a.Days {
		for _, w := range append(append([]Window{}, day.Windows...), day.Blocks...) {
			s, e, err := w.minutes()
			if err != nil {
				return fmt.Errorf("%s: %w", wd, err)
			}
			if s >= e {
				return fmt.Errorf("%s: window %s-%s is empty or inverted", wd, w.Start, w.End)
			}
		}
		if day.FocusedCap < 0 || day.AdminCap < 0 {
			return fmt.Errorf("%s: caps must not be negative", wd)
		}
	}
	return nil
}

// minutes parses the window into minutes-of-day.
func (w Window) minutes() (int, int, error) {
	s, err := parseHHMM(w.Start)
	if err != nil {
		return 0, 0, fmt.Errorf("window start %q: %w", w.Start, err)
	}
	e, err := parseHHMM(w.End)
	if err != nil {
		return 0, 0, fmt.Errorf("window end %q: %w", w.End, err)
	}
	return s, e, nil
}

func parseHHMM(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("expected HH:MM: %w", err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("out of range: %s", s)
	}
	return h*60 + m, nil
}

// span is a half-open minute-of-day range.
type span struct{ start, end int }

// freeSpans computes the day's workable ranges: windows minus fixed
// blocks, sorted and non-overlapping. Invalid windows were rejected
// by Validate, so parse errors here drop the range.
func (d Day) freeSpans() []span {
	var free []span
	for _, w := range d.Windows {
		s, e, err := w.minutes()
		if err != nil {
			continue
		}
		free = append(free, span{s, e})
	}
	sort.Slice(free, func(i, j int) bool { return free[i].start < free[j].start })

	for _, b := range d.Blocks {
		bs, be, err := b.minutes()
		if err != nil {
			continue
		}
		free = subtract(free, span{bs, be})
	}
	return free
}

// subtract removes the cut range from every span in the list.
func subtract(spans []span, cut span) []span {
	var out []span
	for _, sp := range spans {
		if cut.end <= sp.start || cut.start >= sp.end {
			out = append(out, sp)
			continue
		}
		if cut.start > sp.start {
			out = append(out, span{sp.start, cut.start})
		}
		if cut.end < sp.end {
			out = append(out, span{cut.end, sp.end})
		}
	}
	return out
}
