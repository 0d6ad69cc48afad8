// Package availability turns sparse open/closed samples into an uptime and
// downtime split of a span's business seconds
package availability

import (
	"slices"
	"time"

	"storepulse/internal/core/bizhours"
)

// State is an observed status
type State uint8

// Observed states
const (
	Closed State = iota
	Open
)

func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// Sample is one observation on the local clock
type Sample struct {
	At    time.Time
	State State
}

// Result holds whole business seconds per state
type Result struct {
	Uptime   int64
	Downtime int64
}

// Total returns Uptime + Downtime
func (r Result) Total() int64 { return r.Uptime + r.Downtime }

// OpenOnly keeps samples that fall inside the calendar
func OpenOnly(cal bizhours.Calendar, samples []Sample) []Sample {
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if cal.IsOpen(s.At) {
			out = append(out, s)
		}
	}
	return out
}

// Interpolate splits the business seconds of [start, end] between up and down
//
// The last known state persists forward. The stretch before the first sample takes
// the first sample's state, so a single sample colours the whole span.
// No samples means the whole span counts as downtime.
// Uptime + Downtime always equals cal.BusinessSeconds(start, end).
func Interpolate(cal bizhours.Calendar, start, end time.Time, samples []Sample) Result {
	total := cal.BusinessSeconds(start, end)
	if len(samples) == 0 || total == 0 {
		return Result{Downtime: total}
	}

	if !slices.IsSortedFunc(samples, bySampleTime) {
		samples = slices.Clone(samples)
		slices.SortStableFunc(samples, bySampleTime)
	}

	var up time.Duration
	attribute := func(a, b time.Time, s State) {
		if s == Open {
			up += cal.BusinessDuration(a, b)
		}
	}

	first := clamp(samples[0].At, start, end)
	attribute(start, first, samples[0].State)

	prev := samples[0]
	prevAt := first
	for _, cur := range samples[1:] {
		at := clamp(cur.At, start, end)
		attribute(prevAt, at, prev.State)
		prev, prevAt = cur, at
	}
	attribute(prevAt, end, prev.State)

	uptime := min(int64(up/time.Second), total)
	return Result{Uptime: uptime, Downtime: total - uptime}
}

func bySampleTime(a, b Sample) int { return a.At.Compare(b.At) }

func clamp(t, lo, hi time.Time) time.Time {
	if t.Before(lo) {
		return lo
	}
	if t.After(hi) {
		return hi
	}
	return t
}
