package bizhours

import (
	"time"

	"storepulse/internal/core/tz"
)

// Span arithmetic measures elapsed time. Opening and closing times are placed on
// each civil day in the span's own zone, so a day that gains or loses an hour to
// DST gains or loses it in the count too. Times in UTC behave as a plain wall clock.

// Interval is one open period, Start and End carry the span's location
type Interval struct {
	Start time.Time
	End   time.Time
}

// Duration returns End - Start
func (i Interval) Duration() time.Duration { return i.End.Sub(i.Start) }

// Contains reports whether t lies in [Start, End]
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && !t.After(i.End)
}

// date is a civil date, held as midnight UTC so stepping never meets a DST gap
func date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// at places a clock reading on a civil date in loc
// readings skipped by a spring forward land just after the gap, as time.Date does
func at(day time.Time, c Clock, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, int(c), 0, loc)
}

// IsOpen reports whether the local instant t is inside the calendar
func (c Calendar) IsOpen(t time.Time) bool {
	tod := timeOfDay(t)
	day := WeekdayOf(t)

	if h, ok := c.On(day); ok {
		if h.Wraps() {
			if tod >= h.Open.Offset() || tod <= h.Close.Offset() {
				return true
			}
		} else if tod >= h.Open.Offset() && tod <= h.Close.Offset() {
			return true
		}
	}

	// an overnight shift from yesterday still covers the early morning
	if p, ok := c.On(day.Prev()); ok && p.Wraps() && tod <= p.Close.Offset() {
		return true
	}
	return false
}

// days calls fn with the open and close instants of each civil day that can overlap
// [s, e], starting one day early so yesterday's overnight interval is seen
// a wrapping day also passes the midnight it crosses
func (c Calendar) days(s, e time.Time, fn func(open, midnight, closeAt time.Time, wraps bool)) {
	loc := s.Location()
	last := date(e)
	for day := date(s).AddDate(0, 0, -1); !day.After(last); day = day.AddDate(0, 0, 1) {
		h, ok := c.On(WeekdayOf(day))
		if !ok {
			continue
		}
		open := at(day, h.Open, loc)
		if !h.Wraps() {
			fn(open, time.Time{}, at(day, h.Close, loc), false)
			continue
		}
		next := day.AddDate(0, 0, 1)
		fn(open, at(next, 0, loc), at(next, h.Close, loc), true)
	}
}

// span puts end in start's location so both sides of the walk agree on civil dates
func span(start, end time.Time) (time.Time, time.Time) {
	return start, end.In(start.Location())
}

// OpenIntervals lists the open periods overlapping [start, end], clipped to it,
// chronological and non overlapping
// a wrapping day yields a piece before midnight and a piece after it
func (c Calendar) OpenIntervals(start, end time.Time) []Interval {
	s, e := span(start, end)
	if !s.Before(e) {
		return nil
	}

	var out []Interval
	covered := s
	add := func(a, b time.Time) {
		if a.Before(covered) {
			a = covered
		}
		if b.After(e) {
			b = e
		}
		if a.Before(b) {
			out = append(out, Interval{Start: a, End: b})
			covered = b
		}
	}

	c.days(s, e, func(open, midnight, closeAt time.Time, wraps bool) {
		if wraps {
			add(open, midnight)
			add(midnight, closeAt)
			return
		}
		add(open, closeAt)
	})
	return out
}

// BusinessDuration measures how much of [start, end] is open
// it walks days directly instead of building the interval list
func (c Calendar) BusinessDuration(start, end time.Time) time.Duration {
	s, e := span(start, end)
	if !s.Before(e) {
		return 0
	}

	var total time.Duration
	covered := s
	c.days(s, e, func(open, _, closeAt time.Time, _ bool) {
		if open.Before(covered) {
			open = covered
		}
		if closeAt.After(e) {
			closeAt = e
		}
		if open.Before(closeAt) {
			total += closeAt.Sub(open)
			covered = closeAt
		}
	})
	return total
}

// BusinessSeconds is BusinessDuration truncated to whole seconds
func (c Calendar) BusinessSeconds(start, end time.Time) int64 {
	return int64(c.BusinessDuration(start, end) / time.Second)
}

// TotalBusinessSeconds converts a UTC span into zone local time and measures it
func TotalBusinessSeconds(utcStart, utcEnd time.Time, zone tz.Zone, c Calendar) int64 {
	return c.BusinessSeconds(zone.ToLocal(utcStart), zone.ToLocal(utcEnd))
}
