package bizhours

import "fmt"

// Hours is the single open interval of one weekday
// Open > Close wraps past midnight and closes on the next day
type Hours struct {
	Open  Clock
	Close Clock
}

// Wraps reports whether the interval crosses midnight
func (h Hours) Wraps() bool { return h.Open > h.Close }

func (h Hours) String() string { return h.Open.String() + "-" + h.Close.String() }

// Calendar maps each weekday to at most one Hours
// the zero value is closed every day
type Calendar struct {
	hours [7]Hours
	set   uint8
}

// NewCalendar builds a calendar from a weekday table, invalid weekdays are ignored
func NewCalendar(days map[Weekday]Hours) Calendar {
	var c Calendar
	for d, h := range days {
		c = c.With(d, h)
	}
	return c
}

// AlwaysOpen is the calendar used for entities without configured hours
func AlwaysOpen() Calendar {
	var c Calendar
	for d := Monday; d <= Sunday; d++ {
		c = c.With(d, Hours{Open: NewClock(0, 0, 0), Close: NewClock(23, 59, 59)})
	}
	return c
}

// With returns a copy of c with d set to h
func (c Calendar) With(d Weekday, h Hours) Calendar {
	if !d.Valid() {
		return c
	}
	c.hours[d] = h
	c.set |= 1 << d
	return c
}

// On returns the hours configured for d
func (c Calendar) On(d Weekday) (Hours, bool) {
	if !d.Valid() || c.set&(1<<d) == 0 {
		return Hours{}, false
	}
	return c.hours[d], true
}

// Days returns the number of configured weekdays
func (c Calendar) Days() int {
	n := 0
	for d := Monday; d <= Sunday; d++ {
		if c.set&(1<<d) != 0 {
			n++
		}
	}
	return n
}

// Entry is one stored weekday row before its clocks are parsed
type Entry struct {
	Day   int
	Open  string
	Close string
}

// Skipped is an entry dropped while building a calendar
type Skipped struct {
	Entry Entry
	Err   error
}

// FromEntries parses stored rows into a calendar
// no rows at all means the entity never configured hours and is open around the clock
// rows that fail to parse are skipped and reported, a later row for the same day wins
func FromEntries(entries []Entry) (Calendar, []Skipped) {
	if len(entries) == 0 {
		return AlwaysOpen(), nil
	}
	var (
		c       Calendar
		skipped []Skipped
	)
	for _, e := range entries {
		d := Weekday(e.Day)
		if !d.Valid() {
			skipped = append(skipped, Skipped{Entry: e, Err: fmt.Errorf("day_of_week %d out of range", e.Day)})
			continue
		}
		open, err := ParseClock(e.Open)
		if err != nil {
			skipped = append(skipped, Skipped{Entry: e, Err: err})
			continue
		}
		closeAt, err := ParseClock(e.Close)
		if err != nil {
			skipped = append(skipped, Skipped{Entry: e, Err: err})
			continue
		}
		c = c.With(d, Hours{Open: open, Close: closeAt})
	}
	return c, skipped
}
