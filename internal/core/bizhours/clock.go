// Package bizhours models weekly operating calendars and measures how much of a
// local time span falls inside them
package bizhours

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday is a day of the week with Monday as 0
type Weekday int

// Weekdays in calendar order
const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Valid reports whether d is in 0..6
func (d Weekday) Valid() bool { return d >= Monday && d <= Sunday }

// Prev returns the day before d
func (d Weekday) Prev() Weekday { return (d + 6) % 7 }

func (d Weekday) String() string {
	if !d.Valid() {
		return "Weekday(" + strconv.Itoa(int(d)) + ")"
	}
	return weekdayNames[d]
}

// WeekdayOf returns the Monday based weekday of t's wall clock
func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

// Clock is a time of day in whole seconds since midnight
type Clock int32

// secondsPerDay bounds a Clock
const secondsPerDay = 24 * 60 * 60

// NewClock builds a Clock from hour, minute and second
func NewClock(h, m, s int) Clock { return Clock(h*3600 + m*60 + s) }

// ParseClock accepts HH:MM:SS and falls back to HH:MM
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("clock %q: want HH:MM:SS or HH:MM", s)
	}
	limits := [...]int{23, 59, 59}
	var v [3]int
	for i, p := range parts {
		if len(p) == 0 || len(p) > 2 {
			return 0, fmt.Errorf("clock %q: bad field %q", s, p)
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > limits[i] {
			return 0, fmt.Errorf("clock %q: bad field %q", s, p)
		}
		v[i] = n
	}
	return NewClock(v[0], v[1], v[2]), nil
}

// Offset returns the clock as a duration since midnight
func (c Clock) Offset() time.Duration { return time.Duration(c) * time.Second }

func (c Clock) String() string {
	n := int(c)
	return fmt.Sprintf("%02d:%02d:%02d", n/3600, n/60%60, n%60)
}

// timeOfDay returns the wall clock reading of t as a duration since midnight
func timeOfDay(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
}
