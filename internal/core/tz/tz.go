// Package tz resolves IANA zone identifiers with a fixed fallback and converts
// between UTC instants and local wall clock time
package tz

import (
	"strings"
	"sync"
	"time"

	// embedded zone database so resolution does not depend on the host image
	_ "time/tzdata"
)

// DefaultZone is substituted for missing or unknown identifiers
const DefaultZone = "America/Chicago"

// Fallback reasons
const (
	ReasonMissing = "missing"
	ReasonUnknown = "unknown zone"
)

// Zone is the outcome of resolving an identifier
// when Fallback is set, Name is the default zone and Reason says why
type Zone struct {
	Name      string
	Requested string
	Fallback  bool
	Reason    string

	loc *time.Location
}

// Location returns the resolved location, UTC for the zero Zone
func (z Zone) Location() *time.Location {
	if z.loc == nil {
		return time.UTC
	}
	return z.loc
}

// ToLocal converts a UTC instant into the zone, DST aware
// the zero Zone returns the instant reinterpreted as UTC
func (z Zone) ToLocal(utc time.Time) time.Time {
	return utc.In(z.Location())
}

// ToUTC reads the wall clock of local as a reading in the zone and returns the UTC instant
// times that repeat or do not exist around a DST change resolve the way time.Date does
func (z Zone) ToUTC(local time.Time) time.Time {
	return time.Date(local.Year(), local.Month(), local.Day(),
		local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), z.Location()).UTC()
}

// Converter resolves identifiers against a default zone and caches loaded locations
type Converter struct {
	def Zone

	mu     sync.RWMutex
	cache  map[string]*time.Location
	misses map[string]struct{} // unknown ids, reset once it reaches maxMisses
}

// ids come from store rows, so the set of bad ones is unbounded
const maxMisses = 256

var loadLocation = time.LoadLocation

// NewConverter builds a converter, an empty defaultZone means DefaultZone
// the default itself must load or construction fails
func NewConverter(defaultZone string) (*Converter, error) {
	name := strings.TrimSpace(defaultZone)
	if name == "" {
		name = DefaultZone
	}
	loc, err := loadLocation(name)
	if err != nil {
		return nil, err
	}
	return &Converter{
		def:    Zone{Name: name, loc: loc},
		cache:  map[string]*time.Location{name: loc},
		misses: map[string]struct{}{},
	}, nil
}

// MustConverter is NewConverter that panics on a bad default
func MustConverter(defaultZone string) *Converter {
	c, err := NewConverter(defaultZone)
	if err != nil {
		panic("tz: default zone: " + err.Error())
	}
	return c
}

// Default returns the fallback zone
func (c *Converter) Default() Zone { return c.def }

// Resolve returns the zone for id or the default with Fallback set
// it never fails, callers decide whether a fallback is worth a warning
func (c *Converter) Resolve(id string) Zone {
	name := strings.TrimSpace(id)
	if name == "" {
		return c.fallback(id, ReasonMissing)
	}
	// "Local" would follow the host zone
	if strings.EqualFold(name, "local") {
		return c.fallback(id, ReasonUnknown)
	}

	c.mu.RLock()
	loc, ok := c.cache[name]
	_, missed := c.misses[name]
	c.mu.RUnlock()
	if ok {
		return Zone{Name: name, Requested: id, loc: loc}
	}
	if missed {
		return c.fallback(id, ReasonUnknown)
	}

	loc, err := loadLocation(name)
	c.mu.Lock()
	if err != nil {
		if len(c.misses) >= maxMisses {
			clear(c.misses)
		}
		c.misses[name] = struct{}{}
	} else {
		c.cache[name] = loc
	}
	c.mu.Unlock()

	if err != nil {
		return c.fallback(id, ReasonUnknown)
	}
	return Zone{Name: name, Requested: id, loc: loc}
}

func (c *Converter) fallback(requested, reason string) Zone {
	z := c.def
	z.Requested = requested
	z.Fallback = true
	z.Reason = reason
	return z
}

// ToLocal resolves id and converts utc into it
func (c *Converter) ToLocal(utc time.Time, id string) time.Time {
	return c.Resolve(id).ToLocal(utc)
}

// ToUTC resolves id and converts the local wall clock back to UTC
func (c *Converter) ToUTC(local time.Time, id string) time.Time {
	return c.Resolve(id).ToUTC(local)
}
