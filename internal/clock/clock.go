// Package clock turns wall time into the tick and date readings the
// scheduler consumes.
package clock

import (
	"time"

	"github.com/sweeney/ledclock/internal/logic"
)

// DefaultLocation is used when no location is configured. Summer time is
// applied by the tz database.
const DefaultLocation = "Europe/Berlin"

// Clock derives a wrapping millisecond tick from the monotonic time
// elapsed since its epoch, and the local date from the wall time.
type Clock struct {
	loc    *time.Location
	epoch  time.Time
	offset logic.Tick
}

// New creates a clock reading dates in loc. Ticks count from epoch.
func New(loc *time.Location, epoch time.Time) *Clock {
	if loc == nil {
		loc = time.Local
	}
	return &Clock{loc: loc, epoch: epoch}
}

// WithOffset starts the tick counter at offset instead of zero. Useful to
// exercise counter wraparound without waiting 49 days.
func (c *Clock) WithOffset(offset logic.Tick) *Clock {
	c.offset = offset
	return c
}

// Read returns the tick and local date for t.
//
// The tick is recomputed from t each call rather than accumulated, so it
// never drifts from the wall clock; it wraps exactly at 2^32 ms.
func (c *Clock) Read(t time.Time) (logic.Tick, logic.Date) {
	ms := t.Sub(c.epoch).Milliseconds()
	tick := c.offset + logic.Tick(uint32(ms))

	local := t.In(c.loc)
	return tick, logic.Date{
		Day:         local.Day(),
		Month:       int(local.Month()),
		Weekday:     int(local.Weekday()) + 1,
		MinuteOfDay: local.Hour()*60 + local.Minute(),
	}
}

// Location returns the clock's time zone.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// LoadLocation resolves a location name, falling back to DefaultLocation
// when name is empty.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultLocation
	}
	return time.LoadLocation(name)
}
