// Package logic contains the pure scheduling logic for special-occasion
// displays on the LED clock.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via Tick and time.Time values.
package logic

import "time"

// Tick is a millisecond timestamp from a monotonic counter that wraps
// after roughly 49 days. Compare ticks only with Reached.
type Tick uint32

// Reached reports whether t is at or after deadline. The comparison is
// safe across counter wraparound as long as both values are less than
// 2^31 ms (about 24 days) apart.
func (t Tick) Reached(deadline Tick) bool {
	return int32(t-deadline) >= 0
}

// Add returns t advanced by d, which may be negative. Sub-millisecond
// parts of d are dropped.
func (t Tick) Add(d time.Duration) Tick {
	return t + Tick(uint32(d.Milliseconds()))
}

// Since returns the time elapsed from earlier to t.
func (t Tick) Since(earlier Tick) time.Duration {
	return time.Duration(uint32(t-earlier)) * time.Millisecond
}

// Date is the wall clock reading for one tick, with summer time already
// applied.
type Date struct {
	Day         int
	Month       int
	Weekday     int // 1..7, Sunday is 1
	MinuteOfDay int
}

// Owner identifies the (slot, event index) pair holding the display.
type Owner struct {
	Slot  int
	Index int
}

// EventType represents an observable scheduling transition.
type EventType string

const (
	EventActivated   EventType = "ACTIVATED"
	EventDeactivated EventType = "DEACTIVATED"
	EventTriggered   EventType = "TRIGGERED"
	EventDeferred    EventType = "DEFERRED"
)

// Event represents a transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Slot      string
	Index     int
	Occasion  Occasion
}

// Change is a new value of one output variable.
type Change struct {
	Var   int
	Name  string
	Value bool
}

// Input represents a single sample for one tick.
type Input struct {
	Time     time.Time // wall time, used for event timestamps and heartbeat
	Tick     Tick
	Date     Date
	Triggers []bool // raw trigger level per slot, in configuration order
	Disable  bool
}

// Result is everything a tick produced.
type Result struct {
	Events  []Event
	Changes []Change
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	Activated   int
	Deactivated int
	Triggered   int
	Deferred    int
	Rearmed     int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
