// Package status provides a thread-safe status tracker for the ledclock daemon.
// It is read by the HTTP handlers and the MQTT lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/ledclock/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	DebounceMs  int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	Location    string
	RestartAt   string // "off" when disabled
}

// OwnerInfo names the occasion currently holding the display.
type OwnerInfo struct {
	Slot     string
	Index    int
	Occasion logic.Occasion
}

// Schedule is the scheduler state as of one tick.
type Schedule struct {
	Date     logic.Date
	Owner    *OwnerInfo     // nil when the clock is shown
	Signals  *logic.Signals // nil without a controller block
	Disabled bool
	Slots    []logic.SlotView
	Vars     []logic.Change
	Counts   logic.EventCounts
}

// FromEngine captures the engine's state after its last Process call.
func FromEngine(e *logic.Engine, date logic.Date) Schedule {
	s := Schedule{
		Date:     date,
		Disabled: e.Disabled(),
		Slots:    e.Slots(),
		Vars:     e.Vars(),
		Counts:   e.EventCountsSnapshot(),
	}
	if sig, ok := e.Signals(); ok {
		s.Signals = &sig
	}
	if o, held := e.Owner(); held && o.Slot < len(s.Slots) {
		v := s.Slots[o.Slot]
		s.Owner = &OwnerInfo{Slot: v.Name, Index: o.Index, Occasion: v.Catalog[o.Index]}
	}
	return s
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Schedule
	Ready         bool // at least one tick has been processed
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update replaces the scheduler state. Called from runLoop on every tick.
func (t *Tracker) Update(s Schedule) {
	t.mu.Lock()
	t.snap.Schedule = s
	t.snap.Ready = true
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
// Slices are shared with the last Update, which never mutates them.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
