package logic

import "time"

// Debouncer turns a raw trigger level into a stable level and a single
// press per rising edge.
type Debouncer struct {
	duration time.Duration

	// Current stable (debounced) level
	stable bool
	// Whether a change away from stable is being observed
	pending bool
	// Tick when the pending level was first observed
	pendingSince Tick
}

// NewDebouncer creates a debouncer that requires a level to hold for
// duration before accepting it. A zero duration accepts every level
// immediately.
func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{duration: duration}
}

// Process takes a raw level sample and returns the stable level and
// whether this sample completed a press (stable level went low to high).
func (d *Debouncer) Process(raw bool, now Tick) (level, pressed bool) {
	if raw == d.stable {
		// No change from stable state, clear any pending
		d.pending = false
		return d.stable, false
	}

	if !d.pending {
		d.pending = true
		d.pendingSince = now
	}

	if now.Since(d.pendingSince) >= d.duration {
		d.stable = raw
		d.pending = false
		return d.stable, d.stable
	}
	return d.stable, false
}

// Level returns the current stable level.
func (d *Debouncer) Level() bool {
	return d.stable
}
