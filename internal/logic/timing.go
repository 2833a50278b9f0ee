package logic

import "time"

// Timing is the re-arm window and display duration of one occasion kind.
type Timing struct {
	PeriodMin time.Duration
	PeriodMax time.Duration
	Duration  time.Duration
}

// Timings holds every scheduling policy knob.
type Timings struct {
	Dated Timing
	Daily Timing

	// FirstDisplay delays the first showing of a dated occasion after
	// startup; FirstDisplayJitter is added on top, uniformly.
	FirstDisplay       time.Duration
	FirstDisplayJitter time.Duration

	// ControllerDelay is the pause between dimming out the clock and
	// switching on the special display.
	ControllerDelay time.Duration
}

// DefaultTimings returns the timings the installation ships with.
func DefaultTimings() Timings {
	return Timings{
		Dated: Timing{
			PeriodMin: 7 * time.Minute,
			PeriodMax: 15 * time.Minute,
			Duration:  2 * time.Minute,
		},
		Daily: Timing{
			PeriodMin: 20 * time.Minute,
			PeriodMax: 240 * time.Minute,
			Duration:  2 * time.Minute,
		},
		FirstDisplay:       30 * time.Second,
		FirstDisplayJitter: 50 * time.Millisecond,
		ControllerDelay:    2 * time.Second,
	}
}

// For returns the timing that applies to occasions of the given kind.
func (t Timings) For(kind Kind) Timing {
	if kind == KindDaily {
		return t.Daily
	}
	return t.Dated
}

// Rand is the randomness the scheduler needs. *rand.Rand from math/rand/v2
// satisfies it.
type Rand interface {
	Int64N(n int64) int64
}

// between returns a duration uniformly distributed in [min, max].
func between(r Rand, min, max time.Duration) time.Duration {
	lo, hi := min.Milliseconds(), max.Milliseconds()
	if hi <= lo {
		return time.Duration(lo) * time.Millisecond
	}
	return time.Duration(lo+r.Int64N(hi-lo+1)) * time.Millisecond
}
