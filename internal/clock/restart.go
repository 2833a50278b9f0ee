package clock

import (
	"fmt"
	"time"
)

// RestartSchedule fires once per day at a fixed local hour and minute.
type RestartSchedule struct {
	hour, minute int
	enabled      bool
	lastDay      int // yday of the last firing, to fire once per day
	lastYear     int
}

// ParseRestart reads "HH:MM". An empty string disables the schedule.
func ParseRestart(s string) (RestartSchedule, error) {
	if s == "" {
		return RestartSchedule{}, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return RestartSchedule{}, fmt.Errorf("parse restart time %q: %w", s, err)
	}
	return RestartSchedule{hour: t.Hour(), minute: t.Minute(), enabled: true}, nil
}

// Due reports whether local is inside the configured minute and the
// schedule has not fired yet today.
func (r *RestartSchedule) Due(local time.Time) bool {
	if !r.enabled {
		return false
	}
	if local.Hour() != r.hour || local.Minute() != r.minute {
		return false
	}
	if local.YearDay() == r.lastDay && local.Year() == r.lastYear {
		return false
	}
	r.lastDay = local.YearDay()
	r.lastYear = local.Year()
	return true
}

// Arm marks today as fired when local already falls inside the restart
// minute, so a process started by the restart does not restart again.
func (r *RestartSchedule) Arm(local time.Time) {
	r.Due(local)
}

// Enabled reports whether a restart time is configured.
func (r RestartSchedule) Enabled() bool {
	return r.enabled
}

func (r RestartSchedule) String() string {
	if !r.enabled {
		return "off"
	}
	return fmt.Sprintf("%02d:%02d", r.hour, r.minute)
}
