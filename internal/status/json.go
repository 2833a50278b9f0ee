package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/ledclock/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string          `json:"event,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	Ready         bool            `json:"ready"`
	Disabled      bool            `json:"disabled"`
	Date          DateJSON        `json:"date"`
	Owner         *OwnerJSON      `json:"owner,omitempty"`
	Controller    *ControllerJSON `json:"controller,omitempty"`
	Slots         []SlotJSON      `json:"slots"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	StartTime     string          `json:"start_time"`
	Timestamp     string          `json:"timestamp"`
	MQTT          MQTTStatus      `json:"mqtt"`
	Counts        CountsJSON      `json:"event_counts"`
	Network       *NetworkJSON    `json:"network,omitempty"`
	Config        ConfigJSON      `json:"config"`
}

// DateJSON is the local date the scheduler last evaluated.
type DateJSON struct {
	Day         int `json:"day"`
	Month       int `json:"month"`
	Weekday     int `json:"weekday"`
	MinuteOfDay int `json:"minute_of_day"`
}

// OwnerJSON names the occasion holding the display.
type OwnerJSON struct {
	Slot  string `json:"slot"`
	Index int    `json:"index"`
	Kind  string `json:"kind"`
	Date  string `json:"date,omitempty"`
}

// ControllerJSON is the state of the four controller outputs.
type ControllerJSON struct {
	TimeOff       bool `json:"time_off"`
	TimeOn        bool `json:"time_on"`
	TimeOnDelayed bool `json:"time_on_delayed"`
	Flash         bool `json:"flash"`
}

// SlotJSON describes one slot and its occasions.
type SlotJSON struct {
	Name         string         `json:"name"`
	Active       int            `json:"active"` // -1 when idle
	NextExternal int            `json:"next_external"`
	Forced       bool           `json:"forced"`
	Occasions    []OccasionJSON `json:"occasions"`
}

// OccasionJSON is one catalog entry with its output variable.
type OccasionJSON struct {
	Kind           string `json:"kind"`
	Date           string `json:"date,omitempty"`
	Var            int    `json:"var"`
	On             bool   `json:"on"`
	NextDueSeconds int64  `json:"next_due_seconds"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Activated   int `json:"activated"`
	Deactivated int `json:"deactivated"`
	Triggered   int `json:"triggered"`
	Deferred    int `json:"deferred"`
	Rearmed     int `json:"rearmed"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	Location    string `json:"location"`
	RestartAt   string `json:"restart_at"`
}

func occasionFields(o logic.Occasion) (kind, date string) {
	if o.Kind == logic.KindDated {
		return o.Kind.String(), o.String()
	}
	return o.Kind.String(), ""
}

func buildSlots(snap Snapshot) []SlotJSON {
	values := make(map[int]bool, len(snap.Vars))
	for _, v := range snap.Vars {
		values[v.Var] = v.Value
	}

	out := make([]SlotJSON, 0, len(snap.Slots))
	for _, sv := range snap.Slots {
		sj := SlotJSON{
			Name:         sv.Name,
			Active:       sv.Active,
			NextExternal: sv.NextExternal,
			Forced:       sv.Forced,
			Occasions:    make([]OccasionJSON, len(sv.Catalog)),
		}
		for i, o := range sv.Catalog {
			kind, date := occasionFields(o)
			oj := OccasionJSON{Kind: kind, Date: date, Var: sv.BaseVar + i, On: values[sv.BaseVar+i]}
			if i < len(sv.NextDue) {
				oj.NextDueSeconds = int64(sv.NextDue[i].Truncate(time.Second).Seconds())
			}
			sj.Occasions[i] = oj
		}
		out = append(out, sj)
	}
	return out
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Ready:    snap.Ready,
		Disabled: snap.Disabled,
		Date: DateJSON{
			Day:         snap.Date.Day,
			Month:       snap.Date.Month,
			Weekday:     snap.Date.Weekday,
			MinuteOfDay: snap.Date.MinuteOfDay,
		},
		Slots:         buildSlots(snap),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Activated:   snap.Counts.Activated,
			Deactivated: snap.Counts.Deactivated,
			Triggered:   snap.Counts.Triggered,
			Deferred:    snap.Counts.Deferred,
			Rearmed:     snap.Counts.Rearmed,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			Location:    snap.Config.Location,
			RestartAt:   snap.Config.RestartAt,
		},
	}
	if snap.Owner != nil {
		kind, date := occasionFields(snap.Owner.Occasion)
		inner.Owner = &OwnerJSON{Slot: snap.Owner.Slot, Index: snap.Owner.Index, Kind: kind, Date: date}
	}
	if sig := snap.Signals; sig != nil {
		inner.Controller = &ControllerJSON{
			TimeOff:       sig.TimeOff,
			TimeOn:        sig.TimeOn,
			TimeOnDelayed: sig.TimeOnDelayed,
			Flash:         sig.Flash,
		}
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
