package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/ledclock/internal/logic"
)

type zeroRand struct{}

func (zeroRand) Int64N(int64) int64 { return 0 }

var august8 = logic.Date{Day: 8, Month: 8, Weekday: 7, MinuteOfDay: 600}

// displayingEngine returns an engine whose birthday entry has just been
// brought in by the controller.
func displayingEngine(t *testing.T) *logic.Engine {
	t.Helper()
	e := logic.NewEngine(logic.EngineConfig{
		Slots:      []logic.SlotConfig{{Name: "family", Dates: "8.8. 0.0.", BaseVar: 10}},
		Controller: &logic.ControllerConfig{BaseVar: 40},
		Timings:    logic.DefaultTimings(),
	}, zeroRand{}, 0, time.Now())

	for _, tick := range []logic.Tick{0, 30_000, 32_000} {
		e.Process(logic.Input{Tick: tick, Date: august8, Triggers: []bool{false}})
	}
	return e
}

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{PollMs: 100, DebounceMs: 50, Broker: "tcp://localhost:1883", HTTPAddr: ":80"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.PollMs != 100 {
		t.Errorf("Config.PollMs: got %d, want 100", snap.Config.PollMs)
	}
	if snap.Config.HTTPAddr != ":80" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":80")
	}
	if snap.Ready {
		t.Error("expected Ready=false initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
	if snap.Owner != nil {
		t.Error("expected no owner initially")
	}
}

func TestFromEngine(t *testing.T) {
	s := FromEngine(displayingEngine(t), august8)

	if s.Date != august8 {
		t.Errorf("Date: got %+v, want %+v", s.Date, august8)
	}
	if s.Owner == nil {
		t.Fatal("expected an owner")
	}
	if s.Owner.Slot != "family" || s.Owner.Index != 0 || s.Owner.Occasion.Day != 8 {
		t.Errorf("unexpected owner: %+v", s.Owner)
	}
	if s.Signals == nil {
		t.Fatal("expected controller signals")
	}
	want := logic.Signals{TimeOff: true, Flash: true}
	if *s.Signals != want {
		t.Errorf("Signals: got %+v, want %+v", *s.Signals, want)
	}
	if len(s.Slots) != 1 || s.Slots[0].Active != 0 {
		t.Errorf("unexpected slots: %+v", s.Slots)
	}
	if s.Counts.Activated != 1 {
		t.Errorf("Counts.Activated: got %d, want 1", s.Counts.Activated)
	}
}

func TestFromEngineWithoutController(t *testing.T) {
	e := logic.NewEngine(logic.EngineConfig{
		Slots:   []logic.SlotConfig{{Name: "family", Dates: "8.8.", BaseVar: 10}},
		Timings: logic.DefaultTimings(),
	}, zeroRand{}, 0, time.Now())
	e.Process(logic.Input{Date: august8, Triggers: []bool{false}})

	s := FromEngine(e, august8)
	if s.Signals != nil {
		t.Error("expected no signals without a controller block")
	}
	if s.Owner != nil {
		t.Error("expected no owner before the first display")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.Update(Schedule{Date: august8, Disabled: true, Counts: logic.EventCounts{Triggered: 3}})

	snap := tr.Snapshot()
	if !snap.Ready {
		t.Error("expected Ready=true after Update")
	}
	if !snap.Disabled {
		t.Error("expected Disabled=true")
	}
	if snap.Counts.Triggered != 3 {
		t.Errorf("Counts.Triggered: got %d, want 3", snap.Counts.Triggered)
	}
	if snap.Date.Month != 8 {
		t.Errorf("Date.Month: got %d, want 8", snap.Date.Month)
	}
}

func TestSetMQTTConnectedAndNetwork(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "10.0.0.7"})

	snap := tr.Snapshot()
	if !snap.MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}
	if snap.Network == nil || snap.Network.IP != "10.0.0.7" {
		t.Errorf("unexpected network: %+v", snap.Network)
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewTracker(start, Config{})
	tr.now = func() time.Time { return start.Add(90 * time.Minute) }

	if got := tr.Snapshot().Uptime(); got != 90*time.Minute {
		t.Errorf("Uptime: got %v, want 90m", got)
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 8, 8, 9, 0, 0, 0, time.UTC)
	tr := NewTracker(start, Config{
		PollMs:      100,
		DebounceMs:  50,
		HeartbeatMs: 900000,
		Broker:      "tcp://localhost:1883",
		HTTPAddr:    ":80",
		Location:    "Europe/Berlin",
		RestartAt:   "04:00",
	})
	tr.now = func() time.Time { return start.Add(time.Hour) }
	tr.Update(FromEngine(displayingEngine(t), august8))
	tr.SetMQTTConnected(true)

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(tr.Snapshot()), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	st := parsed.Status

	if !st.Ready || st.Disabled {
		t.Errorf("ready/disabled: got %v/%v", st.Ready, st.Disabled)
	}
	if st.Event != "" || st.Reason != "" {
		t.Error("web JSON should not carry event or reason")
	}
	if st.UptimeSeconds != 3600 {
		t.Errorf("UptimeSeconds: got %d, want 3600", st.UptimeSeconds)
	}
	if st.Owner == nil || *st.Owner != (OwnerJSON{Slot: "family", Index: 0, Kind: "dated", Date: "8.8."}) {
		t.Errorf("unexpected owner: %+v", st.Owner)
	}
	if st.Controller == nil || !st.Controller.TimeOff || st.Controller.TimeOn || !st.Controller.Flash {
		t.Errorf("unexpected controller: %+v", st.Controller)
	}
	if len(st.Slots) != 1 || len(st.Slots[0].Occasions) != 2 {
		t.Fatalf("unexpected slots: %+v", st.Slots)
	}
	birthday, daily := st.Slots[0].Occasions[0], st.Slots[0].Occasions[1]
	if !birthday.On || birthday.Var != 10 || birthday.Date != "8.8." {
		t.Errorf("unexpected birthday entry: %+v", birthday)
	}
	if daily.On || daily.Kind != "daily" || daily.Date != "" {
		t.Errorf("unexpected daily entry: %+v", daily)
	}
	// First daily showing is 20 minutes after start, evaluated at 32s
	if daily.NextDueSeconds != 20*60-32 {
		t.Errorf("daily NextDueSeconds: got %d, want %d", daily.NextDueSeconds, 20*60-32)
	}
	if st.Counts.Activated != 1 {
		t.Errorf("Counts.Activated: got %d, want 1", st.Counts.Activated)
	}
	if !st.MQTT.Connected || st.MQTT.Broker != "tcp://localhost:1883" {
		t.Errorf("unexpected mqtt: %+v", st.MQTT)
	}
	if st.Config.RestartAt != "04:00" || st.Config.Location != "Europe/Berlin" {
		t.Errorf("unexpected config: %+v", st.Config)
	}
	if st.Network != nil {
		t.Error("network should be omitted when unknown")
	}
}

func TestFormatStatusEvent(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.SetNetwork(&NetworkInfo{Status: "up", SSID: "MyNet"})

	var parsed StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(tr.Snapshot(), "SHUTDOWN", "SIGTERM"), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" || parsed.Status.Reason != "SIGTERM" {
		t.Errorf("event/reason: got %q/%q", parsed.Status.Event, parsed.Status.Reason)
	}
	if parsed.Status.Network == nil || parsed.Status.Network.SSID != "MyNet" {
		t.Errorf("unexpected network: %+v", parsed.Status.Network)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	var raw map[string]map[string]interface{}
	if err := json.Unmarshal(FormatStatusEvent(tr.Snapshot(), "STARTUP", ""), &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, exists := raw["status"]["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if _, exists := raw["status"]["owner"]; exists {
		t.Error("owner should be omitted while the clock is shown")
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	// Writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Update(Schedule{Counts: logic.EventCounts{Activated: i}})
			tr.SetMQTTConnected(i%2 == 0)
			tr.SetNetwork(&NetworkInfo{IP: "1.2.3.4"})
		}
	}()

	// Reader
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			_ = FormatJSON(tr.Snapshot())
		}
	}()

	wg.Wait()
}
