package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/ledclock/internal/logic"
)

var birthday = logic.Occasion{Kind: logic.KindDated, Day: 8, Month: 8}

func TestFormatPayload(t *testing.T) {
	event := logic.Event{
		Timestamp: time.Date(2026, 8, 8, 9, 15, 0, 0, time.UTC),
		Type:      logic.EventActivated,
		Slot:      "family",
		Index:     1,
		Occasion:  birthday,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"ledclock":{"timestamp":"2026-08-08T09:15:00Z","event":"ACTIVATED","slot":"family","index":1,"occasion":{"kind":"dated","date":"8.8."}}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatPayloadDailyOmitsDate(t *testing.T) {
	event := logic.Event{
		Timestamp: time.Date(2026, 8, 8, 9, 15, 0, 0, time.UTC),
		Type:      logic.EventDeactivated,
		Slot:      "family",
		Index:     2,
		Occasion:  logic.Occasion{Kind: logic.KindDaily},
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed map[string]map[string]interface{}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	occ := parsed["ledclock"]["occasion"].(map[string]interface{})
	if occ["kind"] != "daily" {
		t.Errorf("kind: got %v, want daily", occ["kind"])
	}
	if _, exists := occ["date"]; exists {
		t.Error("daily occasion should not carry a date")
	}
}

func TestFormatPayloadAllEventTypes(t *testing.T) {
	for _, typ := range []logic.EventType{
		logic.EventActivated, logic.EventDeactivated, logic.EventTriggered, logic.EventDeferred,
	} {
		t.Run(string(typ), func(t *testing.T) {
			payload, err := FormatPayload(logic.Event{Timestamp: time.Now(), Type: typ, Occasion: birthday})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var parsed Payload
			if err := json.Unmarshal(payload, &parsed); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if parsed.Clock.Event != string(typ) {
				t.Errorf("event: got %s, want %s", parsed.Clock.Event, typ)
			}
		})
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	berlin := time.FixedZone("CEST", 2*60*60)
	event := logic.Event{
		Timestamp: time.Date(2026, 8, 8, 11, 15, 0, 0, berlin),
		Type:      logic.EventActivated,
		Occasion:  birthday,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Clock.Timestamp != "2026-08-08T09:15:00Z" {
		t.Errorf("expected UTC timestamp, got %s", parsed.Clock.Timestamp)
	}
}

func TestFormatChangePayload(t *testing.T) {
	tests := []struct {
		change logic.Change
		want   string
	}{
		{logic.Change{Var: 10, Name: "family.0", Value: true}, `{"var":10,"name":"family.0","state":"ON"}`},
		{logic.Change{Var: 42, Name: "TimeOnDelayed"}, `{"var":42,"name":"TimeOnDelayed","state":"OFF"}`},
	}
	for _, tt := range tests {
		t.Run(tt.change.Name, func(t *testing.T) {
			got, err := FormatChangePayload(tt.change)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTopics(t *testing.T) {
	if Topic != "ledclock/events" {
		t.Errorf("unexpected topic: %s", Topic)
	}
	if TopicSystem != "ledclock/system" {
		t.Errorf("unexpected system topic: %s", TopicSystem)
	}
	if got := VarTopic("family.0"); got != "ledclock/vars/family.0" {
		t.Errorf("unexpected var topic: %s", got)
	}
}

func TestFormatSystemPayloadExactJSON(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "DAILY_RESTART",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-03T10:00:00Z","event":"SHUTDOWN","reason":"DAILY_RESTART"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatSystemPayloadRawPayload(t *testing.T) {
	raw := []byte(`{"system":{"event":"HEARTBEAT"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "HEARTBEAT", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("expected raw payload to be returned unchanged, got %s", payload)
	}
}

func TestWillPayloadFormat(t *testing.T) {
	payload := WillPayload(time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC))

	expected := `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"SHUTDOWN","reason":"MQTT_DISCONNECT"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatSystemPayloadReconnected(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC),
		Event:     "RECONNECTED",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-10T14:30:00Z","event":"RECONNECTED"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	event := logic.Event{Timestamp: time.Now(), Type: logic.EventTriggered, Slot: "family", Occasion: birthday}
	if err := f.Publish(event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Events) != 1 || f.Events[0].Type != logic.EventTriggered {
		t.Fatalf("unexpected events: %+v", f.Events)
	}
	if len(f.Payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(f.Payloads))
	}

	f.PublishChange(logic.Change{Var: 10, Name: "family.0", Value: true})
	f.PublishChange(logic.Change{Var: 10, Name: "family.0", Value: false})
	if v, ok := f.LastValue("family.0"); !ok || v {
		t.Errorf("LastValue: got (%v, %v), want (false, true)", v, ok)
	}
	if _, ok := f.LastValue("other"); ok {
		t.Error("LastValue of unpublished variable should report false")
	}

	f.PublishSystem(SystemEvent{Event: "STARTUP", Retained: true})
	f.PublishSystem(SystemEvent{Event: "HEARTBEAT"})
	names := f.SystemEventNames()
	if len(names) != 2 || names[0] != "STARTUP" || names[1] != "HEARTBEAT" {
		t.Errorf("unexpected system events: %v", names)
	}
	if !f.SystemEvents[0].Retained {
		t.Error("expected retained flag to be recorded")
	}
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("simulated error")
	f.PublishSystemError = errors.New("simulated system error")

	if err := f.Publish(logic.Event{}); err == nil {
		t.Error("expected error from Publish")
	}
	if err := f.PublishChange(logic.Change{}); err == nil {
		t.Error("expected error from PublishChange")
	}
	if err := f.PublishSystem(SystemEvent{}); err == nil {
		t.Error("expected error from PublishSystem")
	}
	if len(f.Events) != 0 || len(f.Changes) != 0 || len(f.SystemEvents) != 0 {
		t.Error("nothing should be recorded on error")
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()
	f.Publish(logic.Event{Occasion: birthday})
	f.PublishChange(logic.Change{Name: "x"})
	f.PublishSystem(SystemEvent{Event: "STARTUP"})
	f.Connected = true
	f.Close()

	f.Reset()

	if len(f.Events) != 0 || len(f.Payloads) != 0 || len(f.Changes) != 0 ||
		len(f.SystemEvents) != 0 || len(f.SystemPayloads) != 0 {
		t.Error("expected all records cleared after reset")
	}
	if f.Closed || f.Connected {
		t.Error("expected flags cleared after reset")
	}

	// Reusable after reset
	if err := f.Publish(logic.Event{Occasion: birthday}); err != nil {
		t.Fatalf("unexpected error after reset: %v", err)
	}
	if len(f.Events) != 1 {
		t.Errorf("expected 1 event after reset, got %d", len(f.Events))
	}
}
