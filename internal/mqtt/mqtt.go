// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/ledclock/internal/logic"
)

// Topic is the MQTT topic for scheduling events.
const Topic = "ledclock/events"

// TopicVars is the prefix of the retained per-variable topics.
const TopicVars = "ledclock/vars/"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "ledclock/system"

// VarTopic returns the retained topic carrying the value of one variable.
func VarTopic(name string) string {
	return TopicVars + name
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a scheduling event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishChange sends the new value of an output variable.
	PublishChange(change logic.Change) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "DAILY_RESTART" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Clock ClockPayload `json:"ledclock"`
}

// ClockPayload contains the scheduling event details.
type ClockPayload struct {
	Timestamp string          `json:"timestamp"`
	Event     string          `json:"event"`
	Slot      string          `json:"slot"`
	Index     int             `json:"index"`
	Occasion  OccasionPayload `json:"occasion"`
}

// OccasionPayload describes the catalog entry an event refers to.
type OccasionPayload struct {
	Kind string `json:"kind"`
	Date string `json:"date,omitempty"` // "d.m.", dated occasions only
}

// FormatPayload creates the JSON payload for a scheduling event.
func FormatPayload(event logic.Event) ([]byte, error) {
	occ := OccasionPayload{Kind: event.Occasion.Kind.String()}
	if event.Occasion.Kind == logic.KindDated {
		occ.Date = event.Occasion.String()
	}
	payload := Payload{
		Clock: ClockPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Slot:      event.Slot,
			Index:     event.Index,
			Occasion:  occ,
		},
	}
	return json.Marshal(payload)
}

// ChangePayload is the retained value of one output variable.
type ChangePayload struct {
	Var   int    `json:"var"`
	Name  string `json:"name"`
	State string `json:"state"` // "ON" or "OFF"
}

// FormatChangePayload creates the JSON payload for a variable change.
func FormatChangePayload(change logic.Change) ([]byte, error) {
	state := "OFF"
	if change.Value {
		state = "ON"
	}
	return json.Marshal(ChangePayload{Var: change.Var, Name: change.Name, State: state})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// WillPayload is registered with the broker at connect time and published
// by it if the connection drops without a clean disconnect.
func WillPayload(connectedAt time.Time) []byte {
	// Marshalling a struct of strings cannot fail.
	b, _ := FormatSystemPayload(SystemEvent{
		Timestamp: connectedAt,
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})
	return b
}
