// Package mqtt publishes clock events and daemon lifecycle events to an
// MQTT broker, with a fake for tests.
package mqtt

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/segment-clock/internal/clock"
)

// DefaultTopic is the base topic when none is configured.
const DefaultTopic = "segment-clock"

// EventTopic returns the topic for one event type, e.g.
// segment-clock/events/target_hit.
func EventTopic(base string, t clock.EventType) string {
	return base + "/events/" + strings.ToLower(string(t))
}

// SystemTopic returns the topic for lifecycle events.
func SystemTopic(base string) string {
	return base + "/system"
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a clock event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event clock.Event) error

	// PublishSystem sends a lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent is a lifecycle event (STARTUP, SHUTDOWN, RECONNECTED).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string // shutdown only, e.g. SIGTERM
	RawPayload []byte // pre-formatted payload; when set it is sent as is
	Retained   bool
}

// Payload is the message body for a clock event.
type Payload struct {
	Clock EventPayload `json:"clock"`
}

// EventPayload contains the clock event details.
type EventPayload struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Mode      string `json:"mode"`
	Detail    string `json:"detail,omitempty"`
	Count     int    `json:"count,omitempty"`
}

// FormatPayload creates the JSON payload for a clock event. Every message
// gets a fresh random id so consumers can drop replays after a reconnect.
func FormatPayload(event clock.Event) ([]byte, error) {
	return json.Marshal(Payload{
		Clock: EventPayload{
			ID:        uuid.NewString(),
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Mode:      event.Mode,
			Detail:    event.Detail,
			Count:     event.Count,
		},
	})
}

// SystemPayload is the message body for simple lifecycle events that do
// not carry a status snapshot.
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
// If event.RawPayload is set, it is returned directly.
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

// willPayload is registered as the last will and published by the broker
// when the connection drops without a clean disconnect.
func willPayload() []byte {
	data, _ := json.Marshal(SystemPayload{System: SystemPayloadInner{Event: "OFFLINE"}})
	return data
}
