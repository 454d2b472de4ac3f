package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/segment-clock/internal/clock"
)

func TestTopics(t *testing.T) {
	if got := EventTopic("segment-clock", clock.EventCountdownArmed); got != "segment-clock/events/countdown_armed" {
		t.Errorf("EventTopic: got %q", got)
	}
	if got := SystemTopic("home/clock"); got != "home/clock/system" {
		t.Errorf("SystemTopic: got %q", got)
	}
}

func TestFormatPayload(t *testing.T) {
	event := clock.Event{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Type:      clock.EventHit,
		Mode:      "HIT",
		Count:     3,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Clock.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("unexpected timestamp: %s", parsed.Clock.Timestamp)
	}
	if parsed.Clock.Event != "TARGET_HIT" {
		t.Errorf("unexpected event: %s", parsed.Clock.Event)
	}
	if parsed.Clock.Mode != "HIT" {
		t.Errorf("unexpected mode: %s", parsed.Clock.Mode)
	}
	if parsed.Clock.Count != 3 {
		t.Errorf("unexpected count: %d", parsed.Clock.Count)
	}
	if _, err := uuid.Parse(parsed.Clock.ID); err != nil {
		t.Errorf("id %q is not a uuid: %v", parsed.Clock.ID, err)
	}
}

func TestFormatPayloadIDsAreUnique(t *testing.T) {
	event := clock.Event{Type: clock.EventAlarmStarted}
	a, _ := FormatPayload(event)
	b, _ := FormatPayload(event)

	var pa, pb Payload
	json.Unmarshal(a, &pa)
	json.Unmarshal(b, &pb)
	if pa.Clock.ID == pb.Clock.ID {
		t.Errorf("expected distinct ids, both %s", pa.Clock.ID)
	}
}

func TestFormatPayloadOmitsEmptyFields(t *testing.T) {
	payload, _ := FormatPayload(clock.Event{Type: clock.EventTimeSet, Mode: "CLOCK"})

	var raw map[string]map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	for _, k := range []string{"detail", "count"} {
		if _, ok := raw["clock"][k]; ok {
			t.Errorf("%s should be omitted when empty", k)
		}
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	event := clock.Event{
		Timestamp: time.Date(2026, 6, 1, 8, 0, 0, 0, loc),
		Type:      clock.EventAlarmStarted,
	}
	payload, _ := FormatPayload(event)

	var parsed Payload
	json.Unmarshal(payload, &parsed)
	if parsed.Clock.Timestamp != "2026-06-01T06:00:00Z" {
		t.Errorf("timestamp: got %s, want 2026-06-01T06:00:00Z", parsed.Clock.Timestamp)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	tests := []struct {
		name   string
		event  SystemEvent
		expect string
	}{
		{
			"shutdown",
			SystemEvent{Timestamp: time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC), Event: "SHUTDOWN", Reason: "SIGTERM"},
			`{"system":{"timestamp":"2026-02-03T10:00:00Z","event":"SHUTDOWN","reason":"SIGTERM"}}`,
		},
		{
			"reconnected omits reason",
			SystemEvent{Timestamp: time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC), Event: "RECONNECTED"},
			`{"system":{"timestamp":"2026-02-03T10:00:00Z","event":"RECONNECTED"}}`,
		},
		{
			"raw payload passes through",
			SystemEvent{Event: "STARTUP", RawPayload: []byte(`{"status":{}}`)},
			`{"status":{}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatSystemPayload(tt.event)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.expect {
				t.Errorf("got %s, want %s", got, tt.expect)
			}
		})
	}
}

func TestWillPayloadFormat(t *testing.T) {
	var parsed SystemPayload
	if err := json.Unmarshal(willPayload(), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.System.Event != "OFFLINE" {
		t.Errorf("will event: got %q, want OFFLINE", parsed.System.Event)
	}
}

func TestFakePublisher(t *testing.T) {
	fake := NewFakePublisher()

	events := []clock.Event{
		{Type: clock.EventCountdownArmed, Count: 60},
		{Type: clock.EventHit, Count: 1},
	}
	for _, e := range events {
		if err := fake.Publish(e); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if len(fake.Events) != 2 || len(fake.Payloads) != 2 {
		t.Fatalf("expected 2 events and payloads, got %d/%d", len(fake.Events), len(fake.Payloads))
	}
	if fake.Events[0].Type != clock.EventCountdownArmed || fake.Events[1].Type != clock.EventHit {
		t.Errorf("events out of order: %+v", fake.Events)
	}
	if fake.Topics[1] != "segment-clock/events/target_hit" {
		t.Errorf("topic: got %q", fake.Topics[1])
	}
}

func TestFakePublisherError(t *testing.T) {
	fake := NewFakePublisher()
	fake.PublishError = errors.New("connection lost")
	fake.PublishSystemError = errors.New("connection lost")

	if err := fake.Publish(clock.Event{Type: clock.EventHit}); err == nil {
		t.Error("expected Publish error")
	}
	if err := fake.PublishSystem(SystemEvent{Event: "SHUTDOWN"}); err == nil {
		t.Error("expected PublishSystem error")
	}
	if len(fake.Events) != 0 || len(fake.SystemEvents) != 0 {
		t.Error("nothing should be recorded on error")
	}
}

func TestFakePublisherSystemEvents(t *testing.T) {
	fake := NewFakePublisher()
	ts := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)

	if err := fake.PublishSystem(SystemEvent{Timestamp: ts, Event: "STARTUP", Retained: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.SystemEvents) != 1 || !fake.SystemEvents[0].Retained {
		t.Fatalf("system event not recorded: %+v", fake.SystemEvents)
	}

	var parsed SystemPayload
	json.Unmarshal(fake.SystemPayloads[0], &parsed)
	if parsed.System.Event != "STARTUP" {
		t.Errorf("event: got %q", parsed.System.Event)
	}
}

func TestFakePublisherResetAndReuse(t *testing.T) {
	fake := NewFakePublisher()
	fake.Connected = true
	fake.Publish(clock.Event{Type: clock.EventHit})
	fake.PublishSystem(SystemEvent{Event: "STARTUP"})
	fake.Close()

	fake.Reset()
	if fake.Events != nil || fake.Payloads != nil || fake.Topics != nil || fake.SystemEvents != nil || fake.SystemPayloads != nil {
		t.Error("Reset should clear recorded messages")
	}
	if fake.Closed || fake.Connected {
		t.Error("Reset should clear flags")
	}

	fake.Publish(clock.Event{Type: clock.EventFault, Detail: "rtc"})
	if len(fake.Events) != 1 || fake.Events[0].Detail != "rtc" {
		t.Errorf("fake not reusable after reset: %+v", fake.Events)
	}
}
