package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/segment-clock/internal/calendar"
	"github.com/sweeney/segment-clock/internal/clock"
	"github.com/sweeney/segment-clock/internal/display"
	"github.com/sweeney/segment-clock/internal/mux"
)

func sampleState() clock.State {
	var frame display.Buffer
	frame.Digits = [4]byte{0x06, 0xDB, 0x4F, 0x66}
	frame.Set(10)
	return clock.State{
		Mode:          clock.ModeClock,
		Time:          calendar.CalendarTime{Hour: 12, Minute: 34, Second: 10, Day: 18, Month: 4, Year: 20},
		RTCOK:         true,
		DimLevel:      3,
		AlarmHour:     6,
		AlarmMinute:   30,
		AlarmEnabled:  true,
		Hits:          2,
		Sensors:       1,
		Temperature:   21,
		TemperatureOK: true,
		DayDiff:       731,
		Frame:         frame,
	}
}

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{LoopMs: 10, TickHz: 1500, Broker: "tcp://localhost:1883", HTTPAddr: ":80"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.LoopMs != 10 {
		t.Errorf("Config.LoopMs: got %d, want 10", snap.Config.LoopMs)
	}
	if snap.Config.HTTPAddr != ":80" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":80")
	}
	if snap.Booted {
		t.Error("expected Booted=false initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.Update(sampleState(), []clock.Event{
		{Type: clock.EventHit, Count: 1},
		{Type: clock.EventHit, Count: 2},
		{Type: clock.EventAlarmStarted},
	})

	snap := tr.Snapshot()
	if snap.Clock.Mode != clock.ModeClock {
		t.Errorf("Mode: got %v, want CLOCK", snap.Clock.Mode)
	}
	if !snap.Booted {
		t.Error("expected Booted=true")
	}
	if snap.Counts[clock.EventHit] != 2 {
		t.Errorf("Counts[hit]: got %d, want 2", snap.Counts[clock.EventHit])
	}
	if snap.Counts[clock.EventAlarmStarted] != 1 {
		t.Errorf("Counts[alarm]: got %d, want 1", snap.Counts[clock.EventAlarmStarted])
	}
	if len(snap.Recent) != 3 {
		t.Errorf("Recent: got %d events, want 3", len(snap.Recent))
	}
}

func TestRecentEventsAreBounded(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	for i := 0; i < recentLimit+5; i++ {
		tr.Update(sampleState(), []clock.Event{{Type: clock.EventHit, Count: i}})
	}

	snap := tr.Snapshot()
	if len(snap.Recent) != recentLimit {
		t.Fatalf("Recent: got %d, want %d", len(snap.Recent), recentLimit)
	}
	if snap.Recent[0].Count != 5 {
		t.Errorf("oldest kept: got %d, want 5", snap.Recent[0].Count)
	}
	if snap.Counts[clock.EventHit] != recentLimit+5 {
		t.Errorf("count: got %d, want %d", snap.Counts[clock.EventHit], recentLimit+5)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSetMux(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.SetMux(mux.Stats{Ticks: 120, Scans: 10, DrivenScans: 5})

	snap := tr.Snapshot()
	if snap.Mux.Ticks != 120 || snap.Mux.DutyCycle() != 0.5 {
		t.Errorf("Mux: got %+v", snap.Mux)
	}
}

func TestSubscribeSignalsOnChange(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	ch, cancel := tr.Subscribe()
	defer cancel()

	st := sampleState()
	tr.Update(st, nil)
	select {
	case <-ch:
	default:
		t.Fatal("expected a signal after the first update")
	}

	tr.Update(st, nil)
	select {
	case <-ch:
		t.Fatal("unexpected signal for an unchanged frame")
	default:
	}

	st.Frame.Digits[0] = 0
	tr.Update(st, nil)
	tr.Update(sampleState(), nil)
	select {
	case <-ch:
	default:
		t.Fatal("expected a signal after a frame change")
	}
	select {
	case <-ch:
		t.Fatal("signals should be coalesced")
	default:
	}
}

func TestUnsubscribe(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	ch, cancel := tr.Subscribe()
	cancel()

	tr.Update(sampleState(), nil)
	select {
	case <-ch:
		t.Fatal("no signal expected after unsubscribe")
	default:
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Update(sampleState(), []clock.Event{{Type: clock.EventHit}})

	snap1 := tr.Snapshot()

	st := sampleState()
	st.Mode = clock.ModeDate
	tr.Update(st, []clock.Event{{Type: clock.EventHit}})

	// snap1 should still reflect old state
	if snap1.Clock.Mode != clock.ModeClock {
		t.Error("snapshot should be a copy; Mode was modified")
	}
	if snap1.Counts[clock.EventHit] != 1 {
		t.Error("snapshot should be a copy; Counts were modified")
	}
	if len(snap1.Recent) != 1 {
		t.Error("snapshot should be a copy; Recent was modified")
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Clock:         sampleState(),
		Booted:        true,
		Counts:        EventCounts{clock.EventHit: 5, clock.EventFault: 1},
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{LoopMs: 10, TickHz: 1500, Broker: "tcp://localhost:1883", HTTPAddr: ":80"},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	s := parsed.Status
	if s.Mode != "CLOCK" {
		t.Errorf("Mode: got %q, want CLOCK", s.Mode)
	}
	if !s.Ready {
		t.Error("expected Ready=true")
	}
	if s.Time != "2020-04-18 12:34:10" {
		t.Errorf("Time: got %q", s.Time)
	}
	if s.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", s.UptimeSeconds)
	}
	if !s.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if s.Counts.Hits != 5 || s.Counts.Faults != 1 {
		t.Errorf("Counts: got %+v", s.Counts)
	}
	if s.Alarm.Time != "06:30" || !s.Alarm.Enabled {
		t.Errorf("Alarm: got %+v", s.Alarm)
	}
	if s.Temperature.Celsius == nil || *s.Temperature.Celsius != 21 {
		t.Errorf("Temperature: got %+v", s.Temperature)
	}
	if s.DayDiff != 731 {
		t.Errorf("DayDiff: got %d, want 731", s.DayDiff)
	}
	if len(s.Display.Digits) != 4 || s.Display.Digits[1] != 0xDB {
		t.Errorf("Display.Digits: got %v", s.Display.Digits)
	}
	if len(s.Display.Lit) != 1 || s.Display.Lit[0] != 10 {
		t.Errorf("Display.Lit: got %v", s.Display.Lit)
	}
	// Event and Reason should be omitted
	if s.Event != "" {
		t.Errorf("expected empty Event for web format, got %q", s.Event)
	}
	if s.Reason != "" {
		t.Errorf("expected empty Reason for web format, got %q", s.Reason)
	}
}

func TestFormatJSONBeforeBoot(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	data := FormatJSON(snap)

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	status := raw["status"].(map[string]interface{})
	if status["mode"] != "UNKNOWN" {
		t.Errorf("mode: got %v, want UNKNOWN", status["mode"])
	}
	temp := status["temperature"].(map[string]interface{})
	if temp["celsius"] != nil {
		t.Errorf("celsius: got %v, want null", temp["celsius"])
	}
	display := status["display"].(map[string]interface{})
	if lit, ok := display["lit"].([]interface{}); !ok || len(lit) != 0 {
		t.Errorf("lit: got %v, want []", display["lit"])
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Clock:     sampleState(),
		Booted:    true,
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
		Config:    Config{Broker: "tcp://localhost:1883"},
	}

	data := FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("Event: got %q, want SHUTDOWN", parsed.Status.Event)
	}
	if parsed.Status.Reason != "SIGTERM" {
		t.Errorf("Reason: got %q, want SIGTERM", parsed.Status.Reason)
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	data := FormatStatusEvent(snap, "STARTUP", "")

	// Verify "reason" is not in the raw JSON output
	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	status := raw["status"].(map[string]interface{})
	if _, exists := status["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if status["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", status["event"])
	}
}

func TestEventFromClock(t *testing.T) {
	ts := time.Date(2026, 1, 1, 6, 30, 0, 0, time.UTC)
	e := EventFromClock(clock.Event{Type: clock.EventAlarmStarted, Timestamp: ts, Mode: "CLOCK", Detail: "alarm"})

	if e.Type != "ALARM_STARTED" || e.Timestamp != "2026-01-01T06:30:00Z" || e.Detail != "alarm" {
		t.Errorf("unexpected event JSON: %+v", e)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	ch, cancel := tr.Subscribe()
	defer cancel()
	var wg sync.WaitGroup

	// Writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			st := sampleState()
			st.Hits = i
			tr.Update(st, []clock.Event{{Type: clock.EventHit}})
			tr.SetMQTTConnected(i%2 == 0)
			tr.SetMux(mux.Stats{Ticks: uint64(i)})
		}
	}()

	// Reader
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
			select {
			case <-ch:
			default:
			}
		}
	}()

	wg.Wait()
}
