package status

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/segment-clock/internal/clock"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	Mode          string        `json:"mode"`
	Ready         bool          `json:"ready"`
	Time          string        `json:"time"`
	RTCOK         bool          `json:"rtc_ok"`
	DimLevel      int           `json:"dim_level"`
	Display       FrameJSON     `json:"display"`
	Alarm         AlarmJSON     `json:"alarm"`
	Countdown     CountdownJSON `json:"countdown"`
	Hits          int           `json:"hits"`
	Temperature   TempJSON      `json:"temperature"`
	DayDiff       int           `json:"day_diff"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Counts        CountsJSON    `json:"event_counts"`
	Mux           MuxJSON       `json:"mux"`
	Recent        []EventJSON   `json:"recent_events"`
	Config        ConfigJSON    `json:"config"`
}

// FrameJSON is the display frame as raw segment and lane bytes.
type FrameJSON struct {
	Digits []int `json:"digits"`
	Lanes  []int `json:"lanes"`
	Lit    []int `json:"lit"`
}

// AlarmJSON reports the alarm setting and whether it is sounding.
type AlarmJSON struct {
	Time    string `json:"time"`
	Enabled bool   `json:"enabled"`
	Ringing bool   `json:"ringing"`
}

// CountdownJSON reports the countdown timer.
type CountdownJSON struct {
	Running     bool `json:"running"`
	SecondsLeft int  `json:"seconds_left"`
}

// TempJSON reports the last temperature shown.
type TempJSON struct {
	Sensors int  `json:"sensors"`
	Celsius *int `json:"celsius"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Alarms        int `json:"alarms"`
	Hits          int `json:"hits"`
	Countdowns    int `json:"countdowns"`
	SettingsSaved int `json:"settings_saved"`
	TimeSet       int `json:"time_set"`
	Faults        int `json:"faults"`
}

// MuxJSON reports the multiplexer counters.
type MuxJSON struct {
	Ticks     uint64  `json:"ticks"`
	Scans     uint64  `json:"scans"`
	DutyCycle float64 `json:"duty_cycle"`
}

// EventJSON is one recent event.
type EventJSON struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Mode      string `json:"mode"`
	Detail    string `json:"detail,omitempty"`
	Count     int    `json:"count,omitempty"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	LoopMs        int64  `json:"loop_ms"`
	TickHz        int    `json:"tick_hz"`
	PulseFunction string `json:"pulse_function"`
	EEPROMBackend string `json:"eeprom_backend"`
	RTCBackend    string `json:"rtc_backend"`
	Broker        string `json:"broker"`
	HTTPAddr      string `json:"http_addr"`
}

// FormatFrame converts the clock's current frame for JSON output.
func FormatFrame(st clock.State) FrameJSON {
	f := FrameJSON{
		Digits: make([]int, len(st.Frame.Digits)),
		Lanes:  make([]int, len(st.Frame.Lanes)),
		Lit:    st.Frame.Lit(),
	}
	for i, d := range st.Frame.Digits {
		f.Digits[i] = int(d)
	}
	for i, l := range st.Frame.Lanes {
		f.Lanes[i] = int(l)
	}
	if f.Lit == nil {
		f.Lit = []int{}
	}
	return f
}

// EventFromClock converts one event for JSON output.
func EventFromClock(e clock.Event) EventJSON {
	return EventJSON{
		Type:      string(e.Type),
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
		Mode:      e.Mode,
		Detail:    e.Detail,
		Count:     e.Count,
	}
}

// Inner builds the status body shared by the web page, the JSON endpoint,
// the websocket feed and MQTT system events.
func Inner(snap Snapshot) StatusInner {
	st := snap.Clock
	mode := "UNKNOWN"
	if snap.Booted {
		mode = st.Mode.String()
	}

	inner := StatusInner{
		Mode:     mode,
		Ready:    snap.Booted,
		Time:     st.Time.String(),
		RTCOK:    st.RTCOK,
		DimLevel: st.DimLevel,
		Display:  FormatFrame(st),
		Alarm: AlarmJSON{
			Time:    fmt.Sprintf("%02d:%02d", st.AlarmHour, st.AlarmMinute),
			Enabled: st.AlarmEnabled,
			Ringing: st.AlarmRinging,
		},
		Countdown:     CountdownJSON{Running: st.CountdownRunning, SecondsLeft: st.CountdownLeft},
		Hits:          st.Hits,
		Temperature:   TempJSON{Sensors: st.Sensors},
		DayDiff:       st.DayDiff,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Alarms:        snap.Counts[clock.EventAlarmStarted],
			Hits:          snap.Counts[clock.EventHit],
			Countdowns:    snap.Counts[clock.EventCountdownArmed],
			SettingsSaved: snap.Counts[clock.EventSettingsSaved],
			TimeSet:       snap.Counts[clock.EventTimeSet],
			Faults:        snap.Counts[clock.EventFault],
		},
		Mux: MuxJSON{
			Ticks:     snap.Mux.Ticks,
			Scans:     snap.Mux.Scans,
			DutyCycle: snap.Mux.DutyCycle(),
		},
		Recent: make([]EventJSON, 0, len(snap.Recent)),
		Config: ConfigJSON{
			LoopMs:        snap.Config.LoopMs,
			TickHz:        snap.Config.TickHz,
			PulseFunction: snap.Config.PulseFunction,
			EEPROMBackend: snap.Config.EEPROMBackend,
			RTCBackend:    snap.Config.RTCBackend,
			Broker:        snap.Config.Broker,
			HTTPAddr:      snap.Config.HTTPAddr,
		},
	}
	if st.TemperatureOK {
		c := st.Temperature
		inner.Temperature.Celsius = &c
	}
	for _, e := range snap.Recent {
		inner.Recent = append(inner.Recent, EventFromClock(e))
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: Inner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := Inner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
