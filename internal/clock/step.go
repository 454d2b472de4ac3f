package clock

import (
	"time"

	"github.com/sweeney/segment-clock/internal/calendar"
	"github.com/sweeney/segment-clock/internal/display"
)

// EventType names something that happened during a pass.
type EventType string

// Event types.
const (
	EventModeChanged       EventType = "MODE_CHANGED"
	EventAlarmStarted      EventType = "ALARM_STARTED"
	EventAlarmStopped      EventType = "ALARM_STOPPED"
	EventHit               EventType = "TARGET_HIT"
	EventCountdownArmed    EventType = "COUNTDOWN_ARMED"
	EventCountdownExtended EventType = "COUNTDOWN_EXTENDED"
	EventTimeSet           EventType = "TIME_SET"
	EventSettingsSaved     EventType = "SETTINGS_SAVED"
	EventFault             EventType = "FAULT"
)

// Event is one notable change. Count carries the hit total or the seconds
// left on the countdown, depending on Type.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Mode      string
	Detail    string
	Count     int
}

func (d *Device) emit(e Event) {
	e.Timestamp = d.stamp
	if e.Mode == "" {
		e.Mode = d.mode.String()
	}
	d.events = append(d.events, e)
}

// State is a copy of the parts of the device worth showing elsewhere.
type State struct {
	Mode             Mode
	Time             calendar.CalendarTime
	RTCOK            bool
	DimLevel         int
	AlarmRinging     bool
	AlarmHour        int
	AlarmMinute      int
	AlarmEnabled     bool
	CountdownRunning bool
	CountdownLeft    int
	Hits             int
	Sensors          int
	Temperature      int
	TemperatureOK    bool
	DayDiff          int
	Frame            display.Buffer
}

// State returns a snapshot. Call it from the main loop only.
func (d *Device) State() State {
	s := State{
		Mode:             d.mode,
		Time:             d.now,
		RTCOK:            d.rtcOK,
		DimLevel:         d.level,
		AlarmRinging:     d.alarm.ringing,
		AlarmHour:        d.settings.Alarm.Hour,
		AlarmMinute:      d.settings.Alarm.Minute,
		AlarmEnabled:     d.settings.Alarm.Enabled,
		CountdownRunning: d.countdown.running,
		Hits:             d.hitCount,
		Sensors:          len(d.sensors),
		Temperature:      d.temp.value,
		TemperatureOK:    d.temp.ok,
		DayDiff:          d.dayDiff,
		Frame:            d.frame,
	}
	if d.countdown.running {
		s.CountdownLeft = calendar.SecondsUntil(d.now, d.countdown.target)
	}
	return s
}

// Step runs one main-loop pass: read the clock, take in pulse events,
// dispatch the buttons, render, then run the alarm, the mode timeout,
// swing and auto-dim. stamp is the wall time used on events. It returns the
// events raised during the pass.
func (d *Device) Step(stamp time.Time, keys Keys) []Event {
	d.stamp = stamp
	d.events = d.events[:0]
	start := d.mode

	d.readClock()
	d.processPulse()

	if d.holdoff > 0 {
		d.holdoff--
	} else {
		switch {
		case keys.Select:
			d.OnSelect()
			d.holdoff = d.opts.KeyHoldoffPasses
		case keys.Set:
			d.OnSet()
			d.holdoff = d.opts.KeyHoldoffPasses
		default:
			d.OnIdle()
		}
	}

	d.refreshView()
	d.frame = d.Render()
	d.out.SetFrame(d.frame)

	d.checkAlarm()
	d.checkTimeout()
	d.swing()
	if !d.mode.IsSetting() {
		d.applyDim()
	}

	if d.mode != start {
		d.emit(Event{Type: EventModeChanged, Detail: start.String()})
	}

	out := make([]Event, len(d.events))
	copy(out, d.events)
	return out
}

// readClock refreshes the current time. A failing RTC keeps the last good
// time and raises one fault until it recovers.
func (d *Device) readClock() {
	t, err := d.rtc.ReadTime()
	if err != nil || !t.Valid() {
		if d.rtcOK || d.lastSecond == -1 {
			detail := "rtc returned an invalid time"
			if err != nil {
				detail = "read rtc: " + err.Error()
			}
			d.emit(Event{Type: EventFault, Detail: detail})
		}
		d.rtcOK = false
		d.lastSecond = -2
		return
	}
	d.rtcOK = true
	d.now = t
	if t.Second != d.lastSecond {
		d.lastSecond = t.Second
		d.out.MarkSecond()
		if d.mode == ModeTemperature {
			d.temp.stale = true
		}
	}
}

// refreshView updates the values the current view needs.
func (d *Device) refreshView() {
	switch d.mode {
	case ModeDayDiff:
		d.dayDiff = calendar.DaysBetween(d.now.Date(), d.settings.RefDate)
	case ModeTemperature:
		if d.temp.stale {
			d.readTemperature()
		}
	}
}

func (d *Device) readTemperature() {
	d.temp.stale = false
	if d.therm == nil || len(d.sensors) == 0 {
		d.temp.ok = false
		return
	}
	i := 0
	if len(d.sensors) > 1 {
		i = d.tempIndex / 2
	}
	if i >= len(d.sensors) {
		i = len(d.sensors) - 1
	}
	enc, err := d.therm.ReadTemperature(d.sensors[i])
	if err != nil {
		d.temp.ok = false
		return
	}
	d.temp.value = DecodeTemperature(enc) - d.opts.TempCorrection
	d.temp.ok = true
}

// checkTimeout sends a timed view or an abandoned edit back to the clock.
func (d *Device) checkTimeout() {
	if !d.mode.autoReturns() {
		return
	}
	if d.timeout > 0 {
		d.timeout--
		return
	}
	if d.mode == ModeCountdown && d.countdown.running {
		// The countdown keeps running in the background.
		d.setMode(ModeClock)
		return
	}
	d.returnToClock()
}

// swingModes is the order swing walks through.
var swingModes = [...]Mode{ModeClock, ModeDate, ModeTemperature, ModeDayDiff}

// swing advances through the early viewing modes every few seconds: every
// 9 seconds from the clock and every 3 from the others.
func (d *Device) swing() {
	if !d.params().Swing || d.mode > ModeDayDiff || d.mode == ModeBlank || d.hold > 0 {
		return
	}
	s := d.now.Second
	if s == d.swingSecond {
		return
	}
	every := 3
	if d.mode == ModeClock {
		every = 9
	}
	if s%every != 0 {
		return
	}
	d.swingSecond = s

	next := ModeClock
	for i, m := range swingModes {
		if m == d.mode {
			next = swingModes[(i+1)%len(swingModes)]
			break
		}
	}
	d.tempIndex = 0
	d.setMode(next)
}
