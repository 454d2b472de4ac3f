package clock

import (
	"time"

	"github.com/sweeney/segment-clock/internal/calendar"
	"github.com/sweeney/segment-clock/internal/settings"
)

// Editing ranges.
const (
	minEditYear = 10
	maxEditYear = 99
)

// holdBand is where a SET hold on the clock view leads once released.
type holdBand int

const (
	bandDate holdBand = iota
	bandAlarm
	bandAnimation
	bandDimming
	bandDateTime
)

// bandFor maps the number of SET polls counted while held to a destination.
func bandFor(hold int) holdBand {
	switch {
	case hold <= 5:
		return bandDate
	case hold <= 10:
		return bandAlarm
	case hold <= 15:
		return bandAnimation
	case hold <= 20:
		return bandDimming
	default:
		return bandDateTime
	}
}

// OnSelect handles a SELECT press: cycle the viewing modes, or step the
// value being edited.
func (d *Device) OnSelect() {
	d.silence("button")
	if d.mode.IsSetting() {
		d.timeout = d.opts.SettingTimeoutPasses
	}

	switch d.mode {
	case ModeHit:
		d.clearHits()
		d.setMode(ModeClock)
	case ModeClock:
		d.setMode(ModeDayDiff)
	case ModeDayDiff:
		d.tempIndex = 0
		d.setMode(ModeTemperature)
	case ModeTemperature:
		d.nextTemperature()
	case ModeBlank, ModeSensors:
		d.setMode(ModeClock)
	case ModeDate, ModeYear, ModeCountdown:
		// Leave via SET or the timeout.

	case ModeSetHours:
		d.editTime.Hour = wrapInc(d.editTime.Hour, 0, 23)
	case ModeSetMinutes:
		d.editTime.Minute = wrapInc(d.editTime.Minute, 0, 59)
	case ModeSetDay:
		d.editTime.Day = wrapInc(d.editTime.Day, 1, calendar.DaysInMonth(d.editTime.Month, 2000+d.editTime.Year))
	case ModeSetMonth:
		d.editTime.Month = wrapInc(d.editTime.Month, 1, 12)
	case ModeSetYear:
		d.editTime.Year = wrapInc(d.editTime.Year, minEditYear, maxEditYear)
	case ModeSetAlarmHours:
		d.editAlarm.Hour = wrapInc(d.editAlarm.Hour, 0, 23)
	case ModeSetAlarmMinutes:
		d.editAlarm.Minute = wrapInc(d.editAlarm.Minute, 0, 59)
	case ModeSetAlarmEnable:
		d.editAlarm.Enabled = !d.editAlarm.Enabled
	case ModeSetAnimation:
		d.editParams.SecMode = wrapInc(d.editParams.SecMode, 0, settings.MaxSecMode)
	case ModeSetDimming:
		d.editParams.DimMode = wrapInc(d.editParams.DimMode, 0, settings.MaxDimMode)
		d.applyDim()
	}
}

// nextTemperature steps through the sensors. With several sensors each one
// shows its label first and then its reading; after the last reading the
// display goes blank.
func (d *Device) nextTemperature() {
	n := len(d.sensors)
	if n <= 1 {
		d.tempIndex = 0
		d.setMode(ModeBlank)
		return
	}
	d.tempIndex++
	if d.tempIndex/2 >= n {
		d.tempIndex = 0
		d.setMode(ModeBlank)
		return
	}
	d.temp.stale = true
}

// OnSet handles a SET press: count a hold on the clock view, or confirm the
// field being edited and move to the next one.
func (d *Device) OnSet() {
	d.silence("button")

	switch d.mode {
	case ModeCountdown, ModeDayDiff, ModeTemperature:
		d.tempIndex = 0
		d.setMode(ModeClock)
		d.hold++
	case ModeClock:
		d.hold++
	case ModeDate:
		d.setMode(ModeYear)
	case ModeYear:
		d.setMode(ModeClock)

	case ModeSetYear:
		d.setMode(ModeSetMonth)
	case ModeSetMonth:
		if last := calendar.DaysInMonth(d.editTime.Month, 2000+d.editTime.Year); d.editTime.Day > last {
			d.editTime.Day = last
		}
		d.setMode(ModeSetDay)
	case ModeSetDay:
		d.setMode(ModeSetMinutes)
	case ModeSetMinutes:
		d.setMode(ModeSetHours)
	case ModeSetHours:
		d.commitTime()

	case ModeSetAlarmMinutes:
		d.setMode(ModeSetAlarmHours)
	case ModeSetAlarmHours:
		d.setMode(ModeSetAlarmEnable)
	case ModeSetAlarmEnable:
		d.commitAlarm()

	case ModeSetAnimation:
		d.commitParams(settings.FieldSecMode)
	case ModeSetDimming:
		d.commitParams(settings.FieldDimMode)
	}
}

// OnIdle handles a poll with no button down. On the clock view it acts on
// a SET hold that has just ended.
func (d *Device) OnIdle() {
	if d.mode != ModeClock || d.hold == 0 {
		return
	}
	band := bandFor(d.hold)
	d.hold = 0

	switch band {
	case bandDate:
		d.setMode(ModeDate)
	case bandAlarm:
		d.editAlarm = d.settings.Alarm
		d.setMode(ModeSetAlarmMinutes)
	case bandAnimation:
		d.editParams = d.settings.Params
		d.editingPrms = true
		d.setMode(ModeSetAnimation)
	case bandDimming:
		d.editParams = d.settings.Params
		d.editingPrms = true
		d.setMode(ModeSetDimming)
	case bandDateTime:
		d.editTime = d.now
		if d.editTime.Year < minEditYear || d.editTime.Year > maxEditYear {
			d.editTime.Year = minEditYear
		}
		d.setMode(ModeSetYear)
	}
}

func (d *Device) commitTime() {
	t := d.editTime
	t.Second = 0
	t.Weekday = int(t.Time(time.UTC).Weekday())
	if err := d.rtc.WriteTime(t); err != nil {
		d.emit(Event{Type: EventFault, Detail: "write rtc: " + err.Error()})
	} else {
		d.now = t
		d.emit(Event{Type: EventTimeSet, Detail: t.String()})
	}
	d.beep(1)
	d.returnToClock()
}

func (d *Device) commitAlarm() {
	if err := settings.StoreAlarm(d.store, d.editAlarm); err != nil {
		d.emit(Event{Type: EventFault, Detail: err.Error()})
	}
	d.settings.Alarm = d.editAlarm
	d.alarm.lastKey = -1
	d.emit(Event{Type: EventSettingsSaved, Detail: "alarm"})
	d.beep(1)
	d.returnToClock()
}

func (d *Device) commitParams(field settings.Field) {
	p := d.settings.Params
	switch field {
	case settings.FieldSecMode:
		p.SecMode = d.editParams.SecMode
	case settings.FieldDimMode:
		p.DimMode = d.editParams.DimMode
	}
	if err := settings.StoreParams(d.store, p, field); err != nil {
		d.emit(Event{Type: EventFault, Detail: err.Error()})
	}
	d.settings.Params = p
	d.emit(Event{Type: EventSettingsSaved, Detail: "params"})
	d.beep(1)
	d.returnToClock()
}
