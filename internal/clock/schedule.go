package clock

import "github.com/sweeney/segment-clock/internal/calendar"

// alarmKey identifies one calendar minute.
func alarmKey(t calendar.CalendarTime) int {
	return ((t.Year*13+t.Month)*32+t.Day)*1440 + t.Hour*60 + t.Minute
}

func (d *Device) startRinging(source string) {
	d.alarm.ringing = true
	d.alarm.beeps = 0
	d.emit(Event{Type: EventAlarmStarted, Detail: source})
}

// silence stops a ringing alarm. It does nothing when quiet.
func (d *Device) silence(reason string) {
	if !d.alarm.ringing {
		return
	}
	d.alarm.ringing = false
	d.emit(Event{Type: EventAlarmStopped, Detail: reason})
}

// checkAlarm starts the alarm when the countdown runs out or the daily
// alarm time is reached, and sounds one beep per pass while ringing. The
// daily alarm fires at most once per matching minute.
func (d *Device) checkAlarm() {
	if d.countdown.running && calendar.SecondsUntil(d.now, d.countdown.target) == 0 {
		d.countdown.running = false
		d.startRinging("countdown")
	}

	a := d.settings.Alarm
	if a.Enabled && d.rtcOK && d.now.Hour == a.Hour && d.now.Minute == a.Minute && d.now.Second == 0 {
		if key := alarmKey(d.now); key != d.alarm.lastKey {
			d.alarm.lastKey = key
			d.startRinging("alarm")
		}
	}

	if !d.alarm.ringing {
		return
	}
	d.beep(1)
	d.alarm.beeps++
	if d.alarm.beeps >= d.opts.RingBeepLimit {
		d.silence("timeout")
	}
}

// processPulse picks up whatever the edge handler recorded since the last
// pass and advances the hit display.
func (d *Device) processPulse() {
	var hits, presses, sinceHit int
	d.irq.With(func(s *interruptState) {
		hits, s.pendingHits = s.pendingHits, 0
		presses, s.countdownPresses = s.countdownPresses, 0
		sinceHit = s.sinceHit
	})

	if hits > 0 {
		d.registerHits(hits)
	}
	if d.mode == ModeHit {
		d.advanceHit(sinceHit)
	}
	for i := 0; i < presses; i++ {
		d.countdownPress()
	}
}

func (d *Device) registerHits(n int) {
	d.silence("hit")
	d.hitCount += n
	d.hitPhase = hitFresh
	if d.mode != ModeHit {
		d.prevMode = d.mode
		d.setMode(ModeHit)
	}
	d.emit(Event{Type: EventHit, Count: d.hitCount})
}

// advanceHit runs the hit display: flash and beep right after a hit, stop
// flashing after FlashTicks, and go back to the previous mode once no hit
// has come for HitRevertTicks.
func (d *Device) advanceHit(sinceHit int) {
	if sinceHit > d.opts.HitRevertTicks {
		d.clearHits()
		d.setMode(d.prevMode)
		return
	}
	switch d.hitPhase {
	case hitFresh:
		d.anim.SetFlash(true)
		d.beep(2)
		d.hitPhase = hitFlashing
	case hitFlashing:
		if sinceHit > d.opts.FlashTicks {
			d.anim.SetFlash(false)
			d.hitPhase = hitIdle
		}
	}
}

func (d *Device) clearHits() {
	d.hitCount = 0
	d.hitPhase = hitIdle
	d.anim.SetFlash(false)
}

// countdownPress handles one accepted edge on the countdown line. When
// idle it either silences a ringing alarm or arms a one-minute countdown.
// When armed it adds a minute if the countdown is on show, otherwise it
// brings the countdown back on show.
func (d *Device) countdownPress() {
	if !d.countdown.running {
		if d.alarm.ringing {
			d.silence("pulse")
			if d.mode == ModeCountdown {
				d.setMode(d.prevMode)
			}
			return
		}
		d.countdown.running = true
		d.countdown.target = calendar.AddMinute(d.now)
		if d.mode != ModeCountdown {
			d.prevMode = d.mode
		}
		d.setMode(ModeCountdown)
		d.emit(Event{Type: EventCountdownArmed, Count: calendar.SecondsUntil(d.now, d.countdown.target)})
		return
	}

	if d.mode == ModeCountdown {
		d.countdown.target = calendar.AddMinute(d.countdown.target)
		d.timeout = d.opts.SettingTimeoutPasses
		d.emit(Event{Type: EventCountdownExtended, Count: calendar.SecondsUntil(d.now, d.countdown.target)})
		return
	}
	d.prevMode = d.mode
	d.setMode(ModeCountdown)
}
