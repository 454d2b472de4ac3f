package clock

import (
	"github.com/sweeney/segment-clock/internal/calendar"
	"github.com/sweeney/segment-clock/internal/display"
	"github.com/sweeney/segment-clock/internal/glyph"
)

type cells = [display.NumDigits]byte

var (
	wordDate    = glyph.Word(glyph.LetterD, glyph.LetterA, glyph.LetterT, glyph.LetterE)
	wordDays    = glyph.Word(glyph.LetterD, glyph.LetterA, glyph.LetterY, glyph.LetterS)
	wordDim     = glyph.Word(glyph.LetterD, glyph.LetterI, glyph.LetterN, glyph.LetterN)
	wordLed     = glyph.Word(glyph.LetterL, glyph.LetterE, glyph.LetterD, glyph.Blank)
	wordNone    = glyph.Word(glyph.Blank, glyph.LetterN, glyph.LetterO, glyph.Blank)
	wordMissing = glyph.Word(glyph.Minus, glyph.Minus, glyph.Minus, glyph.Minus)
	wordOn      = glyph.Word(glyph.LetterO, glyph.LetterN)
	wordOff     = glyph.Word(glyph.LetterO, glyph.LetterF, glyph.LetterF)
	wordSetAl   = glyph.Word(glyph.LetterS, glyph.Dot, glyph.LetterA, glyph.LetterL)
	wordSetCl   = glyph.Word(glyph.LetterS, glyph.Dot, glyph.LetterC, glyph.LetterL)
)

// blinkOn reports whether blinking elements are lit: the first half of
// every second.
func (d *Device) blinkOn() bool {
	return d.out.SubTicks() < d.opts.TicksPerSecond/2
}

// Render composes the frame for the current mode: the four digit cells and
// the LED ring.
func (d *Device) Render() display.Buffer {
	var b display.Buffer
	b.Digits = d.digits()

	if d.mode.IsSetting() && d.holdoff == 0 && !d.blinkOn() {
		b.Digits = cells{}
	}

	d.anim.Draw(&b, d.params().SecMode, display.Frame{
		Second:   d.now.Second,
		Minute:   d.now.Minute,
		Hour:     d.now.Hour,
		SubTicks: d.out.SubTicks(),
		Force:    d.mode == ModeSetAnimation,
	})
	return b
}

func (d *Device) digits() cells {
	p := d.params()

	switch d.mode {
	case ModeBlank:
		return cells{}
	case ModeSensors:
		return sensorLabel(len(d.sensors))
	case ModeClock:
		if d.hold > 0 {
			return holdLabel(bandFor(d.hold))
		}
		return d.clockDigits(p.USMode)
	case ModeDate:
		return dateDigits(d.now, p.USMode)
	case ModeDayDiff:
		if d.now.Second%2 == 1 {
			return wordDays
		}
		return fourDigits(d.dayDiff)
	case ModeYear:
		return fourDigits(2000 + d.now.Year)
	case ModeHit:
		return fourDigits(d.hitCount)
	case ModeCountdown:
		rem := calendar.SecondsUntil(d.now, d.countdown.target)
		if !d.countdown.running {
			rem = 0
		}
		return minutesSeconds(rem)
	case ModeTemperature:
		return d.temperatureDigits(p.USMode)

	case ModeSetHours:
		return hourDigits(d.editTime.Hour, p.USMode)
	case ModeSetAlarmHours:
		return hourDigits(d.editAlarm.Hour, p.USMode)
	case ModeSetMinutes:
		return minuteDigits(d.editTime.Minute)
	case ModeSetAlarmMinutes:
		return minuteDigits(d.editAlarm.Minute)
	case ModeSetDay:
		return fieldDigits(d.editTime.Day, !p.USMode)
	case ModeSetMonth:
		return fieldDigits(d.editTime.Month, p.USMode)
	case ModeSetYear:
		return cells{glyph.DigitSegments(2), glyph.DigitSegments(0), glyph.DigitSegments(d.editTime.Year / 10 % 10), glyph.DigitSegments(d.editTime.Year % 10)}
	case ModeSetAlarmEnable:
		if d.editAlarm.Enabled {
			return wordOn
		}
		return wordOff
	case ModeSetAnimation:
		return cells{0, 0, glyph.DigitSegments(p.SecMode / 10), glyph.DigitSegments(p.SecMode % 10)}
	case ModeSetDimming:
		return cells{0, 0, 0, glyph.DigitSegments(p.DimMode)}
	}
	return cells{}
}

func holdLabel(b holdBand) cells {
	switch b {
	case bandDate:
		return wordDate
	case bandAlarm:
		return wordSetAl
	case bandAnimation:
		return wordLed
	case bandDimming:
		return wordDim
	default:
		return wordSetCl
	}
}

func sensorLabel(n int) cells {
	return cells{glyph.Segments(glyph.LetterT), glyph.WithDot(glyph.Segments(glyph.LetterE)), 0, glyph.DigitSegments(n % 10)}
}

// displayHour converts hour (0-23) to the hour shown: 1-12 in 12-hour mode.
func displayHour(hour int, twelve bool) int {
	if !twelve {
		return hour
	}
	hour %= 12
	if hour == 0 {
		return 12
	}
	return hour
}

func (d *Device) clockDigits(twelve bool) cells {
	h := displayHour(d.now.Hour, twelve)
	var c cells
	if h > 9 {
		c[0] = glyph.DigitSegments(h / 10)
	}
	c[1] = glyph.DigitSegments(h % 10)
	if d.blinkOn() {
		c[1] = glyph.WithDot(c[1])
	}
	c[2] = glyph.DigitSegments(d.now.Minute / 10)
	c[3] = glyph.DigitSegments(d.now.Minute % 10)
	return c
}

// dateDigits shows day and month, day first unless month-first is set.
// Leading zeros are blanked.
func dateDigits(now calendar.CalendarTime, monthFirst bool) cells {
	first, second := now.Day, now.Month
	if monthFirst {
		first, second = now.Month, now.Day
	}
	var c cells
	if first/10 != 0 {
		c[0] = glyph.DigitSegments(first / 10)
	}
	c[1] = glyph.DigitSegments(first % 10)
	if second/10 != 0 {
		c[2] = glyph.DigitSegments(second / 10)
	}
	c[3] = glyph.DigitSegments(second % 10)
	return c
}

// fourDigits shows n (clamped to 0..9999) with leading zeros.
func fourDigits(n int) cells {
	if n < 0 {
		n = 0
	}
	if n > 9999 {
		n = 9999
	}
	return cells{
		glyph.DigitSegments(n / 1000),
		glyph.DigitSegments(n / 100 % 10),
		glyph.DigitSegments(n / 10 % 10),
		glyph.DigitSegments(n % 10),
	}
}

// minutesSeconds shows a duration in seconds as MM.SS.
func minutesSeconds(secs int) cells {
	m, s := secs/60, secs%60
	if m > 99 {
		m, s = 99, 59
	}
	return cells{
		glyph.DigitSegments(m / 10),
		glyph.WithDot(glyph.DigitSegments(m % 10)),
		glyph.DigitSegments(s / 10),
		glyph.DigitSegments(s % 10),
	}
}

// hourDigits shows an hour being edited. The 12-hour form has no leading
// zero and ends in A or P; the 24-hour form has a dot after the hour.
func hourDigits(hour int, twelve bool) cells {
	h := displayHour(hour, twelve)
	var c cells
	if !twelve || h > 9 {
		c[0] = glyph.DigitSegments(h / 10)
	}
	c[1] = glyph.DigitSegments(h % 10)
	if !twelve {
		c[1] = glyph.WithDot(c[1])
		return c
	}
	if hour >= 12 {
		c[3] = glyph.Segments(glyph.LetterP)
	} else {
		c[3] = glyph.Segments(glyph.LetterA)
	}
	return c
}

func minuteDigits(m int) cells {
	return cells{0, glyph.SegDot, glyph.DigitSegments(m / 10), glyph.DigitSegments(m % 10)}
}

// fieldDigits shows a two-digit date field on the left or right pair.
func fieldDigits(v int, left bool) cells {
	hi, lo := glyph.DigitSegments(v/10), glyph.DigitSegments(v%10)
	if left {
		return cells{hi, lo, 0, 0}
	}
	return cells{0, 0, hi, lo}
}

// DecodeTemperature turns an encoded sensor byte into degrees Celsius.
func DecodeTemperature(enc byte) int {
	if enc > 100 {
		return -(128 - int(enc&0x7F))
	}
	return int(enc)
}

// CelsiusToFahrenheit converts whole degrees.
func CelsiusToFahrenheit(c int) int {
	return c*9/5 + 32
}

func (d *Device) temperatureDigits(fahrenheit bool) cells {
	n := len(d.sensors)
	if n == 0 {
		return wordNone
	}
	if n > 1 && d.tempIndex%2 == 0 {
		return sensorLabel(d.tempIndex/2 + 1)
	}
	if !d.temp.ok {
		return wordMissing
	}

	v := d.temp.value
	unit := glyph.LetterC
	if fahrenheit {
		v = CelsiusToFahrenheit(v)
		unit = glyph.LetterF
	}
	neg := v < 0
	if neg {
		v = -v
	}
	if v > 999 {
		v = 999
	}

	var c cells
	hundreds, tens := v/100, v/10%10
	if hundreds != 0 {
		c[0] = glyph.DigitSegments(hundreds)
	}
	if hundreds != 0 || tens != 0 {
		c[1] = glyph.DigitSegments(tens)
	}
	c[2] = glyph.DigitSegments(v % 10)
	c[3] = glyph.Segments(unit)
	if neg {
		c[0] = glyph.Segments(glyph.Minus)
	}
	return c
}
