// Package clock is the control core of the segment clock: the mode machine
// driven by the SELECT and SET buttons, the rendering of each mode onto the
// display frame, and the alarm, countdown and target-hit scheduling.
//
// The core runs in two contexts. The main loop calls Step once per pass and
// owns almost all state. The timer context (TimerTick) and the pulse edge
// handler (OnPulseEdge) touch only the small interrupt state held in a
// mux.Cell, and only for a few field updates at a time.
//
// The package does no I/O of its own. Hardware is reached through the RTC,
// Thermometer, Buzzer, Output and eeprom.Store collaborators.
package clock

import (
	"time"

	"github.com/sweeney/segment-clock/internal/calendar"
	"github.com/sweeney/segment-clock/internal/display"
	"github.com/sweeney/segment-clock/internal/eeprom"
	"github.com/sweeney/segment-clock/internal/mux"
	"github.com/sweeney/segment-clock/internal/settings"
)

// RTC is the realtime clock.
type RTC interface {
	ReadTime() (calendar.CalendarTime, error)
	WriteTime(t calendar.CalendarTime) error
}

// Thermometer reads temperature sensors. Readings are encoded as one byte:
// 0..100 are degrees Celsius, 101..127 are negative with value 128-encoded.
type Thermometer interface {
	Enumerate() ([]string, error)
	ReadTemperature(id string) (byte, error)
}

// Buzzer sounds one short beep. Beep blocks for the length of the beep.
type Buzzer interface {
	Beep()
}

// Output is the multiplexer as seen from the main loop.
type Output interface {
	SetFrame(b display.Buffer)
	SetLevel(level int)
	MarkSecond()
	SubTicks() int
}

// Keys is one poll of the two buttons. SELECT wins if both are down.
type Keys struct {
	Select bool
	Set    bool
}

// PulseFunction selects what the pulse line does.
type PulseFunction int

// Pulse line functions.
const (
	PulseOff PulseFunction = iota
	PulseTarget
	PulseCountdown
)

// countdownReady is the debounce counter value below which a countdown edge
// is accepted.
const countdownReady = 5

// Options tunes the device. Counts named Passes are main-loop passes; counts
// named Ticks are timer ticks.
type Options struct {
	PulseFunction PulseFunction

	// TempCorrection is subtracted from every reading, in degrees Celsius.
	TempCorrection int

	// RingBeepLimit is the number of beeps after which a ringing alarm
	// silences itself.
	RingBeepLimit int

	SettingTimeoutPasses int
	ViewTimeoutPasses    int
	KeyHoldoffPasses     int

	TicksPerSecond         int
	PeakWindowTicks        int
	FlashTicks             int
	HitRevertTicks         int
	CountdownDebounceTicks int
}

// DefaultOptions returns options for a 10ms main loop and the default
// timer rate.
func DefaultOptions() Options {
	return Options{
		PulseFunction:          PulseTarget,
		TempCorrection:         3,
		RingBeepLimit:          2900,
		SettingTimeoutPasses:   3000,
		ViewTimeoutPasses:      400,
		KeyHoldoffPasses:       25,
		TicksPerSecond:         mux.TicksPerSecond,
		PeakWindowTicks:        7,
		FlashTicks:             3 * mux.TicksPerSecond,
		HitRevertTicks:         45 * mux.TicksPerSecond,
		CountdownDebounceTicks: 1000,
	}
}

// interruptState is shared with the timer and edge contexts.
type interruptState struct {
	pulse             PulseDetector
	pendingHits       int
	sinceHit          int
	countdownDebounce int
	countdownPresses  int
}

const maxSinceHit = 1 << 30

type hitPhase int

const (
	hitIdle hitPhase = iota
	hitFresh
	hitFlashing
)

type alarmState struct {
	ringing bool
	beeps   int
	lastKey int
}

type countdownState struct {
	running bool
	target  calendar.CalendarTime
}

type tempReading struct {
	value int
	ok    bool
	stale bool
}

// Device is the whole clock state.
type Device struct {
	opts   Options
	rtc    RTC
	therm  Thermometer
	buzzer Buzzer
	store  eeprom.Store
	out    Output
	anim   *display.Animator

	irq mux.Cell[interruptState]

	mode     Mode
	prevMode Mode
	now      calendar.CalendarTime
	rtcOK    bool

	settings    settings.Settings
	editTime    calendar.CalendarTime
	editAlarm   settings.Alarm
	editParams  settings.Params
	editingPrms bool

	timeout int
	hold    int
	holdoff int
	level   int

	lastSecond  int
	swingSecond int

	alarm     alarmState
	countdown countdownState
	hitCount  int
	hitPhase  hitPhase

	sensors   []string
	tempIndex int
	temp      tempReading
	dayDiff   int

	frame  display.Buffer
	events []Event
	stamp  time.Time
}

// New returns a Device showing the clock. Call Boot before the first Step.
// therm may be nil when no sensors are fitted.
func New(opts Options, rtc RTC, therm Thermometer, buzzer Buzzer, store eeprom.Store, out Output) *Device {
	d := &Device{
		opts:        opts,
		rtc:         rtc,
		therm:       therm,
		buzzer:      buzzer,
		store:       store,
		out:         out,
		anim:        display.NewAnimator(),
		mode:        ModeClock,
		prevMode:    ModeClock,
		settings:    settings.Defaults(),
		level:       -1,
		lastSecond:  -1,
		swingSecond: -1,
		alarm:       alarmState{lastKey: -1},
	}
	d.irq.With(func(s *interruptState) {
		s.pulse.Window = opts.PeakWindowTicks
	})
	return d
}

// TimerTick runs in the timer context once per multiplexer tick.
func (d *Device) TimerTick() {
	d.irq.With(func(s *interruptState) {
		s.pulse.Age()
		if s.sinceHit < maxSinceHit {
			s.sinceHit++
		}
		if s.countdownDebounce >= countdownReady {
			s.countdownDebounce--
		}
	})
}

// OnPulseEdge runs in the edge context for every falling edge on the pulse
// line.
func (d *Device) OnPulseEdge() {
	d.irq.With(func(s *interruptState) {
		switch d.opts.PulseFunction {
		case PulseTarget:
			if s.pulse.Edge() {
				s.pendingHits++
				s.sinceHit = 0
			}
		case PulseCountdown:
			if s.countdownDebounce < countdownReady {
				s.countdownDebounce = d.opts.CountdownDebounceTicks
				s.countdownPresses++
			}
		}
	})
}

// Mode returns the active mode.
func (d *Device) Mode() Mode {
	return d.mode
}

// Settings returns the persisted settings as last loaded or saved.
func (d *Device) Settings() settings.Settings {
	return d.settings
}

// params returns the display preferences in effect, including an unsaved
// animation or dimming choice being previewed.
func (d *Device) params() settings.Params {
	if d.editingPrms {
		return d.editParams
	}
	return d.settings.Params
}

func (d *Device) setMode(m Mode) {
	d.mode = m
	switch {
	case m == ModeDate || m == ModeYear || m == ModeSensors:
		d.timeout = d.opts.ViewTimeoutPasses
	case m == ModeCountdown || m.IsSetting():
		d.timeout = d.opts.SettingTimeoutPasses
	}
	if m == ModeTemperature {
		d.temp.stale = true
	}
}

// returnToClock drops any uncommitted edit and shows the clock.
func (d *Device) returnToClock() {
	d.editingPrms = false
	d.tempIndex = 0
	d.hold = 0
	d.setMode(ModeClock)
	d.applyDim()
}

func (d *Device) beep(n int) {
	if d.buzzer == nil {
		return
	}
	for i := 0; i < n; i++ {
		d.buzzer.Beep()
	}
}

// applyDim pushes the dim level for the current dimming profile.
func (d *Device) applyDim() {
	level := DimLevel(d.params().DimMode, d.now.Hour)
	if level != d.level {
		d.level = level
		d.out.SetLevel(level)
	}
}

// DimLevel returns the multiplexer dim level for dimming profile dimMode at
// hour. Profile 9 follows the time of day; the others are fixed levels.
func DimLevel(dimMode, hour int) int {
	if dimMode != settings.MaxDimMode {
		return dimMode
	}
	switch {
	case hour > 19 || hour < 7:
		return 5
	case hour < 9:
		return 3
	case hour < 18:
		return 0
	default:
		return 3
	}
}

func wrapInc(v, lo, hi int) int {
	v++
	if v > hi || v < lo {
		return lo
	}
	return v
}
