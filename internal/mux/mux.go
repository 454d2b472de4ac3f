// Package mux scans a display frame out to the hardware one phase at a time.
//
// A scan has twelve phases: four digit phases followed by eight LED lane
// phases. Brightness is set by skipping whole scans: with dim level L
// (0..MaxLevel) only 10-L of every ten scans are driven, the rest are held
// blank.
//
// Tick is the timer context. It must be called from a single goroutine,
// never blocks and never allocates. The main loop talks to it only through
// SetFrame, SetLevel, MarkSecond and SubTicks.
package mux

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sweeney/segment-clock/internal/display"
)

// Scan geometry.
const (
	NumPhases  = display.NumDigits + display.NumLanes
	MaxLevel   = 9
	dimPeriod  = MaxLevel + 1
	maxSubTick = 1 << 30
)

// TicksPerSecond is the default tick rate.
const TicksPerSecond = 1500

// DefaultPeriod is the tick period for TicksPerSecond.
const DefaultPeriod = time.Second / TicksPerSecond

// Driver puts one phase on the output lines. Each call replaces whatever
// the previous call showed.
type Driver interface {
	// ShowDigit drives the segment lines with segments and selects digit idx.
	ShowDigit(idx int, segments byte)

	// ShowLane drives the LED lines with bits and selects lane.
	ShowLane(lane int, bits byte)

	// Blank deselects every digit and lane.
	Blank()
}

// shared is the state the main loop and the timer both touch.
type shared struct {
	frame    display.Buffer
	level    int
	subTicks int
}

// Stats counts scan activity since start.
type Stats struct {
	Ticks        uint64
	Scans        uint64
	DrivenScans  uint64
	BlankedTicks uint64
}

// DutyCycle returns the fraction of completed scans that were driven.
func (s Stats) DutyCycle() float64 {
	if s.Scans == 0 {
		return 0
	}
	return float64(s.DrivenScans) / float64(s.Scans)
}

// Multiplexer owns the scan state.
type Multiplexer struct {
	drv    Driver
	shared Cell[shared]
	hooks  []func()

	// Owned by the timer context.
	phase      int
	dimCounter int
	driving    bool

	ticks, scans, driven, blanked atomic.Uint64
}

// New returns a Multiplexer writing to drv at full brightness.
func New(drv Driver) *Multiplexer {
	return &Multiplexer{drv: drv, driving: true}
}

// OnTick registers fn to run in the timer context after every phase.
// Hooks must be registered before the first Tick and must be short.
func (m *Multiplexer) OnTick(fn func()) {
	m.hooks = append(m.hooks, fn)
}

// SetFrame replaces the frame being scanned. A scan in progress picks up
// the new cells from its next phase.
func (m *Multiplexer) SetFrame(b display.Buffer) {
	m.shared.With(func(s *shared) { s.frame = b })
}

// Frame returns the frame being scanned.
func (m *Multiplexer) Frame() display.Buffer {
	return m.shared.Load().frame
}

// SetLevel sets the dim level, clamped to 0..MaxLevel.
func (m *Multiplexer) SetLevel(level int) {
	if level < 0 {
		level = 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	m.shared.With(func(s *shared) { s.level = level })
}

// Level returns the dim level.
func (m *Multiplexer) Level() int {
	return m.shared.Load().level
}

// MarkSecond restarts the sub-second tick counter. The main loop calls it
// once whenever the wall-clock second changes.
func (m *Multiplexer) MarkSecond() {
	m.shared.With(func(s *shared) { s.subTicks = 0 })
}

// SubTicks returns the ticks since the last MarkSecond.
func (m *Multiplexer) SubTicks() int {
	return m.shared.Load().subTicks
}

// Tick runs one phase.
func (m *Multiplexer) Tick() {
	var (
		level int
		cell  byte
	)
	phase := m.phase
	m.shared.With(func(s *shared) {
		if s.subTicks < maxSubTick {
			s.subTicks++
		}
		level = s.level
		if phase < display.NumDigits {
			cell = s.frame.Digits[phase]
		} else {
			cell = s.frame.Lanes[phase-display.NumDigits]
		}
	})

	if phase == 0 {
		m.driving = m.dimCounter < dimPeriod-level
	}

	switch {
	case !m.driving:
		m.drv.Blank()
		m.blanked.Add(1)
	case phase < display.NumDigits:
		m.drv.ShowDigit(phase, cell)
	default:
		m.drv.ShowLane(phase-display.NumDigits, cell)
	}

	m.phase++
	if m.phase == NumPhases {
		m.phase = 0
		m.scans.Add(1)
		if m.driving {
			m.driven.Add(1)
		}
		m.dimCounter++
		if m.dimCounter >= dimPeriod {
			m.dimCounter = 0
		}
	}
	m.ticks.Add(1)

	for _, fn := range m.hooks {
		fn()
	}
}

// Stats returns the scan counters.
func (m *Multiplexer) Stats() Stats {
	return Stats{
		Ticks:        m.ticks.Load(),
		Scans:        m.scans.Load(),
		DrivenScans:  m.driven.Load(),
		BlankedTicks: m.blanked.Load(),
	}
}

// Run calls Tick every period until ctx is done, then blanks the display.
func (m *Multiplexer) Run(ctx context.Context, period time.Duration) error {
	if period <= 0 {
		period = DefaultPeriod
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.drv.Blank()
			return nil
		case <-ticker.C:
			m.Tick()
		}
	}
}
