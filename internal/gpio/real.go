//go:build linux

package gpio

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// Board drives the clock hardware through the Linux GPIO character device.
type Board struct {
	chip    *gpiocdev.Chip
	buttons *gpiocdev.Lines
	buzzer  *gpiocdev.Line
	display *gpiocdev.Lines
	pulse   *gpiocdev.Line
	pins    Pins

	// vals is reused by every display phase. Only the multiplexer
	// goroutine touches it.
	vals      []int
	driveErrs atomic.Uint64
}

// NewBoard opens chipName and requests the button, buzzer and display lines.
// The pulse line is requested by Watch.
func NewBoard(chipName string, pins Pins) (*Board, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	b := &Board{chip: chip, pins: pins, vals: make([]int, displayLines)}

	// Buttons pull up and short to ground when pressed.
	b.buttons, err = chip.RequestLines([]int{pins.Select, pins.Set},
		gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.WithDebounce(5*time.Millisecond))
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("request button pins %d,%d: %w", pins.Select, pins.Set, err)
	}

	b.buzzer, err = chip.RequestLine(pins.Buzzer, gpiocdev.AsOutput(0))
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("request buzzer pin %d: %w", pins.Buzzer, err)
	}

	b.display, err = chip.RequestLines(pins.displayOffsets(), gpiocdev.AsOutput(b.vals...))
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("request display pins: %w", err)
	}

	return b, nil
}

// Read returns the logical button states.
// Inverts raw GPIO: raw inactive (0) = pressed.
func (b *Board) Read() (bool, bool, error) {
	var vals [2]int
	if err := b.buttons.Values(vals[:]); err != nil {
		return false, false, fmt.Errorf("read buttons: %w", err)
	}
	return vals[0] == 0, vals[1] == 0, nil
}

// Beep sounds the buzzer once. It blocks for BeepOn+BeepOff.
func (b *Board) Beep() {
	if err := b.buzzer.SetValue(1); err != nil {
		b.driveErrs.Add(1)
	}
	time.Sleep(BeepOn)
	if err := b.buzzer.SetValue(0); err != nil {
		b.driveErrs.Add(1)
	}
	time.Sleep(BeepOff)
}

// ShowDigit drives one digit cell.
func (b *Board) ShowDigit(idx int, segments byte) {
	b.drive(segments, idx, -1)
}

// ShowLane drives one LED lane.
func (b *Board) ShowLane(lane int, bits byte) {
	b.drive(bits, -1, lane)
}

// Blank turns every drive line off.
func (b *Board) Blank() {
	b.drive(0, -1, -1)
}

func (b *Board) drive(data byte, digit, lane int) {
	displayValues(b.vals, data, digit, lane)
	if err := b.display.SetValues(b.vals); err != nil {
		b.driveErrs.Add(1)
	}
}

// DriveErrors returns the number of failed line writes since NewBoard.
func (b *Board) DriveErrors() uint64 {
	return b.driveErrs.Load()
}

// Watch requests the pulse line with falling-edge detection and calls fn for
// every edge. The line is pulled up; the sensor pulls it low.
func (b *Board) Watch(fn func()) error {
	line, err := b.chip.RequestLine(b.pins.Pulse,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) { fn() }))
	if err != nil {
		return fmt.Errorf("request pulse pin %d: %w", b.pins.Pulse, err)
	}
	b.pulse = line
	return nil
}

// Close releases GPIO resources.
// Outputs are driven low and every line is returned to an input with
// pull-down (matching Pi boot defaults) before closing.
func (b *Board) Close() error {
	var errs []error

	if b.pulse != nil {
		if err := b.pulse.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pulse pin: %w", err))
		}
	}
	if b.display != nil {
		displayValues(b.vals, 0, -1, -1)
		if err := b.display.SetValues(b.vals); err != nil {
			errs = append(errs, fmt.Errorf("blank display: %w", err))
		}
		if err := b.display.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure display pins: %w", err))
		}
		if err := b.display.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close display pins: %w", err))
		}
	}
	if b.buzzer != nil {
		if err := b.buzzer.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure buzzer pin: %w", err))
		}
		if err := b.buzzer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close buzzer pin: %w", err))
		}
	}
	if b.buttons != nil {
		if err := b.buttons.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button pins: %w", err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
