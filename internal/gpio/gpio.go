// Package gpio connects the clock to its hardware lines: the SELECT and SET
// buttons, the buzzer, the display drive lines and the pulse input.
// The real implementation uses the Linux GPIO character device.
// The fakes allow testing without hardware.
package gpio

import (
	"errors"
	"time"
)

// ErrUnsupported is returned where the GPIO character device is unavailable.
var ErrUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// Buttons reads the two front-panel buttons.
type Buttons interface {
	// Read returns whether SELECT and SET are held down. The raw lines are
	// active-low: raw 0 = pressed.
	Read() (selectDown, setDown bool, err error)

	// Close releases GPIO resources.
	Close() error
}

// PulseLine delivers falling edges from the pulse input.
type PulseLine interface {
	// Watch calls fn for every falling edge until Close. fn runs on the
	// event goroutine and must not block.
	Watch(fn func()) error
	Close() error
}

// Pins is the BCM line numbering of the board.
type Pins struct {
	Select int
	Set    int
	Buzzer int
	Pulse  int

	// Data carries the segment bits a..g, dot for digit phases and the
	// LED bits for lane phases.
	Data   [8]int
	Digits [4]int
	Lanes  [8]int
}

// DefaultPins is the reference wiring.
func DefaultPins() Pins {
	return Pins{
		Select: 5,
		Set:    6,
		Buzzer: 13,
		Pulse:  19,
		Data:   [8]int{2, 3, 4, 17, 27, 22, 10, 9},
		Digits: [4]int{11, 0, 1, 7},
		Lanes:  [8]int{8, 25, 24, 23, 18, 15, 14, 12},
	}
}

// Number of display drive lines: data, digit selects, lane selects.
const displayLines = 8 + 4 + 8

// displayOffsets lists the drive lines in the order displayValues fills them.
func (p Pins) displayOffsets() []int {
	out := make([]int, 0, displayLines)
	out = append(out, p.Data[:]...)
	out = append(out, p.Digits[:]...)
	return append(out, p.Lanes[:]...)
}

// Beep timing.
const (
	BeepOn  = 150 * time.Millisecond
	BeepOff = 150 * time.Millisecond
)

// displayValues fills dst with line values for one phase: data is put on
// the data lines and only the digit select digit (or lane select lane) is
// raised. Pass -1 to select neither. dst must hold displayLines entries.
func displayValues(dst []int, data byte, digit, lane int) {
	for i := 0; i < 8; i++ {
		dst[i] = int(data>>uint(i)) & 1
	}
	for i := 0; i < 4; i++ {
		dst[8+i] = boolInt(i == digit)
	}
	for i := 0; i < 8; i++ {
		dst[12+i] = boolInt(i == lane)
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
