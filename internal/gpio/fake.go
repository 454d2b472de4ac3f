package gpio

import (
	"errors"
	"sync"
)

// FakeButtons is a test double that returns scripted button states.
type FakeButtons struct {
	mu sync.Mutex

	// Samples contains scripted button states to return.
	// Each call to Read() consumes the next sample.
	Samples []Sample

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// Sample is a single button reading (already in logical form).
type Sample struct {
	Select bool // true = pressed
	Set    bool // true = pressed
}

// NewFakeButtons creates a FakeButtons with the given samples.
func NewFakeButtons(samples []Sample) *FakeButtons {
	return &FakeButtons{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeButtons) Read() (bool, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ReadError != nil {
		return false, false, f.ReadError
	}
	if len(f.Samples) == 0 {
		return false, false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample.Select, sample.Set, nil
}

// Push appends samples to the script.
func (f *FakeButtons) Push(samples ...Sample) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Samples = append(f.Samples, samples...)
}

// Close marks the buttons as closed.
func (f *FakeButtons) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeButtons) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.index = 0
	f.Closed = false
}

// FakeBuzzer counts beeps without sounding anything.
type FakeBuzzer struct {
	mu    sync.Mutex
	beeps int
}

// Beep records one beep.
func (f *FakeBuzzer) Beep() {
	f.mu.Lock()
	f.beeps++
	f.mu.Unlock()
}

// Beeps returns the number of beeps so far.
func (f *FakeBuzzer) Beeps() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.beeps
}

// FakeDisplay remembers the last value driven into every digit and lane.
// It is safe to read while the multiplexer goroutine drives it.
type FakeDisplay struct {
	mu     sync.Mutex
	digits [4]byte
	lanes  [8]byte
	blanks int
	phases int
}

// ShowDigit records a digit phase.
func (f *FakeDisplay) ShowDigit(idx int, segments byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if idx >= 0 && idx < len(f.digits) {
		f.digits[idx] = segments
	}
	f.phases++
}

// ShowLane records a lane phase.
func (f *FakeDisplay) ShowLane(lane int, bits byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if lane >= 0 && lane < len(f.lanes) {
		f.lanes[lane] = bits
	}
	f.phases++
}

// Blank records a blanked phase.
func (f *FakeDisplay) Blank() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blanks++
	f.phases++
}

// Shown returns the last driven digits and lanes.
func (f *FakeDisplay) Shown() ([4]byte, [8]byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.digits, f.lanes
}

// Counts returns the number of phases driven and how many of them were blank.
func (f *FakeDisplay) Counts() (phases, blanks int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phases, f.blanks
}

// FakePulse is a pulse line fired by the test.
type FakePulse struct {
	mu     sync.Mutex
	fn     func()
	Closed bool
}

// Watch registers fn.
func (f *FakePulse) Watch(fn func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fn = fn
	return nil
}

// Fire delivers n edges. It does nothing before Watch or after Close.
func (f *FakePulse) Fire(n int) {
	f.mu.Lock()
	fn := f.fn
	if f.Closed {
		fn = nil
	}
	f.mu.Unlock()
	if fn == nil {
		return
	}
	for i := 0; i < n; i++ {
		fn()
	}
}

// Close stops delivering edges.
func (f *FakePulse) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
