package sensor

import (
	"sync"

	"github.com/sweeney/segment-clock/internal/calendar"
)

// FakeRTC is a settable clock for tests and for running without hardware.
type FakeRTC struct {
	mu     sync.Mutex
	now    calendar.CalendarTime
	err    error
	writes []calendar.CalendarTime
}

// NewFakeRTC returns a FakeRTC reading t.
func NewFakeRTC(t calendar.CalendarTime) *FakeRTC {
	return &FakeRTC{now: t}
}

// ReadTime returns the current fake time, or the injected error.
func (f *FakeRTC) ReadTime() (calendar.CalendarTime, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return calendar.CalendarTime{}, f.err
	}
	return f.now, nil
}

// WriteTime records t and makes it the current time.
func (f *FakeRTC) WriteTime(t calendar.CalendarTime) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.writes = append(f.writes, t)
	f.now = t
	return nil
}

// Set changes the current time.
func (f *FakeRTC) Set(t calendar.CalendarTime) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

// SetError makes every later call fail with err. nil clears it.
func (f *FakeRTC) SetError(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// Writes returns every time written so far.
func (f *FakeRTC) Writes() []calendar.CalendarTime {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]calendar.CalendarTime(nil), f.writes...)
}

// FakeThermometer serves fixed encoded readings.
type FakeThermometer struct {
	mu    sync.Mutex
	ids   []string
	temps map[string]byte
	errs  map[string]error
}

// NewFakeThermometer returns a thermometer with the given readings. The
// ids are enumerated in the order given.
func NewFakeThermometer(ids []string, temps map[string]byte) *FakeThermometer {
	if temps == nil {
		temps = make(map[string]byte)
	}
	return &FakeThermometer{ids: ids, temps: temps, errs: make(map[string]error)}
}

// Enumerate returns the configured ids.
func (f *FakeThermometer) Enumerate() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ids...), nil
}

// ReadTemperature returns the reading for id.
func (f *FakeThermometer) ReadTemperature(id string) (byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[id]; err != nil {
		return 0, err
	}
	v, ok := f.temps[id]
	if !ok {
		return 0, ErrNoDevice
	}
	return v, nil
}

// Set changes the reading for id.
func (f *FakeThermometer) Set(id string, enc byte) {
	f.mu.Lock()
	f.temps[id] = enc
	f.mu.Unlock()
}

// SetError makes reads of id fail. nil clears it.
func (f *FakeThermometer) SetError(id string, err error) {
	f.mu.Lock()
	f.errs[id] = err
	f.mu.Unlock()
}
