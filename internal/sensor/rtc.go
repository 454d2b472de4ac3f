package sensor

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"

	"github.com/sweeney/segment-clock/internal/calendar"
)

// DS1307Addr is the fixed bus address of the DS1307.
const DS1307Addr = 0x68

// ErrClockHalted is returned when the DS1307 oscillator is stopped, which
// is how it comes up after losing its backup battery.
var ErrClockHalted = errors.New("sensor: rtc oscillator halted")

const (
	regSeconds = 0x00
	haltBit    = 0x80
	hour12Bit  = 0x40
)

// DS1307 is the battery-backed realtime clock.
type DS1307 struct {
	dev *i2c.Dev
}

// NewDS1307 returns the RTC on bus.
func NewDS1307(bus i2c.Bus) *DS1307 {
	return &DS1307{dev: &i2c.Dev{Addr: DS1307Addr, Bus: bus}}
}

// ReadTime reads the seven time registers.
func (r *DS1307) ReadTime() (calendar.CalendarTime, error) {
	var regs [7]byte
	if err := r.dev.Tx([]byte{regSeconds}, regs[:]); err != nil {
		return calendar.CalendarTime{}, fmt.Errorf("read ds1307: %w", err)
	}
	if regs[0]&haltBit != 0 {
		return calendar.CalendarTime{}, ErrClockHalted
	}

	t := calendar.CalendarTime{
		Second:  fromBCD(regs[0] &^ haltBit),
		Minute:  fromBCD(regs[1]),
		Weekday: fromBCD(regs[3]) - 1,
		Day:     fromBCD(regs[4]),
		Month:   fromBCD(regs[5]),
		Year:    fromBCD(regs[6]),
	}
	if regs[2]&hour12Bit != 0 {
		h := fromBCD(regs[2] & 0x1F)
		if h == 12 {
			h = 0
		}
		if regs[2]&0x20 != 0 {
			h += 12
		}
		t.Hour = h
	} else {
		t.Hour = fromBCD(regs[2] & 0x3F)
	}
	return t, nil
}

// WriteTime sets the clock and starts the oscillator. The hour is stored in
// 24-hour form.
func (r *DS1307) WriteTime(t calendar.CalendarTime) error {
	if !t.Valid() {
		return fmt.Errorf("write ds1307: invalid time %s", t)
	}
	w := []byte{
		regSeconds,
		toBCD(t.Second),
		toBCD(t.Minute),
		toBCD(t.Hour),
		toBCD(t.Weekday + 1),
		toBCD(t.Day),
		toBCD(t.Month),
		toBCD(t.Year),
	}
	if err := r.dev.Tx(w, nil); err != nil {
		return fmt.Errorf("write ds1307: %w", err)
	}
	return nil
}

// SystemRTC reads the host clock. Writes are kept as an offset from the host
// clock so setting the time never needs privileges.
type SystemRTC struct {
	now func() time.Time
	loc *time.Location

	mu     sync.Mutex
	offset time.Duration
}

// NewSystemRTC returns an RTC following now in loc. A nil loc means
// time.Local.
func NewSystemRTC(now func() time.Time, loc *time.Location) *SystemRTC {
	if loc == nil {
		loc = time.Local
	}
	return &SystemRTC{now: now, loc: loc}
}

// ReadTime returns the host time plus the offset.
func (s *SystemRTC) ReadTime() (calendar.CalendarTime, error) {
	s.mu.Lock()
	off := s.offset
	s.mu.Unlock()
	return calendar.FromTime(s.now().In(s.loc).Add(off)), nil
}

// WriteTime records t as the new current time.
func (s *SystemRTC) WriteTime(t calendar.CalendarTime) error {
	if !t.Valid() {
		return fmt.Errorf("write system rtc: invalid time %s", t)
	}
	now := s.now().In(s.loc)
	s.mu.Lock()
	s.offset = t.Time(s.loc).Sub(now.Truncate(time.Second))
	s.mu.Unlock()
	return nil
}

// Offset returns the difference between the set time and the host clock.
func (s *SystemRTC) Offset() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}
