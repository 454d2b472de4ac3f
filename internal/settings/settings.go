// Package settings loads and stores the clock's persisted configuration.
//
// The store is split into checksum groups. Each group is a run of one-byte
// fields followed by a checksum byte holding the byte sum of the fields. A
// group whose checksum does not match, or whose fields are out of range, is
// replaced by its defaults and rewritten.
package settings

import (
	"errors"
	"fmt"

	"github.com/sweeney/segment-clock/internal/calendar"
	"github.com/sweeney/segment-clock/internal/eeprom"
)

// Ranges for the selectable indexes.
const (
	MaxSecMode = 15
	MaxDimMode = 9
)

// Params are the display preferences.
type Params struct {
	USMode  bool // 12-hour clock, month-first dates, Fahrenheit
	Swing   bool // auto-cycle the early viewing modes
	SecMode int  // seconds animation, 0..MaxSecMode
	DimMode int  // dimming profile, 0..MaxDimMode (MaxDimMode = by time of day)
}

// Alarm is the daily alarm.
type Alarm struct {
	Hour    int
	Minute  int
	Enabled bool
}

// Settings is everything kept in the store.
type Settings struct {
	Params  Params
	Alarm   Alarm
	RefDate calendar.Date
}

// Defaults returns the compiled-in settings used for any corrupt group.
func Defaults() Settings {
	return Settings{
		Params:  DefaultParams(),
		Alarm:   DefaultAlarm(),
		RefDate: DefaultRefDate(),
	}
}

// DefaultParams returns the default display preferences.
func DefaultParams() Params {
	return Params{USMode: false, Swing: false, SecMode: 1, DimMode: 0}
}

// DefaultAlarm returns the default alarm, 06:30 and disabled.
func DefaultAlarm() Alarm {
	return Alarm{Hour: 6, Minute: 30, Enabled: false}
}

// DefaultRefDate returns the default reference date for the day counter.
func DefaultRefDate() calendar.Date {
	return calendar.Date{Year: 2018, Month: 4, Day: 18}
}

// Store layout. Each group is followed directly by its checksum.
const (
	addrParams  = 0 // USMode, Swing, SecMode, DimMode, CRC
	addrAlarm   = 5 // Minute, Hour, Enabled, CRC
	addrRefDate = 9 // Day, Month, Year-2000, CRC
)

// Field selects individual params for StoreParams.
type Field uint8

// Param fields.
const (
	FieldUSMode Field = 1 << iota
	FieldSwing
	FieldSecMode
	FieldDimMode

	AllFields = FieldUSMode | FieldSwing | FieldSecMode | FieldDimMode
)

// Report describes which groups were replaced by defaults during Load.
type Report struct {
	ParamsReset  bool
	AlarmReset   bool
	RefDateReset bool
}

// Any reports whether any group was reset.
func (r Report) Any() bool {
	return r.ParamsReset || r.AlarmReset || r.RefDateReset
}

// Checksum returns the additive checksum of fields.
func Checksum(fields []byte) byte {
	var sum byte
	for _, b := range fields {
		sum += b
	}
	return sum
}

// Load reads every group from store. Corrupt groups are replaced by their
// defaults and rewritten with a correct checksum. A read failure counts as
// corruption. The returned error is non-nil only if a rewrite failed; the
// returned settings are usable either way.
func Load(store eeprom.Store) (Settings, Report, error) {
	var (
		s    Settings
		rep  Report
		errs []error
	)

	if f, ok := readGroup(store, addrParams, 4); ok && paramsValid(f) {
		s.Params = Params{USMode: f[0] == 1, Swing: f[1] == 1, SecMode: int(f[2]), DimMode: int(f[3])}
	} else {
		rep.ParamsReset = true
		s.Params = DefaultParams()
		if err := StoreParams(store, s.Params, AllFields); err != nil {
			errs = append(errs, err)
		}
	}

	if f, ok := readGroup(store, addrAlarm, 3); ok && alarmValid(f) {
		s.Alarm = Alarm{Minute: int(f[0]), Hour: int(f[1]), Enabled: f[2] == 1}
	} else {
		rep.AlarmReset = true
		s.Alarm = DefaultAlarm()
		if err := StoreAlarm(store, s.Alarm); err != nil {
			errs = append(errs, err)
		}
	}

	if f, ok := readGroup(store, addrRefDate, 3); ok && refDateValid(f) {
		s.RefDate = calendar.Date{Day: int(f[0]), Month: int(f[1]), Year: 2000 + int(f[2])}
	} else {
		rep.RefDateReset = true
		s.RefDate = DefaultRefDate()
		if err := StoreRefDate(store, s.RefDate); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return s, rep, fmt.Errorf("rewrite defaults: %w", errors.Join(errs...))
	}
	return s, rep, nil
}

// readGroup returns the n fields at base and whether their checksum matches.
func readGroup(store eeprom.Store, base, n int) ([]byte, bool) {
	fields := make([]byte, n)
	for i := range fields {
		b, err := store.ReadCell(base + i)
		if err != nil {
			return nil, false
		}
		fields[i] = b
	}
	crc, err := store.ReadCell(base + n)
	if err != nil {
		return nil, false
	}
	return fields, Checksum(fields) == crc
}

func writeGroup(store eeprom.Store, base int, fields []byte) error {
	for i, b := range fields {
		if err := store.WriteCell(base+i, b); err != nil {
			return fmt.Errorf("write cell %d: %w", base+i, err)
		}
	}
	if err := store.WriteCell(base+len(fields), Checksum(fields)); err != nil {
		return fmt.Errorf("write checksum %d: %w", base+len(fields), err)
	}
	return nil
}

func paramsValid(f []byte) bool {
	return f[0] <= 1 && f[1] <= 1 && f[2] <= MaxSecMode && f[3] <= MaxDimMode
}

func alarmValid(f []byte) bool {
	return f[0] <= 59 && f[1] <= 23 && f[2] <= 1
}

func refDateValid(f []byte) bool {
	day, month, year := int(f[0]), int(f[1]), 2000+int(f[2])
	if f[2] > 99 || month < 1 || month > 12 {
		return false
	}
	return day >= 1 && day <= calendar.DaysInMonth(month, year)
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

func (p Params) fields() []byte {
	return []byte{boolByte(p.USMode), boolByte(p.Swing), byte(p.SecMode), byte(p.DimMode)}
}

// StoreParams writes the fields selected by mask, then the checksum of all
// four values in p.
func StoreParams(store eeprom.Store, p Params, mask Field) error {
	f := p.fields()
	for i, field := range []Field{FieldUSMode, FieldSwing, FieldSecMode, FieldDimMode} {
		if mask&field == 0 {
			continue
		}
		if err := store.WriteCell(addrParams+i, f[i]); err != nil {
			return fmt.Errorf("store params: write cell %d: %w", addrParams+i, err)
		}
	}
	if err := store.WriteCell(addrParams+len(f), Checksum(f)); err != nil {
		return fmt.Errorf("store params checksum: %w", err)
	}
	return nil
}

// StoreAlarm writes the alarm group.
func StoreAlarm(store eeprom.Store, a Alarm) error {
	if err := writeGroup(store, addrAlarm, []byte{byte(a.Minute), byte(a.Hour), boolByte(a.Enabled)}); err != nil {
		return fmt.Errorf("store alarm: %w", err)
	}
	return nil
}

// StoreRefDate writes the reference date group. Years outside 2000..2099
// are rejected.
func StoreRefDate(store eeprom.Store, d calendar.Date) error {
	if d.Year < 2000 || d.Year > 2099 {
		return fmt.Errorf("store ref date: year %d out of range", d.Year)
	}
	if err := writeGroup(store, addrRefDate, []byte{byte(d.Day), byte(d.Month), byte(d.Year - 2000)}); err != nil {
		return fmt.Errorf("store ref date: %w", err)
	}
	return nil
}
