package settings

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/segment-clock/internal/calendar"
	"github.com/sweeney/segment-clock/internal/eeprom"
)

func cell(t *testing.T, s eeprom.Store, addr int) byte {
	t.Helper()
	b, err := s.ReadCell(addr)
	require.NoError(t, err)
	return b
}

func TestLoadErasedStoreYieldsDefaultsAndRewrites(t *testing.T) {
	store := eeprom.NewMemStore()

	s, rep, err := Load(store)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
	assert.True(t, rep.ParamsReset)
	assert.True(t, rep.AlarmReset)
	assert.True(t, rep.RefDateReset)

	// Second load must find valid groups.
	s2, rep2, err := Load(store)
	require.NoError(t, err)
	assert.Equal(t, s, s2)
	assert.False(t, rep2.Any())
}

func TestLoadRoundTrip(t *testing.T) {
	store := eeprom.NewMemStore()
	want := Settings{
		Params:  Params{USMode: true, Swing: true, SecMode: 14, DimMode: 9},
		Alarm:   Alarm{Hour: 23, Minute: 59, Enabled: true},
		RefDate: calendar.Date{Year: 2024, Month: 2, Day: 29},
	}
	require.NoError(t, StoreParams(store, want.Params, AllFields))
	require.NoError(t, StoreAlarm(store, want.Alarm))
	require.NoError(t, StoreRefDate(store, want.RefDate))

	got, rep, err := Load(store)
	require.NoError(t, err)
	assert.False(t, rep.Any())
	assert.Equal(t, want, got)
}

func TestLoadWrongChecksumPerGroup(t *testing.T) {
	tests := []struct {
		name    string
		crcAddr int
		check   func(t *testing.T, s Settings, r Report)
	}{
		{"params", addrParams + 4, func(t *testing.T, s Settings, r Report) {
			assert.True(t, r.ParamsReset)
			assert.False(t, r.AlarmReset)
			assert.Equal(t, DefaultParams(), s.Params)
			assert.Equal(t, Alarm{Hour: 7, Minute: 15, Enabled: true}, s.Alarm)
		}},
		{"alarm", addrAlarm + 3, func(t *testing.T, s Settings, r Report) {
			assert.True(t, r.AlarmReset)
			assert.False(t, r.ParamsReset)
			assert.Equal(t, DefaultAlarm(), s.Alarm)
			assert.Equal(t, 5, s.Params.SecMode)
		}},
		{"ref date", addrRefDate + 3, func(t *testing.T, s Settings, r Report) {
			assert.True(t, r.RefDateReset)
			assert.Equal(t, DefaultRefDate(), s.RefDate)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := eeprom.NewMemStore()
			require.NoError(t, StoreParams(store, Params{SecMode: 5, DimMode: 2}, AllFields))
			require.NoError(t, StoreAlarm(store, Alarm{Hour: 7, Minute: 15, Enabled: true}))
			require.NoError(t, StoreRefDate(store, calendar.Date{Year: 2020, Month: 1, Day: 1}))

			bad := cell(t, store, tt.crcAddr) + 1
			store.Poke(tt.crcAddr, bad)

			s, rep, err := Load(store)
			require.NoError(t, err)
			tt.check(t, s, rep)

			// Checksum was rewritten to match the defaults now stored.
			assert.NotEqual(t, bad, cell(t, store, tt.crcAddr))
			_, rep2, err := Load(store)
			require.NoError(t, err)
			assert.False(t, rep2.Any())
		})
	}
}

func TestLoadOutOfRangeWithMatchingChecksumIsCorrupt(t *testing.T) {
	store := eeprom.NewMemStore()
	// SecMode 40 with a valid checksum.
	fields := []byte{0, 0, 40, 0}
	for i, b := range fields {
		store.Poke(addrParams+i, b)
	}
	store.Poke(addrParams+4, Checksum(fields))

	s, rep, err := Load(store)
	require.NoError(t, err)
	assert.True(t, rep.ParamsReset)
	assert.Equal(t, DefaultParams(), s.Params)
}

func TestLoadReadErrorFallsBackToDefaults(t *testing.T) {
	store := eeprom.NewMemStore()
	store.ReadError = errors.New("i2c nack")

	s, rep, err := Load(store)
	require.NoError(t, err, "rewrite still succeeds")
	assert.True(t, rep.Any())
	assert.Equal(t, Defaults(), s)
}

func TestLoadWriteErrorIsReportedButDefaultsReturned(t *testing.T) {
	store := eeprom.NewMemStore()
	store.WriteError = errors.New("write protected")

	s, _, err := Load(store)
	assert.Error(t, err)
	assert.Equal(t, Defaults(), s)
}

func TestLoadWriteErrorKeepsCause(t *testing.T) {
	store := eeprom.NewMemStore()
	store.WriteError = fmt.Errorf("cell 3: %w", eeprom.ErrOutOfRange)

	_, rep, err := Load(store)
	require.Error(t, err)
	assert.True(t, errors.Is(err, eeprom.ErrOutOfRange))
	assert.True(t, rep.ParamsReset && rep.AlarmReset && rep.RefDateReset)
}

func TestStoreParamsMaskWritesOnlySelectedFields(t *testing.T) {
	store := eeprom.NewMemStore()
	p := Params{USMode: true, Swing: true, SecMode: 3, DimMode: 4}
	require.NoError(t, StoreParams(store, p, FieldSecMode))

	assert.Equal(t, eeprom.Erased, cell(t, store, addrParams), "USMode untouched")
	assert.Equal(t, eeprom.Erased, cell(t, store, addrParams+1), "Swing untouched")
	assert.Equal(t, byte(3), cell(t, store, addrParams+2))
	assert.Equal(t, eeprom.Erased, cell(t, store, addrParams+3), "DimMode untouched")
	assert.Equal(t, Checksum([]byte{1, 1, 3, 4}), cell(t, store, addrParams+4))
}

func TestStoreRefDateRejectsYear(t *testing.T) {
	assert.Error(t, StoreRefDate(eeprom.NewMemStore(), calendar.Date{Year: 1999, Month: 1, Day: 1}))
}

func TestChecksumWraps(t *testing.T) {
	assert.Equal(t, byte(0xFC), Checksum([]byte{0xFF, 0xFF, 0xFF, 0xFF}))
}
