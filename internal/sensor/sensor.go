// Package sensor provides the clock's realtime clock and temperature
// collaborators: a DS1307 RTC and MCP9808 thermometers on the I²C bus, a
// system-clock RTC for boards without one, and fakes for tests.
package sensor

import (
	"errors"
	"fmt"
	"math"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// ErrNoDevice is returned when a device does not answer on the bus.
var ErrNoDevice = errors.New("sensor: no device")

// OpenBus initialises the host drivers and opens the named I²C bus. An
// empty name opens the first bus found.
func OpenBus(name string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", name, err)
	}
	return bus, nil
}

// Temperature byte encoding: 0..100 are whole degrees Celsius, 101..127
// are negative with value 128-encoded.
const (
	maxEncoded = 100
	minCelsius = -27
)

// EncodeCelsius rounds c to whole degrees and encodes it, clamping to the
// representable range.
func EncodeCelsius(c float64) byte {
	v := int(math.Round(c))
	switch {
	case v > maxEncoded:
		return maxEncoded
	case v >= 0:
		return byte(v)
	case v < minCelsius:
		v = minCelsius
	}
	return byte(128 + v)
}

func toBCD(v int) byte {
	return byte(v/10<<4 | v%10)
}

func fromBCD(b byte) int {
	return int(b>>4)*10 + int(b&0x0F)
}
