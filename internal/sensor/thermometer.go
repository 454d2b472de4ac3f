package sensor

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/mcp9808"
)

// MCP9808 address range selectable by the A0..A2 pins.
const (
	MCP9808First = 0x18
	MCP9808Last  = 0x1F
)

type senser interface {
	Sense(e *physic.Env) error
}

// Thermometers is the set of MCP9808 sensors found on the bus.
type Thermometers struct {
	mu   sync.Mutex
	ids  []string
	devs map[string]senser
}

// ProbeMCP9808 looks for sensors at every MCP9808 address and keeps up to
// limit of them. Finding none is not an error.
func ProbeMCP9808(bus i2c.Bus, limit int) *Thermometers {
	t := &Thermometers{devs: make(map[string]senser)}
	for addr := MCP9808First; addr <= MCP9808Last && len(t.ids) < limit; addr++ {
		dev, err := mcp9808.New(bus, &mcp9808.Opts{Addr: addr, Res: mcp9808.High})
		if err != nil {
			continue
		}
		t.add(fmt.Sprintf("mcp9808@%#02x", addr), dev)
	}
	return t
}

func (t *Thermometers) add(id string, dev senser) {
	t.ids = append(t.ids, id)
	t.devs[id] = dev
}

// Enumerate returns the sensor ids in address order.
func (t *Thermometers) Enumerate() ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.ids...), nil
}

// ReadTemperature reads sensor id and returns the encoded reading.
func (t *Thermometers) ReadTemperature(id string) (byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	dev, ok := t.devs[id]
	if !ok {
		return 0, fmt.Errorf("read %s: %w", id, ErrNoDevice)
	}
	var env physic.Env
	if err := dev.Sense(&env); err != nil {
		return 0, fmt.Errorf("read %s: %w", id, err)
	}
	return EncodeCelsius(env.Temperature.Celsius()), nil
}
