package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"

	"github.com/sweeney/segment-clock/internal/clock"
	"github.com/sweeney/segment-clock/internal/config"
	"github.com/sweeney/segment-clock/internal/gpio"
	"github.com/sweeney/segment-clock/internal/mux"
	"github.com/sweeney/segment-clock/internal/sensor"
)

// hardware is everything the device talks to.
type hardware struct {
	buttons gpio.Buttons
	buzzer  clock.Buzzer
	driver  mux.Driver
	pulse   gpio.PulseLine
	rtc     clock.RTC
	therm   clock.Thermometer

	closers []io.Closer
}

// Close releases every line and bus, newest first.
func (h *hardware) Close() error {
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	h.closers = nil
	return errors.Join(errs...)
}

// fakeHardware returns in-memory stand-ins: no buttons held, one
// thermometer reading 21°C and the system clock.
func fakeHardware() *hardware {
	return &hardware{
		buttons: gpio.NewFakeButtons([]gpio.Sample{{}}),
		buzzer:  &gpio.FakeBuzzer{},
		driver:  &gpio.FakeDisplay{},
		pulse:   &gpio.FakePulse{},
		rtc:     sensor.NewSystemRTC(time.Now, time.Local),
		therm: sensor.NewFakeThermometer([]string{"fake-0"}, map[string]byte{
			"fake-0": sensor.EncodeCelsius(21),
		}),
	}
}

// openHardware opens the GPIO board and the I²C devices named by cfg.
// A missing temperature bus only disables the thermometers; a missing RTC
// bus is fatal when the DS1307 is configured.
func openHardware(cfg config.Config) (*hardware, error) {
	if cfg.FakeHardware {
		logger.Info("using fake hardware")
		return fakeHardware(), nil
	}

	board, err := gpio.NewBoard(cfg.GPIOChip, cfg.Pins)
	if err != nil {
		return nil, fmt.Errorf("init gpio: %w", err)
	}
	h := &hardware{
		buttons: board,
		buzzer:  board,
		driver:  board,
		pulse:   board,
		closers: []io.Closer{board},
	}

	var bus i2c.BusCloser
	openBus := func() (i2c.Bus, error) {
		if bus != nil {
			return bus, nil
		}
		b, err := sensor.OpenBus(cfg.I2CBus)
		if err != nil {
			return nil, err
		}
		bus = b
		h.closers = append(h.closers, b)
		return b, nil
	}

	switch cfg.RTCBackend {
	case "ds1307":
		b, err := openBus()
		if err != nil {
			h.Close()
			return nil, fmt.Errorf("open rtc bus: %w", err)
		}
		h.rtc = sensor.NewDS1307(b)
	default:
		h.rtc = sensor.NewSystemRTC(time.Now, time.Local)
	}

	if cfg.MaxSensors > 0 {
		b, err := openBus()
		if err != nil {
			logger.WithError(err).Warn("i2c bus unavailable, temperature disabled")
		} else {
			h.therm = sensor.ProbeMCP9808(b, cfg.MaxSensors)
		}
	}
	return h, nil
}

// heldKeys samples the buttons once for the boot-time toggles.
func heldKeys(b gpio.Buttons) clock.Keys {
	sel, set, err := b.Read()
	if err != nil {
		logger.WithError(err).Warn("could not read buttons at boot")
		return clock.Keys{}
	}
	return clock.Keys{Select: sel, Set: set}
}

// logBoot reports what Boot found.
func logBoot(d *clock.Device) {
	s := d.Settings()
	logger.WithFields(logger.Fields{
		"time":      d.State().Time.String(),
		"sensors":   len(d.Sensors()),
		"animation": s.Params.SecMode,
		"dim":       s.Params.DimMode,
		"us_mode":   s.Params.USMode,
		"swing":     s.Params.Swing,
	}).Info("clock booted")
}
