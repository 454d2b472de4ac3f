package clock

import (
	"errors"
	"fmt"

	"github.com/sweeney/segment-clock/internal/settings"
)

// Boot brings the device up: load the settings, look for temperature
// sensors, apply any buttons held at power-on and show the sensor count.
// Holding SELECT toggles the 12-hour clock; holding SET toggles swing. Both
// are saved.
//
// Nothing here stops the device from running. The returned error collects
// what went wrong so the caller can log it.
func (d *Device) Boot(held Keys) (settings.Report, error) {
	var errs []error

	s, report, err := settings.Load(d.store)
	if err != nil {
		errs = append(errs, fmt.Errorf("load settings: %w", err))
	}
	d.settings = s

	if t, err := d.rtc.ReadTime(); err != nil {
		errs = append(errs, fmt.Errorf("read rtc: %w", err))
	} else if t.Valid() {
		d.now = t
		d.rtcOK = true
	}

	d.sensors = nil
	if d.therm != nil {
		ids, err := d.therm.Enumerate()
		if err != nil {
			errs = append(errs, fmt.Errorf("enumerate sensors: %w", err))
		}
		d.sensors = ids
	}

	if held.Select {
		d.settings.Params.USMode = !d.settings.Params.USMode
		if err := settings.StoreParams(d.store, d.settings.Params, settings.FieldUSMode); err != nil {
			errs = append(errs, fmt.Errorf("save 12-hour flag: %w", err))
		}
	}
	if held.Set {
		d.settings.Params.Swing = !d.settings.Params.Swing
		if err := settings.StoreParams(d.store, d.settings.Params, settings.FieldSwing); err != nil {
			errs = append(errs, fmt.Errorf("save swing flag: %w", err))
		}
	}

	d.setMode(ModeSensors)
	if len(d.sensors) == 0 && report.ParamsReset {
		d.beep(3)
	}
	d.applyDim()
	d.holdoff = d.opts.KeyHoldoffPasses

	return report, errors.Join(errs...)
}

// Sensors returns the ids found at boot.
func (d *Device) Sensors() []string {
	return append([]string(nil), d.sensors...)
}
