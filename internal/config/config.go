// Package config loads the daemon configuration: built-in defaults, then an
// optional segment-clock.yaml, then CLOCK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sweeney/segment-clock/internal/clock"
	"github.com/sweeney/segment-clock/internal/gpio"
)

// EnvPrefix is prepended to every environment override, e.g. CLOCK_HTTP_ADDR.
const EnvPrefix = "CLOCK"

// Config holds every setting of the daemon.
type Config struct {
	LogLevel     string
	TickHz       int
	LoopInterval time.Duration
	FakeHardware bool

	GPIOChip string
	Pins     gpio.Pins

	PulseFunction   clock.PulseFunction
	TempCorrection  int
	RingBeeps       int
	KeyHoldoff      time.Duration
	SettingTimeout  time.Duration
	ViewTimeout     time.Duration
	HitRevert       time.Duration
	HitFlash        time.Duration
	CountdownBounce time.Duration

	EEPROMBackend string
	EEPROMPath    string

	RTCBackend string
	I2CBus     string
	MaxSensors int

	HTTPAddr string

	MQTTEnabled  bool
	MQTTBroker   string
	MQTTClientID string
	MQTTTopic    string
}

func setDefaults(v *viper.Viper) {
	pins := gpio.DefaultPins()

	v.SetDefault("log_level", "info")
	v.SetDefault("tick_hz", 1500)
	v.SetDefault("loop_interval", "10ms")
	v.SetDefault("fake_hardware", false)

	v.SetDefault("gpio.chip", "gpiochip0")
	v.SetDefault("gpio.pins.select", pins.Select)
	v.SetDefault("gpio.pins.set", pins.Set)
	v.SetDefault("gpio.pins.buzzer", pins.Buzzer)
	v.SetDefault("gpio.pins.pulse", pins.Pulse)
	v.SetDefault("gpio.pins.data", pins.Data[:])
	v.SetDefault("gpio.pins.digits", pins.Digits[:])
	v.SetDefault("gpio.pins.lanes", pins.Lanes[:])

	v.SetDefault("pulse.function", "target")
	v.SetDefault("pulse.hit_revert", "45s")
	v.SetDefault("pulse.hit_flash", "3s")
	v.SetDefault("pulse.countdown_debounce", "667ms")

	v.SetDefault("temperature.correction", 3)
	v.SetDefault("alarm.ring_beeps", 2900)
	v.SetDefault("ui.key_holdoff", "250ms")
	v.SetDefault("ui.setting_timeout", "30s")
	v.SetDefault("ui.view_timeout", "4s")

	v.SetDefault("eeprom.backend", "file")
	v.SetDefault("eeprom.path", "/var/lib/segment-clock/eeprom.bin")

	v.SetDefault("rtc.backend", "system")
	v.SetDefault("i2c.bus", "")
	v.SetDefault("sensors.max", 8)

	v.SetDefault("http_addr", ":8080")

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "segment-clock")
	v.SetDefault("mqtt.topic", "segment-clock")
}

// Load reads the configuration. file names an explicit config file; when
// empty, segment-clock.yaml is looked for in . and /etc/segment-clock and
// may be absent.
func Load(file string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("segment-clock")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/segment-clock")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	c := Config{
		LogLevel:        v.GetString("log_level"),
		TickHz:          v.GetInt("tick_hz"),
		LoopInterval:    v.GetDuration("loop_interval"),
		FakeHardware:    v.GetBool("fake_hardware"),
		GPIOChip:        v.GetString("gpio.chip"),
		TempCorrection:  v.GetInt("temperature.correction"),
		RingBeeps:       v.GetInt("alarm.ring_beeps"),
		KeyHoldoff:      v.GetDuration("ui.key_holdoff"),
		SettingTimeout:  v.GetDuration("ui.setting_timeout"),
		ViewTimeout:     v.GetDuration("ui.view_timeout"),
		HitRevert:       v.GetDuration("pulse.hit_revert"),
		HitFlash:        v.GetDuration("pulse.hit_flash"),
		CountdownBounce: v.GetDuration("pulse.countdown_debounce"),
		EEPROMBackend:   v.GetString("eeprom.backend"),
		EEPROMPath:      v.GetString("eeprom.path"),
		RTCBackend:      v.GetString("rtc.backend"),
		I2CBus:          v.GetString("i2c.bus"),
		MaxSensors:      v.GetInt("sensors.max"),
		HTTPAddr:        v.GetString("http_addr"),
		MQTTEnabled:     v.GetBool("mqtt.enabled"),
		MQTTBroker:      v.GetString("mqtt.broker"),
		MQTTClientID:    v.GetString("mqtt.client_id"),
		MQTTTopic:       v.GetString("mqtt.topic"),
	}

	var err error
	if c.Pins, err = pinsFromViper(v); err != nil {
		return Config{}, err
	}

	switch fn := strings.ToLower(v.GetString("pulse.function")); fn {
	case "off", "none":
		c.PulseFunction = clock.PulseOff
	case "target":
		c.PulseFunction = clock.PulseTarget
	case "countdown":
		c.PulseFunction = clock.PulseCountdown
	default:
		return Config{}, fmt.Errorf("pulse.function: unknown value %q", fn)
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func pinsFromViper(v *viper.Viper) (gpio.Pins, error) {
	p := gpio.Pins{
		Select: v.GetInt("gpio.pins.select"),
		Set:    v.GetInt("gpio.pins.set"),
		Buzzer: v.GetInt("gpio.pins.buzzer"),
		Pulse:  v.GetInt("gpio.pins.pulse"),
	}
	if err := copyPins(p.Data[:], v.GetIntSlice("gpio.pins.data"), "gpio.pins.data"); err != nil {
		return p, err
	}
	if err := copyPins(p.Digits[:], v.GetIntSlice("gpio.pins.digits"), "gpio.pins.digits"); err != nil {
		return p, err
	}
	if err := copyPins(p.Lanes[:], v.GetIntSlice("gpio.pins.lanes"), "gpio.pins.lanes"); err != nil {
		return p, err
	}
	return p, nil
}

func copyPins(dst, src []int, key string) error {
	if len(src) != len(dst) {
		return fmt.Errorf("%s: need %d pins, got %d", key, len(dst), len(src))
	}
	copy(dst, src)
	return nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	var errs []error
	if c.TickHz < 100 || c.TickHz > 10000 {
		errs = append(errs, fmt.Errorf("tick_hz: %d out of range 100..10000", c.TickHz))
	}
	if c.LoopInterval <= 0 {
		errs = append(errs, fmt.Errorf("loop_interval: must be positive"))
	}
	switch c.EEPROMBackend {
	case "memory", "file", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("eeprom.backend: unknown value %q", c.EEPROMBackend))
	}
	switch c.RTCBackend {
	case "system", "ds1307":
	default:
		errs = append(errs, fmt.Errorf("rtc.backend: unknown value %q", c.RTCBackend))
	}
	if c.MaxSensors < 0 || c.MaxSensors > 8 {
		errs = append(errs, fmt.Errorf("sensors.max: %d out of range 0..8", c.MaxSensors))
	}
	if c.RingBeeps <= 0 {
		errs = append(errs, fmt.Errorf("alarm.ring_beeps: must be positive"))
	}
	return errors.Join(errs...)
}

// passes converts a duration to main-loop passes, at least one.
func (c Config) passes(d time.Duration) int {
	n := int(d / c.LoopInterval)
	if n < 1 {
		return 1
	}
	return n
}

// ticks converts a duration to multiplexer ticks.
func (c Config) ticks(d time.Duration) int {
	return int(d.Seconds() * float64(c.TickHz))
}

// DeviceOptions derives the clock options from the configured durations.
func (c Config) DeviceOptions() clock.Options {
	o := clock.DefaultOptions()
	o.PulseFunction = c.PulseFunction
	o.TempCorrection = c.TempCorrection
	o.RingBeepLimit = c.RingBeeps
	o.SettingTimeoutPasses = c.passes(c.SettingTimeout)
	o.ViewTimeoutPasses = c.passes(c.ViewTimeout)
	o.KeyHoldoffPasses = c.passes(c.KeyHoldoff)
	o.TicksPerSecond = c.TickHz
	o.FlashTicks = c.ticks(c.HitFlash)
	o.HitRevertTicks = c.ticks(c.HitRevert)
	o.CountdownDebounceTicks = c.ticks(c.CountdownBounce)
	return o
}

// TickPeriod is the multiplexer tick period.
func (c Config) TickPeriod() time.Duration {
	return time.Second / time.Duration(c.TickHz)
}
