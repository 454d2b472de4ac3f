// Package metrics exports the clock state as Prometheus gauges and counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/segment-clock/internal/clock"
	"github.com/sweeney/segment-clock/internal/mux"
)

const namespace = "segment_clock"

// Metrics holds the collectors and the registry they are registered with.
type Metrics struct {
	reg *prometheus.Registry

	mode          prometheus.Gauge
	dimLevel      prometheus.Gauge
	temperature   prometheus.Gauge
	sensors       prometheus.Gauge
	alarmRinging  prometheus.Gauge
	hits          prometheus.Gauge
	countdownLeft prometheus.Gauge
	rtcOK         prometheus.Gauge
	dutyCycle     prometheus.Gauge
	scans         prometheus.Gauge
	events        *prometheus.CounterVec
}

func gauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	})
}

// New creates the collectors and registers them with a fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg:           prometheus.NewRegistry(),
		mode:          gauge("mode", "Active display mode number."),
		dimLevel:      gauge("dim_level", "Multiplexer dim level, 0 is brightest."),
		temperature:   gauge("temperature_celsius", "Last temperature shown, corrected."),
		sensors:       gauge("sensors", "Temperature sensors found at boot."),
		alarmRinging:  gauge("alarm_ringing", "1 while the alarm is sounding."),
		hits:          gauge("target_hits", "Hits counted in the current hit session."),
		countdownLeft: gauge("countdown_seconds_left", "Seconds left on the countdown, 0 when idle."),
		rtcOK:         gauge("rtc_ok", "1 when the last clock read succeeded."),
		dutyCycle:     gauge("mux_duty_cycle", "Fraction of multiplexer scans driven."),
		scans:         gauge("mux_scans", "Multiplexer scans completed since start."),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Clock events by type.",
		}, []string{"type"}),
	}
	m.reg.MustRegister(
		m.mode,
		m.dimLevel,
		m.temperature,
		m.sensors,
		m.alarmRinging,
		m.hits,
		m.countdownLeft,
		m.rtcOK,
		m.dutyCycle,
		m.scans,
		m.events,
	)
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Observe records one pass of the main loop.
func (m *Metrics) Observe(st clock.State, events []clock.Event) {
	m.mode.Set(float64(st.Mode))
	m.dimLevel.Set(float64(st.DimLevel))
	m.sensors.Set(float64(st.Sensors))
	if st.TemperatureOK {
		m.temperature.Set(float64(st.Temperature))
	}
	m.alarmRinging.Set(boolFloat(st.AlarmRinging))
	m.hits.Set(float64(st.Hits))
	m.countdownLeft.Set(float64(st.CountdownLeft))
	m.rtcOK.Set(boolFloat(st.RTCOK))
	for _, e := range events {
		m.events.WithLabelValues(string(e.Type)).Inc()
	}
}

// ObserveMux records the multiplexer counters.
func (m *Metrics) ObserveMux(s mux.Stats) {
	m.dutyCycle.Set(s.DutyCycle())
	m.scans.Set(float64(s.Scans))
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
