// Command segment-clock drives a 7-segment LED clock: it scans the display,
// runs the mode machine from the two buttons, and exports state over HTTP
// and MQTT.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/sweeney/segment-clock/internal/clock"
	"github.com/sweeney/segment-clock/internal/config"
	"github.com/sweeney/segment-clock/internal/eeprom"
	"github.com/sweeney/segment-clock/internal/gpio"
	"github.com/sweeney/segment-clock/internal/metrics"
	"github.com/sweeney/segment-clock/internal/mqtt"
	"github.com/sweeney/segment-clock/internal/mux"
	"github.com/sweeney/segment-clock/internal/status"
	"github.com/sweeney/segment-clock/internal/web"
)

func main() {
	configFile := flag.String("config", "", "config file (default: segment-clock.yaml in . or /etc/segment-clock)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	setupLogging(cfg.LogLevel)

	if err := run(cfg); err != nil {
		logger.Fatalf("fatal: %v", err)
	}
}

func setupLogging(level string) {
	logger.SetFormatter(&logger.TextFormatter{FullTimestamp: true})
	lvl, err := logger.ParseLevel(level)
	if err != nil {
		logger.WithField("level", level).Warn("unknown log level, using info")
		lvl = logger.InfoLevel
	}
	logger.SetLevel(lvl)
}

func pulseName(f clock.PulseFunction) string {
	switch f {
	case clock.PulseTarget:
		return "target"
	case clock.PulseCountdown:
		return "countdown"
	default:
		return "off"
	}
}

func run(cfg config.Config) error {
	hw, err := openHardware(cfg)
	if err != nil {
		return err
	}
	defer hw.Close()

	store, err := eeprom.Open(cfg.EEPROMBackend, cfg.EEPROMPath)
	if err != nil {
		return err
	}
	defer store.Close()

	m := mux.New(hw.driver)
	dev := clock.New(cfg.DeviceOptions(), hw.rtc, hw.therm, hw.buzzer, store, m)
	m.OnTick(dev.TimerTick)

	ctx, cancel := context.WithCancel(context.Background())
	muxDone := make(chan struct{})
	go func() {
		defer close(muxDone)
		m.Run(ctx, cfg.TickPeriod())
	}()
	defer func() {
		cancel()
		<-muxDone
	}()

	if cfg.PulseFunction != clock.PulseOff {
		if err := hw.pulse.Watch(dev.OnPulseEdge); err != nil {
			logger.WithError(err).Warn("pulse input unavailable")
		}
	}

	report, err := dev.Boot(heldKeys(hw.buttons))
	if err != nil {
		logger.WithError(err).Warn("boot completed with errors")
	}
	if report.Any() {
		logger.WithFields(logger.Fields{
			"params":   report.ParamsReset,
			"alarm":    report.AlarmReset,
			"ref_date": report.RefDateReset,
		}).Warn("settings restored to defaults")
	}
	logBoot(dev)

	tracker := status.NewTracker(time.Now(), status.Config{
		LoopMs:        cfg.LoopInterval.Milliseconds(),
		TickHz:        cfg.TickHz,
		PulseFunction: pulseName(cfg.PulseFunction),
		EEPROMBackend: cfg.EEPROMBackend,
		RTCBackend:    cfg.RTCBackend,
		Broker:        cfg.MQTTBroker,
		HTTPAddr:      cfg.HTTPAddr,
	})
	met := metrics.New()

	var (
		publisher  mqtt.Publisher
		mqttStatus mqtt.ConnectionStatus
	)
	if cfg.MQTTEnabled {
		p := mqtt.NewRealPublisher(mqtt.Options{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Topic:    cfg.MQTTTopic,
		})
		defer p.Close()
		publisher, mqttStatus = p, p

		snap := tracker.Snapshot()
		startup := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startup); err != nil {
			logger.WithError(err).Warn("failed to publish startup event")
		}
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker, met.Handler())
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Error("http server error")
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.WithField("addr", cfg.HTTPAddr).Info("http status server listening")
	}

	logger.WithFields(logger.Fields{
		"loop":    cfg.LoopInterval,
		"tick_hz": cfg.TickHz,
		"pulse":   pulseName(cfg.PulseFunction),
		"eeprom":  cfg.EEPROMBackend,
		"rtc":     cfg.RTCBackend,
	}).Info("started")

	ticker := time.NewTicker(cfg.LoopInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(dev, m, hw.buttons, publisher, mqttStatus, tracker, met, time.Now, ticker.C, sigCh)
}

// runLoop is the main loop: one Step per tick until a signal arrives.
// m, publisher, mqttStatus, tracker and met may be nil.
func runLoop(dev *clock.Device, m *mux.Multiplexer, buttons gpio.Buttons, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, met *metrics.Metrics, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	buttonsFailing := false

	for {
		select {
		case s := <-sig:
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			logger.WithField("signal", signalName).Info("shutting down")
			if publisher == nil {
				return nil
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				logger.WithError(err).Warn("failed to publish shutdown event")
			}
			return nil

		case <-tick:
			var keys clock.Keys
			sel, set, err := buttons.Read()
			switch {
			case err != nil && !buttonsFailing:
				logger.WithError(err).Error("button read failed")
				buttonsFailing = true
			case err == nil:
				if buttonsFailing {
					logger.Info("button reads recovered")
					buttonsFailing = false
				}
				keys = clock.Keys{Select: sel, Set: set}
			}

			events := dev.Step(now(), keys)
			for _, e := range events {
				logEvent(e)
				if publisher == nil || e.Type == clock.EventModeChanged {
					continue
				}
				if err := publisher.Publish(e); err != nil {
					logger.WithError(err).Warn("publish failed")
				}
			}

			st := dev.State()
			if met != nil {
				met.Observe(st, events)
			}
			if tracker != nil {
				tracker.Update(st, events)
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}
			if m != nil {
				stats := m.Stats()
				if tracker != nil {
					tracker.SetMux(stats)
				}
				if met != nil {
					met.ObserveMux(stats)
				}
			}
		}
	}
}

func logEvent(e clock.Event) {
	entry := logger.WithFields(logger.Fields{
		"event": e.Type,
		"mode":  e.Mode,
	})
	if e.Detail != "" {
		entry = entry.WithField("detail", e.Detail)
	}
	if e.Count != 0 {
		entry = entry.WithField("count", e.Count)
	}
	switch e.Type {
	case clock.EventFault:
		entry.Warn("clock event")
	case clock.EventModeChanged:
		entry.Debug("clock event")
	default:
		entry.Info("clock event")
	}
}
