// Package status provides a thread-safe status tracker for the segment-clock
// daemon. The main loop writes it once per pass; HTTP handlers, the
// websocket feed and MQTT system events read it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/segment-clock/internal/clock"
	"github.com/sweeney/segment-clock/internal/mux"
)

// recentLimit is how many recent events are kept.
const recentLimit = 20

// Config contains daemon configuration for display.
type Config struct {
	LoopMs        int64
	TickHz        int
	PulseFunction string
	EEPROMBackend string
	RTCBackend    string
	Broker        string
	HTTPAddr      string
}

// EventCounts counts events by type since start.
type EventCounts map[clock.EventType]int

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Clock         clock.State
	Booted        bool
	Counts        EventCounts
	Recent        []clock.Event
	Mux           mux.Stats
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu     sync.RWMutex
	snap   Snapshot
	counts EventCounts
	recent []clock.Event
	subs   map[chan struct{}]struct{}
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		counts: make(EventCounts),
		subs:   make(map[chan struct{}]struct{}),
	}
}

// Update stores the device state and the events of one pass.
// Called from runLoop on every pass.
func (t *Tracker) Update(st clock.State, events []clock.Event) {
	t.mu.Lock()
	changed := t.snap.Clock.Frame != st.Frame || t.snap.Clock.Mode != st.Mode || len(events) > 0
	t.snap.Clock = st
	t.snap.Booted = true
	for _, e := range events {
		t.counts[e.Type]++
		t.recent = append(t.recent, e)
	}
	if over := len(t.recent) - recentLimit; over > 0 {
		t.recent = append(t.recent[:0], t.recent[over:]...)
	}
	if changed {
		for ch := range t.subs {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
	t.mu.Unlock()
}

// SetMux stores the latest multiplexer counters.
func (t *Tracker) SetMux(s mux.Stats) {
	t.mu.Lock()
	t.snap.Mux = s
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Subscribe returns a channel that receives a signal whenever the display
// or the mode changes. Signals are coalesced. Call the returned function to
// unsubscribe.
func (t *Tracker) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	t.mu.Lock()
	t.subs[ch] = struct{}{}
	t.mu.Unlock()
	return ch, func() {
		t.mu.Lock()
		delete(t.subs, ch)
		t.mu.Unlock()
	}
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Counts = make(EventCounts, len(t.counts))
	for k, v := range t.counts {
		s.Counts[k] = v
	}
	s.Recent = append([]clock.Event(nil), t.recent...)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
