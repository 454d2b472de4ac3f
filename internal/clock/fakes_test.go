package clock

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sweeney/segment-clock/internal/calendar"
	"github.com/sweeney/segment-clock/internal/display"
	"github.com/sweeney/segment-clock/internal/eeprom"
)

var errBus = errors.New("bus error")

type fakeRTC struct {
	now    calendar.CalendarTime
	err    error
	writes []calendar.CalendarTime
}

func (f *fakeRTC) ReadTime() (calendar.CalendarTime, error) {
	return f.now, f.err
}

func (f *fakeRTC) WriteTime(t calendar.CalendarTime) error {
	if f.err != nil {
		return f.err
	}
	f.writes = append(f.writes, t)
	f.now = t
	return nil
}

type fakeTherm struct {
	ids     []string
	temps   map[string]byte
	readErr error
}

func (f *fakeTherm) Enumerate() ([]string, error) {
	return f.ids, nil
}

func (f *fakeTherm) ReadTemperature(id string) (byte, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	return f.temps[id], nil
}

type fakeBuzzer struct {
	beeps int
}

func (f *fakeBuzzer) Beep() {
	f.beeps++
}

type fakeOutput struct {
	frame   display.Buffer
	frames  int
	levels  []int
	seconds int
	sub     int
}

func (o *fakeOutput) SetFrame(b display.Buffer) {
	o.frame = b
	o.frames++
}

func (o *fakeOutput) SetLevel(level int) {
	o.levels = append(o.levels, level)
}

func (o *fakeOutput) MarkSecond() {
	o.seconds++
}

func (o *fakeOutput) SubTicks() int {
	return o.sub
}

func (o *fakeOutput) level() int {
	if len(o.levels) == 0 {
		return -1
	}
	return o.levels[len(o.levels)-1]
}

// at returns a time on Saturday 2020-04-18.
func at(h, m, s int) calendar.CalendarTime {
	return calendar.CalendarTime{Year: 20, Month: 4, Day: 18, Weekday: 6, Hour: h, Minute: m, Second: s}
}

var stamp = time.Date(2020, 4, 18, 12, 0, 0, 0, time.UTC)

type rig struct {
	d     *Device
	rtc   *fakeRTC
	therm *fakeTherm
	buzz  *fakeBuzzer
	out   *fakeOutput
	store *eeprom.MemStore
}

func testOptions() Options {
	o := DefaultOptions()
	o.KeyHoldoffPasses = 0
	return o
}

// newRig boots a device with one sensor reading 25 and leaves it on the
// clock view at 12:30:15.
func newRig(t *testing.T, opts Options) *rig {
	t.Helper()
	r := &rig{
		rtc:   &fakeRTC{now: at(12, 30, 15)},
		therm: &fakeTherm{ids: []string{"28-0001"}, temps: map[string]byte{"28-0001": 25}},
		buzz:  &fakeBuzzer{},
		out:   &fakeOutput{},
		store: eeprom.NewMemStore(),
	}
	r.d = New(opts, r.rtc, r.therm, r.buzz, r.store, r.out)
	_, err := r.d.Boot(Keys{})
	require.NoError(t, err)
	r.d.returnToClock()
	r.d.holdoff = 0
	return r
}

func (r *rig) step(k Keys) []Event {
	return r.d.Step(stamp, k)
}

// press holds k for one pass and releases it for one pass.
func (r *rig) press(k Keys) []Event {
	ev := r.step(k)
	return append(ev, r.step(Keys{})...)
}

func (r *rig) selectKey() []Event { return r.press(Keys{Select: true}) }
func (r *rig) setKey() []Event    { return r.press(Keys{Set: true}) }

// holdSet keeps SET down for n passes, then releases it.
func (r *rig) holdSet(n int) []Event {
	var ev []Event
	for i := 0; i < n; i++ {
		ev = append(ev, r.step(Keys{Set: true})...)
	}
	return append(ev, r.step(Keys{})...)
}

func hasEvent(events []Event, typ EventType) bool {
	for _, e := range events {
		if e.Type == typ {
			return true
		}
	}
	return false
}

func countEvents(events []Event, typ EventType) int {
	n := 0
	for _, e := range events {
		if e.Type == typ {
			n++
		}
	}
	return n
}
