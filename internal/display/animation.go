package display

// NumAnimations is the number of selectable ring animations.
const NumAnimations = 16

// BreathDivisor is the number of timer ticks per step of the breathing
// animation (index 9). At the default tick rate a full ring fits inside one
// second.
const BreathDivisor = 19

// lfsrSeed is the initial value of the flicker generator.
const lfsrSeed byte = 170

// Frame carries the time values an animation is keyed on.
type Frame struct {
	Second   int
	Minute   int
	Hour     int
	SubTicks int  // timer ticks since the current second began
	Force    bool // redraw animations that otherwise only redraw on change
}

// Animator draws the ring animations. It keeps the ring between calls
// because some animations patch the previous frame instead of redrawing it.
// Not safe for concurrent use.
type Animator struct {
	lanes      [NumLanes]byte
	seed       byte
	lastMinute int
	flash      bool
}

// NewAnimator returns an Animator with a blank ring and a fresh generator.
func NewAnimator() *Animator {
	return &Animator{seed: lfsrSeed, lastMinute: -1}
}

// SetFlash enables the hit-flash override, which replaces the selected
// animation with the five-minute markers blinking on odd seconds.
func (a *Animator) SetFlash(on bool) {
	a.flash = on
}

// Flash reports whether the hit-flash override is active.
func (a *Animator) Flash() bool {
	return a.flash
}

// NextRandom steps the flicker generator and returns a position 0..59.
// The generator is an 8-bit shift register: taps 1, 2, 3 and 7 are XORed,
// the register shifts left and the XOR result becomes the new low bit.
func (a *Animator) NextRandom() int {
	s := a.seed
	fb := (s>>1 ^ s>>2 ^ s>>3 ^ s>>7) & 1
	a.seed = s<<1 + fb
	return int(a.seed) % Positions
}

// Draw renders animation index into b.Lanes. Unknown indexes leave the ring
// as it was.
func (a *Animator) Draw(b *Buffer, index int, f Frame) {
	var r Buffer
	r.Lanes = a.lanes

	if a.flash {
		r.ClearLanes()
		if odd(f.Second) {
			r.Lanes = markers
		}
		a.lanes = r.Lanes
		a.lastMinute = -1
		b.Lanes = r.Lanes
		return
	}

	s := f.Second
	if index == 14 || (index == 15 && odd(s)) {
		s = a.NextRandom()
	}
	lane, pos := s/8, s%8

	switch index {
	case 0:
		r.ClearLanes()
	case 1, 14, 15:
		r.SetFill(lane, 0, bit(pos), 0)
	case 2:
		r.SetFill(lane, 0xFF, ^bit(pos), 0xFF)
	case 3:
		r.SetFill(lane, 0xFF, upTo(pos), 0)
	case 4:
		r.SetFill(lane, 0, ^upTo(pos), 0xFF)
	case 5:
		if odd(f.Minute) {
			r.SetFill(lane, 0xFF, upTo(pos), 0)
		} else {
			r.SetFill(lane, 0, ^upTo(pos), 0xFF)
		}
	case 6:
		r.Lanes = markers
		r.Set(s)
	case 7:
		switch {
		case s%5 != 0:
			r.Lanes = markers
		case odd(s / 5):
			r.Lanes = markersAfter
		default:
			r.Lanes = markersEarly
		}
		r.Set(s)
	case 8:
		if s%5 != 0 {
			r.Lanes = markers
		} else {
			r.ClearLanes()
		}
		r.Set(s)
	case 9:
		a.breathe(&r, f)
	case 10:
		if f.Minute != a.lastMinute || f.Force {
			a.lastMinute = f.Minute
			r.ClearLanes()
			setHour(&r, f.Hour)
			minuteBar(&r, f.Minute, true)
		}
	case 11:
		// Dark on a lit ring.
		r.FillLanes(0xFF)
		if odd(s) {
			minuteBar(&r, f.Minute, false)
		} else {
			r.Unset(hourPos(f.Hour))
		}
	case 12:
		r.FillLanes(0xFF)
		if odd(s) {
			for d := -1; d <= 1; d++ {
				if p := (f.Minute + d + Positions) % Positions; !IsMarker(p) {
					r.Unset(p)
				}
			}
		} else {
			r.Unset(hourPos(f.Hour))
		}
	case 13:
		r.ClearLanes()
		if odd(s) {
			r.Lanes[f.Minute/8] = 0xFF
			for p := 0; p <= f.Minute; p += 5 {
				r.Set(p)
			}
		} else {
			setHour(&r, f.Hour)
		}
	}

	if index != 10 {
		a.lastMinute = -1
	}
	a.lanes = r.Lanes
	b.Lanes = r.Lanes
}

// breathe grows a fill towards the current second, one position every
// BreathDivisor ticks. Odd minutes fill, even minutes empty.
func (a *Animator) breathe(r *Buffer, f Frame) {
	j := f.SubTicks / BreathDivisor
	if j > f.Second {
		return
	}
	lane, pos := j/8, j%8
	if odd(f.Minute) {
		r.SetFill(lane, 0xFF, upTo(pos), 0)
	} else {
		r.SetFill(lane, 0, ^upTo(pos), 0xFF)
	}
}

// hourPos is the marker for hour (0-23) on a twelve-hour dial.
func hourPos(hour int) int {
	return (hour % 12) * 5
}

func setHour(r *Buffer, hour int) {
	r.Set(hourPos(hour))
}

// minuteBar switches every non-marker position from 1 to minute on or off.
func minuteBar(r *Buffer, minute int, on bool) {
	for p := 1; p <= minute; p++ {
		switch {
		case IsMarker(p):
		case on:
			r.Set(p)
		default:
			r.Unset(p)
		}
	}
}

func odd(n int) bool {
	return n%2 == 1
}
