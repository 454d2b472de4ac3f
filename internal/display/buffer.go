// Package display holds the frame the multiplexer scans out and the
// decorative LED ring animations that fill its lower half.
//
// A frame is four 7-segment cells plus a ring of 64 LEDs grouped into eight
// byte lanes. LED p lives in lane p/8, bit p%8. Only positions 0..60 are
// populated on the ring; 60 is the twelve o'clock marker.
package display

// Ring geometry.
const (
	NumDigits = 4
	NumLanes  = 8
	RingSize  = NumLanes * 8
	Positions = 60 // seconds/minutes positions on the ring
)

// Buffer is one display frame.
type Buffer struct {
	Digits [NumDigits]byte
	Lanes  [NumLanes]byte
}

// ClearLanes turns every ring LED off.
func (b *Buffer) ClearLanes() {
	b.FillLanes(0)
}

// FillLanes sets every lane to v.
func (b *Buffer) FillLanes(v byte) {
	for i := range b.Lanes {
		b.Lanes[i] = v
	}
}

// SetFill writes cur into lane, before into every lower lane and after into
// every higher lane.
func (b *Buffer) SetFill(lane int, before, cur, after byte) {
	for i := range b.Lanes {
		switch {
		case i < lane:
			b.Lanes[i] = before
		case i == lane:
			b.Lanes[i] = cur
		default:
			b.Lanes[i] = after
		}
	}
}

// Set turns LED p on. Out-of-range positions are ignored.
func (b *Buffer) Set(p int) {
	if p >= 0 && p < RingSize {
		b.Lanes[p/8] |= 1 << uint(p%8)
	}
}

// Unset turns LED p off.
func (b *Buffer) Unset(p int) {
	if p >= 0 && p < RingSize {
		b.Lanes[p/8] &^= 1 << uint(p%8)
	}
}

// IsSet reports whether LED p is on.
func (b Buffer) IsSet(p int) bool {
	if p < 0 || p >= RingSize {
		return false
	}
	return b.Lanes[p/8]&(1<<uint(p%8)) != 0
}

// Lit returns the lit positions in ascending order.
func (b Buffer) Lit() []int {
	var out []int
	for p := 0; p < RingSize; p++ {
		if b.IsSet(p) {
			out = append(out, p)
		}
	}
	return out
}

// IsMarker reports whether p is one of the five-minute marker positions.
func IsMarker(p int) bool {
	return p >= 0 && p <= Positions && p%5 == 0
}

// markerMask returns the lane mask with every position p (0..60) where
// p%5 == phase lit.
func markerMask(phase int) [NumLanes]byte {
	var m Buffer
	for p := 0; p <= Positions; p++ {
		if p%5 == phase {
			m.Set(p)
		}
	}
	return m.Lanes
}

var (
	markers      = markerMask(0)
	markersAfter = markerMask(1)
	markersEarly = markerMask(4)
)

// bit returns a byte with only bit n set.
func bit(n int) byte {
	return 1 << uint(n)
}

// upTo returns a byte with bits 0..n set.
func upTo(n int) byte {
	return byte(1<<uint(n+1) - 1)
}
