package gpio

import (
	"testing"
)

func TestDisplayValuesDigitPhase(t *testing.T) {
	vals := make([]int, displayLines)
	displayValues(vals, 0x05, 2, -1)

	want := []int{
		1, 0, 1, 0, 0, 0, 0, 0, // data
		0, 0, 1, 0, // digits
		0, 0, 0, 0, 0, 0, 0, 0, // lanes
	}
	for i := range want {
		if vals[i] != want[i] {
			t.Fatalf("line %d: expected %d, got %d (all %v)", i, want[i], vals[i], vals)
		}
	}
}

func TestDisplayValuesLanePhase(t *testing.T) {
	vals := make([]int, displayLines)
	displayValues(vals, 0x80, -1, 7)

	if vals[7] != 1 {
		t.Error("expected top data bit set")
	}
	for i := 8; i < 12; i++ {
		if vals[i] != 0 {
			t.Errorf("digit select %d should be low", i-8)
		}
	}
	if vals[19] != 1 {
		t.Error("expected lane 7 select high")
	}
}

func TestDisplayValuesBlank(t *testing.T) {
	vals := make([]int, displayLines)
	for i := range vals {
		vals[i] = 1
	}
	displayValues(vals, 0, -1, -1)
	for i, v := range vals {
		if v != 0 {
			t.Errorf("line %d: expected low, got %d", i, v)
		}
	}
}

func TestDisplayOffsetsOrder(t *testing.T) {
	p := DefaultPins()
	offs := p.displayOffsets()

	if len(offs) != displayLines {
		t.Fatalf("expected %d lines, got %d", displayLines, len(offs))
	}
	if offs[0] != p.Data[0] || offs[8] != p.Digits[0] || offs[12] != p.Lanes[0] {
		t.Errorf("unexpected order: %v", offs)
	}

	seen := map[int]bool{p.Select: true, p.Set: true, p.Buzzer: true, p.Pulse: true}
	for _, o := range offs {
		if seen[o] {
			t.Errorf("line %d used twice", o)
		}
		seen[o] = true
	}
}
