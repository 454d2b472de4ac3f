package clock

// PulseDetector turns edges from the target sensor into hits. Two edges no
// more than Window ticks apart make one hit; a lone edge is forgotten once
// the window has passed.
type PulseDetector struct {
	Window int // ticks

	peaks     int
	sincePeak int
	total     int
}

// Edge records one edge and reports whether it completed a hit.
func (p *PulseDetector) Edge() bool {
	p.peaks++
	p.sincePeak = 0
	if p.peaks > 1 {
		p.peaks = 0
		p.total++
		return true
	}
	return false
}

// Age advances the detector by one timer tick.
func (p *PulseDetector) Age() {
	if p.peaks == 0 {
		return
	}
	if p.sincePeak >= p.Window {
		p.peaks = 0
		return
	}
	p.sincePeak++
}

// Pending reports whether an unmatched edge is waiting for its partner.
func (p *PulseDetector) Pending() bool {
	return p.peaks > 0
}

// Total returns the number of hits since the detector was created.
func (p *PulseDetector) Total() int {
	return p.total
}
