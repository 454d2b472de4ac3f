// Package glyph maps the symbols the clock can show to 7-segment encodings.
//
// Segment bits follow the usual a..g lettering, clockwise from the top bar,
// with g the middle bar and the decimal point in the high bit.
package glyph

// Segment bits.
const (
	SegA   byte = 0x01
	SegB   byte = 0x02
	SegC   byte = 0x04
	SegD   byte = 0x08
	SegE   byte = 0x10
	SegF   byte = 0x20
	SegG   byte = 0x40
	SegDot byte = 0x80
)

// Glyph is a displayable symbol.
type Glyph uint8

// Glyphs in table order. Digit0..Digit9 must stay at 0..9.
const (
	Digit0 Glyph = iota
	Digit1
	Digit2
	Digit3
	Digit4
	Digit5
	Digit6
	Digit7
	Digit8
	Digit9
	Dot
	Degree
	LetterC
	LetterN // lower-case n
	LetterF
	LetterO // lower-case o
	Blank
	LetterA
	LetterD // lower-case d
	LetterT // lower-case t
	LetterL
	LetterE
	LetterP
	Minus
	LetterI // lower-case i
	LetterY // lower-case y
	LetterS
	numGlyphs
)

var table = [numGlyphs]byte{
	Digit0:  SegA | SegB | SegC | SegD | SegE | SegF,
	Digit1:  SegB | SegC,
	Digit2:  SegA | SegB | SegD | SegE | SegG,
	Digit3:  SegA | SegB | SegC | SegD | SegG,
	Digit4:  SegB | SegC | SegF | SegG,
	Digit5:  SegA | SegC | SegD | SegF | SegG,
	Digit6:  SegA | SegC | SegD | SegE | SegF | SegG,
	Digit7:  SegA | SegB | SegC,
	Digit8:  SegA | SegB | SegC | SegD | SegE | SegF | SegG,
	Digit9:  SegA | SegB | SegC | SegD | SegF | SegG,
	Dot:     SegDot,
	Degree:  SegA | SegB | SegF | SegG,
	LetterC: SegA | SegD | SegE | SegF,
	LetterN: SegC | SegE | SegG,
	LetterF: SegA | SegE | SegF | SegG,
	LetterO: SegC | SegD | SegE | SegG,
	Blank:   0,
	LetterA: SegA | SegB | SegC | SegE | SegF | SegG,
	LetterD: SegB | SegC | SegD | SegE | SegG,
	LetterT: SegD | SegE | SegF | SegG,
	LetterL: SegD | SegE | SegF,
	LetterE: SegA | SegD | SegE | SegF | SegG,
	LetterP: SegA | SegB | SegE | SegF | SegG,
	Minus:   SegG,
	LetterI: SegE,
	LetterY: SegB | SegC | SegD | SegF | SegG,
	LetterS: SegA | SegC | SegD | SegF | SegG,
}

// Segments returns the segment bitmask for g. Unknown glyphs are blank.
func Segments(g Glyph) byte {
	if g >= numGlyphs {
		return 0
	}
	return table[g]
}

// Digit returns the glyph for the decimal digit n (0-9).
// Values outside that range render blank.
func Digit(n int) Glyph {
	if n < 0 || n > 9 {
		return Blank
	}
	return Glyph(n)
}

// DigitSegments is shorthand for Segments(Digit(n)).
func DigitSegments(n int) byte {
	return Segments(Digit(n))
}

// WithDot adds the decimal point to an encoded cell.
func WithDot(b byte) byte {
	return b | SegDot
}

// Word encodes up to four glyphs into display cells, left to right.
// Missing trailing glyphs are blank.
func Word(gs ...Glyph) [4]byte {
	var cells [4]byte
	for i := 0; i < len(cells) && i < len(gs); i++ {
		cells[i] = Segments(gs[i])
	}
	return cells
}
