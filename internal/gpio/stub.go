//go:build !linux

package gpio

// Board is not available on non-Linux platforms.
type Board struct{}

// NewBoard returns ErrUnsupported on non-Linux platforms.
func NewBoard(chipName string, pins Pins) (*Board, error) {
	return nil, ErrUnsupported
}

// Read is not implemented on non-Linux platforms.
func (b *Board) Read() (bool, bool, error) {
	return false, false, ErrUnsupported
}

func (b *Board) Beep()                        {}
func (b *Board) ShowDigit(idx int, seg byte)  {}
func (b *Board) ShowLane(lane int, bits byte) {}
func (b *Board) Blank()                       {}

// DriveErrors always returns 0.
func (b *Board) DriveErrors() uint64 {
	return 0
}

// Watch is not implemented on non-Linux platforms.
func (b *Board) Watch(fn func()) error {
	return ErrUnsupported
}

// Close is not implemented on non-Linux platforms.
func (b *Board) Close() error {
	return nil
}
