// Package eeprom provides the byte-addressed persistent store the clock keeps
// its settings in. Backends are interchangeable: an in-memory array for tests
// and diskless runs, a fixed-size image file, or a SQLite table.
//
// Stores do not validate content. Checksums are the caller's business.
package eeprom

import (
	"errors"
	"fmt"
)

// Size is the number of addressable cells.
const Size = 512

// Erased is the value of a cell that has never been written.
const Erased byte = 0xFF

// ErrOutOfRange is returned for addresses outside [0, Size).
var ErrOutOfRange = errors.New("eeprom: address out of range")

// Store reads and writes single cells.
type Store interface {
	// ReadCell returns the byte at addr.
	ReadCell(addr int) (byte, error)

	// WriteCell stores b at addr.
	WriteCell(addr int, b byte) error

	// Close releases the backend.
	Close() error
}

func checkAddr(addr int) error {
	if addr < 0 || addr >= Size {
		return fmt.Errorf("%w: %d", ErrOutOfRange, addr)
	}
	return nil
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open returns a store for the named backend. path is ignored for memory.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemStore(), nil
	case BackendFile:
		s, err := OpenFileStore(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendSQLite:
		s, err := OpenSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("eeprom: unknown backend %q", backend)
	}
}
