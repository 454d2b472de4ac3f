package eeprom

import "sync"

// MemStore is an in-memory store. It starts fully erased.
// Safe for concurrent use.
type MemStore struct {
	mu    sync.Mutex
	cells [Size]byte

	// Writes counts WriteCell calls that changed a cell.
	Writes int

	// ReadError and WriteError, if set, are returned by every call.
	ReadError  error
	WriteError error
}

// NewMemStore returns an erased MemStore.
func NewMemStore() *MemStore {
	m := &MemStore{}
	for i := range m.cells {
		m.cells[i] = Erased
	}
	return m
}

// ReadCell returns the byte at addr.
func (m *MemStore) ReadCell(addr int) (byte, error) {
	if err := checkAddr(addr); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadError != nil {
		return 0, m.ReadError
	}
	return m.cells[addr], nil
}

// WriteCell stores b at addr. Writing the value already present is a no-op,
// matching EEPROM update semantics.
func (m *MemStore) WriteCell(addr int, b byte) error {
	if err := checkAddr(addr); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteError != nil {
		return m.WriteError
	}
	if m.cells[addr] != b {
		m.cells[addr] = b
		m.Writes++
	}
	return nil
}

// Poke sets a cell directly, bypassing error injection and write counting.
// Used by tests to corrupt stored data.
func (m *MemStore) Poke(addr int, b byte) {
	m.mu.Lock()
	m.cells[addr] = b
	m.mu.Unlock()
}

// Close does nothing.
func (m *MemStore) Close() error {
	return nil
}
