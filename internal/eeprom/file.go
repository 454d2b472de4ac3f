package eeprom

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// FileStore keeps the cells in a Size-byte image file. Each changed cell is
// written in place and synced.
type FileStore struct {
	mu sync.Mutex
	f  *os.File
}

// OpenFileStore opens or creates the image at path. A new or short image is
// padded with erased cells.
func OpenFileStore(path string) (*FileStore, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open eeprom image %q: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat eeprom image: %w", err)
	}
	if n := info.Size(); n < Size {
		pad := make([]byte, Size-n)
		for i := range pad {
			pad[i] = Erased
		}
		if _, err := f.WriteAt(pad, n); err != nil {
			f.Close()
			return nil, fmt.Errorf("pad eeprom image: %w", err)
		}
		if err := f.Sync(); err != nil {
			f.Close()
			return nil, fmt.Errorf("sync eeprom image: %w", err)
		}
	}
	return &FileStore{f: f}, nil
}

// ReadCell returns the byte at addr.
func (s *FileStore) ReadCell(addr int) (byte, error) {
	if err := checkAddr(addr); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(addr)
}

func (s *FileStore) readLocked(addr int) (byte, error) {
	var b [1]byte
	if _, err := s.f.ReadAt(b[:], int64(addr)); err != nil && err != io.EOF {
		return 0, fmt.Errorf("read cell %d: %w", addr, err)
	}
	return b[0], nil
}

// WriteCell stores b at addr unless the cell already holds b.
func (s *FileStore) WriteCell(addr int, b byte) error {
	if err := checkAddr(addr); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.readLocked(addr)
	if err == nil && cur == b {
		return nil
	}
	if _, err := s.f.WriteAt([]byte{b}, int64(addr)); err != nil {
		return fmt.Errorf("write cell %d: %w", addr, err)
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("sync cell %d: %w", addr, err)
	}
	return nil
}

// Close closes the image file.
func (s *FileStore) Close() error {
	return s.f.Close()
}
