package eeprom

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

const schemaCells = `
CREATE TABLE IF NOT EXISTS eeprom_cells (
    addr INTEGER PRIMARY KEY CHECK (addr >= 0),
    value INTEGER NOT NULL CHECK (value BETWEEN 0 AND 255)
);
`

const (
	selectCellSQL = `SELECT value FROM eeprom_cells WHERE addr=?`

	upsertCellSQL = `
		INSERT INTO eeprom_cells (addr, value)
		VALUES (?, ?)
		ON CONFLICT(addr) DO UPDATE SET value=excluded.value
	`
)

// queryTimeout bounds each statement.
const queryTimeout = 2 * time.Second

// SQLiteStore keeps cells as rows of a SQLite table. Missing rows read as
// erased.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an open database. The schema must already exist;
// OpenSQLiteStore takes care of that.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// OpenSQLiteStore opens or creates the database at path and ensures the
// cell table exists.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = FULL;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return NewSQLiteStore(db), nil
}

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec(schemaCells); err != nil {
		return fmt.Errorf("apply cell schema: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}

// ReadCell returns the byte at addr, or Erased if it was never written.
func (s *SQLiteStore) ReadCell(addr int) (byte, error) {
	if err := checkAddr(addr); err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var v int64
	err := s.db.QueryRowContext(ctx, selectCellSQL, addr).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return Erased, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select cell %d: %w", addr, err)
	}
	return byte(v), nil
}

// WriteCell upserts the row for addr.
func (s *SQLiteStore) WriteCell(addr int, b byte) error {
	if err := checkAddr(addr); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, upsertCellSQL, addr, int64(b)); err != nil {
		return fmt.Errorf("upsert cell %d: %w", addr, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
