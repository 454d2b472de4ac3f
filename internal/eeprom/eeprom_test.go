package eeprom

import (
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreStartsErased(t *testing.T) {
	m := NewMemStore()
	for _, addr := range []int{0, 100, Size - 1} {
		b, err := m.ReadCell(addr)
		require.NoError(t, err)
		assert.Equal(t, Erased, b)
	}
}

func TestMemStoreSkipsUnchangedWrites(t *testing.T) {
	m := NewMemStore()
	require.NoError(t, m.WriteCell(3, 7))
	require.NoError(t, m.WriteCell(3, 7))
	require.NoError(t, m.WriteCell(3, 8))
	assert.Equal(t, 2, m.Writes)

	b, err := m.ReadCell(3)
	require.NoError(t, err)
	assert.Equal(t, byte(8), b)
}

func TestMemStoreOutOfRange(t *testing.T) {
	m := NewMemStore()
	_, err := m.ReadCell(Size)
	assert.True(t, errors.Is(err, ErrOutOfRange))
	assert.True(t, errors.Is(m.WriteCell(-1, 0), ErrOutOfRange))
}

func TestMemStoreInjectedErrors(t *testing.T) {
	m := NewMemStore()
	m.ReadError = errors.New("bus")
	_, err := m.ReadCell(0)
	assert.Error(t, err)

	m.WriteError = errors.New("bus")
	assert.Error(t, m.WriteCell(0, 1))
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eeprom.bin")

	s, err := OpenFileStore(path)
	require.NoError(t, err)
	b, err := s.ReadCell(10)
	require.NoError(t, err)
	assert.Equal(t, Erased, b, "new image should read erased")

	require.NoError(t, s.WriteCell(10, 0x42))
	require.NoError(t, s.Close())

	s, err = OpenFileStore(path)
	require.NoError(t, err)
	defer s.Close()
	b, err = s.ReadCell(10)
	require.NoError(t, err)
	assert.Equal(t, byte(0x42), b)
}

func TestSQLiteStoreReadMissingRowIsErased(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectCellSQL)).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	s := NewSQLiteStore(db)
	b, err := s.ReadCell(4)
	require.NoError(t, err)
	assert.Equal(t, Erased, b)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStoreReadValue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectCellSQL)).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(int64(9)))

	b, err := NewSQLiteStore(db).ReadCell(2)
	require.NoError(t, err)
	assert.Equal(t, byte(9), b)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStoreWriteUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO eeprom_cells")).
		WithArgs(7, int64(200)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, NewSQLiteStore(db).WriteCell(7, 200))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStoreWriteError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO eeprom_cells")).
		WillReturnError(errors.New("disk I/O error"))

	err = NewSQLiteStore(db).WriteCell(1, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert cell 1")
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eeprom.db")
	s, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.WriteCell(0, 1))
	require.NoError(t, s.WriteCell(0, 2))
	b, err := s.ReadCell(0)
	require.NoError(t, err)
	assert.Equal(t, byte(2), b)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("flash", "")
	assert.Error(t, err)

	s, err := Open(BackendMemory, "")
	require.NoError(t, err)
	assert.IsType(t, &MemStore{}, s)
}
