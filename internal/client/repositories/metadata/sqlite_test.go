package metadata

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE kv_store (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestSetAndGet_InsertThenGet(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k1", []byte{0x01, 0x02}))

	v, err := r.Get(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02}, v)
}

func TestGet_NotExists_ReturnsNilNil(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	v, err := r.Get(context.Background(), "absent")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestSet_UpsertOverwritesValue(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k", []byte("old")))
	require.NoError(t, r.Set(ctx, "k", []byte("new")))

	v, err := r.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("new"), v)
}

func TestList_FiltersByPrefix(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "ledger:a", []byte{0xAA}))
	require.NoError(t, r.Set(ctx, "ledger:b", []byte{0xBB}))
	require.NoError(t, r.Set(ctx, "gallery:last_sync", []byte("t")))

	m, err := r.List(ctx, "ledger:")
	require.NoError(t, err)
	assert.Len(t, m, 2)
	assert.Equal(t, []byte{0xAA}, m["ledger:a"])
	assert.Equal(t, []byte{0xBB}, m["ledger:b"])

	all, err := r.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestList_PrefixWildcardsAreLiteral(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "a_b", []byte{1}))
	require.NoError(t, r.Set(ctx, "axb", []byte{2}))
	require.NoError(t, r.Set(ctx, "100%", []byte{3}))

	m, err := r.List(ctx, "a_")
	require.NoError(t, err)
	assert.Len(t, m, 1)
	assert.Contains(t, m, "a_b")

	m, err = r.List(ctx, "100%")
	require.NoError(t, err)
	assert.Len(t, m, 1)
}

func TestList_PrefixIsCaseSensitive(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "ledger:a1", []byte{1}))
	require.NoError(t, r.Set(ctx, "LEDGER:a2", []byte{2}))
	require.NoError(t, r.Set(ctx, "Ledger:a3", []byte{3}))

	m, err := r.List(ctx, "ledger:")
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"ledger:a1": {1}}, m)
}

func TestDelete_RemovesKey_AndIsIdempotent(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "x", []byte{0x01}))
	require.NoError(t, r.Delete(ctx, "x"))

	v, err := r.Get(ctx, "x")
	require.NoError(t, err)
	require.Nil(t, v)

	require.NoError(t, r.Delete(ctx, "x"))
}

func TestClosedDB_ErrorsWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Close())

	_, err := r.Get(ctx, "k")
	require.ErrorContains(t, err, "failed to get kv[k]")

	require.ErrorContains(t, r.Set(ctx, "k", []byte("v")), "failed to set kv[k]")
	require.ErrorContains(t, r.Delete(ctx, "k"), "failed to delete kv[k]")

	_, err = r.List(ctx, "")
	require.ErrorContains(t, err, "failed to list kv")
}

func TestSet_DriverErrorIsWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	driverErr := errors.New("disk I/O error")
	mock.ExpectExec("INSERT INTO kv_store").
		WithArgs("k", sqlmock.AnyArg()).
		WillReturnError(driverErr)

	r := NewSQLiteRepository(db)
	err = r.Set(context.Background(), "k", []byte("v"))
	require.ErrorIs(t, err, driverErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_ScanErrorIsWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"key", "value"}).
		AddRow("ledger:a", []byte("x")).
		RowError(0, errors.New("row broke"))
	mock.ExpectQuery("SELECT key, value FROM kv_store").WillReturnRows(rows)

	r := NewSQLiteRepository(db)
	_, err = r.List(context.Background(), "ledger:")
	require.ErrorContains(t, err, "failed to iterate kv rows")
}
