package repository

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCollectionsMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestPostgresStoreRead(t *testing.T) {
	db, mock, cleanup := newCollectionsMock(t)
	defer cleanup()
	store := NewPostgresStore(db)

	mock.ExpectQuery(`SELECT value FROM app_collections WHERE key = \$1`).
		WithArgs(KeyStudents).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`[{"id":"s1"}]`)))

	raw, err := store.Read(context.Background(), KeyStudents)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"s1"}]`, string(raw))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreReadMissingKey(t *testing.T) {
	db, mock, cleanup := newCollectionsMock(t)
	defer cleanup()
	store := NewPostgresStore(db)

	mock.ExpectQuery(`SELECT value FROM app_collections`).
		WithArgs(KeySettings).
		WillReturnError(sql.ErrNoRows)

	_, err := store.Read(context.Background(), KeySettings)
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreWriteUpserts(t *testing.T) {
	db, mock, cleanup := newCollectionsMock(t)
	defer cleanup()
	store := NewPostgresStore(db)

	mock.ExpectExec(`(?s)INSERT INTO app_collections .* ON CONFLICT \(key\) DO UPDATE`).
		WithArgs(KeyLessons, `[]`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Write(context.Background(), KeyLessons, []byte(`[]`)))
	assert.NoError(t, mock.ExpectationsWereMet())
}
