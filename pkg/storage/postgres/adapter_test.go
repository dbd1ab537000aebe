package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/quillworks/quill/pkg/storage"
)

func TestTranslateMapsEngineSentinels(t *testing.T) {
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound), storage.ErrNotFound)
	assert.ErrorIs(t, translate(gorm.ErrDuplicatedKey), storage.ErrConstraintViolation)
	assert.ErrorIs(t, translate(gorm.ErrForeignKeyViolated), storage.ErrConstraintViolation)
}

func newMockAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	adapter, err := NewWithDB(db, nil)
	require.NoError(t, err)
	return adapter, mock
}

const testID = "6f1f9a30-0c3f-4a0e-9b1c-6a5d2e8f0a11"

func TestReadReturnsRow(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(`SELECT \* FROM "notes" WHERE id = \$1`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(testID, "Go modules"))

	rec, err := adapter.Read(context.Background(), "notes", testID)
	require.NoError(t, err)
	assert.Equal(t, "Go modules", rec["title"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadMissingRowIsNotFound(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(`SELECT \* FROM "notes" WHERE id = \$1`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))

	_, err := adapter.Read(context.Background(), "notes", testID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReadInvalidUUIDSkipsQuery(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	_, err := adapter.Read(context.Background(), "notes", "not-a-uuid")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet(), "invalid keys never reach the engine")
}

func TestUpdateMissingRowIsNotFound(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(`SELECT \* FROM "notes" WHERE id = \$1`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := adapter.Update(context.Background(), "notes", testID, storage.Record{"title": "x"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet(), "no update is issued for a missing row")
}

func TestDeleteReportsOutcome(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectExec(`DELETE FROM notes WHERE id = \$1`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM notes WHERE id = \$1`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := adapter.Delete(context.Background(), "notes", testID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = adapter.Delete(context.Background(), "notes", testID)
	require.NoError(t, err)
	assert.False(t, deleted, "deleting a missing row is not an error")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteInvalidUUID(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	deleted, err := adapter.Delete(context.Background(), "notes", "not-a-uuid")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAppliesFilterAndOrder(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(`SELECT \* FROM "notes" WHERE .*visibility.* ORDER BY id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "visibility"}).
			AddRow(testID, "a", "public").
			AddRow("7b2c0d41-1d40-4b1f-8c2d-7b6e3f9a1b22", "b", "public"))

	records, err := adapter.List(context.Background(), "notes",
		storage.Record{"visibility": "public"}, 0, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0]["title"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListInvalidIDFilterMatchesNothing(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	records, err := adapter.List(context.Background(), "notes",
		storage.Record{"id": "not-a-uuid"}, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureStorageRunsEachStatement(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS widgets`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_widgets_name`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := adapter.EnsureStorage(context.Background(), ddlSchema{ddl: `
CREATE TABLE IF NOT EXISTS widgets (id UUID PRIMARY KEY, name TEXT);
CREATE INDEX IF NOT EXISTS idx_widgets_name ON widgets (name)`})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ddlSchema is a minimal schema for DDL tests.
type ddlSchema struct {
	ddl string
}

func (s ddlSchema) Collection() string                              { return "widgets" }
func (s ddlSchema) CreateStatement() string                         { return s.ddl }
func (s ddlSchema) UniqueIndexes() []string                         { return nil }
func (s ddlSchema) ServerGeneratesID() bool                         { return false }
func (s ddlSchema) ToDB(r storage.Record) (storage.Record, error)   { return r, nil }
func (s ddlSchema) FromDB(r storage.Record) (storage.Record, error) { return r, nil }
