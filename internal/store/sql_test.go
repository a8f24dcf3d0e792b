package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var insertContactsRe = regexp.QuoteMeta(
	`INSERT INTO "contacts" (first_name, last_name, email, phone_number, eircode, age) VALUES ($1, $2, $3, $4, $5, $6)`)

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewSQLStore(db, "contacts"), mock
}

func TestSQLStore_Persist_Success(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(insertContactsRe).
		WithArgs("Jane", "Doe", "jane@doe.com", nil, nil, 30).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, s.Persist(context.Background(), sampleRecord()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_Persist_Conflict(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(insertContactsRe).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "contacts_email_key"})

	err := s.Persist(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_Persist_UniqueViolationOnOtherKey(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(insertContactsRe).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "contacts_pkey"})

	err := s.Persist(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateEmail)
	assert.Equal(t, ClassStoreError, Classify(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_Persist_StoreError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(insertContactsRe).
		WillReturnError(&pq.Error{Code: "42P01", Message: `relation "contacts" does not exist`})

	err := s.Persist(context.Background(), sampleRecord())
	require.Error(t, err)

	var storeErr *StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Contains(t, storeErr.Detail, "does not exist")
	assert.Equal(t, ClassStoreError, Classify(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_Persist_NoRowsAffected(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(insertContactsRe).WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Persist(context.Background(), sampleRecord())
	assert.Equal(t, ClassStoreError, Classify(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewSQLStore_QuotesSchemaQualifiedTable(t *testing.T) {
	s := NewSQLStore(nil, "crm.people")
	assert.Contains(t, s.query, `INSERT INTO "crm"."people" (`)
}
