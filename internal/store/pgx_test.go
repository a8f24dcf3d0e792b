package store

import (
	"context"
	"errors"
	"testing"

	"github.com/JonMunkholm/contacts/internal/contact"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDBTX struct {
	query string
	args  []any
	tag   pgconn.CommandTag
	err   error
}

func (f *fakeDBTX) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.query = sql
	f.args = args
	return f.tag, f.err
}

func sampleRecord() contact.Record {
	age := 30
	return contact.Record{FirstName: "Jane", LastName: "Doe", Email: "jane@doe.com", Age: &age}
}

func TestPgxStore_Persist_Success(t *testing.T) {
	db := &fakeDBTX{tag: pgconn.NewCommandTag("INSERT 0 1")}
	s := NewPgxStore(db, "contacts")

	require.NoError(t, s.Persist(context.Background(), sampleRecord()))
	assert.Equal(t,
		`INSERT INTO "contacts" (first_name, last_name, email, phone_number, eircode, age) VALUES ($1, $2, $3, $4, $5, $6)`,
		db.query)
	assert.Equal(t, []any{"Jane", "Doe", "jane@doe.com", nil, nil, 30}, db.args)
}

func TestPgxStore_QuotesTableName(t *testing.T) {
	db := &fakeDBTX{tag: pgconn.NewCommandTag("INSERT 0 1")}

	NewPgxStore(db, `crm.people"; DROP TABLE x; --`).Persist(context.Background(), sampleRecord())
	assert.Contains(t, db.query, `INSERT INTO "crm"."people""; DROP TABLE x; --" (`)

	NewPgxStore(db, "").Persist(context.Background(), sampleRecord())
	assert.Contains(t, db.query, `INSERT INTO "contacts" (`)
}

func TestPgxStore_Persist_Conflict(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "contacts_email_key", Message: "duplicate key value violates unique constraint"}
	s := NewPgxStore(&fakeDBTX{err: pgErr}, "contacts")

	err := s.Persist(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.Equal(t, ClassConflict, Classify(err))

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "jane@doe.com", conflict.Email)

	var unwrapped *pgconn.PgError
	assert.True(t, errors.As(err, &unwrapped), "driver error stays reachable")
}

func TestPgxStore_Persist_OtherFailures(t *testing.T) {
	tests := []struct {
		name string
		db   *fakeDBTX
	}{
		{"not null violation", &fakeDBTX{err: &pgconn.PgError{Code: "23502", Message: "null value in column"}}},
		{"unique violation on another key", &fakeDBTX{err: &pgconn.PgError{Code: "23505", ConstraintName: "contacts_pkey"}}},
		{"unique violation detail names another column", &fakeDBTX{err: &pgconn.PgError{Code: "23505", Detail: "Key (id)=(7) already exists."}}},
		{"connection error", &fakeDBTX{err: errors.New("connection refused")}},
		{"no rows affected", &fakeDBTX{tag: pgconn.NewCommandTag("INSERT 0 0")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewPgxStore(tt.db, "contacts").Persist(context.Background(), sampleRecord())
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrDuplicateEmail)

			var storeErr *StoreError
			require.True(t, errors.As(err, &storeErr))
			assert.NotEmpty(t, storeErr.Detail)
			assert.Equal(t, ClassStoreError, Classify(err))
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	assert.Equal(t, "", Classify(nil))
}
