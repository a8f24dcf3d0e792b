package store

import (
	"context"
	"errors"

	"github.com/JonMunkholm/contacts/internal/contact"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx used by PgxStore.
// Satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
}

// PgxStore persists contacts through pgx.
type PgxStore struct {
	db    DBTX
	query string
}

// NewPgxStore creates a store writing to table (schema-qualified allowed).
func NewPgxStore(db DBTX, table string) *PgxStore {
	return &PgxStore{
		db:    db,
		query: insertSQL(pgx.Identifier(splitTable(table)).Sanitize()),
	}
}

// Persist inserts rec and classifies the outcome.
func (s *PgxStore) Persist(ctx context.Context, rec contact.Record) error {
	tag, err := s.db.Exec(ctx, s.query, rec.Values()...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && isEmailConflict(pgErr.ConstraintName, pgErr.Detail) {
			return &ConflictError{Email: rec.Email, Err: err}
		}
		return &StoreError{Detail: err.Error(), Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &StoreError{Detail: "insert affected no rows"}
	}
	return nil
}
