package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/contacts/internal/contact"
	"github.com/lib/pq"
)

// SQLExecer is the subset of database/sql used by SQLStore.
// Satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type SQLExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SQLStore persists contacts through database/sql and lib/pq.
type SQLStore struct {
	db    SQLExecer
	query string
}

// NewSQLStore creates a store writing to table (schema-qualified allowed).
func NewSQLStore(db SQLExecer, table string) *SQLStore {
	parts := splitTable(table)
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return &SQLStore{
		db:    db,
		query: insertSQL(strings.Join(parts, ".")),
	}
}

// OpenSQL opens a lib/pq connection. sql.Open does not connect; callers
// should Ping before use.
func OpenSQL(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// Persist inserts rec and classifies the outcome.
func (s *SQLStore) Persist(ctx context.Context, rec contact.Record) error {
	res, err := s.db.ExecContext(ctx, s.query, rec.Values()...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && isEmailConflict(pqErr.Constraint, pqErr.Detail) {
			return &ConflictError{Email: rec.Email, Err: err}
		}
		return &StoreError{Detail: err.Error(), Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &StoreError{Detail: "insert affected no rows"}
	}
	return nil
}
