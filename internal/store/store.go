// Package store is the persistence gateway for contact records.
//
// A Persister issues exactly one parameterized INSERT per call and
// classifies the result: nil on success, a *ConflictError when the unique
// email constraint rejects the row, or a *StoreError for anything else.
// Values are always bound as parameters; the table name is quoted once at
// construction time, so no caller data is ever spliced into SQL text.
//
// Two drivers are provided. PgxStore runs over pgx/v5 and is the default;
// SQLStore runs over database/sql with lib/pq.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/contacts/internal/contact"
)

// DefaultTable is the contacts table name used when none is configured.
const DefaultTable = "contacts"

// Persister stores one validated contact record.
type Persister interface {
	Persist(ctx context.Context, rec contact.Record) error
}

// insertSQL builds the INSERT statement for an already-quoted table name.
func insertSQL(quotedTable string) string {
	placeholders := make([]string, len(contact.Columns))
	for i := range contact.Columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quotedTable,
		strings.Join(contact.Columns, ", "),
		strings.Join(placeholders, ", "),
	)
}

// splitTable splits an optionally schema-qualified table name.
func splitTable(table string) []string {
	if table == "" {
		table = DefaultTable
	}
	return strings.Split(table, ".")
}
