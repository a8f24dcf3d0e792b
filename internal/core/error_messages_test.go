package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/JonMunkholm/contacts/internal/contact"
	"github.com/JonMunkholm/contacts/internal/ingest"
	"github.com/JonMunkholm/contacts/internal/store"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name: "nil error returns empty",
		},
		{
			name:        "invalid contact",
			err:         &contact.InvalidError{Errors: []contact.ValidationError{{Field: "email", Message: "must look like name@domain.tld"}}},
			wantCode:    "VAL001",
			wantMessage: "Invalid input data",
		},
		{
			name:        "duplicate email",
			err:         &store.ConflictError{Email: "jane@doe.com"},
			wantCode:    "DB001",
			wantMessage: "Email already exists. Please use another email.",
		},
		{
			name:        "connection refused store error",
			err:         &store.StoreError{Detail: "dial tcp 127.0.0.1:5432: connect: connection refused"},
			wantCode:    "DB002",
			wantMessage: "Database error",
		},
		{
			name:        "generic store error",
			err:         &store.StoreError{Detail: "relation does not exist"},
			wantCode:    "DB005",
			wantMessage: "Database error",
		},
		{
			name:        "missing header column beats generic read fault",
			err:         &ingest.AbortError{Err: &ingest.SourceReadError{Err: errors.New("missing required column age")}},
			wantCode:    "FILE003",
			wantMessage: "Required column is missing from CSV",
		},
		{
			name:        "missing file",
			err:         &ingest.SourceReadError{Err: fmt.Errorf("open person_info.csv: %w", fs.ErrNotExist)},
			wantCode:    "FILE004",
			wantMessage: "Import file not found",
		},
		{
			name:        "read fault",
			err:         &ingest.AbortError{Err: &ingest.SourceReadError{Err: errors.New("unexpected EOF")}},
			wantCode:    "FILE005",
			wantMessage: "Could not read the CSV file",
		},
		{
			name:        "limiter saturated",
			err:         ErrTooManyImports,
			wantCode:    "IMP001",
			wantMessage: "System is busy processing other imports",
		},
		{
			name:        "run timeout",
			err:         fmt.Errorf("%w: %w", ingest.ErrCancelled, context.DeadlineExceeded),
			wantCode:    "IMP003",
			wantMessage: "Import timed out",
		},
		{
			name:        "run cancelled",
			err:         fmt.Errorf("%w: %w", ingest.ErrCancelled, context.Canceled),
			wantCode:    "IMP004",
			wantMessage: "Import was cancelled",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("DUPLICATE KEY value violates unique constraint"),
			wantCode:    "DB001",
			wantMessage: "Email already exists. Please use another email.",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError().Code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError().Message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrTooManyImports)
	want := "System is busy processing other imports (Code: IMP001). Please wait a moment and try again"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("nil should not be user facing")
	}
	if !IsUserFacing(ErrShuttingDown) {
		t.Error("ErrShuttingDown should be user facing")
	}
	if IsUserFacing(errors.New("segfault in the matrix")) {
		t.Error("unknown errors should not be user facing")
	}
}
