package store

import (
	"errors"
	"fmt"
	"strings"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// isEmailConflict reports whether a unique violation came from the email
// constraint. The constraint name decides when the server sends one;
// otherwise the "Key (email)=..." detail does. A violation carrying neither
// is taken as the email constraint, the only unique key callers can hit.
func isEmailConflict(constraint, detail string) bool {
	if constraint != "" {
		return strings.Contains(strings.ToLower(constraint), "email")
	}
	if detail != "" {
		return strings.Contains(detail, "(email)")
	}
	return true
}

// ErrDuplicateEmail matches any ConflictError via errors.Is.
var ErrDuplicateEmail = errors.New("duplicate key: email already exists")

// Outcome classes reported in diagnostics and metrics.
const (
	ClassConflict   = "conflict"
	ClassStoreError = "store_error"
)

// ConflictError reports an insert rejected by the unique email constraint.
type ConflictError struct {
	Email string
	Err   error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("duplicate key: email %q already exists", e.Email)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrDuplicateEmail
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// StoreError reports any other failed insert. Detail is an opaque diagnostic
// from the database driver.
type StoreError struct {
	Detail string
	Err    error
}

func (e *StoreError) Error() string {
	return "store error: " + e.Detail
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Classify returns the outcome class for an error returned by Persist.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrDuplicateEmail) {
		return ClassConflict
	}
	return ClassStoreError
}
