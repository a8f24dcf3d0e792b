package web

// errors.go maps service errors to HTTP responses.
//
// Every error is logged with its technical detail and request ID, then sent
// to the client as {error, code, action, details}. The message and code come
// from core.MapError; the status comes from statusFor.

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/contacts/internal/contact"
	"github.com/JonMunkholm/contacts/internal/core"
	"github.com/JonMunkholm/contacts/internal/logging"
	"github.com/JonMunkholm/contacts/internal/store"
)

var errNoFile = errors.New("no file provided")

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	Action  string   `json:"action,omitempty"`
	Details []string `json:"details,omitempty"`
}

// respondError logs err and writes the user-facing response for it.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request rejected", args...)
	}

	resp := ErrorResponse{
		Error:  msg.Message,
		Code:   msg.Code,
		Action: msg.Action,
	}
	var invalid *contact.InvalidError
	if errors.As(err, &invalid) {
		resp.Details = invalid.Reasons()
	}

	writeJSON(w, status, resp)
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	var (
		maxBytes *http.MaxBytesError
		invalid  *contact.InvalidError
	)

	switch {
	case errors.As(err, &maxBytes), errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &invalid),
		errors.Is(err, core.ErrInvalidBody),
		errors.Is(err, store.ErrDuplicateEmail),
		errors.Is(err, errNoFile):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTooManyImports), errors.Is(err, core.ErrShuttingDown):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
