// Package middleware provides HTTP middleware for the contact server.
package middleware

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/contacts/internal/logging"
)

// StatusRecorder receives one call per response. Implemented by
// metrics.Collector.
type StatusRecorder interface {
	RecordHTTPStatus(statusCode int)
}

// Logger logs one structured entry per request with method, path, status,
// duration_ms and user_agent. request_id and client_ip come from the
// request-scoped logger. When rec is non-nil the status code is also
// counted.
func Logger(rec StatusRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(ww, r)

			if rec != nil {
				rec.RecordHTTPStatus(ww.status)
			}

			logging.FromContext(r.Context()).Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"user_agent", r.UserAgent(),
			)
		})
	}
}

// responseWriter captures the status code written by the handler.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
