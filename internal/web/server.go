// Package web provides the HTTP server and handlers for contact intake.
package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/contacts/internal/config"
	"github.com/JonMunkholm/contacts/internal/contact"
	"github.com/JonMunkholm/contacts/internal/core"
	"github.com/JonMunkholm/contacts/internal/ingest"
	mw "github.com/JonMunkholm/contacts/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// ContactService is the part of core.Service the handlers use.
type ContactService interface {
	SubmitContact(ctx context.Context, form core.ContactForm) (contact.Record, error)
	ImportConfigured(ctx context.Context) (*ingest.Summary, error)
	ImportReader(ctx context.Context, r io.Reader, size int64) (*ingest.Summary, error)
	LimiterStatus() core.LimiterStatus
}

// Server is the HTTP server for contact intake.
type Server struct {
	service ContactService
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server

	metrics  http.Handler
	recorder mw.StatusRecorder

	submitLimiter *mw.RateLimiter
	importLimiter *mw.RateLimiter
}

// NewServer creates a Server. metricsHandler serves /metrics and rec counts
// response codes; either may be nil.
func NewServer(service ContactService, cfg *config.Config, metricsHandler http.Handler, rec mw.StatusRecorder) *Server {
	s := &Server{
		service:  service,
		cfg:      cfg,
		router:   chi.NewRouter(),
		metrics:  metricsHandler,
		recorder: rec,
	}

	if cfg.Rate.Enabled {
		s.submitLimiter = mw.NewRateLimiter("submit", cfg.Rate.RequestsPerMinute, 0)
		s.importLimiter = mw.NewRateLimiter("import", cfg.Rate.ImportLimit, 0)
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger(s.recorder))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Security.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics)
	}

	// Form submission
	s.router.Group(func(r chi.Router) {
		// The service bounds the store call with SERVER_REQUEST_TIMEOUT.
		r.Use(limit(s.submitLimiter))
		r.Post("/submit", s.handleSubmit)
		r.Post("/api/contacts", s.handleSubmit)
	})

	// Bulk import
	s.router.Group(func(r chi.Router) {
		r.Use(limit(s.importLimiter))
		r.Get("/import", s.handleImport)
		r.Get("/api/import", s.handleImport)
		r.Post("/api/import", s.handleUpload)
	})
}

// limit returns rl's middleware, or a pass-through when rate limiting is off.
func limit(rl *mw.RateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Middleware
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout, // 0 leaves long imports unbounded
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and its rate limiters.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, rl := range []*mw.RateLimiter{s.submitLimiter, s.importLimiter} {
		if rl != nil {
			rl.Stop()
		}
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are only logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
