package web

import (
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/JonMunkholm/contacts/internal/core"
	"github.com/JonMunkholm/contacts/internal/logging"
)

const (
	// maxFormBytes caps a single submission body.
	maxFormBytes = 1 << 20

	// multipartMemory is held in memory before upload parts spill to disk.
	multipartMemory = 10 << 20

	// multipartOverhead allows for boundaries and headers around the file.
	multipartOverhead = 1 << 20
)

// SubmitResponse is the body of a successful submission.
type SubmitResponse struct {
	Message string `json:"message"`
}

// HealthResponse reports server and import capacity.
type HealthResponse struct {
	Status  string             `json:"status"`
	Imports core.LimiterStatus `json:"imports"`

	// RateLimitedClients counts the clients each limiter tracks; absent
	// when rate limiting is off.
	RateLimitedClients map[string]int `json:"rate_limited_clients,omitempty"`
}

// handleSubmit validates and stores one contact. It accepts a JSON body or
// an HTML form post.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	form, err := readForm(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if _, err := s.service.SubmitContact(r.Context(), form); err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SubmitResponse{Message: "Data saved successfully!"})
}

func readForm(r *http.Request) (core.ContactForm, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return core.ContactForm{}, fmt.Errorf("%w: %w", core.ErrInvalidBody, err)
		}
		return core.FormFromValues(r.PostForm), nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxFormBytes); err != nil {
			return core.ContactForm{}, fmt.Errorf("%w: %w", core.ErrInvalidBody, err)
		}
		return core.FormFromValues(r.PostForm), nil
	default:
		return core.DecodeForm(r.Body)
	}
}

// handleImport runs an import over the configured CSV file.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.ImportConfigured(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleUpload runs an import over an uploaded CSV file. The file is
// streamed through the pipeline, never read whole into memory.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			respondError(w, r, fmt.Errorf("%w: %w", core.ErrFileTooLarge, err))
			return
		}
		respondError(w, r, fmt.Errorf("%w: %w", core.ErrInvalidBody, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errNoFile)
		return
	}
	defer file.Close()

	logging.FromContext(r.Context()).Info("import upload received",
		"filename", header.Filename,
		"bytes", header.Size,
	)

	summary, err := s.service.ImportReader(r.Context(), file, header.Size)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleHealth reports 200 while the server accepts imports and 503 once
// it is draining for shutdown.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.service.LimiterStatus()

	resp := HealthResponse{Status: "ok", Imports: status}
	if s.submitLimiter != nil {
		resp.RateLimitedClients = map[string]int{
			"submit": s.submitLimiter.ClientCount(),
			"import": s.importLimiter.ClientCount(),
		}
	}
	code := http.StatusOK
	if status.Draining {
		resp.Status = "draining"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}
