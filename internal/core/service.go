package core

import (
	"context"
	"errors"
	"time"

	"github.com/JonMunkholm/contacts/internal/config"
	"github.com/JonMunkholm/contacts/internal/contact"
	"github.com/JonMunkholm/contacts/internal/ingest"
	"github.com/JonMunkholm/contacts/internal/logging"
	"github.com/JonMunkholm/contacts/internal/store"
)

// Submission outcome classes.
const (
	SubmitInserted   = "inserted"
	SubmitInvalid    = "invalid"
	SubmitConflict   = store.ClassConflict
	SubmitStoreError = store.ClassStoreError
)

// Recorder receives service events. Implemented by metrics.Collector.
type Recorder interface {
	ingest.Recorder
	RecordSubmission(class string)
}

type nopRecorder struct{}

func (nopRecorder) RecordRow(string)                          {}
func (nopRecorder) RecordRun(string, int, int, time.Duration) {}
func (nopRecorder) RecordSubmission(string)                   {}

// Options tunes a Service.
type Options struct {
	CSVPath       string
	MaxFileSize   int64
	MaxConcurrent int
	MaxWaitTime   time.Duration
	ImportTimeout time.Duration
	SubmitTimeout time.Duration

	// ProgressEvery logs import progress every N rows; 0 disables it.
	ProgressEvery int
}

// OptionsFromConfig maps loaded configuration onto service options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		CSVPath:       cfg.Import.CSVPath,
		MaxFileSize:   cfg.Import.MaxFileSize,
		MaxConcurrent: cfg.Import.MaxConcurrent,
		MaxWaitTime:   cfg.Import.MaxWaitTime,
		ImportTimeout: cfg.Import.Timeout,
		SubmitTimeout: cfg.Server.RequestTimeout,
		ProgressEvery: 1000,
	}
}

// Service handles form submissions and import runs.
type Service struct {
	store    store.Persister
	pipeline *ingest.Pipeline
	limiter  *RunLimiter
	recorder Recorder
	opts     Options
}

// NewService wires a Service around p. rec may be nil.
func NewService(p store.Persister, opts Options, rec Recorder) *Service {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Service{
		store:    p,
		pipeline: ingest.NewPipeline(p, rec),
		limiter:  NewRunLimiter(opts.MaxConcurrent, opts.MaxWaitTime),
		recorder: rec,
		opts:     opts,
	}
}

// Options returns the options the service was built with.
func (s *Service) Options() Options {
	return s.opts
}

// SubmitContact validates a form submission and stores it. It returns a
// *contact.InvalidError, a *store.ConflictError or a *store.StoreError on
// failure.
func (s *Service) SubmitContact(ctx context.Context, form ContactForm) (contact.Record, error) {
	logger := logging.FromContext(ctx)

	cand := contact.Normalize(form.RawRow())
	outcome := contact.Validate(cand, contact.FormProfile)
	if !outcome.Valid() {
		s.recorder.RecordSubmission(SubmitInvalid)
		logger.Warn("submission rejected", "email", cand.Email, "reasons", outcome.Reasons())
		return contact.Record{}, outcome.Err()
	}

	if s.opts.SubmitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.SubmitTimeout)
		defer cancel()
	}

	rec := outcome.Record
	if err := s.store.Persist(ctx, rec); err != nil {
		class := store.Classify(err)
		s.recorder.RecordSubmission(class)
		if errors.Is(err, store.ErrDuplicateEmail) {
			logger.Warn("duplicate email attempted", "email", rec.Email)
		} else {
			logger.Error("database insert failed", "email", rec.Email, "error", err)
		}
		return contact.Record{}, err
	}

	s.recorder.RecordSubmission(SubmitInserted)
	logger.Info("contact saved", "email", rec.Email)
	return rec, nil
}

// LimiterStatus reports import slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForImports stops admitting runs and waits for active ones to finish.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
