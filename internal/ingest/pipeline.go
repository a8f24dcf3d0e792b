// Package ingest drives bulk contact imports.
//
// A Pipeline pulls raw rows from a Source strictly one at a time, normalizes
// and validates each one, and hands valid records to a store.Persister. The
// next row is not pulled until the store call for the current row has
// returned, so at most one insert is ever in flight and every row's outcome
// is known before it is counted.
//
// Row lifecycle:
//
//	Pending -> Normalized -> Validated{Valid|Invalid}
//	        -> Persisting -> Persisted{Success|Conflict|Failure} -> Counted
//
// Run lifecycle:
//
//	Running -> Draining -> Completed   (Summary returned)
//	Running -> Aborted                 (*AbortError returned, no Summary)
//
// Bad rows, duplicates and store failures are counted as rejections and the
// run continues. Only a source read fault or context cancellation ends a run
// early.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/JonMunkholm/contacts/internal/contact"
	"github.com/JonMunkholm/contacts/internal/logging"
	"github.com/JonMunkholm/contacts/internal/store"
	"github.com/google/uuid"
)

// MaxRecordedRejections caps Summary.Rejections. Counts stay exact.
var MaxRecordedRejections = 1000

// RowState is the state of the row currently in the pipeline.
type RowState string

const (
	RowInvalid       RowState = "invalid"
	RowPersisting    RowState = "persisting"
	RowPersisted     RowState = "persisted"
	RowConflict      RowState = "conflict"
	RowPersistFailed RowState = "persist_failed"
)

// RunState is the state of a whole import run.
type RunState string

const (
	RunRunning   RunState = "running"
	RunDraining  RunState = "draining"
	RunCompleted RunState = "completed"
	RunAborted   RunState = "aborted"
)

// Row outcome classes used in rejections and metrics.
const (
	ClassInserted   = "inserted"
	ClassInvalid    = "invalid"
	ClassConflict   = store.ClassConflict
	ClassStoreError = store.ClassStoreError
)

// Recorder receives pipeline events. Implemented by metrics.Collector.
type Recorder interface {
	RecordRow(class string)
	RecordRun(state string, inserted, rejected int, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordRow(string)                          {}
func (nopRecorder) RecordRun(string, int, int, time.Duration) {}

// RowResult is the terminal outcome of one row.
type RowResult struct {
	Line    int
	State   RowState // RowPersisted, RowInvalid, RowConflict or RowPersistFailed
	Email   string
	Reasons []string
}

// Inserted reports whether the row was stored.
func (r RowResult) Inserted() bool {
	return r.State == RowPersisted
}

// Class returns the outcome class of the row.
func (r RowResult) Class() string {
	switch r.State {
	case RowPersisted:
		return ClassInserted
	case RowConflict:
		return ClassConflict
	case RowPersistFailed:
		return ClassStoreError
	default:
		return ClassInvalid
	}
}

// Tally accumulates row outcomes for one run. It is a value; Add returns
// the updated tally.
type Tally struct {
	Inserted int
	Rejected int
}

// Add folds one row result into the tally.
func (t Tally) Add(r RowResult) Tally {
	if r.Inserted() {
		t.Inserted++
	} else {
		t.Rejected++
	}
	return t
}

// Total returns the number of rows counted.
func (t Tally) Total() int {
	return t.Inserted + t.Rejected
}

// Rejection describes one rejected row.
type Rejection struct {
	Line    int      `json:"line"`
	Email   string   `json:"email,omitempty"`
	Class   string   `json:"class"`
	Reasons []string `json:"reasons"`
}

// Summary is the final tally of a completed run. It is produced exactly
// once per run, and only when the source was read to the end.
type Summary struct {
	RunID      string        `json:"runId"`
	Inserted   int           `json:"insertedCount"`
	Rejected   int           `json:"rejectedCount"`
	Rejections []Rejection   `json:"rejections,omitempty"`
	Truncated  bool          `json:"rejectionsTruncated,omitempty"`
	Duration   time.Duration `json:"-"`
}

// Sentinel errors for run aborts.
var (
	ErrSourceRead = errors.New("source read failed")
	ErrCancelled  = errors.New("import cancelled")
)

// SourceReadError wraps a read fault reported by a Source.
type SourceReadError struct {
	Err error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("%s: %v", ErrSourceRead, e.Err)
}

func (e *SourceReadError) Is(target error) bool {
	return target == ErrSourceRead
}

func (e *SourceReadError) Unwrap() error {
	return e.Err
}

// AbortError is returned when a run ends before the source is exhausted.
// Rows counted before the abort stay committed in the store.
type AbortError struct {
	RunID    string
	Consumed int
	Tally    Tally
	Err      error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("import aborted after %d rows: %v", e.Consumed, e.Err)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

// Pipeline validates and persists contact rows.
type Pipeline struct {
	store    store.Persister
	profile  contact.Profile
	recorder Recorder
}

// NewPipeline creates a pipeline that stores valid rows in p. rec may be nil.
func NewPipeline(p store.Persister, rec Recorder) *Pipeline {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Pipeline{
		store:    p,
		profile:  contact.ImportProfile,
		recorder: rec,
	}
}

// Run drains src through the pipeline. On completion it returns the
// Summary; on a source fault or cancellation it returns an *AbortError and
// no Summary.
func (p *Pipeline) Run(ctx context.Context, src Source) (*Summary, error) {
	runID := uuid.NewString()
	start := time.Now()
	logger := logging.WithFields(ctx, "run_id", runID)

	state := RunRunning
	logger.Info("import started", "state", state)

	var (
		tally      Tally
		rejections []Rejection
		truncated  bool
	)

	abort := func(cause error) (*Summary, error) {
		state = RunAborted
		p.recorder.RecordRun(string(state), tally.Inserted, tally.Rejected, time.Since(start))
		logger.Error("import aborted",
			"state", state,
			"consumed", tally.Total(),
			"inserted", tally.Inserted,
			"rejected", tally.Rejected,
			"error", cause,
		)
		return nil, &AbortError{RunID: runID, Consumed: tally.Total(), Tally: tally, Err: cause}
	}

	for state == RunRunning {
		if err := ctx.Err(); err != nil {
			return abort(fmt.Errorf("%w: %w", ErrCancelled, err))
		}

		raw, err := src.Next()
		if errors.Is(err, io.EOF) {
			state = RunDraining
			logger.Debug("source exhausted", "state", state, "consumed", tally.Total())
			break
		}
		if err != nil {
			return abort(&SourceReadError{Err: err})
		}

		res := p.processRow(ctx, raw, logger)
		tally = tally.Add(res)
		p.recorder.RecordRow(res.Class())

		if !res.Inserted() {
			if len(rejections) < MaxRecordedRejections {
				rejections = append(rejections, Rejection{
					Line:    res.Line,
					Email:   res.Email,
					Class:   res.Class(),
					Reasons: res.Reasons,
				})
			} else {
				truncated = true
			}
		}
	}

	// Rows are processed synchronously, so nothing is in flight once the
	// source reports end of data.
	state = RunCompleted
	summary := &Summary{
		RunID:      runID,
		Inserted:   tally.Inserted,
		Rejected:   tally.Rejected,
		Rejections: rejections,
		Truncated:  truncated,
		Duration:   time.Since(start),
	}

	p.recorder.RecordRun(string(state), summary.Inserted, summary.Rejected, summary.Duration)
	logger.Info("import completed",
		"state", state,
		"inserted", summary.Inserted,
		"rejected", summary.Rejected,
		"duration_ms", summary.Duration.Milliseconds(),
	)

	return summary, nil
}

// processRow takes one row from the source to its terminal state.
func (p *Pipeline) processRow(ctx context.Context, raw contact.RawRow, logger *slog.Logger) RowResult {
	cand := contact.Normalize(raw)

	outcome := contact.Validate(cand, p.profile)
	if !outcome.Valid() {
		res := RowResult{
			Line:    cand.Line,
			State:   RowInvalid,
			Email:   cand.Email,
			Reasons: outcome.Reasons(),
		}
		attrs := []any{"line", res.Line, "reasons", res.Reasons}
		if cand.Malformed != "" {
			attrs = append(attrs, "detail", cand.Malformed)
		}
		logger.Warn("row rejected", attrs...)
		return res
	}

	rec := outcome.Record
	logger.Debug("persisting row", "line", cand.Line, "state", RowPersisting)

	err := p.store.Persist(ctx, rec)
	if err == nil {
		return RowResult{Line: cand.Line, State: RowPersisted, Email: rec.Email}
	}

	res := RowResult{
		Line:    cand.Line,
		Email:   rec.Email,
		Reasons: []string{err.Error()},
	}
	if errors.Is(err, store.ErrDuplicateEmail) {
		res.State = RowConflict
		logger.Warn("duplicate email attempted", "line", res.Line, "email", rec.Email, "class", ClassConflict)
	} else {
		res.State = RowPersistFailed
		logger.Error("row insert failed", "line", res.Line, "email", rec.Email, "class", ClassStoreError, "error", err)
	}
	return res
}
