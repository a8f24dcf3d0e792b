package core

// run_limiter.go bounds how many import runs execute at once.
//
// Each run holds one slot for its whole lifetime. When every slot is taken
// a new run waits up to maxWait before failing with ErrTooManyImports.
// WaitForDrain stops admitting runs and blocks until the active ones finish,
// which is how the server shuts down without cutting an import short.

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrTooManyImports is returned when no slot frees up within the wait
	// time. Clients should retry after a short delay.
	ErrTooManyImports = errors.New("too many imports in progress")

	// ErrShuttingDown is returned once draining has started.
	ErrShuttingDown = errors.New("server is shutting down")
)

const (
	DefaultMaxConcurrentImports = 2
	DefaultMaxWaitTime          = 10 * time.Second
)

// RunLimiter is a semaphore over import runs.
type RunLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu       sync.Mutex
	active   int
	idle     chan struct{} // closed whenever active == 0
	draining bool
}

// NewRunLimiter allows at most maxConcurrent runs at once.
func NewRunLimiter(maxConcurrent int, maxWait time.Duration) *RunLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentImports
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	idle := make(chan struct{})
	close(idle)

	return &RunLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
		idle:    idle,
	}
}

// Acquire takes a slot, waiting up to the limiter's max wait. The caller
// must call Release exactly once after a nil return.
func (l *RunLimiter) Acquire(ctx context.Context) error {
	if l.isDraining() {
		return ErrShuttingDown
	}

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		return l.admit()
	case <-timer.C:
		return ErrTooManyImports
	case <-ctx.Done():
		return ctx.Err()
	}
}

// admit records a slot taken from the channel, giving it back if draining
// started in the meantime.
func (l *RunLimiter) admit() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.draining {
		<-l.slots
		return ErrShuttingDown
	}
	if l.active == 0 {
		l.idle = make(chan struct{})
	}
	l.active++
	return nil
}

// Release frees a slot taken by Acquire.
func (l *RunLimiter) Release() {
	l.mu.Lock()
	l.active--
	if l.active == 0 {
		close(l.idle)
	}
	l.mu.Unlock()

	<-l.slots
}

func (l *RunLimiter) isDraining() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.draining
}

// WaitForDrain refuses new runs and blocks until active runs complete or
// ctx is done.
func (l *RunLimiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	l.draining = true
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LimiterStatus is a snapshot of limiter state.
type LimiterStatus struct {
	Active        int  `json:"active"`
	Available     int  `json:"available"`
	MaxConcurrent int  `json:"max_concurrent"`
	Draining      bool `json:"draining"`
}

// Status returns the current limiter state.
func (l *RunLimiter) Status() LimiterStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	return LimiterStatus{
		Active:        l.active,
		Available:     cap(l.slots) - l.active,
		MaxConcurrent: cap(l.slots),
		Draining:      l.draining,
	}
}
