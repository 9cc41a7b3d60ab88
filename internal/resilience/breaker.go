// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resilience wraps calls to external resources with a circuit
// breaker, a per-call timeout, and bounded concurrency. Breaker state is
// process-wide and shared across concurrent pipeline runs; everything else
// in the pipeline is per-run.
package resilience

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/meshintel/fit-engine/pkg/types"
)

// State is the circuit breaker mode for one protected resource.
type State int

const (
	// StateClosed allows calls; consecutive failures are counted.
	StateClosed State = iota
	// StateOpen rejects calls until the reset timeout elapses.
	StateOpen
	// StateHalfOpen allows a single trial call to probe recovery.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitOpenError reports a call rejected because the resource's circuit is
// open. Callers must degrade locally rather than treating it as fatal.
type CircuitOpenError struct {
	Resource   string
	RetryAfter time.Duration
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit open for %s (retry in %s)", e.Resource, e.RetryAfter.Round(time.Second))
}

// IsCircuitOpen reports whether err is a circuit-open rejection.
func IsCircuitOpen(err error) bool {
	var coe *CircuitOpenError
	return errors.As(err, &coe)
}

// Breaker is the circuit state machine for one resource:
// CLOSED → OPEN after FailureThreshold consecutive failures,
// OPEN → HALF_OPEN after ResetTimeout, HALF_OPEN → CLOSED on a successful
// probe or back to OPEN on a failed one. All mutations happen under mu.
type Breaker struct {
	resource string
	cfg      types.BreakerConfig
	logger   *zap.Logger

	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time
	probing     bool

	// now is replaceable in tests to avoid real reset-timeout waits.
	now func() time.Time
}

// NewBreaker returns a closed breaker for the named resource.
func NewBreaker(resource string, cfg types.BreakerConfig, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Breaker{
		resource: resource,
		cfg:      cfg,
		logger:   logger.With(zap.String("resource", resource)),
		state:    StateClosed,
		now:      time.Now,
	}
}

// Allow reports whether a call may proceed. In the open state it returns a
// CircuitOpenError until the reset timeout elapses, at which point exactly
// one caller is admitted as the half-open probe.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil

	case StateOpen:
		elapsed := b.now().Sub(b.lastFailure)
		if elapsed < b.cfg.ResetTimeout {
			return &CircuitOpenError{Resource: b.resource, RetryAfter: b.cfg.ResetTimeout - elapsed}
		}
		b.state = StateHalfOpen
		b.probing = true
		b.logger.Info("circuit half-open, probing recovery")
		return nil

	case StateHalfOpen:
		if b.probing {
			// A probe is already in flight. Keep rejecting until it reports.
			return &CircuitOpenError{Resource: b.resource, RetryAfter: b.cfg.ResetTimeout}
		}
		b.probing = true
		return nil

	default:
		return fmt.Errorf("unknown circuit state %d for %s", b.state, b.resource)
	}
}

// Record reports a call outcome. Pass nil for success. Context cancellation
// by the caller is not counted either way; timeouts are failures.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.onSuccess()
		return
	}
	b.onFailure()
}

func (b *Breaker) onSuccess() {
	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.state = StateClosed
		b.failures = 0
		b.probing = false
		b.logger.Info("circuit closed, resource recovered")
	case StateOpen:
		// A call admitted before the circuit opened finished late. Ignore.
	}
}

func (b *Breaker) onFailure() {
	b.lastFailure = b.now()
	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.state = StateOpen
			b.logger.Warn("circuit opened",
				zap.Int("consecutive_failures", b.failures),
				zap.Duration("reset_timeout", b.cfg.ResetTimeout))
		}
	case StateHalfOpen:
		b.state = StateOpen
		b.probing = false
		b.logger.Warn("circuit reopened, probe failed")
	case StateOpen:
	}
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the current consecutive-failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
