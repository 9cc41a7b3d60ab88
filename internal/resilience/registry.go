// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/meshintel/fit-engine/pkg/types"
)

// Resource names for the two protected external adapters.
const (
	ResourceSearch    = "search"
	ResourceReasoning = "reasoning"
)

// TimeoutError reports a call that exceeded its wall-clock bound. Timeouts
// count as failures for circuit-breaker purposes.
type TimeoutError struct {
	Resource string
	Limit    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s call exceeded %s timeout", e.Resource, e.Limit)
}

// IsTimeout reports whether err is a call-timeout failure.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

type guarded struct {
	breaker *Breaker
	permits *semaphore.Weighted
	timeout time.Duration
}

// Registry owns the breakers and permit semaphores for every protected
// resource. One registry is constructed at process startup, injected into
// the pipeline, and never recreated mid-run.
type Registry struct {
	mu        sync.RWMutex
	resources map[string]*guarded
	logger    *zap.Logger
}

// NewRegistry builds a registry with breakers for the search and reasoning
// resources per the supplied configuration.
func NewRegistry(cfg types.ResilienceConfig, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		resources: make(map[string]*guarded),
		logger:    logger,
	}
	r.Register(ResourceSearch, cfg.Search)
	r.Register(ResourceReasoning, cfg.Reasoning)
	return r
}

// Register adds a protected resource. Registering an existing name replaces
// its breaker, which resets circuit state; it is intended for startup only.
func (r *Registry) Register(resource string, cfg types.BreakerConfig) {
	permits := cfg.Permits
	if permits <= 0 {
		permits = 1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resources[resource] = &guarded{
		breaker: NewBreaker(resource, cfg, r.logger),
		permits: semaphore.NewWeighted(int64(permits)),
		timeout: cfg.CallTimeout,
	}
}

// Breaker returns the breaker for a resource, or nil if unregistered.
func (r *Registry) Breaker(resource string) *Breaker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.resources[resource]
	if !ok {
		return nil
	}
	return g.breaker
}

// Do runs fn against a protected resource: it acquires a concurrency permit,
// consults the breaker, bounds the call with the configured timeout, and
// records the outcome. Caller-initiated cancellation is recorded as neither
// success nor failure.
func (r *Registry) Do(ctx context.Context, resource string, fn func(ctx context.Context) error) error {
	r.mu.RLock()
	g, ok := r.resources[resource]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unregistered resource %q", resource)
	}

	if err := g.permits.Acquire(ctx, 1); err != nil {
		return err
	}
	defer g.permits.Release(1)

	if err := g.breaker.Allow(); err != nil {
		return err
	}

	callCtx := ctx
	var cancel context.CancelFunc
	if g.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	err := fn(callCtx)
	if err == nil {
		g.breaker.Record(nil)
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		// The per-call bound fired, not the caller's context.
		err = &TimeoutError{Resource: resource, Limit: g.timeout}
		g.breaker.Record(err)
		return err
	}
	if errors.Is(err, context.Canceled) {
		g.breaker.Record(nil)
		return err
	}

	g.breaker.Record(err)
	return err
}

// Call is Do for functions that return a value.
func Call[T any](ctx context.Context, r *Registry, resource string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := r.Do(ctx, resource, func(ctx context.Context) error {
		var innerErr error
		out, innerErr = fn(ctx)
		return innerErr
	})
	return out, err
}
