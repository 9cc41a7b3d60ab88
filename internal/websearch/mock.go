// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package websearch

import (
	"context"
	"sync"

	"github.com/meshintel/fit-engine/pkg/types"
)

// MockBackend replays scripted result batches for tests: call n receives
// batch n, and calls past the script receive the last batch. A non-nil Err
// is returned for every call instead.
type MockBackend struct {
	mu      sync.Mutex
	Batches [][]types.CandidateDocument
	Err     error

	calls   int
	queries []string
}

// Name implements Backend.
func (m *MockBackend) Name() string { return "mock" }

// Search implements Backend.
func (m *MockBackend) Search(_ context.Context, query string, _ int) ([]types.CandidateDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.queries = append(m.queries, query)
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Batches) == 0 {
		return nil, nil
	}
	idx := m.calls - 1
	if idx >= len(m.Batches) {
		idx = len(m.Batches) - 1
	}
	return m.Batches[idx], nil
}

// Queries returns every query seen, in call order.
func (m *MockBackend) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.queries))
	copy(out, m.queries)
	return out
}
