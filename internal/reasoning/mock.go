// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reasoning

import (
	"context"
	"fmt"
	"sync"
)

// MockClient replays scripted replies for tests. Replies are consumed in
// order; when the script is exhausted the last entry repeats. An Err, when
// set, is returned for every call instead.
type MockClient struct {
	mu      sync.Mutex
	Replies []string
	Err     error

	// Fn, when set, overrides the scripted replies entirely.
	Fn func(ctx context.Context, prompt string, temperature float64) (string, error)

	calls   int
	prompts []string
}

// Invoke implements Client.
func (m *MockClient) Invoke(ctx context.Context, prompt string, temperature float64) (string, error) {
	m.mu.Lock()
	m.calls++
	m.prompts = append(m.prompts, prompt)
	fn := m.Fn
	err := m.Err
	var reply string
	if len(m.Replies) > 0 {
		idx := m.calls - 1
		if idx >= len(m.Replies) {
			idx = len(m.Replies) - 1
		}
		reply = m.Replies[idx]
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt, temperature)
	}
	if err != nil {
		return "", err
	}
	if reply == "" && len(m.Replies) == 0 {
		return "", fmt.Errorf("mock reasoning client has no scripted replies")
	}
	return reply, nil
}

// Calls returns how many times Invoke was called.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Prompts returns a copy of every prompt seen, in call order.
func (m *MockClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}
