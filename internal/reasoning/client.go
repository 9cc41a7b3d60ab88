// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reasoning adapts an external chat-completions service behind a
// narrow interface. The pipeline treats it as an opaque dependency that may
// fail, time out, or return malformed output; callers parse replies with the
// tolerant helpers in this package and fall back locally when parsing fails.
package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/meshintel/fit-engine/internal/httputil"
	"github.com/meshintel/fit-engine/pkg/types"
)

// Client invokes the reasoning service with a prompt and returns its
// free-form text reply.
type Client interface {
	Invoke(ctx context.Context, prompt string, temperature float64) (string, error)
}

// HTTPClient talks to an OpenAI-compatible chat-completions endpoint.
type HTTPClient struct {
	cfg    types.ReasoningConfig
	client *http.Client
}

// NewHTTPClient builds a client from the reasoning configuration.
func NewHTTPClient(cfg types.ReasoningConfig) *HTTPClient {
	return &HTTPClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Invoke sends the prompt as a single user message and returns the first
// choice's content. Rate-limited requests are retried with backoff; all
// other failures surface to the resilience layer as single errors.
func (c *HTTPClient) Invoke(ctx context.Context, prompt string, temperature float64) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("encoding reasoning request: %w", err)
	}

	endpoint := strings.TrimSuffix(c.cfg.Endpoint, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building reasoning request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, c.client, req, c.cfg.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("reasoning request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading reasoning response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reasoning service returned status %d: %s", resp.StatusCode, truncateForError(data))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decoding reasoning response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("reasoning response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func truncateForError(data []byte) string {
	const max = 200
	s := string(data)
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}
