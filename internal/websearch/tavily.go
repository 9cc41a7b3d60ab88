// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/meshintel/fit-engine/internal/httputil"
	"github.com/meshintel/fit-engine/pkg/types"
)

const tavilyEndpoint = "https://api.tavily.com/search"

// TavilyBackend queries the Tavily search API.
type TavilyBackend struct {
	cfg    types.SearchConfig
	client *http.Client
}

// NewTavily builds a Tavily backend from the search configuration.
func NewTavily(cfg types.SearchConfig) *TavilyBackend {
	return &TavilyBackend{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name implements Backend.
func (b *TavilyBackend) Name() string { return "tavily" }

type tavilyRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search implements Backend. Snippets are clamped to the carried maximum;
// category annotation happens later in the pipeline.
func (b *TavilyBackend) Search(ctx context.Context, query string, k int) ([]types.CandidateDocument, error) {
	if b.cfg.APIKey == "" {
		return nil, fmt.Errorf("tavily: no API key configured")
	}
	if k <= 0 {
		k = b.cfg.MaxResults
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:      b.cfg.APIKey,
		Query:       query,
		MaxResults:  k,
		SearchDepth: b.cfg.Depth,
	})
	if err != nil {
		return nil, fmt.Errorf("tavily: encoding request: %w", err)
	}

	endpoint := b.cfg.Endpoint
	if endpoint == "" {
		endpoint = tavilyEndpoint
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tavily: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", b.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.client, req, 2)
	if err != nil {
		return nil, fmt.Errorf("tavily: request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("tavily: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily: status %d", resp.StatusCode)
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("tavily: decoding response: %w", err)
	}

	docs := make([]types.CandidateDocument, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.URL == "" {
			continue
		}
		docs = append(docs, types.CandidateDocument{
			URL:     r.URL,
			Title:   r.Title,
			Snippet: ClampSnippet(r.Content),
		})
	}
	return docs, nil
}
