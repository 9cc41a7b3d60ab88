// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/meshintel/fit-engine/pkg/types"
)

func TestDedupe(t *testing.T) {
	a := []types.CandidateDocument{
		{URL: "https://www.acme.com/about", Title: "About"},
		{URL: "https://glassdoor.com/acme", Title: "Reviews"},
	}
	b := []types.CandidateDocument{
		{URL: "http://acme.com/about/", Title: "About (dup)"},
		{URL: "https://acme.com/jobs", Title: "Jobs"},
	}

	got := Dedupe(a, b)
	if len(got) != 3 {
		t.Fatalf("Dedupe() len = %d, want 3", len(got))
	}
	if got[0].Title != "About" {
		t.Errorf("first kept document = %q, want original", got[0].Title)
	}
}

func TestClampSnippet(t *testing.T) {
	long := strings.Repeat("x", types.SnippetMaxLen+100)
	if got := ClampSnippet(long); len(got) != types.SnippetMaxLen {
		t.Errorf("ClampSnippet() len = %d, want %d", len(got), types.SnippetMaxLen)
	}
	if got := ClampSnippet("short"); got != "short" {
		t.Errorf("ClampSnippet(short) = %q", got)
	}
}

func TestTavilySearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req tavilyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.APIKey != "tv_test" || req.Query != "acme culture" || req.MaxResults != 5 {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "Acme careers", "url": "https://acme.com/careers", "content": strings.Repeat("a", 600)},
				{"title": "No URL", "url": "", "content": "dropped"},
			},
		})
	}))
	defer srv.Close()

	b := NewTavily(types.SearchConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test/0.1"},
		APIKey:     "tv_test",
		Endpoint:   srv.URL,
		MaxResults: 10,
		Depth:      "basic",
	})

	docs, err := b.Search(context.Background(), "acme culture", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("Search() len = %d, want 1 (empty URL dropped)", len(docs))
	}
	if len(docs[0].Snippet) != types.SnippetMaxLen {
		t.Errorf("snippet len = %d, want clamped to %d", len(docs[0].Snippet), types.SnippetMaxLen)
	}
}

func TestTavilySearchErrors(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		b := NewTavily(types.SearchConfig{})
		if _, err := b.Search(context.Background(), "q", 5); err == nil {
			t.Fatal("Search() error = nil, want non-nil")
		}
	})

	t.Run("upstream error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusBadGateway)
		}))
		defer srv.Close()

		b := NewTavily(types.SearchConfig{
			HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second},
			APIKey:     "tv_test",
			Endpoint:   srv.URL,
		})
		if _, err := b.Search(context.Background(), "q", 5); err == nil {
			t.Fatal("Search() error = nil, want non-nil")
		}
	})
}
