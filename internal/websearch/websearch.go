// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package websearch queries a web search provider and returns candidate
// documents for scoring. Each provider implements the Backend interface per
// the Strategy pattern so tests can supply a mock.
package websearch

import (
	"context"
	"strings"

	"github.com/meshintel/fit-engine/pkg/types"
)

// Backend searches a single web search provider.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, k int) ([]types.CandidateDocument, error)
}

// Dedupe merges result lists from several queries, dropping documents whose
// URL was already seen. Order is preserved.
func Dedupe(lists ...[]types.CandidateDocument) []types.CandidateDocument {
	seen := make(map[string]bool)
	var out []types.CandidateDocument
	for _, list := range lists {
		for _, doc := range list {
			key := normalizeURL(doc.URL)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, doc)
		}
	}
	return out
}

func normalizeURL(raw string) string {
	u := strings.TrimSpace(strings.ToLower(raw))
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimPrefix(u, "www.")
	return strings.TrimSuffix(u, "/")
}

// ClampSnippet truncates a snippet to the carried maximum.
func ClampSnippet(s string) string {
	if len(s) <= types.SnippetMaxLen {
		return s
	}
	return s[:types.SnippetMaxLen]
}
