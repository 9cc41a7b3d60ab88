// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"testing"

	"github.com/meshintel/fit-engine/pkg/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		category types.SourceCategory
		mult     float64
	}{
		{"video", "https://www.youtube.com/watch?v=abc", types.SourceVideo, 0.20},
		{"social", "https://x.com/acme/status/1", types.SourceSocial, 0.50},
		{"wiki", "https://en.wikipedia.org/wiki/Acme", types.SourceWiki, 1.10},
		{"academic", "https://arxiv.org/abs/2301.07041", types.SourceAcademic, 1.08},
		{"forum", "https://www.reddit.com/r/cscareers", types.SourceForum, 1.00},
		{"news", "https://techcrunch.com/2026/01/acme", types.SourceNews, 0.85},
		{"general fallback", "https://acme.example.io/about", types.SourceGeneral, 1.00},
		{"subdomain matches parent", "https://careers.linkedin.com/jobs", types.SourceSocial, 0.50},
		{"case insensitive", "https://WWW.YouTube.COM/x", types.SourceVideo, 0.20},
		{"www stripped", "https://www.glassdoor.com/Reviews", types.SourceForum, 1.00},
		{"bare domain", "wikipedia.org/wiki/Acme", types.SourceWiki, 1.10},
		{"unparsable", "://not a url", types.SourceGeneral, 1.00},
		{"empty", "", types.SourceGeneral, 1.00},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, mult := Classify(tt.url)
			if cat != tt.category {
				t.Errorf("Classify(%q) category = %q, want %q", tt.url, cat, tt.category)
			}
			if mult != tt.mult {
				t.Errorf("Classify(%q) multiplier = %v, want %v", tt.url, mult, tt.mult)
			}
		})
	}
}

func TestAnnotate(t *testing.T) {
	doc := types.CandidateDocument{URL: "https://vimeo.com/123", Title: "Office tour"}
	got := Annotate(doc)
	if got.Category != types.SourceVideo || got.Extractability != 0.20 {
		t.Errorf("Annotate() = %q/%v, want video/0.20", got.Category, got.Extractability)
	}
	if doc.Category != "" {
		t.Error("Annotate mutated its argument")
	}
}
