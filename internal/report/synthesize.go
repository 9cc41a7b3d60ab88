// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report holds the downstream stages that turn scored and enriched
// sources into the final deliverable: record synthesis, gap analysis,
// confidence calibration, and report assembly with JSON/YAML export.
package report

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/meshintel/fit-engine/internal/reasoning"
	"github.com/meshintel/fit-engine/internal/resilience"
	"github.com/meshintel/fit-engine/pkg/types"
)

// synthesisTemperature keeps record synthesis mostly deterministic while
// allowing some summarization freedom.
const synthesisTemperature = 0.3

// docExcerptLimit bounds how much of each source is quoted in a prompt.
const docExcerptLimit = 2000

// Synthesizer builds research records from candidate documents through the
// reasoning service.
type Synthesizer struct {
	client   reasoning.Client
	registry *resilience.Registry
	logger   *zap.Logger
}

// NewSynthesizer builds a synthesizer. The registry guards every call.
func NewSynthesizer(client reasoning.Client, registry *resilience.Registry, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{client: client, registry: registry, logger: logger}
}

type recordReply struct {
	Summary          string   `json:"summary"`
	TechTerms        []string `json:"tech_terms"`
	RequirementTerms []string `json:"requirement_terms"`
	CultureSignals   []string `json:"culture_signals"`
}

// Synthesize condenses the given documents into a research record. Enriched
// content is preferred over the snippet when present. An empty document set
// yields an empty record without a reasoning call.
func (s *Synthesizer) Synthesize(ctx context.Context, q types.QueryContext, docs []types.CandidateDocument) (types.ResearchRecord, error) {
	if len(docs) == 0 {
		return types.ResearchRecord{}, nil
	}
	prompt := buildSynthesisPrompt(q, docs)

	reply, err := resilience.Call(ctx, s.registry, resilience.ResourceReasoning, func(ctx context.Context) (string, error) {
		return s.client.Invoke(ctx, prompt, synthesisTemperature)
	})
	if err != nil {
		return types.ResearchRecord{}, fmt.Errorf("synthesis call: %w", err)
	}

	var parsed recordReply
	if err := reasoning.ParseStructured(reply, &parsed); err != nil {
		return types.ResearchRecord{}, fmt.Errorf("synthesis reply: %w", err)
	}
	return types.ResearchRecord{
		Summary:          parsed.Summary,
		TechTerms:        parsed.TechTerms,
		RequirementTerms: parsed.RequirementTerms,
		CultureSignals:   parsed.CultureSignals,
	}, nil
}

func buildSynthesisPrompt(q types.QueryContext, docs []types.CandidateDocument) string {
	var b strings.Builder
	b.WriteString("Synthesize an employer research profile from the sources below.\n")
	b.WriteString("Respond with JSON only: {\"summary\": string, \"tech_terms\": [string], ")
	b.WriteString("\"requirement_terms\": [string], \"culture_signals\": [string]}.\n")
	b.WriteString("Report only what the sources support; leave lists empty rather than guessing.\n\n")

	fmt.Fprintf(&b, "Target: %s", q.CompanyName)
	if q.JobTitle != "" {
		fmt.Fprintf(&b, " (%s)", q.JobTitle)
	}
	b.WriteString("\n\n")

	for i, doc := range docs {
		text := doc.Content
		if text == "" {
			text = doc.Snippet
		}
		if len(text) > docExcerptLimit {
			text = text[:docExcerptLimit]
		}
		fmt.Fprintf(&b, "Source %d: %s (%s)\n%s\n\n", i+1, doc.Title, doc.URL, text)
	}
	return b.String()
}
