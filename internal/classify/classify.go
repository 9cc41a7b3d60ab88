// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify turns the raw input query into an immutable query
// context: a query type plus extracted entities. Cheap heuristics decide the
// type; the reasoning service refines entity extraction when a heuristic
// pass cannot.
package classify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/meshintel/fit-engine/internal/reasoning"
	"github.com/meshintel/fit-engine/internal/resilience"
	"github.com/meshintel/fit-engine/pkg/types"
)

// companyMaxWords is the length above which a query stops looking like a
// bare company name.
const companyMaxWords = 8

// extractionTemperature keeps entity extraction near-deterministic.
const extractionTemperature = 0.1

// jobDescriptionMarkers are phrases that mark pasted job-posting text.
var jobDescriptionMarkers = []string{
	"responsibilities",
	"requirements",
	"qualifications",
	"we are looking for",
	"we're looking for",
	"what you'll do",
	"what you will do",
	"years of experience",
	"about the role",
	"about this role",
	"benefits",
	"equal opportunity employer",
}

// irrelevantMarkers catch queries that are questions or chatter rather than
// an employer research target.
var irrelevantMarkers = []string{
	"how do i",
	"how to",
	"what is the",
	"why does",
	"recipe",
	"weather",
	"translate",
	"tell me a joke",
}

// Classifier builds query contexts. A nil reasoning client is allowed and
// limits extraction to the heuristics.
type Classifier struct {
	client   reasoning.Client
	registry *resilience.Registry
	logger   *zap.Logger
}

// New builds a classifier.
func New(client reasoning.Client, registry *resilience.Registry, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{client: client, registry: registry, logger: logger}
}

type extractionReply struct {
	CompanyName string   `json:"company_name"`
	JobTitle    string   `json:"job_title"`
	Skills      []string `json:"skills"`
}

// Classify produces the query context for a raw query. It never errors: when
// the reasoning service is unavailable the heuristic entities stand.
func (c *Classifier) Classify(ctx context.Context, raw string) types.QueryContext {
	q := types.QueryContext{Raw: raw, Type: heuristicType(raw)}

	switch q.Type {
	case types.QueryIrrelevant:
		return q
	case types.QueryCompany:
		q.CompanyName = cleanCompanyName(raw)
	case types.QueryJobDescription:
		// Job postings need real extraction; heuristics only get a rough
		// company guess from the first line.
		q.CompanyName = cleanCompanyName(firstLine(raw))
	}

	if c.client == nil {
		return q
	}
	extracted, err := c.extract(ctx, raw, q.Type)
	if err != nil {
		c.logger.Warn("entity extraction failed, keeping heuristic entities", zap.Error(err))
		return q
	}
	if extracted.CompanyName != "" {
		q.CompanyName = extracted.CompanyName
	}
	q.JobTitle = extracted.JobTitle
	q.Skills = extracted.Skills
	return q
}

func (c *Classifier) extract(ctx context.Context, raw string, t types.QueryType) (extractionReply, error) {
	prompt := buildExtractionPrompt(raw, t)

	call := func(ctx context.Context) (extractionReply, error) {
		reply, err := c.client.Invoke(ctx, prompt, extractionTemperature)
		if err != nil {
			return extractionReply{}, err
		}
		var out extractionReply
		if err := reasoning.ParseStructured(reply, &out); err != nil {
			return extractionReply{}, fmt.Errorf("extraction reply: %w", err)
		}
		return out, nil
	}
	if c.registry == nil {
		return call(ctx)
	}
	return resilience.Call(ctx, c.registry, resilience.ResourceReasoning, call)
}

func buildExtractionPrompt(raw string, t types.QueryType) string {
	var b strings.Builder
	b.WriteString("Extract employer research entities from the query below.\n")
	b.WriteString("Respond with JSON only: {\"company_name\": string, \"job_title\": string, \"skills\": [string]}.\n")
	b.WriteString("Use empty values for entities that are not present.\n\n")
	fmt.Fprintf(&b, "Query type: %s\nQuery:\n%s\n", t, raw)
	return b.String()
}

// heuristicType is the deterministic part of classification.
func heuristicType(raw string) types.QueryType {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return types.QueryIrrelevant
	}
	for _, marker := range irrelevantMarkers {
		if strings.Contains(text, marker) {
			return types.QueryIrrelevant
		}
	}

	hits := 0
	for _, marker := range jobDescriptionMarkers {
		if strings.Contains(text, marker) {
			hits++
		}
	}
	// One marker can appear in an ordinary company query ("Acme benefits");
	// postings carry several.
	if hits >= 2 || (hits >= 1 && len(strings.Fields(text)) > 40) {
		return types.QueryJobDescription
	}

	if len(strings.Fields(text)) <= companyMaxWords {
		return types.QueryCompany
	}
	return types.QueryIrrelevant
}

// cleanCompanyName strips search operators and research-intent words from a
// company query, leaving the employer name.
func cleanCompanyName(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, `"'`)

	fields := strings.Fields(s)
	var kept []string
	for _, f := range fields {
		if strings.Contains(f, ":") { // site:, intitle: and friends
			continue
		}
		switch strings.ToLower(strings.Trim(f, ".,")) {
		case "company", "careers", "reviews", "review", "employer", "working", "at", "glassdoor":
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
