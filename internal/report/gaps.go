// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

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

const gapTemperature = 0.2

// Gap severities, ordered.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// defaultGap is reported when the analysis yields nothing. A research run
// always surfaces at least one gap: findings assembled from public search
// results are never a complete picture, and a report with no caveats reads
// as flattery rather than analysis.
func defaultGap() types.Gap {
	return types.Gap{
		Area:     "coverage",
		Detail:   "findings rest on public web sources only; internal practices, team specifics, and current priorities are unverified",
		Severity: SeverityLow,
	}
}

// Analyzer runs the gap-analysis stage.
type Analyzer struct {
	client   reasoning.Client
	registry *resilience.Registry
	logger   *zap.Logger
}

// NewAnalyzer builds a gap analyzer.
func NewAnalyzer(client reasoning.Client, registry *resilience.Registry, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{client: client, registry: registry, logger: logger}
}

type gapReply struct {
	Gaps []struct {
		Area     string `json:"area"`
		Detail   string `json:"detail"`
		Severity string `json:"severity"`
	} `json:"gaps"`
}

// Gaps cross-checks the query's candidate profile against the findings and
// returns the mismatches. The result is never empty: when the service fails
// or reports none, the default coverage gap stands in. It never errors.
func (a *Analyzer) Gaps(ctx context.Context, q types.QueryContext, rec types.ResearchRecord) []types.Gap {
	prompt := buildGapPrompt(q, rec)

	reply, err := resilience.Call(ctx, a.registry, resilience.ResourceReasoning, func(ctx context.Context) (string, error) {
		return a.client.Invoke(ctx, prompt, gapTemperature)
	})
	if err != nil {
		a.logger.Warn("gap analysis call failed, using default gap", zap.Error(err))
		return []types.Gap{defaultGap()}
	}

	var parsed gapReply
	if err := reasoning.ParseStructured(reply, &parsed); err != nil {
		a.logger.Warn("gap analysis reply unparsable, using default gap", zap.Error(err))
		return []types.Gap{defaultGap()}
	}

	var gaps []types.Gap
	for _, g := range parsed.Gaps {
		if g.Detail == "" {
			continue
		}
		sev := strings.ToLower(g.Severity)
		if sev != SeverityLow && sev != SeverityMedium && sev != SeverityHigh {
			sev = SeverityMedium
		}
		gaps = append(gaps, types.Gap{Area: g.Area, Detail: g.Detail, Severity: sev})
	}
	if len(gaps) == 0 {
		gaps = []types.Gap{defaultGap()}
	}
	return gaps
}

func buildGapPrompt(q types.QueryContext, rec types.ResearchRecord) string {
	var b strings.Builder
	b.WriteString("Identify gaps between the candidate's target and the research findings below.\n")
	b.WriteString("A gap is a skill, requirement, or cultural factor the findings raise that the query does not cover, or vice versa.\n")
	b.WriteString("Respond with JSON only: {\"gaps\": [{\"area\": string, \"detail\": string, \"severity\": \"low\"|\"medium\"|\"high\"}]}.\n")
	b.WriteString("Report real mismatches; do not invent gaps, and do not suppress them to be agreeable.\n\n")

	fmt.Fprintf(&b, "Target: %s", q.CompanyName)
	if q.JobTitle != "" {
		fmt.Fprintf(&b, " (%s)", q.JobTitle)
	}
	if len(q.Skills) > 0 {
		fmt.Fprintf(&b, "\nCandidate skills: %s", strings.Join(q.Skills, ", "))
	}
	b.WriteString("\n\nFindings:\n")
	fmt.Fprintf(&b, "Summary: %s\n", rec.Summary)
	fmt.Fprintf(&b, "Technologies: %s\n", strings.Join(rec.TechTerms, ", "))
	fmt.Fprintf(&b, "Requirements: %s\n", strings.Join(rec.RequirementTerms, ", "))
	fmt.Fprintf(&b, "Culture: %s\n", strings.Join(rec.CultureSignals, ", "))
	return b.String()
}
