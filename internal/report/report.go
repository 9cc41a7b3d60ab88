// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/meshintel/fit-engine/pkg/types"
)

// Assemble builds the final report for a completed run. Every run produces
// one; aborted runs carry the abort reason and whatever was learned.
func Assemble(sessionID string, q types.QueryContext, rec types.ResearchRecord, verdict types.QualityVerdict,
	sources []types.CandidateDocument, gaps []types.Gap, confidence, iterations int, started time.Time) types.Report {
	return types.Report{
		SessionID:  sessionID,
		Query:      q,
		Record:     rec,
		Verdict:    verdict,
		Sources:    sources,
		Gaps:       gaps,
		Confidence: confidence,
		Summary:    closingSummary(q, rec, verdict, confidence),
		Iterations: iterations,
		Duration:   time.Since(started),
	}
}

// AssembleAborted builds the terminal report for an aborted run.
func AssembleAborted(sessionID string, q types.QueryContext, rec types.ResearchRecord, verdict types.QualityVerdict,
	reason string, iterations int, started time.Time) types.Report {
	return types.Report{
		SessionID:   sessionID,
		Query:       q,
		Record:      rec,
		Verdict:     verdict,
		Confidence:  0,
		Summary:     fmt.Sprintf("research aborted: %s", reason),
		Aborted:     true,
		AbortReason: reason,
		Iterations:  iterations,
		Duration:    time.Since(started),
	}
}

func closingSummary(q types.QueryContext, rec types.ResearchRecord, verdict types.QualityVerdict, confidence int) string {
	var b strings.Builder
	target := q.CompanyName
	if target == "" {
		target = q.Raw
	}
	fmt.Fprintf(&b, "Research on %s completed with %s data quality (confidence %d/100).", target, verdict.Tier, confidence)
	if rec.Summary != "" {
		b.WriteString(" " + rec.Summary)
	}
	if len(rec.InferredTech) > 0 {
		fmt.Fprintf(&b, " Technology context partially inferred from industry signals: %s.", strings.Join(rec.InferredTech, ", "))
	}
	return b.String()
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r types.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// WriteYAML writes the report as YAML.
func WriteYAML(w io.Writer, r types.Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}
