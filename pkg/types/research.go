// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the fit-engine pipeline:
// query contexts, candidate documents, scores, research records, quality
// verdicts, progress events, and stage configuration.
package types

import "time"

// QueryType classifies the caller's input query.
type QueryType string

const (
	QueryCompany        QueryType = "company"
	QueryJobDescription QueryType = "job_description"
	QueryIrrelevant     QueryType = "irrelevant"
)

// QueryContext is the immutable classification of the input query. It is
// created once at pipeline start and read-only afterwards.
type QueryContext struct {
	// Raw is the query text exactly as submitted.
	Raw string `json:"raw" yaml:"raw"`

	// Type is the classified query kind.
	Type QueryType `json:"type" yaml:"type"`

	// CompanyName is the extracted employer name, when one was found.
	CompanyName string `json:"company_name,omitempty" yaml:"company_name,omitempty"`

	// JobTitle is the extracted role title for job-description queries.
	JobTitle string `json:"job_title,omitempty" yaml:"job_title,omitempty"`

	// Skills lists skill terms extracted from a job description.
	Skills []string `json:"skills,omitempty" yaml:"skills,omitempty"`
}

// SourceCategory identifies the kind of site a document came from.
type SourceCategory string

const (
	SourceVideo    SourceCategory = "video"
	SourceSocial   SourceCategory = "social_media"
	SourceWiki     SourceCategory = "wiki"
	SourceAcademic SourceCategory = "academic"
	SourceForum    SourceCategory = "forum"
	SourceNews     SourceCategory = "news"
	SourceGeneral  SourceCategory = "general"
)

// FetchStatus records how a document's full-text content was obtained.
type FetchStatus string

const (
	// FetchNone means no enrichment was attempted; only the snippet is set.
	FetchNone FetchStatus = ""

	// FetchFull means the enricher fetched and extracted the page body.
	FetchFull FetchStatus = "full"

	// FetchFallback means the fetch failed and Content holds the original snippet.
	FetchFallback FetchStatus = "fallback"
)

// SnippetMaxLen caps the snippet carried on a candidate document.
const SnippetMaxLen = 500

// CandidateDocument is one search result flowing through the pipeline. The
// search backend creates it, the enricher fills Content in place, and it is
// discarded after the scoring/enrichment stage.
type CandidateDocument struct {
	URL     string `json:"url" yaml:"url"`
	Title   string `json:"title" yaml:"title"`
	Snippet string `json:"snippet" yaml:"snippet"`

	// Content is the enriched full text, populated by the content enricher.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`

	// FetchStatus reports whether Content came from a real fetch or fallback.
	FetchStatus FetchStatus `json:"fetch_status,omitempty" yaml:"fetch_status,omitempty"`

	// Category is the source classification of the URL's domain.
	Category SourceCategory `json:"category,omitempty" yaml:"category,omitempty"`

	// Extractability is the per-category multiplier applied to raw scores.
	Extractability float64 `json:"extractability,omitempty" yaml:"extractability,omitempty"`
}

// DocumentScore holds one document's scores for one iteration. Scores are
// never mutated after creation; a new iteration produces a new score set.
type DocumentScore struct {
	URL string `json:"url" yaml:"url"`

	// Relevance, Quality, and Usefulness are dimension scores in [0,1].
	Relevance  float64 `json:"relevance" yaml:"relevance"`
	Quality    float64 `json:"quality" yaml:"quality"`
	Usefulness float64 `json:"usefulness" yaml:"usefulness"`

	// RawComposite is the weighted combination 0.5*relevance + 0.3*quality + 0.2*usefulness.
	RawComposite float64 `json:"raw_composite" yaml:"raw_composite"`

	// Extractability is the multiplier that was applied to RawComposite.
	Extractability float64 `json:"extractability" yaml:"extractability"`

	// FinalScore is RawComposite * Extractability.
	FinalScore float64 `json:"final_score" yaml:"final_score"`

	// Rationale is the scorer's free-text justification, when one was returned.
	Rationale string `json:"rationale,omitempty" yaml:"rationale,omitempty"`
}

// ScoringResult aggregates the document scores of one iteration. It is
// immutable once computed and drives the sufficiency gate.
type ScoringResult struct {
	// Threshold is the adaptive pass threshold applied this iteration.
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// PassingCount is the number of documents at or above Threshold.
	PassingCount int `json:"passing_count" yaml:"passing_count"`

	// TotalCount is the number of documents that received a score. Documents
	// whose scoring call failed are excluded.
	TotalCount int `json:"total_count" yaml:"total_count"`

	// FailedCount is the number of documents dropped because the scoring
	// reply was missing or unparsable.
	FailedCount int `json:"failed_count" yaml:"failed_count"`

	// NoisyRatio is the fraction of candidate documents from
	// low-extractability source categories.
	NoisyRatio float64 `json:"noisy_ratio" yaml:"noisy_ratio"`

	// Scores lists the per-document scores, highest final score first.
	Scores []DocumentScore `json:"scores" yaml:"scores"`
}

// Passing returns the scored documents at or above the threshold, in order.
func (r ScoringResult) Passing() []DocumentScore {
	var out []DocumentScore
	for _, s := range r.Scores {
		if s.FinalScore >= r.Threshold {
			out = append(out, s)
		}
	}
	return out
}

// ResearchRecord is the synthesized employer/job profile accumulated across
// iterations. The sequencer owns it exclusively; stage functions return new
// values rather than mutating it.
type ResearchRecord struct {
	// Summary is the synthesized prose summary of the findings.
	Summary string `json:"summary" yaml:"summary"`

	// TechTerms lists technology terms identified in the findings.
	TechTerms []string `json:"tech_terms" yaml:"tech_terms"`

	// RequirementTerms lists role requirement terms.
	RequirementTerms []string `json:"requirement_terms" yaml:"requirement_terms"`

	// CultureSignals lists workplace culture observations.
	CultureSignals []string `json:"culture_signals" yaml:"culture_signals"`

	// InferredTech lists technology terms added by industry inference. They
	// are reported separately and never presented as verified findings.
	InferredTech []string `json:"inferred_tech,omitempty" yaml:"inferred_tech,omitempty"`

	// QueriesRun lists every search query executed so far, in order.
	QueriesRun []string `json:"queries_run" yaml:"queries_run"`
}

// Merge extends the record with terms from a newer iteration, replacing the
// summary when the new one is non-empty and appending list fields.
func (r ResearchRecord) Merge(next ResearchRecord) ResearchRecord {
	out := r
	if next.Summary != "" {
		out.Summary = next.Summary
	}
	out.TechTerms = appendMissing(out.TechTerms, next.TechTerms)
	out.RequirementTerms = appendMissing(out.RequirementTerms, next.RequirementTerms)
	out.CultureSignals = appendMissing(out.CultureSignals, next.CultureSignals)
	out.InferredTech = appendMissing(out.InferredTech, next.InferredTech)
	out.QueriesRun = append(out.QueriesRun, next.QueriesRun...)
	return out
}

func appendMissing(dst, src []string) []string {
	seen := make(map[string]bool, len(dst))
	for _, s := range dst {
		seen[s] = true
	}
	for _, s := range src {
		if !seen[s] {
			dst = append(dst, s)
			seen[s] = true
		}
	}
	return dst
}

// Gap is one mismatch between the candidate profile and the findings.
type Gap struct {
	Area     string `json:"area" yaml:"area"`
	Detail   string `json:"detail" yaml:"detail"`
	Severity string `json:"severity" yaml:"severity"`
}

// Report is the structured terminal outcome of a run. Every run, including
// an aborted one, produces a report; runs never end silently.
type Report struct {
	SessionID string       `json:"session_id" yaml:"session_id"`
	Query     QueryContext `json:"query" yaml:"query"`

	Record  ResearchRecord `json:"record" yaml:"record"`
	Verdict QualityVerdict `json:"verdict" yaml:"verdict"`

	// Sources are the enriched documents the findings are grounded on.
	Sources []CandidateDocument `json:"sources,omitempty" yaml:"sources,omitempty"`

	// Gaps lists profile/findings mismatches from the gap-analysis stage.
	Gaps []Gap `json:"gaps,omitempty" yaml:"gaps,omitempty"`

	// Confidence is the calibrated final confidence in [0,100].
	Confidence int `json:"confidence" yaml:"confidence"`

	// Summary is the user-facing closing message.
	Summary string `json:"summary" yaml:"summary"`

	Aborted     bool   `json:"aborted" yaml:"aborted"`
	AbortReason string `json:"abort_reason,omitempty" yaml:"abort_reason,omitempty"`

	Iterations int           `json:"iterations" yaml:"iterations"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}
