// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DataQualityTier grades a synthesized research record.
type DataQualityTier string

const (
	TierClean      DataQualityTier = "CLEAN"
	TierPartial    DataQualityTier = "PARTIAL"
	TierSparse     DataQualityTier = "SPARSE"
	TierUnreliable DataQualityTier = "UNRELIABLE"
	TierGarbage    DataQualityTier = "GARBAGE"
)

// TriageAction is the routing recommendation produced by quality triage.
type TriageAction string

const (
	ActionContinue          TriageAction = "CONTINUE"
	ActionContinueWithFlags TriageAction = "CONTINUE_WITH_FLAGS"
	ActionEnhanceSearch     TriageAction = "ENHANCE_SEARCH"
	ActionEarlyExit         TriageAction = "EARLY_EXIT"
)

// RiskLevel grades the suspicious-input assessment of the query.
type RiskLevel string

const (
	RiskNone     RiskLevel = "NONE"
	RiskCritical RiskLevel = "CRITICAL"
)

// PrunedData records fragments removed by the triage pruning pass. Pruned
// items are reported, never silently dropped.
type PrunedData struct {
	TechTerms        []string `json:"tech_terms,omitempty" yaml:"tech_terms,omitempty"`
	RequirementTerms []string `json:"requirement_terms,omitempty" yaml:"requirement_terms,omitempty"`
	CultureSignals   []string `json:"culture_signals,omitempty" yaml:"culture_signals,omitempty"`
}

// Empty reports whether nothing was pruned.
func (p PrunedData) Empty() bool {
	return len(p.TechTerms) == 0 && len(p.RequirementTerms) == 0 && len(p.CultureSignals) == 0
}

// QualityVerdict is the output of quality triage for one iteration. Verdicts
// are never merged across iterations; only the latest one governs routing.
type QualityVerdict struct {
	Tier DataQualityTier `json:"tier" yaml:"tier"`

	// Confidence is the triage confidence in the retained data, in [0,100].
	Confidence int `json:"confidence" yaml:"confidence"`

	Flags  []string     `json:"flags,omitempty" yaml:"flags,omitempty"`
	Action TriageAction `json:"action" yaml:"action"`
	Risk   RiskLevel    `json:"risk" yaml:"risk"`

	// Pruned holds the fragments removed by the pruning pass.
	Pruned PrunedData `json:"pruned,omitempty" yaml:"pruned,omitempty"`
}
