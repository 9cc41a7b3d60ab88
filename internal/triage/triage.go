// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package triage grades a synthesized research record before any further
// reasoning-service call is spent on it. It prunes low-value fragments,
// rejects suspicious input outright, and assigns a data-quality tier through
// a deterministic decision table.
package triage

import (
	"fmt"
	"strings"

	"github.com/meshintel/fit-engine/pkg/types"
)

// Thresholds of the tier decision table.
const (
	cleanMinTech         = 3
	cleanMinRequirements = 3

	partialMinTech         = 1
	partialMinRequirements = 2

	garbageMaxSummaryWords = 10

	inferTechBelow = 2
)

// Confidence bases per tier, adjusted down per quality flag.
const (
	confidenceClean      = 90
	confidencePartial    = 65
	confidenceSparse     = 35
	confidenceGarbage    = 5
	confidenceUnreliable = 0

	flagPenalty = 5
)

// Result bundles the verdict with the record that survived pruning.
type Result struct {
	Verdict types.QualityVerdict

	// Record is the retained data: the input record minus pruned fragments,
	// plus any inferred technology terms in their own field.
	Record types.ResearchRecord
}

// Run triages one iteration's research record. The suspicious-input check is
// evaluated first and short-circuits everything else: a CRITICAL verdict
// forces EARLY_EXIT no matter what the term counts would say.
func Run(rec types.ResearchRecord, q types.QueryContext) Result {
	if reason, bad := Suspect(q.CompanyName); bad {
		return Result{
			Verdict: types.QualityVerdict{
				Tier:       types.TierUnreliable,
				Confidence: confidenceUnreliable,
				Flags:      []string{fmt.Sprintf("suspicious_company_name:%s", reason)},
				Action:     types.ActionEarlyExit,
				Risk:       types.RiskCritical,
			},
			Record: rec,
		}
	}

	out := rec
	var pruned types.PrunedData
	var flags []string

	out.TechTerms, pruned.TechTerms = pruneTech(rec.TechTerms)
	out.RequirementTerms, pruned.RequirementTerms = pruneRequirements(rec.RequirementTerms)
	out.CultureSignals, pruned.CultureSignals = pruneCulture(rec.CultureSignals)

	if len(pruned.TechTerms) > 0 {
		flags = append(flags, "pruned_generic_tech")
	}
	if len(pruned.RequirementTerms) > 0 {
		flags = append(flags, "pruned_generic_requirements")
	}
	if len(pruned.CultureSignals) > 0 {
		flags = append(flags, "pruned_culture_platitudes")
	}

	// Industry inference backfills technology context when verified terms
	// are thin. Inferred terms stay in their own field; the decision table
	// below counts verified terms only.
	if len(out.TechTerms) < inferTechBelow {
		context := strings.Join([]string{q.CompanyName, q.JobTitle, out.Summary}, " ")
		if name, tech := InferIndustryTech(context); len(tech) > 0 {
			out.InferredTech = appendUnique(out.InferredTech, tech)
			flags = append(flags, "industry_inferred_tech:"+name)
		}
	}

	tier, action := classify(len(out.TechTerms), len(out.RequirementTerms), wordCount(out.Summary))
	if tier == types.TierSparse && action == types.ActionEnhanceSearch {
		flags = append(flags, "sparse_findings")
	}

	return Result{
		Verdict: types.QualityVerdict{
			Tier:       tier,
			Confidence: confidence(tier, len(flags)),
			Flags:      flags,
			Action:     action,
			Risk:       types.RiskNone,
			Pruned:     pruned,
		},
		Record: out,
	}
}

// classify is the tier decision table. Rows are evaluated top to bottom and
// the first match wins.
func classify(tech, requirements, summaryWords int) (types.DataQualityTier, types.TriageAction) {
	switch {
	case tech >= cleanMinTech && requirements >= cleanMinRequirements:
		return types.TierClean, types.ActionContinue

	case tech >= partialMinTech && requirements >= partialMinRequirements:
		return types.TierPartial, types.ActionContinueWithFlags

	case tech == 0 && requirements == 0:
		if summaryWords < garbageMaxSummaryWords {
			return types.TierGarbage, types.ActionEarlyExit
		}
		return types.TierSparse, types.ActionEnhanceSearch

	default:
		return types.TierSparse, types.ActionEnhanceSearch
	}
}

func confidence(tier types.DataQualityTier, flagCount int) int {
	base := 0
	switch tier {
	case types.TierClean:
		base = confidenceClean
	case types.TierPartial:
		base = confidencePartial
	case types.TierSparse:
		base = confidenceSparse
	case types.TierGarbage:
		base = confidenceGarbage
	case types.TierUnreliable:
		base = confidenceUnreliable
	}
	c := base - flagCount*flagPenalty
	if c < 0 {
		c = 0
	}
	return c
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func appendUnique(dst, src []string) []string {
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
