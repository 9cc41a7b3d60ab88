// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import "github.com/meshintel/fit-engine/pkg/types"

// Calibration adjustments. The verdict's tier confidence is the base; the
// adjustments below move it by fixed steps and the result is clamped to
// [0,100]. No randomness, no model calls.
const (
	passingDocBonus    = 2
	passingBonusCap    = 10
	fallbackPenalty    = 3
	gapPenaltyHigh     = 6
	gapPenaltyMedium   = 3
	extraIterationCost = 4
)

// Calibrate computes the final report confidence from the triage verdict,
// the last scoring result, the enriched sources, and the identified gaps.
func Calibrate(verdict types.QualityVerdict, scoring types.ScoringResult, sources []types.CandidateDocument, gaps []types.Gap, iterations int) int {
	c := verdict.Confidence

	bonus := scoring.PassingCount * passingDocBonus
	if bonus > passingBonusCap {
		bonus = passingBonusCap
	}
	c += bonus

	for _, src := range sources {
		if src.FetchStatus == types.FetchFallback {
			c -= fallbackPenalty
		}
	}
	for _, g := range gaps {
		switch g.Severity {
		case SeverityHigh:
			c -= gapPenaltyHigh
		case SeverityMedium:
			c -= gapPenaltyMedium
		}
	}
	if iterations > 1 {
		c -= (iterations - 1) * extraIterationCost
	}

	if c < 0 {
		c = 0
	}
	if c > 100 {
		c = 100
	}
	return c
}
