// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import "github.com/meshintel/fit-engine/pkg/types"

// AdaptiveThreshold computes the pass cutoff for one iteration from the
// result-set size and the noisy-source ratio. Rules are evaluated in order
// and the last matching rule wins, so the ratio rules override the count
// rules: sparse result sets get leniency, well-covered topics get strictness,
// and a noisy result set is always scored leniently.
func AdaptiveThreshold(cfg types.ScoringConfig, totalResults int, noisyRatio float64) float64 {
	threshold := cfg.BaseThreshold
	if totalResults < cfg.NicheBelow {
		threshold = cfg.NicheThreshold
	}
	if totalResults > cfg.StrictAbove {
		threshold = cfg.StrictThreshold
	}
	if noisyRatio > cfg.NoisyRatioCapAbove {
		threshold = cfg.NicheThreshold
	}
	if noisyRatio < cfg.CleanRatioFloorBelow && totalResults > cfg.CleanFloorAbove {
		threshold = cfg.StrictThreshold
	}
	return threshold
}

// NoisyRatio returns the fraction of documents whose extractability
// multiplier marks their source category as noisy.
func NoisyRatio(cfg types.ScoringConfig, docs []types.CandidateDocument) float64 {
	if len(docs) == 0 {
		return 0
	}
	noisy := 0
	for _, d := range docs {
		if d.Extractability <= cfg.NoisyExtractability {
			noisy++
		}
	}
	return float64(noisy) / float64(len(docs))
}
