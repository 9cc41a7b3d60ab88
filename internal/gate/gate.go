// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gate decides whether gathered evidence warrants proceeding,
// retrying with reformulated queries, or aborting. The decision is a pure
// function of the scoring result and the iteration counters.
package gate

import (
	"fmt"

	"github.com/meshintel/fit-engine/pkg/types"
)

// Decision is the gate's routing verdict for one iteration.
type Decision int

const (
	// Sufficient proceeds to enrichment with the current evidence.
	Sufficient Decision = iota
	// Insufficient retries the search with reformulated queries.
	Insufficient
	// Abort ends the run with a structured abort response.
	Abort
)

func (d Decision) String() string {
	switch d {
	case Sufficient:
		return "sufficient"
	case Insufficient:
		return "insufficient"
	case Abort:
		return "abort"
	default:
		return "unknown"
	}
}

// sufficientPassing is the passing-document count that is always enough.
const sufficientPassing = 3

// Decide routes one iteration. iteration counts reformulations: 1 is the
// initial search, so a zero-yield abort can only fire after at least one
// reformulated retry has also come up empty. That zero-yield check takes
// precedence over the generic max-iteration check.
func Decide(res types.ScoringResult, iteration, maxIterations int) (Decision, string) {
	switch {
	case res.PassingCount >= sufficientPassing:
		return Sufficient, fmt.Sprintf("%d of %d sources passed the %.2f threshold", res.PassingCount, res.TotalCount, res.Threshold)

	case res.PassingCount == 0 && iteration >= 2:
		return Abort, fmt.Sprintf("no sources passed after %d iterations; query reformulation yielded nothing", iteration)

	case iteration >= maxIterations:
		if res.PassingCount >= 1 {
			return Sufficient, fmt.Sprintf("iteration limit reached; proceeding with %d passing source(s)", res.PassingCount)
		}
		return Abort, fmt.Sprintf("iteration limit (%d) reached with no passing sources", maxIterations)

	default:
		return Insufficient, fmt.Sprintf("only %d source(s) passed the %.2f threshold; retrying with reformulated queries", res.PassingCount, res.Threshold)
	}
}
