// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gate

import (
	"testing"

	"github.com/meshintel/fit-engine/pkg/types"
)

func result(passing, total int) types.ScoringResult {
	return types.ScoringResult{Threshold: 0.55, PassingCount: passing, TotalCount: total}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name      string
		passing   int
		total     int
		iteration int
		max       int
		want      Decision
	}{
		{"three passing is sufficient", 3, 5, 1, 3, Sufficient},
		{"many passing is sufficient", 7, 10, 2, 3, Sufficient},
		{"zero at iteration two aborts", 0, 5, 2, 3, Abort},
		{"one at final iteration proceeds", 1, 5, 3, 3, Sufficient},
		{"zero at final iteration aborts", 0, 5, 3, 3, Abort},
		{"one at first iteration retries", 1, 5, 1, 3, Insufficient},
		{"two at second iteration retries", 2, 5, 2, 3, Insufficient},
		{"zero at first iteration retries", 0, 5, 1, 3, Insufficient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := Decide(result(tt.passing, tt.total), tt.iteration, tt.max)
			if got != tt.want {
				t.Errorf("Decide(passing=%d, iter=%d, max=%d) = %v, want %v",
					tt.passing, tt.iteration, tt.max, got, tt.want)
			}
			if reason == "" {
				t.Error("Decide() returned an empty reason")
			}
		})
	}
}

// The zero-yield abort must win over the generic max-iteration rule when
// both apply at the final iteration.
func TestDecideZeroYieldPrecedence(t *testing.T) {
	got, reason := Decide(result(0, 4), 3, 3)
	if got != Abort {
		t.Fatalf("Decide() = %v, want Abort", got)
	}
	if reason == "" || reason[:2] != "no" {
		t.Errorf("reason = %q, want the zero-yield explanation", reason)
	}
}

func TestDecisionString(t *testing.T) {
	for d, want := range map[Decision]string{
		Sufficient:   "sufficient",
		Insufficient: "insufficient",
		Abort:        "abort",
		Decision(42): "unknown",
	} {
		if got := d.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(d), got, want)
		}
	}
}
