// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/meshintel/fit-engine/internal/reasoning"
	"github.com/meshintel/fit-engine/internal/resilience"
	"github.com/meshintel/fit-engine/pkg/types"
)

func testScoringCfg() types.ScoringConfig {
	cfg := types.DefaultConfig().Scoring
	return cfg
}

func testRegistry() *resilience.Registry {
	return resilience.NewRegistry(types.DefaultConfig().Resilience, nil)
}

// --- composite invariants ---

func TestComposeInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	doc := types.CandidateDocument{URL: "https://acme.com", Extractability: 0.85}

	for i := 0; i < 500; i++ {
		r, q, u := rng.Float64(), rng.Float64(), rng.Float64()
		score := Compose(doc, r, q, u, "")

		wantRaw := 0.5*r + 0.3*q + 0.2*u
		if math.Abs(score.RawComposite-wantRaw) > 1e-12 {
			t.Fatalf("RawComposite = %v, want %v", score.RawComposite, wantRaw)
		}
		if math.Abs(score.FinalScore-score.RawComposite*doc.Extractability) > 1e-12 {
			t.Fatalf("FinalScore = %v, want raw*multiplier = %v",
				score.FinalScore, score.RawComposite*doc.Extractability)
		}
		if score.RawComposite < 0 || score.RawComposite > 1 {
			t.Fatalf("RawComposite %v outside [0,1]", score.RawComposite)
		}
	}
}

// --- adaptive threshold ---

func TestAdaptiveThreshold(t *testing.T) {
	cfg := testScoringCfg()
	tests := []struct {
		name  string
		total int
		noisy float64
		want  float64
	}{
		{"base", 15, 0.3, 0.55},
		{"niche leniency", 5, 0.3, 0.45},
		{"well covered strictness", 35, 0.3, 0.60},
		{"noisy cap overrides count", 35, 0.6, 0.45},
		{"clean floor overrides count", 25, 0.1, 0.60},
		{"clean floor needs enough results", 15, 0.1, 0.55},
		{"noisy cap on small set", 5, 0.8, 0.45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AdaptiveThreshold(cfg, tt.total, tt.noisy); got != tt.want {
				t.Errorf("AdaptiveThreshold(%d, %v) = %v, want %v", tt.total, tt.noisy, got, tt.want)
			}
		})
	}
}

func TestAdaptiveThresholdMonotonicity(t *testing.T) {
	cfg := testScoringCfg()

	// Growing the result set at fixed noise never lowers the threshold
	// below its starting value.
	for _, noisy := range []float64{0.0, 0.1, 0.3, 0.5, 0.7, 1.0} {
		start := AdaptiveThreshold(cfg, 5, noisy)
		for total := 5; total <= 40; total++ {
			cur := AdaptiveThreshold(cfg, total, noisy)
			if cur < start {
				t.Fatalf("threshold dropped below start: total=%d noisy=%v cur=%v start=%v", total, noisy, cur, start)
			}
		}
	}

	// Growing the noise ratio at fixed count never raises the threshold.
	for _, total := range []int{5, 15, 25, 40} {
		prev := math.Inf(1)
		for noisy := 0.0; noisy <= 1.0; noisy += 0.05 {
			cur := AdaptiveThreshold(cfg, total, noisy)
			if cur > prev {
				t.Fatalf("threshold rose with noise: total=%d noisy=%v cur=%v prev=%v", total, noisy, cur, prev)
			}
			prev = cur
		}
	}
}

func TestNoisyRatio(t *testing.T) {
	cfg := testScoringCfg()
	docs := []types.CandidateDocument{
		{URL: "a", Extractability: 0.20},
		{URL: "b", Extractability: 0.50},
		{URL: "c", Extractability: 1.00},
		{URL: "d", Extractability: 1.10},
	}
	if got := NoisyRatio(cfg, docs); got != 0.5 {
		t.Errorf("NoisyRatio() = %v, want 0.5", got)
	}
	if got := NoisyRatio(cfg, nil); got != 0 {
		t.Errorf("NoisyRatio(nil) = %v, want 0", got)
	}
}

// --- scorer ---

func scoreReply(r, q, u float64) string {
	return fmt.Sprintf(`{"relevance":%v,"quality":%v,"usefulness":%v,"rationale":"r"}`, r, q, u)
}

func TestScorerDropsUnparsableReplies(t *testing.T) {
	client := &reasoning.MockClient{Fn: func(_ context.Context, prompt string, _ float64) (string, error) {
		// The document about gibberish gets an unusable reply.
		if len(prompt) > 0 && containsURL(prompt, "https://bad.example.com") {
			return "cannot score", nil
		}
		return scoreReply(0.9, 0.8, 0.7), nil
	}}

	s := NewScorer(client, testRegistry(), testScoringCfg(), nil)
	docs := []types.CandidateDocument{
		{URL: "https://acme.com/about", Snippet: "Acme builds rockets"},
		{URL: "https://bad.example.com", Snippet: "???"},
	}

	res := s.Score(context.Background(), "Acme", docs)
	if res.TotalCount != 1 {
		t.Fatalf("TotalCount = %d, want 1 (unparsable dropped)", res.TotalCount)
	}
	if res.FailedCount != 1 {
		t.Fatalf("FailedCount = %d, want 1", res.FailedCount)
	}
	if res.PassingCount != 1 {
		t.Fatalf("PassingCount = %d, want 1", res.PassingCount)
	}
}

func TestScorerRejectsOutOfRangeDimensions(t *testing.T) {
	client := &reasoning.MockClient{Replies: []string{scoreReply(1.5, 0.5, 0.5)}}
	s := NewScorer(client, testRegistry(), testScoringCfg(), nil)

	res := s.Score(context.Background(), "q", []types.CandidateDocument{{URL: "https://a.com", Snippet: "x"}})
	if res.TotalCount != 0 || res.FailedCount != 1 {
		t.Fatalf("result = total %d failed %d, want 0/1", res.TotalCount, res.FailedCount)
	}
}

func TestScorerAppliesExtractability(t *testing.T) {
	client := &reasoning.MockClient{Replies: []string{scoreReply(1, 1, 1)}}
	s := NewScorer(client, testRegistry(), testScoringCfg(), nil)

	// A video source gets the 0.20 multiplier applied by classification.
	res := s.Score(context.Background(), "q", []types.CandidateDocument{
		{URL: "https://youtube.com/watch?v=1", Snippet: "x"},
	})
	if res.TotalCount != 1 {
		t.Fatalf("TotalCount = %d, want 1", res.TotalCount)
	}
	got := res.Scores[0]
	if math.Abs(got.FinalScore-0.20) > 1e-9 {
		t.Errorf("FinalScore = %v, want 0.20", got.FinalScore)
	}
	if got.RawComposite != 1.0 {
		t.Errorf("RawComposite = %v, want 1.0", got.RawComposite)
	}
}

func TestScorerBoundsConcurrency(t *testing.T) {
	var mu sync.Mutex
	inFlight, peak := 0, 0

	client := &reasoning.MockClient{Fn: func(_ context.Context, _ string, _ float64) (string, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		inFlight--
		mu.Unlock()
		return scoreReply(0.8, 0.8, 0.8), nil
	}}

	cfg := testScoringCfg()
	cfg.Concurrency = 2
	s := NewScorer(client, testRegistry(), cfg, nil)

	docs := make([]types.CandidateDocument, 10)
	for i := range docs {
		docs[i] = types.CandidateDocument{URL: fmt.Sprintf("https://acme.com/p%d", i), Snippet: "x"}
	}
	res := s.Score(context.Background(), "q", docs)

	if peak > 2 {
		t.Errorf("peak in-flight scoring calls = %d, want <= 2", peak)
	}
	if res.TotalCount != 10 {
		t.Errorf("TotalCount = %d, want 10", res.TotalCount)
	}
}

func containsURL(prompt, url string) bool {
	return strings.Contains(prompt, url)
}
