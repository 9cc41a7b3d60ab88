// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scoring ranks candidate documents against the query on three
// dimensions via the reasoning service and applies an adaptive pass
// threshold. Documents whose scoring call fails or returns an unusable reply
// are dropped from the aggregate, never defaulted.
package scoring

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/meshintel/fit-engine/internal/reasoning"
	"github.com/meshintel/fit-engine/internal/resilience"
	"github.com/meshintel/fit-engine/internal/source"
	"github.com/meshintel/fit-engine/pkg/types"
)

// Dimension weights of the raw composite. These define what a score means
// and are fixed, unlike the threshold tunables in the configuration.
const (
	weightRelevance  = 0.5
	weightQuality    = 0.3
	weightUsefulness = 0.2
)

// promptContentLimit bounds how much document content is quoted in a
// scoring prompt.
const promptContentLimit = 1000

// Scorer fans scoring calls out over a bounded number of goroutines and
// aggregates the results for the sufficiency gate.
type Scorer struct {
	client   reasoning.Client
	registry *resilience.Registry
	cfg      types.ScoringConfig
	logger   *zap.Logger
}

// NewScorer builds a scorer. The registry guards every reasoning call.
func NewScorer(client reasoning.Client, registry *resilience.Registry, cfg types.ScoringConfig, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{client: client, registry: registry, cfg: cfg, logger: logger}
}

type dimensionReply struct {
	Relevance  *float64 `json:"relevance"`
	Quality    *float64 `json:"quality"`
	Usefulness *float64 `json:"usefulness"`
	Rationale  string   `json:"rationale"`
}

// Score evaluates every document against the query. Documents missing a
// source classification are annotated first. The call never errors: scoring
// failures shrink the aggregate instead of failing the iteration, and a
// fully failed batch simply yields zero counts.
func (s *Scorer) Score(ctx context.Context, query string, docs []types.CandidateDocument) types.ScoringResult {
	for i := range docs {
		if docs[i].Category == "" {
			docs[i] = source.Annotate(docs[i])
		}
	}

	concurrency := s.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := semaphore.NewWeighted(int64(concurrency))

	scores := make([]*types.DocumentScore, len(docs))
	var wg sync.WaitGroup
	var failed int
	var mu sync.Mutex

	for i, doc := range docs {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context gone; remaining documents count as failures.
			mu.Lock()
			failed += len(docs) - i
			mu.Unlock()
			break
		}
		wg.Add(1)
		go func(i int, doc types.CandidateDocument) {
			defer wg.Done()
			defer sem.Release(1)

			score, err := s.scoreOne(ctx, query, doc)
			if err != nil {
				s.logger.Warn("scoring failure, dropping document",
					zap.String("url", doc.URL), zap.Error(err))
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			scores[i] = &score
		}(i, doc)
	}
	// Join barrier: the aggregate is only read once every sub-task finished.
	wg.Wait()

	noisy := NoisyRatio(s.cfg, docs)

	var kept []types.DocumentScore
	for _, sc := range scores {
		if sc != nil {
			kept = append(kept, *sc)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].FinalScore > kept[j].FinalScore
	})

	threshold := AdaptiveThreshold(s.cfg, len(kept), noisy)
	passing := 0
	for _, sc := range kept {
		if sc.FinalScore >= threshold {
			passing++
		}
	}

	return types.ScoringResult{
		Threshold:    threshold,
		PassingCount: passing,
		TotalCount:   len(kept),
		FailedCount:  failed,
		NoisyRatio:   noisy,
		Scores:       kept,
	}
}

func (s *Scorer) scoreOne(ctx context.Context, query string, doc types.CandidateDocument) (types.DocumentScore, error) {
	prompt := buildPrompt(query, doc)

	reply, err := resilience.Call(ctx, s.registry, resilience.ResourceReasoning,
		func(ctx context.Context) (string, error) {
			return s.client.Invoke(ctx, prompt, 0.1)
		})
	if err != nil {
		return types.DocumentScore{}, err
	}

	var dims dimensionReply
	if err := reasoning.ParseStructured(reply, &dims); err != nil {
		return types.DocumentScore{}, fmt.Errorf("unparsable scoring reply: %w", err)
	}
	if dims.Relevance == nil || dims.Quality == nil || dims.Usefulness == nil {
		return types.DocumentScore{}, fmt.Errorf("scoring reply missing dimensions")
	}
	for _, v := range []float64{*dims.Relevance, *dims.Quality, *dims.Usefulness} {
		if v < 0 || v > 1 {
			return types.DocumentScore{}, fmt.Errorf("scoring dimension %v out of range", v)
		}
	}

	return Compose(doc, *dims.Relevance, *dims.Quality, *dims.Usefulness, dims.Rationale), nil
}

// Compose builds an immutable document score from its dimensions, applying
// the fixed composite weights and the document's extractability multiplier.
func Compose(doc types.CandidateDocument, relevance, quality, usefulness float64, rationale string) types.DocumentScore {
	raw := weightRelevance*relevance + weightQuality*quality + weightUsefulness*usefulness
	return types.DocumentScore{
		URL:            doc.URL,
		Relevance:      relevance,
		Quality:        quality,
		Usefulness:     usefulness,
		RawComposite:   raw,
		Extractability: doc.Extractability,
		FinalScore:     raw * doc.Extractability,
		Rationale:      rationale,
	}
}

func buildPrompt(query string, doc types.CandidateDocument) string {
	content := doc.Content
	if content == "" {
		content = doc.Snippet
	}
	if len(content) > promptContentLimit {
		content = content[:promptContentLimit]
	}
	return fmt.Sprintf(`Score this search result for researching the employer query below.
Reply with JSON only: {"relevance": 0..1, "quality": 0..1, "usefulness": 0..1, "rationale": "..."}.

Query: %s
Title: %s
URL: %s
Content:
%s`, query, doc.Title, doc.URL, content)
}
