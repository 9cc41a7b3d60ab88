// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives one research run through its stages: classify,
// search, score-and-gate with a bounded retry loop, enrichment, gap
// analysis, confidence calibration, and report assembly. Each stage
// transition is emitted on a run-owned event channel.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/meshintel/fit-engine/internal/classify"
	"github.com/meshintel/fit-engine/internal/enrich"
	"github.com/meshintel/fit-engine/internal/gate"
	"github.com/meshintel/fit-engine/internal/report"
	"github.com/meshintel/fit-engine/internal/resilience"
	"github.com/meshintel/fit-engine/internal/scoring"
	"github.com/meshintel/fit-engine/internal/triage"
	"github.com/meshintel/fit-engine/internal/websearch"
	"github.com/meshintel/fit-engine/pkg/types"
)

// Deps carries the stage components a sequencer drives. All fields except
// Metrics are required.
type Deps struct {
	Classifier  *classify.Classifier
	Search      websearch.Backend
	Scorer      *scoring.Scorer
	Synthesizer *report.Synthesizer
	Analyzer    *report.Analyzer
	Enricher    *enrich.Enricher
	Registry    *resilience.Registry

	// Metrics defaults to the process-wide instance when nil.
	Metrics *Metrics
}

// Options are per-run overrides from the invocation contract.
type Options struct {
	// MaxIterations overrides the configured loop bound when positive.
	MaxIterations int

	// IncludeThoughts keeps intermediate "thought" events on the stream.
	IncludeThoughts bool
}

// Sequencer owns the stage ordering and the retry loop. One sequencer
// serves all runs; per-run state lives on the Run value.
type Sequencer struct {
	deps      Deps
	cfg       types.RunConfig
	searchCfg types.SearchConfig
	logger    *zap.Logger
	metrics   *Metrics
}

// NewSequencer builds a sequencer.
func NewSequencer(deps Deps, cfg types.RunConfig, searchCfg types.SearchConfig, logger *zap.Logger) *Sequencer {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := deps.Metrics
	if m == nil {
		m = defaultMetrics()
	}
	return &Sequencer{deps: deps, cfg: cfg, searchCfg: searchCfg, logger: logger, metrics: m}
}

// Run is one executing or completed pipeline run. The run owns its event
// channel: opened at start, closed at the terminal state. Events are
// buffered and emission never blocks; a stalled or absent consumer drops
// events rather than stalling the pipeline.
type Run struct {
	SessionID string

	events          chan types.ProgressEvent
	done            chan struct{}
	report          types.Report
	step            int
	includeThoughts bool
	logger          *zap.Logger
}

// Events returns the run's event stream. The channel is closed once the run
// reaches a terminal state.
func (r *Run) Events() <-chan types.ProgressEvent { return r.events }

// Done is closed when the run has terminated and its report is available.
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until the run terminates and returns its report. Every run
// terminates with a report; aborted runs are reports too.
func (r *Run) Wait() types.Report {
	<-r.done
	return r.report
}

func (r *Run) emit(stage string, kind types.EventKind, msg string, payload any) {
	if kind == types.EventThought && !r.includeThoughts {
		return
	}
	r.step++
	ev := types.ProgressEvent{
		Stage:     stage,
		Step:      r.step,
		Kind:      kind,
		Message:   msg,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	select {
	case r.events <- ev:
	default:
		r.logger.Warn("event buffer full, dropping event",
			zap.String("session", r.SessionID), zap.String("stage", stage), zap.Int("step", r.step))
	}
}

// Start launches a run. The supplied context should outlive the caller's
// connection: a disconnected caller stops consuming events, not the run.
// The run-level timeout is enforced on top of it.
func (s *Sequencer) Start(ctx context.Context, sessionID, raw string, opts Options) *Run {
	buffer := s.cfg.EventBuffer
	if buffer <= 0 {
		buffer = 1
	}
	run := &Run{
		SessionID:       sessionID,
		events:          make(chan types.ProgressEvent, buffer),
		done:            make(chan struct{}),
		includeThoughts: opts.IncludeThoughts,
		logger:          s.logger,
	}

	go func() {
		runCtx := ctx
		var cancel context.CancelFunc
		if s.cfg.RunTimeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
			defer cancel()
		}
		s.metrics.runsActive.Inc()
		run.report = s.execute(runCtx, run, raw, opts)
		s.metrics.runsActive.Dec()
		close(run.done)
		close(run.events)
	}()
	return run
}

func (s *Sequencer) execute(ctx context.Context, run *Run, raw string, opts Options) types.Report {
	started := time.Now()
	sessionID := run.SessionID

	maxIter := s.cfg.MaxIterations
	if opts.MaxIterations > 0 {
		maxIter = opts.MaxIterations
	}
	if maxIter <= 0 {
		maxIter = 1
	}

	run.emit("classify", types.EventStatus, "classifying query", nil)
	q := s.classifyStage(ctx, raw)
	run.emit("classify", types.EventPhaseComplete, fmt.Sprintf("query classified as %s", q.Type), q)

	if q.Type == types.QueryIrrelevant {
		return s.abort(run, q, types.ResearchRecord{}, types.QualityVerdict{},
			"query is not an employer research request", 0, started)
	}

	// Suspicious input is detectable before any search is spent on it.
	if tri := triage.Run(types.ResearchRecord{}, q); tri.Verdict.Risk == types.RiskCritical {
		run.emit("triage", types.EventPhaseComplete, "suspicious input detected", tri.Verdict)
		return s.abort(run, q, types.ResearchRecord{}, tri.Verdict,
			"suspicious input detected; research halted", 0, started)
	}

	var (
		rec         types.ResearchRecord
		verdict     types.QualityVerdict
		lastScoring types.ScoringResult
		docs        []types.CandidateDocument
		decision    gate.Decision
		reason      string
		iteration   int
	)

	queries := InitialQueries(q)
	for iteration = 1; iteration <= maxIter; iteration++ {
		if ctx.Err() != nil {
			return s.timedOut(run, q, rec, verdict, iteration, started)
		}
		if iteration > 1 {
			queries = Reformulate(queries, iteration)
			run.emit("reformulate", types.EventThought,
				fmt.Sprintf("reformulating queries for iteration %d", iteration), queries)
		}

		run.emit("search", types.EventStatus,
			fmt.Sprintf("searching (iteration %d of %d)", iteration, maxIter), queries)
		stageStart := time.Now()
		docs = s.searchStage(ctx, queries)
		s.metrics.observeStage("search", time.Since(stageStart).Seconds())
		rec.QueriesRun = append(rec.QueriesRun, queries...)

		run.emit("score", types.EventStatus, fmt.Sprintf("scoring %d candidate sources", len(docs)), nil)
		stageStart = time.Now()
		lastScoring = s.deps.Scorer.Score(ctx, raw, docs)
		s.metrics.observeStage("score", time.Since(stageStart).Seconds())
		run.emit("score", types.EventPhaseComplete,
			fmt.Sprintf("%d of %d sources passed the %.2f threshold",
				lastScoring.PassingCount, lastScoring.TotalCount, lastScoring.Threshold),
			lastScoring)

		// Triage grades the synthesized record; with nothing passing there
		// is nothing to synthesize and routing falls to the gate alone.
		if passing := passingDocs(docs, lastScoring); len(passing) > 0 {
			if next, err := s.deps.Synthesizer.Synthesize(ctx, q, passing); err != nil {
				s.logger.Warn("synthesis failed, keeping prior record", zap.Error(err))
			} else {
				rec = rec.Merge(next)
			}
			tri := triage.Run(rec, q)
			rec, verdict = tri.Record, tri.Verdict
			run.emit("triage", types.EventPhaseComplete,
				fmt.Sprintf("data quality %s, action %s", verdict.Tier, verdict.Action), verdict)
			if verdict.Action == types.ActionEarlyExit {
				return s.abort(run, q, rec, verdict, earlyExitReason(verdict), iteration, started)
			}
		}

		decision, reason = gate.Decide(lastScoring, iteration, maxIter)
		run.emit("gate", types.EventPhaseComplete, reason, decision.String())
		if decision != gate.Insufficient {
			break
		}
	}
	if iteration > maxIter {
		iteration = maxIter
	}
	if decision == gate.Abort {
		return s.abort(run, q, rec, verdict, reason, iteration, started)
	}

	if ctx.Err() != nil {
		return s.timedOut(run, q, rec, verdict, iteration, started)
	}

	passing := passingDocs(docs, lastScoring)
	run.emit("enrich", types.EventStatus, fmt.Sprintf("enriching top %d sources", len(passing)), nil)
	stageStart := time.Now()
	sources := s.deps.Enricher.Enrich(ctx, passing)
	s.metrics.observeStage("enrich", time.Since(stageStart).Seconds())
	run.emit("enrich", types.EventPhaseComplete,
		fmt.Sprintf("enriched %d sources (%d fallback)", len(sources), fallbackCount(sources)), nil)

	if next, err := s.deps.Synthesizer.Synthesize(ctx, q, sources); err != nil {
		s.logger.Warn("post-enrichment synthesis failed, keeping prior record", zap.Error(err))
	} else {
		rec = rec.Merge(next)
	}
	tri := triage.Run(rec, q)
	rec, verdict = tri.Record, tri.Verdict
	run.emit("triage", types.EventPhaseComplete,
		fmt.Sprintf("final data quality %s", verdict.Tier), verdict)
	if verdict.Action == types.ActionEarlyExit {
		return s.abort(run, q, rec, verdict, earlyExitReason(verdict), iteration, started)
	}

	run.emit("gap_analysis", types.EventStatus, "cross-checking findings for gaps", nil)
	gaps := s.deps.Analyzer.Gaps(ctx, q, rec)
	run.emit("gap_analysis", types.EventPhaseComplete, fmt.Sprintf("%d gap(s) identified", len(gaps)), gaps)

	confidence := report.Calibrate(verdict, lastScoring, sources, gaps, iteration)
	run.emit("confidence", types.EventPhaseComplete, fmt.Sprintf("calibrated confidence %d/100", confidence), confidence)

	rep := report.Assemble(sessionID, q, rec, verdict, sources, gaps, confidence, iteration, started)
	run.emit("report", types.EventPhaseComplete, rep.Summary, rep)
	s.metrics.observeRun("completed", iteration)
	return rep
}

func (s *Sequencer) classifyStage(ctx context.Context, raw string) types.QueryContext {
	start := time.Now()
	defer func() { s.metrics.observeStage("classify", time.Since(start).Seconds()) }()
	return s.deps.Classifier.Classify(ctx, raw)
}

// searchStage fans the query set out to the search backend under the
// resilience wrapper. Failures, including an open circuit, degrade to an
// empty result set so the run still reaches a terminal state.
func (s *Sequencer) searchStage(ctx context.Context, queries []string) []types.CandidateDocument {
	var all []types.CandidateDocument
	for _, query := range queries {
		docs, err := resilience.Call(ctx, s.deps.Registry, resilience.ResourceSearch,
			func(ctx context.Context) ([]types.CandidateDocument, error) {
				return s.deps.Search.Search(ctx, query, s.searchCfg.MaxResults)
			})
		if err != nil {
			if resilience.IsCircuitOpen(err) {
				s.logger.Warn("search unavailable, proceeding with existing data", zap.String("query", query))
			} else {
				s.logger.Warn("search query failed", zap.String("query", query), zap.Error(err))
			}
			continue
		}
		all = append(all, docs...)
	}
	return websearch.Dedupe(all)
}

func (s *Sequencer) abort(run *Run, q types.QueryContext, rec types.ResearchRecord, verdict types.QualityVerdict,
	reason string, iterations int, started time.Time) types.Report {
	rep := report.AssembleAborted(run.SessionID, q, rec, verdict, reason, iterations, started)
	run.emit("report", types.EventError, rep.Summary, rep)
	s.metrics.observeRun("aborted", iterations)
	return rep
}

func (s *Sequencer) timedOut(run *Run, q types.QueryContext, rec types.ResearchRecord, verdict types.QualityVerdict,
	iterations int, started time.Time) types.Report {
	return s.abort(run, q, rec, verdict,
		fmt.Sprintf("run exceeded its %s time budget", s.cfg.RunTimeout), iterations, started)
}

func earlyExitReason(verdict types.QualityVerdict) string {
	if verdict.Risk == types.RiskCritical {
		return "suspicious input detected; research halted"
	}
	return "synthesized findings are unusable"
}

// passingDocs maps the scoring result's passing set back to its documents,
// best first.
func passingDocs(docs []types.CandidateDocument, res types.ScoringResult) []types.CandidateDocument {
	byURL := make(map[string]types.CandidateDocument, len(docs))
	for _, d := range docs {
		byURL[d.URL] = d
	}
	var out []types.CandidateDocument
	for _, score := range res.Passing() {
		if d, ok := byURL[score.URL]; ok {
			out = append(out, d)
		}
	}
	return out
}

func fallbackCount(docs []types.CandidateDocument) int {
	n := 0
	for _, d := range docs {
		if d.FetchStatus == types.FetchFallback {
			n++
		}
	}
	return n
}
