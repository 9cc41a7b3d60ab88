// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/meshintel/fit-engine/internal/classify"
	"github.com/meshintel/fit-engine/internal/enrich"
	"github.com/meshintel/fit-engine/internal/pipeline"
	"github.com/meshintel/fit-engine/internal/reasoning"
	"github.com/meshintel/fit-engine/internal/report"
	"github.com/meshintel/fit-engine/internal/resilience"
	"github.com/meshintel/fit-engine/internal/scoring"
	"github.com/meshintel/fit-engine/internal/websearch"
	"github.com/meshintel/fit-engine/pkg/types"
)

// gatedBackend blocks Search until released, so tests can observe a running
// session deterministically.
type gatedBackend struct {
	release chan struct{}
	once    sync.Once
}

func (g *gatedBackend) Name() string { return "gated" }

func (g *gatedBackend) Search(ctx context.Context, _ string, _ int) ([]types.CandidateDocument, error) {
	select {
	case <-g.release:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedBackend) Release() { g.once.Do(func() { close(g.release) }) }

type fakeStore struct {
	mu      sync.Mutex
	reports []types.Report
}

func (f *fakeStore) SaveReport(_ context.Context, r types.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, r)
	return nil
}

func (f *fakeStore) saved() []types.Report {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.Report, len(f.reports))
	copy(out, f.reports)
	return out
}

func newSequencer(t *testing.T, backend websearch.Backend) *pipeline.Sequencer {
	t.Helper()
	cfg := types.DefaultConfig()
	client := &reasoning.MockClient{
		Fn: func(_ context.Context, prompt string, _ float64) (string, error) {
			if strings.Contains(prompt, "Extract employer research entities") {
				return `{"company_name": "Acme Robotics", "job_title": "", "skills": []}`, nil
			}
			return `{"relevance": 0.2, "quality": 0.2, "usefulness": 0.2, "rationale": "thin"}`, nil
		},
	}
	registry := resilience.NewRegistry(cfg.Resilience, nil)
	enricher, err := enrich.New(cfg.Enrich, nil)
	if err != nil {
		t.Fatalf("enrich.New: %v", err)
	}
	return pipeline.NewSequencer(pipeline.Deps{
		Classifier:  classify.New(client, registry, nil),
		Search:      backend,
		Scorer:      scoring.NewScorer(client, registry, cfg.Scoring, nil),
		Synthesizer: report.NewSynthesizer(client, registry, nil),
		Analyzer:    report.NewAnalyzer(client, registry, nil),
		Enricher:    enricher,
		Registry:    registry,
		Metrics:     pipeline.MustNewMetrics(prometheus.NewRegistry()),
	}, cfg.Run, cfg.Search, nil)
}

func waitForReport(t *testing.T, m *Manager, id string) types.Report {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		rep, err := m.Report(id)
		if err == nil {
			return rep
		}
		if !errors.Is(err, ErrRunning) {
			t.Fatalf("Report: %v", err)
		}
		select {
		case <-deadline:
			t.Fatal("run did not finish in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSessionLifecycle(t *testing.T) {
	m := NewManager(newSequencer(t, &websearch.MockBackend{}), nil, types.DefaultConfig().Session, nil)

	id := m.Start("Acme Robotics", pipeline.Options{})
	if id == "" {
		t.Fatal("empty session id")
	}

	events, cancel, err := m.Subscribe(id)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	var got []types.ProgressEvent
	for ev := range events {
		got = append(got, ev)
	}
	if len(got) == 0 {
		t.Fatal("no events delivered")
	}

	rep := waitForReport(t, m, id)
	if rep.SessionID != id {
		t.Errorf("report session = %q, want %q", rep.SessionID, id)
	}
	// Zero-yield searches abort the run, which is a terminal report too.
	if !rep.Aborted {
		t.Error("expected aborted report for empty search results")
	}
}

func TestSubscribeAfterCompletionReplaysHistory(t *testing.T) {
	m := NewManager(newSequencer(t, &websearch.MockBackend{}), nil, types.DefaultConfig().Session, nil)
	id := m.Start("Acme Robotics", pipeline.Options{})
	waitForReport(t, m, id)

	events, cancel, err := m.Subscribe(id)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	var got []types.ProgressEvent
	for ev := range events {
		got = append(got, ev)
	}
	if len(got) == 0 {
		t.Fatal("no history replayed for completed session")
	}
	for i := 1; i < len(got); i++ {
		if got[i].Step <= got[i-1].Step {
			t.Fatalf("replayed history out of order at %d", i)
		}
	}
}

func TestReportWhileRunning(t *testing.T) {
	backend := &gatedBackend{release: make(chan struct{})}
	m := NewManager(newSequencer(t, backend), nil, types.DefaultConfig().Session, nil)

	id := m.Start("Acme Robotics", pipeline.Options{})
	if _, err := m.Report(id); !errors.Is(err, ErrRunning) {
		t.Errorf("Report on live run: %v, want ErrRunning", err)
	}

	backend.Release()
	waitForReport(t, m, id)
}

func TestUnknownSession(t *testing.T) {
	m := NewManager(newSequencer(t, &websearch.MockBackend{}), nil, types.DefaultConfig().Session, nil)

	if _, err := m.Report("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Report: %v, want ErrNotFound", err)
	}
	if _, _, err := m.Subscribe("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Subscribe: %v, want ErrNotFound", err)
	}
}

func TestCompletedRunsPersisted(t *testing.T) {
	store := &fakeStore{}
	m := NewManager(newSequencer(t, &websearch.MockBackend{}), store, types.DefaultConfig().Session, nil)

	id := m.Start("Acme Robotics", pipeline.Options{})
	waitForReport(t, m, id)

	deadline := time.After(2 * time.Second)
	for len(store.saved()) == 0 {
		select {
		case <-deadline:
			t.Fatal("report never persisted")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if store.saved()[0].SessionID != id {
		t.Errorf("persisted session = %q, want %q", store.saved()[0].SessionID, id)
	}
}

func TestRetentionPurge(t *testing.T) {
	m := NewManager(newSequencer(t, &websearch.MockBackend{}), nil, types.DefaultConfig().Session, nil)

	id := m.Start("Acme Robotics", pipeline.Options{})
	waitForReport(t, m, id)

	m.now = func() time.Time { return time.Now().Add(time.Hour) }
	m.purge()

	if _, err := m.Report(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Report after purge: %v, want ErrNotFound", err)
	}
}
