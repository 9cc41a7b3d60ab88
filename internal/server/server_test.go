// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
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
	"github.com/meshintel/fit-engine/internal/session"
	"github.com/meshintel/fit-engine/internal/websearch"
	"github.com/meshintel/fit-engine/pkg/types"
)

func testServer(t *testing.T) *Server {
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
	seq := pipeline.NewSequencer(pipeline.Deps{
		Classifier:  classify.New(client, registry, nil),
		Search:      &websearch.MockBackend{},
		Scorer:      scoring.NewScorer(client, registry, cfg.Scoring, nil),
		Synthesizer: report.NewSynthesizer(client, registry, nil),
		Analyzer:    report.NewAnalyzer(client, registry, nil),
		Enricher:    enricher,
		Registry:    registry,
		Metrics:     pipeline.MustNewMetrics(prometheus.NewRegistry()),
	}, cfg.Run, cfg.Search, nil)
	sessions := session.NewManager(seq, nil, cfg.Session, nil)
	return New(sessions, cfg.Server, nil)
}

func startSession(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/research",
		strings.NewReader(`{"query": "Acme Robotics"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("start status = %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("parsing start response: %v", err)
	}
	if body.SessionID == "" {
		t.Fatal("empty session id")
	}
	return body.SessionID
}

func waitForReport(t *testing.T, router http.Handler, id string) *httptest.ResponseRecorder {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/research/"+id+"/report", nil))
		if rec.Code == http.StatusOK {
			return rec
		}
		if rec.Code != http.StatusAccepted {
			t.Fatalf("report status = %d: %s", rec.Code, rec.Body.String())
		}
		select {
		case <-deadline:
			t.Fatal("run never finished")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestStartRequiresQuery(t *testing.T) {
	router := testServer(t).Router()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/research", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUnknownSessionRoutes(t *testing.T) {
	router := testServer(t).Router()

	for _, path := range []string{"/api/research/nope/report", "/api/research/nope/events"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", path, rec.Code)
		}
	}
}

func TestResearchFlow(t *testing.T) {
	router := testServer(t).Router()
	id := startSession(t, router)

	rec := waitForReport(t, router, id)
	var rep types.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("parsing report: %v", err)
	}
	if rep.SessionID != id {
		t.Errorf("report session = %q, want %q", rep.SessionID, id)
	}
	if rep.Summary == "" {
		t.Error("report has no closing summary")
	}
}

func TestEventStreamReplay(t *testing.T) {
	router := testServer(t).Router()
	id := startSession(t, router)
	waitForReport(t, router, id)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/research/"+id+"/events", nil))

	body := rec.Body.String()
	if rec.Header().Get("Content-Type") != "text/event-stream" {
		t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(body, "event: connected") {
		t.Error("stream missing connected preamble")
	}
	if !strings.Contains(body, `"stage":"search"`) {
		t.Errorf("stream missing replayed search event:\n%s", body)
	}
	if !strings.HasSuffix(strings.TrimSpace(body), "data: {}") || !strings.Contains(body, "event: done") {
		t.Errorf("stream does not end with done marker:\n%s", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := testServer(t).Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics output missing standard collectors")
	}
}
