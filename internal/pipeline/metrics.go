// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors that report pipeline activity.
type Metrics struct {
	stageDuration *prometheus.HistogramVec
	runsTotal     *prometheus.CounterVec
	iterations    prometheus.Histogram
	runsActive    prometheus.Gauge
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

// defaultMetrics returns the package-level metrics instance registered with
// the global Prometheus registry. The collectors are created once to avoid
// duplicate-registration panics when multiple sequencers exist, as in tests.
func defaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNewMetrics constructs a Metrics instance on the provided registerer.
// Registration errors other than duplicate registration panic, mirroring the
// promauto helpers.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fit_engine",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration spent in each pipeline stage.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)
	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fit_engine",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Completed pipeline runs by outcome.",
		},
		[]string{"outcome"},
	)
	iterations := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fit_engine",
			Subsystem: "pipeline",
			Name:      "run_iterations",
			Help:      "Search iterations used per run.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		},
	)
	runsActive := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fit_engine",
			Subsystem: "pipeline",
			Name:      "runs_active",
			Help:      "Pipeline runs currently executing.",
		},
	)

	m := &Metrics{
		stageDuration: stageDuration,
		runsTotal:     runsTotal,
		iterations:    iterations,
		runsActive:    runsActive,
	}
	for _, c := range []prometheus.Collector{stageDuration, runsTotal, iterations, runsActive} {
		if err := reg.Register(c); err != nil {
			if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
				switch existing := already.ExistingCollector.(type) {
				case *prometheus.HistogramVec:
					m.stageDuration = existing
				case *prometheus.CounterVec:
					m.runsTotal = existing
				case prometheus.Histogram:
					m.iterations = existing
				case prometheus.Gauge:
					m.runsActive = existing
				}
				continue
			}
			panic(err)
		}
	}
	return m
}

func (m *Metrics) observeStage(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(seconds)
}

func (m *Metrics) observeRun(outcome string, iterations int) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(outcome).Inc()
	m.iterations.Observe(float64(iterations))
}
