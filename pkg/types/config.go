// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "fit-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the web search provider.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey authenticates against the search provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Endpoint overrides the provider URL. Empty means the provider default.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// MaxResults is the number of results requested per query (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// Depth selects the provider search depth: "basic" or "advanced".
	Depth string `json:"depth" yaml:"depth"`
}

// ReasoningConfig holds settings for the reasoning service.
type ReasoningConfig struct {
	HTTPConfig `yaml:",inline"`

	// Endpoint is the chat-completions base URL.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// Model is the model identifier sent with each request.
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the reasoning service.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts on rate limiting (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ScoringConfig holds the parallel scorer tunables, including the adaptive
// threshold rules. None of these appear as literals in control flow.
type ScoringConfig struct {
	// Concurrency caps in-flight scoring calls (default 5).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// BaseThreshold is the starting pass threshold (default 0.55).
	BaseThreshold float64 `json:"base_threshold" yaml:"base_threshold"`

	// NicheThreshold applies when fewer than NicheBelow results came back (default 0.45).
	NicheThreshold float64 `json:"niche_threshold" yaml:"niche_threshold"`
	NicheBelow     int     `json:"niche_below" yaml:"niche_below"`

	// StrictThreshold applies when more than StrictAbove results came back (default 0.60).
	StrictThreshold float64 `json:"strict_threshold" yaml:"strict_threshold"`
	StrictAbove     int     `json:"strict_above" yaml:"strict_above"`

	// NoisyRatioCapAbove caps the threshold at NicheThreshold when the noisy
	// source ratio exceeds it (default 0.5).
	NoisyRatioCapAbove float64 `json:"noisy_ratio_cap_above" yaml:"noisy_ratio_cap_above"`

	// CleanRatioFloorBelow floors the threshold at StrictThreshold when the
	// noisy ratio is below it and more than CleanFloorAbove results came back.
	CleanRatioFloorBelow float64 `json:"clean_ratio_floor_below" yaml:"clean_ratio_floor_below"`
	CleanFloorAbove      int     `json:"clean_floor_above" yaml:"clean_floor_above"`

	// NoisyExtractability is the multiplier at or below which a source
	// category counts as noisy (default 0.5).
	NoisyExtractability float64 `json:"noisy_extractability" yaml:"noisy_extractability"`
}

// EnrichConfig holds the content enricher tunables.
type EnrichConfig struct {
	HTTPConfig `yaml:",inline"`

	// TopK is the maximum number of passing documents to enrich (default 5).
	TopK int `json:"top_k" yaml:"top_k"`

	// Concurrency caps in-flight fetches (default 3).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// MaxContentChars truncates extracted content (default 8000).
	MaxContentChars int `json:"max_content_chars" yaml:"max_content_chars"`

	// MinContentChars is the extraction length below which the enricher falls
	// back to the snippet (default 200).
	MinContentChars int `json:"min_content_chars" yaml:"min_content_chars"`

	// CacheSize is the number of fetched pages kept in the LRU cache.
	CacheSize int `json:"cache_size" yaml:"cache_size"`
}

// BreakerConfig holds circuit-breaker settings for one protected resource.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold int `json:"failure_threshold" yaml:"failure_threshold"`

	// ResetTimeout is how long the circuit stays open before a half-open probe.
	ResetTimeout time.Duration `json:"reset_timeout" yaml:"reset_timeout"`

	// Permits caps simultaneous in-flight calls to the resource across all runs.
	Permits int `json:"permits" yaml:"permits"`

	// CallTimeout is the hard wall-clock bound on a single call.
	CallTimeout time.Duration `json:"call_timeout" yaml:"call_timeout"`
}

// ResilienceConfig groups per-resource breaker settings.
type ResilienceConfig struct {
	Search    BreakerConfig `json:"search" yaml:"search"`
	Reasoning BreakerConfig `json:"reasoning" yaml:"reasoning"`
}

// RunConfig holds the sequencer tunables.
type RunConfig struct {
	// MaxIterations bounds the search/reformulate loop (default 3).
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	// RunTimeout is the upper bound across a whole pipeline run (default 300s).
	RunTimeout time.Duration `json:"run_timeout" yaml:"run_timeout"`

	// EventBuffer is the capacity of a run's progress-event channel.
	EventBuffer int `json:"event_buffer" yaml:"event_buffer"`
}

// SessionConfig holds session-manager settings.
type SessionConfig struct {
	// Retention is how long a completed run's events and report stay
	// retrievable before being purged.
	Retention time.Duration `json:"retention" yaml:"retention"`

	// MaxHistory caps buffered events per session for reconnect replay.
	MaxHistory int `json:"max_history" yaml:"max_history"`
}

// StoreConfig holds run-store settings.
type StoreConfig struct {
	// Path is the SQLite database file. Empty disables persistence.
	Path string `json:"path" yaml:"path"`
}

// ServerConfig holds HTTP front-door settings.
type ServerConfig struct {
	// Addr is the listen address (default ":8418").
	Addr string `json:"addr" yaml:"addr"`
}

// Config groups every stage configuration for the pipeline.
type Config struct {
	Search     SearchConfig     `json:"search" yaml:"search"`
	Reasoning  ReasoningConfig  `json:"reasoning" yaml:"reasoning"`
	Scoring    ScoringConfig    `json:"scoring" yaml:"scoring"`
	Enrich     EnrichConfig     `json:"enrich" yaml:"enrich"`
	Resilience ResilienceConfig `json:"resilience" yaml:"resilience"`
	Run        RunConfig        `json:"run" yaml:"run"`
	Session    SessionConfig    `json:"session" yaml:"session"`
	Store      StoreConfig      `json:"store" yaml:"store"`
	Server     ServerConfig     `json:"server" yaml:"server"`
}

// DefaultConfig returns the documented defaults for every stage.
func DefaultConfig() Config {
	return Config{
		Search: SearchConfig{
			HTTPConfig: HTTPConfig{Timeout: 20 * time.Second, UserAgent: "fit-engine/0.1"},
			MaxResults: 10,
			Depth:      "basic",
		},
		Reasoning: ReasoningConfig{
			HTTPConfig: HTTPConfig{Timeout: 45 * time.Second, UserAgent: "fit-engine/0.1"},
			Endpoint:   "https://api.openai.com/v1",
			Model:      "gpt-4o-mini",
			MaxRetries: 3,
		},
		Scoring: ScoringConfig{
			Concurrency:          5,
			BaseThreshold:        0.55,
			NicheThreshold:       0.45,
			NicheBelow:           10,
			StrictThreshold:      0.60,
			StrictAbove:          30,
			NoisyRatioCapAbove:   0.5,
			CleanRatioFloorBelow: 0.2,
			CleanFloorAbove:      20,
			NoisyExtractability:  0.5,
		},
		Enrich: EnrichConfig{
			HTTPConfig:      HTTPConfig{Timeout: 10 * time.Second, UserAgent: "fit-engine/0.1"},
			TopK:            5,
			Concurrency:     3,
			MaxContentChars: 8000,
			MinContentChars: 200,
			CacheSize:       256,
		},
		Resilience: ResilienceConfig{
			Search:    BreakerConfig{FailureThreshold: 3, ResetTimeout: 60 * time.Second, Permits: 4, CallTimeout: 20 * time.Second},
			Reasoning: BreakerConfig{FailureThreshold: 5, ResetTimeout: 60 * time.Second, Permits: 8, CallTimeout: 45 * time.Second},
		},
		Run: RunConfig{
			MaxIterations: 3,
			RunTimeout:    300 * time.Second,
			EventBuffer:   256,
		},
		Session: SessionConfig{
			Retention:  30 * time.Minute,
			MaxHistory: 1000,
		},
		Server: ServerConfig{Addr: ":8418"},
	}
}
