// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the fit-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/meshintel/fit-engine/internal/classify"
	"github.com/meshintel/fit-engine/internal/enrich"
	"github.com/meshintel/fit-engine/internal/pipeline"
	"github.com/meshintel/fit-engine/internal/reasoning"
	"github.com/meshintel/fit-engine/internal/report"
	"github.com/meshintel/fit-engine/internal/resilience"
	"github.com/meshintel/fit-engine/internal/scoring"
	"github.com/meshintel/fit-engine/internal/secrets"
	"github.com/meshintel/fit-engine/internal/websearch"
	"github.com/meshintel/fit-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if set, otherwise the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the fit-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "fit-engine",
	Short: "Employer-fit research pipeline",
	Long: `fit-engine researches prospective employers for a candidate. Given a company
name or a pasted job description, it runs a bounded search/score/triage loop
against the public web, synthesizes a research record, and reports findings
with gaps and a calibrated confidence.

Run a one-shot research session with the research subcommand, or start the
HTTP front door with serve and stream progress over SSE.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./fit-engine.yaml or ~/.config/fit-engine/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("fit-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "fit-engine"))
		}
	}

	viper.SetEnvPrefix("FIT_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig merges the config file over the documented defaults and fills
// API credentials from .secrets/ when the file leaves them empty.
func loadConfig() (types.Config, error) {
	cfg := types.DefaultConfig()
	err := viper.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	})
	if err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Search.APIKey = secretDefault("tavily-api-key", cfg.Search.APIKey)
	cfg.Reasoning.APIKey = secretDefault("openai-api-key", cfg.Reasoning.APIKey)
	if ep, ok := loadedSecrets["reasoning-endpoint"]; ok && viper.GetString("reasoning.endpoint") == "" {
		cfg.Reasoning.Endpoint = ep
	}
	return cfg, nil
}

func newLogger() (*zap.Logger, error) {
	verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newSequencer wires the full pipeline from configuration: one resilience
// registry shared across the reasoning and search call sites, the Tavily
// backend, and the reasoning client behind every scoring and synthesis stage.
func newSequencer(cfg types.Config, logger *zap.Logger) (*pipeline.Sequencer, error) {
	registry := resilience.NewRegistry(cfg.Resilience, logger)
	client := reasoning.NewHTTPClient(cfg.Reasoning)

	enricher, err := enrich.New(cfg.Enrich, logger)
	if err != nil {
		return nil, fmt.Errorf("building enricher: %w", err)
	}

	deps := pipeline.Deps{
		Classifier:  classify.New(client, registry, logger),
		Search:      websearch.NewTavily(cfg.Search),
		Scorer:      scoring.NewScorer(client, registry, cfg.Scoring, logger),
		Synthesizer: report.NewSynthesizer(client, registry, logger),
		Analyzer:    report.NewAnalyzer(client, registry, logger),
		Enricher:    enricher,
		Registry:    registry,
	}
	return pipeline.NewSequencer(deps, cfg.Run, cfg.Search, logger), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
