// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/meshintel/fit-engine/internal/pipeline"
	"github.com/meshintel/fit-engine/internal/report"
)

var researchCmd = &cobra.Command{
	Use:   "research <query>",
	Short: "Run one research session and print the report",
	Long: `Research runs the full pipeline for a single query and writes the final
report to stdout. The query is a company name or a pasted job description;
progress events stream to stderr while the run is in flight.

Examples:
  fit-engine research "Acme Robotics"
  fit-engine research --yaml --max-iterations 2 "$(cat posting.txt)"`,
	Args: cobra.ExactArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().Bool("yaml", false, "write the report as YAML instead of JSON")
	researchCmd.Flags().Int("max-iterations", 0, "override the configured retry loop bound")
	researchCmd.Flags().Bool("thoughts", false, "include intermediate thought events in progress output")
	researchCmd.Flags().Bool("quiet", false, "suppress progress output on stderr")
	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	seq, err := newSequencer(cfg, logger)
	if err != nil {
		return err
	}

	asYAML, _ := cmd.Flags().GetBool("yaml")
	maxIter, _ := cmd.Flags().GetInt("max-iterations")
	thoughts, _ := cmd.Flags().GetBool("thoughts")
	quiet, _ := cmd.Flags().GetBool("quiet")

	run := seq.Start(context.Background(), uuid.NewString(), args[0], pipeline.Options{
		MaxIterations:   maxIter,
		IncludeThoughts: thoughts,
	})
	for ev := range run.Events() {
		if quiet {
			continue
		}
		fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", ev.Kind, ev.Stage, ev.Message)
	}
	rep := run.Wait()

	if asYAML {
		err = report.WriteYAML(os.Stdout, rep)
	} else {
		err = report.WriteJSON(os.Stdout, rep)
	}
	if err != nil {
		return err
	}
	if rep.Aborted {
		return fmt.Errorf("research aborted: %s", rep.AbortReason)
	}
	return nil
}
