// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/meshintel/fit-engine/internal/report"
	"github.com/meshintel/fit-engine/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List persisted research runs",
	Long: `History lists runs persisted by the serve command, newest first. Requires
store.path to be configured.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print the stored report for a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete runs older than the retention window",
	RunE:  runHistoryPurge,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	historyCmd.Flags().Bool("json", false, "output as JSON")
	historyPurgeCmd.Flags().Duration("older-than", 30*24*time.Hour, "delete runs older than this")
	historyCmd.AddCommand(historyShowCmd, historyPurgeCmd)
	rootCmd.AddCommand(historyCmd)
}

func openStore() (*store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Store.Path == "" {
		return nil, fmt.Errorf("no run store configured; set store.path")
	}
	return store.Open(cfg.Store)
}

func runHistory(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := st.Recent(context.Background(), limit)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}
	for _, r := range runs {
		status := "completed"
		if r.Aborted {
			status = "aborted"
		}
		fmt.Printf("%s  %-9s  %-8s  conf %3d  iter %d  %s\n",
			r.CreatedAt.Format("2006-01-02 15:04"), status, r.Tier, r.Confidence, r.Iterations, r.Company)
		fmt.Printf("  %s  %q\n", r.SessionID, r.Query)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	rep, err := st.Report(context.Background(), args[0])
	if err != nil {
		return err
	}
	return report.WriteJSON(os.Stdout, rep)
}

func runHistoryPurge(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	olderThan, _ := cmd.Flags().GetDuration("older-than")
	n, err := st.PurgeOlderThan(context.Background(), time.Now().Add(-olderThan))
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d runs.\n", n)
	return nil
}
