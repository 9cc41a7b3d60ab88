// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meshintel/fit-engine/internal/server"
	"github.com/meshintel/fit-engine/internal/session"
	"github.com/meshintel/fit-engine/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP front door",
	Long: `Serve starts the HTTP API. Clients start runs with POST /api/research,
stream progress from GET /api/research/{id}/events (server-sent events), and
fetch the final report from GET /api/research/{id}/report.

Completed reports are persisted to the run store when store.path is
configured.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
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

	var persister session.Persister
	if cfg.Store.Path != "" {
		st, err := store.Open(cfg.Store)
		if err != nil {
			return fmt.Errorf("opening run store: %w", err)
		}
		defer st.Close()
		persister = st
		fmt.Fprintln(os.Stderr, "Run store:", cfg.Store.Path)
	}

	sessions := session.NewManager(seq, persister, cfg.Session, logger)
	srv := server.New(sessions, cfg.Server, logger)

	logger.Info("listening", zap.String("addr", cfg.Server.Addr))
	return srv.ListenAndServe()
}
