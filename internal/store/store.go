// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists completed run reports in a SQLite database so past
// research stays queryable after the in-memory session retention window.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/meshintel/fit-engine/pkg/types"
)

// Store manages the run-history SQLite database.
type Store struct {
	db *sql.DB
}

// RunSummary is one stored run, without the full report payload.
type RunSummary struct {
	SessionID  string    `json:"session_id"`
	Query      string    `json:"query"`
	Company    string    `json:"company"`
	Tier       string    `json:"tier"`
	Confidence int       `json:"confidence"`
	Aborted    bool      `json:"aborted"`
	Iterations int       `json:"iterations"`
	CreatedAt  time.Time `json:"created_at"`
}

// Open opens or creates the run store at the configured path, creating the
// schema if needed.
func Open(cfg types.StoreConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store path not configured")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			session_id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			company TEXT,
			tier TEXT,
			confidence INTEGER,
			aborted INTEGER NOT NULL,
			iterations INTEGER,
			report TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_company ON runs(company)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveReport stores a completed run. Saving the same session id again
// replaces the stored report.
func (s *Store) SaveReport(ctx context.Context, report types.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs
			(session_id, query, company, tier, confidence, aborted, iterations, report, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.SessionID,
		report.Query.Raw,
		report.Query.CompanyName,
		string(report.Verdict.Tier),
		report.Confidence,
		boolToInt(report.Aborted),
		report.Iterations,
		string(payload),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// Report loads a stored run's full report.
func (s *Store) Report(ctx context.Context, sessionID string) (types.Report, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT report FROM runs WHERE session_id = ?`, sessionID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return types.Report{}, fmt.Errorf("run %s not found", sessionID)
	}
	if err != nil {
		return types.Report{}, fmt.Errorf("querying run: %w", err)
	}

	var report types.Report
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return types.Report{}, fmt.Errorf("parsing stored report: %w", err)
	}
	return report, nil
}

// Recent lists the most recent runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, query, company, tier, confidence, aborted, iterations, created_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var aborted int
		var created string
		if err := rows.Scan(&r.SessionID, &r.Query, &r.Company, &r.Tier,
			&r.Confidence, &aborted, &r.Iterations, &created); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Aborted = aborted != 0
		r.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// PurgeOlderThan deletes runs created before the cutoff and returns how
// many were removed.
func (s *Store) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE created_at < ?`, cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("purging runs: %w", err)
	}
	return res.RowsAffected()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
