// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package session persists a queryable audit log of orchestrator runs to
// SQLite, beyond the rolling window pkg/checkpoint keeps on disk. It
// implements orchestrator.SessionRecorder so a Store can be wired
// directly into an Orchestrator.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sriinnu/chitragupta-sub012/pkg/orchestrator"
)

const createRunsTableSQL = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    original_branch TEXT NOT NULL,
    feature_branch TEXT NOT NULL,
    plan_json TEXT NOT NULL,
    stats_json TEXT NOT NULL,
    errors_json TEXT NOT NULL,
    error_count INTEGER NOT NULL,
    commit_count INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

// Run is one persisted orchestrator run, as returned by ListRuns.
type Run struct {
	ID             int64
	OriginalBranch string
	FeatureBranch  string
	PlanJSON       string
	StatsJSON      string
	ErrorsJSON     string
	ErrorCount     int
	CommitCount    int
	CreatedAt      time.Time
}

// Store is a SQLite-backed audit log of orchestrator runs. Open limits the
// pool to a single connection: SQLite serializes writers,
// and the pure-Go modernc.org/sqlite driver has no concurrent-writer
// advantage to lose by pooling.
type Store struct {
	db *sql.DB
}

// Open creates (or attaches to) the SQLite database at path and ensures
// the schema exists. path may be ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("session: open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=10000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, createRunsTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun persists one finished orchestrator run. Store satisfies
// orchestrator.SessionRecorder.
func (s *Store) RecordRun(result *orchestrator.Result) error {
	planJSON, err := json.Marshal(result.Plan)
	if err != nil {
		return fmt.Errorf("session: marshal plan: %w", err)
	}
	statsJSON, err := json.Marshal(result.Stats)
	if err != nil {
		return fmt.Errorf("session: marshal stats: %w", err)
	}
	errsJSON, err := json.Marshal(result.Errors)
	if err != nil {
		return fmt.Errorf("session: marshal errors: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (original_branch, feature_branch, plan_json, stats_json, errors_json, error_count, commit_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.OriginalBranch, result.FeatureBranch,
		string(planJSON), string(statsJSON), string(errsJSON),
		len(result.Errors), len(result.Commits), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("session: insert run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first, bounded by limit.
// A non-positive limit returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, original_branch, feature_branch, plan_json, stats_json, errors_json, error_count, commit_count, created_at
	          FROM runs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("session: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.OriginalBranch, &r.FeatureBranch, &r.PlanJSON, &r.StatsJSON, &r.ErrorsJSON, &r.ErrorCount, &r.CommitCount, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("session: scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun fetches a single run by id.
func (s *Store) GetRun(ctx context.Context, id int64) (*Run, error) {
	var r Run
	err := s.db.QueryRowContext(ctx,
		`SELECT id, original_branch, feature_branch, plan_json, stats_json, errors_json, error_count, commit_count, created_at
		 FROM runs WHERE id = ?`, id,
	).Scan(&r.ID, &r.OriginalBranch, &r.FeatureBranch, &r.PlanJSON, &r.StatsJSON, &r.ErrorsJSON, &r.ErrorCount, &r.CommitCount, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session: run %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("session: get run: %w", err)
	}
	return &r, nil
}

// PruneOlderThan deletes runs recorded before cutoff and returns the
// number of rows removed.
func (s *Store) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("session: prune runs: %w", err)
	}
	return res.RowsAffected()
}
