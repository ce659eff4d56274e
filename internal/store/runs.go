package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/geocheck/internal/report"
)

// Run is one row of the history.
type Run struct {
	ID           string    `json:"id"`
	Seq          int64     `json:"seq"`
	ReportHash   string    `json:"reportHash"`
	OK           bool      `json:"ok"`
	FailureCount int       `json:"failureCount"`
	WarningCount int       `json:"warningCount"`
	Failures     []string  `json:"failures"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewRunID returns a UUIDv7, so IDs sort in creation order.
func NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// RecordRun appends run to the history and returns it with Seq assigned.
// An empty ID is replaced by NewRunID; FailureCount is taken from Failures.
func (s *Store) RecordRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	if run.Failures == nil {
		run.Failures = []string{}
	}
	run.FailureCount = len(run.Failures)

	failuresJSON, err := report.MarshalCanonical(run.Failures)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&run.Seq); err != nil {
		return Run{}, fmt.Errorf("record run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, report_hash, ok, failure_count, warning_count, failures, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Seq,
		run.ReportHash,
		run.OK,
		run.FailureCount,
		run.WarningCount,
		string(failuresJSON),
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	return run, nil
}

// LatestRun returns the run with the highest seq.
// Returns sql.ErrNoRows if the history is empty.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, report_hash, ok, failure_count, warning_count, failures, created_at
		FROM runs
		ORDER BY seq DESC
		LIMIT 1
	`)
	return scanRun(row)
}

// ListRuns returns up to limit runs, newest first. limit <= 0 means all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, report_hash, ok, failure_count, warning_count, failures, created_at
		FROM runs
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// CountRunsWithHash reports how many recorded runs produced hash.
func (s *Store) CountRunsWithHash(ctx context.Context, hash string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE report_hash = ?`, hash).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run          Run
		failuresJSON string
		createdAt    string
	)
	err := sc.Scan(
		&run.ID,
		&run.Seq,
		&run.ReportHash,
		&run.OK,
		&run.FailureCount,
		&run.WarningCount,
		&failuresJSON,
		&createdAt,
	)
	if err != nil {
		return Run{}, err
	}

	if err := json.Unmarshal([]byte(failuresJSON), &run.Failures); err != nil {
		return Run{}, fmt.Errorf("run %s: failures: %w", run.ID, err)
	}
	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return Run{}, fmt.Errorf("run %s: created_at: %w", run.ID, err)
	}
	return run, nil
}

var _ scanner = (*sql.Row)(nil)
