package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/casegen/internal/canon"
)

// Status of one generated test method.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	StatusSkip Status = "skip"
)

// Outcome is the result of one generated test method.
type Outcome struct {
	RunID       string
	Suite       string
	Module      string
	Method      string
	Category    string
	Description string
	Status      Status
	Error       string
	Duration    time.Duration
	RecordedAt  time.Time
}

// Run summarises one suite run.
type Run struct {
	ID        string
	Suite     string
	Module    string
	StartedAt time.Time
	Passed    int
	Failed    int
	Skipped   int
}

const timeLayout = time.RFC3339Nano

// outcomeID identifies an outcome by run and method, so recording the same
// method twice in a run keeps the first row.
func outcomeID(runID, method string) (string, error) {
	data, err := canon.Marshal(map[string]any{"run": runID, "method": method})
	if err != nil {
		return "", err
	}
	return canon.Hash("casegen/outcome/v1", data), nil
}

// Record stores o. The run row is created on the first outcome of a run.
// RecordedAt is filled from the store clock when zero.
func (s *Store) Record(ctx context.Context, o Outcome) error {
	if o.RunID == "" {
		return fmt.Errorf("record outcome: run id is required")
	}
	if o.RecordedAt.IsZero() {
		o.RecordedAt = s.now()
	}

	id, err := outcomeID(o.RunID, o.Method)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, suite, module, started_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, o.RunID, o.Suite, o.Module, o.RecordedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO outcomes
		(id, run_id, method, category, description, status, error, duration_ms, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		id,
		o.RunID,
		o.Method,
		o.Category,
		o.Description,
		string(o.Status),
		o.Error,
		o.Duration.Milliseconds(),
		o.RecordedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}

	return tx.Commit()
}

// Outcomes returns the outcomes of a run ordered by method name.
//
// Returns an empty slice (not nil) for an unknown run.
func (s *Store) Outcomes(ctx context.Context, runID string) ([]Outcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.run_id, r.suite, r.module, o.method, o.category, o.description,
		       o.status, o.error, o.duration_ms, o.recorded_at
		FROM outcomes o
		JOIN runs r ON r.id = o.run_id
		WHERE o.run_id = ?
		ORDER BY o.method COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := []Outcome{}
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return outcomes, nil
}

func scanOutcome(rows *sql.Rows) (Outcome, error) {
	var (
		o          Outcome
		status     string
		durationMS int64
		recordedAt string
	)
	if err := rows.Scan(&o.RunID, &o.Suite, &o.Module, &o.Method, &o.Category, &o.Description,
		&status, &o.Error, &durationMS, &recordedAt); err != nil {
		return Outcome{}, fmt.Errorf("scan outcome: %w", err)
	}

	at, err := time.Parse(timeLayout, recordedAt)
	if err != nil {
		return Outcome{}, fmt.Errorf("parse recorded_at: %w", err)
	}
	o.Status = Status(status)
	o.Duration = time.Duration(durationMS) * time.Millisecond
	o.RecordedAt = at
	return o, nil
}

// Runs lists runs newest first, with per-status counts. A positive limit
// caps the number of runs returned.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT r.id, r.suite, r.module, r.started_at,
		       COALESCE(SUM(o.status = 'pass'), 0),
		       COALESCE(SUM(o.status = 'fail'), 0),
		       COALESCE(SUM(o.status = 'skip'), 0)
		FROM runs r
		LEFT JOIN outcomes o ON o.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_at DESC, r.id COLLATE BINARY ASC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			r         Run
			startedAt string
		)
		if err := rows.Scan(&r.ID, &r.Suite, &r.Module, &startedAt, &r.Passed, &r.Failed, &r.Skipped); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		at, err := time.Parse(timeLayout, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		r.StartedAt = at
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
