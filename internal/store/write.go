package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/uiscenario/internal/harness"
)

// Run is one recorded invocation of the runner.
type Run struct {
	ID        string          `json:"id"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration_ns"`
	BaseURL   string          `json:"base_url,omitempty"`
	Backend   string          `json:"backend,omitempty"`
	Report    *harness.Report `json:"report"`
}

// WriteRun stores a run and all of its results in one transaction. An
// empty ID is filled in from the store's generator; the ID is returned.
func (s *Store) WriteRun(ctx context.Context, run Run) (string, error) {
	if run.Report == nil {
		return "", fmt.Errorf("write run: report is required")
	}
	if run.ID == "" {
		run.ID = s.newID()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	passed, failed := run.Report.Counts()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, started_at, duration_ms, base_url, backend, passed, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.StartedAt.UTC().Format(timeFormat),
		run.Duration.Milliseconds(),
		run.BaseURL,
		run.Backend,
		passed,
		failed,
	)
	if err != nil {
		return "", fmt.Errorf("write run: %w", err)
	}

	for i, sc := range run.Report.Scenarios {
		warnings, err := marshalWarnings(sc.Warnings)
		if err != nil {
			return "", fmt.Errorf("write run: scenario %s: %w", sc.Name, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO scenario_results
			(run_id, seq, suite, name, passed, skipped, duration_ms, warnings)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID, i, sc.Suite, sc.Name, sc.Passed(), sc.Skipped, sc.Duration.Milliseconds(), warnings,
		)
		if err != nil {
			return "", fmt.Errorf("write run: scenario %s: %w", sc.Name, err)
		}

		for j, res := range sc.Results {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO step_results
				(run_id, scenario_seq, seq, step_index, step, status, message, expected, actual, diff)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				run.ID, i, j, res.StepIndex, res.Step, string(res.Status),
				res.Message, res.Expected, res.Actual, res.Diff,
			)
			if err != nil {
				return "", fmt.Errorf("write run: scenario %s step %d: %w", sc.Name, res.StepIndex, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("write run: commit: %w", err)
	}
	return run.ID, nil
}

// DeleteRun removes a run and its results.
// Returns ErrRunNotFound when no run has the given ID.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete run %s: %w", id, ErrRunNotFound)
	}
	return nil
}

func marshalWarnings(warnings []string) (string, error) {
	if len(warnings) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(warnings)
	if err != nil {
		return "", fmt.Errorf("marshal warnings: %w", err)
	}
	return string(data), nil
}
