package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/uiscenario/internal/harness"
)

// timeFormat has a fixed width so started_at sorts as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned by ReadRun for an unknown ID.
var ErrRunNotFound = errors.New("run not found")

// RunSummary is the aggregate row of a run, without its results.
type RunSummary struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	BaseURL   string        `json:"base_url,omitempty"`
	Backend   string        `json:"backend,omitempty"`
	Passed    int           `json:"passed"`
	Failed    int           `json:"failed"`
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, duration_ms, base_url, backend, passed, failed
		FROM runs
		ORDER BY started_at DESC, id COLLATE BINARY ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns a run with its full report. Scenarios and their results
// come back in the order they were written.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, RunSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, duration_ms, base_url, backend, passed, failed
		FROM runs
		WHERE id = ?
	`, id)
	sum, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, RunSummary{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, RunSummary{}, err
	}

	scenarios, err := s.readScenarios(ctx, id)
	if err != nil {
		return Run{}, RunSummary{}, err
	}
	if err := s.readSteps(ctx, id, scenarios); err != nil {
		return Run{}, RunSummary{}, err
	}

	return Run{
		ID:        sum.ID,
		StartedAt: sum.StartedAt,
		Duration:  sum.Duration,
		BaseURL:   sum.BaseURL,
		Backend:   sum.Backend,
		Report:    &harness.Report{Scenarios: scenarios},
	}, sum, nil
}

func (s *Store) readScenarios(ctx context.Context, runID string) ([]harness.ScenarioResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT suite, name, skipped, duration_ms, warnings
		FROM scenario_results
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query scenario results: %w", err)
	}
	defer rows.Close()

	scenarios := []harness.ScenarioResult{}
	for rows.Next() {
		var (
			sc         harness.ScenarioResult
			durationMS int64
			warnings   string
		)
		if err := rows.Scan(&sc.Suite, &sc.Name, &sc.Skipped, &durationMS, &warnings); err != nil {
			return nil, fmt.Errorf("scan scenario result: %w", err)
		}
		sc.Duration = time.Duration(durationMS) * time.Millisecond
		if sc.Warnings, err = unmarshalWarnings(warnings); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		scenarios = append(scenarios, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scenario results: %w", err)
	}
	return scenarios, nil
}

// readSteps fills in the results of each scenario, indexed by its seq.
func (s *Store) readSteps(ctx context.Context, runID string, scenarios []harness.ScenarioResult) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT scenario_seq, step_index, step, status, message, expected, actual, diff
		FROM step_results
		WHERE run_id = ?
		ORDER BY scenario_seq ASC, seq ASC
	`, runID)
	if err != nil {
		return fmt.Errorf("query step results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			seq    int
			res    harness.StepResult
			status string
		)
		if err := rows.Scan(&seq, &res.StepIndex, &res.Step, &status, &res.Message, &res.Expected, &res.Actual, &res.Diff); err != nil {
			return fmt.Errorf("scan step result: %w", err)
		}
		if seq < 0 || seq >= len(scenarios) {
			return fmt.Errorf("step result references unknown scenario %d", seq)
		}
		res.Status = harness.Status(status)
		res.Scenario = scenarios[seq].Name
		scenarios[seq].Results = append(scenarios[seq].Results, res)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate step results: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (RunSummary, error) {
	var (
		sum        RunSummary
		startedAt  string
		durationMS int64
	)
	if err := row.Scan(&sum.ID, &startedAt, &durationMS, &sum.BaseURL, &sum.Backend, &sum.Passed, &sum.Failed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunSummary{}, err
		}
		return RunSummary{}, fmt.Errorf("scan run: %w", err)
	}
	t, err := time.Parse(timeFormat, startedAt)
	if err != nil {
		return RunSummary{}, fmt.Errorf("run %s: parse started_at: %w", sum.ID, err)
	}
	sum.StartedAt = t
	sum.Duration = time.Duration(durationMS) * time.Millisecond
	return sum, nil
}

func unmarshalWarnings(data string) ([]string, error) {
	var warnings []string
	if err := json.Unmarshal([]byte(data), &warnings); err != nil {
		return nil, fmt.Errorf("unmarshal warnings: %w", err)
	}
	if len(warnings) == 0 {
		return nil, nil
	}
	return warnings, nil
}
