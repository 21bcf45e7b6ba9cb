package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/uiscenario/internal/harness"
	"github.com/roach88/uiscenario/internal/testutil"
)

// createTestStore creates a new store in a temporary directory with
// predictable run IDs.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(testutil.NewSequentialIDs("run").Generate))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleReport() *harness.Report {
	return &harness.Report{Scenarios: []harness.ScenarioResult{
		{
			Suite: "form_authentication",
			Name:  "heading",
			Results: []harness.StepResult{
				{Scenario: "heading", StepIndex: 0, Step: `assert_equal text(xpath=//h2) == "Login Page"`, Status: harness.StatusPass},
			},
			Duration: 120 * time.Millisecond,
		},
		{
			Suite: "form_authentication",
			Name:  "labels",
			Results: []harness.StepResult{
				{
					Scenario:  "labels",
					StepIndex: 0,
					Step:      `assert_list_equal texts(xpath=//label) == ["Password" "Username"]`,
					Status:    harness.StatusFail,
					Message:   "Label texts are incorrect",
					Expected:  `["Password", "Username"]`,
					Actual:    `["Username", "Password"]`,
					Diff:      "--- expected\n+++ actual\n",
				},
			},
			Warnings: []string{"teardown: close session: browser crashed"},
			Skipped:  1,
			Duration: 80 * time.Millisecond,
		},
		{
			Suite: "broken",
			Name:  "unreachable",
			Results: []harness.StepResult{
				{Scenario: "unreachable", StepIndex: harness.SetupStepIndex, Step: "navigate http://fake.test/broken", Status: harness.StatusFail, Message: "setup failed"},
			},
			Skipped: 2,
		},
	}}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	id, err := s1.WriteRun(ctx, Run{StartedAt: testutil.Epoch, Report: sampleReport()})
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	runs, err := s2.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Len(t, id, 36, "default IDs are UUIDs")
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema version 99 is newer")
}

func TestWriteRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	report := sampleReport()

	id, err := s.WriteRun(ctx, Run{
		StartedAt: testutil.Epoch,
		Duration:  1500 * time.Millisecond,
		BaseURL:   "http://127.0.0.1:8080",
		Backend:   "static",
		Report:    report,
	})
	require.NoError(t, err)
	assert.Equal(t, "run-0001", id)

	run, sum, err := s.ReadRun(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, id, run.ID)
	assert.True(t, testutil.Epoch.Equal(run.StartedAt))
	assert.Equal(t, 1500*time.Millisecond, run.Duration)
	assert.Equal(t, "http://127.0.0.1:8080", run.BaseURL)
	assert.Equal(t, "static", run.Backend)
	assert.Equal(t, report, run.Report)

	assert.Equal(t, 1, sum.Passed)
	assert.Equal(t, 2, sum.Failed)
}

func TestWriteRun_RendersSameReport(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	id, err := s.WriteRun(ctx, Run{StartedAt: testutil.Epoch, Report: sampleReport()})
	require.NoError(t, err)
	run, _, err := s.ReadRun(ctx, id)
	require.NoError(t, err)

	harness.AssertGolden(t, "history_run", run.Report)
}

func TestWriteRun_RequiresReport(t *testing.T) {
	s := createTestStore(t)
	_, err := s.WriteRun(context.Background(), Run{ID: "x"})
	assert.EqualError(t, err, "write run: report is required")
}

func TestWriteRun_DuplicateIDFails(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.WriteRun(ctx, Run{ID: "same", StartedAt: testutil.Epoch, Report: sampleReport()})
	require.NoError(t, err)
	_, err = s.WriteRun(ctx, Run{ID: "same", StartedAt: testutil.Epoch, Report: sampleReport()})
	require.Error(t, err)

	// The failed transaction left nothing behind.
	run, _, err := s.ReadRun(ctx, "same")
	require.NoError(t, err)
	assert.Len(t, run.Report.Scenarios, 3)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, _, err := s.ReadRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestReadRun_EmptyReport(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	id, err := s.WriteRun(ctx, Run{StartedAt: testutil.Epoch, Report: &harness.Report{}})
	require.NoError(t, err)

	run, sum, err := s.ReadRun(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, run.Report.Scenarios)
	assert.Zero(t, sum.Passed)
	assert.Zero(t, sum.Failed)
}

func TestListRuns_NewestFirst(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.WriteRun(ctx, Run{
			StartedAt: testutil.Epoch.Add(time.Duration(i) * 1500 * time.Millisecond),
			Report:    sampleReport(),
		})
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"run-0003", "run-0002", "run-0001"}, []string{runs[0].ID, runs[1].ID, runs[2].ID})

	limited, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, runs[:2], limited)
}

func TestListRuns_Empty(t *testing.T) {
	s := createTestStore(t)
	runs, err := s.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestDeleteRun_Cascades(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	id, err := s.WriteRun(ctx, Run{StartedAt: testutil.Epoch, Report: sampleReport()})
	require.NoError(t, err)
	require.NoError(t, s.DeleteRun(ctx, id))
	assert.ErrorIs(t, s.DeleteRun(ctx, id), ErrRunNotFound)

	_, _, err = s.ReadRun(ctx, id)
	assert.ErrorIs(t, err, ErrRunNotFound)

	var steps int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM step_results").Scan(&steps))
	assert.Zero(t, steps)
}
