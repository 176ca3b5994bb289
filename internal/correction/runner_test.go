package correction

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"
	"wastenot-e2e/internal/components/chrono"
	"wastenot-e2e/lib/testutil"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func seedBatch(t testing.TB, f fixture) []Task {
	// 1730 updates, 2320 has no rows, 3320 mismatches, 3555 has no kitchen row
	testutil.InsertTabletProfiles(t, f.db.DB,
		testutil.TabletProfile{KitchenID: "1730", CampusID: "C-31715"},
		testutil.TabletProfile{KitchenID: "3320", CampusID: "C-30841"},
		testutil.TabletProfile{KitchenID: "3555", CampusID: "C-1296"},
	)
	testutil.InsertKitchen(t, f.db.DB, "1730", "C-40575")
	testutil.InsertKitchen(t, f.db.DB, "3320", "C-99999")

	return []Task{
		{Key: "1730", Old: "C-31715", Expected: "C-40575"},
		{Key: "2320", Old: "C-53021", Expected: "C-66795"},
		{Key: "3320", Old: "C-30841", Expected: "C-30452"},
		{Key: "3555", Old: "C-1296", Expected: "C-1295"},
	}
}

func TestRunnerFoldsAfterAllTasks(t *testing.T) {
	for _, concurrency := range []int{1, 4} {
		f := setup(t)
		tasks := seedBatch(t, f)
		f.exec.failOn = ""

		reader := sdkmetric.NewManualReader()
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		metrics, err := NewMetrics(provider)
		if err != nil {
			t.Fatal(err)
		}

		runner := NewRunner(RunnerParams{
			Workflow:    f.workflow(t, false),
			Clock:       f.clock,
			Metrics:     metrics,
			Concurrency: concurrency,
			Tel:         f.tel,
		})
		summary := runner.Run(context.Background(), tasks)

		require.Equal(t, []string{"1730"}, summary.UpdatedKeys())
		require.Equal(t, []string{"2320"}, summary.SkippedNoRows)
		require.Equal(t, []MismatchEntry{{Key: "3320", Expected: "C-30452", Actual: "C-99999"}}, summary.SkippedPreconditionMismatch)
		require.Equal(t, []string{"3555"}, summary.SkippedNoReferenceRow)
		require.Empty(t, summary.Errors)
		require.Len(t, summary.Results, len(tasks))
		for i, r := range summary.Results {
			require.Equal(t, tasks[i].Key, r.Task.Key, "results keep task order")
		}
		require.Equal(t, 0, ExitCode(summary))

		var rm metricdata.ResourceMetrics
		err = reader.Collect(context.Background(), &rm)
		if err != nil {
			t.Fatal(err)
		}
		require.Equal(t, map[string]int64{
			"updated":                       1,
			"skipped_no_rows":               1,
			"skipped_precondition_mismatch": 1,
			"skipped_no_reference_row":      1,
		}, outcomeCounts(t, rm))

		require.NoError(t, provider.Shutdown(context.Background()))
	}
}

func outcomeCounts(t testing.TB, rm metricdata.ResourceMetrics) map[string]int64 {
	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "wastenot.correction.outcomes" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("unexpected aggregation %T", m.Data)
			}
			for _, dp := range sum.DataPoints {
				outcome, _ := dp.Attributes.Value("outcome")
				out[outcome.AsString()] += dp.Value
			}
		}
	}
	return out
}

func TestRunnerIsolatesTaskErrors(t *testing.T) {
	f := setup(t)
	tasks := seedBatch(t, f)
	// every reference read fails, tasks without rows are unaffected
	f.exec.failOn = "ot_kitchen"

	runner := NewRunner(RunnerParams{
		Workflow:    f.workflow(t, false),
		Clock:       f.clock,
		Concurrency: 2,
		Tel:         f.tel,
	})
	summary := runner.Run(context.Background(), tasks)

	require.Equal(t, []string{"2320"}, summary.SkippedNoRows)
	require.Len(t, summary.Errors, 3)
	require.Empty(t, summary.Updated)
	require.Equal(t, 2, ExitCode(summary))
}

func TestReports(t *testing.T) {
	start := time.Date(2025, time.January, 10, 20, 0, 0, 0, time.UTC)
	summary := Fold([]Result{
		{Task: Task{Key: "1730", Expected: "C-40575"}, Outcome: OutcomeUpdated},
		{Task: Task{Key: "3320", Expected: "C-30452"}, Outcome: OutcomeSkippedPreconditionMismatch, Actual: "C-99999"},
		{Task: Task{Key: "4181", Expected: "C-19325"}, Outcome: OutcomeDryRun, Matched: 4},
	})
	summary.Updated[0].RowsAffected = 3
	summary.StartedAt = start
	summary.FinishedAt = start.Add(time.Minute)

	var text bytes.Buffer
	err := WriteText(&text, summary)
	if err != nil {
		t.Fatal(err)
	}
	require.Contains(t, text.String(), "=== FINAL SUMMARY ===")
	require.Contains(t, text.String(), "Updated: 1730\n")
	require.Contains(t, text.String(), "Skipped - No Rows: None\n")
	require.Contains(t, text.String(), "Skipped - Precondition Mismatch: 3320 (C-99999 != C-30452)\n")
	require.Contains(t, text.String(), "Dry Run: 4181 (4 rows)\n")
	require.Contains(t, text.String(), "Errors: None\n")

	var out bytes.Buffer
	err = WriteJSON(&out, NewReport(summary, RunInfo{RunID: "run-1", Profile: "production-write"}))
	if err != nil {
		t.Fatal(err)
	}
	require.JSONEq(t, `{
		"schema_version": "1",
		"run_id": "run-1",
		"profile": "production-write",
		"dry_run": false,
		"started_at": "2025-01-10T20:00:00Z",
		"finished_at": "2025-01-10T20:01:00Z",
		"counts": {
			"updated": 1,
			"skipped_no_rows": 0,
			"skipped_precondition_mismatch": 1,
			"skipped_no_reference_row": 0,
			"dry_run": 1,
			"errors": 0
		},
		"updated": [{"key": "1730", "rows_affected": 3}],
		"skipped_no_rows": [],
		"skipped_precondition_mismatch": [{"key": "3320", "expected": "C-30452", "actual": "C-99999"}],
		"skipped_no_reference_row": [],
		"dry_run_tasks": [{"key": "4181", "matched": 4}],
		"errors": []
	}`, out.String())

	generated := NewReport(summary, RunInfo{})
	require.Len(t, generated.RunID, 36)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
}

func TestFixedClockRunnerTimes(t *testing.T) {
	f := setup(t)
	runner := NewRunner(RunnerParams{
		Workflow: f.workflow(t, false),
		Clock:    chrono.FixedImpl{At: fixedNow},
		Tel:      f.tel,
	})
	summary := runner.Run(context.Background(), nil)
	require.Equal(t, fixedNow, summary.StartedAt)
	require.Empty(t, summary.Results)
}
