package correction

import (
	"context"
	"errors"
	"fmt"
	"wastenot-e2e/internal/components/assert"
	"wastenot-e2e/internal/components/chrono"
	"wastenot-e2e/internal/components/telemetry"
	"wastenot-e2e/internal/dbexec"
)

const (
	report_workflow_run       = "workflow.run"
	report_workflow_skip      = "workflow.skip"
	report_workflow_confirm   = "workflow.confirm"
	report_workflow_artifacts = "workflow.artifacts"
)

type Outcome string

const (
	OutcomeUpdated                     Outcome = "updated"
	OutcomeSkippedNoRows               Outcome = "skipped_no_rows"
	OutcomeSkippedPreconditionMismatch Outcome = "skipped_precondition_mismatch"
	OutcomeSkippedNoReferenceRow       Outcome = "skipped_no_reference_row"
	OutcomeDryRun                      Outcome = "dry_run"
	OutcomeErrored                     Outcome = "errored"
)

// ErrNoRowsAfterUpdate is attached to an updated result whose confirmation
// read came back empty.
var ErrNoRowsAfterUpdate = errors.New("no rows after update")

// Result is the outcome of one task, it is never shared between tasks.
type Result struct {
	Task    Task
	Outcome Outcome
	// rows matched by the scoped read
	Matched int
	// reference value, set once the reference read found a row
	Actual string
	Exec   dbexec.ExecResult
	// set for OutcomeErrored
	Err error
	// non-fatal, set when the confirmation read found no rows
	ConfirmErr error
	Artifacts  []string
}

const (
	DefaultDaysAhead = 2
	DefaultTimeOfDay = "10:00:08"
)

type Options struct {
	Tables Tables
	// the forward-dated timestamp is DaysAhead days from today in the
	// clock's location, at TimeOfDay
	DaysAhead int
	TimeOfDay string
	DryRun    bool
}

type Workflow struct {
	exec      dbexec.Executor
	artifacts dbexec.ArtifactWriter
	clock     chrono.API
	opts      Options
	tel       telemetry.API
}

type WorkflowParams struct {
	Executor  dbexec.Executor
	Artifacts dbexec.ArtifactWriter
	Clock     chrono.API
	Tel       telemetry.API
}

func NewWorkflow(params WorkflowParams, opts Options) (Workflow, error) {
	assert.NotNil(params.Executor, "executor")
	assert.NotNil(params.Artifacts, "artifacts")
	assert.NotNil(params.Clock, "clock")
	assert.NotNil(params.Tel, "tel")

	opts.Tables = opts.Tables.WithDefaults()
	err := opts.Tables.Validate()
	if err != nil {
		return Workflow{}, err
	}
	if opts.TimeOfDay == "" {
		opts.TimeOfDay = DefaultTimeOfDay
	}
	_, err = chrono.DaysAhead(params.Clock.Now(), params.Clock.Location(), opts.DaysAhead, opts.TimeOfDay)
	if err != nil {
		return Workflow{}, err
	}

	return Workflow{
		exec:      params.Executor,
		artifacts: params.Artifacts,
		clock:     params.Clock,
		opts:      opts,
		tel:       telemetry.NewScopedAPI("correction", params.Tel),
	}, nil
}

func (w Workflow) query(ctx context.Context, st statement) (dbexec.Rows, error) {
	w.tel.ReportDebug("query", st.String(), st.args)
	return w.exec.Query(ctx, st.sql, st.args...)
}

func (w Workflow) writeArtifact(res *Result, stem, ts string, rows dbexec.Rows) error {
	path, err := w.artifacts.Write(stem, ts, rows)
	if err != nil {
		w.tel.ReportBroken(report_workflow_artifacts, err, stem)
		return fmt.Errorf("write artifact %s: %w", stem, err)
	}
	res.Artifacts = append(res.Artifacts, path)
	return nil
}

// Run executes the steps of one task in order. Any failure is captured on
// the returned result, Run itself never fails.
func (w Workflow) Run(ctx context.Context, task Task) Result {
	res, err := w.run(ctx, task)
	if err != nil {
		res.Outcome = OutcomeErrored
		res.Err = err
		w.tel.ReportBroken(report_workflow_run, err, task.Key)
	}
	return res
}

func (w Workflow) run(ctx context.Context, task Task) (Result, error) {
	res := Result{Task: task}
	ts := chrono.FileTimestamp(w.clock.Now())
	tables := w.opts.Tables

	err := task.Validate()
	if err != nil {
		return res, err
	}

	// 1. scoped read, the artifact is written whatever the outcome
	rows, err := w.query(ctx, tables.scopedSelect(task))
	if err != nil {
		return res, fmt.Errorf("scoped read: %w", err)
	}
	res.Matched = rows.Len()
	err = w.writeArtifact(&res, fmt.Sprintf("select_k%s", task.Key), ts, rows)
	if err != nil {
		return res, err
	}

	// 2.
	if rows.Len() == 0 {
		res.Outcome = OutcomeSkippedNoRows
		w.tel.ReportDebug("no rows", task.Key)
		return res, nil
	}

	// 3. reference read
	refRows, err := w.query(ctx, tables.referenceSelect(task))
	if err != nil {
		return res, fmt.Errorf("reference read: %w", err)
	}
	err = w.writeArtifact(&res, fmt.Sprintf("kitchen_%s", task.Key), ts, refRows)
	if err != nil {
		return res, err
	}
	if refRows.Len() == 0 {
		res.Outcome = OutcomeSkippedNoReferenceRow
		w.tel.ReportWarning(report_workflow_skip, "no reference row", task.Key)
		return res, nil
	}

	// 4. precondition
	actual, ok := refRows.Value(0, tables.ReferenceValue)
	if !ok {
		return res, fmt.Errorf("reference table has no column %s", tables.ReferenceValue)
	}
	res.Actual = refRows.String(0, tables.ReferenceValue)
	if actual == nil || res.Actual != task.Expected {
		res.Outcome = OutcomeSkippedPreconditionMismatch
		w.tel.ReportWarning(report_workflow_skip, "precondition mismatch", task.Key, res.Actual, task.Expected)
		return res, nil
	}

	if w.opts.DryRun {
		res.Outcome = OutcomeDryRun
		w.tel.ReportDebug("dry run, skipping update", task.Key, res.Matched)
		return res, nil
	}

	// 5. write
	appDate, err := chrono.DaysAhead(w.clock.Now(), w.clock.Location(), w.opts.DaysAhead, w.opts.TimeOfDay)
	if err != nil {
		return res, err
	}
	update := tables.update(task, appDate)
	w.tel.ReportDebug("exec", update.String(), update.args)
	execRes, err := w.exec.Exec(ctx, update.sql, update.args...)
	if err != nil {
		return res, fmt.Errorf("update: %w", err)
	}
	res.Outcome = OutcomeUpdated
	res.Exec = execRes

	// 6. confirm
	confirmRows, err := w.query(ctx, tables.confirmSelect(task))
	if err != nil {
		res.ConfirmErr = fmt.Errorf("confirmation read: %w", err)
		w.tel.ReportWarning(report_workflow_confirm, res.ConfirmErr, task.Key)
		return res, nil
	}
	err = w.writeArtifact(&res, fmt.Sprintf("confirm_k%s", task.Key), ts, confirmRows)
	if err != nil {
		res.ConfirmErr = err
		return res, nil
	}
	if confirmRows.Len() == 0 {
		res.ConfirmErr = ErrNoRowsAfterUpdate
		w.tel.ReportWarning(report_workflow_confirm, ErrNoRowsAfterUpdate, task.Key)
	}

	return res, nil
}
