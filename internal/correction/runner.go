package correction

import (
	"context"
	"wastenot-e2e/internal/components/assert"
	"wastenot-e2e/internal/components/chrono"
	"wastenot-e2e/internal/components/telemetry"

	"golang.org/x/sync/errgroup"
)

// Runner runs a batch of tasks, it defaults to one task at a time.
type Runner struct {
	workflow    Workflow
	clock       chrono.API
	metrics     Metrics
	concurrency int
	tel         telemetry.API
}

type RunnerParams struct {
	Workflow Workflow
	Clock    chrono.API
	// optional
	Metrics     Metrics
	Concurrency int
	Tel         telemetry.API
}

func NewRunner(params RunnerParams) Runner {
	assert.NotNil(params.Clock, "clock")
	assert.NotNil(params.Tel, "tel")

	concurrency := params.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return Runner{
		workflow:    params.Workflow,
		clock:       params.Clock,
		metrics:     params.Metrics,
		concurrency: concurrency,
		tel:         telemetry.NewScopedAPI("correction", params.Tel),
	}
}

// Run executes every task and folds the results after all of them settled.
// Each task writes only its own slot of the results slice.
func (r Runner) Run(ctx context.Context, tasks []Task) Summary {
	started := r.clock.Now()
	results := make([]Result, len(tasks))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, task := range tasks {
		g.Go(func() error {
			results[i] = r.workflow.Run(ctx, task)
			return nil
		})
	}
	// tasks never return errors, failures live on their results
	_ = g.Wait()

	summary := Fold(results)
	summary.StartedAt = started
	summary.FinishedAt = r.clock.Now()

	r.metrics.Record(ctx, results)
	r.tel.ReportCount("runner.updated", int64(len(summary.Updated)))
	r.tel.ReportCount("runner.errors", int64(len(summary.Errors)))
	return summary
}
