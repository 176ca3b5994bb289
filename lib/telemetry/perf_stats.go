package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const DefaultPerfInterval = 30 * time.Second

type perfGauges struct {
	cpu        metric.Float64Gauge
	memory     metric.Int64Gauge
	goroutines metric.Int64Gauge
}

func newPerfGauges(provider metric.MeterProvider) (perfGauges, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter("wastenot/perf_stats")

	cpuGauge, err := meter.Float64Gauge("cpu_usage", metric.WithUnit("%"))
	if err != nil {
		return perfGauges{}, err
	}
	memoryGauge, err := meter.Int64Gauge("allocated_mb", metric.WithUnit("MBy"))
	if err != nil {
		return perfGauges{}, err
	}
	goroutineGauge, err := meter.Int64Gauge("goroutine_count")
	if err != nil {
		return perfGauges{}, err
	}
	return perfGauges{cpu: cpuGauge, memory: memoryGauge, goroutines: goroutineGauge}, nil
}

func (g perfGauges) record(ctx context.Context) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	// interval 0 compares against the previous call
	usage, err := cpu.PercentWithContext(ctx, 0, false)
	if err == nil && len(usage) > 0 {
		g.cpu.Record(ctx, usage[0])
	} else if err != nil {
		slog.Debug("failed to read cpu usage", "err", err)
	}
	g.memory.Record(ctx, int64(memStats.Alloc/1_000_000))
	g.goroutines.Record(ctx, int64(runtime.NumGoroutine()))
}

// InstrumentPerfStats records process stats every interval until ctx is done.
func InstrumentPerfStats(ctx context.Context, provider metric.MeterProvider, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPerfInterval
	}
	gauges, err := newPerfGauges(provider)
	if err != nil {
		return err
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				gauges.record(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
