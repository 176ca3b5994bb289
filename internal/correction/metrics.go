package correction

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "wastenot/correction"

// Metrics counts folded outcomes as wastenot.correction.outcomes{outcome}.
type Metrics struct {
	outcomes metric.Int64Counter
}

// NewMetrics uses the global meter provider when provider is nil.
func NewMetrics(provider metric.MeterProvider) (Metrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	counter, err := provider.Meter(meterName).Int64Counter(
		"wastenot.correction.outcomes",
		metric.WithDescription("correction task outcomes"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return Metrics{}, err
	}
	return Metrics{outcomes: counter}, nil
}

func (m Metrics) Record(ctx context.Context, results []Result) {
	if m.outcomes == nil {
		return
	}
	for _, r := range results {
		m.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(r.Outcome))))
	}
}
