package globals

import (
	"context"
	"wastenot-e2e/internal/components/chrono"
	comptel "wastenot-e2e/internal/components/telemetry"
	"wastenot-e2e/lib/restyutil"
	"wastenot-e2e/lib/telemetry"
)

type ctxKey struct{}

type Value struct {
	Config  Config
	Tel     comptel.API
	Clock   chrono.API
	Verbose bool
	// nil unless verbose
	HTTPOutput restyutil.InstrumentOutput
	Telemetry  telemetry.Telemetry
}

func Set(ctx context.Context, value *Value) context.Context {
	return context.WithValue(ctx, ctxKey{}, value)
}

func Get(ctx context.Context) *Value {
	return ctx.Value(ctxKey{}).(*Value)
}
