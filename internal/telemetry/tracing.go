package telemetry

import (
	"context"

	"github.com/alan-christopher/qkdsim/qkd"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope used when none is given.
const TracerName = "github.com/alan-christopher/qkdsim"

// A Tracer wraps simulation runs in spans. The zero value is unusable; use
// NewTracer.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer returns a Tracer backed by tp, or by the global provider when tp
// is nil.
func NewTracer(tp trace.TracerProvider) *Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracer{tracer: tp.Tracer(TracerName)}
}

// A SpanEnder finishes a span, recording err if non-nil.
type SpanEnder func(err error)

// Start opens a span named name. It is safe to call on a nil *Tracer.
func (t *Tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, SpanEnder) {
	if t == nil {
		return ctx, func(error) {}
	}
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

// StartRun opens a span for one protocol run.
func (t *Tracer) StartRun(ctx context.Context, runID string, p qkd.Protocol, eavesdrop bool) (context.Context, SpanEnder) {
	return t.Start(ctx, "qkd.run",
		attribute.String("run.id", runID),
		attribute.String("qkd.protocol", p.String()),
		attribute.Bool("qkd.eavesdropping", eavesdrop))
}

// AnnotateRun attaches a run's result to the span in ctx.
func AnnotateRun(ctx context.Context, res qkd.Result) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.Bool("qkd.accepted", res.Accepted),
		attribute.Float64("qkd.qber", res.ErrorRate),
		attribute.Int("qkd.raw_key_bits", res.RawKeyLength),
		attribute.Int("qkd.final_key_bits", res.FinalKeyLength),
		attribute.String("qkd.outcome", Outcome(res)))
}
