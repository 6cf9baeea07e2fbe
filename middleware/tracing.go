package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/sequence/task"
)

// tracerName is the instrumentation scope name for sequence tracing.
const tracerName = "github.com/xraph/sequence"

// Tracing returns middleware that wraps task execution in an OpenTelemetry span.
// If no TracerProvider is configured globally, the default noop tracer is used.
//
// Span attributes: sequence.id, sequence.name, sequence.run_id,
// sequence.queue, sequence.task.index, sequence.task.total.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided tracer.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, info task.Info, next Handler) error {
		ctx, span := tracer.Start(ctx, "sequence.task.execute",
			trace.WithAttributes(
				attribute.String("sequence.id", info.SequenceID.String()),
				attribute.String("sequence.name", info.Sequence),
				attribute.String("sequence.run_id", info.RunID.String()),
				attribute.String("sequence.queue", info.QueueName()),
				attribute.Int("sequence.task.index", info.Index),
				attribute.Int("sequence.task.total", info.Total),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
