package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/sequence/ext"
	"github.com/xraph/sequence/task"
)

// Compile-time interface checks.
var (
	_ ext.Extension         = (*MetricsExtension)(nil)
	_ ext.SequenceStarted   = (*MetricsExtension)(nil)
	_ ext.TaskCompleted     = (*MetricsExtension)(nil)
	_ ext.TaskFailed        = (*MetricsExtension)(nil)
	_ ext.SequenceCompleted = (*MetricsExtension)(nil)
	_ ext.SequenceFailed    = (*MetricsExtension)(nil)
	_ ext.SequenceCancelled = (*MetricsExtension)(nil)
)

const meterName = "github.com/xraph/sequence/observability"

// MetricsExtension records lifecycle counters through an OTel meter.
// Every counter carries a "sequence" attribute with the sequence name.
type MetricsExtension struct {
	SequenceStarted   metric.Int64Counter
	SequenceCompleted metric.Int64Counter
	SequenceFailed    metric.Int64Counter
	SequenceCancelled metric.Int64Counter
	TaskCompleted     metric.Int64Counter
	TaskFailed        metric.Int64Counter
	RunDuration       metric.Float64Histogram
}

// NewMetricsExtension creates a MetricsExtension using the global
// MeterProvider.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the
// provided meter. On instrument errors the OTel API hands back noop
// instruments, so the extension never fails to build.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	counter := func(name, desc string) metric.Int64Counter {
		c, _ := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit("{event}"))
		return c
	}
	runDuration, _ := meter.Float64Histogram(
		"sequence.run.duration",
		metric.WithDescription("Duration of completed sequence runs in seconds"),
		metric.WithUnit("s"),
	)

	return &MetricsExtension{
		SequenceStarted:   counter("sequence.started", "Sequence runs started"),
		SequenceCompleted: counter("sequence.completed", "Sequence runs completed"),
		SequenceFailed:    counter("sequence.failed", "Sequence runs failed"),
		SequenceCancelled: counter("sequence.cancelled", "Sequence runs cancelled"),
		TaskCompleted:     counter("sequence.task.completed", "Tasks completed"),
		TaskFailed:        counter("sequence.task.failed", "Tasks failed"),
		RunDuration:       runDuration,
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

func attrs(info task.Info) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("sequence", info.Sequence))
}

// OnSequenceStarted implements ext.SequenceStarted.
func (m *MetricsExtension) OnSequenceStarted(ctx context.Context, info task.Info) error {
	m.SequenceStarted.Add(ctx, 1, attrs(info))
	return nil
}

// OnTaskCompleted implements ext.TaskCompleted.
func (m *MetricsExtension) OnTaskCompleted(ctx context.Context, info task.Info, _ time.Duration) error {
	m.TaskCompleted.Add(ctx, 1, attrs(info))
	return nil
}

// OnTaskFailed implements ext.TaskFailed.
func (m *MetricsExtension) OnTaskFailed(ctx context.Context, info task.Info, _ error) error {
	m.TaskFailed.Add(ctx, 1, attrs(info))
	return nil
}

// OnSequenceCompleted implements ext.SequenceCompleted.
func (m *MetricsExtension) OnSequenceCompleted(ctx context.Context, info task.Info, elapsed time.Duration) error {
	m.SequenceCompleted.Add(ctx, 1, attrs(info))
	m.RunDuration.Record(ctx, elapsed.Seconds(), attrs(info))
	return nil
}

// OnSequenceFailed implements ext.SequenceFailed.
func (m *MetricsExtension) OnSequenceFailed(ctx context.Context, info task.Info, _ error) error {
	m.SequenceFailed.Add(ctx, 1, attrs(info))
	return nil
}

// OnSequenceCancelled implements ext.SequenceCancelled.
func (m *MetricsExtension) OnSequenceCancelled(ctx context.Context, info task.Info) error {
	m.SequenceCancelled.Add(ctx, 1, attrs(info))
	return nil
}
