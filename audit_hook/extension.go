package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/sequence/ext"
	"github.com/xraph/sequence/task"
)

// Compile-time interface checks.
var (
	_ ext.Extension         = (*Extension)(nil)
	_ ext.SequenceStarted   = (*Extension)(nil)
	_ ext.TaskCompleted     = (*Extension)(nil)
	_ ext.TaskFailed        = (*Extension)(nil)
	_ ext.SequenceCompleted = (*Extension)(nil)
	_ ext.SequenceFailed    = (*Extension)(nil)
	_ ext.SequenceCancelled = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one audit trail entry.
type AuditEvent struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Severity constants.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants. Cancellation is neither.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeCancelled = "cancelled"
)

// Extension bridges sequence lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit-hook" }

// OnSequenceStarted implements ext.SequenceStarted.
func (e *Extension) OnSequenceStarted(ctx context.Context, info task.Info) error {
	return e.record(ctx, ActionSequenceStarted, SeverityInfo, OutcomeSuccess,
		ResourceRun, CategoryRun, info, nil,
		"tasks", info.Total,
	)
}

// OnTaskCompleted implements ext.TaskCompleted.
func (e *Extension) OnTaskCompleted(ctx context.Context, info task.Info, elapsed time.Duration) error {
	return e.record(ctx, ActionTaskCompleted, SeverityInfo, OutcomeSuccess,
		ResourceTask, CategoryTask, info, nil,
		"index", info.Index,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnTaskFailed implements ext.TaskFailed.
func (e *Extension) OnTaskFailed(ctx context.Context, info task.Info, taskErr error) error {
	return e.record(ctx, ActionTaskFailed, SeverityWarning, OutcomeFailure,
		ResourceTask, CategoryTask, info, taskErr,
		"index", info.Index,
	)
}

// OnSequenceCompleted implements ext.SequenceCompleted.
func (e *Extension) OnSequenceCompleted(ctx context.Context, info task.Info, elapsed time.Duration) error {
	return e.record(ctx, ActionSequenceCompleted, SeverityInfo, OutcomeSuccess,
		ResourceRun, CategoryRun, info, nil,
		"tasks", info.Total,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnSequenceFailed implements ext.SequenceFailed.
func (e *Extension) OnSequenceFailed(ctx context.Context, info task.Info, runErr error) error {
	return e.record(ctx, ActionSequenceFailed, SeverityCritical, OutcomeFailure,
		ResourceRun, CategoryRun, info, runErr,
		"failed_index", info.Index,
	)
}

// OnSequenceCancelled implements ext.SequenceCancelled.
func (e *Extension) OnSequenceCancelled(ctx context.Context, info task.Info) error {
	return e.record(ctx, ActionSequenceCancelled, SeverityWarning, OutcomeCancelled,
		ResourceRun, CategoryRun, info, nil,
		"index", info.Index,
	)
}

// record builds and sends an audit event if the action is enabled.
// The kvPairs argument is a list of key-value pairs added to Metadata.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, category string,
	info task.Info,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+4)
	meta["sequence_id"] = info.SequenceID.String()
	meta["queue"] = info.QueueName()
	if info.Sequence != "" {
		meta["sequence_name"] = info.Sequence
	}
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: info.RunID.String(),
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			slog.String("action", action),
			slog.String("run_id", info.RunID.String()),
			slog.String("error", recErr.Error()),
		)
	}
	return nil
}
