package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/sequence/task"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time.
type sequenceStartedEntry struct {
	name string
	hook SequenceStarted
}

type taskCompletedEntry struct {
	name string
	hook TaskCompleted
}

type taskFailedEntry struct {
	name string
	hook TaskFailed
}

type sequenceCompletedEntry struct {
	name string
	hook SequenceCompleted
}

type sequenceFailedEntry struct {
	name string
	hook SequenceFailed
}

type sequenceCancelledEntry struct {
	name string
	hook SequenceCancelled
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
//
// Register all extensions before sequences start; the registry is not
// synchronized against concurrent Register and Emit calls.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	sequenceStarted   []sequenceStartedEntry
	taskCompleted     []taskCompletedEntry
	taskFailed        []taskFailedEntry
	sequenceCompleted []sequenceCompletedEntry
	sequenceFailed    []sequenceFailedEntry
	sequenceCancelled []sequenceCancelledEntry
	shutdown          []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(SequenceStarted); ok {
		r.sequenceStarted = append(r.sequenceStarted, sequenceStartedEntry{name, h})
	}
	if h, ok := e.(TaskCompleted); ok {
		r.taskCompleted = append(r.taskCompleted, taskCompletedEntry{name, h})
	}
	if h, ok := e.(TaskFailed); ok {
		r.taskFailed = append(r.taskFailed, taskFailedEntry{name, h})
	}
	if h, ok := e.(SequenceCompleted); ok {
		r.sequenceCompleted = append(r.sequenceCompleted, sequenceCompletedEntry{name, h})
	}
	if h, ok := e.(SequenceFailed); ok {
		r.sequenceFailed = append(r.sequenceFailed, sequenceFailedEntry{name, h})
	}
	if h, ok := e.(SequenceCancelled); ok {
		r.sequenceCancelled = append(r.sequenceCancelled, sequenceCancelledEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// EmitSequenceStarted notifies all extensions that implement SequenceStarted.
func (r *Registry) EmitSequenceStarted(ctx context.Context, info task.Info) {
	for _, e := range r.sequenceStarted {
		if err := e.hook.OnSequenceStarted(ctx, info); err != nil {
			r.logHookError("OnSequenceStarted", e.name, err)
		}
	}
}

// EmitTaskCompleted notifies all extensions that implement TaskCompleted.
func (r *Registry) EmitTaskCompleted(ctx context.Context, info task.Info, elapsed time.Duration) {
	for _, e := range r.taskCompleted {
		if err := e.hook.OnTaskCompleted(ctx, info, elapsed); err != nil {
			r.logHookError("OnTaskCompleted", e.name, err)
		}
	}
}

// EmitTaskFailed notifies all extensions that implement TaskFailed.
func (r *Registry) EmitTaskFailed(ctx context.Context, info task.Info, taskErr error) {
	for _, e := range r.taskFailed {
		if err := e.hook.OnTaskFailed(ctx, info, taskErr); err != nil {
			r.logHookError("OnTaskFailed", e.name, err)
		}
	}
}

// EmitSequenceCompleted notifies all extensions that implement SequenceCompleted.
func (r *Registry) EmitSequenceCompleted(ctx context.Context, info task.Info, elapsed time.Duration) {
	for _, e := range r.sequenceCompleted {
		if err := e.hook.OnSequenceCompleted(ctx, info, elapsed); err != nil {
			r.logHookError("OnSequenceCompleted", e.name, err)
		}
	}
}

// EmitSequenceFailed notifies all extensions that implement SequenceFailed.
func (r *Registry) EmitSequenceFailed(ctx context.Context, info task.Info, runErr error) {
	for _, e := range r.sequenceFailed {
		if err := e.hook.OnSequenceFailed(ctx, info, runErr); err != nil {
			r.logHookError("OnSequenceFailed", e.name, err)
		}
	}
}

// EmitSequenceCancelled notifies all extensions that implement SequenceCancelled.
func (r *Registry) EmitSequenceCancelled(ctx context.Context, info task.Info) {
	for _, e := range r.sequenceCancelled {
		if err := e.hook.OnSequenceCancelled(ctx, info); err != nil {
			r.logHookError("OnSequenceCancelled", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated to the sequence.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
