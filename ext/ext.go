package ext

import (
	"context"
	"time"

	"github.com/xraph/sequence/task"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// SequenceStarted is called when a run cycle begins.
type SequenceStarted interface {
	OnSequenceStarted(ctx context.Context, info task.Info) error
}

// TaskCompleted is called after a task returns a value and the sequence
// accepts it. Results of cancelled runs are never reported.
type TaskCompleted interface {
	OnTaskCompleted(ctx context.Context, info task.Info, elapsed time.Duration) error
}

// TaskFailed is called when a task returns an error.
type TaskFailed interface {
	OnTaskFailed(ctx context.Context, info task.Info, err error) error
}

// SequenceCompleted is called after every task of a run succeeded.
type SequenceCompleted interface {
	OnSequenceCompleted(ctx context.Context, info task.Info, elapsed time.Duration) error
}

// SequenceFailed is called when a run stops on a task error.
type SequenceFailed interface {
	OnSequenceFailed(ctx context.Context, info task.Info, err error) error
}

// SequenceCancelled is called when a pending or processing sequence is
// cancelled.
type SequenceCancelled interface {
	OnSequenceCancelled(ctx context.Context, info task.Info) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
