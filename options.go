package sequence

import (
	"log/slog"

	"github.com/xraph/sequence/executor"
	"github.com/xraph/sequence/ext"
	"github.com/xraph/sequence/middleware"
	"github.com/xraph/sequence/queue"
)

// Option configures a Runtime.
type Option func(*Runtime) error

// WithConfig replaces the runtime configuration. Options applied after it
// still override individual fields.
func WithConfig(cfg Config) Option {
	return func(r *Runtime) error {
		r.config = cfg
		return nil
	}
}

// WithConcurrency sets the number of workers in the shared pool.
func WithConcurrency(n int) Option {
	return func(r *Runtime) error {
		r.config.Concurrency = n
		return nil
	}
}

// WithQueues adds per-queue limits to the shared pool.
func WithQueues(configs ...queue.Config) Option {
	return func(r *Runtime) error {
		r.config.Queues = append(r.config.Queues, configs...)
		return nil
	}
}

// WithLogger sets the structured logger for the runtime and its sequences.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) error {
		r.logger = l
		return nil
	}
}

// WithMiddleware appends middleware to the shared pool's chain. They run
// inside the built-in recover and logging middleware.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(r *Runtime) error {
		r.mws = append(r.mws, mws...)
		return nil
	}
}

// WithExtension registers lifecycle extensions.
func WithExtension(exts ...ext.Extension) Option {
	return func(r *Runtime) error {
		r.exts = append(r.exts, exts...)
		return nil
	}
}

// SequenceOption configures a single Sequence.
type SequenceOption func(*sequenceOptions)

type sequenceOptions struct {
	name     string
	queue    string
	executor executor.Executor
}

// WithName sets the informational name used in logs, spans and hooks.
func WithName(name string) SequenceOption {
	return func(o *sequenceOptions) { o.name = name }
}

// WithExecutor overrides the runtime's shared pool for one sequence. The
// executor must deliver callbacks on the same control loop the sequence
// is driven from.
func WithExecutor(e executor.Executor) SequenceOption {
	return func(o *sequenceOptions) { o.executor = e }
}

// WithQueue targets a named pool queue so the sequence's tasks are
// subject to that queue's limits.
func WithQueue(name string) SequenceOption {
	return func(o *sequenceOptions) { o.queue = name }
}
