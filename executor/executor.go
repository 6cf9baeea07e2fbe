// Package executor runs task work off the control context and reports
// each result back onto it.
//
// An [Executor] accepts a unit of work and a completion callback. The work
// runs asynchronously on some worker goroutine; the callback is invoked
// exactly once, on the control loop, with the work's error. [Pool] is the
// shared default: a fixed set of workers, a middleware chain around every
// unit of work, and optional per-queue admission limits. [Goroutines]
// starts one goroutine per unit of work and suits sequences that should
// not compete for pool slots.
package executor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/xraph/sequence/middleware"
	"github.com/xraph/sequence/task"
)

// ErrPoolStopped is delivered to callbacks of work the pool will not run.
var ErrPoolStopped = errors.New("executor: pool stopped")

// Work is the body of one task dispatch.
type Work func(ctx context.Context) error

// Callback receives the outcome of a Work. It always runs on the control
// context.
type Callback func(err error)

// Executor is the task execution context a sequence dispatches through.
type Executor interface {
	// Submit runs work asynchronously and invokes done exactly once, on
	// the control context, with its result.
	Submit(info task.Info, work Work, done Callback)
}

// Poster schedules a function on the control context. *control.Loop
// satisfies it.
type Poster interface {
	Post(fn func()) bool
}

// Goroutines runs every unit of work on its own goroutine.
type Goroutines struct {
	callbacks Poster
	mw        middleware.Middleware
	logger    *slog.Logger
}

// NewGoroutines creates a Goroutines executor that reports back through
// callbacks. Recover is always the outermost middleware, so a panicking
// task is reported as an error.
func NewGoroutines(callbacks Poster, logger *slog.Logger, mws ...middleware.Middleware) *Goroutines {
	if logger == nil {
		logger = slog.Default()
	}
	chain := append([]middleware.Middleware{middleware.Recover(logger)}, mws...)
	return &Goroutines{
		callbacks: callbacks,
		mw:        middleware.Chain(chain...),
		logger:    logger,
	}
}

// Submit implements Executor.
func (g *Goroutines) Submit(info task.Info, work Work, done Callback) {
	go func() {
		err := g.mw(context.Background(), info, middleware.Handler(work))
		deliver(g.callbacks, g.logger, info, done, err)
	}()
}

// deliver posts done onto the control context. A stopped control loop
// means the process is shutting down and nobody is left to observe the
// result.
func deliver(callbacks Poster, logger *slog.Logger, info task.Info, done Callback, err error) {
	if callbacks.Post(func() { done(err) }) {
		return
	}
	logger.Warn("control loop stopped, dropping task callback",
		slog.String("sequence", info.Label()),
		slog.String("run_id", info.RunID.String()),
	)
}
