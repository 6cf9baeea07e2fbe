// Package middleware provides composable middleware for task execution.
//
// A [Middleware] wraps the call that runs one task on an executor worker.
// Middleware are composed into a chain using [Chain] and applied to every
// task the executor runs. They are applied right-to-left: the first
// middleware in the slice is the outermost wrapper.
//
//	// logging → recover → task
//	chain := middleware.Chain(middleware.Logging(logger), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Logging] logs sequence name, task index, duration, and outcome
//   - [Recover] catches panics and converts them to task failures
//   - [Tracing] wraps execution in an OpenTelemetry span
//   - [Metrics] records per-task duration and outcome counters
//
// There is deliberately no timeout middleware: a stalled task stalls its
// sequence until it returns.
//
// # Writing Custom Middleware
//
//	func MyMiddleware() middleware.Middleware {
//	    return func(ctx context.Context, info task.Info, next middleware.Handler) error {
//	        // pre-processing
//	        err := next(ctx)
//	        // post-processing
//	        return err
//	    }
//	}
//
// Middleware MUST call next to continue the chain unless intentionally
// short-circuiting. A short-circuit error is reported to the sequence as
// the task's failure.
package middleware
