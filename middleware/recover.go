package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/sequence/task"
)

// Recover returns middleware that recovers from panics in the task chain.
// Panics are converted to errors and logged with a stack trace, so the
// sequence observes them as an ordinary task failure.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, info task.Info, next Handler) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("task panicked",
					slog.String("sequence", info.Label()),
					slog.String("run_id", info.RunID.String()),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				retErr = fmt.Errorf("panic in task %s: %v", info.Label(), r)
			}
		}()
		return next(ctx)
	}
}
