package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/sequence/task"
)

// Logging returns middleware that logs task start and completion.
// Start and success are logged at debug level since a busy sequence
// produces one pair per task.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, info task.Info, next Handler) error {
		logger.Debug("task started",
			slog.String("sequence", info.Label()),
			slog.String("sequence_id", info.SequenceID.String()),
			slog.String("run_id", info.RunID.String()),
			slog.String("queue", info.QueueName()),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Warn("task failed",
				slog.String("sequence", info.Label()),
				slog.String("run_id", info.RunID.String()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Debug("task completed",
				slog.String("sequence", info.Label()),
				slog.String("run_id", info.RunID.String()),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
