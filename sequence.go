package sequence

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/sequence/executor"
	"github.com/xraph/sequence/ext"
	"github.com/xraph/sequence/id"
	"github.com/xraph/sequence/task"
)

// Task is one step of a chain. It receives the result of the previous
// task (the zero value of T for the first) and returns its own result.
// A non-nil error fails the chain; the value is then ignored.
type Task[T any] func(ctx context.Context, prev T) (T, error)

// CompletionHandler receives the result of the last task.
type CompletionHandler[T any] func(result T)

// FailureHandler receives the error of the first failing task.
type FailureHandler func(err error)

// Sequence runs its tasks one at a time through an executor, feeding each
// task the previous result.
//
// A Sequence has no locks. Every method, including the observers, must be
// called on the control loop its executor reports to (use Runtime.Do or
// Runtime.Post from other goroutines). Handlers and hooks run there too.
type Sequence[T any] struct {
	id    id.SequenceID
	name  string
	queue string

	tasks      []Task[T]
	onComplete CompletionHandler[T]
	onFailure  FailureHandler

	status          Status
	targetTaskIndex int
	runID           id.RunID
	startedAt       time.Time
	dispatchedAt    time.Time

	executor   executor.Executor
	extensions *ext.Registry
	logger     *slog.Logger
}

// New creates a Pending sequence bound to rt. rt may be nil when
// WithExecutor supplies the executor; New panics with ErrNoExecutor if
// neither does.
func New[T any](rt *Runtime, opts ...SequenceOption) *Sequence[T] {
	o := sequenceOptions{queue: task.DefaultQueue}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Sequence[T]{
		id:       id.NewSequenceID(),
		name:     o.name,
		queue:    o.queue,
		status:   StatusPending,
		executor: o.executor,
	}
	if rt != nil {
		s.logger = rt.logger
		s.extensions = rt.extensions
		if s.executor == nil {
			s.executor = rt.pool
		}
	} else {
		s.logger = slog.Default()
		s.extensions = ext.NewRegistry(s.logger)
	}
	if s.executor == nil {
		panic(ErrNoExecutor)
	}
	return s
}

// Add appends t. Ignored unless the sequence is Pending.
func (s *Sequence[T]) Add(t Task[T]) *Sequence[T] {
	if s.status != StatusPending {
		s.ignored("add")
		return s
	}
	s.tasks = append(s.tasks, t)
	return s
}

// OnFailure installs the failure handler. Ignored unless the sequence is
// Pending.
func (s *Sequence[T]) OnFailure(h FailureHandler) *Sequence[T] {
	if s.status != StatusPending {
		s.ignored("on_failure")
		return s
	}
	s.onFailure = h
	return s
}

// Finally installs the completion handler and starts the sequence.
func (s *Sequence[T]) Finally(h CompletionHandler[T]) *Sequence[T] {
	if s.status != StatusPending {
		s.ignored("finally")
		return s
	}
	s.onComplete = h
	return s.Start()
}

// Start begins executing task 0. Ignored unless the sequence is Pending.
func (s *Sequence[T]) Start() *Sequence[T] {
	if s.status != StatusPending {
		s.ignored("start")
		return s
	}

	s.status = StatusProcessing
	s.runID = id.NewRunID()
	s.startedAt = time.Now()

	s.logger.Debug("sequence started",
		slog.String("sequence_id", s.id.String()),
		slog.String("run_id", s.runID.String()),
		slog.String("sequence", s.name),
		slog.Int("tasks", len(s.tasks)),
	)
	s.extensions.EmitSequenceStarted(context.Background(), s.info())

	var zero T
	s.executeNext(zero)
	return s
}

// Cancel stops a Pending or Processing sequence. A task already handed to
// the executor keeps running; its result is discarded.
func (s *Sequence[T]) Cancel() {
	if s.status != StatusPending && s.status != StatusProcessing {
		s.ignored("cancel")
		return
	}
	s.status = StatusCancelled

	s.logger.Debug("sequence cancelled",
		slog.String("sequence_id", s.id.String()),
		slog.String("run_id", s.runID.String()),
		slog.Int("index", s.targetTaskIndex),
	)
	s.extensions.EmitSequenceCancelled(context.Background(), s.info())
}

// ExecuteAgain resets a Failed, Completed or Cancelled sequence and runs
// it from task 0 with the same tasks and handlers. Ignored otherwise.
func (s *Sequence[T]) ExecuteAgain() {
	if !s.reset() {
		s.ignored("execute_again")
		return
	}
	s.Start()
}

// Status returns the current lifecycle state.
func (s *Sequence[T]) Status() Status { return s.status }

// Name returns the name given with WithName.
func (s *Sequence[T]) Name() string { return s.name }

// ID returns the sequence identifier.
func (s *Sequence[T]) ID() id.SequenceID { return s.id }

// RunID identifies the current or last run cycle. It is nil before the
// first Start.
func (s *Sequence[T]) RunID() id.RunID { return s.runID }

// Len returns the number of tasks.
func (s *Sequence[T]) Len() int { return len(s.tasks) }

// Index returns the position of the task being (or next to be) run.
func (s *Sequence[T]) Index() int { return s.targetTaskIndex }

func (s *Sequence[T]) reset() bool {
	if !s.status.IsTerminal() {
		return false
	}
	s.targetTaskIndex = 0
	s.status = StatusPending
	return true
}

func (s *Sequence[T]) executeNext(prev T) {
	if s.targetTaskIndex >= len(s.tasks) {
		s.complete(prev)
		return
	}

	t := s.tasks[s.targetTaskIndex]
	info := s.info()
	runID := s.runID

	// out is written by the worker and read on the control loop after the
	// executor posts the callback.
	var out T
	work := func(ctx context.Context) error {
		v, err := t(ctx, prev)
		if err != nil {
			return err
		}
		out = v
		return nil
	}

	s.dispatchedAt = time.Now()
	s.executor.Submit(info, work, func(err error) {
		s.handleResult(runID, info, out, err)
	})
}

func (s *Sequence[T]) handleResult(runID id.RunID, info task.Info, value T, err error) {
	if !runID.Equal(s.runID) || s.status != StatusProcessing {
		s.logger.Debug("discarding task result",
			slog.String("sequence_id", s.id.String()),
			slog.String("run_id", runID.String()),
			slog.String("status", s.status.String()),
			slog.Int("index", info.Index),
		)
		return
	}

	ctx := context.Background()
	if err != nil {
		s.status = StatusFailed
		s.extensions.EmitTaskFailed(ctx, info, err)
		s.extensions.EmitSequenceFailed(ctx, info, err)

		if s.onFailure == nil {
			s.logger.Warn("sequence failed without failure handler",
				slog.String("sequence_id", s.id.String()),
				slog.String("run_id", runID.String()),
				slog.String("sequence", s.name),
				slog.Int("index", info.Index),
				slog.String("error", err.Error()),
			)
			return
		}
		s.onFailure(err)
		return
	}

	s.extensions.EmitTaskCompleted(ctx, info, time.Since(s.dispatchedAt))
	s.targetTaskIndex++
	s.executeNext(value)
}

func (s *Sequence[T]) complete(result T) {
	s.status = StatusCompleted

	s.logger.Debug("sequence completed",
		slog.String("sequence_id", s.id.String()),
		slog.String("run_id", s.runID.String()),
		slog.String("sequence", s.name),
	)
	s.extensions.EmitSequenceCompleted(context.Background(), s.info(), time.Since(s.startedAt))

	if s.onComplete != nil {
		s.onComplete(result)
	}
}

func (s *Sequence[T]) info() task.Info {
	return task.Info{
		SequenceID: s.id,
		RunID:      s.runID,
		Sequence:   s.name,
		Queue:      s.queue,
		Index:      s.targetTaskIndex,
		Total:      len(s.tasks),
	}
}

func (s *Sequence[T]) ignored(op string) {
	s.logger.Debug("sequence operation ignored",
		slog.String("op", op),
		slog.String("sequence_id", s.id.String()),
		slog.String("status", s.status.String()),
	)
}
