package sequence_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/xraph/sequence"
	"github.com/xraph/sequence/executor"
	"github.com/xraph/sequence/task"
)

const waitTimeout = 2 * time.Second

func newTestRuntime(t *testing.T, opts ...sequence.Option) *sequence.Runtime {
	t.Helper()
	rt, err := sequence.NewRuntime(opts...)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	if err := rt.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = rt.Stop(context.Background()) })
	return rt
}

// onLoop runs fn on the runtime's control loop and waits for it.
func onLoop(t *testing.T, rt *sequence.Runtime, fn func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	if err := rt.Do(ctx, fn); err != nil {
		t.Fatalf("Do: %v", err)
	}
}

func statusOf[T any](t *testing.T, rt *sequence.Runtime, s *sequence.Sequence[T]) sequence.Status {
	t.Helper()
	var st sequence.Status
	onLoop(t, rt, func() { st = s.Status() })
	return st
}

func receive[V any](t *testing.T, ch <-chan V, what string) V {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for %s", what)
		var zero V
		return zero
	}
}

func expectNone[V any](t *testing.T, ch <-chan V, what string) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected %s: %v", what, v)
	case <-time.After(50 * time.Millisecond):
	}
}

// recordingExecutor signals every callback after the sequence has
// handled it.
type recordingExecutor struct {
	inner executor.Executor
	fired chan task.Info
}

func newRecordingExecutor(inner executor.Executor) *recordingExecutor {
	return &recordingExecutor{inner: inner, fired: make(chan task.Info, 16)}
}

func (r *recordingExecutor) Submit(info task.Info, work executor.Work, done executor.Callback) {
	r.inner.Submit(info, work, func(err error) {
		done(err)
		select {
		case r.fired <- info:
		default:
		}
	})
}

// hookRecorder records hook names in the order they fire.
type hookRecorder struct {
	mu     sync.Mutex
	events []string
	signal chan string
}

func newHookRecorder() *hookRecorder {
	return &hookRecorder{signal: make(chan string, 32)}
}

func (h *hookRecorder) Name() string { return "hook-recorder" }

func (h *hookRecorder) record(event string) error {
	h.mu.Lock()
	h.events = append(h.events, event)
	h.mu.Unlock()
	select {
	case h.signal <- event:
	default:
	}
	return nil
}

func (h *hookRecorder) Events() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.events...)
}

func (h *hookRecorder) OnSequenceStarted(_ context.Context, _ task.Info) error {
	return h.record("sequence_started")
}

func (h *hookRecorder) OnTaskCompleted(_ context.Context, _ task.Info, _ time.Duration) error {
	return h.record("task_completed")
}

func (h *hookRecorder) OnTaskFailed(_ context.Context, _ task.Info, _ error) error {
	return h.record("task_failed")
}

func (h *hookRecorder) OnSequenceCompleted(_ context.Context, _ task.Info, _ time.Duration) error {
	return h.record("sequence_completed")
}

func (h *hookRecorder) OnSequenceFailed(_ context.Context, _ task.Info, _ error) error {
	return h.record("sequence_failed")
}

func (h *hookRecorder) OnSequenceCancelled(_ context.Context, _ task.Info) error {
	return h.record("sequence_cancelled")
}

func (h *hookRecorder) OnShutdown(_ context.Context) error {
	return h.record("shutdown")
}

func double(_ context.Context, x int) (int, error)    { return x * 2, nil }
func increment(_ context.Context, x int) (int, error) { return x + 1, nil }
