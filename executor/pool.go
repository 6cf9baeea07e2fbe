package executor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/sequence/id"
	"github.com/xraph/sequence/middleware"
	"github.com/xraph/sequence/task"
)

// QueueManager controls per-queue rate limiting and concurrency. The pool
// calls Acquire before running a unit of work and Release after it
// completes.
type QueueManager interface {
	// Acquire reports whether work on the named queue may start now.
	Acquire(queue string) bool
	// Release frees the slot taken by a successful Acquire.
	Release(queue string)
}

type item struct {
	seq  uint64
	info task.Info
	work Work
	done Callback
}

type activeTask struct {
	info   task.Info
	cancel context.CancelFunc
}

// Pool manages a fixed set of worker goroutines that run submitted work
// through the middleware chain. Work is started in submission order,
// subject to queue admission.
type Pool struct {
	callbacks    Poster
	mw           middleware.Middleware
	concurrency  int
	pollInterval time.Duration
	queueManager QueueManager
	workerID     id.WorkerID
	logger       *slog.Logger

	mu      sync.Mutex
	backlog []*item
	nextSeq uint64
	running bool
	stopped bool

	wake     chan struct{}
	stopCh   chan struct{}
	group    errgroup.Group
	baseCtx  context.Context
	cancelFn context.CancelFunc

	activeMu sync.Mutex
	active   map[uint64]activeTask
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolConcurrency sets the number of worker goroutines.
func WithPoolConcurrency(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithPollInterval sets how long work refused by the queue manager waits
// before it is offered to the workers again.
func WithPollInterval(d time.Duration) PoolOption {
	return func(p *Pool) { p.pollInterval = d }
}

// WithQueueManager sets the queue manager for rate limiting and
// concurrency control.
func WithQueueManager(m QueueManager) PoolOption {
	return func(p *Pool) { p.queueManager = m }
}

// WithMiddleware sets the middleware applied to every unit of work.
func WithMiddleware(mws ...middleware.Middleware) PoolOption {
	return func(p *Pool) { p.mw = middleware.Chain(mws...) }
}

// NewPool creates a worker pool reporting results through callbacks.
func NewPool(callbacks Poster, logger *slog.Logger, opts ...PoolOption) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pool{
		callbacks:    callbacks,
		mw:           middleware.Chain(),
		concurrency:  10,
		pollInterval: 50 * time.Millisecond,
		workerID:     id.NewWorkerID(),
		logger:       logger,
		wake:         make(chan struct{}, 1),
		stopCh:       make(chan struct{}),
		active:       make(map[uint64]activeTask),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WorkerID returns the pool's unique identifier.
func (p *Pool) WorkerID() id.WorkerID { return p.workerID }

// Start launches the worker goroutines. It returns immediately. Work
// submitted before Start waits in the backlog.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running || p.stopped {
		return nil
	}
	p.running = true
	// Task contexts outlive the Start call but not Stop's deadline.
	p.baseCtx, p.cancelFn = context.WithCancel(context.WithoutCancel(ctx))

	p.logger.Info("executor pool starting",
		slog.String("worker_id", p.workerID.String()),
		slog.Int("concurrency", p.concurrency),
	)

	for range p.concurrency {
		p.group.Go(func() error {
			p.workLoop()
			return nil
		})
	}
	if len(p.backlog) > 0 {
		p.signal()
	}
	return nil
}

// Stop signals all workers to stop and waits for in-flight work to
// finish. If ctx expires first, in-flight work contexts are cancelled.
// Work that never started has its callback invoked with ErrPoolStopped.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	wasRunning := p.running
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	p.logger.Info("executor pool stopping", slog.String("worker_id", p.workerID.String()))

	if wasRunning {
		done := make(chan struct{})
		go func() {
			_ = p.group.Wait()
			close(done)
		}()

		select {
		case <-done:
			p.logger.Info("executor pool stopped gracefully")
		case <-ctx.Done():
			p.logger.Warn("executor pool shutdown timed out, cancelling active tasks")
			p.cancelActive()
			<-done
		}
		p.cancelFn()
	}

	p.failBacklog()
	return nil
}

// Submit implements Executor. It never blocks.
func (p *Pool) Submit(info task.Info, work Work, done Callback) {
	p.mu.Lock()
	p.nextSeq++
	it := &item{seq: p.nextSeq, info: info, work: work, done: done}
	p.mu.Unlock()

	p.enqueue(it)
}

// Stopped reports whether Stop has been called. Work submitted from then
// on is refused with ErrPoolStopped.
func (p *Pool) Stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// Pending returns the number of submitted units of work not yet started.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.backlog)
}

func (p *Pool) enqueue(it *item) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		deliver(p.callbacks, p.logger, it.info, it.done, ErrPoolStopped)
		return
	}
	p.backlog = append(p.backlog, it)
	p.mu.Unlock()

	p.signal()
}

func (p *Pool) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Pool) dequeue() *item {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.backlog) == 0 {
		return nil
	}
	it := p.backlog[0]
	p.backlog[0] = nil
	p.backlog = p.backlog[1:]
	if len(p.backlog) > 0 {
		// Hand the wake token on so an idle worker picks up the rest.
		p.signal()
	}
	return it
}

// workLoop is run by each worker goroutine.
func (p *Pool) workLoop() {
	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		it := p.dequeue()
		if it == nil {
			select {
			case <-p.wake:
				continue
			case <-p.stopCh:
				return
			}
		}

		queueName := it.info.QueueName()
		if p.queueManager != nil && !p.queueManager.Acquire(queueName) {
			// Throttled: offer it again after the poll interval.
			time.AfterFunc(p.pollInterval, func() { p.enqueue(it) })
			continue
		}

		p.execute(it)

		if p.queueManager != nil {
			p.queueManager.Release(queueName)
		}
	}
}

func (p *Pool) execute(it *item) {
	ctx, cancel := context.WithCancel(p.baseCtx)
	p.track(it.seq, it.info, cancel)

	err := p.mw(ctx, it.info, middleware.Handler(it.work))

	p.untrack(it.seq)
	cancel()

	deliver(p.callbacks, p.logger, it.info, it.done, err)
}

func (p *Pool) failBacklog() {
	p.mu.Lock()
	leftover := p.backlog
	p.backlog = nil
	p.mu.Unlock()

	for _, it := range leftover {
		deliver(p.callbacks, p.logger, it.info, it.done, ErrPoolStopped)
	}
}

func (p *Pool) track(seq uint64, info task.Info, cancel context.CancelFunc) {
	p.activeMu.Lock()
	p.active[seq] = activeTask{info: info, cancel: cancel}
	p.activeMu.Unlock()
}

func (p *Pool) untrack(seq uint64) {
	p.activeMu.Lock()
	delete(p.active, seq)
	p.activeMu.Unlock()
}

func (p *Pool) cancelActive() {
	p.activeMu.Lock()
	defer p.activeMu.Unlock()
	for _, a := range p.active {
		p.logger.Warn("cancelling active task",
			slog.String("sequence", a.info.Label()),
			slog.String("run_id", a.info.RunID.String()),
		)
		a.cancel()
	}
}
