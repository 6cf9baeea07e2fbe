package sequence

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/xraph/sequence/control"
	"github.com/xraph/sequence/executor"
	"github.com/xraph/sequence/ext"
	"github.com/xraph/sequence/middleware"
	"github.com/xraph/sequence/queue"
)

// Runtime is the explicit process default for sequences: one control
// loop, one shared executor pool, one extension registry. Construct it
// once at process start and pass it to New.
type Runtime struct {
	config Config
	logger *slog.Logger
	mws    []middleware.Middleware
	exts   []ext.Extension

	loop       *control.Loop
	pool       *executor.Pool
	extensions *ext.Registry

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewRuntime creates a Runtime with the given options. Nothing runs until
// Start is called, although work may already be posted.
func NewRuntime(opts ...Option) (*Runtime, error) {
	r := &Runtime{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	r.loop = control.NewLoop(r.logger)
	r.extensions = ext.NewRegistry(r.logger)
	for _, e := range r.exts {
		r.extensions.Register(e)
	}

	poolOpts := []executor.PoolOption{
		executor.WithPoolConcurrency(r.config.Concurrency),
		executor.WithPollInterval(r.config.PollInterval),
		executor.WithMiddleware(r.middleware()...),
	}
	if len(r.config.Queues) > 0 {
		poolOpts = append(poolOpts, executor.WithQueueManager(queue.NewManager(r.config.Queues...)))
	}
	r.pool = executor.NewPool(r.loop, r.logger, poolOpts...)

	return r, nil
}

// middleware builds the shared pool chain. Recover is outermost: a panic
// anywhere below becomes a task error.
func (r *Runtime) middleware() []middleware.Middleware {
	mws := []middleware.Middleware{
		middleware.Recover(r.logger),
		middleware.Logging(r.logger),
	}
	if r.config.Tracing {
		mws = append(mws, middleware.Tracing())
	}
	if r.config.Metrics {
		mws = append(mws, middleware.Metrics())
	}
	return append(mws, r.mws...)
}

// Logger returns the runtime's logger.
func (r *Runtime) Logger() *slog.Logger { return r.logger }

// Config returns a copy of the runtime's configuration.
func (r *Runtime) Config() Config { return r.config }

// Loop returns the control loop sequences of this runtime run on.
func (r *Runtime) Loop() *control.Loop { return r.loop }

// Executor returns the shared pool.
func (r *Runtime) Executor() executor.Executor { return r.pool }

// Extensions returns the extension registry.
func (r *Runtime) Extensions() *ext.Registry { return r.extensions }

// Start launches the control loop and the shared pool.
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return ErrRuntimeStopped
	}
	if r.started {
		return nil
	}

	r.loop.Start()
	if err := r.pool.Start(ctx); err != nil {
		return err
	}
	r.started = true
	return nil
}

// Stop shuts down the pool, notifies extensions, and drains the control
// loop. Tasks still running when ctx (or Config.ShutdownTimeout) expires
// have their contexts cancelled. Sequences left processing never report.
func (r *Runtime) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	r.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok && r.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.ShutdownTimeout)
		defer cancel()
	}

	var errs []error
	if err := r.pool.Stop(ctx); err != nil {
		r.logger.Error("pool stop error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	r.extensions.EmitShutdown(ctx)
	if err := r.loop.Stop(ctx); err != nil {
		r.logger.Error("control loop stop error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Do runs fn on the control loop and waits for it. Use it to build,
// start, cancel or inspect sequences from outside the loop.
func (r *Runtime) Do(ctx context.Context, fn func()) error {
	if err := r.loop.Do(ctx, fn); err != nil {
		if errors.Is(err, control.ErrStopped) {
			return ErrRuntimeStopped
		}
		return err
	}
	return nil
}

// Post schedules fn on the control loop without waiting. It reports false
// once the runtime has stopped.
func (r *Runtime) Post(fn func()) bool {
	return r.loop.Post(fn)
}
