// Package control provides the single-threaded control context on which
// sequences mutate their state and invoke their handlers.
//
// A [Loop] is one goroutine draining an unbounded FIFO of functions.
// Executors post task callbacks onto it, and callers run their fluent
// sequence calls through [Loop.Do] or [Loop.Post], so every state
// transition is serialized without locks in the sequence itself.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// ErrStopped is returned when work is posted to a loop that has stopped.
var ErrStopped = errors.New("control: loop stopped")

// Loop runs posted functions one at a time, in posting order, on a single
// goroutine.
type Loop struct {
	logger *slog.Logger

	mu      sync.Mutex
	pending []func()
	started bool
	stopped bool

	wake   chan struct{}
	stopCh chan struct{}
	done   chan struct{}
}

// NewLoop creates a loop. It does nothing until Start or Run is called,
// but functions may be posted beforehand and run once it starts.
func NewLoop(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		logger: logger,
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Post schedules fn to run on the loop. It never blocks and reports
// false if the loop has stopped, in which case fn will never run.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs fn on the loop and waits for it to return. It must not be
// called from a function already running on the loop.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start launches the loop goroutine. It returns immediately and is a
// no-op if the loop is already running or has stopped.
func (l *Loop) Start() {
	if !l.claim() {
		return
	}
	go l.run()
}

// Run runs the loop on the calling goroutine until Stop is called or ctx
// is done. Functions posted before the stop are drained before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	if !l.claim() {
		return fmt.Errorf("control: loop already started")
	}
	go func() {
		select {
		case <-ctx.Done():
			l.markStopped()
		case <-l.done:
		}
	}()
	l.run()
	return ctx.Err()
}

// Stop prevents further posts, waits for already posted functions to
// drain, and returns. If the loop never started, they run on the calling
// goroutine. If ctx expires first, Stop returns ctx.Err() and the loop
// finishes draining in the background.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	started := l.started
	first := l.stopLocked()
	l.mu.Unlock()

	if !started {
		if first {
			l.drain()
		}
		return nil
	}

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stopped reports whether the loop refuses new work.
func (l *Loop) Stopped() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopped
}

func (l *Loop) claim() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started || l.stopped {
		return false
	}
	l.started = true
	return true
}

func (l *Loop) markStopped() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
}

// stopLocked marks the loop stopped and reports whether this call did it.
// l.mu must be held.
func (l *Loop) stopLocked() bool {
	if l.stopped {
		return false
	}
	l.stopped = true
	close(l.stopCh)
	return true
}

func (l *Loop) run() {
	defer close(l.done)

	for {
		select {
		case <-l.wake:
			l.drain()
		case <-l.stopCh:
			l.drain()
			return
		}
	}
}

// drain runs everything queued so far, including functions posted by the
// functions it runs.
func (l *Loop) drain() {
	for {
		l.mu.Lock()
		batch := l.pending
		l.pending = nil
		l.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, fn := range batch {
			l.invoke(fn)
		}
	}
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("control loop function panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	fn()
}
