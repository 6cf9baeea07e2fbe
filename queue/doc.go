// Package queue provides per-queue concurrency and rate limiting for the
// executor pool.
//
// A sequence targets a named queue (default: "default"), much like an
// operation queue. Every task of that sequence is admitted through the
// queue's limits before a pool worker runs it.
//
//	queue.Config{
//	    Name:           "io",
//	    MaxConcurrency: 5,  // at most 5 io tasks at once
//	    RateLimit:      10, // at most 10 io tasks/s
//	    RateBurst:      20,
//	}
//
// [Manager] uses a token-bucket rate limiter (golang.org/x/time/rate) and
// an active-count gate for concurrency limits.
//
//	m := queue.NewManager(configs...)
//	if m.Acquire(name) {
//	    defer m.Release(name)
//	    // run the task
//	}
//
// Queues without a [Config] have no limits beyond the pool-wide concurrency.
package queue
