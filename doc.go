// Package sequence provides a sequential task-chain executor for Go.
//
// A [Sequence] holds an ordered list of tasks. Each task receives the
// result of the previous one; the chain runs them one at a time through
// an executor and reports either the final value or the first error.
// Chains can be cancelled and re-run.
//
// # Quick Start
//
//	rt, err := sequence.NewRuntime(sequence.WithConcurrency(8))
//	if err != nil { ... }
//	_ = rt.Start(ctx)
//	defer rt.Stop(ctx)
//
//	_ = rt.Do(ctx, func() {
//	    sequence.New[int](rt, sequence.WithName("pricing")).
//	        Add(fetchBase).
//	        Add(applyDiscount).
//	        OnFailure(func(err error) { log.Print(err) }).
//	        Finally(func(total int) { log.Print(total) })
//	})
//
// Supplying the completion handler through Finally is what starts the
// chain.
//
// # Control Context
//
// Every method of a Sequence must be called on the runtime's control
// loop (see [Runtime.Do] and [Runtime.Post]). Task callbacks, handlers
// and extension hooks all run there too, so a Sequence needs no locks.
// Task bodies run on executor workers and must not touch the Sequence.
//
// # Errors
//
// A task fails by returning a non-nil error. The value and the error are
// separate return values, so a task may pass an error along as data.
// A failure stops the chain and goes to the FailureHandler only. If none
// is installed, the failure is logged and otherwise dropped.
//
// # Architecture
//
// The runtime owns a control loop ([control.Loop]), a shared worker pool
// ([executor.Pool]) with a middleware chain, and an extension registry
// ([ext.Registry]). A sequence uses the shared pool unless constructed
// with [WithExecutor]. All IDs are TypeIDs: K-sortable, UUIDv7-based,
// prefix-qualified identifiers.
package sequence
