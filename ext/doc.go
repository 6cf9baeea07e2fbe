// Package ext defines the extension system for sequences.
//
// Extensions are notified of lifecycle events and can react to them:
// recording metrics, writing audit logs, and so on. Each lifecycle hook
// is a separate interface so extensions opt in only to the events they
// care about.
//
// # Implementing an Extension
//
//	type MyExtension struct{}
//
//	func (e *MyExtension) Name() string { return "my-extension" }
//
//	// Opt in to specific hooks by implementing their interfaces.
//	func (e *MyExtension) OnSequenceCompleted(ctx context.Context, info task.Info, elapsed time.Duration) error {
//	    log.Printf("sequence %s completed in %s", info.Sequence, elapsed)
//	    return nil
//	}
//
// # Sequence Lifecycle Hooks
//
//   - [SequenceStarted]: a run cycle left Pending
//   - [TaskCompleted]: one task returned a value
//   - [TaskFailed]: one task returned an error
//   - [SequenceCompleted]: every task of the run succeeded
//   - [SequenceFailed]: the run stopped on a task error
//   - [SequenceCancelled]: the run was cancelled
//
// # Other Hooks
//
//   - [Shutdown]: the runtime is shutting down gracefully
//
// Hooks run synchronously on the control loop, so they observe events in
// exactly the order the sequence produced them and must not block. The
// [Registry] fans out each event to all registered extensions that
// implement the corresponding hook interface.
package ext
