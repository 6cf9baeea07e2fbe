package sequence

// Status is the lifecycle state of a Sequence.
//
//	pending → processing → completed
//	pending → processing → failed
//	pending → processing → cancelled
//	pending → cancelled
//
// Completed, failed and cancelled are terminal until ExecuteAgain resets
// the sequence to pending.
type Status string

const (
	// StatusPending means tasks and handlers may still be installed.
	StatusPending Status = "pending"
	// StatusProcessing means a task is dispatched or about to be.
	StatusProcessing Status = "processing"
	// StatusFailed means a task returned an error.
	StatusFailed Status = "failed"
	// StatusCompleted means every task returned a value.
	StatusCompleted Status = "completed"
	// StatusCancelled means Cancel was called before the run finished.
	StatusCancelled Status = "cancelled"
)

// String implements fmt.Stringer.
func (s Status) String() string { return string(s) }

// IsTerminal reports whether s is failed, completed or cancelled.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusFailed, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}
