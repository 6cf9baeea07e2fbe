package audithook

// Audit event actions. Each constant corresponds to one ext lifecycle hook
// and becomes the Action field of the audit event.
const (
	ActionSequenceStarted   = "sequence.started"
	ActionTaskCompleted     = "sequence.task_completed"
	ActionTaskFailed        = "sequence.task_failed"
	ActionSequenceCompleted = "sequence.completed"
	ActionSequenceFailed    = "sequence.failed"
	ActionSequenceCancelled = "sequence.cancelled"
)

// Audit event categories group related actions.
const (
	CategoryRun  = "sequence.run"
	CategoryTask = "sequence.task"
)

// Resource types used as the Resource field in audit events. Both use the
// run ID as ResourceID; task events add the index to Metadata.
const (
	ResourceRun  = "sequence_run"
	ResourceTask = "sequence_task"
)

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionSequenceStarted,
		ActionTaskCompleted,
		ActionTaskFailed,
		ActionSequenceCompleted,
		ActionSequenceFailed,
		ActionSequenceCancelled,
	}
}
