package task

import (
	"strconv"

	"github.com/xraph/sequence/id"
)

// DefaultQueue is the executor queue used when a sequence names none.
const DefaultQueue = "default"

// Info identifies one task of one run cycle of a sequence.
type Info struct {
	SequenceID id.SequenceID `json:"sequence_id"`
	RunID      id.RunID      `json:"run_id"`
	Sequence   string        `json:"sequence,omitempty"`
	Queue      string        `json:"queue"`

	// Index is the zero-based position of the task in the sequence.
	// For run-level events it is the cursor at the time of the event.
	Index int `json:"index"`
	Total int `json:"total"`
}

// Label returns a human-readable name such as "checkout[2]". Unnamed
// sequences fall back to their ID.
func (i Info) Label() string {
	name := i.Sequence
	if name == "" {
		name = i.SequenceID.String()
	}
	return name + "[" + strconv.Itoa(i.Index) + "]"
}

// QueueName returns Queue, or DefaultQueue when it is empty.
func (i Info) QueueName() string {
	if i.Queue == "" {
		return DefaultQueue
	}
	return i.Queue
}
