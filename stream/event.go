// Package stream provides a real-time event broker for sequence lifecycle
// events. It bridges the ext hooks to in-process consumers via
// topic-based pub/sub, so code off the control loop can follow a chain
// without touching it.
package stream

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of lifecycle event.
type EventType string

const (
	// Run events.
	EventSequenceStarted   EventType = "sequence.started"
	EventSequenceCompleted EventType = "sequence.completed"
	EventSequenceFailed    EventType = "sequence.failed"
	EventSequenceCancelled EventType = "sequence.cancelled"

	// Task events.
	EventTaskCompleted EventType = "task.completed"
	EventTaskFailed    EventType = "task.failed"
)

// Event is the envelope sent to subscribers on a topic channel.
type Event struct {
	// Type identifies the lifecycle event.
	Type EventType `json:"type"`

	// Timestamp is when the event was emitted.
	Timestamp time.Time `json:"ts"`

	// Topic is the per-sequence channel this event was published on.
	Topic string `json:"topic"`

	// Queue is the executor queue of the sequence; the event is also
	// published on its queue topic.
	Queue string `json:"queue,omitempty"`

	// Data is the event-specific payload.
	Data json.RawMessage `json:"data"`
}

// SequenceEventData is the payload for every sequence lifecycle event.
type SequenceEventData struct {
	SequenceID string `json:"sequence_id"`
	RunID      string `json:"run_id"`
	Name       string `json:"name,omitempty"`
	Queue      string `json:"queue"`
	Index      int    `json:"index"`
	Total      int    `json:"total"`
	ElapsedMs  int64  `json:"elapsed_ms,omitempty"`
	Error      string `json:"error,omitempty"`
}
