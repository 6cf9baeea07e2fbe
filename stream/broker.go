package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xraph/sequence/ext"
	"github.com/xraph/sequence/task"
)

// Compile-time interface checks.
var (
	_ ext.Extension         = (*Broker)(nil)
	_ ext.SequenceStarted   = (*Broker)(nil)
	_ ext.TaskCompleted     = (*Broker)(nil)
	_ ext.TaskFailed        = (*Broker)(nil)
	_ ext.SequenceCompleted = (*Broker)(nil)
	_ ext.SequenceFailed    = (*Broker)(nil)
	_ ext.SequenceCancelled = (*Broker)(nil)
	_ ext.Shutdown          = (*Broker)(nil)
)

// DefaultBufferSize is the default per-subscriber event buffer.
const DefaultBufferSize = 256

// DefaultCredits is the default initial credits for new subscribers.
const DefaultCredits int64 = 1000

// Broker is the real-time stream broker. It implements the ext.Extension
// interface to receive lifecycle events and fans them out to subscribers
// via topic-based pub/sub. Publishing never blocks: a subscriber with no
// credits or a full buffer misses the event.
type Broker struct {
	topics *TopicRegistry
	logger *slog.Logger

	// Subscriber management.
	subscribers sync.Map // subscriberID → *Subscriber

	// Metrics.
	totalPublished atomic.Int64
	totalDropped   atomic.Int64

	// Config.
	bufferSize     int
	defaultCredits int64
}

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithBufferSize sets the per-subscriber event buffer size.
func WithBufferSize(size int) BrokerOption {
	return func(b *Broker) { b.bufferSize = size }
}

// WithDefaultCredits sets the initial credits for new subscribers.
func WithDefaultCredits(credits int64) BrokerOption {
	return func(b *Broker) { b.defaultCredits = credits }
}

// NewBroker creates a new stream broker. A nil logger uses slog.Default.
func NewBroker(logger *slog.Logger, opts ...BrokerOption) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Broker{
		topics:         NewTopicRegistry(),
		logger:         logger,
		bufferSize:     DefaultBufferSize,
		defaultCredits: DefaultCredits,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name implements ext.Extension.
func (b *Broker) Name() string { return "stream-broker" }

// Topics returns the topic registry.
func (b *Broker) Topics() *TopicRegistry { return b.topics }

// Subscribe creates a new subscriber on the given topics.
func (b *Broker) Subscribe(subscriberID string, topics ...string) *Subscriber {
	sub := NewSubscriber(subscriberID, b.bufferSize, b.defaultCredits)
	b.subscribers.Store(subscriberID, sub)
	for _, topic := range topics {
		b.topics.Subscribe(topic, sub)
	}
	return sub
}

// SubscribeTo adds an existing subscriber to additional topics.
func (b *Broker) SubscribeTo(subscriberID string, topics ...string) {
	val, ok := b.subscribers.Load(subscriberID)
	if !ok {
		return
	}
	sub := val.(*Subscriber) //nolint:errcheck // sync.Map always stores *Subscriber
	for _, topic := range topics {
		b.topics.Subscribe(topic, sub)
	}
}

// Unsubscribe removes a subscriber from specific topics.
func (b *Broker) Unsubscribe(subscriberID string, topics ...string) {
	for _, topic := range topics {
		b.topics.Unsubscribe(topic, subscriberID)
	}
}

// RemoveSubscriber removes a subscriber from all topics and closes it.
func (b *Broker) RemoveSubscriber(subscriberID string) {
	b.topics.UnsubscribeAll(subscriberID)
	if val, ok := b.subscribers.LoadAndDelete(subscriberID); ok {
		val.(*Subscriber).Close() //nolint:errcheck // sync.Map always stores *Subscriber
	}
}

// GetSubscriber returns a subscriber by ID.
func (b *Broker) GetSubscriber(subscriberID string) (*Subscriber, bool) {
	val, ok := b.subscribers.Load(subscriberID)
	if !ok {
		return nil, false
	}
	return val.(*Subscriber), true //nolint:errcheck // sync.Map always stores *Subscriber
}

// Stats returns broker statistics.
func (b *Broker) Stats() BrokerStats {
	count := 0
	b.subscribers.Range(func(_, _ any) bool {
		count++
		return true
	})
	return BrokerStats{
		TopicCount:      b.topics.TopicCount(),
		SubscriberCount: count,
		TotalPublished:  b.totalPublished.Load(),
		TotalDropped:    b.totalDropped.Load(),
	}
}

// BrokerStats contains broker metrics.
type BrokerStats struct {
	TopicCount      int   `json:"topic_count"`
	SubscriberCount int   `json:"subscriber_count"`
	TotalPublished  int64 `json:"total_published"`
	TotalDropped    int64 `json:"total_dropped"`
}

// publish broadcasts evt to all matching topics.
func (b *Broker) publish(evt *Event) {
	topics := resolveTopics(evt)
	targets := b.topics.SubscriberCountAcross(topics)
	delivered := b.topics.Broadcast(topics, evt)
	b.totalPublished.Add(int64(delivered))
	b.totalDropped.Add(int64(targets - delivered))
}

// lifecycle builds and publishes an event for info.
func (b *Broker) lifecycle(typ EventType, info task.Info, elapsed time.Duration, err error) {
	data := SequenceEventData{
		SequenceID: info.SequenceID.String(),
		RunID:      info.RunID.String(),
		Name:       info.Sequence,
		Queue:      info.QueueName(),
		Index:      info.Index,
		Total:      info.Total,
		ElapsedMs:  elapsed.Milliseconds(),
	}
	if err != nil {
		data.Error = err.Error()
	}
	b.publish(&Event{
		Type:      typ,
		Timestamp: time.Now().UTC(),
		Topic:     SequenceTopic(data.SequenceID),
		Queue:     data.Queue,
		Data:      mustMarshal(data),
	})
}

// mustMarshal marshals data to JSON, panicking on error (programming error).
func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic("stream: marshal event data: " + err.Error())
	}
	return data
}

// ── Sequence lifecycle hooks ────────────────────────

// OnSequenceStarted implements ext.SequenceStarted.
func (b *Broker) OnSequenceStarted(_ context.Context, info task.Info) error {
	b.lifecycle(EventSequenceStarted, info, 0, nil)
	return nil
}

// OnTaskCompleted implements ext.TaskCompleted.
func (b *Broker) OnTaskCompleted(_ context.Context, info task.Info, elapsed time.Duration) error {
	b.lifecycle(EventTaskCompleted, info, elapsed, nil)
	return nil
}

// OnTaskFailed implements ext.TaskFailed.
func (b *Broker) OnTaskFailed(_ context.Context, info task.Info, taskErr error) error {
	b.lifecycle(EventTaskFailed, info, 0, taskErr)
	return nil
}

// OnSequenceCompleted implements ext.SequenceCompleted.
func (b *Broker) OnSequenceCompleted(_ context.Context, info task.Info, elapsed time.Duration) error {
	b.lifecycle(EventSequenceCompleted, info, elapsed, nil)
	return nil
}

// OnSequenceFailed implements ext.SequenceFailed.
func (b *Broker) OnSequenceFailed(_ context.Context, info task.Info, runErr error) error {
	b.lifecycle(EventSequenceFailed, info, 0, runErr)
	return nil
}

// OnSequenceCancelled implements ext.SequenceCancelled.
func (b *Broker) OnSequenceCancelled(_ context.Context, info task.Info) error {
	b.lifecycle(EventSequenceCancelled, info, 0, nil)
	return nil
}

// ── Shutdown ────────────────────────────────────────

// OnShutdown implements ext.Shutdown. It closes every subscriber.
func (b *Broker) OnShutdown(_ context.Context) error {
	b.subscribers.Range(func(key, value any) bool {
		sub := value.(*Subscriber) //nolint:errcheck // sync.Map always stores *Subscriber
		sub.Close()
		b.subscribers.Delete(key)
		return true
	})
	b.logger.Info("stream broker shut down")
	return nil
}
