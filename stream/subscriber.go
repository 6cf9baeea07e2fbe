package stream

import (
	"sync"
	"sync/atomic"
)

// Subscriber follows sequence lifecycle events on the topics it joined.
//
// Delivery is credit based: each delivered event spends one credit and
// the broker skips a subscriber with none left. Events refused for lack
// of credit or buffer space are counted in Dropped; events rejected by
// the filter are not.
type Subscriber struct {
	id string
	ch chan *Event

	credits atomic.Int64
	dropped atomic.Int64

	filter atomic.Pointer[func(*Event) bool]

	// mu guards topics and closed against concurrent send.
	mu     sync.RWMutex
	topics map[string]struct{}
	closed bool
}

// NewSubscriber creates a subscriber with the given buffer size
// and initial credits.
func NewSubscriber(id string, bufferSize int, initialCredits int64) *Subscriber {
	s := &Subscriber{
		id:     id,
		ch:     make(chan *Event, bufferSize),
		topics: make(map[string]struct{}),
	}
	s.credits.Store(initialCredits)
	return s
}

// ID returns the subscriber identifier.
func (s *Subscriber) ID() string { return s.id }

// C returns the read-only event channel. It is closed by Close.
func (s *Subscriber) C() <-chan *Event { return s.ch }

// AddCredits replenishes flow-control credits.
func (s *Subscriber) AddCredits(n int64) {
	s.credits.Add(n)
}

// Credits returns the current credit count.
func (s *Subscriber) Credits() int64 {
	return s.credits.Load()
}

// Dropped returns how many events were refused because the subscriber
// had no credits or a full buffer.
func (s *Subscriber) Dropped() int64 {
	return s.dropped.Load()
}

// SetFilter installs a predicate events must satisfy to be delivered.
// A nil fn removes the filter. Safe to call while events are flowing.
func (s *Subscriber) SetFilter(fn func(*Event) bool) {
	if fn == nil {
		s.filter.Store(nil)
		return
	}
	s.filter.Store(&fn)
}

// OnlyTypes returns a filter accepting only the given event types, for
// example OnlyTypes(EventSequenceFailed, EventTaskFailed).
func OnlyTypes(types ...EventType) func(*Event) bool {
	set := make(map[EventType]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return func(evt *Event) bool {
		_, ok := set[evt.Type]
		return ok
	}
}

func (s *Subscriber) addTopic(topic string) {
	s.mu.Lock()
	s.topics[topic] = struct{}{}
	s.mu.Unlock()
}

func (s *Subscriber) removeTopic(topic string) {
	s.mu.Lock()
	delete(s.topics, topic)
	s.mu.Unlock()
}

// Topics returns a copy of all subscribed topic names.
func (s *Subscriber) Topics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.topics))
	for t := range s.topics {
		out = append(out, t)
	}
	return out
}

// send delivers evt without blocking and reports whether it was queued.
func (s *Subscriber) send(evt *Event) bool {
	if fn := s.filter.Load(); fn != nil && !(*fn)(evt) {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}

	for {
		current := s.credits.Load()
		if current <= 0 {
			s.dropped.Add(1)
			return false
		}
		if s.credits.CompareAndSwap(current, current-1) {
			break
		}
	}

	select {
	case s.ch <- evt:
		return true
	default:
		s.credits.Add(1)
		s.dropped.Add(1)
		return false
	}
}

// Close closes the event channel. Later sends are ignored. Safe to call
// multiple times.
func (s *Subscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
