package queue

import (
	"sync"

	"golang.org/x/time/rate"
)

// Config defines per-queue behaviour such as rate limiting and concurrency.
type Config struct {
	// Name is the queue identifier (must match the sequence's queue).
	Name string `toml:"name" json:"name"`

	// MaxConcurrency limits how many tasks from this queue may run
	// simultaneously. Zero means no queue-specific limit.
	MaxConcurrency int `toml:"max_concurrency" json:"max_concurrency"`

	// RateLimit is the maximum sustained tasks per second admitted from
	// this queue. Zero disables rate limiting.
	RateLimit float64 `toml:"rate_limit" json:"rate_limit"`

	// RateBurst is the burst size for the token-bucket rate limiter.
	// Defaults to 1 if RateLimit is set but RateBurst is zero.
	RateBurst int `toml:"rate_burst" json:"rate_burst"`
}

type queueState struct {
	config  Config
	limiter *rate.Limiter
	active  int
}

// Manager controls per-queue rate limiting and concurrency.
// It is safe for concurrent use.
type Manager struct {
	mu     sync.Mutex
	queues map[string]*queueState
}

// NewManager creates a Manager with the given queue configurations.
// Queues not listed here have no limits.
func NewManager(configs ...Config) *Manager {
	m := &Manager{
		queues: make(map[string]*queueState, len(configs)),
	}
	for _, cfg := range configs {
		m.queues[cfg.Name] = newQueueState(cfg)
	}
	return m
}

func newQueueState(cfg Config) *queueState {
	qs := &queueState{config: cfg}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		qs.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return qs
}

// Acquire checks the rate limit and concurrency for the named queue. If
// the task may proceed it increments the active counter and returns true.
// The caller MUST call Release when the task completes.
func (m *Manager) Acquire(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	qs := m.queues[name]
	if qs == nil {
		return true
	}
	// Concurrency first so a refused task does not burn a rate token.
	if qs.config.MaxConcurrency > 0 && qs.active >= qs.config.MaxConcurrency {
		return false
	}
	if qs.limiter != nil && !qs.limiter.Allow() {
		return false
	}
	qs.active++
	return true
}

// Release decrements the active task count for the queue.
func (m *Manager) Release(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if qs := m.queues[name]; qs != nil && qs.active > 0 {
		qs.active--
	}
}

// SetQueueConfig dynamically updates (or creates) a queue configuration.
func (m *Manager) SetQueueConfig(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.queues[cfg.Name]
	qs := newQueueState(cfg)

	// Preserve current active count if reconfiguring.
	if existing != nil {
		qs.active = existing.active
	}
	m.queues[cfg.Name] = qs
}

// ActiveCount returns the current number of active tasks for a queue.
func (m *Manager) ActiveCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if qs := m.queues[name]; qs != nil {
		return qs.active
	}
	return 0
}
