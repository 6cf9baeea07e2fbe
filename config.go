package sequence

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/xraph/sequence/queue"
)

// Config holds configuration for a Runtime.
type Config struct {
	// Concurrency is the number of workers in the shared executor pool.
	Concurrency int `toml:"concurrency"`

	// PollInterval is how long a task refused by its queue's limits waits
	// before it is offered to the workers again.
	PollInterval time.Duration `toml:"poll_interval"`

	// ShutdownTimeout bounds Stop when its context has no deadline.
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`

	// Queues configures per-queue concurrency and rate limits.
	Queues []queue.Config `toml:"queues"`

	// Tracing wraps every task in an OpenTelemetry span.
	Tracing bool `toml:"tracing"`

	// Metrics records per-task OpenTelemetry duration and count metrics.
	Metrics bool `toml:"metrics"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:     10,
		PollInterval:    50 * time.Millisecond,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Concurrency <= 0 {
		return fmt.Errorf("%w: concurrency must be positive, got %d", ErrInvalidConfig, c.Concurrency)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll_interval must be positive, got %s", ErrInvalidConfig, c.PollInterval)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: shutdown_timeout must not be negative", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(c.Queues))
	for _, q := range c.Queues {
		if q.Name == "" {
			return fmt.Errorf("%w: queue without a name", ErrInvalidConfig)
		}
		if seen[q.Name] {
			return fmt.Errorf("%w: duplicate queue %q", ErrInvalidConfig, q.Name)
		}
		seen[q.Name] = true
		if q.MaxConcurrency < 0 || q.RateLimit < 0 || q.RateBurst < 0 {
			return fmt.Errorf("%w: queue %q has negative limits", ErrInvalidConfig, q.Name)
		}
	}
	return nil
}

// LoadConfig reads a TOML file over DefaultConfig and validates the
// result. Durations are strings such as "250ms" or "30s".
//
//	concurrency = 4
//	shutdown_timeout = "10s"
//
//	[[queues]]
//	name = "io"
//	max_concurrency = 2
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("sequence: load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseConfig is LoadConfig for TOML already in memory.
func ParseConfig(data string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("sequence: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
