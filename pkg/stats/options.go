package stats

import (
	"log/slog"
	"time"

	"github.com/jdziat/simple-block-guard/pkg/internal/retry"
	"github.com/jdziat/simple-block-guard/pkg/schedule"
)

const (
	// DefaultRetention is how long block records and stat buckets are kept.
	DefaultRetention = 7 * 24 * time.Hour
	// DefaultFlushInterval is how often aggregated counters are written.
	DefaultFlushInterval = time.Minute
)

// Option configures a Collector.
type Option interface {
	apply(*Collector)
}

type optionFunc func(*Collector)

func (f optionFunc) apply(c *Collector) { f(c) }

// WithRetention sets how long rows are kept. Zero or negative disables
// pruning.
func WithRetention(d time.Duration) Option {
	return optionFunc(func(c *Collector) {
		c.retention = d
	})
}

// WithFlushInterval sets how often counters and block records are written.
func WithFlushInterval(d time.Duration) Option {
	return optionFunc(func(c *Collector) {
		if d > 0 {
			c.flushInterval = d
		}
	})
}

// WithPruneSchedule sets when retention pruning runs. Default: hourly.
func WithPruneSchedule(s schedule.Schedule) Option {
	return optionFunc(func(c *Collector) {
		if s != nil {
			c.pruneSchedule = s
		}
	})
}

// WithLogger sets the logger for storage failures.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *Collector) {
		if l != nil {
			c.logger = l
		}
	})
}

// RetryConfig configures backoff for storage writes.
type RetryConfig = retry.Config

// DefaultRetryConfig returns the backoff used when WithRetry is not given.
func DefaultRetryConfig() RetryConfig {
	return retry.DefaultConfig()
}

// WithRetry sets the backoff used for storage writes.
func WithRetry(cfg RetryConfig) Option {
	return optionFunc(func(c *Collector) {
		c.retry = cfg
	})
}
