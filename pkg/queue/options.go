package queue

import (
	"io"
	"log/slog"
	"time"
)

// noopLogger discards all output; used when no logger is configured.
func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const (
	defaultRetryBase          = 2 * time.Second
	defaultMaxAttempts        = 3
	defaultConcurrency        = 10
	defaultJobTimeout         = 10 * time.Minute
	defaultCompletedRetention = 24 * time.Hour
	defaultFailedRetention    = 7 * 24 * time.Hour
	defaultProgressTTL        = 24 * time.Hour
)

// config holds queue service configuration.
type config struct {
	logger             *slog.Logger
	retryBase          time.Duration
	maxAttempts        int
	completedRetention time.Duration
	failedRetention    time.Duration
	progressTTL        time.Duration
}

func newConfig() *config {
	return &config{
		retryBase:          defaultRetryBase,
		maxAttempts:        defaultMaxAttempts,
		completedRetention: defaultCompletedRetention,
		failedRetention:    defaultFailedRetention,
		progressTTL:        defaultProgressTTL,
	}
}

// Option configures the queue service.
type Option func(*config)

// WithLogger sets the logger for the service and its lifecycle event loop.
// If not set, a noop logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRetryBase sets the base delay for the exponential retry policy.
// Redelivery after a failed attempt n is scheduled base * 2^(n-1) later.
// Default: 2 seconds.
func WithRetryBase(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.retryBase = d
		}
	}
}

// WithDefaultMaxAttempts sets the per-job attempt limit applied when
// Enqueue is called without MaxAttempts. Default: 3.
func WithDefaultMaxAttempts(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithCompletedRetention sets how long completed jobs are kept for
// inspection before being purged. Default: 24 hours.
func WithCompletedRetention(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.completedRetention = d
		}
	}
}

// WithFailedRetention sets how long terminally failed jobs are kept for
// inspection before being purged. Default: 7 days.
func WithFailedRetention(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.failedRetention = d
		}
	}
}

// WithProgressTTL sets the expiry on per-job progress entries.
// Default: 24 hours.
func WithProgressTTL(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.progressTTL = d
		}
	}
}

// workerConfig holds per-queue worker binding configuration.
type workerConfig struct {
	concurrency int
	jobTimeout  time.Duration
	rateMax     int
	rateWindow  time.Duration
}

func newWorkerConfig() *workerConfig {
	return &workerConfig{
		concurrency: defaultConcurrency,
		jobTimeout:  defaultJobTimeout,
	}
}

// WorkerOption configures a worker binding.
type WorkerOption func(*workerConfig)

// WithConcurrency sets how many jobs the worker processes in parallel.
// Default: 10.
func WithConcurrency(n int) WorkerOption {
	return func(c *workerConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithRateLimit caps throughput to max admissions per sliding window,
// independent of concurrency. Over-limit dequeues are rescheduled
// without consuming a retry attempt.
func WithRateLimit(max int, window time.Duration) WorkerOption {
	return func(c *workerConfig) {
		if max > 0 && window > 0 {
			c.rateMax = max
			c.rateWindow = window
		}
	}
}

// WithJobTimeout sets the hard deadline for a single processing attempt.
// A timed-out attempt counts as a failed attempt. Default: 10 minutes.
func WithJobTimeout(d time.Duration) WorkerOption {
	return func(c *workerConfig) {
		if d > 0 {
			c.jobTimeout = d
		}
	}
}
