package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestServiceOptions_Defaults(t *testing.T) {
	t.Parallel()

	cfg := newConfig()
	assert.Equal(t, 2*time.Second, cfg.retryBase)
	assert.Equal(t, 3, cfg.maxAttempts)
	assert.Equal(t, 24*time.Hour, cfg.completedRetention)
	assert.Equal(t, 7*24*time.Hour, cfg.failedRetention)
}

func TestServiceOptions_Apply(t *testing.T) {
	t.Parallel()

	cfg := newConfig()
	for _, opt := range []Option{
		WithRetryBase(5 * time.Second),
		WithDefaultMaxAttempts(10),
		WithCompletedRetention(time.Hour),
		WithFailedRetention(48 * time.Hour),
	} {
		opt(cfg)
	}

	assert.Equal(t, 5*time.Second, cfg.retryBase)
	assert.Equal(t, 10, cfg.maxAttempts)
	assert.Equal(t, time.Hour, cfg.completedRetention)
	assert.Equal(t, 48*time.Hour, cfg.failedRetention)
}

func TestServiceOptions_IgnoreInvalid(t *testing.T) {
	t.Parallel()

	cfg := newConfig()
	WithRetryBase(-1)(cfg)
	WithDefaultMaxAttempts(0)(cfg)
	assert.Equal(t, 2*time.Second, cfg.retryBase)
	assert.Equal(t, 3, cfg.maxAttempts)
}

func TestWorkerOptions(t *testing.T) {
	t.Parallel()

	cfg := newWorkerConfig()
	assert.Equal(t, defaultConcurrency, cfg.concurrency)
	assert.Equal(t, defaultJobTimeout, cfg.jobTimeout)

	WithConcurrency(5)(cfg)
	WithRateLimit(50, time.Minute)(cfg)
	WithJobTimeout(time.Minute)(cfg)

	assert.Equal(t, 5, cfg.concurrency)
	assert.Equal(t, 50, cfg.rateMax)
	assert.Equal(t, time.Minute, cfg.rateWindow)
	assert.Equal(t, time.Minute, cfg.jobTimeout)
}

func TestEnqueueOptions(t *testing.T) {
	t.Parallel()

	cfg := &enqueueConfig{priority: PriorityDefault, maxAttempts: 3}
	WithPriority(PriorityHigh)(cfg)
	WithDelay(30 * time.Second)(cfg)
	WithMaxAttempts(5)(cfg)
	WithCorrelationID("req-123")(cfg)

	assert.Equal(t, PriorityHigh, cfg.priority)
	assert.Equal(t, 30*time.Second, cfg.delay)
	assert.Equal(t, 5, cfg.maxAttempts)
	assert.Equal(t, "req-123", cfg.correlationID)
}

func TestEnqueueOptions_PriorityOutOfRange(t *testing.T) {
	t.Parallel()

	cfg := &enqueueConfig{priority: PriorityDefault}
	WithPriority(Priority(99))(cfg)
	assert.Equal(t, PriorityDefault, cfg.priority)
}
