package queue

import "time"

// Priority controls dequeue order between jobs in the same queue.
// Higher-priority jobs dequeue first.
type Priority int

const (
	PriorityHigh    Priority = 1
	PriorityDefault Priority = 2
	PriorityLow     Priority = 3
)

// enqueueConfig holds options for enqueueing a job.
type enqueueConfig struct {
	priority      Priority
	delay         time.Duration
	maxAttempts   int
	correlationID string
}

// EnqueueOption configures job enqueueing.
type EnqueueOption func(*enqueueConfig)

// WithPriority sets the job priority. Higher-priority jobs are
// dequeued before lower-priority ones. Default: PriorityDefault.
func WithPriority(p Priority) EnqueueOption {
	return func(c *enqueueConfig) {
		if p >= PriorityHigh && p <= PriorityLow {
			c.priority = p
		}
	}
}

// WithDelay makes the job eligible for dequeue only after the given
// duration has passed.
func WithDelay(d time.Duration) EnqueueOption {
	return func(c *enqueueConfig) {
		if d > 0 {
			c.delay = d
		}
	}
}

// WithMaxAttempts overrides the service-wide attempt limit for this job.
func WithMaxAttempts(n int) EnqueueOption {
	return func(c *enqueueConfig) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithCorrelationID attaches a caller-supplied id to the job for
// tracing it through logs and status queries.
func WithCorrelationID(id string) EnqueueOption {
	return func(c *enqueueConfig) {
		c.correlationID = id
	}
}
