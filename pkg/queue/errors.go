package queue

import "errors"

// Queue errors.
var (
	// ErrPoolRequired is returned when attempting to create a service
	// without providing a database pool.
	ErrPoolRequired = errors.New("queue: pool is required")

	// ErrQueueNotFound is returned when enqueueing to a queue that was
	// never created via CreateQueue.
	ErrQueueNotFound = errors.New("queue: queue not found")

	// ErrWorkerBound is returned by RegisterWorker when the queue already
	// has a processing function bound to it. The first registration stands.
	ErrWorkerBound = errors.New("queue: worker already bound")

	// ErrWorkerNotBound is returned when a job is dequeued for a queue
	// that has no processing function registered.
	ErrWorkerNotBound = errors.New("queue: no worker bound")

	// ErrAlreadyStarted is returned when attempting to start a service
	// that is already running.
	ErrAlreadyStarted = errors.New("queue: already started")

	// ErrNotStarted is returned when attempting to stop a service
	// that is not running.
	ErrNotStarted = errors.New("queue: not started")

	// ErrStarted is returned when attempting to register queues, workers,
	// or schedules after the service has been started.
	ErrStarted = errors.New("queue: service already started")

	// ErrJobNotFound is returned by JobStatus for an unknown job id.
	ErrJobNotFound = errors.New("queue: job not found")

	// ErrInvalidJobID is returned by JobStatus for a malformed job id.
	ErrInvalidJobID = errors.New("queue: invalid job id")

	// ErrInvalidPayload is returned when a job payload cannot be
	// marshaled or unmarshaled.
	ErrInvalidPayload = errors.New("queue: invalid payload")

	// ErrInvalidSchedule is returned when a cron expression cannot be parsed.
	ErrInvalidSchedule = errors.New("queue: invalid schedule")
)
