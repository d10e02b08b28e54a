// Package queue provides a durable job queue service backed by River
// (Postgres-native queue).
//
// The service owns named queues, binds exactly one processing function
// per queue, and delegates durability, leasing, and redelivery to River:
// a job is durable before Enqueue returns, is held by at most one worker
// slot at a time, and is redelivered with exponential backoff
// (base * 2^(attempt-1)) until its attempt limit, after which it is
// retained as terminally failed for inspection and eventually purged.
//
// # Queues and workers
//
// Queues are created up front and bound to processing functions before
// the service starts. The first worker registration for a queue stands;
// a second registration returns ErrWorkerBound:
//
//	svc, err := queue.New(pool, rdb, queue.WithLogger(log))
//	_ = svc.CreateQueue("media_uploads")
//	err = svc.RegisterWorker("media_uploads", process,
//	    queue.WithConcurrency(2),
//	    queue.WithRateLimit(50, time.Minute),
//	)
//
// Concurrency bounds how many jobs run in parallel; the rate limit caps
// admissions per sliding window independently of concurrency. Over-limit
// dequeues are snoozed, not failed.
//
// # Enqueueing and status
//
//	id, err := svc.Enqueue(ctx, "media_uploads", payload,
//	    queue.WithPriority(queue.PriorityHigh),
//	    queue.WithDelay(30*time.Second),
//	)
//	st, err := svc.JobStatus(ctx, id)
//
// A processing function may return a value; it is recorded as the job's
// result and surfaced by JobStatus after completion. Progress is tracked
// in Redis via Job.SetProgress.
//
// # Lifecycle
//
// Start launches processing and a single event loop that logs every job
// lifecycle transition. Stop drains gracefully: in-flight jobs finish,
// bounded by the caller's context deadline.
package queue
