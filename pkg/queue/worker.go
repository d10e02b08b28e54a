package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/riverqueue/river"
)

// ProcessFunc is the processing function bound to a queue. The returned
// value, if non-nil, is persisted as the job's result and surfaced by
// JobStatus once the job completes.
type ProcessFunc func(ctx context.Context, job *Job) (any, error)

// Job is the handle passed to a ProcessFunc for one dequeued job.
type Job struct {
	ID            string
	Queue         string
	CorrelationID string
	Attempt       int
	MaxAttempts   int
	Payload       json.RawMessage

	progress *progressTracker
}

// UnmarshalPayload decodes the job payload into v.
func (j *Job) UnmarshalPayload(v any) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return errors.Join(ErrInvalidPayload, err)
	}
	return nil
}

// SetProgress records the job's completion percentage (clamped to 0-100).
// Best effort: a failed write never fails the job.
func (j *Job) SetProgress(ctx context.Context, pct int) {
	if j.progress == nil {
		return
	}
	j.progress.set(ctx, j.ID, min(max(pct, 0), 100))
}

// jobArgs is the single River payload type for all queue service jobs.
// Dispatch to the bound ProcessFunc happens by queue name.
type jobArgs struct {
	Queue         string          `json:"queue"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

func (jobArgs) Kind() string {
	return "innkeep:job"
}

// binding is one queue's registered worker: the processing function plus
// its concurrency, timeout, and rate limit settings.
type binding struct {
	fn      ProcessFunc
	cfg     *workerConfig
	limiter *slidingWindow
}

// dispatchWorker routes every dequeued job to the binding for its queue.
type dispatchWorker struct {
	river.WorkerDefaults[jobArgs]
	svc *Service
}

func (w *dispatchWorker) Timeout(job *river.Job[jobArgs]) time.Duration {
	if b := w.svc.binding(job.Args.Queue); b != nil {
		return b.cfg.jobTimeout
	}
	return 0
}

func (w *dispatchWorker) Work(ctx context.Context, job *river.Job[jobArgs]) error {
	b := w.svc.binding(job.Args.Queue)
	if b == nil {
		return fmt.Errorf("%w: %s", ErrWorkerNotBound, job.Args.Queue)
	}

	if b.limiter != nil {
		if wait := b.limiter.reserve(time.Now()); wait > 0 {
			// Over the rate limit: reschedule without burning an attempt.
			return river.JobSnooze(wait)
		}
	}

	handle := &Job{
		ID:            strconv.FormatInt(job.ID, 10),
		Queue:         job.Args.Queue,
		CorrelationID: job.Args.CorrelationID,
		Attempt:       job.Attempt,
		MaxAttempts:   job.MaxAttempts,
		Payload:       job.Args.Payload,
		progress:      w.svc.progress,
	}

	w.svc.logger.DebugContext(ctx, "processing job",
		slog.String("queue", handle.Queue),
		slog.String("job_id", handle.ID),
		slog.Int("attempt", handle.Attempt),
	)

	out, err := b.fn(ctx, handle)
	if err != nil {
		return err
	}

	handle.SetProgress(ctx, 100)

	if out != nil {
		if recordErr := river.RecordOutput(ctx, out); recordErr != nil {
			w.svc.logger.ErrorContext(ctx, "failed to record job output",
				slog.String("job_id", handle.ID),
				slog.Any("error", recordErr),
			)
		}
	}

	return nil
}

// Cancel marks a job error as terminal: the job moves straight to the
// failed state with no further retries. Use for permanent conditions
// where backoff retries cannot help.
func Cancel(err error) error {
	return river.JobCancel(err)
}
