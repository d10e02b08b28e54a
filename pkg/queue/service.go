package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
)

// State is the externally visible lifecycle state of a job.
type State string

const (
	StateWaiting   State = "waiting"
	StateActive    State = "active"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Status is the answer to a job status query.
type Status struct {
	State    State           `json:"state"`
	Progress int             `json:"progress"`
	Result   json.RawMessage `json:"result,omitempty"`
}

// Metrics holds per-queue job counts for observability.
type Metrics struct {
	Waiting   int `json:"waiting"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Delayed   int `json:"delayed"`
}

// Service owns named queues and their worker bindings. It wraps River
// for durable, at-least-once job delivery: jobs survive restarts, are
// leased to exactly one worker slot at a time, and are redelivered with
// exponential backoff on failure.
//
// Queues, workers, and schedules are registered before Start; jobs can
// be enqueued at any time, including before Start.
type Service struct {
	pool     *pgxpool.Pool
	logger   *slog.Logger
	cfg      *config
	progress *progressTracker

	// insertClient is insert-only and exists from construction, so
	// Enqueue works before Start.
	insertClient *river.Client[pgx.Tx]

	mu          sync.RWMutex
	queues      map[string]struct{}
	bindings    map[string]*binding
	schedules   []schedule
	client      *river.Client[pgx.Tx]
	unsubscribe func()
	started     bool
}

// New creates a queue service backed by the given Postgres pool.
// The Redis client is used only for job progress tracking and may be
// nil, in which case progress queries always report zero.
func New(pool *pgxpool.Pool, rdb redis.UniversalClient, opts ...Option) (*Service, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}

	cfg := newConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = noopLogger()
	}

	insertClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Logger: cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("queue: create insert client: %w", err)
	}

	return &Service{
		pool:         pool,
		logger:       cfg.logger,
		cfg:          cfg,
		insertClient: insertClient,
		progress: &progressTracker{
			rdb:    rdb,
			ttl:    cfg.progressTTL,
			logger: cfg.logger,
		},
		queues:   make(map[string]struct{}),
		bindings: make(map[string]*binding),
	}, nil
}

// CreateQueue registers a named queue. Idempotent: creating the same
// queue twice is a no-op. Queues must be created before jobs are
// enqueued to them and before the service starts.
func (s *Service) CreateQueue(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrStarted
	}

	s.queues[name] = struct{}{}
	return nil
}

// RegisterWorker binds a processing function to a queue. The first
// registration stands: binding a queue twice returns ErrWorkerBound and
// leaves the original binding in place.
func (s *Service) RegisterWorker(queueName string, fn ProcessFunc, opts ...WorkerOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrStarted
	}
	if _, ok := s.queues[queueName]; !ok {
		return fmt.Errorf("%w: %s", ErrQueueNotFound, queueName)
	}
	if _, ok := s.bindings[queueName]; ok {
		return fmt.Errorf("%w: %s", ErrWorkerBound, queueName)
	}

	cfg := newWorkerConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	b := &binding{fn: fn, cfg: cfg}
	if cfg.rateMax > 0 {
		b.limiter = newSlidingWindow(cfg.rateMax, cfg.rateWindow)
	}

	s.bindings[queueName] = b
	return nil
}

// RegisterScheduled registers a periodic task fired on a 5-field cron
// expression. Scheduled tasks run on the default queue.
func (s *Service) RegisterScheduled(name, cronExpr string, fn func(ctx context.Context) error) error {
	sched, err := parseCronSchedule(cronExpr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrStarted
	}

	s.schedules = append(s.schedules, schedule{name: name, cronExpr: sched, fn: fn})
	s.bindings[scheduledPrefix+name] = &binding{
		fn: func(ctx context.Context, _ *Job) (any, error) {
			return nil, fn(ctx)
		},
		cfg: newWorkerConfig(),
	}
	return nil
}

// Enqueue adds a job to a queue. The job is durable before Enqueue
// returns; the returned id is stable and usable for status queries.
func (s *Service) Enqueue(ctx context.Context, queueName string, payload any, opts ...EnqueueOption) (string, error) {
	s.mu.RLock()
	_, known := s.queues[queueName]
	s.mu.RUnlock()
	if !known {
		return "", fmt.Errorf("%w: %s", ErrQueueNotFound, queueName)
	}

	var payloadBytes json.RawMessage
	if payload != nil {
		var err error
		payloadBytes, err = json.Marshal(payload)
		if err != nil {
			return "", errors.Join(ErrInvalidPayload, err)
		}
	}

	enqCfg := &enqueueConfig{
		priority:    PriorityDefault,
		maxAttempts: s.cfg.maxAttempts,
	}
	for _, opt := range opts {
		opt(enqCfg)
	}

	insertOpts := &river.InsertOpts{
		Queue:       queueName,
		Priority:    int(enqCfg.priority),
		MaxAttempts: enqCfg.maxAttempts,
	}
	if enqCfg.delay > 0 {
		insertOpts.ScheduledAt = time.Now().Add(enqCfg.delay)
	}

	args := &jobArgs{
		Queue:         queueName,
		CorrelationID: enqCfg.correlationID,
		Payload:       payloadBytes,
	}

	res, err := s.insertClient.Insert(ctx, args, insertOpts)
	if err != nil {
		return "", fmt.Errorf("queue: enqueue: %w", err)
	}

	return strconv.FormatInt(res.Job.ID, 10), nil
}

// Start begins processing jobs on all registered queues and launches
// the lifecycle event loop. Returns ErrAlreadyStarted if called twice.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}

	queues := map[string]river.QueueConfig{
		river.QueueDefault: {MaxWorkers: defaultConcurrency},
	}
	for name := range s.queues {
		workers := defaultConcurrency
		if b, ok := s.bindings[name]; ok {
			workers = b.cfg.concurrency
		}
		queues[name] = river.QueueConfig{MaxWorkers: workers}
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &dispatchWorker{svc: s})

	client, err := river.NewClient(riverpgxv5.New(s.pool), &river.Config{
		Queues:                      queues,
		Workers:                     workers,
		PeriodicJobs:                periodicJobs(s.schedules),
		RetryPolicy:                 exponentialRetry{base: s.cfg.retryBase},
		CompletedJobRetentionPeriod: s.cfg.completedRetention,
		CancelledJobRetentionPeriod: s.cfg.failedRetention,
		DiscardedJobRetentionPeriod: s.cfg.failedRetention,
		Logger:                      s.logger,
	})
	if err != nil {
		return fmt.Errorf("queue: create client: %w", err)
	}

	events, unsubscribe := client.Subscribe(
		river.EventKindJobCompleted,
		river.EventKindJobFailed,
		river.EventKindJobCancelled,
		river.EventKindJobSnoozed,
	)

	if err := client.Start(ctx); err != nil {
		unsubscribe()
		return fmt.Errorf("queue: start client: %w", err)
	}

	go s.consumeEvents(events)

	s.client = client
	s.unsubscribe = unsubscribe
	s.started = true
	s.logger.Info("queue service started",
		slog.Int("queues", len(s.queues)),
		slog.Int("schedules", len(s.schedules)),
	)
	return nil
}

// Stop drains the service gracefully: no new dequeues, in-flight jobs
// run to completion, bounded by the caller's context deadline.
func (s *Service) Stop(ctx context.Context) error {
	// The lock is not held during the drain: jobs still starting their
	// Work call binding(), which needs the read lock.
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	client := s.client
	unsubscribe := s.unsubscribe
	s.mu.Unlock()

	if err := client.Stop(ctx); err != nil {
		return fmt.Errorf("queue: stop client: %w", err)
	}
	unsubscribe()

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()

	s.logger.Info("queue service stopped")
	return nil
}

// Pause stops new dequeues from a queue without affecting in-flight jobs.
func (s *Service) Pause(ctx context.Context, queueName string) error {
	client, err := s.runningClient()
	if err != nil {
		return err
	}
	if err := client.QueuePause(ctx, queueName, nil); err != nil {
		return fmt.Errorf("queue: pause %s: %w", queueName, err)
	}
	return nil
}

// Resume re-enables dequeues from a paused queue.
func (s *Service) Resume(ctx context.Context, queueName string) error {
	client, err := s.runningClient()
	if err != nil {
		return err
	}
	if err := client.QueueResume(ctx, queueName, nil); err != nil {
		return fmt.Errorf("queue: resume %s: %w", queueName, err)
	}
	return nil
}

// Metrics returns job counts per lifecycle state for one queue.
func (s *Service) Metrics(ctx context.Context, queueName string) (Metrics, error) {
	s.mu.RLock()
	_, known := s.queues[queueName]
	s.mu.RUnlock()
	if !known {
		return Metrics{}, fmt.Errorf("%w: %s", ErrQueueNotFound, queueName)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT state, count(*) FROM river_job WHERE queue = $1 GROUP BY state`,
		queueName,
	)
	if err != nil {
		return Metrics{}, fmt.Errorf("queue: metrics: %w", err)
	}
	defer rows.Close()

	var m Metrics
	for rows.Next() {
		var state string
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return Metrics{}, fmt.Errorf("queue: metrics: %w", err)
		}
		switch rivertype.JobState(state) {
		case rivertype.JobStateAvailable, rivertype.JobStatePending:
			m.Waiting += count
		case rivertype.JobStateRunning:
			m.Active += count
		case rivertype.JobStateCompleted:
			m.Completed += count
		case rivertype.JobStateCancelled, rivertype.JobStateDiscarded:
			m.Failed += count
		case rivertype.JobStateScheduled, rivertype.JobStateRetryable:
			m.Delayed += count
		}
	}
	if err := rows.Err(); err != nil {
		return Metrics{}, fmt.Errorf("queue: metrics: %w", err)
	}
	return m, nil
}

// JobStatus reports the state, progress, and recorded result of a job.
func (s *Service) JobStatus(ctx context.Context, jobID string) (Status, error) {
	id, err := strconv.ParseInt(jobID, 10, 64)
	if err != nil {
		return Status{}, fmt.Errorf("%w: %s", ErrInvalidJobID, jobID)
	}

	row, err := s.insertClient.JobGet(ctx, id)
	if err != nil {
		if errors.Is(err, rivertype.ErrNotFound) {
			return Status{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
		}
		return Status{}, fmt.Errorf("queue: job status: %w", err)
	}

	status := Status{State: mapJobState(row.State)}

	switch status.State {
	case StateCompleted:
		status.Progress = 100
	default:
		if pct, ok := s.progress.get(ctx, jobID); ok {
			status.Progress = pct
		}
	}

	if len(row.Metadata) > 0 {
		var meta struct {
			Output json.RawMessage `json:"output"`
		}
		if err := json.Unmarshal(row.Metadata, &meta); err == nil && len(meta.Output) > 0 {
			status.Result = meta.Output
		}
	}

	return status, nil
}

// binding returns the worker binding for a queue, or nil.
func (s *Service) binding(queueName string) *binding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bindings[queueName]
}

func (s *Service) runningClient() (*river.Client[pgx.Tx], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.client, nil
}

func mapJobState(st rivertype.JobState) State {
	switch st {
	case rivertype.JobStateRunning:
		return StateActive
	case rivertype.JobStateCompleted:
		return StateCompleted
	case rivertype.JobStateCancelled, rivertype.JobStateDiscarded:
		return StateFailed
	default:
		// available, pending, scheduled, retryable
		return StateWaiting
	}
}

// Shutdown returns a shutdown hook for the queue service.
func (s *Service) Shutdown() func(context.Context) error {
	return func(ctx context.Context) error {
		return s.Stop(ctx)
	}
}
