package media

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/innkeep/innkeep/pkg/logger"
	"github.com/innkeep/innkeep/pkg/queue"
	"github.com/innkeep/innkeep/pkg/staging"
)

const (
	defaultConcurrency = 2
	defaultRateMax     = 50
	defaultRateWindow  = time.Minute
	defaultMaxAttempts = 3
	defaultSweepCron   = "0 * * * *"
	defaultSweepAge    = 24 * time.Hour
)

// Service is the producer surface for upload jobs. Constructing it
// binds the Processor to the upload queue and registers the periodic
// staging sweeper.
type Service struct {
	queue   *queue.Service
	staging *staging.Store
	logger  *slog.Logger

	maxAttempts int
	sweepAge    time.Duration
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceConfig)

type serviceConfig struct {
	concurrency int
	rateMax     int
	rateWindow  time.Duration
	maxAttempts int
	sweepCron   string
	sweepAge    time.Duration
	logger      *slog.Logger
}

// WithUploadConcurrency sets how many upload jobs run in parallel.
func WithUploadConcurrency(n int) ServiceOption {
	return func(c *serviceConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithUploadRateLimit caps upload job starts per window, independent of
// concurrency.
func WithUploadRateLimit(max int, window time.Duration) ServiceOption {
	return func(c *serviceConfig) {
		if max > 0 && window > 0 {
			c.rateMax = max
			c.rateWindow = window
		}
	}
}

// WithUploadMaxAttempts sets the retry budget for fatal job failures.
func WithUploadMaxAttempts(n int) ServiceOption {
	return func(c *serviceConfig) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithSweep controls the orphaned staged file sweeper: cron is a
// five-field schedule, age the minimum file age before removal.
func WithSweep(cron string, age time.Duration) ServiceOption {
	return func(c *serviceConfig) {
		if cron != "" {
			c.sweepCron = cron
		}
		if age > 0 {
			c.sweepAge = age
		}
	}
}

// WithServiceLogger sets the logger for enqueue and sweep outcomes.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(c *serviceConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewService creates the upload queue, binds the processor's worker,
// and schedules the staging sweeper. Must be called before the queue
// service starts.
func NewService(q *queue.Service, stg *staging.Store, p *Processor, opts ...ServiceOption) (*Service, error) {
	if q == nil {
		return nil, ErrQueueRequired
	}
	if stg == nil {
		return nil, ErrStagingRequired
	}

	cfg := &serviceConfig{
		concurrency: defaultConcurrency,
		rateMax:     defaultRateMax,
		rateWindow:  defaultRateWindow,
		maxAttempts: defaultMaxAttempts,
		sweepCron:   defaultSweepCron,
		sweepAge:    defaultSweepAge,
		logger:      logger.NewNope(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Service{
		queue:       q,
		staging:     stg,
		logger:      cfg.logger,
		maxAttempts: cfg.maxAttempts,
		sweepAge:    cfg.sweepAge,
	}

	if err := q.CreateQueue(QueueName); err != nil {
		return nil, err
	}
	if err := q.RegisterWorker(QueueName, p.Process,
		queue.WithConcurrency(cfg.concurrency),
		queue.WithRateLimit(cfg.rateMax, cfg.rateWindow),
	); err != nil {
		return nil, err
	}
	if err := q.RegisterScheduled("staging-sweep", cfg.sweepCron, s.sweep); err != nil {
		return nil, err
	}

	return s, nil
}

// EnqueueUpload submits one upload job for files already staged to
// disk. It returns the durable job id immediately; upload outcomes are
// discovered through JobStatus.
func (s *Service) EnqueueUpload(ctx context.Context, files []staging.File, hotelID, actorID uuid.UUID, merge bool, correlationID string) (string, error) {
	if len(files) == 0 {
		return "", ErrNoFiles
	}

	payload := UploadPayload{
		Files:         files,
		HotelID:       hotelID,
		ActorID:       actorID,
		Merge:         merge,
		CorrelationID: correlationID,
	}

	opts := []queue.EnqueueOption{queue.WithMaxAttempts(s.maxAttempts)}
	if correlationID != "" {
		opts = append(opts, queue.WithCorrelationID(correlationID))
	}

	jobID, err := s.queue.Enqueue(ctx, QueueName, payload, opts...)
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "upload job enqueued",
		slog.String("job_id", jobID),
		slog.String("hotel_id", hotelID.String()),
		slog.Int("files", len(files)))

	return jobID, nil
}

// JobStatus reports the state, progress, and decoded result of an
// upload job.
func (s *Service) JobStatus(ctx context.Context, jobID string) (Status, error) {
	st, err := s.queue.JobStatus(ctx, jobID)
	if err != nil {
		return Status{}, err
	}

	out := Status{State: st.State, Progress: st.Progress}
	if len(st.Result) > 0 {
		var result UploadResult
		if err := json.Unmarshal(st.Result, &result); err != nil {
			return Status{}, errors.Join(ErrDecodeResult, err)
		}
		out.Result = &result
	}
	return out, nil
}

// sweep removes staged files orphaned by crashes before their job was
// processed.
func (s *Service) sweep(ctx context.Context) error {
	removed, err := s.staging.SweepOlderThan(ctx, s.sweepAge)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.logger.InfoContext(ctx, "staging sweep removed orphaned files",
			slog.Int("removed", removed))
	}
	return nil
}
