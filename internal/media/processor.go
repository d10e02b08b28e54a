package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/innkeep/innkeep/internal/hotel"
	"github.com/innkeep/innkeep/pkg/cache"
	"github.com/innkeep/innkeep/pkg/logger"
	"github.com/innkeep/innkeep/pkg/queue"
	"github.com/innkeep/innkeep/pkg/staging"
	"github.com/innkeep/innkeep/pkg/storage"
)

const (
	defaultMaxFileSize = 5 << 20
	defaultBatchSize   = 5
	defaultItemTimeout = 30 * time.Second
)

// Processor turns one upload job's staged files into persisted gallery
// URLs on the owning hotel, tolerating per-item failures.
type Processor struct {
	storage     storage.Storage
	hotels      hotel.Repository
	invalidator cache.Invalidator
	staging     *staging.Store
	logger      *slog.Logger

	maxFileSize int64
	batchSize   int
	itemTimeout time.Duration
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithMaxFileSize sets the per-file size ceiling; oversize files are
// recorded as failures without contacting storage.
func WithMaxFileSize(bytes int64) ProcessorOption {
	return func(p *Processor) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// WithBatchSize bounds how many files upload concurrently.
func WithBatchSize(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithItemTimeout sets the per-file upload deadline. A timeout fails
// that file only, never the whole job.
func WithItemTimeout(d time.Duration) ProcessorOption {
	return func(p *Processor) {
		if d > 0 {
			p.itemTimeout = d
		}
	}
}

// WithProcessorLogger sets the logger for cleanup and cache outcomes.
func WithProcessorLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewProcessor creates the upload pipeline with its collaborators.
func NewProcessor(st storage.Storage, hotels hotel.Repository, invalidator cache.Invalidator, stg *staging.Store, opts ...ProcessorOption) (*Processor, error) {
	if st == nil {
		return nil, ErrStorageRequired
	}
	if hotels == nil {
		return nil, ErrRepoRequired
	}
	if stg == nil {
		return nil, ErrStagingRequired
	}

	p := &Processor{
		storage:     st,
		hotels:      hotels,
		invalidator: invalidator,
		staging:     stg,
		logger:      logger.NewNope(),
		maxFileSize: defaultMaxFileSize,
		batchSize:   defaultBatchSize,
		itemTimeout: defaultItemTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

type itemOutcome struct {
	url     string
	failure *UploadFailure
}

// Process is the worker function for the upload queue. Per-item upload
// failures are captured in the result; only pipeline-fatal conditions
// (hotel missing or not owned, persistence unavailable) return an error.
// Staged files are deleted on every exit path.
func (p *Processor) Process(ctx context.Context, job *queue.Job) (any, error) {
	var payload UploadPayload
	if err := job.UnmarshalPayload(&payload); err != nil {
		return nil, queue.Cancel(err)
	}

	// Cleanup runs regardless of outcome, including fatal failures.
	// Background context because the job context may already be done.
	defer p.staging.Cleanup(context.WithoutCancel(ctx), payload.Files)

	outcomes := make([]itemOutcome, len(payload.Files))

	// Declared-size and type gate before any network traffic.
	for i, f := range payload.Files {
		if err := storage.ValidateMeta(storage.FileMeta{
			Name: f.OriginalName,
			MIME: f.MIMEType,
			Size: f.Size,
		}, storage.NotEmpty(), storage.MaxSize(p.maxFileSize), storage.ImageOnly()); err != nil {
			outcomes[i] = p.failure(i, f, err.Error())
		}
	}

	total := len(payload.Files)
	for start := 0; start < total; start += p.batchSize {
		end := min(start+p.batchSize, total)

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			if outcomes[i].failure != nil {
				continue
			}
			g.Go(func() error {
				outcomes[i] = p.uploadOne(gctx, payload.HotelID, i, payload.Files[i])
				return nil
			})
		}
		_ = g.Wait()

		job.SetProgress(ctx, end*100/total)
	}

	// An ownership mismatch and a missing hotel are indistinguishable on
	// purpose; neither is transient, so the job is cancelled rather than
	// retried.
	if _, err := p.hotels.FindOwned(ctx, payload.HotelID, payload.ActorID); err != nil {
		if errors.Is(err, hotel.ErrNotFound) {
			return nil, queue.Cancel(ErrHotelNotFound)
		}
		return nil, err
	}

	result := buildResult(outcomes, payload.Files)

	if err := p.persist(ctx, payload, result.URLs); err != nil {
		if errors.Is(err, hotel.ErrNotFound) {
			return nil, queue.Cancel(ErrHotelNotFound)
		}
		return nil, err
	}

	// Best effort: a stale cache entry expires by TTL on its own.
	if p.invalidator != nil {
		if err := p.invalidator.Delete(ctx, CacheKey(payload.HotelID)); err != nil {
			p.logger.WarnContext(ctx, "cache invalidation failed",
				slog.String("hotel_id", payload.HotelID.String()),
				slog.String("error", err.Error()))
		}
	}

	return result, nil
}

func (p *Processor) persist(ctx context.Context, payload UploadPayload, urls []string) error {
	if payload.Merge {
		if len(urls) == 0 {
			return nil
		}
		_, err := p.hotels.MergePhotoURLs(ctx, payload.HotelID, payload.ActorID, urls)
		return err
	}
	return p.hotels.SetPhotoURLs(ctx, payload.HotelID, payload.ActorID, urls)
}

func (p *Processor) uploadOne(ctx context.Context, hotelID uuid.UUID, idx int, f staging.File) itemOutcome {
	src, err := os.Open(f.Path)
	if err != nil {
		return p.failure(idx, f, fmt.Sprintf("staged file unavailable: %v", err))
	}
	defer src.Close()

	uctx, cancel := context.WithTimeout(ctx, p.itemTimeout)
	defer cancel()

	obj, err := p.storage.Put(uctx, src, f.Size,
		storage.WithPrefix("hotels/"+hotelID.String()),
		storage.WithContentType(f.MIMEType),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return p.failure(idx, f, "upload timed out")
		}
		return p.failure(idx, f, fmt.Sprintf("upload failed: %v", err))
	}

	return itemOutcome{url: obj.URL}
}

func (p *Processor) failure(idx int, f staging.File, reason string) itemOutcome {
	return itemOutcome{failure: &UploadFailure{
		Index:        idx,
		OriginalName: f.OriginalName,
		Reason:       reason,
	}}
}

// buildResult assembles the job result in original submission order.
// Outcomes are already indexed by submission position, so a plain scan
// restores order regardless of upload completion order.
func buildResult(outcomes []itemOutcome, files []staging.File) *UploadResult {
	result := &UploadResult{URLs: make([]string, 0, len(files))}
	for _, o := range outcomes {
		if o.failure != nil {
			result.FailureCount++
			result.Failures = append(result.Failures, *o.failure)
			continue
		}
		result.SuccessCount++
		result.URLs = append(result.URLs, o.url)
	}
	return result
}
