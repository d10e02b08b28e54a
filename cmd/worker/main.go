// Command worker runs the background job worker: it applies database
// migrations, binds the image upload pipeline to its queue, and works
// jobs until terminated.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/innkeep/innkeep/internal/config"
	"github.com/innkeep/innkeep/internal/hotel"
	"github.com/innkeep/innkeep/internal/media"
	"github.com/innkeep/innkeep/migrations"
	"github.com/innkeep/innkeep/pkg/cache"
	"github.com/innkeep/innkeep/pkg/db"
	"github.com/innkeep/innkeep/pkg/logger"
	"github.com/innkeep/innkeep/pkg/queue"
	redisconn "github.com/innkeep/innkeep/pkg/redis"
	"github.com/innkeep/innkeep/pkg/staging"
	"github.com/innkeep/innkeep/pkg/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("worker exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.NewWithSentry(cfg.Log, cfg.Sentry, logger.CorrelationIDExtractor)

	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, migrations.FS, cfg.DB.MigrationsTable, log); err != nil {
		return err
	}
	if err := queue.Migrate(ctx, pool); err != nil {
		return err
	}

	rdb, err := redisconn.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	store, err := storage.New(storage.Config{
		Bucket:    cfg.S3.Bucket,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Endpoint:  cfg.S3.Endpoint,
		Region:    cfg.S3.Region,
		PublicURL: cfg.S3.PublicURL,
		PathStyle: cfg.S3.PathStyle,
	})
	if err != nil {
		return err
	}

	hotelCache := cache.NewRedis[hotel.Hotel](rdb, nil)
	defer hotelCache.Close()

	stagingStore := staging.New(cfg.Upload.StagingDir, staging.WithLogger(log))

	q, err := queue.New(pool, rdb,
		queue.WithLogger(log),
		queue.WithRetryBase(cfg.Queue.RetryBase),
		queue.WithDefaultMaxAttempts(cfg.Queue.MaxAttempts),
		queue.WithCompletedRetention(cfg.Queue.CompletedRetention),
		queue.WithFailedRetention(cfg.Queue.FailedRetention),
		queue.WithProgressTTL(cfg.Queue.ProgressTTL),
	)
	if err != nil {
		return err
	}

	processor, err := media.NewProcessor(store, hotel.NewPgRepository(pool), hotelCache, stagingStore,
		media.WithMaxFileSize(cfg.Upload.MaxFileSize),
		media.WithBatchSize(cfg.Upload.BatchSize),
		media.WithItemTimeout(cfg.Upload.ItemTimeout),
		media.WithProcessorLogger(log),
	)
	if err != nil {
		return err
	}

	if _, err := media.NewService(q, stagingStore, processor,
		media.WithUploadConcurrency(cfg.Upload.Concurrency),
		media.WithUploadRateLimit(cfg.Upload.RateMax, cfg.Upload.RateWindow),
		media.WithUploadMaxAttempts(cfg.Queue.MaxAttempts),
		media.WithSweep(cfg.Upload.SweepCron, cfg.Upload.SweepAge),
		media.WithServiceLogger(log),
	); err != nil {
		return err
	}

	if err := q.Start(ctx); err != nil {
		return err
	}
	log.InfoContext(ctx, "worker started", slog.String("env", cfg.AppEnv))

	<-ctx.Done()
	log.Info("shutting down, draining in-flight jobs")

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.Queue.DrainTimeout)
	defer cancel()

	if err := q.Stop(drainCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	log.Info("worker stopped")
	return nil
}
