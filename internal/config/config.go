// Package config loads application configuration from environment
// variables.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/innkeep/innkeep/pkg/db"
	"github.com/innkeep/innkeep/pkg/logger"
	"github.com/innkeep/innkeep/pkg/redis"
)

// Config aggregates every component's settings. Nested structs carry
// their own env tags.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"production"`

	DB     db.Config
	Redis  redis.Config
	Log    logger.Config
	Sentry logger.SentryConfig
	S3     S3Config
	Queue  QueueConfig
	Upload UploadConfig
}

// S3Config holds object storage credentials and addressing.
type S3Config struct {
	Bucket    string `env:"S3_BUCKET,required"`
	AccessKey string `env:"S3_ACCESS_KEY,required"`
	SecretKey string `env:"S3_SECRET_KEY,required"`
	Endpoint  string `env:"S3_ENDPOINT"`
	Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	PublicURL string `env:"S3_PUBLIC_URL"`
	PathStyle bool   `env:"S3_PATH_STYLE" envDefault:"false"`
}

// QueueConfig holds queue service tuning.
type QueueConfig struct {
	RetryBase          time.Duration `env:"QUEUE_RETRY_BASE" envDefault:"2s"`
	MaxAttempts        int           `env:"QUEUE_MAX_ATTEMPTS" envDefault:"3"`
	CompletedRetention time.Duration `env:"QUEUE_COMPLETED_RETENTION" envDefault:"24h"`
	FailedRetention    time.Duration `env:"QUEUE_FAILED_RETENTION" envDefault:"168h"`
	ProgressTTL        time.Duration `env:"QUEUE_PROGRESS_TTL" envDefault:"24h"`
	DrainTimeout       time.Duration `env:"QUEUE_DRAIN_TIMEOUT" envDefault:"30s"`
}

// UploadConfig holds the image pipeline's knobs.
type UploadConfig struct {
	StagingDir  string        `env:"UPLOAD_STAGING_DIR" envDefault:"/tmp/innkeep-uploads"`
	MaxFileSize int64         `env:"UPLOAD_MAX_FILE_SIZE" envDefault:"5242880"`
	BatchSize   int           `env:"UPLOAD_BATCH_SIZE" envDefault:"5"`
	ItemTimeout time.Duration `env:"UPLOAD_ITEM_TIMEOUT" envDefault:"30s"`
	Concurrency int           `env:"UPLOAD_CONCURRENCY" envDefault:"2"`
	RateMax     int           `env:"UPLOAD_RATE_MAX" envDefault:"50"`
	RateWindow  time.Duration `env:"UPLOAD_RATE_WINDOW" envDefault:"60s"`
	SweepCron   string        `env:"UPLOAD_SWEEP_CRON" envDefault:"0 * * * *"`
	SweepAge    time.Duration `env:"UPLOAD_SWEEP_AGE" envDefault:"24h"`
}

// Load parses the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
