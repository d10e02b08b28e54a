package queue

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const progressKeyPrefix = "queue:progress:"

// progressTracker stores per-job completion percentage in Redis with a
// TTL, so status queries can report progress while a job is active
// without touching the job table.
type progressTracker struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

func (t *progressTracker) set(ctx context.Context, jobID string, pct int) {
	if t == nil || t.rdb == nil {
		return
	}
	if err := t.rdb.Set(ctx, progressKeyPrefix+jobID, pct, t.ttl).Err(); err != nil {
		t.logger.WarnContext(ctx, "failed to record job progress",
			slog.String("job_id", jobID),
			slog.Any("error", err),
		)
	}
}

// get returns the recorded progress and whether an entry exists.
func (t *progressTracker) get(ctx context.Context, jobID string) (int, bool) {
	if t == nil || t.rdb == nil {
		return 0, false
	}
	val, err := t.rdb.Get(ctx, progressKeyPrefix+jobID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			t.logger.WarnContext(ctx, "failed to read job progress",
				slog.String("job_id", jobID),
				slog.Any("error", err),
			)
		}
		return 0, false
	}
	pct, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return pct, true
}
