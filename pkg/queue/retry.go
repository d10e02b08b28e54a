package queue

import (
	"time"

	"github.com/riverqueue/river/rivertype"
)

// maxBackoffShift caps exponential growth at base * 2^10 to avoid
// overflow on pathological attempt counts.
const maxBackoffShift = 10

// exponentialRetry schedules redelivery after base * 2^(attempt-1).
// Attempt 1 retries after base, attempt 2 after 2*base, and so on.
// It implements river.ClientRetryPolicy.
type exponentialRetry struct {
	base time.Duration
}

func (p exponentialRetry) NextRetry(job *rivertype.JobRow) time.Time {
	return time.Now().Add(p.backoff(job.Attempt))
}

func (p exponentialRetry) backoff(attempt int) time.Duration {
	shift := attempt - 1
	if shift < 0 {
		shift = 0
	}
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	return p.base << shift
}
