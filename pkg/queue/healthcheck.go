package queue

import (
	"context"
	"errors"
)

// ErrHealthcheckFailed is returned when the queue service health check fails.
var ErrHealthcheckFailed = errors.New("queue: healthcheck failed")

var (
	errServiceNil        = errors.New("service is nil")
	errServiceNotStarted = errors.New("service not started")
)

// Healthcheck returns a health check function for the queue service.
// The check verifies that the service is started and its database
// connection is healthy.
func Healthcheck(s *Service) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if s == nil {
			return errors.Join(ErrHealthcheckFailed, errServiceNil)
		}

		s.mu.RLock()
		started := s.started
		s.mu.RUnlock()

		if !started {
			return errors.Join(ErrHealthcheckFailed, errServiceNotStarted)
		}

		// River shares this pool, so a ping covers both connectivity
		// and the queue tables being reachable.
		if err := s.pool.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}

		return nil
	}
}
