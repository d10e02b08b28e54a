package queue

import (
	"log/slog"
	"strconv"

	"github.com/riverqueue/river"
)

// consumeEvents drains the River event subscription and logs every job
// lifecycle transition. One loop observes all queues; it exits when the
// subscription channel is closed on shutdown.
func (s *Service) consumeEvents(events <-chan *river.Event) {
	for event := range events {
		if event == nil || event.Job == nil {
			continue
		}

		attrs := []any{
			slog.String("queue", event.Job.Queue),
			slog.String("job_id", strconv.FormatInt(event.Job.ID, 10)),
			slog.Int("attempt", event.Job.Attempt),
		}

		switch event.Kind {
		case river.EventKindJobCompleted:
			s.logger.Info("job completed", attrs...)
		case river.EventKindJobSnoozed:
			s.logger.Debug("job snoozed", attrs...)
		case river.EventKindJobCancelled:
			s.logger.Warn("job cancelled", attrs...)
		case river.EventKindJobFailed:
			if event.Job.Attempt >= event.Job.MaxAttempts {
				s.logger.Error("job failed terminally", attrs...)
			} else {
				s.logger.Warn("job failed, will retry", attrs...)
			}
		default:
		}
	}
}
