package queue

import (
	"context"
	"errors"
	"time"

	"github.com/riverqueue/river"
	"github.com/robfig/cron/v3"
)

// scheduledPrefix namespaces internal periodic-job bindings so they can
// never collide with caller-created queues.
const scheduledPrefix = "scheduled:"

// schedule holds one registered periodic task.
type schedule struct {
	name     string
	cronExpr cron.Schedule
	fn       func(ctx context.Context) error
}

// cronScheduleAdapter bridges robfig/cron schedules to River's
// PeriodicSchedule interface.
type cronScheduleAdapter struct {
	schedule cron.Schedule
}

func (a *cronScheduleAdapter) Next(current time.Time) time.Time {
	return a.schedule.Next(current)
}

// parseCronSchedule parses a standard 5-field cron expression
// (minute hour day-of-month month day-of-week).
func parseCronSchedule(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, errors.Join(ErrInvalidSchedule, err)
	}
	return sched, nil
}

// periodicJobs builds River periodic jobs for all registered schedules.
// Each fires a dispatch job routed to the schedule's internal binding.
func periodicJobs(schedules []schedule) []*river.PeriodicJob {
	jobs := make([]*river.PeriodicJob, 0, len(schedules))
	for _, sched := range schedules {
		name := sched.name
		jobs = append(jobs, river.NewPeriodicJob(
			&cronScheduleAdapter{schedule: sched.cronExpr},
			func() (river.JobArgs, *river.InsertOpts) {
				return &jobArgs{Queue: scheduledPrefix + name}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: false},
		))
	}
	return jobs
}
