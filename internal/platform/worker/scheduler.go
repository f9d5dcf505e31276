// Package worker runs the scheduled discovery jobs.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const logFieldJob = "job"

// Job is one scheduled unit of work, fired at a wall-clock time in UTC.
type Job struct {
	Name string

	// Hour and Minute are the UTC time of day the job fires.
	Hour   int
	Minute int

	// Weekday restricts the job to one day of the week; nil runs daily.
	Weekday *time.Weekday

	Run func(ctx context.Context)
}

// nextRun computes the first firing time strictly after now.
func (j Job) nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), j.Hour, j.Minute, 0, 0, time.UTC)

	for !next.After(now) || (j.Weekday != nil && next.Weekday() != *j.Weekday) {
		next = next.AddDate(0, 0, 1)
	}

	return next
}

// Loop blocks, firing each job at its scheduled times, until the context is
// canceled. Jobs run sequentially on the loop goroutine: a discovery run that
// overlaps the next slot delays it rather than doubling up.
func Loop(ctx context.Context, logger *zerolog.Logger, jobs ...Job) error {
	if len(jobs) == 0 {
		<-ctx.Done()

		return fmt.Errorf("scheduler: %w", ctx.Err())
	}

	for {
		now := time.Now().UTC()

		next := jobs[0]
		nextAt := next.nextRun(now)

		for _, job := range jobs[1:] {
			if at := job.nextRun(now); at.Before(nextAt) {
				next = job
				nextAt = at
			}
		}

		logger.Info().Str(logFieldJob, next.Name).Time("at", nextAt).Msg("next scheduled run")

		if err := Wait(ctx, nextAt.Sub(now)); err != nil {
			return err
		}

		logger.Info().Str(logFieldJob, next.Name).Msg("running scheduled job")
		next.Run(ctx)
	}
}

// Wait sleeps for d or until the context is canceled.
func Wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("scheduler wait: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
