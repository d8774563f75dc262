package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"shoptrend-go/pkg/logger"
)

// Job is the work run on every tick.
type Job func(ctx context.Context) error

// Daily runs a job once a day at a fixed wall-clock time in Location.
type Daily struct {
	Hour     int
	Minute   int
	Location *time.Location

	job     Job
	now     func() time.Time
	after   func(time.Duration) <-chan time.Time
	running atomic.Bool
	log     *logger.Logger
}

// NewDaily validates the time of day and returns a stopped scheduler.
func NewDaily(hour, minute int, loc *time.Location, job Job) (*Daily, error) {
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("invalid schedule hour %d", hour)
	}
	if minute < 0 || minute > 59 {
		return nil, fmt.Errorf("invalid schedule minute %d", minute)
	}
	if loc == nil {
		loc = time.Local
	}
	if job == nil {
		return nil, fmt.Errorf("schedule job is nil")
	}
	return &Daily{
		Hour:     hour,
		Minute:   minute,
		Location: loc,
		job:      job,
		now:      time.Now,
		after:    time.After,
		log:      logger.GetLogger().WithField("component", "scheduler"),
	}, nil
}

// NextRun returns the first scheduled time strictly after now.
func (d *Daily) NextRun(now time.Time) time.Time {
	local := now.In(d.Location)
	next := time.Date(local.Year(), local.Month(), local.Day(), d.Hour, d.Minute, 0, 0, d.Location)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, d.Hour, d.Minute, 0, 0, d.Location)
	}
	return next
}

// Running reports whether Run is looping.
func (d *Daily) Running() bool {
	return d.running.Load()
}

// Run blocks, firing the job at each scheduled time until ctx is done. Job
// errors and panics are logged and do not stop the loop.
func (d *Daily) Run(ctx context.Context) {
	if !d.running.CompareAndSwap(false, true) {
		d.log.Warn("Scheduler already running")
		return
	}
	defer d.running.Store(false)

	for {
		next := d.NextRun(d.now())
		d.log.WithField("next_run", next.Format(time.RFC3339)).Info("Next scheduled refresh")

		select {
		case <-ctx.Done():
			d.log.Info("Scheduler stopped")
			return
		case <-d.after(next.Sub(d.now())):
			d.fire(ctx, next)
		}
	}
}

func (d *Daily) fire(ctx context.Context, scheduled time.Time) {
	defer func() {
		if r := recover(); r != nil {
			d.log.WithField("panic", fmt.Sprint(r)).Error("Scheduled job panicked")
		}
	}()

	start := d.now()
	if err := d.job(ctx); err != nil {
		d.log.WithError(err).WithField("scheduled_at", scheduled.Format(time.RFC3339)).
			Error("Scheduled refresh failed")
		return
	}
	d.log.WithField("duration", d.now().Sub(start).String()).Info("Scheduled refresh completed")
}
