package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/trogers1052/metal-price-tracker/internal/logx"
)

var parser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Job is called on every tick
type Job func(ctx context.Context)

// Scheduler runs a job on a cron schedule with seconds precision
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	loc      *time.Location
	job      Job
	expr     string
}

// New creates a Scheduler evaluating expr in loc. A tick that fires while
// the previous run is still going is skipped.
func New(expr string, loc *time.Location, job Job) (*Scheduler, error) {
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", expr, err)
	}
	if loc == nil {
		loc = time.UTC
	}

	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	return &Scheduler{
		cron:     c,
		schedule: schedule,
		loc:      loc,
		job:      job,
		expr:     expr,
	}, nil
}

// Run starts the scheduler and blocks until ctx is done. Running jobs are
// waited for before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Schedule(s.schedule, cron.FuncJob(func() { s.job(ctx) }))

	log := logx.FromContext(ctx)
	s.cron.Start()
	log.Info("scheduler started", "schedule", s.expr, "next", s.Next(time.Now()))

	<-ctx.Done()

	<-s.cron.Stop().Done()
	log.Info("scheduler stopped")
	return nil
}

// Next returns the next activation after t
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.loc))
}
