// services/scheduler.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"tournament-join-service/logger"
)

// Job is a named task run on a fixed interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

type Scheduler struct {
	sched gocron.Scheduler
	log   *logger.Logger
}

func NewScheduler(clock clockwork.Clock, log *logger.Logger) (*Scheduler, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	sched, err := gocron.NewScheduler(gocron.WithClock(clock), gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Scheduler{sched: sched, log: log}, nil
}

// Add registers job. Runs never overlap; a run still going when the next is due is rescheduled.
func (s *Scheduler) Add(ctx context.Context, job Job) error {
	_, err := s.sched.NewJob(
		gocron.DurationJob(job.Interval),
		gocron.NewTask(func() {
			started := time.Now()
			if err := job.Run(ctx); err != nil {
				s.log.Error("[Scheduler] job failed", "job", job.Name, "error", err)
				return
			}
			s.log.Debug("[Scheduler] job done", "job", job.Name, "took", time.Since(started))
		}),
		gocron.WithName(job.Name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", job.Name, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
}

func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}

// JanitorJob closes idle sessions.
func JanitorJob(m *SessionManager, clock clockwork.Clock, every time.Duration) Job {
	return Job{
		Name:     "session-janitor",
		Interval: every,
		Run: func(context.Context) error {
			m.Sweep(clock.Now())
			return nil
		},
	}
}
