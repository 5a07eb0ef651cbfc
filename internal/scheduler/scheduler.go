// Package scheduler runs discovery and retention on cron schedules.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Task func(ctx context.Context) error

type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
	log  *zap.Logger
}

func New(ctx context.Context, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		ctx:  ctx,
		log:  log.Named("scheduler"),
	}
}

// Add registers a named task under a standard 5-field cron spec. Task
// errors are logged, never fatal: the next tick still fires.
func (s *Scheduler) Add(spec, name string, task Task) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.log.Info("task started", zap.String("task", name))
		if err := s.ctx.Err(); err != nil {
			return
		}
		if err := task(s.ctx); err != nil {
			s.log.Error("task failed", zap.String("task", name), zap.Error(err))
			return
		}
		s.log.Info("task finished", zap.String("task", name))
	})
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running task to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
