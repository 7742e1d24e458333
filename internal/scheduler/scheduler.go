package scheduler

import (
	"context"
	"fmt"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"
)

// Job is one unit of scheduled work.
type Job func(ctx context.Context) error

// Scheduler repeats digest runs on a cron spec. Specs use the six-field
// form with a leading seconds column.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	logger log.Logger
}

// New creates a scheduler bound to ctx; jobs observe its cancellation.
func New(ctx context.Context, logger log.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		ctx:    ctx,
		logger: logger,
	}
}

// Register adds a job under the given cron spec. A failing run is logged,
// not fatal; the next scheduled run proceeds.
func (s *Scheduler) Register(spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := job(s.ctx); err != nil {
			s.logger.Error().Str("spec", spec).Err(err).Msg("scheduled run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("register cron %q: %w", spec, err)
	}
	return nil
}

// Start starts the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Msg("scheduler started")
}

// Stop stops the cron loop gracefully.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info().Msg("scheduler stopped")
}
