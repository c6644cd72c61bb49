// Package scheduler wires up the cron job that periodically triggers a
// full collection run in serve mode.
package scheduler

import (
	"context"
	"fmt"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"
)

// RunFunc is one full pipeline pass. Errors are logged, not fatal; the
// next tick gets a fresh chance.
type RunFunc func(ctx context.Context) error

// Scheduler wraps robfig/cron around the pipeline run.
type Scheduler struct {
	cron *cron.Cron
	run  RunFunc
	spec string // cron spec, e.g. "@every 6h"
}

// New creates a Scheduler firing every intervalHours hours.
func New(run RunFunc, intervalHours int) *Scheduler {
	if intervalHours <= 0 {
		intervalHours = 6
	}
	return &Scheduler{
		cron: cron.New(),
		run:  run,
		spec: fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Start registers the job and starts the cron loop. One run fires
// immediately so a fresh deployment does not wait for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Info().Str("spec", s.spec).Msg("scheduler started")

	go s.runOnce(ctx)
	return nil
}

// Stop shuts the cron loop down, waiting for a running pass to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	log.Info().Msg("scheduled run starting")
	if err := s.run(ctx); err != nil {
		log.Error().Err(err).Msg("scheduled run failed")
		return
	}
	log.Info().Msg("scheduled run complete")
}
