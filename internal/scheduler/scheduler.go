package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler runs the periodic maintenance jobs: the memory retention sweep
// and the daily business digest. Job functions are injected via setters so
// the wiring in main stays flat.
type Scheduler struct {
	cron       *cron.Cron
	ctx        context.Context
	cancel     context.CancelFunc
	log        zerolog.Logger
	sweepSpec  string
	digestSpec string
	sweepFunc  func(ctx context.Context) error
	digestFunc func(ctx context.Context) error
}

func New(sweepSpec, digestSpec string, log zerolog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		ctx:        ctx,
		cancel:     cancel,
		log:        log.With().Str("component", "scheduler").Logger(),
		sweepSpec:  sweepSpec,
		digestSpec: digestSpec,
	}
}

// SetSweepFunction sets the retention sweep job.
func (s *Scheduler) SetSweepFunction(f func(ctx context.Context) error) {
	s.sweepFunc = f
}

// SetDigestFunction sets the daily digest job.
func (s *Scheduler) SetDigestFunction(f func(ctx context.Context) error) {
	s.digestFunc = f
}

// Start registers the configured jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.sweepFunc == nil && s.digestFunc == nil {
		s.log.Warn().Msg("⚠️ no jobs configured, scheduler will not start")
		return nil
	}

	if s.sweepFunc != nil && s.sweepSpec != "" {
		_, err := s.cron.AddFunc(s.sweepSpec, func() {
			s.log.Info().Msg("🧹 running retention sweep")
			if err := s.sweepFunc(s.ctx); err != nil {
				s.log.Error().Err(err).Msg("❌ retention sweep failed")
			}
		})
		if err != nil {
			return err
		}
	}

	if s.digestFunc != nil && s.digestSpec != "" {
		_, err := s.cron.AddFunc(s.digestSpec, func() {
			s.log.Info().Msg("🕘 generating daily digest")
			if err := s.digestFunc(s.ctx); err != nil {
				s.log.Error().Err(err).Msg("❌ daily digest failed")
			}
		})
		if err != nil {
			return err
		}
	}

	s.cron.Start()
	s.log.Info().
		Str("sweep", s.sweepSpec).
		Str("digest", s.digestSpec).
		Msg("📅 scheduler started")
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.log.Info().Msg("📅 scheduler stopped")
}

// IsRunning reports whether any jobs are registered.
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
