// Package scheduler runs the periodic score projection refresh.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/solepick/fantasy-league/internal/config"
	"github.com/solepick/fantasy-league/pkg/logger"
)

// Projector refreshes the derived score projections.
type Projector interface {
	RefreshProjections(ctx context.Context) error
}

// Service schedules projection refreshes on a cron expression.
type Service struct {
	cfg       *config.SchedulerConfig
	projector Projector
	log       *logger.Logger
	cron      *cron.Cron
}

// NewService creates a new scheduler service.
func NewService(cfg *config.SchedulerConfig, projector Projector, log *logger.Logger) *Service {
	return &Service{
		cfg:       cfg,
		projector: projector,
		log:       log,
	}
}

// Start registers the refresh job and starts the cron runner. Disabled
// schedulers are a no-op so deployments can rely on on-demand refreshes only.
func (s *Service) Start() error {
	if !s.cfg.Enabled {
		s.log.Info().Msg("Projection refresh scheduler is disabled")
		return nil
	}

	location, err := time.LoadLocation(s.cfg.Timezone)
	if err != nil {
		return fmt.Errorf("invalid scheduler timezone %s: %w", s.cfg.Timezone, err)
	}

	s.cron = cron.New(cron.WithLocation(location))
	if _, err := s.cron.AddFunc(s.cfg.RefreshCron, s.runRefresh); err != nil {
		return fmt.Errorf("invalid refresh cron expression %s: %w", s.cfg.RefreshCron, err)
	}

	s.cron.Start()
	s.log.Info().
		Str("cron", s.cfg.RefreshCron).
		Str("timezone", s.cfg.Timezone).
		Msg("Projection refresh scheduler started")
	return nil
}

// Stop halts the cron runner and waits for a running job to finish.
func (s *Service) Stop() {
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Projection refresh scheduler stopped")
}

// RunNow triggers a refresh outside the schedule.
func (s *Service) RunNow(ctx context.Context) error {
	return s.projector.RefreshProjections(ctx)
}

func (s *Service) runRefresh() {
	if err := s.projector.RefreshProjections(context.Background()); err != nil {
		s.log.Error().Err(err).Msg("Scheduled projection refresh failed")
	}
}
