package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobService runs the background refresh of the catalog and the user's
// reservation list on a cron schedule.
type JobService struct {
	catalog      *CatalogService
	reservations *ReservationService
	userEmail    string
	timeout      time.Duration
	logger       *zap.Logger
	cron         *cron.Cron
}

func NewJobService(catalog *CatalogService, reservations *ReservationService, userEmail string, logger *zap.Logger) *JobService {
	return &JobService{
		catalog:      catalog,
		reservations: reservations,
		userEmail:    userEmail,
		timeout:      20 * time.Second,
		logger:       logger,
		cron:         cron.New(),
	}
}

// RefreshAll reloads stations and reservations. Failures are logged only.
func (s *JobService) RefreshAll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.catalog.Load(ctx); err != nil {
		s.logger.Warn("cron: station refresh failed", zap.Error(err))
	}
	s.reservations.Refresh(ctx, s.userEmail)
	s.logger.Debug("cron: refresh done",
		zap.Int("stations", len(s.catalog.Stations())),
		zap.Int("reservations", len(s.reservations.Reservations())))
}

// Start schedules RefreshAll, e.g. with "@every 30s".
func (s *JobService) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.RefreshAll(context.Background())
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	s.cron.Start()
	s.logger.Info("background refresh started", zap.String("schedule", schedule))
	return nil
}

// Stop waits for a running refresh to finish.
func (s *JobService) Stop() {
	<-s.cron.Stop().Done()
}
