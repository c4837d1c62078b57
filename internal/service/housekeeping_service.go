package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// HousekeepingService runs the periodic maintenance jobs: for now, only
// deactivating weeks that have fully passed.
type HousekeepingService struct {
	weeks    *WeekService
	schedule string
	cron     *cron.Cron
	logger   *zap.Logger
}

// NewHousekeepingService constructs the service. schedule is a standard cron
// expression; empty means nightly at 03:00.
func NewHousekeepingService(weeks *WeekService, schedule string, logger *zap.Logger) *HousekeepingService {
	if schedule == "" {
		schedule = "0 3 * * *"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HousekeepingService{weeks: weeks, schedule: schedule, cron: cron.New(), logger: logger}
}

// Start registers and starts the cron jobs.
func (s *HousekeepingService) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.deactivatePastWeeks); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("housekeeping started", zap.String("schedule", s.schedule))
	return nil
}

// Stop halts the cron scheduler and waits for running jobs.
func (s *HousekeepingService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *HousekeepingService) deactivatePastWeeks() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	affected, err := s.weeks.DeactivatePast(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("failed to deactivate past weeks", zap.Error(err))
		return
	}
	if affected > 0 {
		s.logger.Info("deactivated past weeks", zap.Int64("count", affected))
	}
}
