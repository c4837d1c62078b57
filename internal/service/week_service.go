package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/scrimworks/scrimplan/internal/dto"
	"github.com/scrimworks/scrimplan/internal/models"
	"github.com/scrimworks/scrimplan/internal/week"
	appErrors "github.com/scrimworks/scrimplan/pkg/errors"
)

type weekRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.AvailabilityWeek, error)
	GetByID(ctx context.Context, id string) (*models.AvailabilityWeek, error)
	FindByYearWeek(ctx context.Context, year, weekNumber int) (*models.AvailabilityWeek, error)
	Create(ctx context.Context, week *models.AvailabilityWeek) error
	DeactivateEndedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// WeekService resolves and lazily materialises availability weeks.
type WeekService struct {
	repo      weekRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWeekService constructs the service.
func NewWeekService(repo weekRepository, validate *validator.Validate, logger *zap.Logger) *WeekService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeekService{repo: repo, validator: validate, logger: logger}
}

// List returns known weeks, optionally only the active ones.
func (s *WeekService) List(ctx context.Context, activeOnly bool) ([]models.AvailabilityWeek, error) {
	weeks, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list weeks")
	}
	return weeks, nil
}

// Get loads a week by id, reporting a stale week when it no longer resolves.
func (s *WeekService) Get(ctx context.Context, id string) (*models.AvailabilityWeek, error) {
	wk, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrStaleWeek
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load week")
	}
	return wk, nil
}

// Ensure gets or creates the week for the given ISO coordinates. Concurrent
// calls for the same coordinates converge on one row: the insert ignores
// conflicts and the re-select returns whichever writer won.
func (s *WeekService) Ensure(ctx context.Context, req dto.CreateWeekRequest) (*models.AvailabilityWeek, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid week request")
	}

	existing, err := s.repo.FindByYearWeek(ctx, req.Year, req.WeekNumber)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up week")
	}

	start, end := week.Bounds(req.Year, req.WeekNumber)
	created := &models.AvailabilityWeek{
		Year:       req.Year,
		WeekNumber: req.WeekNumber,
		StartDate:  start,
		EndDate:    end,
	}
	if err := s.repo.Create(ctx, created); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create week")
	}

	// Re-select: if another client created the week first, its row is the
	// authoritative one.
	stored, err := s.repo.FindByYearWeek(ctx, req.Year, req.WeekNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload week")
	}
	if stored.ID != created.ID {
		s.logger.Debug("week already created by concurrent client",
			zap.Int("year", req.Year), zap.Int("week", req.WeekNumber), zap.String("week_id", stored.ID))
	}
	return stored, nil
}

// DeactivatePast marks weeks that ended before now as inactive.
func (s *WeekService) DeactivatePast(ctx context.Context, now time.Time) (int64, error) {
	affected, err := s.repo.DeactivateEndedBefore(ctx, now)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate weeks")
	}
	return affected, nil
}
