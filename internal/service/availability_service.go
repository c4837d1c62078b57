package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/scrimworks/scrimplan/internal/dto"
	"github.com/scrimworks/scrimplan/internal/interval"
	"github.com/scrimworks/scrimplan/internal/models"
	"github.com/scrimworks/scrimplan/internal/week"
	appErrors "github.com/scrimworks/scrimplan/pkg/errors"
	"github.com/scrimworks/scrimplan/pkg/push"
)

type availabilityRepository interface {
	ListByWeek(ctx context.Context, weekID string) ([]models.AvailabilityEntry, error)
	GetByID(ctx context.Context, id string) (*models.AvailabilityEntry, error)
	Upsert(ctx context.Context, entry *models.AvailabilityEntry) error
	Update(ctx context.Context, entry *models.AvailabilityEntry) error
	Delete(ctx context.Context, id string) error
}

type weekReader interface {
	Get(ctx context.Context, id string) (*models.AvailabilityWeek, error)
}

// AvailabilityService owns the authoritative availability state: entry
// validation, upsert-by-key semantics, overlap derivation, cache
// invalidation and push fan-out.
type AvailabilityService struct {
	weeks     weekReader
	entries   availabilityRepository
	cache     *CacheService
	publisher push.Publisher
	validator *validator.Validate
	metrics   *MetricsService
	roster    []string
	logger    *zap.Logger
}

// NewAvailabilityService constructs the service. roster lists the player
// slots whose entries the team overlap requires.
func NewAvailabilityService(
	weeks weekReader,
	entries availabilityRepository,
	cache *CacheService,
	publisher push.Publisher,
	validate *validator.Validate,
	metrics *MetricsService,
	roster []string,
	logger *zap.Logger,
) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if publisher == nil {
		publisher = push.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AvailabilityService{
		weeks:     weeks,
		entries:   entries,
		cache:     cache,
		publisher: publisher,
		validator: validate,
		metrics:   metrics,
		roster:    roster,
		logger:    logger,
	}
	registerAvailabilityValidators(svc.validator)
	return svc
}

func registerAvailabilityValidators(v *validator.Validate) {
	_ = v.RegisterValidation("availability_status", func(fl validator.FieldLevel) bool {
		switch models.AvailabilityStatus(fl.Field().String()) {
		case models.StatusAvailable, models.StatusUnavailable, models.StatusAllDay:
			return true
		default:
			return false
		}
	})
	_ = v.RegisterValidation("availability_confidence", func(fl validator.FieldLevel) bool {
		switch models.Confidence(fl.Field().String()) {
		case models.ConfidenceConfirmed, models.ConfidenceTentative:
			return true
		default:
			return false
		}
	})
}

// Roster returns the required participant slots.
func (s *AvailabilityService) Roster() []string {
	return s.roster
}

func weekCacheKey(weekID string) string {
	return fmt.Sprintf("availability:week:%s", weekID)
}

// GetWeek returns the authoritative payload for a week: its entries plus the
// derived per-day team overlaps.
func (s *AvailabilityService) GetWeek(ctx context.Context, weekID string) (*dto.WeekAvailability, error) {
	if s.cache.Enabled() {
		var cached dto.WeekAvailability
		if hit, _ := s.cache.Get(ctx, weekCacheKey(weekID), &cached); hit {
			return &cached, nil
		}
	}

	wk, err := s.weeks.Get(ctx, weekID)
	if err != nil {
		return nil, err
	}

	entries, err := s.entries.ListByWeek(ctx, weekID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability")
	}

	start := time.Now()
	overlaps := interval.WeekOverlaps(entries, s.roster)
	if s.metrics != nil {
		s.metrics.ObserveOverlapComputation(time.Since(start))
	}

	payload := &dto.WeekAvailability{Week: *wk, Availability: entries, Overlaps: overlaps}
	_ = s.cache.Set(ctx, weekCacheKey(weekID), payload)
	return payload, nil
}

// Upsert validates and writes the entry for one (week, date, participant)
// key, then broadcasts the authoritative row.
func (s *AvailabilityService) Upsert(ctx context.Context, req dto.UpsertAvailabilityRequest) (*models.AvailabilityEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	if _, err := time.Parse(week.DateLayout, req.Date); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date, expected YYYY-MM-DD")
	}

	status := models.AvailabilityStatus(req.Status)
	ranges := req.TimeRanges
	// all_day is the 00:00-24:00 shorthand and unavailable carries no
	// window; both persist without ranges.
	if status != models.StatusAvailable {
		ranges = nil
	} else if err := interval.ValidateRanges(ranges); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	if _, err := s.weeks.Get(ctx, req.WeekID); err != nil {
		return nil, err
	}

	confidence := models.Confidence(req.Confidence)
	if confidence == "" {
		confidence = models.ConfidenceConfirmed
	}

	entry := &models.AvailabilityEntry{
		WeekID:          req.WeekID,
		Date:            req.Date,
		ParticipantName: req.ParticipantName,
		Status:          status,
		Confidence:      confidence,
		TimeRanges:      ranges,
		UpdatedBy:       req.UpdatedBy,
	}
	if err := s.entries.Upsert(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save availability")
	}

	s.afterWrite(ctx, push.Event{Kind: push.EntryUpserted, WeekID: entry.WeekID, Entry: entry})
	return entry, nil
}

// Update patches an existing entry by id.
func (s *AvailabilityService) Update(ctx context.Context, id string, req dto.UpdateAvailabilityRequest) (*models.AvailabilityEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}

	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "availability entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load entry")
	}

	if req.Status != nil {
		entry.Status = models.AvailabilityStatus(*req.Status)
	}
	if req.Confidence != nil {
		entry.Confidence = models.Confidence(*req.Confidence)
	}
	if req.TimeRanges != nil {
		entry.TimeRanges = *req.TimeRanges
	}
	if req.UpdatedBy != nil {
		entry.UpdatedBy = req.UpdatedBy
	}

	if entry.Status != models.StatusAvailable {
		entry.TimeRanges = nil
	} else if err := interval.ValidateRanges(entry.TimeRanges); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update entry")
	}

	s.afterWrite(ctx, push.Event{Kind: push.EntryUpserted, WeekID: entry.WeekID, Entry: entry})
	return entry, nil
}

// Delete removes an entry. Absence of a key means "no information", so the
// row is removed outright rather than flipped to a sentinel status.
func (s *AvailabilityService) Delete(ctx context.Context, id string) error {
	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "availability entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load entry")
	}

	if err := s.entries.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete entry")
	}

	s.afterWrite(ctx, push.Event{Kind: push.EntryDeleted, WeekID: entry.WeekID, EntryID: id})
	return nil
}

// afterWrite invalidates the week cache and fans the event out. Broadcast
// failures are logged, not surfaced: the write already succeeded and
// disconnected clients recover through their periodic refetch.
func (s *AvailabilityService) afterWrite(ctx context.Context, event push.Event) {
	_ = s.cache.Invalidate(ctx, weekCacheKey(event.WeekID))
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish availability event",
			zap.String("kind", string(event.Kind)), zap.String("week_id", event.WeekID), zap.Error(err))
		return
	}
	if s.metrics != nil {
		s.metrics.RecordPushPublished(string(event.Kind))
	}
}
