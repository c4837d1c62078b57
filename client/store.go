package client

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/scrimworks/scrimplan/internal/dto"
	"github.com/scrimworks/scrimplan/internal/interval"
	"github.com/scrimworks/scrimplan/internal/models"
	"github.com/scrimworks/scrimplan/pkg/push"
)

// api is the slice of Client the store needs. Tests substitute it.
type api interface {
	FetchWeek(ctx context.Context, weekID string) (*dto.WeekAvailability, error)
	UpsertEntry(ctx context.Context, req dto.UpsertAvailabilityRequest) (*models.AvailabilityEntry, error)
	DeleteEntry(ctx context.Context, id string) error
}

// WeekStore is the client-side cache for one week. Reads come from the local
// copy; writes are applied locally first, then persisted. Push events and
// authoritative responses reconcile the copy last-writer-wins: whatever the
// server confirmed most recently replaces the local row for that key.
type WeekStore struct {
	mu      sync.RWMutex
	api     api
	weekID  string
	roster  []string
	week    models.AvailabilityWeek
	entries []models.AvailabilityEntry

	onListInvalidated func(resource string)
	logger            *zap.Logger
}

// NewWeekStore constructs a store for one week. roster drives the local
// overlap recomputation.
func NewWeekStore(apiClient api, weekID string, roster []string, logger *zap.Logger) *WeekStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeekStore{api: apiClient, weekID: weekID, roster: roster, logger: logger}
}

// OnListInvalidated registers a callback fired when the server reports an
// adjacent resource list went stale.
func (s *WeekStore) OnListInvalidated(fn func(resource string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onListInvalidated = fn
}

// Seed installs a fetched payload without a network round trip.
func (s *WeekStore) Seed(payload *dto.WeekAvailability) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.week = payload.Week
	s.entries = append([]models.AvailabilityEntry(nil), payload.Availability...)
}

// Refresh replaces the local copy with the server's authoritative state.
func (s *WeekStore) Refresh(ctx context.Context) error {
	payload, err := s.api.FetchWeek(ctx, s.weekID)
	if err != nil {
		return err
	}
	s.Seed(payload)
	return nil
}

// Snapshot returns a copy of the current local state with overlaps derived
// from the local entries, so optimistic writes are visible immediately.
func (s *WeekStore) Snapshot() dto.WeekAvailability {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := append([]models.AvailabilityEntry(nil), s.entries...)
	return dto.WeekAvailability{
		Week:         s.week,
		Availability: entries,
		Overlaps:     interval.WeekOverlaps(entries, s.roster),
	}
}

// Entry returns the local entry for a key, if present.
func (s *WeekStore) Entry(key models.EntryKey) (models.AvailabilityEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.Key() == key {
			return e, true
		}
	}
	return models.AvailabilityEntry{}, false
}

// Save validates, applies the entry locally, then persists it. The local
// splice happens before the request so readers see the write immediately; if
// persistence fails the whole week is refetched to drop the optimistic row.
func (s *WeekStore) Save(ctx context.Context, req dto.UpsertAvailabilityRequest) (*models.AvailabilityEntry, error) {
	req.WeekID = s.weekID
	if models.AvailabilityStatus(req.Status) == models.StatusAvailable {
		if err := interval.ValidateRanges(req.TimeRanges); err != nil {
			return nil, err
		}
	} else {
		req.TimeRanges = nil
	}

	optimistic := models.AvailabilityEntry{
		WeekID:          req.WeekID,
		Date:            req.Date,
		ParticipantName: req.ParticipantName,
		Status:          models.AvailabilityStatus(req.Status),
		Confidence:      models.Confidence(req.Confidence),
		TimeRanges:      req.TimeRanges,
		UpdatedAt:       time.Now().UTC(),
		UpdatedBy:       req.UpdatedBy,
	}
	s.upsertLocal(optimistic)

	entry, err := s.api.UpsertEntry(ctx, req)
	if err != nil {
		s.logger.Warn("persist failed, refetching week", zap.String("week_id", s.weekID), zap.Error(err))
		if refreshErr := s.Refresh(ctx); refreshErr != nil {
			s.logger.Warn("refetch after failed persist also failed", zap.Error(refreshErr))
		}
		return nil, err
	}

	s.upsertLocal(*entry)
	return entry, nil
}

// Remove deletes the entry with the given id, locally first. A failed delete
// refetches the week to restore the row.
func (s *WeekStore) Remove(ctx context.Context, id string) error {
	s.removeLocal(id)
	if err := s.api.DeleteEntry(ctx, id); err != nil {
		s.logger.Warn("delete failed, refetching week", zap.String("entry_id", id), zap.Error(err))
		if refreshErr := s.Refresh(ctx); refreshErr != nil {
			s.logger.Warn("refetch after failed delete also failed", zap.Error(refreshErr))
		}
		return err
	}
	return nil
}

// ApplyEvent reconciles one push event into the local copy. Events for other
// weeks are ignored; deleting an id the store never saw is a no-op.
func (s *WeekStore) ApplyEvent(event push.Event) {
	switch event.Kind {
	case push.EntryUpserted:
		if event.Entry == nil || event.Entry.WeekID != s.weekID {
			return
		}
		s.upsertLocal(*event.Entry)
	case push.EntryDeleted:
		if event.WeekID != s.weekID {
			return
		}
		s.removeLocal(event.EntryID)
	case push.ListInvalidated:
		s.mu.RLock()
		fn := s.onListInvalidated
		s.mu.RUnlock()
		if fn != nil {
			fn(event.Resource)
		}
	}
}

// Run consumes the subscription until it closes or ctx is cancelled. Once
// the event channel closes the store falls back to polling Refresh at
// refetchInterval, so updates keep arriving in bounded intervals while
// disconnected.
func (s *WeekStore) Run(ctx context.Context, sub push.Subscription, refetchInterval time.Duration) {
	if refetchInterval <= 0 {
		refetchInterval = 30 * time.Second
	}

	events := sub.Events()
	for events != nil {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				events = nil
				break
			}
			s.ApplyEvent(event)
		}
	}

	s.logger.Info("push channel closed, polling", zap.String("week_id", s.weekID), zap.Duration("interval", refetchInterval))
	ticker := time.NewTicker(refetchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.logger.Warn("poll refetch failed", zap.Error(err))
			}
		}
	}
}

func (s *WeekStore) upsertLocal(entry models.AvailabilityEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].Key() == entry.Key() {
			s.entries[i] = entry
			return
		}
	}
	s.entries = append(s.entries, entry)
}

func (s *WeekStore) removeLocal(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}
