package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scrimworks/scrimplan/internal/dto"
	"github.com/scrimworks/scrimplan/internal/models"
	"github.com/scrimworks/scrimplan/pkg/push"
)

const storeWeekID = "week-1"

var storeRoster = []string{"TOP", "JUNGLE", "MIDDLE", "BOTTOM", "UTILITY"}

type fakeAPI struct {
	mu          sync.Mutex
	server      map[models.EntryKey]models.AvailabilityEntry
	seq         int
	failUpsert  bool
	failDelete  bool
	fetchCalls  int
	upsertCalls int
}

func (f *fakeAPI) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{server: map[models.EntryKey]models.AvailabilityEntry{}}
}

func (f *fakeAPI) FetchWeek(_ context.Context, weekID string) (*dto.WeekAvailability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	payload := &dto.WeekAvailability{
		Week: models.AvailabilityWeek{
			ID: weekID, Year: 2025, WeekNumber: 10,
			StartDate: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, e := range f.server {
		payload.Availability = append(payload.Availability, e)
	}
	return payload, nil
}

func (f *fakeAPI) UpsertEntry(_ context.Context, req dto.UpsertAvailabilityRequest) (*models.AvailabilityEntry, error) {
	f.upsertCalls++
	if f.failUpsert {
		return nil, errors.New("server rejected write")
	}
	key := models.EntryKey{Date: req.Date, ParticipantName: req.ParticipantName}
	entry, ok := f.server[key]
	if !ok {
		f.seq++
		entry = models.AvailabilityEntry{ID: "srv-" + time.Now().Format("150405") + string(rune('a'+f.seq))}
	}
	entry.WeekID = req.WeekID
	entry.Date = req.Date
	entry.ParticipantName = req.ParticipantName
	entry.Status = models.AvailabilityStatus(req.Status)
	entry.Confidence = models.Confidence(req.Confidence)
	entry.TimeRanges = req.TimeRanges
	entry.UpdatedAt = time.Now().UTC()
	f.server[key] = entry
	return &entry, nil
}

func (f *fakeAPI) DeleteEntry(_ context.Context, id string) error {
	if f.failDelete {
		return errors.New("server rejected delete")
	}
	for key, e := range f.server {
		if e.ID == id {
			delete(f.server, key)
			return nil
		}
	}
	return nil
}

func newStore(api *fakeAPI) *WeekStore {
	store := NewWeekStore(api, storeWeekID, storeRoster, zap.NewNop())
	store.Seed(&dto.WeekAvailability{
		Week: models.AvailabilityWeek{
			ID: storeWeekID, Year: 2025, WeekNumber: 10,
			StartDate: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		},
	})
	return store
}

func saveReq(name, status string, ranges models.TimeRanges) dto.UpsertAvailabilityRequest {
	return dto.UpsertAvailabilityRequest{
		Date:            "2025-03-03",
		ParticipantName: name,
		Status:          status,
		Confidence:      "confirmed",
		TimeRanges:      ranges,
	}
}

func to(s string) *string { return &s }

func TestStoreSaveReadYourWrites(t *testing.T) {
	api := newFakeAPI()
	store := newStore(api)

	entry, err := store.Save(context.Background(), saveReq("TOP", "available", models.TimeRanges{{From: "18:00", To: to("22:00")}}))
	require.NoError(t, err)
	require.NotNil(t, entry)

	got, ok := store.Entry(models.EntryKey{Date: "2025-03-03", ParticipantName: "TOP"})
	require.True(t, ok)
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, models.StatusAvailable, got.Status)
}

func TestStoreSaveRejectsBadRangesWithoutRequest(t *testing.T) {
	api := newFakeAPI()
	store := newStore(api)

	_, err := store.Save(context.Background(), saveReq("TOP", "available", models.TimeRanges{{From: "22:00", To: to("18:00")}}))
	require.Error(t, err)
	assert.Zero(t, api.upsertCalls)
	_, ok := store.Entry(models.EntryKey{Date: "2025-03-03", ParticipantName: "TOP"})
	assert.False(t, ok)
}

func TestStoreSaveFailureRefetches(t *testing.T) {
	api := newFakeAPI()
	store := newStore(api)
	api.failUpsert = true

	_, err := store.Save(context.Background(), saveReq("TOP", "unavailable", nil))
	require.Error(t, err)

	// The optimistic row must be gone after the refetch.
	_, ok := store.Entry(models.EntryKey{Date: "2025-03-03", ParticipantName: "TOP"})
	assert.False(t, ok)
	assert.Equal(t, 1, api.fetchCalls)
}

func TestStoreRemoveFailureRefetches(t *testing.T) {
	api := newFakeAPI()
	store := newStore(api)

	entry, err := store.Save(context.Background(), saveReq("TOP", "unavailable", nil))
	require.NoError(t, err)

	api.failDelete = true
	require.Error(t, store.Remove(context.Background(), entry.ID))

	// The row survives on the server, so the refetch restores it.
	_, ok := store.Entry(models.EntryKey{Date: "2025-03-03", ParticipantName: "TOP"})
	assert.True(t, ok)
}

func TestStoreApplyEventReplacesByKey(t *testing.T) {
	store := newStore(newFakeAPI())

	first := &models.AvailabilityEntry{
		ID: "srv-1", WeekID: storeWeekID, Date: "2025-03-03", ParticipantName: "TOP",
		Status: models.StatusAvailable, TimeRanges: models.TimeRanges{{From: "18:00", To: to("20:00")}},
	}
	store.ApplyEvent(push.Event{Kind: push.EntryUpserted, WeekID: storeWeekID, Entry: first})

	second := &models.AvailabilityEntry{
		ID: "srv-1", WeekID: storeWeekID, Date: "2025-03-03", ParticipantName: "TOP",
		Status: models.StatusUnavailable,
	}
	store.ApplyEvent(push.Event{Kind: push.EntryUpserted, WeekID: storeWeekID, Entry: second})

	snapshot := store.Snapshot()
	require.Len(t, snapshot.Availability, 1)
	assert.Equal(t, models.StatusUnavailable, snapshot.Availability[0].Status)
}

func TestStoreApplyEventIgnoresOtherWeeks(t *testing.T) {
	store := newStore(newFakeAPI())

	store.ApplyEvent(push.Event{
		Kind: push.EntryUpserted, WeekID: "other-week",
		Entry: &models.AvailabilityEntry{ID: "x", WeekID: "other-week", Date: "2025-03-03", ParticipantName: "TOP"},
	})
	assert.Empty(t, store.Snapshot().Availability)
}

func TestStoreApplyEventDeleteUnknownIDIsNoop(t *testing.T) {
	store := newStore(newFakeAPI())

	entry := &models.AvailabilityEntry{ID: "srv-1", WeekID: storeWeekID, Date: "2025-03-03", ParticipantName: "TOP", Status: models.StatusAllDay}
	store.ApplyEvent(push.Event{Kind: push.EntryUpserted, WeekID: storeWeekID, Entry: entry})

	store.ApplyEvent(push.Event{Kind: push.EntryDeleted, WeekID: storeWeekID, EntryID: "never-seen"})
	assert.Len(t, store.Snapshot().Availability, 1)

	store.ApplyEvent(push.Event{Kind: push.EntryDeleted, WeekID: storeWeekID, EntryID: "srv-1"})
	assert.Empty(t, store.Snapshot().Availability)
}

func TestStoreListInvalidatedCallback(t *testing.T) {
	store := newStore(newFakeAPI())

	var invalidated []string
	store.OnListInvalidated(func(resource string) {
		invalidated = append(invalidated, resource)
	})

	store.ApplyEvent(push.Event{Kind: push.ListInvalidated, WeekID: storeWeekID, Resource: "events"})
	assert.Equal(t, []string{"events"}, invalidated)
}

func TestStoreSnapshotDerivesOverlapFromLocalState(t *testing.T) {
	api := newFakeAPI()
	store := newStore(api)

	for _, name := range storeRoster {
		_, err := store.Save(context.Background(), saveReq(name, "available", models.TimeRanges{{From: "19:00", To: to("23:00")}}))
		require.NoError(t, err)
	}

	snapshot := store.Snapshot()
	require.Len(t, snapshot.Overlaps, 1)
	assert.True(t, snapshot.Overlaps[0].HasOverlap)
	require.NotNil(t, snapshot.Overlaps[0].TimeRange)
	assert.Equal(t, "19:00–23:00", *snapshot.Overlaps[0].TimeRange)
}

type closedSubscription struct {
	events chan push.Event
}

func (c *closedSubscription) Events() <-chan push.Event { return c.events }
func (c *closedSubscription) Close() error              { return nil }

func TestStoreRunFallsBackToPolling(t *testing.T) {
	api := newFakeAPI()
	store := newStore(api)

	sub := &closedSubscription{events: make(chan push.Event)}
	close(sub.events)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Run(ctx, sub, 10*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return api.fetchCount() >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
