package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scrimworks/scrimplan/internal/dto"
	"github.com/scrimworks/scrimplan/internal/models"
	appErrors "github.com/scrimworks/scrimplan/pkg/errors"
	"github.com/scrimworks/scrimplan/pkg/push"
)

const testWeekID = "6f1d4cc2-9a0f-4f6e-8f8e-0f8f4a1b2c3d"

var testRoster = []string{"TOP", "JUNGLE", "MIDDLE", "BOTTOM", "UTILITY"}

type stubEntryRepo struct {
	byID    map[string]*models.AvailabilityEntry
	byKey   map[models.EntryKey]*models.AvailabilityEntry
	seq     int
	deleted []string
}

func newStubEntryRepo() *stubEntryRepo {
	return &stubEntryRepo{
		byID:  map[string]*models.AvailabilityEntry{},
		byKey: map[models.EntryKey]*models.AvailabilityEntry{},
	}
}

func (r *stubEntryRepo) ListByWeek(_ context.Context, weekID string) ([]models.AvailabilityEntry, error) {
	var out []models.AvailabilityEntry
	for _, e := range r.byID {
		if e.WeekID == weekID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *stubEntryRepo) GetByID(_ context.Context, id string) (*models.AvailabilityEntry, error) {
	e, ok := r.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *e
	return &copied, nil
}

func (r *stubEntryRepo) Upsert(_ context.Context, entry *models.AvailabilityEntry) error {
	if existing, ok := r.byKey[entry.Key()]; ok {
		entry.ID = existing.ID
	} else {
		r.seq++
		entry.ID = fmt.Sprintf("entry-%d", r.seq)
	}
	stored := *entry
	r.byID[entry.ID] = &stored
	r.byKey[entry.Key()] = &stored
	return nil
}

func (r *stubEntryRepo) Update(_ context.Context, entry *models.AvailabilityEntry) error {
	stored := *entry
	r.byID[entry.ID] = &stored
	r.byKey[entry.Key()] = &stored
	return nil
}

func (r *stubEntryRepo) Delete(_ context.Context, id string) error {
	if e, ok := r.byID[id]; ok {
		delete(r.byKey, e.Key())
		delete(r.byID, id)
	}
	r.deleted = append(r.deleted, id)
	return nil
}

type capturingPublisher struct {
	events []push.Event
}

func (p *capturingPublisher) Publish(_ context.Context, event push.Event) error {
	p.events = append(p.events, event)
	return nil
}

func newAvailabilityFixture(t *testing.T) (*AvailabilityService, *stubEntryRepo, *capturingPublisher) {
	t.Helper()
	weeks := newStubWeekRepo()
	weeks.put(&models.AvailabilityWeek{ID: testWeekID, Year: 2025, WeekNumber: 10, IsActive: true})
	entries := newStubEntryRepo()
	pub := &capturingPublisher{}
	svc := NewAvailabilityService(
		NewWeekService(weeks, nil, zap.NewNop()),
		entries, nil, pub, nil, nil, testRoster, zap.NewNop(),
	)
	return svc, entries, pub
}

func strPtr(s string) *string { return &s }

func TestAvailabilityUpsertPublishesEvent(t *testing.T) {
	svc, _, pub := newAvailabilityFixture(t)

	entry, err := svc.Upsert(context.Background(), dto.UpsertAvailabilityRequest{
		WeekID:          testWeekID,
		Date:            "2025-03-03",
		ParticipantName: "TOP",
		Status:          "available",
		TimeRanges:      models.TimeRanges{{From: "18:00", To: strPtr("22:00")}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, models.ConfidenceConfirmed, entry.Confidence)

	require.Len(t, pub.events, 1)
	assert.Equal(t, push.EntryUpserted, pub.events[0].Kind)
	assert.Equal(t, testWeekID, pub.events[0].WeekID)
	require.NotNil(t, pub.events[0].Entry)
	assert.Equal(t, entry.ID, pub.events[0].Entry.ID)
}

func TestAvailabilityUpsertReplacesByKey(t *testing.T) {
	svc, entries, _ := newAvailabilityFixture(t)

	first, err := svc.Upsert(context.Background(), dto.UpsertAvailabilityRequest{
		WeekID: testWeekID, Date: "2025-03-03", ParticipantName: "TOP",
		Status: "available", TimeRanges: models.TimeRanges{{From: "18:00", To: strPtr("22:00")}},
	})
	require.NoError(t, err)

	second, err := svc.Upsert(context.Background(), dto.UpsertAvailabilityRequest{
		WeekID: testWeekID, Date: "2025-03-03", ParticipantName: "TOP",
		Status: "unavailable",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, entries.byID, 1)
	assert.Equal(t, models.StatusUnavailable, entries.byID[first.ID].Status)
}

func TestAvailabilityUpsertStripsRangesForAllDay(t *testing.T) {
	svc, _, _ := newAvailabilityFixture(t)

	entry, err := svc.Upsert(context.Background(), dto.UpsertAvailabilityRequest{
		WeekID: testWeekID, Date: "2025-03-04", ParticipantName: "JUNGLE",
		Status: "all_day", TimeRanges: models.TimeRanges{{From: "10:00", To: strPtr("12:00")}},
	})
	require.NoError(t, err)
	assert.Nil(t, entry.TimeRanges)
}

func TestAvailabilityUpsertRejectsOverlappingRanges(t *testing.T) {
	svc, _, pub := newAvailabilityFixture(t)

	_, err := svc.Upsert(context.Background(), dto.UpsertAvailabilityRequest{
		WeekID: testWeekID, Date: "2025-03-03", ParticipantName: "TOP",
		Status: "available",
		TimeRanges: models.TimeRanges{
			{From: "10:00", To: strPtr("14:00")},
			{From: "13:00", To: strPtr("15:00")},
		},
	})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, pub.events)
}

func TestAvailabilityUpsertUnknownWeek(t *testing.T) {
	svc, _, _ := newAvailabilityFixture(t)

	_, err := svc.Upsert(context.Background(), dto.UpsertAvailabilityRequest{
		WeekID: "0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d", Date: "2025-03-03",
		ParticipantName: "TOP", Status: "unavailable",
	})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrStaleWeek.Code, appErr.Code)
}

func TestAvailabilityUpdatePatchesEntry(t *testing.T) {
	svc, _, pub := newAvailabilityFixture(t)

	entry, err := svc.Upsert(context.Background(), dto.UpsertAvailabilityRequest{
		WeekID: testWeekID, Date: "2025-03-03", ParticipantName: "TOP",
		Status: "available", TimeRanges: models.TimeRanges{{From: "18:00", To: strPtr("22:00")}},
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), entry.ID, dto.UpdateAvailabilityRequest{
		Confidence: strPtr("tentative"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ConfidenceTentative, updated.Confidence)
	assert.Len(t, updated.TimeRanges, 1)
	require.Len(t, pub.events, 2)
	assert.Equal(t, push.EntryUpserted, pub.events[1].Kind)
}

func TestAvailabilityDeletePublishesDeletion(t *testing.T) {
	svc, entries, pub := newAvailabilityFixture(t)

	entry, err := svc.Upsert(context.Background(), dto.UpsertAvailabilityRequest{
		WeekID: testWeekID, Date: "2025-03-03", ParticipantName: "TOP",
		Status: "unavailable",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), entry.ID))
	assert.Empty(t, entries.byID)
	require.Len(t, pub.events, 2)
	assert.Equal(t, push.EntryDeleted, pub.events[1].Kind)
	assert.Equal(t, entry.ID, pub.events[1].EntryID)
}

func TestAvailabilityDeleteUnknownEntry(t *testing.T) {
	svc, _, _ := newAvailabilityFixture(t)

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestAvailabilityGetWeekDerivesOverlaps(t *testing.T) {
	svc, _, _ := newAvailabilityFixture(t)

	for _, p := range testRoster {
		_, err := svc.Upsert(context.Background(), dto.UpsertAvailabilityRequest{
			WeekID: testWeekID, Date: "2025-03-03", ParticipantName: p,
			Status: "available", TimeRanges: models.TimeRanges{{From: "19:00", To: strPtr("23:00")}},
		})
		require.NoError(t, err)
	}

	payload, err := svc.GetWeek(context.Background(), testWeekID)
	require.NoError(t, err)
	assert.Len(t, payload.Availability, len(testRoster))
	require.Len(t, payload.Overlaps, 1)
	assert.True(t, payload.Overlaps[0].HasOverlap)
	require.NotNil(t, payload.Overlaps[0].TimeRange)
	assert.Equal(t, "19:00–23:00", *payload.Overlaps[0].TimeRange)
}
