package push

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrimworks/scrimplan/internal/models"
)

func TestEventEncodeDecodeUpsert(t *testing.T) {
	entry := &models.AvailabilityEntry{
		ID:              "entry-1",
		WeekID:          "week-1",
		Date:            "2025-03-03",
		ParticipantName: "JUNGLE",
		Status:          models.StatusAllDay,
	}
	raw, err := Event{Kind: EntryUpserted, WeekID: "week-1", Entry: entry}.Encode()
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, EntryUpserted, decoded.Kind)
	require.NotNil(t, decoded.Entry)
	assert.Equal(t, "entry-1", decoded.Entry.ID)
	assert.Equal(t, models.StatusAllDay, decoded.Entry.Status)
}

func TestEventValidateRejectsMismatchedPayload(t *testing.T) {
	assert.Error(t, Event{Kind: EntryUpserted, WeekID: "week-1"}.Validate())
	assert.Error(t, Event{Kind: EntryDeleted, WeekID: "week-1"}.Validate())
	assert.Error(t, Event{Kind: ListInvalidated, WeekID: "week-1"}.Validate())
	assert.NoError(t, Event{Kind: EntryDeleted, WeekID: "week-1", EntryID: "entry-1"}.Validate())
	assert.NoError(t, Event{Kind: ListInvalidated, WeekID: "week-1", Resource: "events"}.Validate())
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	_, err := Decode([]byte(`{"kind":"entry_exploded","week_id":"week-1"}`))
	assert.Error(t, err)
}
