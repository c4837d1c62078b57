package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrimworks/scrimplan/internal/models"
)

func TestAvailabilityRepositoryListByWeek(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	rows := sqlmock.NewRows([]string{"id", "week_id", "date", "participant_name", "status", "confidence", "time_ranges", "updated_at", "updated_by"}).
		AddRow("entry-1", "week-1", "2025-03-03", "TOP", "available", "confirmed", []byte(`[{"from":"18:00","to":"20:00"}]`), time.Now(), nil).
		AddRow("entry-2", "week-1", "2025-03-03", "JUNGLE", "all_day", "confirmed", nil, time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, week_id, date, participant_name, status, confidence, time_ranges, updated_at, updated_by FROM availability_entries WHERE week_id = $1 ORDER BY date ASC, participant_name ASC")).
		WithArgs("week-1").
		WillReturnRows(rows)

	entries, err := repo.ListByWeek(context.Background(), "week-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Len(t, entries[0].TimeRanges, 1)
	assert.Equal(t, "18:00", entries[0].TimeRanges[0].From)
	assert.Nil(t, entries[1].TimeRanges)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryUpsertKeepsRowID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO availability_entries")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("existing-id"))

	entry := &models.AvailabilityEntry{
		WeekID:          "week-1",
		Date:            "2025-03-03",
		ParticipantName: "TOP",
		Status:          models.StatusAvailable,
		Confidence:      models.ConfidenceConfirmed,
		TimeRanges:      models.TimeRanges{{From: "18:00"}},
	}
	require.NoError(t, repo.Upsert(context.Background(), entry))
	// The conflicting row already existed; the stored id wins.
	assert.Equal(t, "existing-id", entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM availability_entries WHERE id = $1")).
		WithArgs("entry-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "entry-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
