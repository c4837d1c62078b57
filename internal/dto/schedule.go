package dto

import "github.com/scrimworks/scrimplan/internal/models"

// CreateWeekRequest asks for an availability week by ISO coordinates. The
// call is idempotent: an existing week is returned, not an error.
type CreateWeekRequest struct {
	Year       int `json:"year" validate:"required,min=2000,max=2100"`
	WeekNumber int `json:"week_number" validate:"required,min=1,max=53"`
}

// UpsertAvailabilityRequest creates or replaces the entry for one
// (week, date, participant) key.
type UpsertAvailabilityRequest struct {
	WeekID          string            `json:"week_id" validate:"required,uuid4"`
	Date            string            `json:"date" validate:"required"`
	ParticipantName string            `json:"participant_name" validate:"required,max=100"`
	Status          string            `json:"status" validate:"required,availability_status"`
	Confidence      string            `json:"confidence" validate:"omitempty,availability_confidence"`
	TimeRanges      models.TimeRanges `json:"time_ranges"`
	UpdatedBy       *string           `json:"updated_by"`
}

// UpdateAvailabilityRequest patches individual fields of an existing entry.
type UpdateAvailabilityRequest struct {
	Status     *string            `json:"status" validate:"omitempty,availability_status"`
	Confidence *string            `json:"confidence" validate:"omitempty,availability_confidence"`
	TimeRanges *models.TimeRanges `json:"time_ranges"`
	UpdatedBy  *string            `json:"updated_by"`
}

// WeekAvailability is the authoritative payload for one week: the week row,
// every entry, and the derived per-day team overlaps.
type WeekAvailability struct {
	Week         models.AvailabilityWeek    `json:"week"`
	Availability []models.AvailabilityEntry `json:"availability"`
	Overlaps     []models.TeamOverlap       `json:"overlaps"`
}
