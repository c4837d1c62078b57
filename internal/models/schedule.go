package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AvailabilityStatus enumerates the recorded states for a participant day.
type AvailabilityStatus string

const (
	StatusAvailable   AvailabilityStatus = "available"
	StatusUnavailable AvailabilityStatus = "unavailable"
	StatusAllDay      AvailabilityStatus = "all_day"
)

// Confidence is a soft annotation; it never affects overlap math.
type Confidence string

const (
	ConfidenceConfirmed Confidence = "confirmed"
	ConfidenceTentative Confidence = "tentative"
)

// MaxTimeRanges caps the ranges attachable to a single entry.
const MaxTimeRanges = 5

// TimeRange is a minute-resolution clock range. To == nil means open-ended:
// rendered as "until end of day" and substituted with 24:00 in overlap math.
type TimeRange struct {
	From string  `json:"from"`
	To   *string `json:"to"`
}

// TimeRanges is stored as a JSONB column.
type TimeRanges []TimeRange

// Value implements driver.Valuer.
func (t TimeRanges) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner.
func (t *TimeRanges) Scan(src interface{}) error {
	if src == nil {
		*t = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported time_ranges type %T", src)
	}
	return json.Unmarshal(raw, t)
}

// AvailabilityWeek anchors entries to one ISO calendar week. Immutable after
// creation except for its child entries and the is_active housekeeping flag.
type AvailabilityWeek struct {
	ID         string    `db:"id" json:"id"`
	Year       int       `db:"year" json:"year"`
	WeekNumber int       `db:"week_number" json:"week_number"`
	StartDate  time.Time `db:"start_date" json:"start_date"`
	EndDate    time.Time `db:"end_date" json:"end_date"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// AvailabilityEntry records one participant's availability for one day.
// At most one entry exists per (week_id, date, participant_name); absence
// means "no information", which is distinct from unavailable.
type AvailabilityEntry struct {
	ID              string             `db:"id" json:"id"`
	WeekID          string             `db:"week_id" json:"week_id"`
	Date            string             `db:"date" json:"date"`
	ParticipantName string             `db:"participant_name" json:"participant_name"`
	Status          AvailabilityStatus `db:"status" json:"status"`
	Confidence      Confidence         `db:"confidence" json:"confidence"`
	TimeRanges      TimeRanges         `db:"time_ranges" json:"time_ranges"`
	UpdatedAt       time.Time          `db:"updated_at" json:"updated_at"`
	UpdatedBy       *string            `db:"updated_by" json:"updated_by,omitempty"`
}

// Key identifies the entry within its week.
func (e AvailabilityEntry) Key() EntryKey {
	return EntryKey{Date: e.Date, ParticipantName: e.ParticipantName}
}

// EntryKey is the uniqueness key for entries inside a week.
type EntryKey struct {
	Date            string
	ParticipantName string
}

// TeamOverlap is derived on demand and never persisted. TimeRange is nil
// when no overlap exists or the window is indeterminate.
type TeamOverlap struct {
	Date       string  `json:"date"`
	HasOverlap bool    `json:"has_overlap"`
	TimeRange  *string `json:"time_range"`
}
