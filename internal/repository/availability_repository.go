package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scrimworks/scrimplan/internal/models"
)

// AvailabilityRepository persists per-day availability entries.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs an availability repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

const entryColumns = "id, week_id, date, participant_name, status, confidence, time_ranges, updated_at, updated_by"

// ListByWeek returns every entry of a week ordered by day then participant.
func (r *AvailabilityRepository) ListByWeek(ctx context.Context, weekID string) ([]models.AvailabilityEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM availability_entries WHERE week_id = $1 ORDER BY date ASC, participant_name ASC", entryColumns)
	var entries []models.AvailabilityEntry
	if err := r.db.SelectContext(ctx, &entries, query, weekID); err != nil {
		return nil, fmt.Errorf("list availability for week %s: %w", weekID, err)
	}
	return entries, nil
}

// GetByID fetches a single entry.
func (r *AvailabilityRepository) GetByID(ctx context.Context, id string) (*models.AvailabilityEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM availability_entries WHERE id = $1", entryColumns)
	var entry models.AvailabilityEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Upsert writes the entry for its (week_id, date, participant_name) key. A
// second save for an existing key updates in place; the row id is stable.
func (r *AvailabilityRepository) Upsert(ctx context.Context, entry *models.AvailabilityEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.UpdatedAt = time.Now().UTC()

	query := `INSERT INTO availability_entries (id, week_id, date, participant_name, status, confidence, time_ranges, updated_at, updated_by)
VALUES (:id, :week_id, :date, :participant_name, :status, :confidence, :time_ranges, :updated_at, :updated_by)
ON CONFLICT (week_id, date, participant_name) DO UPDATE
SET status = EXCLUDED.status, confidence = EXCLUDED.confidence, time_ranges = EXCLUDED.time_ranges,
    updated_at = EXCLUDED.updated_at, updated_by = EXCLUDED.updated_by
RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, query, entry)
	if err != nil {
		return fmt.Errorf("upsert availability: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&entry.ID); err != nil {
			return fmt.Errorf("upsert availability id: %w", err)
		}
	}
	return rows.Err()
}

// Update rewrites mutable fields of an existing entry.
func (r *AvailabilityRepository) Update(ctx context.Context, entry *models.AvailabilityEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	query := `UPDATE availability_entries
SET status = :status, confidence = :confidence, time_ranges = :time_ranges, updated_at = :updated_at, updated_by = :updated_by
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("update availability %s: %w", entry.ID, err)
	}
	return nil
}

// Delete removes an entry.
func (r *AvailabilityRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM availability_entries WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete availability %s: %w", id, err)
	}
	return nil
}
