package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scrimworks/scrimplan/internal/models"
)

// WeekRepository persists availability weeks.
type WeekRepository struct {
	db *sqlx.DB
}

// NewWeekRepository constructs a week repository.
func NewWeekRepository(db *sqlx.DB) *WeekRepository {
	return &WeekRepository{db: db}
}

const weekColumns = "id, year, week_number, start_date, end_date, is_active, created_at, updated_at"

// List returns weeks ordered by calendar position.
func (r *WeekRepository) List(ctx context.Context, activeOnly bool) ([]models.AvailabilityWeek, error) {
	query := fmt.Sprintf("SELECT %s FROM availability_weeks", weekColumns)
	if activeOnly {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY year ASC, week_number ASC"

	var weeks []models.AvailabilityWeek
	if err := r.db.SelectContext(ctx, &weeks, query); err != nil {
		return nil, fmt.Errorf("list weeks: %w", err)
	}
	return weeks, nil
}

// GetByID fetches a week.
func (r *WeekRepository) GetByID(ctx context.Context, id string) (*models.AvailabilityWeek, error) {
	query := fmt.Sprintf("SELECT %s FROM availability_weeks WHERE id = $1", weekColumns)
	var week models.AvailabilityWeek
	if err := r.db.GetContext(ctx, &week, query, id); err != nil {
		return nil, err
	}
	return &week, nil
}

// FindByYearWeek fetches a week by its ISO coordinates.
func (r *WeekRepository) FindByYearWeek(ctx context.Context, year, weekNumber int) (*models.AvailabilityWeek, error) {
	query := fmt.Sprintf("SELECT %s FROM availability_weeks WHERE year = $1 AND week_number = $2", weekColumns)
	var week models.AvailabilityWeek
	if err := r.db.GetContext(ctx, &week, query, year, weekNumber); err != nil {
		return nil, err
	}
	return &week, nil
}

// Create inserts a week. Concurrent creates for the same (year, week_number)
// race benignly: ON CONFLICT DO NOTHING leaves the first writer's row in
// place and the caller re-selects, so every caller resolves to the same id.
func (r *WeekRepository) Create(ctx context.Context, week *models.AvailabilityWeek) error {
	if week.ID == "" {
		week.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if week.CreatedAt.IsZero() {
		week.CreatedAt = now
	}
	week.UpdatedAt = now
	week.IsActive = true

	query := `INSERT INTO availability_weeks (id, year, week_number, start_date, end_date, is_active, created_at, updated_at)
VALUES (:id, :year, :week_number, :start_date, :end_date, :is_active, :created_at, :updated_at)
ON CONFLICT (year, week_number) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, week); err != nil {
		return fmt.Errorf("create week: %w", err)
	}
	return nil
}

// DeactivateEndedBefore flips is_active off for weeks fully in the past.
func (r *WeekRepository) DeactivateEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE availability_weeks SET is_active = FALSE, updated_at = $1 WHERE is_active = TRUE AND end_date < $2",
		time.Now().UTC(), cutoff)
	if err != nil {
		return 0, fmt.Errorf("deactivate weeks: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deactivate weeks rows: %w", err)
	}
	return affected, nil
}
