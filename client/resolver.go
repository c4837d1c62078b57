package client

import (
	"context"
	"fmt"
	"time"

	"github.com/scrimworks/scrimplan/internal/models"
	"github.com/scrimworks/scrimplan/internal/week"
)

// weekEnsurer is the slice of Client the navigator needs.
type weekEnsurer interface {
	EnsureWeek(ctx context.Context, year, weekNumber int) (*models.AvailabilityWeek, error)
}

// WeekNavigator resolves "current week plus n" into concrete week rows,
// bounded by a forward horizon. Offset 0 is the week containing now.
type WeekNavigator struct {
	api     weekEnsurer
	horizon int
	now     func() time.Time
}

// NewWeekNavigator constructs a navigator. horizon is the maximum offset in
// whole weeks; values below zero collapse to zero.
func NewWeekNavigator(apiClient weekEnsurer, horizon int) *WeekNavigator {
	if horizon < 0 {
		horizon = 0
	}
	return &WeekNavigator{api: apiClient, horizon: horizon, now: time.Now}
}

// Horizon returns the maximum allowed offset.
func (n *WeekNavigator) Horizon() int {
	return n.horizon
}

// Resolve maps an offset to ISO week coordinates. Offsets outside
// [0, horizon] are rejected.
func (n *WeekNavigator) Resolve(offset int) (year, weekNumber int, err error) {
	if offset < 0 || offset > n.horizon {
		return 0, 0, fmt.Errorf("week offset %d outside [0, %d]", offset, n.horizon)
	}
	year, weekNumber = week.Shift(n.now(), offset)
	return year, weekNumber, nil
}

// EnsureWeek resolves the offset and gets or creates the matching week on
// the server.
func (n *WeekNavigator) EnsureWeek(ctx context.Context, offset int) (*models.AvailabilityWeek, error) {
	year, weekNumber, err := n.Resolve(offset)
	if err != nil {
		return nil, err
	}
	return n.api.EnsureWeek(ctx, year, weekNumber)
}
