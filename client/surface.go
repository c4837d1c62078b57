package client

import (
	"context"

	"github.com/scrimworks/scrimplan/internal/dto"
	"github.com/scrimworks/scrimplan/internal/models"
	"github.com/scrimworks/scrimplan/internal/week"
)

// Grid is a render-ready view of one week: participants down, the seven ISO
// days across, with the derived team overlap per day. All data comes from
// the store's local copy.
type Grid struct {
	Days         []string
	Participants []string
	Cells        map[string]map[string]*models.AvailabilityEntry
	Overlaps     map[string]models.TeamOverlap
}

// Surface binds a WeekStore to a participant list and produces Grids. All
// writes route through the store so its optimistic protocol applies.
type Surface struct {
	store        *WeekStore
	participants []string
}

// NewSurface constructs a surface. participants is the display order: the
// player slots, usually followed by the coach.
func NewSurface(store *WeekStore, participants []string) *Surface {
	return &Surface{store: store, participants: participants}
}

// Grid builds the current view from the store snapshot.
func (s *Surface) Grid() Grid {
	snapshot := s.store.Snapshot()
	days := week.Days(snapshot.Week.StartDate)

	cells := make(map[string]map[string]*models.AvailabilityEntry, len(s.participants))
	for _, name := range s.participants {
		cells[name] = make(map[string]*models.AvailabilityEntry, len(days))
	}
	for i := range snapshot.Availability {
		entry := snapshot.Availability[i]
		if row, ok := cells[entry.ParticipantName]; ok {
			row[entry.Date] = &snapshot.Availability[i]
		}
	}

	overlaps := make(map[string]models.TeamOverlap, len(snapshot.Overlaps))
	for _, ov := range snapshot.Overlaps {
		overlaps[ov.Date] = ov
	}

	return Grid{
		Days:         days,
		Participants: append([]string(nil), s.participants...),
		Cells:        cells,
		Overlaps:     overlaps,
	}
}

// Save writes one cell through the store.
func (s *Surface) Save(ctx context.Context, req dto.UpsertAvailabilityRequest) (*models.AvailabilityEntry, error) {
	return s.store.Save(ctx, req)
}

// Clear removes the entry behind one cell, if any. Clearing an empty cell is
// a no-op.
func (s *Surface) Clear(ctx context.Context, key models.EntryKey) error {
	entry, ok := s.store.Entry(key)
	if !ok {
		return nil
	}
	return s.store.Remove(ctx, entry.ID)
}
