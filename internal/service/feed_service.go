package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/scrimworks/scrimplan/internal/interval"
	"github.com/scrimworks/scrimplan/internal/models"
	"github.com/scrimworks/scrimplan/internal/week"
)

// FeedService publishes the derived team overlap windows as an iCalendar
// feed, one VEVENT per day with a concrete window.
type FeedService struct {
	availability *AvailabilityService
	logger       *zap.Logger
}

// NewFeedService constructs the feed service.
func NewFeedService(availability *AvailabilityService, logger *zap.Logger) *FeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedService{availability: availability, logger: logger}
}

// OverlapCalendar serialises the week's team overlap windows as an ics
// document. Days without a concrete shared window produce no event.
func (s *FeedService) OverlapCalendar(ctx context.Context, weekID string) ([]byte, error) {
	payload, err := s.availability.GetWeek(ctx, weekID)
	if err != nil {
		return nil, err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//scrimplan//availability//EN")

	summary := fmt.Sprintf("Team practice window (W%02d)", payload.Week.WeekNumber)
	for _, overlap := range payload.Overlaps {
		if !overlap.HasOverlap || overlap.TimeRange == nil {
			continue
		}
		start, end, ok := overlapWindow(overlap)
		if !ok {
			s.logger.Warn("skipping unparsable overlap window",
				zap.String("date", overlap.Date), zap.String("window", *overlap.TimeRange))
			continue
		}
		event := cal.AddEvent(fmt.Sprintf("overlap-%s@scrimplan", overlap.Date))
		event.SetCreatedTime(time.Now().UTC())
		event.SetDtStampTime(time.Now().UTC())
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(summary)
	}

	return []byte(cal.Serialize()), nil
}

// overlapWindow converts a derived window back into concrete instants on its
// day. The full-day sentinel spans midnight to midnight.
func overlapWindow(overlap models.TeamOverlap) (start, end time.Time, ok bool) {
	day, err := time.Parse(week.DateLayout, overlap.Date)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	window := *overlap.TimeRange
	if window == interval.FullDayLabel {
		return day, day.AddDate(0, 0, 1), true
	}
	parts := strings.Split(window, "–")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, false
	}
	from, err := interval.ParseClock(parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	to, err := interval.ParseClock(parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return day.Add(time.Duration(from) * time.Minute), day.Add(time.Duration(to) * time.Minute), true
}
