package interval

import (
	"sort"

	"github.com/scrimworks/scrimplan/internal/models"
)

// TeamOverlap computes the window during which every required participant is
// simultaneously available on the given date.
//
// Only the first time range of each entry participates; additional ranges
// are intentionally ignored, matching the historical behavior. An entry
// whose first range has no usable start makes the window indeterminate: the
// team is reported as plausibly free with a nil time range.
func TeamOverlap(date string, entries []models.AvailabilityEntry, required []string) models.TeamOverlap {
	result := models.TeamOverlap{Date: date}

	qualifying := make(map[string]models.AvailabilityEntry, len(required))
	for _, entry := range entries {
		if entry.Date != date {
			continue
		}
		if entry.Status != models.StatusAvailable && entry.Status != models.StatusAllDay {
			continue
		}
		for _, name := range required {
			if entry.ParticipantName == name {
				qualifying[name] = entry
				break
			}
		}
	}
	if len(qualifying) != len(required) {
		return result
	}

	latestStart := MinuteMin
	earliestEnd := MinuteMax
	for _, name := range required {
		entry := qualifying[name]
		from, to, ok := effectiveRange(entry)
		if !ok {
			result.HasOverlap = true
			result.TimeRange = nil
			return result
		}
		if from > latestStart {
			latestStart = from
		}
		if to < earliestEnd {
			earliestEnd = to
		}
	}

	if latestStart >= earliestEnd {
		return result
	}

	result.HasOverlap = true
	label := FormatClock(latestStart) + "–" + FormatClock(earliestEnd)
	if latestStart == MinuteMin && earliestEnd == MinuteMax {
		label = FullDayLabel
	}
	result.TimeRange = &label
	return result
}

// effectiveRange reduces an entry to a single (from, to) window. ok is false
// when the start cannot be determined.
func effectiveRange(entry models.AvailabilityEntry) (from, to int, ok bool) {
	if entry.Status == models.StatusAllDay {
		return MinuteMin, MinuteMax, true
	}
	if len(entry.TimeRanges) == 0 || entry.TimeRanges[0].From == "" {
		return 0, 0, false
	}
	first := entry.TimeRanges[0]
	from, err := ParseClock(first.From)
	if err != nil {
		return 0, 0, false
	}
	to = MinuteMax
	if first.To != nil {
		parsed, err := ParseClock(*first.To)
		if err == nil {
			to = parsed
		}
	}
	return from, to, true
}

// WeekOverlaps computes one TeamOverlap per distinct date in the entry set,
// in ascending date order.
func WeekOverlaps(entries []models.AvailabilityEntry, required []string) []models.TeamOverlap {
	seen := make(map[string]struct{})
	dates := make([]string, 0)
	for _, entry := range entries {
		if _, ok := seen[entry.Date]; ok {
			continue
		}
		seen[entry.Date] = struct{}{}
		dates = append(dates, entry.Date)
	}
	sort.Strings(dates)

	overlaps := make([]models.TeamOverlap, 0, len(dates))
	for _, date := range dates {
		overlaps = append(overlaps, TeamOverlap(date, entries, required))
	}
	return overlaps
}
