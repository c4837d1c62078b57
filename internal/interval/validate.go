package interval

import (
	"fmt"

	"github.com/scrimworks/scrimplan/internal/models"
)

// ValidationError pinpoints the offending range so callers can surface it
// before any network call is made.
type ValidationError struct {
	RangeIndex int
	Field      string
	Message    string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("time range %d: %s", e.RangeIndex+1, e.Message)
}

// ValidateRanges checks the ranges of an entry with status "available".
// Callers pass nil ranges for unavailable/all_day entries, which are always
// valid.
//
// A range without an end is exempted from the pairwise overlap check
// entirely. That looseness matches the historical behavior and is relied on
// by existing clients; do not tighten it here.
func ValidateRanges(ranges models.TimeRanges) error {
	if len(ranges) > models.MaxTimeRanges {
		return &ValidationError{
			RangeIndex: models.MaxTimeRanges,
			Field:      "time_ranges",
			Message:    fmt.Sprintf("at most %d time ranges per entry", models.MaxTimeRanges),
		}
	}

	type bounds struct {
		index int
		from  int
		to    int
	}
	closed := make([]bounds, 0, len(ranges))

	for i, r := range ranges {
		if r.From == "" {
			return &ValidationError{RangeIndex: i, Field: "from", Message: "start time is required"}
		}
		from, err := ParseClock(r.From)
		if err != nil {
			return &ValidationError{RangeIndex: i, Field: "from", Message: err.Error()}
		}
		if r.To == nil {
			continue
		}
		to, err := ParseClock(*r.To)
		if err != nil {
			return &ValidationError{RangeIndex: i, Field: "to", Message: err.Error()}
		}
		if to <= from {
			return &ValidationError{RangeIndex: i, Field: "to", Message: "end time must be after start time"}
		}
		closed = append(closed, bounds{index: i, from: from, to: to})
	}

	for i := 0; i < len(closed); i++ {
		for j := i + 1; j < len(closed); j++ {
			if closed[i].from < closed[j].to && closed[j].from < closed[i].to {
				return &ValidationError{
					RangeIndex: closed[j].index,
					Field:      "time_ranges",
					Message:    fmt.Sprintf("overlaps with time range %d", closed[i].index+1),
				}
			}
		}
	}

	return nil
}
