// Package interval implements the pure time-interval logic behind team
// availability: clock parsing, per-entry range validation, and the
// team-wide overlap computation. It performs no I/O and holds no state.
package interval

import (
	"fmt"
	"strconv"
	"strings"
)

// Clock values are minutes since midnight, in [0, 1440]. 24:00 is a valid
// end-of-day boundary.
const (
	MinuteMin = 0
	MinuteMax = 24 * 60
)

// FullDayLabel is emitted instead of a literal range when the overlap window
// spans the entire day.
const FullDayLabel = "full day"

// ParseClock converts an "HH:MM" string into minutes since midnight.
func ParseClock(raw string) (int, error) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q, expected HH:MM", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	mins, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	if mins < 0 || mins > 59 {
		return 0, fmt.Errorf("minute out of range in %q", raw)
	}
	total := hours*60 + mins
	if hours < 0 || total < MinuteMin || total > MinuteMax {
		return 0, fmt.Errorf("clock value %q outside 00:00-24:00", raw)
	}
	return total, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
