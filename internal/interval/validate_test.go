package interval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrimworks/scrimplan/internal/models"
)

func rangesOf(pairs ...[2]string) models.TimeRanges {
	ranges := make(models.TimeRanges, 0, len(pairs))
	for _, pair := range pairs {
		r := models.TimeRange{From: pair[0]}
		if pair[1] != "" {
			to := pair[1]
			r.To = &to
		}
		ranges = append(ranges, r)
	}
	return ranges
}

func TestValidateRangesAcceptsClosedRanges(t *testing.T) {
	err := ValidateRanges(rangesOf([2]string{"09:00", "10:00"}, [2]string{"10:00", "11:00"}))
	assert.NoError(t, err)
}

func TestValidateRangesMissingStart(t *testing.T) {
	err := ValidateRanges(models.TimeRanges{{From: "09:00"}, {From: ""}})
	require.Error(t, err)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, 1, vErr.RangeIndex)
	assert.Equal(t, "from", vErr.Field)
}

func TestValidateRangesEndBeforeStart(t *testing.T) {
	err := ValidateRanges(rangesOf([2]string{"12:00", "11:00"}))
	require.Error(t, err)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "to", vErr.Field)
}

func TestValidateRangesEndEqualsStart(t *testing.T) {
	err := ValidateRanges(rangesOf([2]string{"12:00", "12:00"}))
	assert.Error(t, err)
}

func TestValidateRangesDetectsOverlap(t *testing.T) {
	err := ValidateRanges(rangesOf([2]string{"09:00", "10:00"}, [2]string{"09:30", "11:00"}))
	require.Error(t, err)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, 1, vErr.RangeIndex)
}

func TestValidateRangesTouchingIsNotOverlap(t *testing.T) {
	err := ValidateRanges(rangesOf([2]string{"09:00", "10:00"}, [2]string{"10:00", "11:00"}))
	assert.NoError(t, err)
}

// Open-ended ranges are exempt from the pairwise check even when they would
// collide with a closed range. Existing clients depend on this acceptance.
func TestValidateRangesOpenEndedBypassesOverlapCheck(t *testing.T) {
	err := ValidateRanges(rangesOf([2]string{"09:00", ""}, [2]string{"09:30", "10:00"}))
	assert.NoError(t, err)
}

func TestValidateRangesTooMany(t *testing.T) {
	err := ValidateRanges(rangesOf(
		[2]string{"08:00", "09:00"},
		[2]string{"09:00", "10:00"},
		[2]string{"10:00", "11:00"},
		[2]string{"11:00", "12:00"},
		[2]string{"12:00", "13:00"},
		[2]string{"13:00", "14:00"},
	))
	assert.Error(t, err)
}

func TestValidateRangesRejectsMalformedClock(t *testing.T) {
	err := ValidateRanges(models.TimeRanges{{From: "9am"}})
	require.Error(t, err)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, 0, vErr.RangeIndex)
}

func TestParseClockBoundaries(t *testing.T) {
	midnight, err := ParseClock("00:00")
	require.NoError(t, err)
	assert.Equal(t, 0, midnight)

	endOfDay, err := ParseClock("24:00")
	require.NoError(t, err)
	assert.Equal(t, MinuteMax, endOfDay)

	_, err = ParseClock("24:01")
	assert.Error(t, err)
}
