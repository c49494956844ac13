package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodRangeWeek(t *testing.T) {
	// Wednesday 2026-03-04.
	now := time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)

	from, to, err := PeriodRange("week", 0, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), to)

	from, to, err = PeriodRange("week", -1, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), to)
}

func TestPeriodRangeWeekStartsMonday(t *testing.T) {
	// A Sunday belongs to the week that began the previous Monday.
	sunday := time.Date(2026, 3, 8, 10, 0, 0, 0, time.UTC)
	from, _, err := PeriodRange("week", 0, sunday)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), from)

	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	from, _, err = PeriodRange("week", 0, monday)
	require.NoError(t, err)
	assert.Equal(t, monday, from)
}

func TestPeriodRangeMonth(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	from, to, err := PeriodRange("month", 0, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), to)

	// Offsets cross year boundaries.
	from, to, err = PeriodRange("month", -3, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestPeriodRangeYear(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	from, to, err := PeriodRange("year", -1, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestPeriodRangeInvalid(t *testing.T) {
	_, _, err := PeriodRange("quarter", 0, time.Now())
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}
