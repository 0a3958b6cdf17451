package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocalDate(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*3600)

	got, err := ParseLocalDate("2026-03-14", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, loc), got)

	_, err = ParseLocalDate("14/03/2026", loc)
	assert.Error(t, err)
}

func TestWeekAnchor(t *testing.T) {
	sunday := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, sunday, WeekAnchor(sunday))
	assert.Equal(t, sunday, WeekAnchor(time.Date(2026, 3, 8, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, sunday, WeekAnchor(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, sunday.AddDate(0, 0, 7), WeekAnchor(time.Date(2026, 3, 15, 1, 0, 0, 0, time.UTC)))
}

func TestIsPastDate(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	assert.True(t, IsPastDate(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), now))
	assert.False(t, IsPastDate(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), now), "today is not past")
	assert.False(t, IsPastDate(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), now))
}
