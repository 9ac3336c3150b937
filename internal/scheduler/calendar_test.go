package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSchedulingDaysSkipsWeekends(t *testing.T) {
	// Saturday 10 May 2025 to Friday 23 May 2025.
	days := SchedulingDays(date(2025, time.May, 10), date(2025, time.May, 23))

	require.Len(t, days, 10)
	assert.Equal(t, date(2025, time.May, 12), days[0])
	assert.Equal(t, date(2025, time.May, 23), days[9])
	for i, day := range days {
		assert.True(t, IsWeekday(day), "day %s should be a weekday", day)
		if i > 0 {
			assert.True(t, days[i-1].Before(day))
		}
	}
}

func TestSchedulingDaysInclusiveBounds(t *testing.T) {
	days := SchedulingDays(date(2025, time.May, 12), date(2025, time.May, 12))
	require.Len(t, days, 1)
	assert.Equal(t, date(2025, time.May, 12), days[0])
}

func TestSchedulingDaysEmpty(t *testing.T) {
	assert.Empty(t, SchedulingDays(date(2025, time.May, 10), date(2025, time.May, 11)))
	assert.Empty(t, SchedulingDays(date(2025, time.May, 16), date(2025, time.May, 12)))
}

func TestSchedulingDaysNormalisesClock(t *testing.T) {
	loc := time.FixedZone("WAT", 3600)
	start := time.Date(2025, time.May, 12, 15, 30, 0, 0, loc)
	end := time.Date(2025, time.May, 13, 8, 0, 0, 0, loc)

	days := SchedulingDays(start, end)
	require.Len(t, days, 2)
	assert.Equal(t, date(2025, time.May, 12), days[0])
	assert.Equal(t, time.UTC, days[1].Location())
}
