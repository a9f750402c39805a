package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRange(t *testing.T) {
	// Thursday
	now := time.Date(2024, 3, 14, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		period    string
		start     string
		end       string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"Today", "today", "", "", time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)},
		{"WeekStartsMonday", "week", "", "", time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)},
		{"Month", "month", "", "", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)},
		{"Year", "year", "", "", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)},
		{"CustomDefaults", "custom", "", "", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)},
		{"CustomBounds", "custom", "2024-02-01", "2024-02-10", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 11, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ResolveRange(tt.period, tt.start, tt.end, now)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, r.Start)
			assert.Equal(t, tt.wantEnd, r.End)
		})
	}
}

func TestResolveRange_UnknownFallsBackToToday(t *testing.T) {
	now := time.Date(2024, 3, 14, 15, 30, 0, 0, time.UTC)

	r, err := ResolveRange("fortnight", "", "", now)
	require.NoError(t, err)
	assert.Equal(t, PeriodToday, r.Period)
	assert.True(t, r.Contains(now))
}

func TestResolveRange_SundayBelongsToPreviousWeek(t *testing.T) {
	now := time.Date(2024, 3, 17, 9, 0, 0, 0, time.UTC)

	r, err := ResolveRange("week", "", "", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), r.Start)
}

func TestResolveRange_InvalidCustom(t *testing.T) {
	now := time.Date(2024, 3, 14, 15, 30, 0, 0, time.UTC)

	_, err := ResolveRange("custom", "14/03/2024", "", now)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = ResolveRange("custom", "2024-03-10", "2024-03-01", now)
	assert.ErrorIs(t, err, ErrInvalidRange)
}
