// ABOUTME: Tests for recurring-schedule date math
// ABOUTME: Covers month-end clamping, leap years, and non-matching cadences
package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRecurs(t *testing.T) {
	tests := []struct {
		name      string
		start     time.Time
		freq      Frequency
		every     int
		candidate time.Time
		want      bool
	}{
		{"candidate equals start", date(2024, 1, 1), Weeks, 2, date(2024, 1, 1), true},
		{"weekly on tick", date(2024, 1, 1), Weeks, 2, date(2024, 1, 15), true},
		{"weekly between ticks", date(2024, 1, 1), Weeks, 2, date(2024, 1, 8), false},
		{"daily every 10", date(2024, 1, 1), Days, 10, date(2024, 1, 31), true},
		{"daily off tick", date(2024, 1, 1), Days, 10, date(2024, 1, 30), false},
		{"monthly leap-year end", date(2024, 1, 31), Months, 1, date(2024, 2, 29), true},
		{"monthly clamp then restore", date(2024, 1, 31), Months, 1, date(2024, 3, 31), true},
		{"monthly jan 1 misses feb 29", date(2024, 1, 1), Months, 1, date(2024, 2, 29), false},
		{"monthly plain", date(2024, 1, 15), Months, 3, date(2024, 7, 15), true},
		{"yearly", date(2020, 6, 1), Years, 2, date(2026, 6, 1), true},
		{"yearly off", date(2020, 6, 1), Years, 2, date(2025, 6, 1), false},
		{"candidate before start", date(2024, 5, 1), Weeks, 1, date(2024, 4, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Recurs(tt.start, tt.freq, tt.every, tt.candidate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecursUnsupportedFrequency(t *testing.T) {
	_, err := Recurs(date(2024, 1, 1), "fortnights", 1, date(2024, 2, 1))

	var unsupported *UnsupportedFrequencyError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, Frequency("fortnights"), unsupported.Frequency)
}

func TestRecursRejectsNonPositiveInterval(t *testing.T) {
	_, err := Recurs(date(2024, 1, 1), Days, 0, date(2024, 2, 1))
	assert.Error(t, err)
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		months int
		want   time.Time
	}{
		{"plain", date(2024, 1, 15), 1, date(2024, 2, 15)},
		{"clamp to leap february", date(2024, 1, 31), 1, date(2024, 2, 29)},
		{"clamp to non-leap february", date(2023, 1, 31), 1, date(2023, 2, 28)},
		{"century non-leap", date(1900, 1, 31), 1, date(1900, 2, 28)},
		{"quadricentennial leap", date(2000, 1, 31), 1, date(2000, 2, 29)},
		{"year rollover", date(2024, 11, 30), 3, date(2025, 2, 28)},
		{"twelve months", date(2024, 2, 29), 12, date(2025, 2, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddMonths(tt.start, tt.months))
		})
	}
}
