// ABOUTME: Recurring-schedule date math for work schedules
// ABOUTME: Walks a cadence forward from its anchor to test whether a date is on schedule
package recurrence

import (
	"fmt"
	"time"
)

// Frequency is a work schedule's recurrence unit, as stored on the remote
// WorkSchedule record.
type Frequency string

const (
	Days   Frequency = "days"
	Weeks  Frequency = "weeks"
	Months Frequency = "months"
	Years  Frequency = "years"
)

// UnsupportedFrequencyError is returned for any frequency outside the four
// recognized units.
type UnsupportedFrequencyError struct {
	Frequency Frequency
}

func (e *UnsupportedFrequencyError) Error() string {
	return fmt.Sprintf("recurrence: unsupported frequency %q", e.Frequency)
}

// Recurs reports whether candidate falls exactly on the cadence anchored at
// start: start, start+1 interval, start+2 intervals, and so on. Comparison is
// at day granularity. Each tick is computed from the anchor, not from the
// previous tick, so a clamped month end (Jan 31 → Feb 29) restores to the
// anchor's day in longer months (Mar 31). Every step advances the date by at
// least one day, so the walk always terminates.
func Recurs(start time.Time, freq Frequency, every int, candidate time.Time) (bool, error) {
	if every < 1 {
		return false, fmt.Errorf("recurrence: interval must be positive, got %d", every)
	}

	anchor := dateOf(start)
	target := dateOf(candidate)

	current := anchor
	for step := 1; !current.After(target); step++ {
		if current.Equal(target) {
			return true, nil
		}
		switch freq {
		case Days:
			current = anchor.AddDate(0, 0, step*every)
		case Weeks:
			current = anchor.AddDate(0, 0, 7*step*every)
		case Months:
			current = AddMonths(anchor, step*every)
		case Years:
			current = AddMonths(anchor, 12*step*every)
		default:
			return false, &UnsupportedFrequencyError{Frequency: freq}
		}
	}
	return false, nil
}

// AddMonths advances a date by whole months, clamping the day to the last
// valid day of the target month. Unlike time.AddDate this never rolls
// Jan 31 + 1 month over into March.
func AddMonths(t time.Time, months int) time.Time {
	monthIndex := int(t.Month()) - 1 + months
	year := t.Year() + monthIndex/12
	month := time.Month(monthIndex%12 + 1)
	day := t.Day()
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	// First day of the following month, minus one day.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
