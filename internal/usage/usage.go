// Package usage tracks per-organization call volume for billing display.
// Counters only increase within a period; the storage update is a single
// atomic upsert so concurrent completions never lose increments.
package usage

import "time"

// PeriodOf returns the billing period key (UTC calendar month) for t.
func PeriodOf(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// MinutesFromSeconds converts a call duration to billable whole minutes,
// rounding up. A 42 second call bills one minute.
func MinutesFromSeconds(seconds int) int {
	if seconds <= 0 {
		return 0
	}
	return (seconds + 59) / 60
}
