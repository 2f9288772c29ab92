package usage

import (
	"testing"
	"time"
)

func TestPeriodOfUsesUTCCalendarMonth(t *testing.T) {
	// 23:30 on Jan 31 in UTC-5 is already February in UTC.
	loc := time.FixedZone("EST", -5*3600)
	at := time.Date(2026, time.January, 31, 23, 30, 0, 0, loc)

	if got := PeriodOf(at); got != "2026-02" {
		t.Fatalf("PeriodOf = %q, want 2026-02", got)
	}

	utc := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	if got := PeriodOf(utc); got != "2026-03" {
		t.Fatalf("PeriodOf = %q, want 2026-03", got)
	}
}

func TestMinutesFromSecondsRoundsUp(t *testing.T) {
	cases := []struct {
		seconds int
		want    int
	}{
		{0, 0},
		{-10, 0},
		{1, 1},
		{42, 1},
		{60, 1},
		{61, 2},
		{119, 2},
		{120, 2},
		{121, 3},
	}

	for _, tc := range cases {
		if got := MinutesFromSeconds(tc.seconds); got != tc.want {
			t.Errorf("MinutesFromSeconds(%d) = %d, want %d", tc.seconds, got, tc.want)
		}
	}
}
