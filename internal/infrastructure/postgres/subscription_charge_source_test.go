package postgres

import (
	"testing"
	"time"
)

func TestCurrentPeriodStart(t *testing.T) {
	start := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		asOf time.Time
		want time.Time
	}{
		{
			name: "before start",
			asOf: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
			want: start,
		},
		{
			name: "on start date",
			asOf: start,
			want: start,
		},
		{
			name: "mid first period",
			asOf: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			want: start,
		},
		{
			name: "on second anniversary",
			asOf: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
			want: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "just before anniversary",
			asOf: time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC),
			want: time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := currentPeriodStart(start, tt.asOf)
			if !got.Equal(tt.want) {
				t.Errorf("currentPeriodStart(%v, %v) = %v, want %v", start, tt.asOf, got, tt.want)
			}
		})
	}
}

func TestCurrentPeriodStart_MonthEnd(t *testing.T) {
	start := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		asOf time.Time
		want time.Time
	}{
		{
			name: "february clamps to last day",
			asOf: time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
			want: time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "early march stays in february",
			asOf: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			want: time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "mid march stays in february",
			asOf: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
			want: time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "march anniversary on the 31st",
			asOf: time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
			want: time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "april clamps to the 30th",
			asOf: time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
			want: time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "leap february",
			asOf: time.Date(2028, 2, 29, 0, 0, 0, 0, time.UTC),
			want: time.Date(2028, 2, 29, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := currentPeriodStart(start, tt.asOf)
			if !got.Equal(tt.want) {
				t.Errorf("currentPeriodStart(%v, %v) = %v, want %v", start, tt.asOf, got, tt.want)
			}
			if got.After(tt.asOf) {
				t.Errorf("currentPeriodStart(%v, %v) = %v is after asOf", start, tt.asOf, got)
			}
		})
	}
}

// A month-end subscription must produce exactly one period start per
// calendar month when polled daily, or a period would be billed twice.
func TestCurrentPeriodStart_OnePeriodPerMonth(t *testing.T) {
	start := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	starts := make(map[string]bool)
	for asOf := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC); asOf.Month() == time.March; asOf = asOf.AddDate(0, 0, 1) {
		starts[currentPeriodStart(start, asOf).Format("2006-01-02")] = true
	}

	want := map[string]bool{"2026-02-28": true, "2026-03-31": true}
	if len(starts) != len(want) {
		t.Fatalf("period starts across March = %v, want %v", starts, want)
	}
	for day := range want {
		if !starts[day] {
			t.Errorf("period starts across March = %v, missing %s", starts, day)
		}
	}
}
