package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	daysAgo := func(d int) time.Time { return now.AddDate(0, 0, -d) }

	tests := []struct {
		name    string
		shipped []time.Time
		want    Status
	}{
		{
			name:    "no deliveries",
			shipped: nil,
			want:    StatusNone,
		},
		{
			name:    "shipped today",
			shipped: []time.Time{daysAgo(0)},
			want:    StatusRecent,
		},
		{
			name:    "mid cycle",
			shipped: []time.Time{daysAgo(10)},
			want:    StatusRecent,
		},
		{
			name:    "just outside warning window",
			shipped: []time.Time{daysAgo(CycleDays - WarningWindowDays - 1)},
			want:    StatusRecent,
		},
		{
			name:    "at warning window boundary",
			shipped: []time.Time{daysAgo(CycleDays - WarningWindowDays)},
			want:    StatusUpcoming,
		},
		{
			name:    "three days before due",
			shipped: []time.Time{daysAgo(27)},
			want:    StatusUpcoming,
		},
		{
			name:    "one day before due",
			shipped: []time.Time{daysAgo(CycleDays - 1)},
			want:    StatusUpcoming,
		},
		{
			name:    "due today",
			shipped: []time.Time{daysAgo(CycleDays)},
			want:    StatusOverdue,
		},
		{
			name:    "ten days late",
			shipped: []time.Time{daysAgo(40)},
			want:    StatusOverdue,
		},
		{
			name:    "long overdue",
			shipped: []time.Time{daysAgo(90)},
			want:    StatusOverdue,
		},
		{
			name:    "latest shipment wins regardless of order",
			shipped: []time.Time{daysAgo(120), daysAgo(2), daysAgo(60)},
			want:    StatusRecent,
		},
		{
			name:    "stale entries do not mask the warning window",
			shipped: []time.Time{daysAgo(40), daysAgo(27)},
			want:    StatusUpcoming,
		},
		{
			name:    "stale entries do not rescue an overdue account",
			shipped: []time.Time{daysAgo(40), daysAgo(95)},
			want:    StatusOverdue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.shipped, now))
		})
	}
}

func TestDeriveStatusCeilsPartialDays(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	// 24 days and 18 hours ago leaves 5 days 6 hours until due, which
	// ceils to 6 whole days, one past the warning window.
	last := now.Add(-time.Duration(24*24+18) * time.Hour)
	assert.Equal(t, StatusRecent, DeriveStatus([]time.Time{last}, now))

	// Six hours past due still counts as due, not a full day early.
	last = now.Add(-time.Duration(CycleDays*24+6) * time.Hour)
	assert.Equal(t, StatusOverdue, DeriveStatus([]time.Time{last}, now))
}

func TestDeriveStatusIsTotal(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	for d := 0; d <= 120; d++ {
		got := DeriveStatus([]time.Time{now.AddDate(0, 0, -d)}, now)
		switch got {
		case StatusRecent, StatusUpcoming, StatusOverdue:
		default:
			t.Fatalf("day %d: unexpected status %q", d, got)
		}
	}
}
