package domain

import "time"

// Status classifies how a subscriber stands against the delivery cycle.
type Status string

const (
	StatusNone     Status = "none"
	StatusRecent   Status = "recent"
	StatusUpcoming Status = "upcoming"
	StatusOverdue  Status = "overdue"
)

const (
	// CycleDays is the nominal delivery cadence.
	CycleDays = 30
	// RecentWindowDays bounds how long after a delivery the status can
	// read recent. The warning window carves out its tail, so recent in
	// practice ends WarningWindowDays earlier.
	RecentWindowDays = 30
	// WarningWindowDays is how close to the next due date the status turns
	// upcoming.
	WarningWindowDays = 5
)

// DeriveStatus is a pure classification over the full set of shipped
// timestamps. The most recent shipment wins regardless of insertion order.
//
// The warning window takes precedence over the recent window: a shipment
// approaching its due date reads upcoming even while still inside
// RecentWindowDays. The trailing recent return is the live branch for
// everything earlier in the cycle.
func DeriveStatus(shipped []time.Time, now time.Time) Status {
	if len(shipped) == 0 {
		return StatusNone
	}

	last := shipped[0]
	for _, at := range shipped[1:] {
		if at.After(last) {
			last = at
		}
	}

	nextDue := last.AddDate(0, 0, CycleDays)
	daysUntilDue := ceilDays(nextDue.Sub(now))

	switch {
	case daysUntilDue > 0 && daysUntilDue <= WarningWindowDays:
		return StatusUpcoming
	case daysUntilDue <= 0:
		return StatusOverdue
	default:
		return StatusRecent
	}
}

func ceilDays(d time.Duration) int {
	const day = 24 * time.Hour
	days := d / day
	if d%day > 0 {
		days++
	}
	return int(days)
}
