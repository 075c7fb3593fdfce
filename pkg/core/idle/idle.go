package idle

import (
	"time"

	"github.com/jakechorley/duty-roster/pkg/core/clock"
	"github.com/jakechorley/duty-roster/pkg/core/model"
)

// DefaultSentinelDays is reported for people who have never been assigned
const DefaultSentinelDays = 365

// Tracker computes consecutive idle days
type Tracker struct {
	SentinelDays int
}

// NewTracker creates a Tracker with the given never-assigned sentinel
func NewTracker(sentinelDays int) Tracker {
	return Tracker{SentinelDays: sentinelDays}
}

// IdleDays returns the days since the person's latest assignment ended.
// It is 0 while any assignment covers today, whatever its kind or report state,
// and SentinelDays when the person has no assignments at all.
func (t Tracker) IdleDays(assignments []model.Assignment, today time.Time) int {
	today = clock.Date(today)

	if len(assignments) == 0 {
		return t.SentinelDays
	}

	latest := assignments[0]
	for _, a := range assignments {
		if a.Covers(today) {
			return 0
		}
		// Strictly later only, so ties keep the first in input order
		if a.EndDate.After(latest.EndDate) {
			latest = a
		}
	}

	return max(0, clock.DaysBetween(latest.EndDate, today))
}
