package discipline

import (
	"time"

	"github.com/jakechorley/duty-roster/pkg/core/clock"
	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/core/status"
)

// Weights are the percentage weights of the four sub-scores. They must sum to 100.
type Weights struct {
	Attendance int
	Roster     int
	DailyLog   int
	Reporting  int
}

// Sum returns the total of all weights
func (w Weights) Sum() int {
	return w.Attendance + w.Roster + w.DailyLog + w.Reporting
}

// DefaultWeights: attendance 0.25, morning roster 0.15, daily log 0.20, reporting 0.40
var DefaultWeights = Weights{
	Attendance: 25,
	Roster:     15,
	DailyLog:   20,
	Reporting:  40,
}

// DefaultLatePenaltyPoints is deducted from the reporting sub-score per overdue assignment
const DefaultLatePenaltyPoints = 5

// Scorer computes final discipline scores. Scores are derived from the current
// assignment set on every call and are never cached.
type Scorer struct {
	Weights           Weights
	LatePenaltyPoints int
}

// NewScorer creates a Scorer
func NewScorer(weights Weights, latePenaltyPoints int) Scorer {
	return Scorer{Weights: weights, LatePenaltyPoints: latePenaltyPoints}
}

// Breakdown shows how a final score was reached
type Breakdown struct {
	PersonnelNo model.PersonnelNo

	Attendance int
	Roster     int
	DailyLog   int

	BaseReporting     int
	AdjustedReporting int

	// LateCount is the number of assignments currently overdue
	LateCount int
	Penalty   int

	Final int
}

// Score computes the breakdown for the record's owner as of today.
// Assignments belonging to other people are ignored.
func (s Scorer) Score(record model.DisciplineRecord, assignments []model.Assignment, today time.Time) Breakdown {
	today = clock.Date(today)

	lateCount := 0
	for _, a := range assignments {
		if a.PersonnelNo != record.PersonnelNo {
			continue
		}
		if status.IsOverdue(a, today) {
			lateCount++
		}
	}

	penalty := lateCount * s.LatePenaltyPoints
	adjusted := max(0, record.Reporting-penalty)

	// Weights are percentages, so the weighted sum is in hundredths of a point
	hundredths := record.Attendance*s.Weights.Attendance +
		record.Roster*s.Weights.Roster +
		record.DailyLog*s.Weights.DailyLog +
		adjusted*s.Weights.Reporting

	return Breakdown{
		PersonnelNo:       record.PersonnelNo,
		Attendance:        record.Attendance,
		Roster:            record.Roster,
		DailyLog:          record.DailyLog,
		BaseReporting:     record.Reporting,
		AdjustedReporting: adjusted,
		LateCount:         lateCount,
		Penalty:           penalty,
		Final:             roundHundredths(hundredths),
	}
}

// roundHundredths rounds a non-negative value given in hundredths to the nearest
// integer, halves rounding up (82.50 -> 83)
func roundHundredths(hundredths int) int {
	return (hundredths + 50) / 100
}

// Average returns the mean of the scores rounded half-up.
// ok is false when there are no scores to average.
func Average(scores []int) (avg int, ok bool) {
	if len(scores) == 0 {
		return 0, false
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	n := len(scores)
	// floor(sum/n + 1/2) without leaving integer arithmetic
	return (2*sum + n) / (2 * n), true
}
