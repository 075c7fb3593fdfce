package discipline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jakechorley/duty-roster/pkg/core/model"
)

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func overdue(no model.PersonnelNo, end string) model.Assignment {
	return model.Assignment{PersonnelNo: no, StartDate: date(end).AddDate(0, 0, -3), EndDate: date(end)}
}

func TestScore_DecayExample(t *testing.T) {
	scorer := NewScorer(DefaultWeights, DefaultLatePenaltyPoints)
	record := model.DisciplineRecord{
		PersonnelNo: "1001",
		Attendance:  90,
		Roster:      100,
		DailyLog:    85,
		Reporting:   80,
	}
	assignments := []model.Assignment{
		overdue("1001", "2025-06-01"),
		overdue("1001", "2025-06-05"),
	}

	b := scorer.Score(record, assignments, date("2025-06-10"))

	assert.Equal(t, 2, b.LateCount)
	assert.Equal(t, 10, b.Penalty)
	assert.Equal(t, 80, b.BaseReporting)
	assert.Equal(t, 70, b.AdjustedReporting)
	// 22.5 + 15 + 17 + 28 = 82.5, rounded half-up
	assert.Equal(t, 83, b.Final)
}

func TestScore_RoundsHalfUp(t *testing.T) {
	scorer := NewScorer(DefaultWeights, DefaultLatePenaltyPoints)

	tests := []struct {
		name       string
		attendance int
		expected   int
	}{
		{"0.25 rounds down", 1, 0},
		{"0.50 rounds up", 2, 1},
		{"0.75 rounds up", 3, 1},
		{"2.50 rounds up, not to even", 10, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := scorer.Score(model.DisciplineRecord{PersonnelNo: "1", Attendance: tt.attendance}, nil, date("2025-06-01"))
			assert.Equal(t, tt.expected, b.Final)
		})
	}
}

func TestScore_NoLateAssignments(t *testing.T) {
	scorer := NewScorer(DefaultWeights, DefaultLatePenaltyPoints)
	record := model.DisciplineRecord{PersonnelNo: "1001", Attendance: 100, Roster: 100, DailyLog: 100, Reporting: 100}

	b := scorer.Score(record, nil, date("2025-06-01"))

	assert.Equal(t, 0, b.LateCount)
	assert.Equal(t, 100, b.AdjustedReporting)
	assert.Equal(t, 100, b.Final)
}

func TestScore_ReportingFloorsAtZero(t *testing.T) {
	scorer := NewScorer(DefaultWeights, DefaultLatePenaltyPoints)
	record := model.DisciplineRecord{PersonnelNo: "1001", Attendance: 100, Roster: 100, DailyLog: 100, Reporting: 12}

	assignments := []model.Assignment{
		overdue("1001", "2025-05-01"),
		overdue("1001", "2025-05-02"),
		overdue("1001", "2025-05-03"),
		overdue("1001", "2025-05-04"),
	}

	b := scorer.Score(record, assignments, date("2025-06-01"))

	assert.Equal(t, 4, b.LateCount)
	assert.Equal(t, 20, b.Penalty)
	assert.Equal(t, 0, b.AdjustedReporting)
	assert.Equal(t, 60, b.Final)
}

func TestScore_OnlyUnreportedPastAssignmentsCount(t *testing.T) {
	scorer := NewScorer(DefaultWeights, DefaultLatePenaltyPoints)
	record := model.DisciplineRecord{PersonnelNo: "1001", Reporting: 100}
	today := date("2025-06-10")

	assignments := []model.Assignment{
		// reported, even though long past
		{PersonnelNo: "1001", StartDate: date("2025-05-01"), EndDate: date("2025-05-02"), ReportSubmitted: true},
		// ends today, not yet late
		{PersonnelNo: "1001", StartDate: date("2025-06-08"), EndDate: date("2025-06-10")},
		// someone else's overdue assignment
		overdue("2002", "2025-06-01"),
		// late
		overdue("1001", "2025-06-09"),
	}

	b := scorer.Score(record, assignments, today)

	assert.Equal(t, 1, b.LateCount)
	assert.Equal(t, 95, b.AdjustedReporting)
}

func TestScore_WorsensDayOverDay(t *testing.T) {
	scorer := NewScorer(DefaultWeights, DefaultLatePenaltyPoints)
	record := model.DisciplineRecord{PersonnelNo: "1001", Attendance: 100, Roster: 100, DailyLog: 100, Reporting: 100}
	assignments := []model.Assignment{
		{PersonnelNo: "1001", StartDate: date("2025-06-01"), EndDate: date("2025-06-05")},
	}

	onEndDate := scorer.Score(record, assignments, date("2025-06-05"))
	dayAfter := scorer.Score(record, assignments, date("2025-06-06"))

	assert.Equal(t, 100, onEndDate.Final)
	assert.Equal(t, 98, dayAfter.Final)
}

func TestScore_Idempotent(t *testing.T) {
	scorer := NewScorer(DefaultWeights, DefaultLatePenaltyPoints)
	record := model.DisciplineRecord{PersonnelNo: "1001", Attendance: 70, Roster: 60, DailyLog: 50, Reporting: 40}
	assignments := []model.Assignment{overdue("1001", "2025-06-01")}

	assert.Equal(t,
		scorer.Score(record, assignments, date("2025-06-10")),
		scorer.Score(record, assignments, date("2025-06-10")))
}

func TestAverage(t *testing.T) {
	tests := []struct {
		name     string
		scores   []int
		expected int
	}{
		{"single", []int{83}, 83},
		{"exact", []int{80, 90}, 85},
		{"half rounds up", []int{80, 81}, 81},
		{"below half rounds down", []int{80, 80, 81}, 80},
		{"above half rounds up", []int{80, 81, 81}, 81},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			avg, ok := Average(tt.scores)
			assert.True(t, ok)
			assert.Equal(t, tt.expected, avg)
		})
	}
}

func TestAverage_Empty(t *testing.T) {
	_, ok := Average(nil)
	assert.False(t, ok)
}

func TestDefaultWeights_SumTo100(t *testing.T) {
	assert.Equal(t, 100, DefaultWeights.Sum())
}

func TestScore_EndDayIsNotLateWhateverTheHour(t *testing.T) {
	scorer := NewScorer(DefaultWeights, DefaultLatePenaltyPoints)
	record := model.DisciplineRecord{PersonnelNo: "1001", Attendance: 80, Roster: 80, DailyLog: 80, Reporting: 80}
	assignments := []model.Assignment{overdue("1001", "2025-06-05")}

	b := scorer.Score(record, assignments, date("2025-06-05").Add(18*time.Hour))
	assert.Equal(t, 0, b.LateCount)
	assert.Equal(t, 80, b.Final)

	b = scorer.Score(record, assignments, date("2025-06-06").Add(time.Minute))
	assert.Equal(t, 1, b.LateCount)
	assert.Equal(t, 75, b.AdjustedReporting)
}
