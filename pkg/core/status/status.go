package status

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/jakechorley/duty-roster/pkg/core/clock"
	"github.com/jakechorley/duty-roster/pkg/core/model"
)

type Status string

const (
	StatusOverdue    Status = "Overdue"
	StatusEndingSoon Status = "Ending Soon"
	StatusActive     Status = "Active"
	StatusCompleted  Status = "Completed"
)

// Priority returns the display priority of the status, 1 being the most urgent
func (s Status) Priority() int {
	switch s {
	case StatusOverdue:
		return 1
	case StatusEndingSoon:
		return 2
	case StatusActive:
		return 3
	case StatusCompleted:
		return 4
	}
	return 0
}

// DefaultEndingSoonDays is how many days before the end date an unreported
// assignment is flagged as ending soon
const DefaultEndingSoonDays = 2

// Classification is the derived state of one assignment on one day
type Classification struct {
	Status   Status
	Priority int
	Context  string
}

// Classifier derives assignment status. It holds no state besides its policy;
// every call re-evaluates against the given day.
type Classifier struct {
	EndingSoonDays int
}

// NewClassifier creates a Classifier with the given ending-soon window
func NewClassifier(endingSoonDays int) Classifier {
	return Classifier{EndingSoonDays: endingSoonDays}
}

// IsOverdue returns true if the assignment's end date has passed without a report.
// Only the calendar date of today is considered.
func IsOverdue(a model.Assignment, today time.Time) bool {
	return !a.ReportSubmitted && clock.Date(today).After(a.EndDate)
}

// Classify computes the status of an assignment as of today.
// A submitted report short-circuits all date checks. Any time of day on today is ignored.
func (c Classifier) Classify(a model.Assignment, today time.Time) Classification {
	today = clock.Date(today)

	if a.ReportSubmitted {
		return classification(StatusCompleted, "Report submitted")
	}

	if IsOverdue(a, today) {
		elapsed := clock.DaysBetween(a.EndDate, today)
		return classification(StatusOverdue, fmt.Sprintf("Overdue by %s", days(elapsed)))
	}

	remaining := clock.DaysBetween(today, a.EndDate)
	if remaining <= c.EndingSoonDays {
		if remaining == 0 {
			return classification(StatusEndingSoon, "Ends today")
		}
		return classification(StatusEndingSoon, fmt.Sprintf("%s remaining", days(remaining)))
	}

	if today.Before(a.StartDate) {
		return classification(StatusActive, fmt.Sprintf("Starts in %s", days(clock.DaysBetween(today, a.StartDate))))
	}
	return classification(StatusActive, fmt.Sprintf("%s remaining", days(remaining)))
}

func classification(s Status, context string) Classification {
	return Classification{Status: s, Priority: s.Priority(), Context: context}
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// Annotated pairs an assignment with its classification
type Annotated struct {
	Assignment     model.Assignment
	Classification Classification
}

// Annotate classifies each assignment, preserving input order
func (c Classifier) Annotate(assignments []model.Assignment, today time.Time) []Annotated {
	result := make([]Annotated, 0, len(assignments))
	for _, a := range assignments {
		result = append(result, Annotated{Assignment: a, Classification: c.Classify(a, today)})
	}
	return result
}

// SortByUrgency orders by priority, then end date, then creation time.
// The sort is stable so equal entries keep their input order.
func SortByUrgency(items []Annotated) {
	slices.SortStableFunc(items, func(a, b Annotated) int {
		if c := cmp.Compare(a.Classification.Priority, b.Classification.Priority); c != 0 {
			return c
		}
		if c := a.Assignment.EndDate.Compare(b.Assignment.EndDate); c != 0 {
			return c
		}
		return a.Assignment.CreatedAt.Compare(b.Assignment.CreatedAt)
	})
}
