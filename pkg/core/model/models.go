package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidKind is returned when an assignment kind is neither On-site nor Remote
var ErrInvalidKind = errors.New("invalid assignment kind")

type Kind string

const (
	KindOnSite Kind = "On-site"
	KindRemote Kind = "Remote"
)

func (k Kind) IsValid() bool {
	return k == KindOnSite || k == KindRemote
}

// ParseKind maps user input onto one of the two assignment kinds
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on-site", "onsite", "on_site":
		return KindOnSite, nil
	case "remote":
		return KindRemote, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// Person represents a member of personnel who can receive assignments
type Person struct {
	ID          string
	PersonnelNo PersonnelNo
	Name        string
	Unit        string

	// Form defaults only
	DefaultKind       Kind
	DefaultCostSource string
}

// Assignment is a time-bounded duty engagement for one person.
// StartDate and EndDate are inclusive civil dates (midnight UTC).
type Assignment struct {
	ID          string
	PersonnelNo PersonnelNo
	PersonName  string // copied from the person at creation time
	StartDate   time.Time
	EndDate     time.Time
	Kind        Kind

	ReportSubmitted   bool
	ReportSubmittedAt *time.Time

	// CreatedAt is used for display ordering only
	CreatedAt time.Time
}

// Covers returns true if day falls within the assignment's inclusive date range
func (a Assignment) Covers(day time.Time) bool {
	return !day.Before(a.StartDate) && !day.After(a.EndDate)
}

// DisciplineRecord holds the base sub-scores for one person, each in [0,100].
// The final score is never stored; see package discipline.
type DisciplineRecord struct {
	PersonnelNo PersonnelNo
	Attendance  int
	Roster      int
	DailyLog    int
	Reporting   int
}
