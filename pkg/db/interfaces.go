package db

import (
	"context"
	"errors"
	"time"

	"github.com/jakechorley/duty-roster/pkg/core/model"
)

// ErrNotFound is returned when a person or assignment does not exist
var ErrNotFound = errors.New("not found")

// AssignmentReader reads a person's assignments in creation order
type AssignmentReader interface {
	GetAssignmentsByPersonnelNo(ctx context.Context, no model.PersonnelNo) ([]model.Assignment, error)
}

// PersonReader reads personnel records
type PersonReader interface {
	GetPerson(ctx context.Context, no model.PersonnelNo) (*model.Person, error)
	GetPersonsByUnit(ctx context.Context, unit string) ([]model.Person, error)
}

// DisciplineReader reads base discipline records.
// GetDisciplineRecord returns nil without error when the person has no record.
type DisciplineReader interface {
	GetDisciplineRecord(ctx context.Context, no model.PersonnelNo) (*model.DisciplineRecord, error)
}

// Cohort is a unit's members together with their discipline records and
// assignments, all read at the same point in time
type Cohort struct {
	// Persons keeps the store's member order
	Persons     []model.Person
	Records     map[model.PersonnelNo]model.DisciplineRecord
	Assignments map[model.PersonnelNo][]model.Assignment
}

// CohortReader reads a whole unit in one consistent snapshot
type CohortReader interface {
	GetUnitCohort(ctx context.Context, unit string) (*Cohort, error)
}

// PersonTx is the view of the store available while holding a person's lock
type PersonTx interface {
	AssignmentReader
	InsertAssignment(ctx context.Context, assignment model.Assignment) error
}

// PersonLocker serialises read-check-write sequences per person.
// fn runs while no other creation for the same personnel number can interleave;
// if fn returns an error nothing it wrote is kept.
type PersonLocker interface {
	WithPersonLock(ctx context.Context, no model.PersonnelNo, fn func(tx PersonTx) error) error
}

// ReportStore records report submissions
type ReportStore interface {
	GetAssignment(ctx context.Context, id string) (*model.Assignment, error)
	// MarkReportSubmitted returns false if the report had already been submitted
	MarkReportSubmitted(ctx context.Context, id string, at time.Time) (bool, error)
}

// Database defines the interface for all database operations.
// Both the in-memory MemoryDB and postgres.DB implement this interface.
type Database interface {
	PersonReader
	AssignmentReader
	DisciplineReader
	CohortReader
	PersonLocker
	ReportStore
	ListAssignments(ctx context.Context) ([]model.Assignment, error)
}
