package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/db"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// flatRecord gives every sub-score the same value, so with no overdue
// assignments the final score equals that value
func flatRecord(no model.PersonnelNo, score int) model.DisciplineRecord {
	return model.DisciplineRecord{PersonnelNo: no, Attendance: score, Roster: score, DailyLog: score, Reporting: score}
}

// newUnitStore builds a unit "alpha" of seven scored members (10, 20, ... 70)
// numbered 1001..1007, plus an unscored member 1008 and a member 2001 of unit "bravo"
func newUnitStore(assignments ...model.Assignment) *db.MemoryDB {
	var persons []model.Person
	var records []model.DisciplineRecord
	for i := 1; i <= 7; i++ {
		no := model.PersonnelNo(fmt.Sprintf("100%d", i))
		persons = append(persons, model.Person{ID: "p" + no.String(), PersonnelNo: no, Name: "Member " + no.String(), Unit: "alpha"})
		records = append(records, flatRecord(no, i*10))
	}
	persons = append(persons,
		model.Person{ID: "p1008", PersonnelNo: "1008", Name: "Member 1008", Unit: "alpha"},
		model.Person{ID: "p2001", PersonnelNo: "2001", Name: "Member 2001", Unit: "bravo"},
	)
	records = append(records, flatRecord("2001", 90))
	return db.NewMemoryDB(persons, assignments, records)
}

// failingStore returns errStore from every call
type failingStore struct{}

var errStore = errors.New("store unavailable")

func (failingStore) GetAssignmentsByPersonnelNo(ctx context.Context, no model.PersonnelNo) ([]model.Assignment, error) {
	return nil, errStore
}

func (failingStore) GetPerson(ctx context.Context, no model.PersonnelNo) (*model.Person, error) {
	return nil, errStore
}

func (failingStore) GetPersonsByUnit(ctx context.Context, unit string) ([]model.Person, error) {
	return nil, errStore
}

func (failingStore) GetDisciplineRecord(ctx context.Context, no model.PersonnelNo) (*model.DisciplineRecord, error) {
	return nil, errStore
}

func (failingStore) WithPersonLock(ctx context.Context, no model.PersonnelNo, fn func(tx db.PersonTx) error) error {
	return errStore
}

func (failingStore) GetAssignment(ctx context.Context, id string) (*model.Assignment, error) {
	return nil, errStore
}

func (failingStore) MarkReportSubmitted(ctx context.Context, id string, at time.Time) (bool, error) {
	return false, errStore
}

func (failingStore) ListAssignments(ctx context.Context) ([]model.Assignment, error) {
	return nil, errStore
}

func (failingStore) GetUnitCohort(ctx context.Context, unit string) (*db.Cohort, error) {
	return nil, errStore
}
