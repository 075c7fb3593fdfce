package db

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jakechorley/duty-roster/pkg/core/model"
)

var _ Database = (*MemoryDB)(nil)

// MemoryDB is an in-process store backed by a YAML snapshot.
// Reads return copies taken under a read lock, so callers always see a consistent snapshot.
type MemoryDB struct {
	mu          sync.RWMutex
	persons     []model.Person
	assignments []model.Assignment
	records     map[model.PersonnelNo]model.DisciplineRecord
	dirty       bool

	locks *personLocks
}

// NewMemoryDB creates a store holding the given records
func NewMemoryDB(persons []model.Person, assignments []model.Assignment, records []model.DisciplineRecord) *MemoryDB {
	db := &MemoryDB{
		persons:     slices.Clone(persons),
		assignments: slices.Clone(assignments),
		records:     make(map[model.PersonnelNo]model.DisciplineRecord, len(records)),
		locks:       newPersonLocks(),
	}
	for _, r := range records {
		db.records[r.PersonnelNo] = r
	}
	return db
}

// GetPerson returns the person with the given personnel number
func (db *MemoryDB) GetPerson(ctx context.Context, no model.PersonnelNo) (*model.Person, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, p := range db.persons {
		if p.PersonnelNo == no {
			person := p
			return &person, nil
		}
	}
	return nil, fmt.Errorf("person %s: %w", no, ErrNotFound)
}

// GetPersonsByUnit returns the unit's members in import order
func (db *MemoryDB) GetPersonsByUnit(ctx context.Context, unit string) ([]model.Person, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var result []model.Person
	for _, p := range db.persons {
		if p.Unit == unit {
			result = append(result, p)
		}
	}
	return result, nil
}

// GetUnitCohort returns the unit's members, records and assignments under one read lock
func (db *MemoryDB) GetUnitCohort(ctx context.Context, unit string) (*Cohort, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	cohort := &Cohort{
		Records:     make(map[model.PersonnelNo]model.DisciplineRecord),
		Assignments: make(map[model.PersonnelNo][]model.Assignment),
	}
	members := make(map[model.PersonnelNo]bool)
	for _, p := range db.persons {
		if p.Unit != unit {
			continue
		}
		cohort.Persons = append(cohort.Persons, p)
		members[p.PersonnelNo] = true
		if r, ok := db.records[p.PersonnelNo]; ok {
			cohort.Records[p.PersonnelNo] = r
		}
	}
	for _, a := range db.assignments {
		if members[a.PersonnelNo] {
			cohort.Assignments[a.PersonnelNo] = append(cohort.Assignments[a.PersonnelNo], a)
		}
	}
	return cohort, nil
}

// GetDisciplineRecord returns the person's base record, or nil if there is none
func (db *MemoryDB) GetDisciplineRecord(ctx context.Context, no model.PersonnelNo) (*model.DisciplineRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	r, ok := db.records[no]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// GetAssignmentsByPersonnelNo returns the person's assignments in creation order
func (db *MemoryDB) GetAssignmentsByPersonnelNo(ctx context.Context, no model.PersonnelNo) ([]model.Assignment, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return filterByPersonnelNo(db.assignments, no), nil
}

// ListAssignments returns every assignment in creation order
func (db *MemoryDB) ListAssignments(ctx context.Context) ([]model.Assignment, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return slices.Clone(db.assignments), nil
}

// GetAssignment returns the assignment with the given ID
func (db *MemoryDB) GetAssignment(ctx context.Context, id string) (*model.Assignment, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, a := range db.assignments {
		if a.ID == id {
			assignment := a
			return &assignment, nil
		}
	}
	return nil, fmt.Errorf("assignment %s: %w", id, ErrNotFound)
}

// MarkReportSubmitted flips ReportSubmitted to true. It never flips it back.
func (db *MemoryDB) MarkReportSubmitted(ctx context.Context, id string, at time.Time) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.assignments {
		if db.assignments[i].ID != id {
			continue
		}
		if db.assignments[i].ReportSubmitted {
			return false, nil
		}
		submittedAt := at
		db.assignments[i].ReportSubmitted = true
		db.assignments[i].ReportSubmittedAt = &submittedAt
		db.dirty = true
		return true, nil
	}
	return false, fmt.Errorf("assignment %s: %w", id, ErrNotFound)
}

// WithPersonLock runs fn holding the person's lock. Inserts made through the
// transaction are applied only if fn succeeds.
func (db *MemoryDB) WithPersonLock(ctx context.Context, no model.PersonnelNo, fn func(tx PersonTx) error) error {
	l := db.locks.get(no)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memoryTx{db: db, no: no}
	if err := fn(tx); err != nil {
		return err
	}

	if len(tx.pending) == 0 {
		return nil
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	db.assignments = append(db.assignments, tx.pending...)
	db.dirty = true
	return nil
}

// Dirty returns true if anything changed since the store was created
func (db *MemoryDB) Dirty() bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.dirty
}

type memoryTx struct {
	db      *MemoryDB
	no      model.PersonnelNo
	pending []model.Assignment
}

func (tx *memoryTx) GetAssignmentsByPersonnelNo(ctx context.Context, no model.PersonnelNo) ([]model.Assignment, error) {
	committed, err := tx.db.GetAssignmentsByPersonnelNo(ctx, no)
	if err != nil {
		return nil, err
	}
	return append(committed, filterByPersonnelNo(tx.pending, no)...), nil
}

func (tx *memoryTx) InsertAssignment(ctx context.Context, assignment model.Assignment) error {
	if assignment.PersonnelNo != tx.no {
		return fmt.Errorf("failed to insert assignment: personnel number %s is not locked (holding %s)", assignment.PersonnelNo, tx.no)
	}
	tx.pending = append(tx.pending, assignment)
	return nil
}

func filterByPersonnelNo(assignments []model.Assignment, no model.PersonnelNo) []model.Assignment {
	var result []model.Assignment
	for _, a := range assignments {
		if a.PersonnelNo == no {
			result = append(result, a)
		}
	}
	return result
}
