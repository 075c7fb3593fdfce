package db

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/duty-roster/pkg/core/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestMemoryDB() *MemoryDB {
	persons := []model.Person{
		{ID: "p1", PersonnelNo: "1001", Name: "Alice", Unit: "north"},
		{ID: "p2", PersonnelNo: "1002", Name: "Bob", Unit: "north"},
		{ID: "p3", PersonnelNo: "2001", Name: "Carol", Unit: "south"},
	}
	assignments := []model.Assignment{
		{ID: "a1", PersonnelNo: "1001", StartDate: day(2025, 3, 1), EndDate: day(2025, 3, 3), Kind: model.KindOnSite},
		{ID: "a2", PersonnelNo: "1002", StartDate: day(2025, 3, 2), EndDate: day(2025, 3, 4), Kind: model.KindRemote},
		{ID: "a3", PersonnelNo: "1001", StartDate: day(2025, 3, 10), EndDate: day(2025, 3, 12), Kind: model.KindRemote},
	}
	records := []model.DisciplineRecord{
		{PersonnelNo: "1001", Attendance: 90, Roster: 80, DailyLog: 70, Reporting: 85},
	}
	return NewMemoryDB(persons, assignments, records)
}

func TestMemoryDB_GetPerson(t *testing.T) {
	ctx := context.Background()
	store := newTestMemoryDB()

	person, err := store.GetPerson(ctx, "1002")
	require.NoError(t, err)
	assert.Equal(t, "Bob", person.Name)

	_, err = store.GetPerson(ctx, "9999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryDB_GetPersonsByUnit(t *testing.T) {
	ctx := context.Background()
	store := newTestMemoryDB()

	persons, err := store.GetPersonsByUnit(ctx, "north")
	require.NoError(t, err)
	require.Len(t, persons, 2)
	assert.Equal(t, model.PersonnelNo("1001"), persons[0].PersonnelNo)
	assert.Equal(t, model.PersonnelNo("1002"), persons[1].PersonnelNo)

	persons, err = store.GetPersonsByUnit(ctx, "east")
	require.NoError(t, err)
	assert.Empty(t, persons)
}

func TestMemoryDB_GetDisciplineRecord(t *testing.T) {
	ctx := context.Background()
	store := newTestMemoryDB()

	record, err := store.GetDisciplineRecord(ctx, "1001")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, 85, record.Reporting)

	record, err = store.GetDisciplineRecord(ctx, "1002")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestMemoryDB_GetAssignmentsByPersonnelNo(t *testing.T) {
	ctx := context.Background()
	store := newTestMemoryDB()

	assignments, err := store.GetAssignmentsByPersonnelNo(ctx, "1001")
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.Equal(t, "a1", assignments[0].ID)
	assert.Equal(t, "a3", assignments[1].ID)
}

func TestMemoryDB_ReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	store := newTestMemoryDB()

	all, err := store.ListAssignments(ctx)
	require.NoError(t, err)
	all[0].ReportSubmitted = true

	a, err := store.GetAssignment(ctx, "a1")
	require.NoError(t, err)
	assert.False(t, a.ReportSubmitted)
}

func TestMemoryDB_MarkReportSubmitted(t *testing.T) {
	ctx := context.Background()
	store := newTestMemoryDB()
	at := time.Date(2025, 3, 4, 9, 30, 0, 0, time.UTC)

	changed, err := store.MarkReportSubmitted(ctx, "a1", at)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, store.Dirty())

	a, err := store.GetAssignment(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, a.ReportSubmitted)
	require.NotNil(t, a.ReportSubmittedAt)
	assert.Equal(t, at, *a.ReportSubmittedAt)

	// A second submission keeps the first timestamp
	changed, err = store.MarkReportSubmitted(ctx, "a1", at.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)
	a, err = store.GetAssignment(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, at, *a.ReportSubmittedAt)

	_, err = store.MarkReportSubmitted(ctx, "missing", at)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryDB_WithPersonLock_CommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	store := newTestMemoryDB()
	assert.False(t, store.Dirty())

	err := store.WithPersonLock(ctx, "1002", func(tx PersonTx) error {
		return tx.InsertAssignment(ctx, model.Assignment{
			ID: "new", PersonnelNo: "1002", StartDate: day(2025, 4, 1), EndDate: day(2025, 4, 2), Kind: model.KindOnSite,
		})
	})
	require.NoError(t, err)
	assert.True(t, store.Dirty())

	assignments, err := store.GetAssignmentsByPersonnelNo(ctx, "1002")
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.Equal(t, "new", assignments[1].ID)
}

func TestMemoryDB_WithPersonLock_DiscardsOnError(t *testing.T) {
	ctx := context.Background()
	store := newTestMemoryDB()
	boom := errors.New("boom")

	err := store.WithPersonLock(ctx, "1002", func(tx PersonTx) error {
		require.NoError(t, tx.InsertAssignment(ctx, model.Assignment{
			ID: "new", PersonnelNo: "1002", StartDate: day(2025, 4, 1), EndDate: day(2025, 4, 2), Kind: model.KindOnSite,
		}))

		// The transaction sees its own pending insert
		visible, err := tx.GetAssignmentsByPersonnelNo(ctx, "1002")
		require.NoError(t, err)
		assert.Len(t, visible, 2)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, store.Dirty())

	assignments, err := store.GetAssignmentsByPersonnelNo(ctx, "1002")
	require.NoError(t, err)
	assert.Len(t, assignments, 1)
}

func TestMemoryDB_WithPersonLock_RejectsOtherPerson(t *testing.T) {
	ctx := context.Background()
	store := newTestMemoryDB()

	err := store.WithPersonLock(ctx, "1001", func(tx PersonTx) error {
		return tx.InsertAssignment(ctx, model.Assignment{ID: "x", PersonnelNo: "1002"})
	})
	assert.Error(t, err)
	assert.False(t, store.Dirty())
}

func TestMemoryDB_WithPersonLock_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := newTestMemoryDB()

	called := false
	err := store.WithPersonLock(ctx, "1001", func(tx PersonTx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestMemoryDB_WithPersonLock_SerialisesSamePerson(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDB(nil, nil, nil)
	errOverlap := errors.New("overlap")

	const workers = 20
	var created atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		id := string(rune('a' + i))
		g.Go(func() error {
			err := store.WithPersonLock(gctx, "1001", func(tx PersonTx) error {
				existing, err := tx.GetAssignmentsByPersonnelNo(gctx, "1001")
				if err != nil {
					return err
				}
				if len(existing) > 0 {
					return errOverlap
				}
				return tx.InsertAssignment(gctx, model.Assignment{
					ID: id, PersonnelNo: "1001", StartDate: day(2025, 5, 1), EndDate: day(2025, 5, 3), Kind: model.KindOnSite,
				})
			})
			if errors.Is(err, errOverlap) {
				return nil
			}
			if err == nil {
				created.Add(1)
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), created.Load())
	assignments, err := store.GetAssignmentsByPersonnelNo(ctx, "1001")
	require.NoError(t, err)
	assert.Len(t, assignments, 1)
}

func TestMemoryDB_GetUnitCohort(t *testing.T) {
	ctx := context.Background()
	store := newTestMemoryDB()

	cohort, err := store.GetUnitCohort(ctx, "north")
	require.NoError(t, err)
	require.Len(t, cohort.Persons, 2)
	assert.Equal(t, "Alice", cohort.Persons[0].Name)
	assert.Equal(t, "Bob", cohort.Persons[1].Name)

	require.Len(t, cohort.Records, 1)
	assert.Equal(t, 85, cohort.Records["1001"].Reporting)

	require.Len(t, cohort.Assignments["1001"], 2)
	assert.Equal(t, "a1", cohort.Assignments["1001"][0].ID)
	assert.Equal(t, "a3", cohort.Assignments["1001"][1].ID)
	require.Len(t, cohort.Assignments["1002"], 1)
	assert.NotContains(t, cohort.Assignments, model.PersonnelNo("2001"))

	cohort, err = store.GetUnitCohort(ctx, "east")
	require.NoError(t, err)
	assert.Empty(t, cohort.Persons)
}

func TestMemoryDB_GetUnitCohort_IsACopy(t *testing.T) {
	ctx := context.Background()
	store := newTestMemoryDB()

	before, err := store.GetUnitCohort(ctx, "north")
	require.NoError(t, err)

	_, err = store.MarkReportSubmitted(ctx, "a1", time.Now())
	require.NoError(t, err)

	// Earlier reads are unaffected by later writes
	assert.False(t, before.Assignments["1001"][0].ReportSubmitted)

	after, err := store.GetUnitCohort(ctx, "north")
	require.NoError(t, err)
	assert.True(t, after.Assignments["1001"][0].ReportSubmitted)
}
