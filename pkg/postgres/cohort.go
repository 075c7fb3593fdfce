package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/db"
)

// GetUnitCohort reads the unit's members, records and assignments inside one
// read-only repeatable-read transaction, so all three come from the same snapshot.
func (d *DB) GetUnitCohort(ctx context.Context, unit string) (*db.Cohort, error) {
	tx, err := d.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	persons, err := personsByUnit(ctx, tx, unit)
	if err != nil {
		return nil, err
	}

	cohort := &db.Cohort{
		Persons:     persons,
		Records:     make(map[model.PersonnelNo]model.DisciplineRecord),
		Assignments: make(map[model.PersonnelNo][]model.Assignment),
	}

	rows, err := tx.Query(ctx, `
		SELECT r.personnel_no, r.attendance, r.roster, r.daily_log, r.reporting
		FROM discipline_records r
		JOIN persons p ON p.personnel_no = r.personnel_no
		WHERE p.unit = $1
	`, unit)
	if err != nil {
		return nil, fmt.Errorf("failed to query discipline records: %w", err)
	}
	for rows.Next() {
		var no string
		var r model.DisciplineRecord
		if err := rows.Scan(&no, &r.Attendance, &r.Roster, &r.DailyLog, &r.Reporting); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan discipline record: %w", err)
		}
		r.PersonnelNo = model.PersonnelNo(no)
		cohort.Records[r.PersonnelNo] = r
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating discipline records: %w", err)
	}

	assignments, err := queryAssignments(ctx, tx, `
		SELECT `+qualifiedAssignmentColumns+`
		FROM assignments a
		JOIN persons p ON p.personnel_no = a.personnel_no
		WHERE p.unit = $1
		ORDER BY a.created_at, a.id
	`, unit)
	if err != nil {
		return nil, err
	}
	for _, a := range assignments {
		cohort.Assignments[a.PersonnelNo] = append(cohort.Assignments[a.PersonnelNo], a)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return cohort, nil
}
