package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/db"
)

const personColumns = `id, personnel_no, name, unit, default_kind, default_cost_source`

func scanPerson(row pgx.Row) (model.Person, error) {
	var p model.Person
	var no string
	var defaultKind, costSource *string
	if err := row.Scan(&p.ID, &no, &p.Name, &p.Unit, &defaultKind, &costSource); err != nil {
		return model.Person{}, err
	}
	p.PersonnelNo = model.PersonnelNo(no)
	if defaultKind != nil {
		p.DefaultKind = model.Kind(*defaultKind)
	}
	if costSource != nil {
		p.DefaultCostSource = *costSource
	}
	return p, nil
}

// GetPerson retrieves a person by personnel number
func (d *DB) GetPerson(ctx context.Context, no model.PersonnelNo) (*model.Person, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+personColumns+` FROM persons WHERE personnel_no = $1`, no.String())
	p, err := scanPerson(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("person %s: %w", no, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query person: %w", err)
	}
	return &p, nil
}

// GetPersonsByUnit retrieves every member of a unit in import order
func (d *DB) GetPersonsByUnit(ctx context.Context, unit string) ([]model.Person, error) {
	return personsByUnit(ctx, d.pool, unit)
}

func personsByUnit(ctx context.Context, q querier, unit string) ([]model.Person, error) {
	rows, err := q.Query(ctx, `SELECT `+personColumns+` FROM persons WHERE unit = $1 ORDER BY import_seq`, unit)
	if err != nil {
		return nil, fmt.Errorf("failed to query persons: %w", err)
	}
	defer rows.Close()

	var persons []model.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		persons = append(persons, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating persons: %w", err)
	}

	return persons, nil
}

// ImportRoster upserts persons and their base discipline records in one transaction.
// New persons are numbered in slice order; re-imported persons keep their position.
func (d *DB) ImportRoster(ctx context.Context, persons []model.Person, records []model.DisciplineRecord) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, p := range persons {
		var defaultKind, costSource *string
		if p.DefaultKind != "" {
			k := string(p.DefaultKind)
			defaultKind = &k
		}
		if p.DefaultCostSource != "" {
			costSource = &p.DefaultCostSource
		}
		batch.Queue(`
			INSERT INTO persons (id, personnel_no, name, unit, default_kind, default_cost_source)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (personnel_no) DO UPDATE
			SET name = EXCLUDED.name, unit = EXCLUDED.unit,
				default_kind = EXCLUDED.default_kind, default_cost_source = EXCLUDED.default_cost_source
		`, p.ID, p.PersonnelNo.String(), p.Name, p.Unit, defaultKind, costSource)
	}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO discipline_records (personnel_no, attendance, roster, daily_log, reporting)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (personnel_no) DO UPDATE
			SET attendance = EXCLUDED.attendance, roster = EXCLUDED.roster,
				daily_log = EXCLUDED.daily_log, reporting = EXCLUDED.reporting
		`, r.PersonnelNo.String(), r.Attendance, r.Roster, r.DailyLog, r.Reporting)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to import roster: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
