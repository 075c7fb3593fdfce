package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/db"
)

// WithPersonLock runs fn inside a transaction holding a transaction-scoped
// advisory lock keyed on the personnel number. The lock is released on commit or rollback.
func (d *DB) WithPersonLock(ctx context.Context, no model.PersonnelNo, fn func(tx db.PersonTx) error) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, no.String()); err != nil {
		return fmt.Errorf("failed to lock personnel number %s: %w", no, err)
	}

	if err := fn(&personTx{tx: tx, no: no}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type personTx struct {
	tx pgx.Tx
	no model.PersonnelNo
}

func (p *personTx) GetAssignmentsByPersonnelNo(ctx context.Context, no model.PersonnelNo) ([]model.Assignment, error) {
	return assignmentsByPersonnelNo(ctx, p.tx, no)
}

func (p *personTx) InsertAssignment(ctx context.Context, a model.Assignment) error {
	if a.PersonnelNo != p.no {
		return fmt.Errorf("failed to insert assignment: personnel number %s is not locked (holding %s)", a.PersonnelNo, p.no)
	}

	_, err := p.tx.Exec(ctx, `
		INSERT INTO assignments (id, personnel_no, person_name, start_date, end_date, kind, report_submitted, report_submitted_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, a.ID, a.PersonnelNo.String(), a.PersonName, a.StartDate, a.EndDate, string(a.Kind), a.ReportSubmitted, a.ReportSubmittedAt, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert assignment: %w", err)
	}
	return nil
}
