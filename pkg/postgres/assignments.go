package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/db"
)

// querier is satisfied by both the pool and an open transaction
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const assignmentColumns = `id, personnel_no, person_name, start_date, end_date, kind, report_submitted, report_submitted_at, created_at`

// qualifiedAssignmentColumns is assignmentColumns for queries joining on alias a
const qualifiedAssignmentColumns = `a.id, a.personnel_no, a.person_name, a.start_date, a.end_date, a.kind, a.report_submitted, a.report_submitted_at, a.created_at`

func scanAssignment(row pgx.Row) (model.Assignment, error) {
	var a model.Assignment
	var no, kind string
	if err := row.Scan(&a.ID, &no, &a.PersonName, &a.StartDate, &a.EndDate, &kind, &a.ReportSubmitted, &a.ReportSubmittedAt, &a.CreatedAt); err != nil {
		return model.Assignment{}, err
	}
	a.PersonnelNo = model.PersonnelNo(no)
	a.Kind = model.Kind(kind)
	a.StartDate = a.StartDate.UTC()
	a.EndDate = a.EndDate.UTC()
	return a, nil
}

func queryAssignments(ctx context.Context, q querier, sql string, args ...any) ([]model.Assignment, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}

	return assignments, nil
}

func assignmentsByPersonnelNo(ctx context.Context, q querier, no model.PersonnelNo) ([]model.Assignment, error) {
	return queryAssignments(ctx, q, `
		SELECT `+assignmentColumns+`
		FROM assignments
		WHERE personnel_no = $1
		ORDER BY created_at, id
	`, no.String())
}

// GetAssignmentsByPersonnelNo retrieves a person's assignments in creation order
func (d *DB) GetAssignmentsByPersonnelNo(ctx context.Context, no model.PersonnelNo) ([]model.Assignment, error) {
	return assignmentsByPersonnelNo(ctx, d.pool, no)
}

// ListAssignments retrieves every assignment in creation order
func (d *DB) ListAssignments(ctx context.Context) ([]model.Assignment, error) {
	return queryAssignments(ctx, d.pool, `
		SELECT `+assignmentColumns+`
		FROM assignments
		ORDER BY created_at, id
	`)
}

// GetAssignment retrieves a single assignment by ID
func (d *DB) GetAssignment(ctx context.Context, id string) (*model.Assignment, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id = $1`, id)
	a, err := scanAssignment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("assignment %s: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query assignment: %w", err)
	}
	return &a, nil
}

// MarkReportSubmitted sets report_submitted once. Later calls leave the row untouched.
func (d *DB) MarkReportSubmitted(ctx context.Context, id string, at time.Time) (bool, error) {
	tag, err := d.pool.Exec(ctx, `
		UPDATE assignments
		SET report_submitted = TRUE, report_submitted_at = $2
		WHERE id = $1 AND NOT report_submitted
	`, id, at)
	if err != nil {
		return false, fmt.Errorf("failed to mark report submitted: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	// Distinguish "already submitted" from "no such assignment"
	if _, err := d.GetAssignment(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}
