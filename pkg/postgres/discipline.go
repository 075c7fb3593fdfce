package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/duty-roster/pkg/core/model"
)

// GetDisciplineRecord retrieves a person's base discipline record.
// It returns nil without error when there is none.
func (d *DB) GetDisciplineRecord(ctx context.Context, no model.PersonnelNo) (*model.DisciplineRecord, error) {
	r := model.DisciplineRecord{PersonnelNo: no}
	err := d.pool.QueryRow(ctx, `
		SELECT attendance, roster, daily_log, reporting
		FROM discipline_records
		WHERE personnel_no = $1
	`, no.String()).Scan(&r.Attendance, &r.Roster, &r.DailyLog, &r.Reporting)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query discipline record: %w", err)
	}
	return &r, nil
}
