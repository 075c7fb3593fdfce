package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/pkg/core/conflict"
	"github.com/jakechorley/duty-roster/pkg/db"
)

// CheckConflict evaluates a proposed assignment against the person's existing ones.
// A hard conflict is a normal result, not an error; errors mean the request was
// malformed or the store failed.
func CheckConflict(ctx context.Context, store db.AssignmentReader, logger *zap.Logger, req AssignmentRequest) (conflict.Result, error) {
	candidate, err := parseCandidate(req)
	if err != nil {
		return conflict.Result{}, err
	}

	logger.Debug("Checking conflict",
		zap.String("personnel_no", candidate.PersonnelNo.String()),
		zap.Time("start", candidate.StartDate),
		zap.Time("end", candidate.EndDate),
		zap.String("kind", string(candidate.Kind)))

	existing, err := store.GetAssignmentsByPersonnelNo(ctx, candidate.PersonnelNo)
	if err != nil {
		return conflict.Result{}, fmt.Errorf("failed to fetch assignments: %w", err)
	}

	result := conflict.Check(candidate, existing)
	logger.Debug("Conflict check complete",
		zap.Stringer("severity", result.Severity),
		zap.String("reason", result.Reason),
		zap.Int("overlapping", len(result.Overlapping)))

	return result, nil
}
