package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/pkg/core/conflict"
	"github.com/jakechorley/duty-roster/pkg/core/eligibility"
	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/db"
)

// CreateAssignmentStore defines the database operations needed to create assignments
type CreateAssignmentStore interface {
	CohortStore
	db.PersonLocker
}

// BlockReasonGatekeeper is reported when the person is in the unit's excluded bottom set
const BlockReasonGatekeeper = "gatekeeper: excluded for low discipline score"

// CreateAssignmentResult reports what happened to one proposed assignment
type CreateAssignmentResult struct {
	// Assignment is nil when creation was blocked
	Assignment *model.Assignment

	// Conflict is the outcome of the conflict check. A soft warning is carried
	// alongside a created assignment.
	Conflict conflict.Result

	Blocked     bool
	BlockReason string
}

// CreateAssignment creates an assignment unless a hard conflict or the gatekeeper blocks it.
// The conflict check and the insert happen atomically for the person.
func CreateAssignment(ctx context.Context, store CreateAssignmentStore, policies Policies, logger *zap.Logger, req AssignmentRequest, today time.Time) (*CreateAssignmentResult, error) {
	candidate, err := parseCandidate(req)
	if err != nil {
		return nil, err
	}

	logger.Debug("Creating assignment",
		zap.String("personnel_no", candidate.PersonnelNo.String()),
		zap.String("kind", string(candidate.Kind)))

	person, err := store.GetPerson(ctx, candidate.PersonnelNo)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch person: %w", err)
	}

	gate, err := gatekeeperFor(ctx, store, policies, logger, person, today)
	if err != nil {
		return nil, err
	}

	return createChecked(ctx, store, logger, person, candidate, gate)
}

// gatekeeperFor evaluates the gatekeeper for the person's unit, or returns nil when it is not enforced
func gatekeeperFor(ctx context.Context, store CohortStore, policies Policies, logger *zap.Logger, person *model.Person, today time.Time) (*eligibility.Result, error) {
	if !policies.EnforceGatekeeper {
		return nil, nil
	}
	gate, err := FilterEligible(ctx, store, policies, logger, person.Unit, today)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate gatekeeper: %w", err)
	}
	return &gate, nil
}

func createChecked(ctx context.Context, store db.PersonLocker, logger *zap.Logger, person *model.Person, candidate conflict.Candidate, gate *eligibility.Result) (*CreateAssignmentResult, error) {
	if gate != nil && gate.IsExcluded(person.PersonnelNo) {
		logger.Warn("Assignment blocked by gatekeeper",
			zap.String("personnel_no", person.PersonnelNo.String()),
			zap.String("unit", person.Unit))
		return &CreateAssignmentResult{Blocked: true, BlockReason: BlockReasonGatekeeper}, nil
	}

	result := &CreateAssignmentResult{}
	err := store.WithPersonLock(ctx, person.PersonnelNo, func(tx db.PersonTx) error {
		existing, err := tx.GetAssignmentsByPersonnelNo(ctx, person.PersonnelNo)
		if err != nil {
			return fmt.Errorf("failed to fetch assignments: %w", err)
		}

		result.Conflict = conflict.Check(candidate, existing)
		if result.Conflict.Blocks() {
			result.Blocked = true
			result.BlockReason = result.Conflict.Reason
			return nil
		}

		assignment := model.Assignment{
			ID:          uuid.New().String(),
			PersonnelNo: person.PersonnelNo,
			PersonName:  person.Name,
			StartDate:   candidate.StartDate,
			EndDate:     candidate.EndDate,
			Kind:        candidate.Kind,
			CreatedAt:   time.Now().UTC(),
		}
		if err := tx.InsertAssignment(ctx, assignment); err != nil {
			return fmt.Errorf("failed to insert assignment: %w", err)
		}
		result.Assignment = &assignment
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch {
	case result.Blocked:
		logger.Warn("Assignment blocked by conflict",
			zap.String("personnel_no", person.PersonnelNo.String()),
			zap.String("reason", result.BlockReason))
	case result.Conflict.Severity == conflict.SeverityWarning:
		logger.Warn("Assignment created with warning",
			zap.String("id", result.Assignment.ID),
			zap.String("personnel_no", person.PersonnelNo.String()),
			zap.String("reason", result.Conflict.Reason))
	default:
		logger.Info("Assignment created",
			zap.String("id", result.Assignment.ID),
			zap.String("personnel_no", person.PersonnelNo.String()))
	}

	return result, nil
}
