package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/core/status"
	"github.com/jakechorley/duty-roster/pkg/db"
)

// SubmitReportResult reports the assignment after submission
type SubmitReportResult struct {
	Assignment *model.Assignment

	// AlreadySubmitted is true when the call changed nothing
	AlreadySubmitted bool
}

// SubmitReport records the assignment's report. Submission is one-way; repeating it is a no-op.
func SubmitReport(ctx context.Context, store db.ReportStore, logger *zap.Logger, id string, at time.Time) (*SubmitReportResult, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: assignment id is required", ErrInvalidRequest)
	}

	changed, err := store.MarkReportSubmitted(ctx, id, at)
	if err != nil {
		return nil, fmt.Errorf("failed to submit report: %w", err)
	}

	assignment, err := store.GetAssignment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assignment: %w", err)
	}

	if changed {
		logger.Info("Report submitted", zap.String("id", id), zap.String("personnel_no", assignment.PersonnelNo.String()))
	} else {
		logger.Debug("Report already submitted", zap.String("id", id))
	}

	return &SubmitReportResult{Assignment: assignment, AlreadySubmitted: !changed}, nil
}

// ListAssignmentsStore defines the database operations needed to list assignments
type ListAssignmentsStore interface {
	db.AssignmentReader
	ListAssignments(ctx context.Context) ([]model.Assignment, error)
}

// ListFilter narrows a listing. Zero values match everything.
type ListFilter struct {
	PersonnelNo string
	Status      status.Status
}

// ListAssignments returns assignments annotated with their status as of today, most urgent first
func ListAssignments(ctx context.Context, store ListAssignmentsStore, policies Policies, logger *zap.Logger, filter ListFilter, today time.Time) ([]status.Annotated, error) {
	var assignments []model.Assignment
	var err error
	if filter.PersonnelNo != "" {
		no, perr := parsePersonnelNo(filter.PersonnelNo)
		if perr != nil {
			return nil, perr
		}
		assignments, err = store.GetAssignmentsByPersonnelNo(ctx, no)
	} else {
		assignments, err = store.ListAssignments(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assignments: %w", err)
	}

	annotated := policies.Classifier.Annotate(assignments, today)
	if filter.Status != "" {
		filtered := annotated[:0]
		for _, a := range annotated {
			if a.Classification.Status == filter.Status {
				filtered = append(filtered, a)
			}
		}
		annotated = filtered
	}
	status.SortByUrgency(annotated)

	logger.Debug("Listed assignments", zap.Int("count", len(annotated)))
	return annotated, nil
}

// ClassifyStatus derives the assignment's status as of today
func ClassifyStatus(policies Policies, assignment model.Assignment, today time.Time) status.Classification {
	return policies.Classifier.Classify(assignment, today)
}
