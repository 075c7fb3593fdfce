package services

import (
	"context"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/internal/config"
	"github.com/jakechorley/duty-roster/pkg/core/clock"
	"github.com/jakechorley/duty-roster/pkg/core/conflict"
	"github.com/jakechorley/duty-roster/pkg/core/model"
)

// maxRecurringOccurrences bounds a single expansion
const maxRecurringOccurrences = 366

// RecurringRequest asks for a recurring duty to be expanded for one person
type RecurringRequest struct {
	PersonnelNo string `validate:"required"`
	From        string `validate:"required"`
	To          string `validate:"required"`
}

// RecurringOccurrence is the outcome for one expanded date
type RecurringOccurrence struct {
	StartDate time.Time
	EndDate   time.Time
	Result    *CreateAssignmentResult
}

// RecurringResult lists every occurrence in date order
type RecurringResult struct {
	Duty        string
	Occurrences []RecurringOccurrence
}

// Created returns the number of occurrences that produced an assignment
func (r *RecurringResult) Created() int {
	n := 0
	for _, o := range r.Occurrences {
		if o.Result.Assignment != nil {
			n++
		}
	}
	return n
}

// CreateRecurringAssignments expands the duty's RRULE between From and To (inclusive) and
// creates one assignment of DurationDays per occurrence. Every occurrence goes through the
// same gate as CreateAssignment; a blocked occurrence does not stop the rest.
func CreateRecurringAssignments(ctx context.Context, store CreateAssignmentStore, policies Policies, logger *zap.Logger, duty config.RecurringDuty, req RecurringRequest, today time.Time) (*RecurringResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	no, err := parsePersonnelNo(req.PersonnelNo)
	if err != nil {
		return nil, err
	}
	from, err := clock.ParseDate(req.From)
	if err != nil {
		return nil, fmt.Errorf("%w: from: %w", ErrInvalidRequest, err)
	}
	to, err := clock.ParseDate(req.To)
	if err != nil {
		return nil, fmt.Errorf("%w: to: %w", ErrInvalidRequest, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: to %s is before from %s", ErrInvalidRequest, req.To, req.From)
	}
	kind, err := model.ParseKind(duty.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: duty %s: %w", ErrInvalidRequest, duty.Name, err)
	}

	dates, err := expandRRule(duty.RRule, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to expand duty %s: %w", duty.Name, err)
	}
	if len(dates) > maxRecurringOccurrences {
		return nil, fmt.Errorf("%w: duty %s expands to %d occurrences, limit is %d", ErrInvalidRequest, duty.Name, len(dates), maxRecurringOccurrences)
	}

	logger.Debug("Expanded recurring duty",
		zap.String("duty", duty.Name),
		zap.String("rrule", duty.RRule),
		zap.Int("occurrences", len(dates)))

	person, err := store.GetPerson(ctx, no)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch person: %w", err)
	}

	// The gatekeeper is evaluated once; creations below do not change any score today
	gate, err := gatekeeperFor(ctx, store, policies, logger, person, today)
	if err != nil {
		return nil, err
	}

	result := &RecurringResult{Duty: duty.Name}
	for _, start := range dates {
		end := start.AddDate(0, 0, duty.DurationDays-1)
		candidate := conflict.Candidate{PersonnelNo: no, StartDate: start, EndDate: end, Kind: kind}

		outcome, err := createChecked(ctx, store, logger, person, candidate, gate)
		if err != nil {
			return nil, fmt.Errorf("failed to create occurrence %s: %w", clock.FormatDate(start), err)
		}
		result.Occurrences = append(result.Occurrences, RecurringOccurrence{StartDate: start, EndDate: end, Result: outcome})
	}

	logger.Info("Recurring duty expanded",
		zap.String("duty", duty.Name),
		zap.String("personnel_no", no.String()),
		zap.Int("occurrences", len(result.Occurrences)),
		zap.Int("created", result.Created()))

	return result, nil
}

// expandRRule returns the rule's occurrence dates within [from, to].
// A rule without its own DTSTART is anchored at from.
func expandRRule(rule string, from, to time.Time) ([]time.Time, error) {
	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rrule: %w", err)
	}
	if opt.Dtstart.IsZero() {
		opt.Dtstart = from
	}
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build rrule: %w", err)
	}

	// Include the whole of the last day
	occurrences := r.Between(from, to.AddDate(0, 0, 1).Add(-time.Nanosecond), true)

	dates := make([]time.Time, 0, len(occurrences))
	for _, o := range occurrences {
		dates = append(dates, clock.Date(o))
	}
	return dates, nil
}
