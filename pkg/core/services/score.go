package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/duty-roster/pkg/core/discipline"
	"github.com/jakechorley/duty-roster/pkg/core/eligibility"
	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/db"
)

// ScoreStore defines the database operations needed to score a person
type ScoreStore interface {
	db.DisciplineReader
	db.AssignmentReader
}

// CohortStore defines the database operations needed to score a whole unit
type CohortStore interface {
	db.PersonReader
	db.CohortReader
}

// maxConcurrentUnits bounds how many unit cohorts UnitScores reads at once
const maxConcurrentUnits = 8

// ComputeScore returns the person's discipline breakdown as of today,
// or nil if the person has no discipline record.
func ComputeScore(ctx context.Context, store ScoreStore, policies Policies, logger *zap.Logger, personnelNo string, today time.Time) (*discipline.Breakdown, error) {
	no, err := parsePersonnelNo(personnelNo)
	if err != nil {
		return nil, err
	}

	logger.Debug("Computing discipline score", zap.String("personnel_no", no.String()), zap.Time("today", today))

	return scorePerson(ctx, store, policies, no, today)
}

func scorePerson(ctx context.Context, store ScoreStore, policies Policies, no model.PersonnelNo, today time.Time) (*discipline.Breakdown, error) {
	record, err := store.GetDisciplineRecord(ctx, no)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discipline record: %w", err)
	}
	if record == nil {
		return nil, nil
	}

	assignments, err := store.GetAssignmentsByPersonnelNo(ctx, no)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assignments: %w", err)
	}

	breakdown := policies.Scorer.Score(*record, assignments, today)
	return &breakdown, nil
}

// cohortMember is a unit member together with their breakdown, if scored
type cohortMember struct {
	Person    model.Person
	Breakdown *discipline.Breakdown
}

// loadCohort scores every member of the unit from a single cohort read,
// keeping the store's member order
func loadCohort(ctx context.Context, store CohortStore, policies Policies, logger *zap.Logger, unit string, today time.Time) ([]cohortMember, error) {
	cohort, err := store.GetUnitCohort(ctx, unit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unit cohort: %w", err)
	}

	logger.Debug("Loaded cohort", zap.String("unit", unit), zap.Int("members", len(cohort.Persons)))

	members := make([]cohortMember, 0, len(cohort.Persons))
	for _, p := range cohort.Persons {
		member := cohortMember{Person: p}
		if record, ok := cohort.Records[p.PersonnelNo]; ok {
			breakdown := policies.Scorer.Score(record, cohort.Assignments[p.PersonnelNo], today)
			member.Breakdown = &breakdown
		}
		members = append(members, member)
	}
	return members, nil
}

// UnitScoreResult is the team-level discipline summary
type UnitScoreResult struct {
	Unit string

	// Average is only meaningful when Scored > 0
	Average int
	Scored  int
	Members int

	Breakdowns []discipline.Breakdown
}

// UnitScore averages the final scores of the unit's scored members
func UnitScore(ctx context.Context, store CohortStore, policies Policies, logger *zap.Logger, unit string, today time.Time) (*UnitScoreResult, error) {
	members, err := loadCohort(ctx, store, policies, logger, unit, today)
	if err != nil {
		return nil, err
	}

	result := &UnitScoreResult{Unit: unit, Members: len(members)}
	var finals []int
	for _, m := range members {
		if m.Breakdown == nil {
			continue
		}
		result.Breakdowns = append(result.Breakdowns, *m.Breakdown)
		finals = append(finals, m.Breakdown.Final)
	}
	result.Scored = len(finals)
	if avg, ok := discipline.Average(finals); ok {
		result.Average = avg
	}

	logger.Debug("Unit score computed",
		zap.String("unit", unit),
		zap.Int("members", result.Members),
		zap.Int("scored", result.Scored),
		zap.Int("average", result.Average))

	return result, nil
}

// UnitScores computes UnitScore for several units concurrently.
// Results are in the order of units; each unit is read in its own snapshot.
func UnitScores(ctx context.Context, store CohortStore, policies Policies, logger *zap.Logger, units []string, today time.Time) ([]*UnitScoreResult, error) {
	results := make([]*UnitScoreResult, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentUnits)
	for i, unit := range units {
		g.Go(func() error {
			result, err := UnitScore(gctx, store, policies, logger, unit, today)
			if err != nil {
				return fmt.Errorf("failed to score unit %s: %w", unit, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// FilterEligible applies the gatekeeper rule to the unit as of today
func FilterEligible(ctx context.Context, store CohortStore, policies Policies, logger *zap.Logger, unit string, today time.Time) (eligibility.Result, error) {
	members, err := loadCohort(ctx, store, policies, logger, unit, today)
	if err != nil {
		return eligibility.Result{}, err
	}

	cohort := make([]eligibility.Member, 0, len(members))
	for _, m := range members {
		member := eligibility.Member{Person: m.Person}
		if m.Breakdown != nil {
			final := m.Breakdown.Final
			member.Score = &final
		}
		cohort = append(cohort, member)
	}

	result := policies.Gatekeeper.Filter(cohort)
	if !result.Enabled {
		logger.Warn("Gatekeeper disabled", zap.String("unit", unit), zap.String("reason", result.Warning))
	} else {
		logger.Debug("Gatekeeper applied",
			zap.String("unit", unit),
			zap.Int("eligible", len(result.Eligible)),
			zap.Int("excluded", len(result.ExcludedBottom)),
			zap.Int("unscored", len(result.Unscored)))
	}

	return result, nil
}

// IdleDays returns how many days the person has gone without an assignment
func IdleDays(ctx context.Context, store db.AssignmentReader, policies Policies, logger *zap.Logger, personnelNo string, today time.Time) (int, error) {
	no, err := parsePersonnelNo(personnelNo)
	if err != nil {
		return 0, err
	}

	assignments, err := store.GetAssignmentsByPersonnelNo(ctx, no)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch assignments: %w", err)
	}

	days := policies.Idle.IdleDays(assignments, today)
	logger.Debug("Idle days computed", zap.String("personnel_no", no.String()), zap.Int("days", days))
	return days, nil
}
