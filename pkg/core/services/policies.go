package services

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/jakechorley/duty-roster/internal/config"
	"github.com/jakechorley/duty-roster/pkg/core/clock"
	"github.com/jakechorley/duty-roster/pkg/core/conflict"
	"github.com/jakechorley/duty-roster/pkg/core/discipline"
	"github.com/jakechorley/duty-roster/pkg/core/eligibility"
	"github.com/jakechorley/duty-roster/pkg/core/idle"
	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/core/status"
)

// ErrInvalidRequest is wrapped by every error caused by malformed caller input
var ErrInvalidRequest = errors.New("invalid request")

var validate = validator.New()

// Policies bundles the configured core components used by the services
type Policies struct {
	Classifier        status.Classifier
	Scorer            discipline.Scorer
	Gatekeeper        eligibility.Gatekeeper
	Idle              idle.Tracker
	EnforceGatekeeper bool
}

// DefaultPolicies returns the standard policy values
func DefaultPolicies() Policies {
	cfg := config.Default()
	return PoliciesFromConfig(cfg.Policy)
}

// PoliciesFromConfig builds the core components from configured policy values
func PoliciesFromConfig(p config.Policy) Policies {
	return Policies{
		Classifier: status.NewClassifier(p.EndingSoonDays),
		Scorer: discipline.NewScorer(discipline.Weights{
			Attendance: p.Weights.Attendance,
			Roster:     p.Weights.Roster,
			DailyLog:   p.Weights.DailyLog,
			Reporting:  p.Weights.Reporting,
		}, p.LatePenaltyPoints),
		Gatekeeper:        eligibility.NewGatekeeper(p.GatekeeperExcludeCount),
		Idle:              idle.NewTracker(p.IdleSentinelDays),
		EnforceGatekeeper: p.EnforceGatekeeper,
	}
}

// AssignmentRequest is a proposed assignment as received from a caller
type AssignmentRequest struct {
	PersonnelNo string `validate:"required"`
	StartDate   string `validate:"required"`
	EndDate     string `validate:"required"`
	Kind        string `validate:"required"`
}

// parseCandidate validates the request and converts it to core types.
// The returned error wraps ErrInvalidRequest and, where applicable, the parsing sentinel.
func parseCandidate(req AssignmentRequest) (conflict.Candidate, error) {
	if err := validate.Struct(req); err != nil {
		return conflict.Candidate{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	no, err := parsePersonnelNo(req.PersonnelNo)
	if err != nil {
		return conflict.Candidate{}, err
	}
	start, err := clock.ParseDate(req.StartDate)
	if err != nil {
		return conflict.Candidate{}, fmt.Errorf("%w: start date: %w", ErrInvalidRequest, err)
	}
	end, err := clock.ParseDate(req.EndDate)
	if err != nil {
		return conflict.Candidate{}, fmt.Errorf("%w: end date: %w", ErrInvalidRequest, err)
	}
	kind, err := model.ParseKind(req.Kind)
	if err != nil {
		return conflict.Candidate{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	return conflict.Candidate{PersonnelNo: no, StartDate: start, EndDate: end, Kind: kind}, nil
}

func parsePersonnelNo(raw string) (model.PersonnelNo, error) {
	no, err := model.NewPersonnelNo(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return no, nil
}
