package conflict

import (
	"fmt"
	"strings"
	"time"

	"github.com/jakechorley/duty-roster/pkg/core/clock"
	"github.com/jakechorley/duty-roster/pkg/core/model"
)

// Severity of a conflict check outcome
type Severity int

const (
	SeverityNone Severity = iota
	SeverityWarning
	SeverityHard
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityHard:
		return "hard"
	default:
		return "none"
	}
}

// Reason prefixes, stable so callers can match on them
const (
	ReasonInvalidRange = "invalid range"
	ReasonOnSite       = "on-site conflict"
	ReasonSameKind     = "same-kind overlap"
)

// Candidate is an assignment that has not been created yet
type Candidate struct {
	PersonnelNo model.PersonnelNo
	StartDate   time.Time
	EndDate     time.Time
	Kind        model.Kind
}

// Result carries exactly one outcome: a hard conflict, a soft warning, or nothing
type Result struct {
	Severity Severity
	Reason   string

	// Overlapping lists the person's existing assignments that overlap the candidate,
	// whatever their kind. Empty for an invalid range.
	Overlapping []model.Assignment
}

// Blocks returns true if the outcome must prevent creation
func (r Result) Blocks() bool {
	return r.Severity == SeverityHard
}

// Response is the shape handed to collaborators rendering the outcome
type Response struct {
	Conflict bool   `json:"conflict"`
	Hard     bool   `json:"hard"`
	Message  string `json:"message,omitempty"`
}

// Response renders the result; a soft warning is reported as a non-hard conflict
func (r Result) Response() Response {
	return Response{
		Conflict: r.Severity != SeverityNone,
		Hard:     r.Severity == SeverityHard,
		Message:  r.Reason,
	}
}

// Overlaps reports whether the inclusive ranges [s1,e1] and [s2,e2] share at least one day
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return !s1.After(e2) && !s2.After(e1)
}

// Check decides whether the candidate may be created given the existing assignments.
// Assignments belonging to other people are ignored, so callers may pass a wider snapshot.
//
// Policy:
//   - start after end: hard conflict, regardless of existing data
//   - candidate On-site overlapping an existing On-site: hard conflict
//   - overlapping an assignment of the same kind (Remote/Remote): soft warning
//   - anything else: no issue
func Check(candidate Candidate, existing []model.Assignment) Result {
	if candidate.StartDate.After(candidate.EndDate) {
		return Result{
			Severity: SeverityHard,
			Reason: fmt.Sprintf("%s: start %s is after end %s", ReasonInvalidRange,
				clock.FormatDate(candidate.StartDate), clock.FormatDate(candidate.EndDate)),
		}
	}

	var overlapping []model.Assignment
	for _, a := range existing {
		if a.PersonnelNo != candidate.PersonnelNo {
			continue
		}
		if Overlaps(candidate.StartDate, candidate.EndDate, a.StartDate, a.EndDate) {
			overlapping = append(overlapping, a)
		}
	}

	if len(overlapping) == 0 {
		return Result{Severity: SeverityNone}
	}

	var onSite, sameKind []model.Assignment
	for _, a := range overlapping {
		if a.Kind == model.KindOnSite && candidate.Kind == model.KindOnSite {
			onSite = append(onSite, a)
		}
		if a.Kind == candidate.Kind {
			sameKind = append(sameKind, a)
		}
	}

	if len(onSite) > 0 {
		return Result{
			Severity:    SeverityHard,
			Reason:      fmt.Sprintf("%s: already on-site %s", ReasonOnSite, describe(onSite)),
			Overlapping: overlapping,
		}
	}

	if len(sameKind) > 0 {
		return Result{
			Severity: SeverityWarning,
			Reason: fmt.Sprintf("%s: overlaps existing %s assignment %s",
				ReasonSameKind, candidate.Kind, describe(sameKind)),
			Overlapping: overlapping,
		}
	}

	return Result{Severity: SeverityNone, Overlapping: overlapping}
}

func describe(assignments []model.Assignment) string {
	parts := make([]string, 0, len(assignments))
	for _, a := range assignments {
		parts = append(parts, fmt.Sprintf("%s..%s", clock.FormatDate(a.StartDate), clock.FormatDate(a.EndDate)))
	}
	return strings.Join(parts, ", ")
}
