package eligibility

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/jakechorley/duty-roster/pkg/core/model"
)

// DefaultExcludeCount is the size of the bottom cohort barred from new assignments
const DefaultExcludeCount = 5

// Member is one person in a cohort. Score is nil when the person has no discipline record.
type Member struct {
	Person model.Person
	Score  *int
}

// Ranked is a scored person
type Ranked struct {
	Person model.Person
	Score  int
}

// Result partitions a cohort for new-assignment eligibility
type Result struct {
	// Eligible keeps cohort input order and includes unscored members
	Eligible []model.Person

	// ExcludedBottom is sorted by ascending score, ties in cohort input order
	ExcludedBottom []Ranked

	// Unscored members could not be ranked and are not excluded
	Unscored []model.Person

	// Enabled is false when the cohort was too small for the rule to apply
	Enabled bool
	Warning string
}

// IsExcluded returns true if the personnel number is in the excluded bottom set
func (r Result) IsExcluded(no model.PersonnelNo) bool {
	return slices.ContainsFunc(r.ExcludedBottom, func(rp Ranked) bool {
		return rp.Person.PersonnelNo == no
	})
}

// Gatekeeper bars the lowest scoring members of a cohort from new assignments
type Gatekeeper struct {
	ExcludeCount int
}

// NewGatekeeper creates a Gatekeeper excluding the given number of members
func NewGatekeeper(excludeCount int) Gatekeeper {
	return Gatekeeper{ExcludeCount: excludeCount}
}

// Filter partitions the cohort. Only scored members are ranked; when there are
// no more scored members than ExcludeCount the rule is disabled and everyone is eligible.
func (g Gatekeeper) Filter(cohort []Member) Result {
	result := Result{
		Eligible:       []model.Person{},
		ExcludedBottom: []Ranked{},
		Unscored:       []model.Person{},
	}

	var ranked []Ranked
	for _, m := range cohort {
		if m.Score == nil {
			result.Unscored = append(result.Unscored, m.Person)
			continue
		}
		ranked = append(ranked, Ranked{Person: m.Person, Score: *m.Score})
	}

	if len(ranked) <= g.ExcludeCount {
		for _, m := range cohort {
			result.Eligible = append(result.Eligible, m.Person)
		}
		result.Warning = fmt.Sprintf(
			"gatekeeper disabled: cohort has %d scored members, needs more than %d",
			len(ranked), g.ExcludeCount)
		return result
	}

	// Stable: equal scores keep cohort order
	slices.SortStableFunc(ranked, func(a, b Ranked) int {
		return cmp.Compare(a.Score, b.Score)
	})

	result.Enabled = true
	result.ExcludedBottom = ranked[:g.ExcludeCount]

	for _, m := range cohort {
		if !result.IsExcluded(m.Person.PersonnelNo) {
			result.Eligible = append(result.Eligible, m.Person)
		}
	}

	return result
}
