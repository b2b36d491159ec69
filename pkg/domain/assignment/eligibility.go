package assignment

import (
	"github.com/dealerdesk/api/pkg/domain/role"
)

// Candidate is a prospective manager, annotated with its own scope
// assignment as reported by the directory.
type Candidate struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	RoleName    role.Name `json:"role_name"`
	RegionID    string    `json:"region_id,omitempty"`
	AreaID      string    `json:"area_id,omitempty"`
	TerritoryID string    `json:"territory_id,omitempty"`
	DealerID    string    `json:"dealer_id,omitempty"`
}

// Evaluation is a candidate annotated with the eligibility outcome. A
// non-eligible candidate still surfaces, flagged with the disqualifying
// mismatch, so admins overriding in edge cases always see the label.
type Evaluation struct {
	Candidate Candidate `json:"candidate"`
	Eligible  bool      `json:"eligible"`
	Warning   string    `json:"warning,omitempty"`
}

// Mismatch warning labels.
const (
	WarnDifferentRegion    = "different region"
	WarnDifferentArea      = "different area"
	WarnDifferentTerritory = "different territory"
	WarnDifferentDealer    = "different dealer"
)

// pairPredicate decides whether a candidate's scope is compatible with the
// draft for one target role. It returns ok=false with the mismatch label when
// the candidate should surface flagged rather than eligible.
type pairPredicate func(d Draft, c Candidate) (ok bool, warning string)

// predicates is the strategy table keyed by target role. Roles absent from
// the table use the generic scope-equality rule. The role-specific predicate
// is authoritative for the candidate roles it names; the generic rule is the
// lower-priority default for everything else.
var predicates = map[role.Name]pairPredicate{
	role.RegionalManager:  regionalManagerPredicate,
	role.AreaManager:      areaManagerPredicate,
	role.TerritoryManager: territoryManagerPredicate,
	role.SalesExecutive:   salesExecutivePredicate,
	role.DealerAdmin:      dealerScopedPredicate,
	role.DealerStaff:      dealerScopedPredicate,
}

// ResolveManagers filters and annotates the candidate pool for the target
// role and draft scope. Candidates whose role is not in the target's eligible
// manager list are dropped outright; candidates failing the role-pair scope
// predicate are returned flagged. The result is recomputed from scratch on
// every call.
//
// For dealer-scoped target roles with no dealer selected yet there is nothing
// to anchor candidates to, so the result is empty.
func ResolveManagers(target role.Definition, d Draft, pool []Candidate) []Evaluation {
	if !target.HasManager() {
		return []Evaluation{}
	}
	if target.DealerScoped() && d.DealerID == "" {
		return []Evaluation{}
	}

	predicate, ok := predicates[target.Name]
	if !ok {
		predicate = genericScopePredicate
	}

	out := make([]Evaluation, 0, len(pool))
	for _, c := range pool {
		if !target.AllowsManagerRole(c.RoleName) {
			continue
		}
		eligible, warning := predicate(d, c)
		out = append(out, Evaluation{
			Candidate: c,
			Eligible:  eligible,
			Warning:   warning,
		})
	}
	return out
}

// Eligible returns only the eligible candidates from an evaluation list.
func Eligible(evals []Evaluation) []Candidate {
	out := make([]Candidate, 0, len(evals))
	for _, e := range evals {
		if e.Eligible {
			out = append(out, e.Candidate)
		}
	}
	return out
}

// FindCandidate locates a candidate by ID in an evaluation list.
func FindCandidate(evals []Evaluation, id string) (Evaluation, bool) {
	for _, e := range evals {
		if e.Candidate.ID == id {
			return e, true
		}
	}
	return Evaluation{}, false
}

// regionalManagerPredicate: a regional_admin candidate must share the draft's
// region; other candidate roles are unconstrained by geography.
func regionalManagerPredicate(d Draft, c Candidate) (bool, string) {
	if c.RoleName == role.RegionalAdmin {
		return matchScope(d.RegionID, c.RegionID, WarnDifferentRegion)
	}
	return true, ""
}

// areaManagerPredicate: regional_manager and regional_admin candidates must
// share the draft's region.
func areaManagerPredicate(d Draft, c Candidate) (bool, string) {
	switch c.RoleName {
	case role.RegionalManager, role.RegionalAdmin:
		return matchScope(d.RegionID, c.RegionID, WarnDifferentRegion)
	}
	return genericScopePredicate(d, c)
}

// territoryManagerPredicate: an area_manager candidate must share the draft's
// area, falling back to the region when no area is selected yet.
func territoryManagerPredicate(d Draft, c Candidate) (bool, string) {
	if c.RoleName == role.AreaManager {
		if d.AreaID != "" {
			return matchScope(d.AreaID, c.AreaID, WarnDifferentArea)
		}
		return matchScope(d.RegionID, c.RegionID, WarnDifferentRegion)
	}
	return genericScopePredicate(d, c)
}

// salesExecutivePredicate: a territory_manager candidate must match the most
// specific geographic field set on the draft; other candidates fall back to
// the generic rule.
func salesExecutivePredicate(d Draft, c Candidate) (bool, string) {
	if c.RoleName == role.TerritoryManager {
		switch {
		case d.TerritoryID != "":
			return matchScope(d.TerritoryID, c.TerritoryID, WarnDifferentTerritory)
		case d.AreaID != "":
			return matchScope(d.AreaID, c.AreaID, WarnDifferentArea)
		case d.RegionID != "":
			return matchScope(d.RegionID, c.RegionID, WarnDifferentRegion)
		}
		return true, ""
	}
	return genericScopePredicate(d, c)
}

// dealerScopedPredicate: a candidate carrying a dealer must belong to the
// draft's dealer. Candidates without a dealer of their own (field roles
// overseeing the dealer) fall back to the generic geographic rule.
func dealerScopedPredicate(d Draft, c Candidate) (bool, string) {
	if c.DealerID != "" {
		if c.DealerID != d.DealerID {
			return false, WarnDifferentDealer
		}
		return true, ""
	}
	return genericScopePredicate(d, c)
}

// genericScopePredicate disqualifies on any field present and unequal on both
// sides; a value missing on either side is "don't care".
func genericScopePredicate(d Draft, c Candidate) (bool, string) {
	if ok, warn := matchScope(d.RegionID, c.RegionID, WarnDifferentRegion); !ok {
		return ok, warn
	}
	if ok, warn := matchScope(d.AreaID, c.AreaID, WarnDifferentArea); !ok {
		return ok, warn
	}
	return matchScope(d.TerritoryID, c.TerritoryID, WarnDifferentTerritory)
}

// matchScope compares one scope field, treating a missing value on either
// side as a pass.
func matchScope(draftVal, candidateVal, warning string) (bool, string) {
	if draftVal == "" || candidateVal == "" {
		return true, ""
	}
	if draftVal != candidateVal {
		return false, warning
	}
	return true, ""
}
