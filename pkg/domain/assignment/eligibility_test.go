package assignment

import (
	"reflect"
	"testing"

	"github.com/dealerdesk/api/pkg/domain/role"
)

var catalog = role.DefaultCatalog()

func def(t *testing.T, n role.Name) role.Definition {
	t.Helper()
	d, ok := catalog.Get(n)
	if !ok {
		t.Fatalf("role %s missing from catalog", n)
	}
	return d
}

// A candidate whose role is outside the eligible manager list never appears,
// not even flagged.
func TestResolveManagers_HardRoleFilter(t *testing.T) {
	pool := []Candidate{
		{ID: "m1", RoleName: role.AreaManager, RegionID: "r1", AreaID: "a1"},
		{ID: "m2", RoleName: role.DealerStaff, DealerID: "d1"},
		{ID: "m3", RoleName: role.SuperAdmin},
	}
	target := def(t, role.TerritoryManager)

	evals := ResolveManagers(target, Draft{RegionID: "r1", AreaID: "a1"}, pool)

	for _, e := range evals {
		if !target.AllowsManagerRole(e.Candidate.RoleName) {
			t.Errorf("candidate %s with role %s leaked through the hard filter",
				e.Candidate.ID, e.Candidate.RoleName)
		}
	}
	if len(evals) != 1 || evals[0].Candidate.ID != "m1" {
		t.Fatalf("expected only m1, got %+v", evals)
	}
}

// Scenario: area_manager draft in r1; a regional_manager in r2 surfaces
// flagged with "different region", never silently hidden.
func TestResolveManagers_AreaManagerRegionMismatch(t *testing.T) {
	pool := []Candidate{
		{ID: "m1", RoleName: role.RegionalManager, RegionID: "r1"},
		{ID: "m2", RoleName: role.RegionalManager, RegionID: "r2"},
	}

	evals := ResolveManagers(def(t, role.AreaManager), Draft{RegionID: "r1"}, pool)

	if len(evals) != 2 {
		t.Fatalf("expected both candidates surfaced, got %d", len(evals))
	}

	eligible := Eligible(evals)
	if len(eligible) != 1 || eligible[0].ID != "m1" {
		t.Fatalf("eligible set = %+v, want [m1]", eligible)
	}

	m2, ok := FindCandidate(evals, "m2")
	if !ok {
		t.Fatal("m2 missing from evaluations")
	}
	if m2.Eligible {
		t.Error("m2 should not be eligible")
	}
	if m2.Warning != WarnDifferentRegion {
		t.Errorf("m2 warning = %q, want %q", m2.Warning, WarnDifferentRegion)
	}
}

// Dealer-scoped target with no dealer selected yet has nothing to anchor
// candidates to.
func TestResolveManagers_DealerScopedWithoutDealer(t *testing.T) {
	pool := []Candidate{
		{ID: "m1", RoleName: role.DealerAdmin, DealerID: "d1"},
	}

	evals := ResolveManagers(def(t, role.DealerStaff), Draft{}, pool)

	if len(evals) != 0 {
		t.Errorf("expected empty result with no dealer selected, got %d", len(evals))
	}
}

func TestResolveManagers_DealerScopedSameDealer(t *testing.T) {
	pool := []Candidate{
		{ID: "m1", RoleName: role.DealerAdmin, DealerID: "d1"},
		{ID: "m2", RoleName: role.DealerAdmin, DealerID: "d2"},
	}

	evals := ResolveManagers(def(t, role.DealerStaff), Draft{DealerID: "d1"}, pool)

	eligible := Eligible(evals)
	if len(eligible) != 1 || eligible[0].ID != "m1" {
		t.Fatalf("eligible set = %+v, want [m1]", eligible)
	}
	m2, _ := FindCandidate(evals, "m2")
	if m2.Warning != WarnDifferentDealer {
		t.Errorf("m2 warning = %q, want %q", m2.Warning, WarnDifferentDealer)
	}
}

// territory_manager: area_manager candidates match on area, falling back to
// region when the draft has no area yet.
func TestResolveManagers_TerritoryManagerAreaFallback(t *testing.T) {
	pool := []Candidate{
		{ID: "m1", RoleName: role.AreaManager, RegionID: "r1", AreaID: "a1"},
		{ID: "m2", RoleName: role.AreaManager, RegionID: "r1", AreaID: "a2"},
		{ID: "m3", RoleName: role.AreaManager, RegionID: "r2", AreaID: "a3"},
	}
	target := def(t, role.TerritoryManager)

	// With an area selected, only the same-area candidate is eligible.
	withArea := ResolveManagers(target, Draft{RegionID: "r1", AreaID: "a1"}, pool)
	if got := Eligible(withArea); len(got) != 1 || got[0].ID != "m1" {
		t.Errorf("with area: eligible = %+v, want [m1]", got)
	}

	// Without an area the rule falls back to the region.
	regionOnly := ResolveManagers(target, Draft{RegionID: "r1"}, pool)
	got := Eligible(regionOnly)
	if len(got) != 2 {
		t.Fatalf("region fallback: expected 2 eligible, got %d", len(got))
	}
}

// sales_executive: a territory_manager candidate matches the most specific
// geographic field set on the draft.
func TestResolveManagers_SalesExecutiveMostSpecific(t *testing.T) {
	pool := []Candidate{
		{ID: "m1", RoleName: role.TerritoryManager, RegionID: "r1", AreaID: "a1", TerritoryID: "t1"},
		{ID: "m2", RoleName: role.TerritoryManager, RegionID: "r1", AreaID: "a1", TerritoryID: "t2"},
	}
	target := def(t, role.SalesExecutive)

	byTerritory := ResolveManagers(target, Draft{RegionID: "r1", AreaID: "a1", TerritoryID: "t1"}, pool)
	if got := Eligible(byTerritory); len(got) != 1 || got[0].ID != "m1" {
		t.Errorf("by territory: eligible = %+v, want [m1]", got)
	}

	// Area-level draft: both territory managers in a1 pass.
	byArea := ResolveManagers(target, Draft{RegionID: "r1", AreaID: "a1"}, pool)
	if got := Eligible(byArea); len(got) != 2 {
		t.Errorf("by area: expected 2 eligible, got %d", len(got))
	}

	// No geography on the draft: everything passes.
	open := ResolveManagers(target, Draft{}, pool)
	if got := Eligible(open); len(got) != 2 {
		t.Errorf("no geography: expected 2 eligible, got %d", len(got))
	}
}

// regional_manager: only regional_admin candidates are constrained by region.
func TestResolveManagers_RegionalManagerPredicate(t *testing.T) {
	pool := []Candidate{
		{ID: "m1", RoleName: role.RegionalAdmin, RegionID: "r2"},
		{ID: "m2", RoleName: role.Admin},
	}

	evals := ResolveManagers(def(t, role.RegionalManager), Draft{RegionID: "r1"}, pool)

	m1, _ := FindCandidate(evals, "m1")
	if m1.Eligible {
		t.Error("regional_admin in another region should be flagged")
	}
	m2, _ := FindCandidate(evals, "m2")
	if !m2.Eligible {
		t.Error("admin candidate is unconstrained by region")
	}
}

// Missing values on either side are "don't care" under the generic rule.
func TestResolveManagers_MissingScopesSoftPass(t *testing.T) {
	pool := []Candidate{
		{ID: "m1", RoleName: role.RegionalAdmin}, // no region of its own
	}

	evals := ResolveManagers(def(t, role.RegionalManager), Draft{RegionID: "r1"}, pool)

	m1, ok := FindCandidate(evals, "m1")
	if !ok || !m1.Eligible {
		t.Errorf("candidate without a region should soft-pass, got %+v", m1)
	}
}

// Roles with no manager concept resolve to an empty list.
func TestResolveManagers_NoManagerConcept(t *testing.T) {
	pool := []Candidate{{ID: "m1", RoleName: role.Admin}}

	evals := ResolveManagers(def(t, role.SuperAdmin), Draft{}, pool)
	if len(evals) != 0 {
		t.Errorf("expected empty result for a role without managers, got %d", len(evals))
	}
}

// Identical inputs yield identical output: no hidden state between calls.
func TestResolveManagers_Idempotent(t *testing.T) {
	pool := []Candidate{
		{ID: "m1", RoleName: role.RegionalManager, RegionID: "r1"},
		{ID: "m2", RoleName: role.RegionalManager, RegionID: "r2"},
	}
	target := def(t, role.AreaManager)
	d := Draft{RegionID: "r1"}

	first := ResolveManagers(target, d, pool)
	second := ResolveManagers(target, d, pool)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated resolution differs:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}
