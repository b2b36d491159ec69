package assignment

import (
	"reflect"
	"testing"

	"github.com/dealerdesk/api/pkg/domain/role"
)

// Scenario: territory_manager with region and area but no territory.
func TestValidate_MissingTerritory(t *testing.T) {
	d := Draft{
		Role:     role.TerritoryManager,
		RegionID: "r1",
		AreaID:   "a1",
	}

	res := Validate(d, catalog, nil)

	if res.IsValid() {
		t.Fatal("expected validation failure")
	}
	want := "Territory is required for this role"
	if got := res.Errors[string(FieldTerritory)]; got != want {
		t.Errorf("territory error = %q, want %q", got, want)
	}
	if _, ok := res.Errors[string(FieldRegion)]; ok {
		t.Error("region is set, should not error")
	}
	if _, ok := res.Errors[string(FieldArea)]; ok {
		t.Error("area is set, should not error")
	}
}

// For every role, the required-scope errors disappear exactly when every
// required field is filled.
func TestValidate_RequiredScopeCompleteness(t *testing.T) {
	filled := Draft{
		RegionID:    "r1",
		AreaID:      "a1",
		TerritoryID: "t1",
		DealerID:    "d1",
		ManagerID:   "m1",
	}

	for _, def := range catalog.Roles() {
		t.Run(string(def.Name), func(t *testing.T) {
			empty := Draft{Role: def.Name}
			res := Validate(empty, catalog, nil)
			for _, s := range def.RequiredScopes {
				if _, ok := res.Errors[string(scopeField(s))]; !ok {
					t.Errorf("missing error for required scope %s", s)
				}
			}

			full := filled
			full.Role = def.Name
			res = Validate(full, catalog, nil)
			for _, s := range def.RequiredScopes {
				if msg, ok := res.Errors[string(scopeField(s))]; ok {
					t.Errorf("unexpected error for filled scope %s: %s", s, msg)
				}
			}
		})
	}
}

func TestValidate_RoleRequired(t *testing.T) {
	res := Validate(Draft{}, catalog, nil)
	if res.IsValid() {
		t.Fatal("expected failure for missing role")
	}
	if got := res.Errors[string(FieldRole)]; got != "Role is required" {
		t.Errorf("role error = %q", got)
	}
}

func TestValidate_UnknownRole(t *testing.T) {
	res := Validate(Draft{Role: "warehouse_clerk"}, catalog, nil)
	if _, ok := res.Errors[string(FieldRole)]; !ok {
		t.Error("expected role error for unknown role")
	}
}

// Manager-mandatory is a separate rule class from required scopes: the
// sales_executive role demands a manager with no geographic requirements.
func TestValidate_ManagerMandatory(t *testing.T) {
	d := Draft{Role: role.SalesExecutive}

	res := Validate(d, catalog, nil)

	want := "Manager is required for this role"
	if got := res.Errors[string(FieldManager)]; got != want {
		t.Errorf("manager error = %q, want %q", got, want)
	}

	d.ManagerID = "m1"
	res = Validate(d, catalog, nil)
	if _, ok := res.Errors[string(FieldManager)]; ok {
		t.Error("manager set, should not error")
	}
}

// A selected manager must be among the eligible candidates when the current
// evaluation list is supplied.
func TestValidate_ManagerAgainstCandidates(t *testing.T) {
	d := Draft{Role: role.AreaManager, RegionID: "r1", AreaID: "a1", ManagerID: "m2"}
	evals := []Evaluation{
		{Candidate: Candidate{ID: "m1", RoleName: role.RegionalManager, RegionID: "r1"}, Eligible: true},
		{Candidate: Candidate{ID: "m2", RoleName: role.RegionalManager, RegionID: "r2"}, Eligible: false, Warning: WarnDifferentRegion},
	}

	res := Validate(d, catalog, evals)
	if _, ok := res.Errors[string(FieldManager)]; !ok {
		t.Error("expected error for a flagged manager selection")
	}

	d.ManagerID = "m1"
	res = Validate(d, catalog, evals)
	if msg, ok := res.Errors[string(FieldManager)]; ok {
		t.Errorf("unexpected manager error: %s", msg)
	}
}

// Validation never mutates the draft and is idempotent.
func TestValidate_Idempotent(t *testing.T) {
	d := Draft{Role: role.TerritoryManager, RegionID: "r1"}
	before := d

	first := Validate(d, catalog, nil)
	second := Validate(d, catalog, nil)

	if d != before {
		t.Error("Validate mutated the draft")
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated validation differs:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}
