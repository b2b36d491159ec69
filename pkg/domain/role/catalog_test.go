package role

import (
	"strings"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	if c.Len() != 9 {
		t.Fatalf("expected 9 roles in default catalog, got %d", c.Len())
	}

	for _, n := range AllNames() {
		if _, ok := c.Get(n); !ok {
			t.Errorf("role %s missing from default catalog", n)
		}
	}

	tm, _ := c.Get(TerritoryManager)
	for _, want := range []Scope{ScopeRegion, ScopeArea, ScopeTerritory} {
		if !tm.Requires(want) {
			t.Errorf("territory_manager should require %s", want)
		}
	}
	if tm.Requires(ScopeDealer) {
		t.Error("territory_manager should not require dealer")
	}

	se, _ := c.Get(SalesExecutive)
	if !se.ManagerMandatory {
		t.Error("sales_executive must be manager-mandatory")
	}
	if len(se.RequiredScopes) != 0 {
		t.Error("sales_executive geography is optional")
	}

	sa, _ := c.Get(SuperAdmin)
	if sa.HasManager() {
		t.Error("super_admin has no manager concept")
	}

	ds, _ := c.Get(DealerStaff)
	if !ds.DealerScoped() {
		t.Error("dealer_staff must be dealer-scoped")
	}
	if !ds.AllowsManagerRole(DealerAdmin) {
		t.Error("dealer_staff must accept dealer_admin managers")
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want Name
	}{
		{"territory_manager", TerritoryManager},
		{"Territory Manager", TerritoryManager},
		{"  Regional-Admin ", RegionalAdmin},
		{"SALES  EXECUTIVE", SalesExecutive},
		{"dealer staff", DealerStaff},
	}
	for _, tt := range tests {
		if got := Canonical(tt.in); got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseName_Unknown(t *testing.T) {
	if _, err := ParseName("warehouse_clerk"); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestLoadCatalog_RejectsGappedScopeChain(t *testing.T) {
	bad := `
roles:
  - name: territory_manager
    title: Territory Manager
    required_scopes: [territory]
    eligible_manager_roles: []
`
	if _, err := LoadCatalog(strings.NewReader(bad)); err == nil {
		t.Error("expected error for territory required without area")
	}
}

func TestLoadCatalog_RejectsUnknownManagerRole(t *testing.T) {
	bad := `
roles:
  - name: admin
    title: Admin
    required_scopes: []
    eligible_manager_roles: [chief_vibes_officer]
`
	if _, err := LoadCatalog(strings.NewReader(bad)); err == nil {
		t.Error("expected error for unknown manager role reference")
	}
}

func TestLoadCatalog_RejectsDuplicates(t *testing.T) {
	bad := `
roles:
  - name: admin
    title: Admin
  - name: admin
    title: Admin Again
`
	if _, err := LoadCatalog(strings.NewReader(bad)); err == nil {
		t.Error("expected error for duplicate role")
	}
}
