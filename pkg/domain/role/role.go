// Package role provides the static role catalog: which geographic scopes each
// role must carry and which roles may act as its reporting manager.
//
// Role identity is a canonical snake_case name. Display labels coming from
// upstream systems ("Territory Manager") are normalized through Canonical so
// both assignment forms resolve against the same table.
package role

import (
	"fmt"
	"strings"

	"github.com/dealerdesk/api/pkg/domain/shared"
)

// Name is a canonical role identifier.
type Name string

// The full role set, top of the reporting chain first.
const (
	SuperAdmin       Name = "super_admin"
	Admin            Name = "admin"
	RegionalAdmin    Name = "regional_admin"
	RegionalManager  Name = "regional_manager"
	AreaManager      Name = "area_manager"
	TerritoryManager Name = "territory_manager"
	SalesExecutive   Name = "sales_executive"
	DealerAdmin      Name = "dealer_admin"
	DealerStaff      Name = "dealer_staff"
)

// AllNames returns every known role name in catalog order.
func AllNames() []Name {
	return []Name{
		SuperAdmin,
		Admin,
		RegionalAdmin,
		RegionalManager,
		AreaManager,
		TerritoryManager,
		SalesExecutive,
		DealerAdmin,
		DealerStaff,
	}
}

// IsValid checks if the name is a known role.
func (n Name) IsValid() bool {
	switch n {
	case SuperAdmin, Admin, RegionalAdmin, RegionalManager, AreaManager,
		TerritoryManager, SalesExecutive, DealerAdmin, DealerStaff:
		return true
	}
	return false
}

// String returns the string representation of the name.
func (n Name) String() string {
	return string(n)
}

// Canonical normalizes a role label to its canonical name: trimmed,
// lowercased, spaces and hyphens collapsed to underscores.
func Canonical(label string) Name {
	s := strings.ToLower(strings.TrimSpace(label))
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.Join(strings.Fields(s), "_")
	return Name(s)
}

// ParseName normalizes and validates a role label.
func ParseName(label string) (Name, error) {
	n := Canonical(label)
	if !n.IsValid() {
		return "", fmt.Errorf("%w: unknown role %q", shared.ErrValidation, label)
	}
	return n, nil
}

// Scope identifies one level of the geographic/organizational hierarchy.
type Scope string

// Scope levels, shallowest first.
const (
	ScopeRegion    Scope = "region"
	ScopeArea      Scope = "area"
	ScopeTerritory Scope = "territory"
	ScopeDealer    Scope = "dealer"
)

// AllScopes returns the scope levels in hierarchy order.
func AllScopes() []Scope {
	return []Scope{ScopeRegion, ScopeArea, ScopeTerritory, ScopeDealer}
}

// IsValid checks if the scope is a known level.
func (s Scope) IsValid() bool {
	switch s {
	case ScopeRegion, ScopeArea, ScopeTerritory, ScopeDealer:
		return true
	}
	return false
}

// String returns the string representation of the scope.
func (s Scope) String() string {
	return string(s)
}

// Label returns the human-readable form used in validation messages.
func (s Scope) Label() string {
	switch s {
	case ScopeRegion:
		return "Region"
	case ScopeArea:
		return "Area"
	case ScopeTerritory:
		return "Territory"
	case ScopeDealer:
		return "Dealer"
	}
	return string(s)
}

// Depth returns the hierarchy depth of the geographic chain: region 0, area 1,
// territory 2, dealer 3.
func (s Scope) Depth() int {
	switch s {
	case ScopeRegion:
		return 0
	case ScopeArea:
		return 1
	case ScopeTerritory:
		return 2
	case ScopeDealer:
		return 3
	}
	return -1
}

// Definition describes one role: the scope fields it must carry and the
// ordered list of roles eligible to be its reporting manager.
//
// ManagerMandatory is deliberately a separate flag, not a pseudo-scope:
// requiring a manager is an organizational-reporting rule, requiring a
// territory is a coverage rule, and the two fail with different messages.
type Definition struct {
	Name                 Name    `yaml:"name"`
	Title                string  `yaml:"title"`
	RequiredScopes       []Scope `yaml:"required_scopes"`
	EligibleManagerRoles []Name  `yaml:"eligible_manager_roles"`
	ManagerMandatory     bool    `yaml:"manager_mandatory"`
}

// Requires reports whether the role mandates the given scope field.
func (d Definition) Requires(s Scope) bool {
	for _, rs := range d.RequiredScopes {
		if rs == s {
			return true
		}
	}
	return false
}

// DealerScoped reports whether the role is anchored to a single dealer.
func (d Definition) DealerScoped() bool {
	return d.Requires(ScopeDealer)
}

// AllowsManagerRole reports whether candidates of the given role may manage
// holders of this role.
func (d Definition) AllowsManagerRole(n Name) bool {
	for _, m := range d.EligibleManagerRoles {
		if m == n {
			return true
		}
	}
	return false
}

// HasManager reports whether the role has a manager concept at all.
func (d Definition) HasManager() bool {
	return len(d.EligibleManagerRoles) > 0
}
