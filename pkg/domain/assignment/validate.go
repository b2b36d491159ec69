package assignment

import (
	"github.com/dealerdesk/api/pkg/domain/role"
)

// Result is a complete field-error map for one draft. Validation is
// idempotent and never mutates the draft.
type Result struct {
	Errors map[string]string `json:"errors"`
}

// IsValid reports whether the draft passed every rule.
func (r Result) IsValid() bool {
	return len(r.Errors) == 0
}

// scopeField maps a required scope to the draft field carrying it.
func scopeField(s role.Scope) Field {
	switch s {
	case role.ScopeRegion:
		return FieldRegion
	case role.ScopeArea:
		return FieldArea
	case role.ScopeTerritory:
		return FieldTerritory
	case role.ScopeDealer:
		return FieldDealer
	}
	return ""
}

// Validate checks the role-driven rules for a draft: role present and known,
// every required scope field non-empty, manager present for manager-mandatory
// roles, and — when an evaluation list from the current candidate pool is
// supplied — that a selected manager is actually among the eligible
// candidates. Account-field format checks (username/email/password on create)
// are composed in by the form controller, which owns the create/edit context.
func Validate(d Draft, catalog *role.Catalog, evals []Evaluation) Result {
	errs := make(map[string]string)

	if d.Role == "" {
		errs[string(FieldRole)] = "Role is required"
		return Result{Errors: errs}
	}
	def, ok := catalog.Get(d.Role)
	if !ok {
		errs[string(FieldRole)] = "Unknown role"
		return Result{Errors: errs}
	}

	for _, s := range role.AllScopes() {
		if !def.Requires(s) {
			continue
		}
		f := scopeField(s)
		if d.Get(f) == "" {
			errs[string(f)] = s.Label() + " is required for this role"
		}
	}

	if def.ManagerMandatory && d.ManagerID == "" {
		errs[string(FieldManager)] = "Manager is required for this role"
	}

	if d.ManagerID != "" && evals != nil {
		if ev, found := FindCandidate(evals, d.ManagerID); !found || !ev.Eligible {
			errs[string(FieldManager)] = "Selected manager is not eligible for this role"
		}
	}

	return Result{Errors: errs}
}
