// Package assignment implements the shared form engine behind user and dealer
// creation: scope cascading, manager-eligibility resolution and draft
// validation. Everything in this package is pure; the async edges (candidate
// fetches, submission) live in the application layer.
package assignment

import (
	"github.com/dealerdesk/api/pkg/domain/role"
)

// Kind distinguishes the two assignment forms sharing this engine.
type Kind string

const (
	KindUser   Kind = "user"
	KindDealer Kind = "dealer"
)

// IsValid checks if the kind is known.
func (k Kind) IsValid() bool {
	return k == KindUser || k == KindDealer
}

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// Field identifies a draft field participating in the cascade. The cascade
// order is role > region > area > territory > dealer > manager: changing a
// field clears everything strictly below it.
type Field string

const (
	FieldRole      Field = "role"
	FieldRegion    Field = "region_id"
	FieldArea      Field = "area_id"
	FieldTerritory Field = "territory_id"
	FieldDealer    Field = "dealer_id"
	FieldManager   Field = "manager_id"
)

// cascadeOrder lists the fields from the top of the cascade down.
var cascadeOrder = []Field{
	FieldRole,
	FieldRegion,
	FieldArea,
	FieldTerritory,
	FieldDealer,
	FieldManager,
}

// IsValid checks if the field participates in the cascade.
func (f Field) IsValid() bool {
	for _, c := range cascadeOrder {
		if c == f {
			return true
		}
	}
	return false
}

// String returns the string representation of the field.
func (f Field) String() string {
	return string(f)
}

// rank returns the field's position in the cascade, -1 for unknown fields.
func (f Field) rank() int {
	for i, c := range cascadeOrder {
		if c == f {
			return i
		}
	}
	return -1
}

// FieldsBelow returns every field strictly below f in the cascade.
func FieldsBelow(f Field) []Field {
	r := f.rank()
	if r < 0 {
		return nil
	}
	out := make([]Field, 0, len(cascadeOrder)-r-1)
	for _, c := range cascadeOrder[r+1:] {
		out = append(out, c)
	}
	return out
}

// Draft is the mutable state of one assignment form. It is exclusively owned
// by a single form controller; the resolver functions only ever read it.
//
// An empty string means "unset". Scope fields are normalized to null on the
// wire at submission time, never before.
type Draft struct {
	Role        role.Name `json:"role"`
	RegionID    string    `json:"region_id"`
	AreaID      string    `json:"area_id"`
	TerritoryID string    `json:"territory_id"`
	DealerID    string    `json:"dealer_id"`
	ManagerID   string    `json:"manager_id"`

	// User-form account fields, checked on create only.
	Username        string `json:"username,omitempty"`
	Email           string `json:"email,omitempty"`
	Password        string `json:"-"`
	ConfirmPassword string `json:"-"`

	// Dealer-form identity fields.
	BusinessName string `json:"business_name,omitempty"`
	DealerCode   string `json:"dealer_code,omitempty"`
}

// Get returns the draft value for a cascade field.
func (d Draft) Get(f Field) string {
	switch f {
	case FieldRole:
		return string(d.Role)
	case FieldRegion:
		return d.RegionID
	case FieldArea:
		return d.AreaID
	case FieldTerritory:
		return d.TerritoryID
	case FieldDealer:
		return d.DealerID
	case FieldManager:
		return d.ManagerID
	}
	return ""
}

// set assigns a cascade field on the draft.
func (d *Draft) set(f Field, value string) {
	switch f {
	case FieldRole:
		d.Role = role.Canonical(value)
	case FieldRegion:
		d.RegionID = value
	case FieldArea:
		d.AreaID = value
	case FieldTerritory:
		d.TerritoryID = value
	case FieldDealer:
		d.DealerID = value
	case FieldManager:
		d.ManagerID = value
	}
}
