// Package app wires the assignment form engine to the outside world: form
// session lifecycle, the async candidate reloads, and submission to the
// external directory.
package app

import (
	"context"

	"github.com/dealerdesk/api/pkg/domain/assignment"
	"github.com/dealerdesk/api/pkg/domain/org"
	"github.com/dealerdesk/api/pkg/domain/role"
)

// ScopeFilter narrows a candidate listing to the draft's current geography.
// Empty fields are not sent.
type ScopeFilter struct {
	RegionID    string
	AreaID      string
	TerritoryID string
	DealerID    string
}

// Directory is the external collaborator API the form engine consumes. The
// directory owns persistence; this service never stores directory entities.
type Directory interface {
	ListRegions(ctx context.Context) ([]org.Region, error)
	ListAreas(ctx context.Context) ([]org.Area, error)
	ListTerritories(ctx context.Context) ([]org.Territory, error)
	ListDealers(ctx context.Context) ([]org.Dealer, error)

	// ListUsersByRole returns prospective managers holding the given role.
	ListUsersByRole(ctx context.Context, name role.Name, filter ScopeFilter) ([]assignment.Candidate, error)

	CreateUser(ctx context.Context, p UserPayload) error
	UpdateUser(ctx context.Context, id string, p UserPayload) error
	CreateDealer(ctx context.Context, p DealerPayload) error
	UpdateDealer(ctx context.Context, id string, p DealerPayload) error
}

// UserPayload is the wire shape for user creation/update. Unset scope fields
// are nil so they serialize to null, never "" — the directory's required-field
// checks depend on the distinction.
type UserPayload struct {
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	Password    string  `json:"password,omitempty"`
	Role        string  `json:"role"`
	RegionID    *string `json:"region_id"`
	AreaID      *string `json:"area_id"`
	TerritoryID *string `json:"territory_id"`
	DealerID    *string `json:"dealer_id"`
	ManagerID   *string `json:"manager_id"`
}

// DealerPayload is the wire shape for dealer creation/update.
type DealerPayload struct {
	BusinessName string  `json:"business_name"`
	DealerCode   string  `json:"dealer_code"`
	RegionID     *string `json:"region_id"`
	AreaID       *string `json:"area_id"`
	TerritoryID  *string `json:"territory_id"`
	ManagerID    *string `json:"manager_id"`
}

// nullable maps an empty string to nil for wire serialization.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// userPayloadFromDraft maps a draft to its wire shape.
func userPayloadFromDraft(d assignment.Draft) UserPayload {
	return UserPayload{
		Username:    d.Username,
		Email:       d.Email,
		Password:    d.Password,
		Role:        d.Role.String(),
		RegionID:    nullable(d.RegionID),
		AreaID:      nullable(d.AreaID),
		TerritoryID: nullable(d.TerritoryID),
		DealerID:    nullable(d.DealerID),
		ManagerID:   nullable(d.ManagerID),
	}
}

// dealerPayloadFromDraft maps a draft to its wire shape.
func dealerPayloadFromDraft(d assignment.Draft) DealerPayload {
	return DealerPayload{
		BusinessName: d.BusinessName,
		DealerCode:   d.DealerCode,
		RegionID:     nullable(d.RegionID),
		AreaID:       nullable(d.AreaID),
		TerritoryID:  nullable(d.TerritoryID),
		ManagerID:    nullable(d.ManagerID),
	}
}

// scopeFilterFromDraft narrows candidate listings to the draft's geography.
func scopeFilterFromDraft(d assignment.Draft) ScopeFilter {
	return ScopeFilter{
		RegionID:    d.RegionID,
		AreaID:      d.AreaID,
		TerritoryID: d.TerritoryID,
		DealerID:    d.DealerID,
	}
}
