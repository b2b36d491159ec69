// Package org provides the geographic/organizational hierarchy domain model:
// Region → Area → Territory → Dealer.
//
// Identifiers are opaque strings issued by the external directory service; an
// empty string means "unset". Entities are read-only reference data, never
// mutated by this service.
package org

// Region is the root of the hierarchy.
type Region struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Area belongs to exactly one region.
type Area struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RegionID string `json:"region_id"`
}

// Territory belongs to exactly one area and transitively implies a region.
type Territory struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	AreaID string `json:"area_id"`
}

// Dealer is a point of sale. Geographic fields are optional but, when present,
// must be mutually consistent with the hierarchy edges.
type Dealer struct {
	ID           string `json:"id"`
	BusinessName string `json:"business_name"`
	DealerCode   string `json:"dealer_code"`
	RegionID     string `json:"region_id,omitempty"`
	AreaID       string `json:"area_id,omitempty"`
	TerritoryID  string `json:"territory_id,omitempty"`
	ManagerID    string `json:"manager_id,omitempty"`
}
