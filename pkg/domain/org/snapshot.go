package org

// Snapshot is an immutable view of the hierarchy fetched once per form
// session. Lookups are total: a dangling foreign key (an area pointing at a
// region the snapshot does not contain, and so on) is treated as "no match",
// never as an error.
type Snapshot struct {
	regions     []Region
	areas       []Area
	territories []Territory
	dealers     []Dealer

	regionByID    map[string]Region
	areaByID      map[string]Area
	territoryByID map[string]Territory
	dealerByID    map[string]Dealer
}

// NewSnapshot builds an indexed snapshot from the four directory lists.
// The input slices are copied; later mutation of the arguments does not
// affect the snapshot.
func NewSnapshot(regions []Region, areas []Area, territories []Territory, dealers []Dealer) *Snapshot {
	s := &Snapshot{
		regions:       make([]Region, len(regions)),
		areas:         make([]Area, len(areas)),
		territories:   make([]Territory, len(territories)),
		dealers:       make([]Dealer, len(dealers)),
		regionByID:    make(map[string]Region, len(regions)),
		areaByID:      make(map[string]Area, len(areas)),
		territoryByID: make(map[string]Territory, len(territories)),
		dealerByID:    make(map[string]Dealer, len(dealers)),
	}
	copy(s.regions, regions)
	copy(s.areas, areas)
	copy(s.territories, territories)
	copy(s.dealers, dealers)

	for _, r := range s.regions {
		s.regionByID[r.ID] = r
	}
	for _, a := range s.areas {
		s.areaByID[a.ID] = a
	}
	for _, t := range s.territories {
		s.territoryByID[t.ID] = t
	}
	for _, d := range s.dealers {
		s.dealerByID[d.ID] = d
	}
	return s
}

// Regions returns all regions.
func (s *Snapshot) Regions() []Region {
	out := make([]Region, len(s.regions))
	copy(out, s.regions)
	return out
}

// Region looks up a region by ID.
func (s *Snapshot) Region(id string) (Region, bool) {
	r, ok := s.regionByID[id]
	return r, ok
}

// Area looks up an area by ID.
func (s *Snapshot) Area(id string) (Area, bool) {
	a, ok := s.areaByID[id]
	return a, ok
}

// Territory looks up a territory by ID.
func (s *Snapshot) Territory(id string) (Territory, bool) {
	t, ok := s.territoryByID[id]
	return t, ok
}

// Dealer looks up a dealer by ID.
func (s *Snapshot) Dealer(id string) (Dealer, bool) {
	d, ok := s.dealerByID[id]
	return d, ok
}

// AreasInRegion returns the areas under the given region. An empty regionID
// returns all areas (the permissive no-selection-yet default).
func (s *Snapshot) AreasInRegion(regionID string) []Area {
	if regionID == "" {
		out := make([]Area, len(s.areas))
		copy(out, s.areas)
		return out
	}
	out := make([]Area, 0)
	for _, a := range s.areas {
		if a.RegionID == regionID {
			out = append(out, a)
		}
	}
	return out
}

// TerritoriesInArea returns the territories under the given area. An empty
// areaID returns all territories.
func (s *Snapshot) TerritoriesInArea(areaID string) []Territory {
	if areaID == "" {
		out := make([]Territory, len(s.territories))
		copy(out, s.territories)
		return out
	}
	out := make([]Territory, 0)
	for _, t := range s.territories {
		if t.AreaID == areaID {
			out = append(out, t)
		}
	}
	return out
}

// DealersWithin returns the dealers matching whichever of territoryID, areaID,
// regionID is set, most specific first. All empty returns every dealer.
func (s *Snapshot) DealersWithin(regionID, areaID, territoryID string) []Dealer {
	match := func(Dealer) bool { return true }
	switch {
	case territoryID != "":
		match = func(d Dealer) bool { return d.TerritoryID == territoryID }
	case areaID != "":
		match = func(d Dealer) bool { return d.AreaID == areaID }
	case regionID != "":
		match = func(d Dealer) bool { return d.RegionID == regionID }
	}
	out := make([]Dealer, 0)
	for _, d := range s.dealers {
		if match(d) {
			out = append(out, d)
		}
	}
	return out
}

// RegionOfArea resolves the region an area belongs to, tolerating dangling
// edges.
func (s *Snapshot) RegionOfArea(areaID string) (Region, bool) {
	a, ok := s.areaByID[areaID]
	if !ok {
		return Region{}, false
	}
	return s.Region(a.RegionID)
}

// AreaOfTerritory resolves the area a territory belongs to.
func (s *Snapshot) AreaOfTerritory(territoryID string) (Area, bool) {
	t, ok := s.territoryByID[territoryID]
	if !ok {
		return Area{}, false
	}
	return s.Area(t.AreaID)
}

// Counts returns the number of regions, areas, territories and dealers held.
func (s *Snapshot) Counts() (regions, areas, territories, dealers int) {
	return len(s.regions), len(s.areas), len(s.territories), len(s.dealers)
}
