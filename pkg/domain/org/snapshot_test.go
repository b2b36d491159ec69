package org

import (
	"testing"
)

func testSnapshot() *Snapshot {
	regions := []Region{
		{ID: "r1", Name: "North"},
		{ID: "r2", Name: "South"},
	}
	areas := []Area{
		{ID: "a1", Name: "North-East", RegionID: "r1"},
		{ID: "a2", Name: "North-West", RegionID: "r1"},
		{ID: "a3", Name: "South-Central", RegionID: "r2"},
	}
	territories := []Territory{
		{ID: "t1", Name: "NE-1", AreaID: "a1"},
		{ID: "t2", Name: "NE-2", AreaID: "a1"},
		{ID: "t3", Name: "SC-1", AreaID: "a3"},
	}
	dealers := []Dealer{
		{ID: "d1", BusinessName: "North Motors", DealerCode: "NM01", RegionID: "r1", AreaID: "a1", TerritoryID: "t1"},
		{ID: "d2", BusinessName: "NE Traders", DealerCode: "NT02", RegionID: "r1", AreaID: "a1", TerritoryID: "t2"},
		{ID: "d3", BusinessName: "South Spares", DealerCode: "SS03", RegionID: "r2", AreaID: "a3", TerritoryID: "t3"},
		{ID: "d4", BusinessName: "Floating Dealer", DealerCode: "FD04"},
	}
	return NewSnapshot(regions, areas, territories, dealers)
}

func TestSnapshot_AreasInRegion(t *testing.T) {
	snap := testSnapshot()

	areas := snap.AreasInRegion("r1")
	if len(areas) != 2 {
		t.Fatalf("expected 2 areas in r1, got %d", len(areas))
	}
	for _, a := range areas {
		if a.RegionID != "r1" {
			t.Errorf("area %s has region %s, want r1", a.ID, a.RegionID)
		}
	}

	// Permissive default: no region selected returns everything.
	if got := len(snap.AreasInRegion("")); got != 3 {
		t.Errorf("expected all 3 areas for unset region, got %d", got)
	}

	// Unknown region matches nothing rather than failing.
	if got := len(snap.AreasInRegion("r-ghost")); got != 0 {
		t.Errorf("expected 0 areas for unknown region, got %d", got)
	}
}

func TestSnapshot_TerritoriesInArea(t *testing.T) {
	snap := testSnapshot()

	if got := len(snap.TerritoriesInArea("a1")); got != 2 {
		t.Errorf("expected 2 territories in a1, got %d", got)
	}
	if got := len(snap.TerritoriesInArea("")); got != 3 {
		t.Errorf("expected all 3 territories for unset area, got %d", got)
	}
	if got := len(snap.TerritoriesInArea("a2")); got != 0 {
		t.Errorf("expected 0 territories in a2, got %d", got)
	}
}

func TestSnapshot_DealersWithin(t *testing.T) {
	snap := testSnapshot()

	tests := []struct {
		name      string
		region    string
		area      string
		territory string
		want      []string
	}{
		{"most specific wins", "r2", "a3", "t1", []string{"d1"}},
		{"by territory", "", "", "t2", []string{"d2"}},
		{"by area", "", "a1", "", []string{"d1", "d2"}},
		{"by region", "r2", "", "", []string{"d3"}},
		{"nothing selected", "", "", "", []string{"d1", "d2", "d3", "d4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := snap.DealersWithin(tt.region, tt.area, tt.territory)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d dealers, want %d", len(got), len(tt.want))
			}
			for i, d := range got {
				if d.ID != tt.want[i] {
					t.Errorf("dealer[%d] = %s, want %s", i, d.ID, tt.want[i])
				}
			}
		})
	}
}

func TestSnapshot_DanglingEdgesTolerated(t *testing.T) {
	// An area pointing at a region the snapshot does not contain must behave
	// as "no match", not blow up.
	snap := NewSnapshot(
		[]Region{{ID: "r1", Name: "North"}},
		[]Area{{ID: "a9", Name: "Orphan", RegionID: "r-gone"}},
		nil,
		nil,
	)

	if _, ok := snap.RegionOfArea("a9"); ok {
		t.Error("expected no region for an area with a dangling edge")
	}
	if got := len(snap.AreasInRegion("r1")); got != 0 {
		t.Errorf("expected 0 areas in r1, got %d", got)
	}
}

func TestSnapshot_CopiesInput(t *testing.T) {
	regions := []Region{{ID: "r1", Name: "North"}}
	snap := NewSnapshot(regions, nil, nil, nil)

	regions[0].Name = "mutated"

	r, ok := snap.Region("r1")
	if !ok {
		t.Fatal("region r1 missing")
	}
	if r.Name != "North" {
		t.Errorf("snapshot leaked caller mutation: name = %s", r.Name)
	}
}
