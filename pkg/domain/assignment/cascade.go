package assignment

import (
	"github.com/dealerdesk/api/pkg/domain/org"
)

// Options holds the valid option sets for the subordinate scope fields given
// the draft's current upstream selection. An unset upstream field yields the
// full list (the permissive no-selection-yet default).
type Options struct {
	Areas       []org.Area      `json:"areas"`
	Territories []org.Territory `json:"territories"`
	Dealers     []org.Dealer    `json:"dealers"`
}

// CascadeResult is the outcome of applying a field change: the recomputed
// option sets and the fields the controller must clear atomically with the
// new value.
type CascadeResult struct {
	Options Options `json:"options"`
	Reset   []Field `json:"reset"`
}

// ComputeCascade returns the option sets for the draft's current selection
// and the reset set triggered by a change at the given field. Pure and total:
// malformed hierarchy edges fall out as empty option sets, never as errors.
//
// A role change resets every scope field plus the manager, since required
// scopes differ per role.
func ComputeCascade(changed Field, d Draft, snap *org.Snapshot) CascadeResult {
	return CascadeResult{
		Options: computeOptions(d, snap),
		Reset:   FieldsBelow(changed),
	}
}

// ApplyChange sets the changed field on a copy of the draft, clears every
// field strictly below it, then clears any dependent whose current value is
// no longer in its recomputed option set (a stale selection after an external
// hierarchy refresh). Clearing any scope field also clears the manager.
func ApplyChange(d Draft, changed Field, value string, snap *org.Snapshot) (Draft, CascadeResult) {
	next := d
	next.set(changed, value)

	reset := FieldsBelow(changed)
	for _, f := range reset {
		next.set(f, "")
	}

	reset = append(reset, clearStaleDependents(&next, snap)...)
	return next, CascadeResult{
		Options: computeOptions(next, snap),
		Reset:   dedupeFields(reset),
	}
}

// OptionsFor returns the option sets for a draft as-is, without applying any
// change. Used when a form is opened on an existing record.
func OptionsFor(d Draft, snap *org.Snapshot) Options {
	return computeOptions(d, snap)
}

func computeOptions(d Draft, snap *org.Snapshot) Options {
	return Options{
		Areas:       snap.AreasInRegion(d.RegionID),
		Territories: snap.TerritoriesInArea(d.AreaID),
		Dealers:     snap.DealersWithin(d.RegionID, d.AreaID, d.TerritoryID),
	}
}

// clearStaleDependents clears, top-down, every selected dependent that fell
// out of its option set, and returns the fields it cleared. A cleared scope
// field always takes the manager with it.
func clearStaleDependents(d *Draft, snap *org.Snapshot) []Field {
	var cleared []Field

	clearFrom := func(f Field) {
		for _, below := range append([]Field{f}, FieldsBelow(f)...) {
			if d.Get(below) != "" {
				d.set(below, "")
				cleared = append(cleared, below)
			}
		}
	}

	if d.RegionID != "" {
		if _, ok := snap.Region(d.RegionID); !ok {
			clearFrom(FieldRegion)
			return cleared
		}
	}
	if d.AreaID != "" {
		a, ok := snap.Area(d.AreaID)
		if !ok || (d.RegionID != "" && a.RegionID != d.RegionID) {
			clearFrom(FieldArea)
			return cleared
		}
	}
	if d.TerritoryID != "" {
		t, ok := snap.Territory(d.TerritoryID)
		if !ok || (d.AreaID != "" && t.AreaID != d.AreaID) {
			clearFrom(FieldTerritory)
			return cleared
		}
	}
	if d.DealerID != "" {
		if !dealerInScope(d, snap) {
			clearFrom(FieldDealer)
		}
	}
	return cleared
}

func dealerInScope(d *Draft, snap *org.Snapshot) bool {
	dealer, ok := snap.Dealer(d.DealerID)
	if !ok {
		return false
	}
	switch {
	case d.TerritoryID != "":
		return dealer.TerritoryID == d.TerritoryID
	case d.AreaID != "":
		return dealer.AreaID == d.AreaID
	case d.RegionID != "":
		return dealer.RegionID == d.RegionID
	}
	return true
}

func dedupeFields(fields []Field) []Field {
	seen := make(map[Field]bool, len(fields))
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
