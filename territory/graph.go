package territory

import (
	"fmt"
	"sort"
)

// AddRegion registers a metro region. Adding NoRegion or an existing region
// returns ErrDuplicateID.
// Complexity: O(1)
func (g *Graph) AddRegion(id RegionID) error {
	if _, ok := g.regions[id]; ok {
		return fmt.Errorf("%w: region %q", ErrDuplicateID, id)
	}
	g.regions[id] = struct{}{}
	return nil
}

// HasRegion reports whether id is a registered metro region.
func (g *Graph) HasRegion(id RegionID) bool {
	_, ok := g.regions[id]
	return ok
}

// AddUnit registers a planning unit under the given metro region.
// Complexity: O(1)
func (g *Graph) AddUnit(id UnitID, parent RegionID) error {
	if _, ok := g.unitRegion[id]; ok {
		return fmt.Errorf("%w: unit %q", ErrDuplicateID, id)
	}
	if _, ok := g.regions[parent]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRegion, parent)
	}
	g.unitRegion[id] = parent
	g.unitMembers[id] = make(map[MunicipalityID]struct{})
	return nil
}

// HasUnit reports whether id is a registered planning unit.
func (g *Graph) HasUnit(id UnitID) bool {
	_, ok := g.unitRegion[id]
	return ok
}

// AddMunicipality attaches a municipality to an existing planning unit.
// The attribute record is stored as-is; m.ID keys the graph.
// Complexity: O(1)
func (g *Graph) AddMunicipality(m *Municipality, parent UnitID) error {
	if m == nil {
		return fmt.Errorf("%w: nil municipality", ErrUnknownMunicipality)
	}
	if _, ok := g.muns[m.ID]; ok {
		return fmt.Errorf("%w: municipality %d", ErrDuplicateID, m.ID)
	}
	if _, ok := g.unitRegion[parent]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownUnit, parent)
	}
	g.muns[m.ID] = m
	g.munUnit[m.ID] = parent
	g.unitMembers[parent][m.ID] = struct{}{}
	return nil
}

// Move atomically detaches a municipality from its current unit and
// attaches it to target. The single-owner invariant holds at every
// observable point: the two map updates happen before returning and no
// read path can see the municipality in both units.
// Complexity: O(1)
func (g *Graph) Move(id MunicipalityID, target UnitID) error {
	cur, ok := g.munUnit[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownMunicipality, id)
	}
	if _, ok = g.unitRegion[target]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownUnit, target)
	}
	if cur == target {
		return nil
	}
	delete(g.unitMembers[cur], id)
	g.unitMembers[target][id] = struct{}{}
	g.munUnit[id] = target
	g.log.Debug("municipality moved", "municipality", int64(id), "from", string(cur), "to", string(target))
	return nil
}

// UnitOf returns the planning unit currently owning the municipality.
func (g *Graph) UnitOf(id MunicipalityID) (UnitID, error) {
	u, ok := g.munUnit[id]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownMunicipality, id)
	}
	return u, nil
}

// RegionOfUnit returns the metro region owning the unit.
func (g *Graph) RegionOfUnit(id UnitID) (RegionID, error) {
	r, ok := g.unitRegion[id]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, id)
	}
	return r, nil
}

// Municipality returns the stored attribute record.
func (g *Graph) Municipality(id MunicipalityID) (*Municipality, error) {
	m, ok := g.muns[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMunicipality, id)
	}
	return m, nil
}

// MembersOf returns the sorted member municipalities of a unit.
// Complexity: O(n·log n) over the member count.
func (g *Graph) MembersOf(id UnitID) ([]MunicipalityID, error) {
	members, ok := g.unitMembers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUnit, id)
	}
	out := make([]MunicipalityID, 0, len(members))
	for m := range members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// MemberCount returns the member count of a unit, or 0 for unknown units.
func (g *Graph) MemberCount(id UnitID) int {
	return len(g.unitMembers[id])
}

// Units returns all planning unit IDs in sorted order.
func (g *Graph) Units() []UnitID {
	out := make([]UnitID, 0, len(g.unitRegion))
	for u := range g.unitRegion {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Municipalities returns all municipality IDs in sorted order.
func (g *Graph) Municipalities() []MunicipalityID {
	out := make([]MunicipalityID, 0, len(g.muns))
	for m := range g.muns {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SingletonUnits returns, sorted, every planning unit with exactly one
// member. These are the inputs of the functional consolidation passes.
func (g *Graph) SingletonUnits() []UnitID {
	var out []UnitID
	for u, members := range g.unitMembers {
		if len(members) == 1 {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SetSeat designates the seat municipality of a unit. The seat must be a
// current member; at most one member of a unit carries the flag, which
// SetSeat enforces by replacing any previous designation.
func (g *Graph) SetSeat(unit UnitID, seat MunicipalityID) error {
	members, ok := g.unitMembers[unit]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownUnit, unit)
	}
	if _, ok = members[seat]; !ok {
		return fmt.Errorf("%w: municipality %d, unit %q", ErrSeatNotMember, seat, unit)
	}
	g.seats[unit] = seat
	return nil
}

// SeatOf returns the designated seat of a unit; ok is false when the unit
// has no seat (a unit-integrity condition the seat-dependent passes must
// treat as UnitWithoutSeat).
func (g *Graph) SeatOf(unit UnitID) (MunicipalityID, bool) {
	s, ok := g.seats[unit]
	return s, ok
}

// IsSeat reports whether the municipality is the seat of its current unit.
func (g *Graph) IsSeat(id MunicipalityID) bool {
	unit, ok := g.munUnit[id]
	if !ok {
		return false
	}
	return g.seats[unit] == id
}

// RevokeSeat removes the seat designation from a unit, if any.
func (g *Graph) RevokeSeat(unit UnitID) {
	delete(g.seats, unit)
}

// RetireUnit removes an emptied planning unit from the graph. Units are
// destroyed only when their last member has been relocated.
func (g *Graph) RetireUnit(id UnitID) error {
	members, ok := g.unitMembers[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownUnit, id)
	}
	if len(members) > 0 {
		return fmt.Errorf("%w: %q has %d members", ErrUnitNotEmpty, id, len(members))
	}
	delete(g.unitMembers, id)
	delete(g.unitRegion, id)
	delete(g.seats, id)
	g.log.Debug("planning unit retired", "unit", string(id))
	return nil
}

// UnitsInRegion returns the sorted planning units parented by the region.
func (g *Graph) UnitsInRegion(region RegionID) []UnitID {
	var out []UnitID
	for u, r := range g.unitRegion {
		if r == region {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
