package geometry

import (
	"sort"

	"github.com/geovalida/geovalida/territory"
)

// Unreachable returns the members of the unit that cannot be reached from
// the unit's seat by walking spatial adjacency edges restricted to members.
// A unit without a registered seat has no contiguity root, so every member
// is reported unreachable. The result is sorted.
func (idx *Index) Unreachable(g *territory.Graph, unit territory.UnitID) ([]territory.MunicipalityID, error) {
	members, err := g.MembersOf(unit)
	if err != nil {
		return nil, err
	}
	seat, ok := g.SeatOf(unit)
	if !ok {
		out := make([]territory.MunicipalityID, len(members))
		copy(out, members)
		return out, nil
	}
	inUnit := make(map[territory.MunicipalityID]struct{}, len(members))
	for _, m := range members {
		inUnit[m] = struct{}{}
	}
	reached := idx.flood(seat, inUnit)

	var out []territory.MunicipalityID
	for _, m := range members {
		if _, ok := reached[m]; !ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// Components splits a member set into its spatially connected components.
// Components are sorted internally and ordered by their smallest member.
func (idx *Index) Components(members []territory.MunicipalityID) [][]territory.MunicipalityID {
	inSet := make(map[territory.MunicipalityID]struct{}, len(members))
	for _, m := range members {
		inSet[m] = struct{}{}
	}
	sorted := make([]territory.MunicipalityID, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var comps [][]territory.MunicipalityID
	visited := make(map[territory.MunicipalityID]struct{}, len(members))
	for _, m := range sorted {
		if _, ok := visited[m]; ok {
			continue
		}
		reached := idx.flood(m, inSet)
		comp := make([]territory.MunicipalityID, 0, len(reached))
		for id := range reached {
			comp = append(comp, id)
			visited[id] = struct{}{}
		}
		sort.Slice(comp, func(i, j int) bool { return comp[i] < comp[j] })
		comps = append(comps, comp)
	}
	return comps
}

// RemovalFragments reports whether taking id out of its unit would split
// the remaining members into more than one spatial component. Units left
// with zero or one member cannot fragment.
func (idx *Index) RemovalFragments(g *territory.Graph, id territory.MunicipalityID) (bool, error) {
	unit, err := g.UnitOf(id)
	if err != nil {
		return false, err
	}
	members, err := g.MembersOf(unit)
	if err != nil {
		return false, err
	}
	rest := members[:0:0]
	for _, m := range members {
		if m != id {
			rest = append(rest, m)
		}
	}
	if len(rest) <= 1 {
		return false, nil
	}
	return len(idx.Components(rest)) > 1, nil
}

// flood is a breadth-first walk over adjacency edges restricted to the
// given set, starting from root. Root itself is included when in the set.
func (idx *Index) flood(root territory.MunicipalityID, set map[territory.MunicipalityID]struct{}) map[territory.MunicipalityID]struct{} {
	reached := make(map[territory.MunicipalityID]struct{}, len(set))
	if _, ok := set[root]; !ok {
		return reached
	}
	queue := []territory.MunicipalityID{root}
	reached[root] = struct{}{}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range idx.neighbors[cur] {
			if _, inSet := set[n]; !inSet {
				continue
			}
			if _, seen := reached[n]; seen {
				continue
			}
			reached[n] = struct{}{}
			queue = append(queue, n)
		}
	}
	return reached
}
