package consolidate

import (
	"sort"

	"github.com/geovalida/geovalida/geometry"
	"github.com/geovalida/geovalida/territory"
)

// hierarchyProposal carries the geography ranking of one fallback candidate.
type hierarchyProposal struct {
	proposal
	regicRank int
	distance  float64
	boundary  float64
}

// rankCandidate scores one candidate unit for the hierarchy fallback. The
// candidate's reference municipality is its seat, or its smallest member
// when no seat is registered.
func (c *Consolidator) rankCandidate(m territory.MunicipalityID, source, target territory.UnitID) (hierarchyProposal, bool) {
	ref, ok := c.g.SeatOf(target)
	if !ok {
		members, err := c.g.MembersOf(target)
		if err != nil || len(members) == 0 {
			return hierarchyProposal{}, false
		}
		ref = members[0]
	}
	rec, err := c.g.Municipality(ref)
	if err != nil {
		return hierarchyProposal{}, false
	}
	dist, err := c.idx.CentroidDistance(m, ref)
	if err != nil {
		return hierarchyProposal{}, false
	}
	boundary, err := c.idx.SharedBoundaryLength(c.g, m, target)
	if err != nil {
		return hierarchyProposal{}, false
	}
	return hierarchyProposal{
		proposal:  proposal{mun: m, source: source, target: target},
		regicRank: territory.REGICRank(rec.REGIC),
		distance:  dist,
		boundary:  boundary,
	}, true
}

// bestHierarchyTarget ranks the region-compatible neighboring units by
// REGIC rank ascending, centroid distance ascending and shared boundary
// length descending, unit id breaking exact ties.
func (c *Consolidator) bestHierarchyTarget(m territory.MunicipalityID, source territory.UnitID) (hierarchyProposal, bool) {
	units, err := c.idx.NeighboringUnits(m, c.g)
	if err != nil {
		return hierarchyProposal{}, false
	}
	sourceRegion, err := c.g.RegionOfUnit(source)
	if err != nil {
		return hierarchyProposal{}, false
	}
	var ranked []hierarchyProposal
	for _, u := range units {
		r, err := c.g.RegionOfUnit(u)
		if err != nil || !geometry.RegionCompatible(sourceRegion, r) {
			continue
		}
		if hp, ok := c.rankCandidate(m, source, u); ok {
			ranked = append(ranked, hp)
		}
	}
	if len(ranked) == 0 {
		return hierarchyProposal{}, false
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.regicRank != b.regicRank {
			return a.regicRank < b.regicRank
		}
		if a.distance != b.distance {
			return a.distance < b.distance
		}
		if a.boundary != b.boundary {
			return a.boundary > b.boundary
		}
		return a.target < b.target
	})
	return ranked[0], true
}

// ResolveByHierarchy is Pass C: singletons still standing after the flow
// passes fall back to geography. Rounds repeat until no singleton has a
// compatible neighbor left.
func (c *Consolidator) ResolveByHierarchy() (int, error) {
	total := 0
	for round := 1; ; round++ {
		var props []hierarchyProposal
		for _, p := range c.singletons(func(territory.RegionID) bool { return true }) {
			hp, ok := c.bestHierarchyTarget(p.mun, p.source)
			if !ok {
				c.trail.Reject(StageHierarchy, p.mun, p.source, "", "no-candidate", nil)
				continue
			}
			props = append(props, hp)
		}
		if len(props) == 0 {
			break
		}
		sort.Slice(props, func(i, j int) bool {
			if props[i].regicRank != props[j].regicRank {
				return props[i].regicRank < props[j].regicRank
			}
			return props[i].mun < props[j].mun
		})
		applied := 0
		consumed := make(map[territory.UnitID]struct{})
		for _, p := range props {
			if _, ok := consumed[p.source]; ok {
				c.trail.Reject(StageHierarchy, p.mun, p.source, p.target, "round-conflict", nil)
				continue
			}
			if _, ok := consumed[p.target]; ok {
				c.trail.Reject(StageHierarchy, p.mun, p.source, p.target, "round-conflict", nil)
				continue
			}
			err := c.absorb(p.proposal, StageHierarchy, "regic-geography", map[string]float64{
				"regic_rank": float64(p.regicRank),
				"distance":   p.distance,
				"boundary":   p.boundary,
			})
			if err != nil {
				return total, err
			}
			consumed[p.source] = struct{}{}
			consumed[p.target] = struct{}{}
			applied++
		}
		total += applied
		if applied == 0 {
			break
		}
		c.log.Info("hierarchy round done", "round", round, "moves", applied)
	}
	return total, nil
}
