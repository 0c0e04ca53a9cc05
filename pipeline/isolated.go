package pipeline

import (
	"sort"

	"github.com/geovalida/geovalida/territory"
)

// StageIsolated is the audit stage name of the isolated-municipality
// resolution pass.
const StageIsolated = "isolated"

// rankedFlowLimit caps how many of a municipality's strongest in-reach
// destinations feed the reconnection score.
const rankedFlowLimit = 5

// regicBonusScale converts a REGIC rank into an additive score bonus;
// better-ranked centers get a larger bonus.
const regicBonusScale = 1000.0

// ResolveIsolated reattaches municipalities that cannot reach their unit's
// seat through same-unit adjacency. Candidates are adjacent foreign units
// scored by flow toward their seat and members plus a REGIC bonus; when no
// region-compatible flow candidate exists, the pass falls back to plain
// adjacency, first respecting the region rule and then waiving it. Returns
// the number of reattached municipalities.
func (p *Pipeline) ResolveIsolated() (int, error) {
	if p.g == nil {
		return 0, ErrNotInitialized
	}
	// collect first: moves below must not feed back into detection
	var isolated []territory.MunicipalityID
	for _, u := range p.g.Units() {
		out, err := p.idx.Unreachable(p.g, u)
		if err != nil {
			return 0, err
		}
		isolated = append(isolated, out...)
	}
	sort.Slice(isolated, func(i, j int) bool { return isolated[i] < isolated[j] })

	moved := 0
	for _, m := range isolated {
		source, err := p.g.UnitOf(m)
		if err != nil {
			continue
		}
		target, reason, evidence, ok := p.reconnectionTarget(m, source)
		if !ok {
			p.trail.Reject(StageIsolated, m, source, "", "truly-isolated", nil)
			continue
		}
		if err := p.g.Move(m, target); err != nil {
			return moved, err
		}
		if p.g.MemberCount(source) == 0 {
			p.g.RevokeSeat(source)
			if err := p.g.RetireUnit(source); err != nil {
				return moved, err
			}
		}
		p.trail.Accept(StageIsolated, m, source, target, reason, evidence)
		moved++
	}
	p.log.Info("isolated resolution done", "isolated", len(isolated), "reattached", moved)
	return moved, nil
}

// rankedFlows returns the municipality's strongest destinations within the
// travel-time limit, best first, capped at rankedFlowLimit.
func (p *Pipeline) rankedFlows(m territory.MunicipalityID) []territory.MunicipalityID {
	dests := p.travel.Within(m, p.cfg.TravelTimeLimitHours)
	sort.Slice(dests, func(i, j int) bool {
		ti, tj := p.flows.Trips(m, dests[i]), p.flows.Trips(m, dests[j])
		if ti != tj {
			return ti > tj
		}
		return dests[i] < dests[j]
	})
	var out []territory.MunicipalityID
	for _, d := range dests {
		if p.flows.Trips(m, d) <= 0 {
			continue
		}
		out = append(out, d)
		if len(out) == rankedFlowLimit {
			break
		}
	}
	return out
}

// regionAllows applies the region rule between the municipality's own
// region and the candidate unit's region.
func (p *Pipeline) regionAllows(m territory.MunicipalityID, unit territory.UnitID) bool {
	rec, err := p.g.Municipality(m)
	if err != nil {
		return false
	}
	r, err := p.g.RegionOfUnit(unit)
	if err != nil {
		return false
	}
	return rec.Region == r
}

// unitREGICRank is the rank of the unit's seat; seatless units rank last.
func (p *Pipeline) unitREGICRank(unit territory.UnitID) int {
	seat, ok := p.g.SeatOf(unit)
	if !ok {
		return territory.REGICRank("")
	}
	rec, err := p.g.Municipality(seat)
	if err != nil {
		return territory.REGICRank("")
	}
	return territory.REGICRank(rec.REGIC)
}

// reconnectionTarget picks the best unit for an isolated municipality.
func (p *Pipeline) reconnectionTarget(m territory.MunicipalityID, source territory.UnitID) (territory.UnitID, string, map[string]float64, bool) {
	units, err := p.idx.NeighboringUnits(m, p.g)
	if err != nil || len(units) == 0 {
		return "", "", nil, false
	}
	ranked := p.rankedFlows(m)

	// flow-scored, region-respecting candidates
	type candidate struct {
		unit  territory.UnitID
		score float64
		rank  int
		trips float64
	}
	var flowCands []candidate
	for _, u := range units {
		if !p.regionAllows(m, u) {
			continue
		}
		trips := 0.0
		seat, hasSeat := p.g.SeatOf(u)
		for _, d := range ranked {
			du, err := p.g.UnitOf(d)
			if err != nil || du != u {
				continue
			}
			trips += p.flows.Trips(m, d)
			if hasSeat && d == seat {
				trips += p.flows.Trips(m, d) // the seat pull counts twice
			}
		}
		rank := p.unitREGICRank(u)
		flowCands = append(flowCands, candidate{
			unit:  u,
			score: trips + regicBonusScale/float64(rank+1),
			rank:  rank,
			trips: trips,
		})
	}
	if len(flowCands) > 0 {
		sort.Slice(flowCands, func(i, j int) bool {
			if flowCands[i].score != flowCands[j].score {
				return flowCands[i].score > flowCands[j].score
			}
			return flowCands[i].unit < flowCands[j].unit
		})
		best := flowCands[0]
		return best.unit, "isolated:flow", map[string]float64{
			"score": best.score, "trips": best.trips, "regic_rank": float64(best.rank),
		}, true
	}

	// no region-compatible neighbor at all: fall back to plain adjacency
	// with the region rule waived, ranked by REGIC
	var fallback []candidate
	for _, u := range units {
		fallback = append(fallback, candidate{unit: u, rank: p.unitREGICRank(u)})
	}
	sort.Slice(fallback, func(i, j int) bool {
		if fallback[i].rank != fallback[j].rank {
			return fallback[i].rank < fallback[j].rank
		}
		return fallback[i].unit < fallback[j].unit
	})
	best := fallback[0]
	return best.unit, "isolated:adjacency-any", map[string]float64{
		"regic_rank": float64(best.rank),
	}, true
}
