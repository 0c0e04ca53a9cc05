package borders

import (
	"github.com/geovalida/geovalida/territory"
)

// Strategy selects at most one relocation proposal per border municipality.
// Proposals are validated by the shared rule stack; strategies only decide
// where the pull comes from.
type Strategy interface {
	// Stage names the strategy in audit entries.
	Stage() string

	// Propose returns the strategy's proposal for one border municipality,
	// or ok=false when the municipality should stay.
	Propose(v *Validator, m territory.MunicipalityID) (Proposal, bool)
}

// finalizer is implemented by strategies that want one extra proposal batch
// after the convergence loop.
type finalizer interface {
	Final(v *Validator) []Proposal
}

// PrincipalFlow proposes the municipality's principal destination within
// the travel-time limit, and only when that destination is a direct spatial
// neighbor: flow without geographic contact is not actionable.
type PrincipalFlow struct{}

// Stage implements Strategy.
func (PrincipalFlow) Stage() string { return "borders:principal-flow" }

// Propose implements Strategy.
func (PrincipalFlow) Propose(v *Validator, m territory.MunicipalityID) (Proposal, bool) {
	source, err := v.g.UnitOf(m)
	if err != nil {
		return Proposal{}, false
	}
	dest, trips, ok := v.flows.PrincipalDestination(m, func(d territory.MunicipalityID) bool {
		return v.travel.Reachable(m, d, v.cfg.TravelTimeLimitHours)
	})
	if !ok {
		return Proposal{}, false
	}
	if !v.idx.HasEdge(m, dest) {
		return Proposal{}, false
	}
	target, err := v.g.UnitOf(dest)
	if err != nil || target == source {
		return Proposal{}, false
	}
	return Proposal{
		Mun: m, Source: source, Target: target,
		DestMun: dest, Trips: trips, Reason: "principal-flow",
	}, true
}

// ReachableSeat proposes a move when the municipality's current seat is out
// of reach within the travel-time limit, or when a different reachable seat
// attracts strictly more of its flow than the current one. After the loop
// converges, a fallback batch relocates municipalities still cut off from
// their seat by unconstrained principal flow.
type ReachableSeat struct{}

// Stage implements Strategy.
func (ReachableSeat) Stage() string { return "borders:reachable-seat" }

// Propose implements Strategy.
func (ReachableSeat) Propose(v *Validator, m territory.MunicipalityID) (Proposal, bool) {
	source, err := v.g.UnitOf(m)
	if err != nil {
		return Proposal{}, false
	}
	currentSeat, hasSeat := v.g.SeatOf(source)
	seatReachable := hasSeat && v.travel.Reachable(m, currentSeat, v.cfg.TravelTimeLimitHours)
	currentTrips := 0.0
	if hasSeat {
		currentTrips = v.flows.Trips(m, currentSeat)
	}

	// strongest reachable foreign seat
	dest, trips, ok := v.flows.PrincipalDestination(m, func(d territory.MunicipalityID) bool {
		if !v.g.IsSeat(d) {
			return false
		}
		u, err := v.g.UnitOf(d)
		if err != nil || u == source {
			return false
		}
		return v.travel.Reachable(m, d, v.cfg.TravelTimeLimitHours)
	})
	if !ok {
		return Proposal{}, false
	}
	if seatReachable && trips <= currentTrips {
		return Proposal{}, false
	}
	target, err := v.g.UnitOf(dest)
	if err != nil {
		return Proposal{}, false
	}
	reason := "stronger-seat"
	if !seatReachable {
		reason = "seat-unreachable"
	}
	return Proposal{
		Mun: m, Source: source, Target: target,
		DestMun: dest, Trips: trips, Reason: reason,
	}, true
}

// Final implements finalizer: municipalities still unable to reach their
// seat follow their unconstrained principal flow, waiving the
// direct-neighbor requirement but nothing else.
func (ReachableSeat) Final(v *Validator) []Proposal {
	var out []Proposal
	for _, m := range v.g.Municipalities() {
		if v.g.IsSeat(m) {
			continue
		}
		source, err := v.g.UnitOf(m)
		if err != nil {
			continue
		}
		seat, hasSeat := v.g.SeatOf(source)
		if hasSeat && v.travel.Reachable(m, seat, v.cfg.TravelTimeLimitHours) {
			continue
		}
		dest, trips, ok := v.flows.PrincipalDestination(m, nil)
		if !ok {
			continue
		}
		target, err := v.g.UnitOf(dest)
		if err != nil || target == source {
			continue
		}
		out = append(out, Proposal{
			Mun: m, Source: source, Target: target,
			DestMun: dest, Trips: trips, Reason: "seat-disconnect-fallback",
		})
	}
	return out
}
