package territory

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Snapshot is a serializable capture of the full graph state plus the
// per-municipality color index, used for checkpointing between passes.
type Snapshot struct {
	// Stage names the pass that produced the snapshot.
	Stage string `json:"stage"`

	// Taken is the capture timestamp.
	Taken time.Time `json:"taken"`

	// Regions lists every metro region, NoRegion included.
	Regions []RegionID `json:"regions"`

	// UnitRegion maps each planning unit to its metro region.
	UnitRegion map[UnitID]RegionID `json:"unit_region"`

	// UnitSeat maps units to their designated seat. Only the registered
	// seat of a unit ever appears here; stale flags are not exported.
	UnitSeat map[UnitID]MunicipalityID `json:"unit_seat"`

	// Assignment maps each municipality to its owning unit.
	Assignment map[MunicipalityID]UnitID `json:"assignment"`

	// Municipalities holds the attribute records.
	Municipalities map[MunicipalityID]*Municipality `json:"municipalities"`

	// Coloring maps municipalities to color indexes; empty when the
	// coloring was never computed.
	Coloring map[MunicipalityID]int `json:"coloring,omitempty"`
}

// ExportSnapshot captures the current graph state under the given stage
// name. The capture is deep for assignments and shallow for municipality
// attribute records, which the pipeline treats as immutable.
func (g *Graph) ExportSnapshot(stage string) *Snapshot {
	s := &Snapshot{
		Stage:          stage,
		Taken:          time.Now().UTC(),
		Regions:        make([]RegionID, 0, len(g.regions)),
		UnitRegion:     make(map[UnitID]RegionID, len(g.unitRegion)),
		UnitSeat:       make(map[UnitID]MunicipalityID, len(g.seats)),
		Assignment:     make(map[MunicipalityID]UnitID, len(g.munUnit)),
		Municipalities: make(map[MunicipalityID]*Municipality, len(g.muns)),
	}
	for r := range g.regions {
		s.Regions = append(s.Regions, r)
	}
	for u, r := range g.unitRegion {
		s.UnitRegion[u] = r
	}
	for u, seat := range g.seats {
		// A seat entry is only valid while the seat remains a member of
		// its unit; anything else is a stale flag and is dropped here.
		if _, ok := g.unitMembers[u][seat]; ok {
			s.UnitSeat[u] = seat
		}
	}
	for m, u := range g.munUnit {
		s.Assignment[m] = u
	}
	for id, m := range g.muns {
		s.Municipalities[id] = m
	}
	if g.coloring != nil {
		s.Coloring = make(map[MunicipalityID]int, len(g.coloring))
		for id, c := range g.coloring {
			s.Coloring[id] = c
		}
	}
	g.log.Info("snapshot exported", "stage", stage,
		"municipalities", len(s.Assignment), "units", len(s.UnitRegion))
	return s
}

// ImportSnapshot replaces the graph state with the snapshot contents.
// The resulting graph is identical to the one that produced the snapshot:
// same nodes, same ownership edges, same attributes.
func (g *Graph) ImportSnapshot(s *Snapshot) error {
	if s == nil {
		return fmt.Errorf("territory: nil snapshot")
	}
	regions := map[RegionID]struct{}{NoRegion: {}}
	for _, r := range s.Regions {
		regions[r] = struct{}{}
	}
	unitRegion := make(map[UnitID]RegionID, len(s.UnitRegion))
	unitMembers := make(map[UnitID]map[MunicipalityID]struct{}, len(s.UnitRegion))
	for u, r := range s.UnitRegion {
		if _, ok := regions[r]; !ok {
			return fmt.Errorf("%w: %q (unit %q)", ErrUnknownRegion, r, u)
		}
		unitRegion[u] = r
		unitMembers[u] = make(map[MunicipalityID]struct{})
	}
	munUnit := make(map[MunicipalityID]UnitID, len(s.Assignment))
	muns := make(map[MunicipalityID]*Municipality, len(s.Assignment))
	for m, u := range s.Assignment {
		if _, ok := unitRegion[u]; !ok {
			return fmt.Errorf("%w: %q (municipality %d)", ErrUnknownUnit, u, m)
		}
		rec, ok := s.Municipalities[m]
		if !ok {
			return fmt.Errorf("%w: %d missing attribute record", ErrUnknownMunicipality, m)
		}
		munUnit[m] = u
		unitMembers[u][m] = struct{}{}
		muns[m] = rec
	}
	seats := make(map[UnitID]MunicipalityID, len(s.UnitSeat))
	for u, seat := range s.UnitSeat {
		members, ok := unitMembers[u]
		if !ok {
			return fmt.Errorf("%w: %q (seat %d)", ErrUnknownUnit, u, seat)
		}
		if _, ok = members[seat]; !ok {
			return fmt.Errorf("%w: municipality %d, unit %q", ErrSeatNotMember, seat, u)
		}
		seats[u] = seat
	}

	g.regions = regions
	g.unitRegion = unitRegion
	g.unitMembers = unitMembers
	g.seats = seats
	g.muns = muns
	g.munUnit = munUnit
	g.coloring = nil
	if len(s.Coloring) > 0 {
		g.coloring = make(map[MunicipalityID]int, len(s.Coloring))
		for id, c := range s.Coloring {
			g.coloring[id] = c
		}
	}
	g.log.Info("snapshot imported", "stage", s.Stage,
		"municipalities", len(munUnit), "units", len(unitRegion))
	return nil
}

// Encode writes the snapshot as JSON.
func (s *Snapshot) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("territory: encode snapshot: %w", err)
	}
	return nil
}

// DecodeSnapshot reads a JSON snapshot written by Encode.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("territory: decode snapshot: %w", err)
	}
	return &s, nil
}
