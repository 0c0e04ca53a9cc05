package flow

import (
	"errors"
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/geovalida/geovalida/territory"
)

// Sentinel errors for flow ingestion and queries.
var (
	// ErrNegativeTrips indicates a record with a negative trip count.
	ErrNegativeTrips = errors.New("flow: negative trip count")

	// ErrUnknownOrigin indicates a query for an origin with no outbound
	// record at all.
	ErrUnknownOrigin = errors.New("flow: origin not in matrix")
)

// Record is one origin-destination trip observation.
type Record struct {
	Origin territory.MunicipalityID
	Dest   territory.MunicipalityID
	Trips  float64
}

// Matrix is the aggregated origin-destination trip matrix. Immutable after
// construction.
type Matrix struct {
	out    map[territory.MunicipalityID]map[territory.MunicipalityID]float64
	totals map[territory.MunicipalityID]float64
	log    *slog.Logger
}

// MatrixOption configures NewMatrix.
type MatrixOption func(*Matrix)

// WithMatrixLogger attaches a structured logger; defaults to slog.Default().
func WithMatrixLogger(l *slog.Logger) MatrixOption {
	return func(m *Matrix) {
		if l != nil {
			m.log = l
		}
	}
}

// NewMatrix aggregates trip records into a queryable matrix. Duplicate
// origin-destination pairs accumulate. Self-flows are dropped; negative
// trips abort with ErrNegativeTrips.
func NewMatrix(records []Record, opts ...MatrixOption) (*Matrix, error) {
	m := &Matrix{
		out:    make(map[territory.MunicipalityID]map[territory.MunicipalityID]float64),
		totals: make(map[territory.MunicipalityID]float64),
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	selfDropped := 0
	for _, r := range records {
		if r.Trips < 0 {
			return nil, ErrNegativeTrips
		}
		if r.Origin == r.Dest {
			selfDropped++
			continue
		}
		row := m.out[r.Origin]
		if row == nil {
			row = make(map[territory.MunicipalityID]float64)
			m.out[r.Origin] = row
		}
		row[r.Dest] += r.Trips
	}
	for o, row := range m.out {
		trips := make([]float64, 0, len(row))
		for _, v := range row {
			trips = append(trips, v)
		}
		m.totals[o] = floats.Sum(trips)
	}
	m.log.Info("flow matrix built",
		"origins", len(m.out), "records", len(records), "self_dropped", selfDropped)
	return m, nil
}

// Trips returns the trip count from origin to dest; zero when unrecorded.
func (m *Matrix) Trips(origin, dest territory.MunicipalityID) float64 {
	return m.out[origin][dest]
}

// TotalFrom returns the origin's total outbound trips; zero when the origin
// never appears.
func (m *Matrix) TotalFrom(origin territory.MunicipalityID) float64 {
	return m.totals[origin]
}

// ShareTo returns trips(origin→dest) as a fraction of the origin's outbound
// total, the quantity compared against the flow-share threshold. An origin
// with no outbound trips has share zero everywhere.
func (m *Matrix) ShareTo(origin, dest territory.MunicipalityID) float64 {
	total := m.totals[origin]
	if total == 0 {
		return 0
	}
	return m.out[origin][dest] / total
}

// HasOrigin reports whether the origin has any outbound record.
func (m *Matrix) HasOrigin(origin territory.MunicipalityID) bool {
	_, ok := m.out[origin]
	return ok
}

// Destinations returns the origin's recorded destinations, sorted.
func (m *Matrix) Destinations(origin territory.MunicipalityID) []territory.MunicipalityID {
	row := m.out[origin]
	out := make([]territory.MunicipalityID, 0, len(row))
	for d := range row {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PrincipalDestination returns the destination receiving the most trips from
// the origin among those the allowed predicate admits (nil means all). Ties
// break to the smaller id. ok is false when no admitted destination has a
// positive trip count.
func (m *Matrix) PrincipalDestination(origin territory.MunicipalityID, allowed func(territory.MunicipalityID) bool) (dest territory.MunicipalityID, trips float64, ok bool) {
	for _, d := range m.Destinations(origin) {
		if allowed != nil && !allowed(d) {
			continue
		}
		v := m.out[origin][d]
		if v <= 0 {
			continue
		}
		if !ok || v > trips {
			dest, trips, ok = d, v, true
		}
	}
	return dest, trips, ok
}

// FlowToUnit sums the origin's outbound trips toward every member of the
// target unit. The origin itself is excluded when it is a member.
func (m *Matrix) FlowToUnit(g *territory.Graph, origin territory.MunicipalityID, target territory.UnitID) (float64, error) {
	members, err := g.MembersOf(target)
	if err != nil {
		return 0, err
	}
	trips := make([]float64, 0, len(members))
	for _, d := range members {
		if d == origin {
			continue
		}
		trips = append(trips, m.out[origin][d])
	}
	return floats.Sum(trips), nil
}

// Origins returns every origin with outbound records, sorted.
func (m *Matrix) Origins() []territory.MunicipalityID {
	out := make([]territory.MunicipalityID, 0, len(m.out))
	for o := range m.out {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
