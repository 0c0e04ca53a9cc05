// This file declares the typed identifiers, the Municipality attribute
// record, the Graph container, and the sentinel errors.
package territory

import (
	"errors"
	"log/slog"
)

// Sentinel errors for territorial graph operations.
var (
	// ErrUnknownMunicipality indicates an operation referenced a municipality
	// that was never added to the graph.
	ErrUnknownMunicipality = errors.New("territory: municipality not found")

	// ErrUnknownUnit indicates an operation referenced a non-existent planning unit.
	ErrUnknownUnit = errors.New("territory: planning unit not found")

	// ErrUnknownRegion indicates an operation referenced a non-existent metro region.
	ErrUnknownRegion = errors.New("territory: metro region not found")

	// ErrDuplicateID indicates an AddRegion/AddUnit/AddMunicipality call
	// reused an identifier already present in the graph.
	ErrDuplicateID = errors.New("territory: duplicate identifier")

	// ErrUnitNotEmpty indicates RetireUnit was called while members remain.
	ErrUnitNotEmpty = errors.New("territory: planning unit still has members")

	// ErrSeatNotMember indicates SetSeat named a municipality that is not a
	// member of the unit.
	ErrSeatNotMember = errors.New("territory: seat is not a member of the unit")
)

// RegionID identifies a metro region.
type RegionID string

// NoRegion is the synthetic region that holds every planning unit not
// assigned to a real metro region. It is a valid, first-class region.
const NoRegion RegionID = "NO_REGION"

// UnitID identifies a planning unit.
type UnitID string

// MunicipalityID identifies a municipality (numeric national code).
type MunicipalityID int64

// Municipality holds the per-municipality attributes consumed by the
// consolidation and validation passes. Geometry is kept outside the graph
// (see package geometry) so the hierarchy stays a pure ownership structure.
type Municipality struct {
	// ID is the unique national code of the municipality.
	ID MunicipalityID

	// Name is the display name.
	Name string

	// State is the federative unit the municipality belongs to.
	State string

	// Region is the metro region tag, or NoRegion.
	Region RegionID

	// Population is the resident population count.
	Population int64

	// REGIC is the national urban-hierarchy classification label.
	REGIC string

	// Tourism is the tourism classification label, empty when absent.
	Tourism string

	// HasAirport reports whether the municipality hosts an airport.
	HasAirport bool
}

// Graph is the hierarchical territorial structure. It is not safe for
// concurrent mutation; the consolidation pipeline is a single-threaded
// batch process by design.
type Graph struct {
	regions map[RegionID]struct{}

	unitRegion  map[UnitID]RegionID
	unitMembers map[UnitID]map[MunicipalityID]struct{}
	seats       map[UnitID]MunicipalityID

	muns    map[MunicipalityID]*Municipality
	munUnit map[MunicipalityID]UnitID

	// coloring holds the last result of ComputeColoring, carried into
	// snapshots. Nil until computed.
	coloring map[MunicipalityID]int

	log *slog.Logger
}

// GraphOption configures a Graph before first use.
type GraphOption func(*Graph)

// WithLogger attaches a structured logger; defaults to slog.Default().
func WithLogger(l *slog.Logger) GraphOption {
	return func(g *Graph) {
		if l != nil {
			g.log = l
		}
	}
}

// NewGraph creates an empty territorial graph containing only the implicit
// country root and the NoRegion metro region.
// Complexity: O(1)
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		regions:     map[RegionID]struct{}{NoRegion: {}},
		unitRegion:  make(map[UnitID]RegionID),
		unitMembers: make(map[UnitID]map[MunicipalityID]struct{}),
		seats:       make(map[UnitID]MunicipalityID),
		muns:        make(map[MunicipalityID]*Municipality),
		munUnit:     make(map[MunicipalityID]UnitID),
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}

	return g
}
