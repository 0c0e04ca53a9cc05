package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/paulmach/orb"

	"github.com/geovalida/geovalida/audit"
	"github.com/geovalida/geovalida/borders"
	"github.com/geovalida/geovalida/config"
	"github.com/geovalida/geovalida/consolidate"
	"github.com/geovalida/geovalida/flow"
	"github.com/geovalida/geovalida/geometry"
	"github.com/geovalida/geovalida/seats"
	"github.com/geovalida/geovalida/territory"
)

// Sentinel errors.
var (
	// ErrNotInitialized indicates a pass ran before Initialize.
	ErrNotInitialized = errors.New("pipeline: not initialized")

	// ErrAdjacencyUnavailable indicates the spatial index could not be
	// built; every pass depends on it, so the run aborts.
	ErrAdjacencyUnavailable = errors.New("pipeline: adjacency graph unavailable")

	// ErrNoMunicipalities indicates an empty input table.
	ErrNoMunicipalities = errors.New("pipeline: no municipalities")
)

// MunicipalityRecord is one row of the municipality input table.
type MunicipalityRecord struct {
	ID           territory.MunicipalityID
	Name         string
	State        string
	MetroRegion  territory.RegionID // NoRegion for ordinary municipalities
	InitialUnit  territory.UnitID
	IsSeat       bool
	REGICClass   string
	Population   int64
	TourismClass string
	HasAirport   bool
	Geometry     orb.Geometry
}

// Inputs bundles the three input tables of a run.
type Inputs struct {
	Municipalities []MunicipalityRecord
	Flows          []flow.Record
	TravelTimes    []flow.TravelRecord
	CRS            geometry.CRS
}

// Pipeline owns the shared state of one consolidation run.
type Pipeline struct {
	in  Inputs
	cfg config.Config
	log *slog.Logger

	g      *territory.Graph
	idx    *geometry.Index
	flows  *flow.Matrix
	travel *flow.TravelTimes
	trail  *audit.Log
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger attaches a structured logger; defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// New validates the configuration and stages the inputs. Nothing is built
// until Initialize.
func New(in Inputs, cfg config.Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(in.Municipalities) == 0 {
		return nil, ErrNoMunicipalities
	}
	p := &Pipeline{in: in, cfg: cfg, log: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	p.trail = audit.NewLog(p.log)
	return p, nil
}

// Initialize builds the graph, spatial index, flow matrix, travel table and
// the coloring. It may be called again to restart from the raw inputs.
func (p *Pipeline) Initialize() error {
	g := territory.NewGraph(territory.WithLogger(p.log))
	shapes := make(map[territory.MunicipalityID]orb.Geometry, len(p.in.Municipalities))

	for _, rec := range p.in.Municipalities {
		region := rec.MetroRegion
		if region == "" {
			region = territory.NoRegion
		}
		if region != territory.NoRegion && !g.HasRegion(region) {
			if err := g.AddRegion(region); err != nil {
				return err
			}
		}
		if !g.HasUnit(rec.InitialUnit) {
			if err := g.AddUnit(rec.InitialUnit, region); err != nil {
				return err
			}
		}
		m := &territory.Municipality{
			ID:         rec.ID,
			Name:       rec.Name,
			State:      rec.State,
			Region:     region,
			Population: rec.Population,
			REGIC:      rec.REGICClass,
			Tourism:    rec.TourismClass,
			HasAirport: rec.HasAirport,
		}
		if err := g.AddMunicipality(m, rec.InitialUnit); err != nil {
			return err
		}
		if rec.Geometry != nil {
			shapes[rec.ID] = rec.Geometry
		}
	}
	for _, rec := range p.in.Municipalities {
		if rec.IsSeat {
			if err := g.SetSeat(rec.InitialUnit, rec.ID); err != nil {
				return err
			}
		}
	}

	tol := p.cfg.AdjacencyBufferDegrees
	if p.in.CRS == geometry.CRSMetric {
		tol = p.cfg.AdjacencyBufferMeters
	}
	idx, err := geometry.NewIndex(shapes,
		geometry.WithCRS(p.in.CRS),
		geometry.WithTolerance(tol),
		geometry.WithIndexLogger(p.log))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAdjacencyUnavailable, err)
	}

	flows, err := flow.NewMatrix(p.in.Flows, flow.WithMatrixLogger(p.log))
	if err != nil {
		return err
	}
	travel, err := flow.NewTravelTimes(p.in.TravelTimes, flow.WithTravelLogger(p.log))
	if err != nil {
		return err
	}

	g.ComputeColoring(idx.NeighborMap())

	p.g, p.idx, p.flows, p.travel = g, idx, flows, travel
	p.log.Info("pipeline initialized",
		"municipalities", len(p.in.Municipalities),
		"units", len(g.Units()),
		"flows", len(p.in.Flows))
	return nil
}

// Graph exposes the live graph, mainly for inspection and tests.
func (p *Pipeline) Graph() *territory.Graph { return p.g }

// Trail returns the shared audit trail of the run.
func (p *Pipeline) Trail() *audit.Log { return p.trail }

// RunFunctionalPass resolves singleton units (metro, no-region rounds,
// hierarchy fallback) and returns the number of absorbed singletons.
func (p *Pipeline) RunFunctionalPass() (int, error) {
	if p.g == nil {
		return 0, ErrNotInitialized
	}
	c, err := consolidate.New(p.g, p.idx, p.flows,
		consolidate.WithAuditLog(p.trail), consolidate.WithLogger(p.log))
	if err != nil {
		return 0, err
	}
	return c.Run()
}

// RunSeatPass absorbs units whose seat depends on another unit's seat and
// returns the number of absorbed units.
func (p *Pipeline) RunSeatPass() (int, error) {
	if p.g == nil {
		return 0, ErrNotInitialized
	}
	c, err := seats.New(p.g, p.idx, p.flows, p.travel, p.cfg,
		seats.WithAuditLog(p.trail), seats.WithLogger(p.log))
	if err != nil {
		return 0, err
	}
	return c.Run()
}

// RunBorderValidation runs the iterative border refinement with the given
// strategy.
func (p *Pipeline) RunBorderValidation(s borders.Strategy) (borders.Result, error) {
	if p.g == nil {
		return borders.Result{}, ErrNotInitialized
	}
	v, err := borders.New(p.g, p.idx, p.flows, p.travel, p.cfg,
		borders.WithAuditLog(p.trail), borders.WithLogger(p.log))
	if err != nil {
		return borders.Result{}, err
	}
	return v.Run(s)
}

// ExportSnapshot captures the current assignment, seats, regions and
// coloring under the given stage name. The coloring is refreshed first so
// the exported indexes reflect the current adjacency.
func (p *Pipeline) ExportSnapshot(stage string) (*territory.Snapshot, error) {
	if p.g == nil {
		return nil, ErrNotInitialized
	}
	p.g.ComputeColoring(p.idx.NeighborMap())
	return p.g.ExportSnapshot(stage), nil
}
