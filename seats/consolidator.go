package seats

import (
	"errors"
	"log/slog"

	"github.com/geovalida/geovalida/audit"
	"github.com/geovalida/geovalida/config"
	"github.com/geovalida/geovalida/flow"
	"github.com/geovalida/geovalida/geometry"
	"github.com/geovalida/geovalida/territory"
)

// Stage is the audit stage name of the seat-consolidation pass.
const Stage = "seats"

// Sentinel errors.
var (
	// ErrNilDependency indicates a consolidator built without its inputs.
	ErrNilDependency = errors.New("seats: nil dependency")

	// ErrUnitWithoutSeat marks a unit excluded from the pass because it
	// has no registered seat.
	ErrUnitWithoutSeat = errors.New("seats: unit without seat")
)

// Rejection rule codes recorded in the audit trail.
const (
	ruleTravelTime     = "travel-time"
	ruleRegion         = "region"
	ruleAdjacency      = "unit-adjacency"
	ruleInfrastructure = "infrastructure"
	ruleStale          = "stale-candidate"
)

// Consolidator runs the seat-dependency pass over one graph.
type Consolidator struct {
	g      *territory.Graph
	idx    *geometry.Index
	flows  *flow.Matrix
	travel *flow.TravelTimes
	cfg    config.Config
	trail  *audit.Log
	log    *slog.Logger
}

// Option configures a Consolidator.
type Option func(*Consolidator)

// WithAuditLog routes decisions into a shared trail.
func WithAuditLog(t *audit.Log) Option {
	return func(c *Consolidator) {
		if t != nil {
			c.trail = t
		}
	}
}

// WithLogger attaches a structured logger; defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Consolidator) {
		if l != nil {
			c.log = l
		}
	}
}

// New builds a seat consolidator. Graph, index, matrix and travel table
// must all be non-nil.
func New(g *territory.Graph, idx *geometry.Index, flows *flow.Matrix, travel *flow.TravelTimes, cfg config.Config, opts ...Option) (*Consolidator, error) {
	if g == nil || idx == nil || flows == nil || travel == nil {
		return nil, ErrNilDependency
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Consolidator{g: g, idx: idx, flows: flows, travel: travel, cfg: cfg, log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if c.trail == nil {
		c.trail = audit.NewLog(c.log)
	}
	return c, nil
}

// Trail returns the decision trail the consolidator writes to.
func (c *Consolidator) Trail() *audit.Log { return c.trail }

// dependency is one detected seat-on-seat dependency.
type dependency struct {
	source     territory.UnitID
	sourceSeat territory.MunicipalityID
	target     territory.UnitID
	targetSeat territory.MunicipalityID
	trips      float64
	hours      float64
}

// detect finds every dependent seat in the current graph. The list is
// computed once; later batch applications do not re-open it.
func (c *Consolidator) detect() []dependency {
	var out []dependency
	for _, u := range c.g.Units() {
		seat, ok := c.g.SeatOf(u)
		if !ok {
			c.log.Warn("unit excluded from seat pass", "unit", string(u), "err", ErrUnitWithoutSeat)
			continue
		}
		dest, trips, ok := c.flows.PrincipalDestination(seat, nil)
		if !ok {
			continue
		}
		if !c.g.IsSeat(dest) {
			continue
		}
		destUnit, err := c.g.UnitOf(dest)
		if err != nil || destUnit == u {
			continue
		}
		hours, known := c.travel.Hours(seat, dest)
		if !known || hours > c.cfg.TravelTimeLimitHours {
			continue // not a dependency at all: the pull is out of reach
		}
		out = append(out, dependency{
			source: u, sourceSeat: seat,
			target: destUnit, targetSeat: dest,
			trips: trips, hours: hours,
		})
	}
	return out
}

// validate applies the ordered rule stack; empty string means the move is
// allowed.
func (c *Consolidator) validate(d dependency) string {
	if !c.travel.Reachable(d.sourceSeat, d.targetSeat, c.cfg.TravelTimeLimitHours) {
		return ruleTravelTime
	}
	srcRegion, err := c.g.RegionOfUnit(d.source)
	if err != nil {
		return ruleStale
	}
	dstRegion, err := c.g.RegionOfUnit(d.target)
	if err != nil {
		return ruleStale
	}
	if !geometry.RegionCompatible(srcRegion, dstRegion) {
		return ruleRegion
	}
	if !c.idx.UnitsAdjacent(c.g, d.source, d.target) {
		return ruleAdjacency
	}
	src, err := c.g.Municipality(d.sourceSeat)
	if err != nil {
		return ruleStale
	}
	dst, err := c.g.Municipality(d.targetSeat)
	if err != nil {
		return ruleStale
	}
	if dst.InfrastructureScore() < src.InfrastructureScore() {
		return ruleInfrastructure
	}
	return ""
}

// Run detects dependent seats once, validates each and absorbs the units
// that pass. Returns the number of absorbed units.
func (c *Consolidator) Run() (int, error) {
	deps := c.detect()
	absorbed := 0
	for _, d := range deps {
		// an earlier batch may have consumed either side
		if !c.g.HasUnit(d.source) || !c.g.HasUnit(d.target) {
			c.trail.Reject(Stage, d.sourceSeat, d.source, d.target, ruleStale, nil)
			continue
		}
		if seat, ok := c.g.SeatOf(d.source); !ok || seat != d.sourceSeat {
			c.trail.Reject(Stage, d.sourceSeat, d.source, d.target, ruleStale, nil)
			continue
		}
		if rule := c.validate(d); rule != "" {
			c.trail.Reject(Stage, d.sourceSeat, d.source, d.target, rule, map[string]float64{
				"trips": d.trips, "hours": d.hours,
			})
			continue
		}
		if err := c.absorb(d); err != nil {
			return absorbed, err
		}
		absorbed++
	}
	c.log.Info("seat pass done", "dependent", len(deps), "absorbed", absorbed)
	return absorbed, nil
}

// absorb moves the whole origin membership into the target unit, drops the
// origin seat flag and retires the origin unit.
func (c *Consolidator) absorb(d dependency) error {
	members, err := c.g.MembersOf(d.source)
	if err != nil {
		return err
	}
	c.g.RevokeSeat(d.source)
	for _, m := range members {
		if err := c.g.Move(m, d.target); err != nil {
			return err
		}
	}
	if err := c.g.RetireUnit(d.source); err != nil {
		return err
	}
	c.trail.Accept(Stage, d.sourceSeat, d.source, d.target, "seat-dependency", map[string]float64{
		"trips":   d.trips,
		"hours":   d.hours,
		"members": float64(len(members)),
	})
	return nil
}
