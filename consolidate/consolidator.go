package consolidate

import (
	"errors"
	"log/slog"
	"sort"

	"github.com/geovalida/geovalida/audit"
	"github.com/geovalida/geovalida/flow"
	"github.com/geovalida/geovalida/geometry"
	"github.com/geovalida/geovalida/territory"
)

// Stage names used in audit entries.
const (
	StageMetroSingleton = "functional:metro-singleton"
	StageNoRegion       = "functional:no-region"
	StageHierarchy      = "functional:hierarchy"
)

// ErrNilDependency indicates a consolidator built without its graph,
// adjacency index or flow matrix.
var ErrNilDependency = errors.New("consolidate: nil dependency")

// Consolidator runs the singleton-resolution passes over one graph.
type Consolidator struct {
	g     *territory.Graph
	idx   *geometry.Index
	flows *flow.Matrix
	trail *audit.Log
	log   *slog.Logger
}

// Option configures a Consolidator.
type Option func(*Consolidator)

// WithAuditLog routes decisions into a shared trail; by default the
// consolidator keeps its own.
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

// New builds a Consolidator over the graph, adjacency index and flow
// matrix, all of which must be non-nil.
func New(g *territory.Graph, idx *geometry.Index, flows *flow.Matrix, opts ...Option) (*Consolidator, error) {
	if g == nil || idx == nil || flows == nil {
		return nil, ErrNilDependency
	}
	c := &Consolidator{g: g, idx: idx, flows: flows, log: slog.Default()}
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

// Run executes the three passes in order and returns the total number of
// applied moves.
func (c *Consolidator) Run() (int, error) {
	a, err := c.ResolveMetroSingletons()
	if err != nil {
		return a, err
	}
	b, err := c.ResolveNoRegionSingletons()
	if err != nil {
		return a + b, err
	}
	h, err := c.ResolveByHierarchy()
	return a + b + h, err
}

// proposal is one candidate singleton absorption.
type proposal struct {
	mun    territory.MunicipalityID
	source territory.UnitID
	target territory.UnitID
	trips  float64
}

// singletons returns the current singleton units restricted by the region
// predicate, each paired with its lone member.
func (c *Consolidator) singletons(keep func(territory.RegionID) bool) []proposal {
	var out []proposal
	for _, u := range c.g.SingletonUnits() {
		r, err := c.g.RegionOfUnit(u)
		if err != nil || !keep(r) {
			continue
		}
		members, err := c.g.MembersOf(u)
		if err != nil || len(members) != 1 {
			continue
		}
		out = append(out, proposal{mun: members[0], source: u})
	}
	return out
}

// bestFlowTarget returns the region-compatible neighboring unit attracting
// the most aggregate flow from the municipality. Ties break to the smaller
// unit id; ok is false when no compatible neighbor attracts any flow.
func (c *Consolidator) bestFlowTarget(m territory.MunicipalityID, source territory.UnitID) (territory.UnitID, float64, bool) {
	units, err := c.idx.NeighboringUnits(m, c.g)
	if err != nil {
		return "", 0, false
	}
	sourceRegion, err := c.g.RegionOfUnit(source)
	if err != nil {
		return "", 0, false
	}
	var (
		best      territory.UnitID
		bestTrips float64
		found     bool
	)
	for _, u := range units {
		r, err := c.g.RegionOfUnit(u)
		if err != nil || !geometry.RegionCompatible(sourceRegion, r) {
			continue
		}
		trips, err := c.flows.FlowToUnit(c.g, m, u)
		if err != nil || trips <= 0 {
			continue
		}
		if !found || trips > bestTrips {
			best, bestTrips, found = u, trips, true
		}
	}
	return best, bestTrips, found
}

// absorb moves the lone member into the target, revokes the source seat and
// retires the source unit.
func (c *Consolidator) absorb(p proposal, stage, reason string, evidence map[string]float64) error {
	if err := c.g.Move(p.mun, p.target); err != nil {
		return err
	}
	c.g.RevokeSeat(p.source)
	if err := c.g.RetireUnit(p.source); err != nil {
		return err
	}
	c.trail.Accept(stage, p.mun, p.source, p.target, reason, evidence)
	return nil
}

// ResolveMetroSingletons is Pass A: each singleton inside a real metro
// region joins the compatible neighbor with the highest aggregate flow.
func (c *Consolidator) ResolveMetroSingletons() (int, error) {
	moves := 0
	for _, p := range c.singletons(func(r territory.RegionID) bool { return r != territory.NoRegion }) {
		target, trips, ok := c.bestFlowTarget(p.mun, p.source)
		if !ok {
			c.trail.Reject(StageMetroSingleton, p.mun, p.source, "", "zero-flow", nil)
			continue
		}
		p.target, p.trips = target, trips
		if err := c.absorb(p, StageMetroSingleton, "aggregate-flow",
			map[string]float64{"trips": trips}); err != nil {
			return moves, err
		}
		moves++
	}
	c.log.Info("metro singleton pass done", "moves", moves)
	return moves, nil
}

// ResolveNoRegionSingletons is Pass B: repeated rounds over region-less
// singletons, applying each round's proposals in descending flow order with
// source/target conflict skipping, until a round moves nothing.
func (c *Consolidator) ResolveNoRegionSingletons() (int, error) {
	total := 0
	for round := 1; ; round++ {
		var props []proposal
		for _, p := range c.singletons(func(r territory.RegionID) bool { return r == territory.NoRegion }) {
			target, trips, ok := c.bestFlowTarget(p.mun, p.source)
			if !ok {
				continue // no flow evidence yet; Pass C picks these up
			}
			p.target, p.trips = target, trips
			props = append(props, p)
		}
		applied, err := c.applyRound(props, StageNoRegion, "aggregate-flow")
		if err != nil {
			return total, err
		}
		total += applied
		if applied == 0 {
			break
		}
		c.log.Info("no-region round done", "round", round, "moves", applied)
	}
	return total, nil
}

// applyRound applies proposals in descending trip order (municipality id
// breaking ties), skipping any whose source or target unit was already
// consumed this round.
func (c *Consolidator) applyRound(props []proposal, stage, reason string) (int, error) {
	sort.Slice(props, func(i, j int) bool {
		if props[i].trips != props[j].trips {
			return props[i].trips > props[j].trips
		}
		return props[i].mun < props[j].mun
	})
	consumed := make(map[territory.UnitID]struct{})
	applied := 0
	for _, p := range props {
		if _, ok := consumed[p.source]; ok {
			c.trail.Reject(stage, p.mun, p.source, p.target, "round-conflict", nil)
			continue
		}
		if _, ok := consumed[p.target]; ok {
			c.trail.Reject(stage, p.mun, p.source, p.target, "round-conflict", nil)
			continue
		}
		if err := c.absorb(p, stage, reason,
			map[string]float64{"trips": p.trips}); err != nil {
			return applied, err
		}
		consumed[p.source] = struct{}{}
		consumed[p.target] = struct{}{}
		applied++
	}
	return applied, nil
}
