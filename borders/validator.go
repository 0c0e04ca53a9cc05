package borders

import (
	"errors"
	"log/slog"
	"sort"

	"github.com/geovalida/geovalida/audit"
	"github.com/geovalida/geovalida/config"
	"github.com/geovalida/geovalida/flow"
	"github.com/geovalida/geovalida/geometry"
	"github.com/geovalida/geovalida/territory"
)

// Sentinel errors.
var (
	// ErrNilDependency indicates a validator built without its inputs.
	ErrNilDependency = errors.New("borders: nil dependency")

	// ErrNilStrategy indicates Run was called without a strategy.
	ErrNilStrategy = errors.New("borders: nil strategy")
)

// Rejection rule codes recorded in the audit trail.
const (
	ruleMovementCap   = "movement-cap"
	ruleOscillation   = "oscillation"
	ruleRegion        = "region"
	ruleAdjacency     = "unit-adjacency"
	ruleFlowShare     = "flow-share"
	ruleFragmentation = "fragmentation"
)

// Proposal is one candidate relocation emitted by a strategy. DestMun is
// the municipality whose pull justifies the move; chains are followed
// through it.
type Proposal struct {
	Mun     territory.MunicipalityID
	Source  territory.UnitID
	Target  territory.UnitID
	DestMun territory.MunicipalityID
	Trips   float64
	Reason  string
}

// Result summarizes one border-validation run.
type Result struct {
	Iterations int
	Moves      int
	Converged  bool
}

// Validator drives the iterative refinement loop. Movement counters and
// history windows live for the duration of one Run.
type Validator struct {
	g      *territory.Graph
	idx    *geometry.Index
	flows  *flow.Matrix
	travel *flow.TravelTimes
	cfg    config.Config
	trail  *audit.Log
	log    *slog.Logger

	moveCount map[territory.MunicipalityID]int
	history   map[territory.MunicipalityID][]territory.UnitID
}

// Option configures a Validator.
type Option func(*Validator)

// WithAuditLog routes decisions into a shared trail.
func WithAuditLog(t *audit.Log) Option {
	return func(v *Validator) {
		if t != nil {
			v.trail = t
		}
	}
}

// WithLogger attaches a structured logger; defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.log = l
		}
	}
}

// New builds a border validator. Graph, index, matrix and travel table
// must all be non-nil.
func New(g *territory.Graph, idx *geometry.Index, flows *flow.Matrix, travel *flow.TravelTimes, cfg config.Config, opts ...Option) (*Validator, error) {
	if g == nil || idx == nil || flows == nil || travel == nil {
		return nil, ErrNilDependency
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	v := &Validator{g: g, idx: idx, flows: flows, travel: travel, cfg: cfg, log: slog.Default()}
	for _, opt := range opts {
		opt(v)
	}
	if v.trail == nil {
		v.trail = audit.NewLog(v.log)
	}
	return v, nil
}

// Trail returns the decision trail the validator writes to.
func (v *Validator) Trail() *audit.Log { return v.trail }

// MoveCount returns how often the municipality moved in the current run.
func (v *Validator) MoveCount(id territory.MunicipalityID) int { return v.moveCount[id] }

// Run executes the refinement loop with the given strategy. Counters and
// history reset at the start of every run.
func (v *Validator) Run(s Strategy) (Result, error) {
	if s == nil {
		return Result{}, ErrNilStrategy
	}
	v.moveCount = make(map[territory.MunicipalityID]int)
	v.history = make(map[territory.MunicipalityID][]territory.UnitID)

	var res Result
	for iter := 1; iter <= v.cfg.MaxIterations; iter++ {
		res.Iterations = iter
		moved, err := v.round(s, s.Stage())
		if err != nil {
			return res, err
		}
		res.Moves += moved
		v.log.Info("border iteration done",
			"strategy", s.Stage(), "iteration", iter, "moves", moved)
		if moved == 0 {
			res.Converged = true
			break
		}
	}

	if f, ok := s.(finalizer); ok {
		moved, err := v.executeRound(f.Final(v), s.Stage()+":fallback")
		if err != nil {
			return res, err
		}
		res.Moves += moved
	}
	return res, nil
}

// round collects one proposal per border municipality, validates, resolves
// chains and executes.
func (v *Validator) round(s Strategy, stage string) (int, error) {
	var props []Proposal
	for _, m := range v.BorderSet() {
		p, ok := s.Propose(v, m)
		if !ok {
			continue
		}
		props = append(props, p)
	}
	return v.executeRound(props, stage)
}

// executeRound validates the proposals as a batch against the round-start
// state, redirects chains and commits the survivors.
func (v *Validator) executeRound(props []Proposal, stage string) (int, error) {
	valid := make(map[territory.MunicipalityID]Proposal, len(props))
	for _, p := range props {
		if rule := v.validate(p); rule != "" {
			v.trail.Reject(stage, p.Mun, p.Source, p.Target, rule, map[string]float64{
				"trips": p.Trips, "share": v.flows.ShareTo(p.Mun, p.DestMun),
			})
			continue
		}
		valid[p.Mun] = p
	}
	v.redirectChains(valid)

	// deterministic commit order
	muns := make([]territory.MunicipalityID, 0, len(valid))
	for m := range valid {
		muns = append(muns, m)
	}
	sort.Slice(muns, func(i, j int) bool { return muns[i] < muns[j] })

	moved := 0
	sources := make(map[territory.UnitID]struct{})
	for _, m := range muns {
		p := valid[m]
		if p.Target == p.Source {
			continue // chain redirection folded the move away
		}
		if err := v.g.Move(p.Mun, p.Target); err != nil {
			return moved, err
		}
		v.moveCount[p.Mun]++
		v.pushHistory(p.Mun, p.Target)
		sources[p.Source] = struct{}{}
		v.trail.Accept(stage, p.Mun, p.Source, p.Target, p.Reason, map[string]float64{
			"trips": p.Trips, "share": v.flows.ShareTo(p.Mun, p.DestMun),
		})
		moved++
	}
	if err := v.retireEmptied(sources, stage); err != nil {
		return moved, err
	}
	return moved, nil
}

// retireEmptied destroys source units the round drained completely. Only a
// seatless unit can empty this way: seats never enter the border set.
func (v *Validator) retireEmptied(sources map[territory.UnitID]struct{}, stage string) error {
	units := make([]territory.UnitID, 0, len(sources))
	for u := range sources {
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool { return units[i] < units[j] })

	for _, u := range units {
		members, err := v.g.MembersOf(u)
		if err != nil || len(members) > 0 {
			continue
		}
		if err := v.g.RetireUnit(u); err != nil {
			return err
		}
		v.log.Info("retired emptied unit", "unit", string(u), "stage", stage)
	}
	return nil
}

// validate applies the shared rule stack; empty string means allowed.
func (v *Validator) validate(p Proposal) string {
	if v.moveCount[p.Mun] >= v.cfg.MovementCap {
		return ruleMovementCap
	}
	for _, past := range v.history[p.Mun] {
		if past == p.Target {
			return ruleOscillation
		}
	}
	srcRegion, err := v.g.RegionOfUnit(p.Source)
	if err != nil {
		return ruleRegion
	}
	dstRegion, err := v.g.RegionOfUnit(p.Target)
	if err != nil {
		return ruleRegion
	}
	if !geometry.RegionCompatible(srcRegion, dstRegion) {
		return ruleRegion
	}
	if !v.idx.MunicipalityAdjacentToUnit(v.g, p.Mun, p.Target) &&
		!v.idx.UnitsAdjacent(v.g, p.Source, p.Target) {
		return ruleAdjacency
	}
	if v.flows.ShareTo(p.Mun, p.DestMun) < v.cfg.FlowShareThreshold {
		return ruleFlowShare
	}
	if frag, err := v.idx.RemovalFragments(v.g, p.Mun); err != nil || frag {
		return ruleFragmentation
	}
	return ""
}

// redirectChains follows each proposal through the proposals of its pull
// municipality to the terminal, non-moving one, and retargets the whole
// chain to that municipality's unit. A revisited municipality or an
// exhausted depth budget truncates to the immediate target.
func (v *Validator) redirectChains(valid map[territory.MunicipalityID]Proposal) {
	for m, p := range valid {
		visited := map[territory.MunicipalityID]struct{}{m: {}}
		cur := p
		depth := 0
		for {
			next, moving := valid[cur.DestMun]
			if !moving {
				break // terminal: the pull municipality stays put
			}
			if _, seen := visited[cur.DestMun]; seen {
				v.log.Warn("cycle in relocation chain, truncating",
					"municipality", int64(m), "at", int64(cur.DestMun))
				cur = p
				break
			}
			depth++
			if depth >= v.cfg.ChainDepthLimit {
				v.log.Warn("relocation chain too deep, truncating",
					"municipality", int64(m), "depth", depth)
				cur = p
				break
			}
			visited[cur.DestMun] = struct{}{}
			cur = next
		}
		if cur.Mun != p.Mun {
			// terminal municipality's destination unit wins the chain
			p.Target = cur.Target
			valid[m] = p
		}
	}
}

// pushHistory records a destination unit, keeping the window bounded. A
// municipality may return to a unit it merely left, but not to one it
// recently moved into.
func (v *Validator) pushHistory(m territory.MunicipalityID, dest territory.UnitID) {
	h := append(v.history[m], dest)
	if len(h) > v.cfg.HistoryWindow {
		h = h[len(h)-v.cfg.HistoryWindow:]
	}
	v.history[m] = h
}

// BorderSet returns the sorted non-seat municipalities with at least one
// spatial neighbor in a foreign unit.
func (v *Validator) BorderSet() []territory.MunicipalityID {
	var out []territory.MunicipalityID
	for _, m := range v.g.Municipalities() {
		if v.g.IsSeat(m) {
			continue
		}
		units, err := v.idx.NeighboringUnits(m, v.g)
		if err != nil || len(units) == 0 {
			continue
		}
		out = append(out, m)
	}
	return out
}
