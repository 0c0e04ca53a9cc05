package geometry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"
	"github.com/paulmach/orb/quadtree"

	"github.com/geovalida/geovalida/territory"
)

// Index is the spatial adjacency structure over all municipality shapes.
// Built once per pass; treated as read-only afterwards.
type Index struct {
	crs CRS
	tol float64
	log *slog.Logger

	shapes  map[territory.MunicipalityID]orb.Geometry // native CRS
	metric  map[territory.MunicipalityID]orb.Geometry // fixed metric projection
	centers map[territory.MunicipalityID]orb.Point    // metric centroids

	neighbors map[territory.MunicipalityID][]territory.MunicipalityID
}

// centroidItem lets municipality centroids live in an orb quadtree.
type centroidItem struct {
	id territory.MunicipalityID
	pt orb.Point
}

func (c centroidItem) Point() orb.Point { return c.pt }

// NewIndex builds the adjacency index over the given shapes.
//
// Candidate neighbor pairs are pruned with a quadtree over centroids, then
// confirmed by an exact boundary-distance test against the adjacency
// tolerance (BufferFor of the declared CRS unless overridden).
//
// Returns ErrEmptyIndex for an empty shape set and ErrMissingGeometry when
// any shape is nil — the adjacency graph is a precondition for every
// downstream pass, so construction does not degrade silently.
func NewIndex(shapes map[territory.MunicipalityID]orb.Geometry, opts ...Option) (*Index, error) {
	o := indexOptions{crs: CRSGeographic, log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if len(shapes) == 0 {
		return nil, ErrEmptyIndex
	}
	tol := o.tolerance
	if tol == 0 {
		tol = BufferFor(o.crs)
	}

	idx := &Index{
		crs:       o.crs,
		tol:       tol,
		log:       o.log,
		shapes:    make(map[territory.MunicipalityID]orb.Geometry, len(shapes)),
		metric:    make(map[territory.MunicipalityID]orb.Geometry, len(shapes)),
		centers:   make(map[territory.MunicipalityID]orb.Point, len(shapes)),
		neighbors: make(map[territory.MunicipalityID][]territory.MunicipalityID, len(shapes)),
	}

	ids := make([]territory.MunicipalityID, 0, len(shapes))
	for id, g := range shapes {
		if g == nil {
			return nil, fmt.Errorf("%w: municipality %d", ErrMissingGeometry, id)
		}
		idx.shapes[id] = g
		m := orb.Clone(g)
		if o.crs == CRSGeographic {
			m = project.Geometry(m, project.WGS84.ToMercator)
		}
		idx.metric[id] = m
		c, _ := planar.CentroidArea(m)
		idx.centers[id] = c
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	idx.buildAdjacency(ids)

	edges := 0
	for _, ns := range idx.neighbors {
		edges += len(ns)
	}
	idx.log.Info("adjacency index built",
		"shapes", len(ids), "edges", edges/2, "tolerance", tol)
	return idx, nil
}

// buildAdjacency fills idx.neighbors. Quadtree pruning happens in the
// native CRS; the exact test compares boundary distance to the tolerance.
func (idx *Index) buildAdjacency(ids []territory.MunicipalityID) {
	// Quadtree over native centroids; query bounds are padded by the
	// largest shape diagonal so no bound-intersecting candidate escapes.
	var world orb.Bound
	maxDiag := 0.0
	nativeCenter := make(map[territory.MunicipalityID]orb.Point, len(ids))
	for i, id := range ids {
		b := idx.shapes[id].Bound()
		if i == 0 {
			world = b
		} else {
			world = world.Union(b)
		}
		if d := planar.Distance(b.Min, b.Max); d > maxDiag {
			maxDiag = d
		}
		c, _ := planar.CentroidArea(idx.shapes[id])
		nativeCenter[id] = c
	}

	qt := quadtree.New(padBound(world, idx.tol))
	for _, id := range ids {
		if err := qt.Add(centroidItem{id: id, pt: nativeCenter[id]}); err != nil {
			idx.log.Warn("centroid outside index bound", "municipality", int64(id), "err", err)
		}
	}

	var buf []orb.Pointer
	for _, id := range ids {
		query := padBound(idx.shapes[id].Bound(), idx.tol+maxDiag)
		buf = qt.InBound(buf[:0], query)
		for _, p := range buf {
			other := p.(centroidItem).id
			if other <= id {
				continue // each unordered pair once
			}
			if !padBound(idx.shapes[id].Bound(), idx.tol).Intersects(idx.shapes[other].Bound()) {
				continue
			}
			if boundaryDistance(idx.shapes[id], idx.shapes[other]) <= idx.tol {
				idx.neighbors[id] = append(idx.neighbors[id], other)
				idx.neighbors[other] = append(idx.neighbors[other], id)
			}
		}
	}
	for id := range idx.neighbors {
		ns := idx.neighbors[id]
		sort.Slice(ns, func(i, j int) bool { return ns[i] < ns[j] })
	}
}

// Neighbors returns the sorted spatial neighbors of a municipality.
// Municipalities without neighbors return an empty slice; unknown ids
// return ErrUnknownShape.
func (idx *Index) Neighbors(id territory.MunicipalityID) ([]territory.MunicipalityID, error) {
	if _, ok := idx.shapes[id]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownShape, id)
	}
	return idx.neighbors[id], nil
}

// HasEdge reports whether a and b are spatially adjacent.
func (idx *Index) HasEdge(a, b territory.MunicipalityID) bool {
	for _, n := range idx.neighbors[a] {
		if n == b {
			return true
		}
	}
	return false
}

// NeighborMap exposes the full adjacency as a map, the shape consumed by
// territory.ComputeColoring. The returned map shares the index's slices
// and must be treated as read-only.
func (idx *Index) NeighborMap() map[territory.MunicipalityID][]territory.MunicipalityID {
	return idx.neighbors
}

// Has reports whether the municipality is indexed.
func (idx *Index) Has(id territory.MunicipalityID) bool {
	_, ok := idx.shapes[id]
	return ok
}

// Tolerance returns the adjacency tolerance in effect.
func (idx *Index) Tolerance() float64 { return idx.tol }

// NeighboringUnits returns the sorted planning units owning any spatial
// neighbor of the municipality, excluding the municipality's own unit.
func (idx *Index) NeighboringUnits(id territory.MunicipalityID, g *territory.Graph) ([]territory.UnitID, error) {
	ns, err := idx.Neighbors(id)
	if err != nil {
		return nil, err
	}
	own, err := g.UnitOf(id)
	if err != nil {
		return nil, err
	}
	seen := make(map[territory.UnitID]struct{})
	for _, n := range ns {
		u, uerr := g.UnitOf(n)
		if uerr != nil {
			continue // shape without graph assignment: not actionable
		}
		if u != own {
			seen[u] = struct{}{}
		}
	}
	out := make([]territory.UnitID, 0, len(seen))
	for u := range seen {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// UnitsAdjacent reports whether at least one member of unit a is a spatial
// neighbor of at least one member of unit b.
func (idx *Index) UnitsAdjacent(g *territory.Graph, a, b territory.UnitID) bool {
	members, err := g.MembersOf(a)
	if err != nil {
		return false
	}
	for _, m := range members {
		for _, n := range idx.neighbors[m] {
			u, uerr := g.UnitOf(n)
			if uerr == nil && u == b {
				return true
			}
		}
	}
	return false
}

// MunicipalityAdjacentToUnit reports whether the municipality touches any
// member of the target unit.
func (idx *Index) MunicipalityAdjacentToUnit(g *territory.Graph, id territory.MunicipalityID, target territory.UnitID) bool {
	for _, n := range idx.neighbors[id] {
		u, err := g.UnitOf(n)
		if err == nil && u == target {
			return true
		}
	}
	return false
}

// padBound grows a bound by d on every side.
func padBound(b orb.Bound, d float64) orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.Min[0] - d, b.Min[1] - d},
		Max: orb.Point{b.Max[0] + d, b.Max[1] + d},
	}
}
