package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/geovalida/geovalida/territory"
)

// rings flattens a geometry into its boundary rings. Only area geometries
// carry a boundary; anything else yields nil.
func rings(g orb.Geometry) []orb.Ring {
	switch v := g.(type) {
	case orb.Ring:
		return []orb.Ring{v}
	case orb.Polygon:
		return []orb.Ring(v)
	case orb.MultiPolygon:
		var out []orb.Ring
		for _, p := range v {
			out = append(out, p...)
		}
		return out
	case orb.Collection:
		var out []orb.Ring
		for _, sub := range v {
			out = append(out, rings(sub)...)
		}
		return out
	default:
		return nil
	}
}

// pointToRings returns the distance from p to the nearest boundary segment.
func pointToRings(p orb.Point, rs []orb.Ring) float64 {
	best := math.Inf(1)
	for _, r := range rs {
		for i := 1; i < len(r); i++ {
			if d := planar.DistanceFromSegment(r[i-1], r[i], p); d < best {
				best = d
			}
		}
	}
	return best
}

// boundaryDistance approximates the minimum distance between the boundaries
// of two geometries by testing every vertex of each against the segments of
// the other. Exact for touching or vertex-dense boundaries, which is all the
// adjacency test needs at buffer scale.
func boundaryDistance(a, b orb.Geometry) float64 {
	ra, rb := rings(a), rings(b)
	best := math.Inf(1)
	for _, r := range ra {
		for _, p := range r {
			if d := pointToRings(p, rb); d < best {
				best = d
			}
		}
	}
	for _, r := range rb {
		for _, p := range r {
			if d := pointToRings(p, ra); d < best {
				best = d
			}
		}
	}
	return best
}

// CentroidDistance returns the metric distance between the centroids of two
// municipalities, the geographic tie-break used when flow evidence cannot
// pick a destination.
func (idx *Index) CentroidDistance(a, b territory.MunicipalityID) (float64, error) {
	ca, ok := idx.centers[a]
	if !ok {
		return 0, ErrUnknownShape
	}
	cb, ok := idx.centers[b]
	if !ok {
		return 0, ErrUnknownShape
	}
	return planar.Distance(ca, cb), nil
}

// Centroid returns the metric centroid of a municipality shape.
func (idx *Index) Centroid(id territory.MunicipalityID) (orb.Point, error) {
	c, ok := idx.centers[id]
	if !ok {
		return orb.Point{}, ErrUnknownShape
	}
	return c, nil
}

// sharedSampleSteps is the per-segment subdivision of the shared-boundary
// measurement; error stays well under a segment length.
const sharedSampleSteps = 8

// SharedBoundaryLength measures, in metric units, how much of the boundary
// of municipality id runs along the dissolved boundary of the target unit's
// members. Each boundary segment of id is subdivided and the sub-segments
// whose midpoints lie within the adjacency tolerance of any member boundary
// are summed. Longer shared borders rank a target unit higher in the
// REGIC fallback ordering.
func (idx *Index) SharedBoundaryLength(g *territory.Graph, id territory.MunicipalityID, target territory.UnitID) (float64, error) {
	own, ok := idx.metric[id]
	if !ok {
		return 0, ErrUnknownShape
	}
	members, err := g.MembersOf(target)
	if err != nil {
		return 0, err
	}
	var targetRings []orb.Ring
	for _, m := range members {
		if m == id {
			continue
		}
		if shape, ok := idx.metric[m]; ok {
			targetRings = append(targetRings, rings(shape)...)
		}
	}
	if len(targetRings) == 0 {
		return 0, nil
	}

	tol := idx.metricTolerance()
	total := 0.0
	for _, r := range rings(own) {
		for i := 1; i < len(r); i++ {
			total += sharedAlongSegment(r[i-1], r[i], targetRings, tol)
		}
	}
	return total, nil
}

// sharedAlongSegment sums the sub-segment lengths of a-b whose midpoints sit
// within tol of the target rings.
func sharedAlongSegment(a, b orb.Point, target []orb.Ring, tol float64) float64 {
	segLen := planar.Distance(a, b)
	if segLen == 0 {
		return 0
	}
	step := segLen / sharedSampleSteps
	shared := 0.0
	for i := 0; i < sharedSampleSteps; i++ {
		t := (float64(i) + 0.5) / sharedSampleSteps
		mid := orb.Point{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t}
		if pointToRings(mid, target) <= tol {
			shared += step
		}
	}
	return shared
}

// metricTolerance maps the configured adjacency tolerance into the metric
// space measurements run in. A degree tolerance scales by the meters-per-
// degree ratio of the two buffer constants.
func (idx *Index) metricTolerance() float64 {
	if idx.crs == CRSMetric {
		return idx.tol
	}
	return idx.tol * (bufferMeters / bufferDegrees)
}
