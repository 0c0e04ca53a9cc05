// This file declares the CRS kinds, index options and sentinel errors.
package geometry

import (
	"errors"
	"log/slog"

	"github.com/geovalida/geovalida/territory"
)

// Sentinel errors for validator operations.
var (
	// ErrMissingGeometry indicates a municipality has no usable shape.
	ErrMissingGeometry = errors.New("geometry: missing geometry")

	// ErrEmptyIndex indicates an Index was requested over zero shapes; the
	// adjacency graph is a structural precondition of every pass, so this
	// aborts instead of degrading.
	ErrEmptyIndex = errors.New("geometry: no shapes to index")

	// ErrUnknownShape indicates a query referenced a municipality absent
	// from the index.
	ErrUnknownShape = errors.New("geometry: shape not indexed")
)

// CRS is the coordinate system shapes were delivered in.
type CRS int

const (
	// CRSGeographic means lon/lat degrees (WGS84).
	CRSGeographic CRS = iota
	// CRSMetric means an equal-area or conformal projection in meters.
	CRSMetric
)

// Adjacency tolerances by coordinate system. Degrees need a far smaller
// buffer than meters for an equivalent gap width.
const (
	bufferMeters  = 100.0
	bufferDegrees = 0.01
)

// BufferFor returns the adjacency tolerance sized for the coordinate
// system: boundaries closer than this are treated as touching.
func BufferFor(crs CRS) float64 {
	if crs == CRSMetric {
		return bufferMeters
	}
	return bufferDegrees
}

// RegionCompatible reports whether a municipality in region a may join a
// unit in region b: true only when both are unassigned (NoRegion) or both
// share the same real region. This rule is never relaxed.
func RegionCompatible(a, b territory.RegionID) bool {
	return a == b
}

// Option configures Index construction.
type Option func(*indexOptions)

type indexOptions struct {
	crs       CRS
	tolerance float64 // 0 means derive from CRS via BufferFor
	log       *slog.Logger
}

// WithCRS declares the coordinate system of the input shapes.
// Default: CRSGeographic.
func WithCRS(crs CRS) Option {
	return func(o *indexOptions) { o.crs = crs }
}

// WithTolerance overrides the adjacency tolerance derived from the CRS.
func WithTolerance(t float64) Option {
	return func(o *indexOptions) {
		if t > 0 {
			o.tolerance = t
		}
	}
}

// WithIndexLogger attaches a structured logger; defaults to slog.Default().
func WithIndexLogger(l *slog.Logger) Option {
	return func(o *indexOptions) {
		if l != nil {
			o.log = l
		}
	}
}
