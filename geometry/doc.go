// Package geometry implements the territorial validator: spatial adjacency
// detection, boundary measurement, contiguity analysis and the metro-region
// compatibility rule.
//
// Municipality shapes are orb geometries (Polygon or MultiPolygon) tagged
// with the coordinate system they were delivered in. An Index is built once
// per pass over the full shape set and answers:
//
//   - Neighbors / HasEdge       — buffered spatial adjacency between
//     municipalities; two shapes are adjacent when their boundaries come
//     within the tolerance returned by BufferFor, which absorbs the small
//     topological gaps between nominally-touching polygons.
//   - NeighboringUnits          — planning units of all spatial neighbors.
//   - SharedBoundaryLength      — length, in meters of the fixed metric
//     projection, of the portion of a municipality's boundary lying along
//     the dissolved boundary of a target unit's members.
//   - CentroidDistance          — metric distance between centroids, the
//     geography tie-break of the REGIC fallback pass.
//   - Unreachable / Components  — seat-rooted contiguity of a unit's
//     members and connected components of a member subset, backing the
//     fragmentation-safety rule.
//
// Candidate pairs are pruned with an orb quadtree over shape centroids
// before the exact boundary-distance test runs, so index construction stays
// near-linear on real datasets.
//
// RegionCompatible implements the one rule that is never relaxed: a
// municipality may only join a unit when both sides share the same metro
// region, or both are unassigned.
package geometry
