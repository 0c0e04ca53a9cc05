// Package territory provides the in-memory hierarchical territorial graph:
// Country → Metro Region → Planning Unit → Municipality.
//
// The Graph G is a strict four-level hierarchy with typed node identifiers:
//
//   - RegionID    — a metro region, or the synthetic NoRegion value, which is
//     a first-class region for ordinary units.
//   - UnitID      — a planning unit; owns an ordered set of municipalities
//     and an optional designated seat.
//   - MunicipalityID — a leaf; belongs to exactly one unit at all times.
//
// Why use territory.Graph?
//
//   - Atomic reparenting — Move detaches a municipality from its current
//     unit and attaches it to the target in one step, so the single-owner
//     invariant can never be observed violated.
//   - Deterministic iteration — Units(), MembersOf(), SingletonUnits() all
//     return sorted results.
//   - Snapshot support — ExportSnapshot captures assignments, seats,
//     regions and the last coloring; ImportSnapshot reproduces an identical
//     graph (same nodes, edges, attributes).
//   - Welsh–Powell coloring — ComputeColoring assigns each municipality the
//     smallest color index unused by already-colored neighbors, visiting
//     municipalities by descending adjacency degree (ties by id). No two
//     adjacent municipalities ever share a color; chromatic minimality is
//     not guaranteed.
//
// Invariants enforced after every mutation:
//
//  1. every Municipality belongs to exactly one Planning Unit;
//  2. every Planning Unit belongs to exactly one Metro Region;
//  3. at most one member of a Planning Unit carries the seat flag.
//
// Errors:
//
//	ErrUnknownMunicipality — operation referenced a municipality absent from the graph.
//	ErrUnknownUnit         — operation referenced a non-existent planning unit.
//	ErrUnknownRegion       — operation referenced a non-existent metro region.
//	ErrDuplicateID         — an AddX call reused an existing identifier.
//	ErrUnitNotEmpty        — RetireUnit called on a unit that still has members.
//	ErrSeatNotMember       — SetSeat named a municipality outside the unit.
package territory
