// Package flow holds the commuting evidence every consolidation decision is
// argued from: the origin-destination trip matrix and the travel-time table.
//
// Matrix answers, for any origin municipality:
//
//   - Trips / TotalFrom / ShareTo — raw trip counts and the share of the
//     origin's outbound total going to one destination.
//   - PrincipalDestination — the destination receiving the most outbound
//     trips, optionally restricted by a candidate predicate; ties break to
//     the smaller id so repeated runs agree.
//   - FlowToUnit — outbound trips aggregated over a planning unit's members.
//
// TravelTimes answers reachability under an impedance limit. A pair absent
// from the table is NOT reachable: missing impedance data must never make a
// destination look closer than it is.
//
// Self-flows are dropped at ingest; a municipality is not a commuting
// destination of itself.
//
// Complexity: Trips and TotalFrom are O(1) lookups; PrincipalDestination is
// O(D) over the origin's destinations; FlowToUnit is O(M) over the target
// unit's members.
package flow
