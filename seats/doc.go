// Package seats consolidates whole planning units whose seat depends on
// another unit's seat.
//
// A seat is dependent when its principal flow destination is the seat of a
// different unit, reachable within the travel-time limit. Dependent units
// are detected once per run, then each candidate is validated in order:
// travel time, region compatibility, unit-level spatial adjacency, and
// destination infrastructure score (airport + tourism, 0-2) not below the
// origin's. A unit that passes moves its entire membership to the
// destination unit in one atomic batch, loses its seat flag and is retired.
//
// Units without a registered seat are skipped for the run and logged; every
// rejection carries the rule that blocked it.
package seats
