// Package geovalida consolidates Brazilian municipalities into coherent
// territorial planning units.
//
// The engine is an offline, single-threaded batch pipeline over a
// territorial hierarchy (country, metro regions, planning units,
// municipalities) validated by spatial adjacency and argued from commuting
// evidence:
//
//	territory/   — the hierarchy graph: ownership, seats, coloring, snapshots
//	geometry/    — spatial adjacency, boundary measurement, contiguity
//	flow/        — origin-destination trip matrix and travel-time table
//	audit/       — the decision trail every pass writes to
//	consolidate/ — singleton-unit resolution (flow, then REGIC geography)
//	seats/       — whole-unit absorption of dependent seats
//	borders/     — iterative border refinement with pluggable strategies
//	pipeline/    — orchestration, input tables, isolated-member resolution
//	config/      — the named parameters of a run
//
// See pipeline for the procedural API an orchestrator drives.
package geovalida
