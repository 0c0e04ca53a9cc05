// Package borders refines planning-unit borders municipality by
// municipality until the layout converges.
//
// Each iteration recomputes the border set (non-seat municipalities with at
// least one spatial neighbor in a foreign unit), asks the selection
// strategy for one proposal per border municipality, validates every
// proposal against the shared rule stack, resolves transitive chains and
// executes the surviving moves as one batch; a source unit drained of its
// last member is retired. The loop stops when a round executes nothing or
// the iteration cap is reached.
//
// The validation stack, applied to every proposal regardless of strategy:
//
//  1. non-oscillation: the municipality's movement counter is below the
//     cap and the proposed target is absent from its recent-destination
//     history;
//  2. region compatibility between origin and target unit;
//  3. unit-level spatial adjacency between origin and target unit;
//  4. flow share: the trips driving the move are at least the configured
//     fraction of the municipality's outbound total;
//  5. fragmentation safety: the origin unit's remaining members stay one
//     connected component.
//
// Two strategies are provided behind the Strategy interface and are
// deliberately not merged:
//
//   - PrincipalFlow proposes the municipality's principal destination
//     within the travel-time limit, and only when that destination is a
//     direct spatial neighbor.
//   - ReachableSeat proposes a move when the current seat is out of reach,
//     or a different reachable seat attracts strictly more flow; after
//     convergence a fallback round relocates municipalities still cut off
//     from their seat by unconstrained principal flow, waiving only the
//     direct-neighbor requirement.
//
// Transitive chains (A moves toward B while B moves toward C) are followed
// to the terminal, non-moving municipality and every link is redirected to
// its unit; a revisited municipality or an exhausted depth budget truncates
// the chain to the immediate target and logs a warning.
package borders
