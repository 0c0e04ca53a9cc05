// Package consolidate dissolves singleton planning units into functional
// neighbors. It runs three ordered passes:
//
//   - Pass A (metro singletons): a lone municipality inside a real metro
//     region joins the region-compatible neighboring unit attracting its
//     largest aggregate flow; zero aggregate flow means no move.
//   - Pass B (no-region rounds): remaining region-less singletons are
//     resolved the same way in repeated rounds, applying each round's
//     proposals in descending flow order and skipping proposals whose
//     source or target unit was already consumed in the round. Rounds stop
//     when one applies no move.
//   - Pass C (hierarchy fallback): singletons with no flow evidence fall
//     back to geography — region-compatible neighbors ranked by REGIC rank
//     ascending, centroid-to-seat distance ascending, shared boundary
//     length descending — with the same per-round conflict rule.
//
// An applied move always empties the source unit: its seat flag is revoked
// and the unit retired. Every acceptance and rejection lands in the audit
// trail with its evidence.
package consolidate
