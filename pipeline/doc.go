// Package pipeline wires the consolidation engine together and exposes the
// procedural API an external orchestrator drives:
//
//	p, _ := pipeline.New(inputs, cfg)
//	_ = p.Initialize()
//	_, _ = p.RunFunctionalPass()
//	_, _ = p.RunSeatPass()
//	_, _ = p.RunBorderValidation(borders.PrincipalFlow{})
//	_, _ = p.ResolveIsolated()
//	snap := p.ExportSnapshot("final")
//
// Initialize builds the territorial graph, the spatial adjacency index, the
// flow matrix, the travel-time table and the coloring; the passes then
// mutate the graph in place. All passes share one audit trail. The whole
// pipeline is single-threaded by design: moves are proposed, validated and
// committed in rounds, never concurrently.
package pipeline
