package territory

import "sort"

// ComputeColoring assigns a small integer color index to every municipality
// so that no two spatially adjacent municipalities share an index
// (Welsh–Powell greedy coloring).
//
// adjacency maps each municipality to its spatial neighbors; entries for
// municipalities absent from the graph are ignored, and graph members
// missing from adjacency are treated as isolated (color 0 candidates).
//
// Order of assignment: descending adjacency degree, ties broken by
// ascending id, which makes the result deterministic. Each municipality
// receives the smallest color not already used by an already-colored
// neighbor. The palette is not guaranteed minimal.
//
// The result is retained on the graph and carried into snapshots.
// Complexity: O(V·log V + V·d) where d is the maximum degree.
func (g *Graph) ComputeColoring(adjacency map[MunicipalityID][]MunicipalityID) map[MunicipalityID]int {
	ids := g.Municipalities()

	// Welsh–Powell ordering: degree descending, id ascending.
	sort.SliceStable(ids, func(i, j int) bool {
		di, dj := len(adjacency[ids[i]]), len(adjacency[ids[j]])
		if di != dj {
			return di > dj
		}
		return ids[i] < ids[j]
	})

	colors := make(map[MunicipalityID]int, len(ids))
	for _, id := range ids {
		used := make(map[int]struct{})
		for _, nbr := range adjacency[id] {
			if c, ok := colors[nbr]; ok {
				used[c] = struct{}{}
			}
		}
		c := 0
		for {
			if _, taken := used[c]; !taken {
				break
			}
			c++
		}
		colors[id] = c
	}

	g.coloring = colors
	return colors
}

// Coloring returns the last computed coloring, or nil when none exists.
func (g *Graph) Coloring() map[MunicipalityID]int {
	return g.coloring
}
