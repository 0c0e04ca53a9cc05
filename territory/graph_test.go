package territory_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geovalida/geovalida/territory"
)

// buildGraph assembles a small two-region hierarchy used across tests:
//
//	region R: unit U1 {1, 2 (seat)}, unit U2 {3}
//	NoRegion: unit U3 {4}
func buildGraph(t *testing.T) *territory.Graph {
	t.Helper()
	g := territory.NewGraph()
	require.NoError(t, g.AddRegion("R"))
	require.NoError(t, g.AddUnit("U1", "R"))
	require.NoError(t, g.AddUnit("U2", "R"))
	require.NoError(t, g.AddUnit("U3", territory.NoRegion))
	for id, unit := range map[territory.MunicipalityID]territory.UnitID{
		1: "U1", 2: "U1", 3: "U2", 4: "U3",
	} {
		require.NoError(t, g.AddMunicipality(&territory.Municipality{ID: id, Region: regionOfUnit(unit)}, unit))
	}
	require.NoError(t, g.SetSeat("U1", 2))
	return g
}

func regionOfUnit(u territory.UnitID) territory.RegionID {
	if u == "U3" {
		return territory.NoRegion
	}
	return "R"
}

func TestGraph_Errors(t *testing.T) {
	g := territory.NewGraph()

	if err := g.AddRegion(territory.NoRegion); !errors.Is(err, territory.ErrDuplicateID) {
		t.Errorf("re-adding NoRegion: want ErrDuplicateID, got %v", err)
	}
	if err := g.AddUnit("U", "missing"); !errors.Is(err, territory.ErrUnknownRegion) {
		t.Errorf("unit under missing region: want ErrUnknownRegion, got %v", err)
	}
	if err := g.AddMunicipality(&territory.Municipality{ID: 7}, "missing"); !errors.Is(err, territory.ErrUnknownUnit) {
		t.Errorf("municipality under missing unit: want ErrUnknownUnit, got %v", err)
	}
	if err := g.Move(99, "anywhere"); !errors.Is(err, territory.ErrUnknownMunicipality) {
		t.Errorf("moving absent municipality: want ErrUnknownMunicipality, got %v", err)
	}
	if _, err := g.UnitOf(99); !errors.Is(err, territory.ErrUnknownMunicipality) {
		t.Errorf("UnitOf absent: want ErrUnknownMunicipality, got %v", err)
	}
}

func TestGraph_MoveIsAtomic(t *testing.T) {
	g := buildGraph(t)

	require.NoError(t, g.Move(1, "U2"))

	u, err := g.UnitOf(1)
	require.NoError(t, err)
	assert.Equal(t, territory.UnitID("U2"), u)

	m1, err := g.MembersOf("U1")
	require.NoError(t, err)
	assert.Equal(t, []territory.MunicipalityID{2}, m1)

	m2, err := g.MembersOf("U2")
	require.NoError(t, err)
	assert.Equal(t, []territory.MunicipalityID{1, 3}, m2)

	// moving to an unknown unit must not detach the municipality
	err = g.Move(1, "ghost")
	require.ErrorIs(t, err, territory.ErrUnknownUnit)
	u, err = g.UnitOf(1)
	require.NoError(t, err)
	assert.Equal(t, territory.UnitID("U2"), u)
}

// TestGraph_SingleOwnership asserts that across any sequence of moves,
// every municipality is listed by exactly one unit.
func TestGraph_SingleOwnership(t *testing.T) {
	g := buildGraph(t)
	moves := []struct {
		id     territory.MunicipalityID
		target territory.UnitID
	}{
		{1, "U2"}, {3, "U1"}, {1, "U1"}, {4, "U2"},
	}
	for _, mv := range moves {
		require.NoError(t, g.Move(mv.id, mv.target))

		owners := make(map[territory.MunicipalityID]int)
		for _, u := range g.Units() {
			members, err := g.MembersOf(u)
			require.NoError(t, err)
			for _, m := range members {
				owners[m]++
			}
		}
		for _, m := range g.Municipalities() {
			assert.Equalf(t, 1, owners[m], "municipality %d owners after move %+v", m, mv)
		}
	}
}

func TestGraph_Seats(t *testing.T) {
	g := buildGraph(t)

	seat, ok := g.SeatOf("U1")
	require.True(t, ok)
	assert.Equal(t, territory.MunicipalityID(2), seat)
	assert.True(t, g.IsSeat(2))
	assert.False(t, g.IsSeat(1))

	// seat must be a member
	err := g.SetSeat("U1", 3)
	require.ErrorIs(t, err, territory.ErrSeatNotMember)

	// replacing the seat never leaves two flags behind
	require.NoError(t, g.SetSeat("U1", 1))
	seat, ok = g.SeatOf("U1")
	require.True(t, ok)
	assert.Equal(t, territory.MunicipalityID(1), seat)

	g.RevokeSeat("U1")
	_, ok = g.SeatOf("U1")
	assert.False(t, ok)
}

func TestGraph_SingletonsAndRetire(t *testing.T) {
	g := buildGraph(t)
	assert.Equal(t, []territory.UnitID{"U2", "U3"}, g.SingletonUnits())

	// a unit with members cannot be retired
	err := g.RetireUnit("U2")
	require.ErrorIs(t, err, territory.ErrUnitNotEmpty)

	require.NoError(t, g.Move(3, "U1"))
	require.NoError(t, g.RetireUnit("U2"))
	assert.False(t, g.HasUnit("U2"))
	assert.Equal(t, []territory.UnitID{"U3"}, g.SingletonUnits())
}

func TestColoring_NoAdjacentShare(t *testing.T) {
	g := buildGraph(t)
	// path 1-2-3-4 plus chord 1-3
	adj := map[territory.MunicipalityID][]territory.MunicipalityID{
		1: {2, 3},
		2: {1, 3},
		3: {1, 2, 4},
		4: {3},
	}
	colors := g.ComputeColoring(adj)
	require.Len(t, colors, 4)
	for id, nbrs := range adj {
		for _, n := range nbrs {
			assert.NotEqualf(t, colors[id], colors[n], "adjacent %d and %d share color", id, n)
		}
	}
	// deterministic across runs
	again := g.ComputeColoring(adj)
	assert.Equal(t, colors, again)
}

func TestSnapshot_RoundTrip(t *testing.T) {
	g := buildGraph(t)
	g.ComputeColoring(map[territory.MunicipalityID][]territory.MunicipalityID{
		1: {2}, 2: {1}, 3: {}, 4: {},
	})

	snap := g.ExportSnapshot("unit-test")
	var buf bytes.Buffer
	require.NoError(t, snap.Encode(&buf))

	decoded, err := territory.DecodeSnapshot(&buf)
	require.NoError(t, err)

	restored := territory.NewGraph()
	require.NoError(t, restored.ImportSnapshot(decoded))

	assert.Equal(t, g.Units(), restored.Units())
	assert.Equal(t, g.Municipalities(), restored.Municipalities())
	for _, u := range g.Units() {
		want, err := g.MembersOf(u)
		require.NoError(t, err)
		got, err := restored.MembersOf(u)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		wr, err := g.RegionOfUnit(u)
		require.NoError(t, err)
		gr, err := restored.RegionOfUnit(u)
		require.NoError(t, err)
		assert.Equal(t, wr, gr)
	}
	wantSeat, _ := g.SeatOf("U1")
	gotSeat, ok := restored.SeatOf("U1")
	require.True(t, ok)
	assert.Equal(t, wantSeat, gotSeat)
	assert.Equal(t, g.Coloring(), restored.Coloring())
}

// TestSnapshot_DropsStaleSeat checks that a seat who left its unit is not
// exported as a seat.
func TestSnapshot_DropsStaleSeat(t *testing.T) {
	g := buildGraph(t)
	require.NoError(t, g.Move(2, "U2")) // seat of U1 leaves

	snap := g.ExportSnapshot("stale-seat")
	_, ok := snap.UnitSeat["U1"]
	assert.False(t, ok, "stale seat flag must not survive export")
}
