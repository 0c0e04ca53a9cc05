package pipeline_test

import (
	"bytes"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geovalida/geovalida/borders"
	"github.com/geovalida/geovalida/config"
	"github.com/geovalida/geovalida/flow"
	"github.com/geovalida/geovalida/geometry"
	"github.com/geovalida/geovalida/pipeline"
	"github.com/geovalida/geovalida/territory"
)

func square(x, y float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{x, y}, {x + 10, y}, {x + 10, y + 10}, {x, y + 10}, {x, y},
	}}
}

func metricConfig() config.Config {
	c := config.Default()
	c.AdjacencyBufferMeters = 0.1 // unit-square fixtures
	return c
}

func mun(id territory.MunicipalityID, unit territory.UnitID, region territory.RegionID, seat bool, x, y float64) pipeline.MunicipalityRecord {
	return pipeline.MunicipalityRecord{
		ID: id, InitialUnit: unit, MetroRegion: region,
		IsSeat: seat, Geometry: square(x, y),
	}
}

func TestNew_RequiresInput(t *testing.T) {
	_, err := pipeline.New(pipeline.Inputs{}, config.Default())
	require.ErrorIs(t, err, pipeline.ErrNoMunicipalities)
}

func TestPasses_RequireInitialize(t *testing.T) {
	p, err := pipeline.New(pipeline.Inputs{
		Municipalities: []pipeline.MunicipalityRecord{mun(1, "U", "R", true, 0, 0)},
		CRS:            geometry.CRSMetric,
	}, metricConfig())
	require.NoError(t, err)

	_, err = p.RunFunctionalPass()
	require.ErrorIs(t, err, pipeline.ErrNotInitialized)
	_, err = p.RunBorderValidation(borders.PrincipalFlow{})
	require.ErrorIs(t, err, pipeline.ErrNotInitialized)
	_, err = p.ExportSnapshot("x")
	require.ErrorIs(t, err, pipeline.ErrNotInitialized)
}

// TestPipeline_EndToEnd drives the full procedural API on a small strip:
// a metro singleton is absorbed during the functional pass, the border
// pass converges, and the exported snapshot round-trips with the single-
// ownership and coloring guarantees intact.
func TestPipeline_EndToEnd(t *testing.T) {
	in := pipeline.Inputs{
		Municipalities: []pipeline.MunicipalityRecord{
			mun(30, "W", "R", true, 0, 0),
			mun(31, "W", "R", false, 10, 0),
			mun(10, "X", "R", true, 20, 0), // singleton, all flow into W
		},
		Flows: []flow.Record{
			{Origin: 10, Dest: 31, Trips: 80},
		},
		TravelTimes: []flow.TravelRecord{
			{Origin: 10, Dest: 31, Hours: 0.5},
		},
		CRS: geometry.CRSMetric,
	}
	p, err := pipeline.New(in, metricConfig())
	require.NoError(t, err)
	require.NoError(t, p.Initialize())

	absorbed, err := p.RunFunctionalPass()
	require.NoError(t, err)
	assert.Equal(t, 1, absorbed)

	u, err := p.Graph().UnitOf(10)
	require.NoError(t, err)
	assert.Equal(t, territory.UnitID("W"), u)

	seatMoves, err := p.RunSeatPass()
	require.NoError(t, err)
	assert.Equal(t, 0, seatMoves, "single remaining unit has nothing to depend on")

	res, err := p.RunBorderValidation(borders.PrincipalFlow{})
	require.NoError(t, err)
	assert.True(t, res.Converged)

	reattached, err := p.ResolveIsolated()
	require.NoError(t, err)
	assert.Equal(t, 0, reattached)

	snap, err := p.ExportSnapshot("final")
	require.NoError(t, err)
	assert.Equal(t, "final", snap.Stage)

	// every municipality owned exactly once
	assert.Len(t, snap.Assignment, 3)
	for _, id := range []territory.MunicipalityID{10, 30, 31} {
		assert.Contains(t, snap.Assignment, id)
	}
	// the strip 30-31-10 is pairwise adjacent along the line: neighbors
	// must not share a color
	require.Len(t, snap.Coloring, 3)
	assert.NotEqual(t, snap.Coloring[30], snap.Coloring[31])
	assert.NotEqual(t, snap.Coloring[31], snap.Coloring[10])

	var buf bytes.Buffer
	require.NoError(t, snap.Encode(&buf))
	decoded, err := territory.DecodeSnapshot(&buf)
	require.NoError(t, err)
	restored := territory.NewGraph()
	require.NoError(t, restored.ImportSnapshot(decoded))
	assert.Equal(t, p.Graph().Units(), restored.Units())
	assert.Equal(t, p.Graph().Municipalities(), restored.Municipalities())

	// audit trail recorded the absorption
	assert.GreaterOrEqual(t, p.Trail().AcceptedCount(), 1)
}

// A member cut off from its seat is reattached to the adjacent unit its
// flow points at.
func TestResolveIsolated_FlowCandidate(t *testing.T) {
	in := pipeline.Inputs{
		Municipalities: []pipeline.MunicipalityRecord{
			mun(1, "A", "R", true, 0, 0),
			mun(2, "A", "R", false, 10, 0),
			mun(5, "A", "R", false, 40, 0), // no same-unit path back to 1
			mun(4, "B", "R", false, 20, 0),
			mun(3, "B", "R", true, 30, 0),
		},
		Flows: []flow.Record{
			{Origin: 5, Dest: 3, Trips: 50},
		},
		TravelTimes: []flow.TravelRecord{
			{Origin: 5, Dest: 3, Hours: 1},
		},
		CRS: geometry.CRSMetric,
	}
	p, err := pipeline.New(in, metricConfig())
	require.NoError(t, err)
	require.NoError(t, p.Initialize())

	reattached, err := p.ResolveIsolated()
	require.NoError(t, err)
	assert.Equal(t, 1, reattached)

	u, err := p.Graph().UnitOf(5)
	require.NoError(t, err)
	assert.Equal(t, territory.UnitID("B"), u)

	entries := p.Trail().ByStage(pipeline.StageIsolated)
	require.Len(t, entries, 1)
	assert.Equal(t, "isolated:flow", entries[0].Reason)
	assert.True(t, entries[0].Accepted)
}

// With no region-compatible neighbor the resolver still reattaches through
// plain adjacency, region rule waived.
func TestResolveIsolated_AdjacencyFallback(t *testing.T) {
	in := pipeline.Inputs{
		Municipalities: []pipeline.MunicipalityRecord{
			mun(1, "A", "R", true, 0, 0),
			mun(5, "A", "R", false, 30, 0),
			mun(3, "B", "R2", true, 20, 0), // different region, still adjacent
		},
		CRS: geometry.CRSMetric,
	}
	p, err := pipeline.New(in, metricConfig())
	require.NoError(t, err)
	require.NoError(t, p.Initialize())

	reattached, err := p.ResolveIsolated()
	require.NoError(t, err)
	assert.Equal(t, 1, reattached)

	u, err := p.Graph().UnitOf(5)
	require.NoError(t, err)
	assert.Equal(t, territory.UnitID("B"), u)

	entries := p.Trail().ByStage(pipeline.StageIsolated)
	require.Len(t, entries, 1)
	assert.Equal(t, "isolated:adjacency-any", entries[0].Reason)
}
