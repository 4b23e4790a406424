package mapgen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbeckers/freightsim-go/internal/adapters/persistence"
	"github.com/mbeckers/freightsim-go/internal/application/mapgen"
	"github.com/mbeckers/freightsim-go/internal/domain/cargo"
	"github.com/mbeckers/freightsim-go/internal/domain/graph"
	"github.com/mbeckers/freightsim-go/internal/domain/routing"
)

func TestGenerateIsDeterministicPerSeed(t *testing.T) {
	// Arrange
	cfg := mapgen.DefaultConfig(7, 40)

	// Act
	first, err := mapgen.Generate(cfg)
	require.NoError(t, err)
	second, err := mapgen.Generate(cfg)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, persistence.ExportMap(first), persistence.ExportMap(second))
}

func TestGenerateHonorsFacilityCounts(t *testing.T) {
	// Arrange
	cfg := mapgen.Config{
		Seed:            3,
		NumNodes:        25,
		SiteCount:       5,
		ParkingCount:    4,
		GasStationCount: 3,
	}

	// Act
	g, err := mapgen.Generate(cfg)
	require.NoError(t, err)

	// Assert
	assert.Len(t, g.NodeIDs(), 25)
	assert.Len(t, g.BuildingsOfKind(graph.KindSite), 5)
	assert.Len(t, g.BuildingsOfKind(graph.KindParking), 4)
	assert.Len(t, g.BuildingsOfKind(graph.KindGasStation), 3)
}

func TestGeneratedNetworkIsConnected(t *testing.T) {
	// Arrange
	g, err := mapgen.Generate(mapgen.DefaultConfig(11, 30))
	require.NoError(t, err)
	svc := routing.NewService(g)

	// Act / Assert: every node is reachable from node 0.
	for _, id := range g.NodeIDs() {
		path := svc.FindRoute(0, id, 130)
		assert.NotEmpty(t, path, "node %d unreachable", id)
	}
}

func TestGeneratedSitesCrossReferenceEachOther(t *testing.T) {
	// Arrange
	g, err := mapgen.Generate(mapgen.DefaultConfig(5, 20))
	require.NoError(t, err)

	// Act
	sites := g.BuildingsOfKind(graph.KindSite)

	// Assert: every site weights every other site as a destination.
	require.NotEmpty(t, sites)
	for _, b := range sites {
		site, ok := b.(*cargo.Site)
		require.True(t, ok)
		assert.Len(t, site.DestinationWeights, len(sites)-1)
		_, selfWeighted := site.DestinationWeights[site.SiteID()]
		assert.False(t, selfWeighted)
	}
}

func TestGenerateRejectsImpossibleConfigs(t *testing.T) {
	_, err := mapgen.Generate(mapgen.Config{Seed: 1, NumNodes: 10, SiteCount: 11})
	assert.Error(t, err)
}
