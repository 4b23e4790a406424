package routing_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbeckers/freightsim-go/internal/domain/graph"
	"github.com/mbeckers/freightsim-go/internal/domain/routing"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
	"github.com/mbeckers/freightsim-go/test/helpers"
)

func TestFindRouteOnLineGraph(t *testing.T) {
	// Arrange
	g := helpers.NewLineGraph(t, 4, 1000, 80)
	svc := routing.NewService(g)

	// Act
	path := svc.FindRoute(0, 3, 90)

	// Assert
	assert.Equal(t, []shared.NodeID{0, 1, 2, 3}, path)
}

func TestFindRouteToSelf(t *testing.T) {
	// Arrange
	g := helpers.NewLineGraph(t, 2, 1000, 80)
	svc := routing.NewService(g)

	// Act
	path := svc.FindRoute(1, 1, 90)

	// Assert
	assert.Equal(t, []shared.NodeID{1}, path)
}

func TestEstimateTravelTimeUsesSlowerOfEdgeAndAgent(t *testing.T) {
	// Arrange: one 1000m edge at 50 km/h.
	g := helpers.NewLineGraph(t, 2, 1000, 50)
	svc := routing.NewService(g)

	// Act
	atEdgeSpeed := svc.EstimateTravelTime(0, 1, 90)
	atAgentSpeed := svc.EstimateTravelTime(0, 1, 25)

	// Assert
	assert.InDelta(t, 0.02, atEdgeSpeed, 1e-9)
	assert.InDelta(t, 0.04, atAgentSpeed, 1e-9)
}

func TestUnreachableGoalYieldsInfiniteEstimate(t *testing.T) {
	// Arrange: node 9 has no edges.
	g := helpers.NewLineGraph(t, 3, 1000, 80)
	_, err := g.AddNode(9, 50000, 50000)
	require.NoError(t, err)
	svc := routing.NewService(g)

	// Act
	estimate := svc.EstimateTravelTime(0, 9, 90)
	path := svc.FindRoute(0, 9, 90)

	// Assert
	assert.True(t, math.IsInf(estimate, 1))
	assert.Empty(t, path)
}

func TestFindClosestNodeSettlesNearestMatchFirst(t *testing.T) {
	// Arrange: parkings at nodes 1 and 3; node 1 is closer to node 0.
	g := helpers.NewLineGraph(t, 4, 1000, 80)
	helpers.AttachParking(t, g, 1, "parking-near", 2)
	helpers.AttachParking(t, g, 3, "parking-far", 2)
	svc := routing.NewService(g)

	// Act
	match, ok := svc.FindClosestNode(0, routing.NewBuildingOfType(graph.KindParking), 90)

	// Assert
	require.True(t, ok)
	assert.Equal(t, shared.NodeID(1), match.Node)
	assert.Equal(t, []shared.NodeID{0, 1}, match.Path)
	parking, isParking := match.Item.(*graph.Parking)
	require.True(t, isParking)
	assert.Equal(t, shared.BuildingID("parking-near"), parking.BuildingID())
}

func TestFindClosestNodeRevalidatesCachedMatchesAgainstExclusions(t *testing.T) {
	// Arrange
	g := helpers.NewLineGraph(t, 4, 1000, 80)
	helpers.AttachParking(t, g, 1, "parking-near", 2)
	helpers.AttachParking(t, g, 3, "parking-far", 2)
	svc := routing.NewService(g)

	criteria := routing.NewBuildingOfType(graph.KindParking)
	first, ok := svc.FindClosestNode(0, criteria, 90)
	require.True(t, ok)
	require.Equal(t, shared.NodeID(1), first.Node)

	// Act: the cached nearest match is excluded, so the search must move on.
	excluded, ok := svc.FindClosestNode(0, criteria.Excluding("parking-near"), 90)

	// Assert
	require.True(t, ok)
	assert.Equal(t, shared.NodeID(3), excluded.Node)
}

func TestFindClosestNodeWithoutMatch(t *testing.T) {
	// Arrange
	g := helpers.NewLineGraph(t, 3, 1000, 80)
	svc := routing.NewService(g)

	// Act
	_, ok := svc.FindClosestNode(0, routing.NewBuildingOfType(graph.KindGasStation), 90)

	// Assert
	assert.False(t, ok)
}

// diamondGraph builds two routes from node 0 to node 1: a direct 10 km road
// and a 3+3 km path through node 2. Node 3 hangs off to the side on 8 km
// legs. All roads run at 100 km/h in both directions.
func diamondGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	coords := [][2]float64{{0, 0}, {6000, 0}, {3000, 0}, {3000, 3000}}
	for i, c := range coords {
		_, err := g.AddNode(shared.NodeID(i), c[0], c[1])
		require.NoError(t, err)
	}
	edges := []struct {
		from, to shared.NodeID
		length   float64
	}{
		{0, 1, 10000},
		{0, 2, 3000},
		{2, 1, 3000},
		{0, 3, 8000},
		{3, 1, 8000},
	}
	id := 0
	for _, e := range edges {
		_, err := g.AddEdge(shared.EdgeID(id), e.from, e.to, e.length, 100, "primary", 1, "road")
		require.NoError(t, err)
		id++
		_, err = g.AddEdge(shared.EdgeID(id), e.to, e.from, e.length, 100, "primary", 1, "road")
		require.NoError(t, err)
		id++
	}
	return g
}

func TestFindClosestNodeOnRouteMinimizesTotalTravelTime(t *testing.T) {
	// Arrange: parkings both on the through-route (node 2) and off to the
	// side (node 3). Via node 2 the trip is 6 km; via node 3 it is 16 km.
	g := diamondGraph(t)
	helpers.AttachParking(t, g, 2, "parking-on-route", 2)
	helpers.AttachParking(t, g, 3, "parking-detour", 2)
	svc := routing.NewService(g)

	// Act
	match, ok := svc.FindClosestNodeOnRoute(0, 1, routing.NewBuildingOfType(graph.KindParking), 100)

	// Assert
	require.True(t, ok)
	assert.Equal(t, shared.NodeID(2), match.Waypoint)
	assert.Equal(t, []shared.NodeID{0, 2}, match.Path)
	assert.InDelta(t, 0.06, match.TotalCostHours, 1e-9)
	// The start -> waypoint leg is itself a shortest path.
	assert.Equal(t, svc.FindRoute(0, 2, 100), match.Path)
}

func TestFindClosestNodeOnRouteRequiresReachableDestination(t *testing.T) {
	// Arrange
	g := diamondGraph(t)
	_, err := g.AddNode(9, 50000, 50000)
	require.NoError(t, err)
	helpers.AttachParking(t, g, 2, "parking-on-route", 2)
	svc := routing.NewService(g)

	// Act
	_, ok := svc.FindClosestNodeOnRoute(0, 9, routing.NewBuildingOfType(graph.KindParking), 100)

	// Assert
	assert.False(t, ok)
}

func TestCompositeCriteria(t *testing.T) {
	// Arrange: node 1 carries both a parking and a gas station, node 3 only a
	// parking.
	g := helpers.NewLineGraph(t, 4, 1000, 80)
	helpers.AttachParking(t, g, 3, "parking-solo", 2)
	helpers.AttachParking(t, g, 1, "parking-both", 2)
	helpers.AttachGasStation(t, g, 1, "gas_station-both", 2, 1.0)
	svc := routing.NewService(g)

	both := &routing.Composite{
		Op: routing.CompositeAnd,
		Parts: []routing.Criteria{
			routing.NewBuildingOfType(graph.KindParking),
			routing.NewBuildingOfType(graph.KindGasStation),
		},
	}

	// Act
	match, ok := svc.FindClosestNode(3, both, 90)

	// Assert
	require.True(t, ok)
	assert.Equal(t, shared.NodeID(1), match.Node)
}
