package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbeckers/freightsim-go/internal/domain/graph"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
)

func TestAddEdgeRequiresExistingEndpoints(t *testing.T) {
	// Arrange
	g := graph.New()
	_, err := g.AddNode(0, 0, 0)
	require.NoError(t, err)

	// Act
	_, err = g.AddEdge(0, 0, 99, 1000, 80, "primary", 1, "road")

	// Assert
	var notFound *shared.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, 0, g.EdgeCount())
}

func TestAddEdgeRejectsNonPositiveLength(t *testing.T) {
	// Arrange
	g := graph.New()
	_, err := g.AddNode(0, 0, 0)
	require.NoError(t, err)
	_, err = g.AddNode(1, 1000, 0)
	require.NoError(t, err)

	// Act
	_, err = g.AddEdge(0, 0, 1, 0, 80, "primary", 1, "road")

	// Assert
	var validation *shared.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestRemoveNodeDropsIncidentEdgesAndBuildings(t *testing.T) {
	// Arrange
	g := graph.New()
	_, err := g.AddNode(0, 0, 0)
	require.NoError(t, err)
	_, err = g.AddNode(1, 1000, 0)
	require.NoError(t, err)
	_, err = g.AddEdge(0, 0, 1, 1000, 80, "primary", 1, "road")
	require.NoError(t, err)
	_, err = g.AddEdge(1, 1, 0, 1000, 80, "primary", 1, "road")
	require.NoError(t, err)
	parking := graph.NewParking("parking-1", 2)
	require.NoError(t, g.AttachBuilding(1, parking))

	// Act
	require.NoError(t, g.RemoveNode(1))

	// Assert
	assert.Equal(t, 1, g.NodeCount())
	assert.Equal(t, 0, g.EdgeCount())
	_, ok := g.Building("parking-1")
	assert.False(t, ok)
	assert.Empty(t, g.Outgoing(0))
}

func TestEdgeBetweenFindsDirectedEdge(t *testing.T) {
	// Arrange
	g := graph.New()
	_, err := g.AddNode(0, 0, 0)
	require.NoError(t, err)
	_, err = g.AddNode(1, 1000, 0)
	require.NoError(t, err)
	_, err = g.AddEdge(7, 0, 1, 1000, 80, "primary", 1, "road")
	require.NoError(t, err)

	// Act
	forward, forwardOK := g.EdgeBetween(0, 1)
	_, reverseOK := g.EdgeBetween(1, 0)

	// Assert
	require.True(t, forwardOK)
	assert.Equal(t, shared.EdgeID(7), forward.ID)
	assert.False(t, reverseOK)
}

func TestBuildingIDsAreUniqueAcrossTheGraph(t *testing.T) {
	// Arrange
	g := graph.New()
	_, err := g.AddNode(0, 0, 0)
	require.NoError(t, err)
	_, err = g.AddNode(1, 1000, 0)
	require.NoError(t, err)
	require.NoError(t, g.AttachBuilding(0, graph.NewParking("parking-1", 2)))

	// Act
	err = g.AttachBuilding(1, graph.NewParking("parking-1", 3))

	// Assert
	var invariant *shared.InvariantError
	require.ErrorAs(t, err, &invariant)
}

func TestBuildingsOfKindPreservesAttachOrder(t *testing.T) {
	// Arrange
	g := graph.New()
	_, err := g.AddNode(0, 0, 0)
	require.NoError(t, err)
	require.NoError(t, g.AttachBuilding(0, graph.NewParking("parking-b", 2)))
	require.NoError(t, g.AttachBuilding(0, graph.NewParking("parking-a", 2)))

	// Act
	parkings := g.BuildingsOfKind(graph.KindParking)

	// Assert
	require.Len(t, parkings, 2)
	assert.Equal(t, shared.BuildingID("parking-b"), parkings[0].BuildingID())
	assert.Equal(t, shared.BuildingID("parking-a"), parkings[1].BuildingID())
}

func TestParkingRejectsEntryAtCapacity(t *testing.T) {
	// Arrange
	parking := graph.NewParking("parking-1", 2)
	require.NoError(t, parking.Enter("truck-1"))
	require.NoError(t, parking.Enter("truck-2"))

	// Act
	err := parking.Enter("truck-3")

	// Assert
	var capacity *shared.CapacityError
	require.ErrorAs(t, err, &capacity)
	assert.Equal(t, shared.BuildingID("parking-1"), capacity.BuildingID)
	assert.Len(t, parking.Occupants(), 2)
}

func TestParkingEntryIsIdempotentPerAgent(t *testing.T) {
	// Arrange
	parking := graph.NewParking("parking-1", 1)
	require.NoError(t, parking.Enter("truck-1"))

	// Act
	err := parking.Enter("truck-1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []shared.AgentID{"truck-1"}, parking.Occupants())
}

func TestParkingLeaveFreesTheSlot(t *testing.T) {
	// Arrange
	parking := graph.NewParking("parking-1", 1)
	require.NoError(t, parking.Enter("truck-1"))

	// Act
	parking.Leave("truck-1")

	// Assert
	assert.False(t, parking.HasOccupant("truck-1"))
	require.NoError(t, parking.Enter("truck-2"))
}

func TestGasStationPriceScalesGlobalPrice(t *testing.T) {
	// Arrange
	station := graph.NewGasStation("gas_station-1", 2, 1.1)

	// Act
	price := station.PricePerLiter(1.50)

	// Assert
	assert.InDelta(t, 1.65, price, 1e-9)
}

func TestGasStationAccumulatesRevenue(t *testing.T) {
	// Arrange
	station := graph.NewGasStation("gas_station-1", 2, 1.0)

	// Act
	station.RecordSale(120)
	station.RecordSale(80)
	station.RecordSale(-5)

	// Assert
	assert.InDelta(t, 200.0, station.Revenue(), 1e-9)
}

func TestDirtyBuildingsResetAfterClear(t *testing.T) {
	// Arrange
	g := graph.New()
	_, err := g.AddNode(0, 0, 0)
	require.NoError(t, err)
	parking := graph.NewParking("parking-1", 2)
	require.NoError(t, g.AttachBuilding(0, parking))
	require.NoError(t, parking.Enter("truck-1"))

	// Act
	dirty := g.DirtyBuildings()
	for _, b := range dirty {
		b.ClearDirty()
	}

	// Assert
	require.Len(t, dirty, 1)
	assert.Empty(t, g.DirtyBuildings())
}
