package persistence_test

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbeckers/freightsim-go/internal/adapters/persistence"
	"github.com/mbeckers/freightsim-go/internal/domain/broker"
	"github.com/mbeckers/freightsim-go/internal/domain/graph"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
	"github.com/mbeckers/freightsim-go/internal/domain/truck"
	"github.com/mbeckers/freightsim-go/internal/domain/world"
	"github.com/mbeckers/freightsim-go/test/helpers"
)

// populatedWorld builds a world with every serializable piece in it: a truck,
// the broker tracking one package, a building agent, and a parking.
func populatedWorld(t *testing.T) *world.World {
	t.Helper()
	g := helpers.NewLineGraph(t, 3, 1000, 50)
	siteA := helpers.AttachSite(t, g, 0, "site-a", 0.5)
	helpers.AttachSite(t, g, 2, "site-b", 0)
	helpers.AttachParking(t, g, 1, "parking-1", 2)
	helpers.AttachGasStation(t, g, 1, "gas_station-1", 1, 1.1)
	w := world.New(g, 60, 42)

	b := broker.New("broker-1")
	require.NoError(t, w.AddAgent(b))
	require.NoError(t, w.AddAgent(truck.New("truck-1", truck.DefaultConfig(), 0)))
	require.NoError(t, w.AddAgent(world.NewBuildingAgent("observer-site-a", "site-a")))

	helpers.InjectPackage(t, w, siteA, "site-b", "pkg-1", 10, 100, 50, 200)
	b.Perceive(w)
	return w
}

func TestStateRoundTrip(t *testing.T) {
	// Arrange
	w := populatedWorld(t)
	helpers.StepN(w, 2)
	original := persistence.ExportState(w, 42)

	// Act
	raw, err := persistence.EncodeState(original)
	require.NoError(t, err)
	decoded, err := persistence.DecodeState(raw)
	require.NoError(t, err)
	restored, err := persistence.ImportState(decoded)
	require.NoError(t, err)

	// Assert: exporting the restored world reproduces the document.
	assert.EqualValues(t, w.Clock.Tick, restored.Clock.Tick)
	assert.InDelta(t, w.GlobalFuelPrice, restored.GlobalFuelPrice, 1e-9)
	require.Equal(t, original, persistence.ExportState(restored, 42))
}

func TestExportRestoreExportIsByteIdentical(t *testing.T) {
	// Arrange: enough tracked packages that serialization order matters.
	g := helpers.NewLineGraph(t, 3, 1000, 50)
	siteA := helpers.AttachSite(t, g, 0, "site-a", 0)
	helpers.AttachSite(t, g, 2, "site-b", 0)
	w := world.New(g, 60, 42)
	b := broker.New("broker-1")
	require.NoError(t, w.AddAgent(b))
	for i := 0; i < 8; i++ {
		helpers.InjectPackage(t, w, siteA, "site-b", fmt.Sprintf("pkg-%d", i), 5, 50, 100, 200)
	}
	b.Perceive(w)

	first, err := persistence.EncodeState(persistence.ExportState(w, 42))
	require.NoError(t, err)

	// Act
	decoded, err := persistence.DecodeState(first)
	require.NoError(t, err)
	restored, err := persistence.ImportState(decoded)
	require.NoError(t, err)
	second, err := persistence.EncodeState(persistence.ExportState(restored, 42))
	require.NoError(t, err)

	// Assert
	assert.Equal(t, string(first), string(second))
}

func TestStateFileRoundTrip(t *testing.T) {
	// Arrange
	w := populatedWorld(t)
	doc := persistence.ExportState(w, 42)
	path := filepath.Join(t.TempDir(), "state.json")

	// Act
	require.NoError(t, persistence.SaveStateFile(path, doc))
	loaded, err := persistence.LoadStateFile(path)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, doc, loaded)
}

func TestImportRestoresParkingOccupancy(t *testing.T) {
	// Arrange: a parked truck's save state references its parking.
	g := helpers.NewLineGraph(t, 2, 1000, 50)
	helpers.AttachParking(t, g, 0, "parking-1", 2)
	node := 0
	building := "parking-1"
	doc := persistence.StateDocument{
		Graph: persistence.ExportMap(g),
		Agents: []persistence.AgentRecord{{
			Type: world.KindTruck,
			Truck: &truck.Snapshot{
				ID:                "truck-1",
				CurrentNode:       &node,
				CurrentBuildingID: &building,
				MaxSpeedKPH:       90,
				Capacity:          24,
				FuelTankCapacityL: 400,
				CurrentFuelL:      400,
				RiskFactor:        1.0,
				BalanceDucats:     1000,
			},
		}},
		Metadata: persistence.Metadata{DTSeconds: 60, Seed: 1},
	}

	// Act
	w, err := persistence.ImportState(doc)
	require.NoError(t, err)

	// Assert
	b, ok := w.Graph.Building("parking-1")
	require.True(t, ok)
	parking, ok := b.(*graph.Parking)
	require.True(t, ok)
	assert.True(t, parking.HasOccupant(shared.AgentID("truck-1")))
}

func TestImportRejectsUnknownPriority(t *testing.T) {
	// Arrange
	g := helpers.NewLineGraph(t, 2, 1000, 50)
	doc := persistence.StateDocument{
		Graph: persistence.ExportMap(g),
		Packages: []persistence.PackageRecord{{
			ID:       "pkg-1",
			Size:     10,
			Priority: "CRITICAL",
			Urgency:  "STANDARD",
			Status:   "WAITING_PICKUP",
		}},
		Metadata: persistence.Metadata{DTSeconds: 60, Seed: 1},
	}

	// Act
	_, err := persistence.ImportState(doc)

	// Assert
	require.Error(t, err)
	var validationErr *shared.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestImportRejectsNonPositiveTickDuration(t *testing.T) {
	// Arrange
	g := helpers.NewLineGraph(t, 2, 1000, 50)
	doc := persistence.StateDocument{
		Graph:    persistence.ExportMap(g),
		Metadata: persistence.Metadata{DTSeconds: 0, Seed: 1},
	}

	// Act
	_, err := persistence.ImportState(doc)

	// Assert
	require.Error(t, err)
}
