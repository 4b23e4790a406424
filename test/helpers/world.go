package helpers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mbeckers/freightsim-go/internal/domain/cargo"
	"github.com/mbeckers/freightsim-go/internal/domain/graph"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
	"github.com/mbeckers/freightsim-go/internal/domain/world"
)

// NewLineGraph builds a bidirectional chain 0 - 1 - ... - (n-1) with uniform
// edge length and speed. Edge ids are assigned in pairs: 2i for i -> i+1 and
// 2i+1 for the reverse.
func NewLineGraph(t *testing.T, nodeCount int, lengthM, speedKPH float64) *graph.Graph {
	t.Helper()
	g := graph.New()
	for i := 0; i < nodeCount; i++ {
		_, err := g.AddNode(shared.NodeID(i), float64(i)*lengthM, 0)
		require.NoError(t, err)
	}
	for i := 0; i < nodeCount-1; i++ {
		_, err := g.AddEdge(shared.EdgeID(2*i), shared.NodeID(i), shared.NodeID(i+1),
			lengthM, speedKPH, "primary", 1, "road")
		require.NoError(t, err)
		_, err = g.AddEdge(shared.EdgeID(2*i+1), shared.NodeID(i+1), shared.NodeID(i),
			lengthM, speedKPH, "primary", 1, "road")
		require.NoError(t, err)
	}
	return g
}

// AttachSite attaches a site with the given activity rate to a node.
func AttachSite(t *testing.T, g *graph.Graph, node shared.NodeID, id string, activityRate float64) *cargo.Site {
	t.Helper()
	site := cargo.NewSite(shared.BuildingID(id), id, activityRate)
	require.NoError(t, g.AttachBuilding(node, site))
	return site
}

// AttachParking attaches a parking to a node.
func AttachParking(t *testing.T, g *graph.Graph, node shared.NodeID, id string, capacity int) *graph.Parking {
	t.Helper()
	parking := graph.NewParking(shared.BuildingID(id), capacity)
	require.NoError(t, g.AttachBuilding(node, parking))
	return parking
}

// AttachGasStation attaches a gas station to a node.
func AttachGasStation(t *testing.T, g *graph.Graph, node shared.NodeID, id string, capacity int, costFactor float64) *graph.GasStation {
	t.Helper()
	station := graph.NewGasStation(shared.BuildingID(id), capacity, costFactor)
	require.NoError(t, g.AttachBuilding(node, station))
	return station
}

// InjectPackage places a hand-built waiting package at its origin site and
// registers it with the world.
func InjectPackage(t *testing.T, w *world.World, origin *cargo.Site, destination shared.SiteID, id string, size int, value float64, pickupDeadline, deliveryDeadline int64) *cargo.Package {
	t.Helper()
	pkg := &cargo.Package{
		ID:                   shared.PackageID(id),
		Origin:               origin.SiteID(),
		Destination:          destination,
		Size:                 size,
		ValueDucats:          value,
		Priority:             cargo.PriorityMedium,
		Urgency:              cargo.UrgencyStandard,
		SpawnTick:            w.Clock.Tick,
		PickupDeadlineTick:   pickupDeadline,
		DeliveryDeadlineTick: deliveryDeadline,
		Status:               cargo.StatusWaitingPickup,
	}
	require.NoError(t, w.AddPackage(pkg))
	origin.RestoreActivePackage(pkg.ID)
	return pkg
}

// StepN advances the world n ticks and returns the results in order.
func StepN(w *world.World, n int) []*world.StepResult {
	results := make([]*world.StepResult, 0, n)
	for i := 0; i < n; i++ {
		results = append(results, w.Step())
	}
	return results
}

// EventsOfType filters the events of the given type across step results.
func EventsOfType(results []*world.StepResult, eventType string) []world.Event {
	var out []world.Event
	for _, r := range results {
		for _, e := range r.Events {
			if e.Type == eventType {
				out = append(out, e)
			}
		}
	}
	return out
}
