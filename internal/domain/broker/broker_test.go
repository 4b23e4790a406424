package broker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbeckers/freightsim-go/internal/domain/agent"
	"github.com/mbeckers/freightsim-go/internal/domain/broker"
	"github.com/mbeckers/freightsim-go/internal/domain/cargo"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
	"github.com/mbeckers/freightsim-go/internal/domain/truck"
	"github.com/mbeckers/freightsim-go/internal/domain/world"
	"github.com/mbeckers/freightsim-go/test/helpers"
)

func twoSiteWorld(t *testing.T) (*world.World, *cargo.Site, *cargo.Site) {
	t.Helper()
	g := helpers.NewLineGraph(t, 2, 1000, 50)
	siteA := helpers.AttachSite(t, g, 0, "site-a", 0)
	siteB := helpers.AttachSite(t, g, 1, "site-b", 0)
	return world.New(g, 60, 1), siteA, siteB
}

func TestBrokerRunsOneNegotiationAtATime(t *testing.T) {
	// Arrange: two waiting packages but a single truck.
	w, siteA, _ := twoSiteWorld(t)
	b := broker.New("broker-1")
	require.NoError(t, w.AddAgent(b))
	require.NoError(t, w.AddAgent(truck.New("truck-1", truck.DefaultConfig(), 0)))
	helpers.InjectPackage(t, w, siteA, "site-b", "pkg-1", 10, 100, 1000, 2000)
	helpers.InjectPackage(t, w, siteA, "site-b", "pkg-2", 10, 100, 1000, 2000)

	// Act
	helpers.StepN(w, 1)

	// Assert: one proposal out, one package still queued behind it.
	active, ok := b.ActivePackage()
	require.True(t, ok)
	assert.Equal(t, shared.PackageID("pkg-1"), active)
	assert.Equal(t, 1, b.QueueLength())
	assert.Equal(t, 1, b.Mailbox().PendingOutbox())
}

func TestBrokerPrefersTheClosestTruck(t *testing.T) {
	// Arrange: the origin sits on node 0; one truck is parked there, the
	// other three edges away.
	g := helpers.NewLineGraph(t, 4, 1000, 50)
	siteA := helpers.AttachSite(t, g, 0, "site-a", 0)
	helpers.AttachSite(t, g, 3, "site-b", 0)
	w := world.New(g, 60, 1)
	b := broker.New("broker-1")
	require.NoError(t, w.AddAgent(b))
	require.NoError(t, w.AddAgent(truck.New("truck-far", truck.DefaultConfig(), 3)))
	require.NoError(t, w.AddAgent(truck.New("truck-near", truck.DefaultConfig(), 0)))
	helpers.InjectPackage(t, w, siteA, "site-b", "pkg-1", 10, 100, 1000, 2000)

	// Act
	results := helpers.StepN(w, 4)

	// Assert
	assigned := helpers.EventsOfType(results, world.EventBrokerAssignment)
	require.Len(t, assigned, 1)
	assert.Equal(t, "truck-near", assigned[0].Data["truck_id"])
	winner, ok := b.AssignedTo("pkg-1")
	require.True(t, ok)
	assert.Equal(t, shared.AgentID("truck-near"), winner)
}

func TestBrokerRequeuesWhenEveryCandidateRejects(t *testing.T) {
	// Arrange: the package exceeds the only truck's capacity, so the one
	// candidate rejects and the package goes to the back of the queue.
	w, siteA, _ := twoSiteWorld(t)
	b := broker.New("broker-1")
	require.NoError(t, w.AddAgent(b))
	require.NoError(t, w.AddAgent(truck.New("truck-1", truck.DefaultConfig(), 0)))
	helpers.InjectPackage(t, w, siteA, "site-b", "pkg-1", 30, 100, 1000, 2000)

	// Act
	results := helpers.StepN(w, 3)

	// Assert: the rejection round-tripped and the broker started over.
	requeued := helpers.EventsOfType(results, world.EventBrokerRequeued)
	require.Len(t, requeued, 1)
	assert.Equal(t, "pkg-1", requeued[0].Data["package_id"])
	assert.Equal(t, 1, requeued[0].Data["rejections"])
	active, ok := b.ActivePackage()
	require.True(t, ok)
	assert.Equal(t, shared.PackageID("pkg-1"), active)
	assert.Zero(t, b.QueueLength())
}

func TestExpiredPickupChargesTheBrokerAFine(t *testing.T) {
	// Arrange: no trucks at all, so the package sits until its pickup
	// deadline lapses.
	w, siteA, _ := twoSiteWorld(t)
	b := broker.New("broker-1")
	require.NoError(t, w.AddAgent(b))
	helpers.InjectPackage(t, w, siteA, "site-b", "pkg-1", 10, 200, 2, 50)

	// Act
	results := helpers.StepN(w, 5)

	// Assert: half the package value, charged exactly once.
	fines := helpers.EventsOfType(results, world.EventBrokerPickupExpiryFine)
	require.Len(t, fines, 1)
	assert.InDelta(t, 100.0, fines[0].Data["fine_ducats"].(float64), 1e-9)
	assert.InDelta(t, broker.OpeningBalanceDucats-100, b.BalanceDucats(), 1e-9)
	assert.Zero(t, b.QueueLength())
	assert.False(t, b.HasActiveNegotiation())
}

func TestSimultaneousExpiryFinesAreEmittedInOrder(t *testing.T) {
	// Arrange: several packages lapse on the same tick; the fine sweep must
	// charge them in a stable order for replays to match.
	w, siteA, _ := twoSiteWorld(t)
	b := broker.New("broker-1")
	require.NoError(t, w.AddAgent(b))
	for _, id := range []string{"pkg-c", "pkg-a", "pkg-d", "pkg-b"} {
		helpers.InjectPackage(t, w, siteA, "site-b", id, 10, 100, 2, 50)
	}

	// Act
	results := helpers.StepN(w, 5)

	// Assert
	fines := helpers.EventsOfType(results, world.EventBrokerPickupExpiryFine)
	require.Len(t, fines, 4)
	for i, want := range []string{"pkg-a", "pkg-b", "pkg-c", "pkg-d"} {
		assert.Equal(t, want, fines[i].Data["package_id"])
	}
}

func TestLateDeliveryPaymentIsDiscounted(t *testing.T) {
	// Arrange: delivery 100 ticks past the deadline costs 10% of the value.
	w, siteA, _ := twoSiteWorld(t)
	b := broker.New("broker-1")
	require.NoError(t, w.AddAgent(b))
	pkg := helpers.InjectPackage(t, w, siteA, "site-b", "pkg-1", 10, 100, 1000, 2000)
	b.Perceive(w)

	confirmation := agent.Message{
		Src:  "truck-1",
		Dst:  b.ID(),
		Type: agent.TypeDeliveryConfirmed,
		Body: map[string]interface{}{
			"package_id":     string(pkg.ID),
			"on_time":        false,
			"delivered_tick": pkg.DeliveryDeadlineTick + 100,
			"value":          pkg.ValueDucats,
		},
	}

	// Act
	b.Mailbox().Push(confirmation)
	b.Decide(w)

	// Assert
	assert.InDelta(t, broker.OpeningBalanceDucats+90, b.BalanceDucats(), 1e-9)

	// A duplicate confirmation finds nothing to pay.
	b.Mailbox().Push(confirmation)
	b.Decide(w)
	assert.InDelta(t, broker.OpeningBalanceDucats+90, b.BalanceDucats(), 1e-9)
}

func TestSnapshotRoundTrip(t *testing.T) {
	// Arrange
	snapshot := broker.Snapshot{
		ID:            "broker-1",
		BalanceDucats: 9415.5,
		Queue:         []string{"pkg-queued"},
		Known: []broker.PackageMetaSnapshot{{
			PackageID:            "pkg-queued",
			OriginSite:           "site-a",
			DestinationSite:      "site-b",
			Size:                 12,
			ValueDucats:          240,
			PickupDeadlineTick:   80,
			DeliveryDeadlineTick: 200,
			PickedUp:             true,
		}},
		Assigned: map[string]string{"pkg-assigned": "truck-9"},
		Active: &broker.NegotiationSnapshot{
			PackageID:         "pkg-queued",
			Status:            string(broker.NegotiationProposed),
			CandidateTrucks:   []string{"truck-9", "truck-2"},
			CurrentIdx:        1,
			ProposedIdx:       1,
			ResponsesReceived: 1,
		},
	}

	// Act
	restored := broker.FromSnapshot(snapshot)

	// Assert
	assert.Equal(t, shared.AgentID("broker-1"), restored.ID())
	assert.InDelta(t, 9415.5, restored.BalanceDucats(), 1e-9)
	assert.True(t, restored.HasActiveNegotiation())
	require.Equal(t, snapshot, restored.Snapshot())
}

func TestSnapshotListsKnownPackagesSorted(t *testing.T) {
	// Arrange: tracked packages restored in shuffled order.
	known := make([]broker.PackageMetaSnapshot, 0, 8)
	for _, id := range []string{"d-pkg", "a-pkg", "g-pkg", "b-pkg", "h-pkg", "c-pkg", "f-pkg", "e-pkg"} {
		known = append(known, broker.PackageMetaSnapshot{
			PackageID:       id,
			OriginSite:      "site-a",
			DestinationSite: "site-b",
			Size:            5,
			ValueDucats:     50,
		})
	}
	restored := broker.FromSnapshot(broker.Snapshot{ID: "broker-1", Known: known})

	// Act
	first := restored.Snapshot()
	second := broker.FromSnapshot(first).Snapshot()

	// Assert: both serializations list the books in the same sorted order.
	require.Len(t, first.Known, 8)
	for i := 1; i < len(first.Known); i++ {
		assert.Less(t, first.Known[i-1].PackageID, first.Known[i].PackageID)
	}
	assert.Equal(t, first, second)
}
