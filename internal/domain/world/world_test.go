package world_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbeckers/freightsim-go/internal/domain/agent"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
	"github.com/mbeckers/freightsim-go/internal/domain/world"
	"github.com/mbeckers/freightsim-go/test/helpers"
)

// probe is a scripted agent: it records when inbox messages arrive and sends
// queued messages during its decide phase.
type probe struct {
	agent.Base

	sendAtTick map[int64][]agent.Message
	received   map[int64][]agent.Message
	diff       map[string]interface{}
}

func newProbe(id shared.AgentID) *probe {
	return &probe{
		Base:       agent.NewBase(id, "probe"),
		sendAtTick: make(map[int64][]agent.Message),
		received:   make(map[int64][]agent.Message),
	}
}

func (p *probe) Perceive(w *world.World) {}

func (p *probe) Decide(w *world.World) {
	if msgs := p.Mailbox().DrainInbox(); len(msgs) > 0 {
		p.received[w.Clock.Tick] = msgs
	}
	for _, msg := range p.sendAtTick[w.Clock.Tick] {
		p.Mailbox().Send(msg)
	}
}

func (p *probe) SerializeDiff() (map[string]interface{}, bool) {
	if p.diff == nil {
		return nil, false
	}
	d := p.diff
	p.diff = nil
	return d, true
}

func (p *probe) SerializeFull() map[string]interface{} {
	return map[string]interface{}{"id": string(p.ID())}
}

func TestClockAdvancesByFixedTicks(t *testing.T) {
	// Arrange
	g := helpers.NewLineGraph(t, 2, 1000, 80)
	w := world.New(g, 60, 1)

	// Act
	results := helpers.StepN(w, 5)

	// Assert
	assert.EqualValues(t, 5, w.Clock.Tick)
	assert.InDelta(t, 300.0, w.Clock.NowSeconds(), 1e-9)
	for i, r := range results {
		assert.EqualValues(t, i+1, r.TickData.Tick)
	}
}

func TestMessagesArriveOneTickAfterSending(t *testing.T) {
	// Arrange
	g := helpers.NewLineGraph(t, 2, 1000, 80)
	w := world.New(g, 60, 1)
	sender := newProbe("probe-a")
	receiver := newProbe("probe-b")
	require.NoError(t, w.AddAgent(sender))
	require.NoError(t, w.AddAgent(receiver))

	sender.sendAtTick[1] = []agent.Message{{Src: sender.ID(), Dst: receiver.ID(), Type: "ping"}}

	// Act
	helpers.StepN(w, 3)

	// Assert: sent during tick 1, delivered during tick 2, never during the
	// sending tick.
	assert.Empty(t, receiver.received[1])
	require.Len(t, receiver.received[2], 1)
	assert.Equal(t, "ping", receiver.received[2][0].Type)
	assert.Empty(t, receiver.received[3])
}

func TestTopicBroadcastReachesSubscribersButNotTheSender(t *testing.T) {
	// Arrange
	g := helpers.NewLineGraph(t, 2, 1000, 80)
	w := world.New(g, 60, 1)
	sender := newProbe("probe-a")
	subscriber := newProbe("probe-b")
	outsider := newProbe("probe-c")
	require.NoError(t, w.AddAgent(sender))
	require.NoError(t, w.AddAgent(subscriber))
	require.NoError(t, w.AddAgent(outsider))

	sender.Mailbox().Subscribe("fleet")
	subscriber.Mailbox().Subscribe("fleet")

	sender.sendAtTick[1] = []agent.Message{{Src: sender.ID(), Topic: "fleet", Type: "notice"}}

	// Act
	helpers.StepN(w, 2)

	// Assert
	require.Len(t, subscriber.received[2], 1)
	assert.Empty(t, sender.received[2])
	assert.Empty(t, outsider.received[2])
}

func TestAgentsIterateInInsertionOrder(t *testing.T) {
	// Arrange
	g := helpers.NewLineGraph(t, 2, 1000, 80)
	w := world.New(g, 60, 1)
	for _, id := range []shared.AgentID{"probe-c", "probe-a", "probe-b"} {
		require.NoError(t, w.AddAgent(newProbe(id)))
	}

	// Act
	agents := w.Agents()

	// Assert
	require.Len(t, agents, 3)
	assert.Equal(t, shared.AgentID("probe-c"), agents[0].ID())
	assert.Equal(t, shared.AgentID("probe-a"), agents[1].ID())
	assert.Equal(t, shared.AgentID("probe-b"), agents[2].ID())
}

func TestFuelPriceDriftsAtMostOncePerDay(t *testing.T) {
	// Arrange: half-day ticks, so every second tick crosses midnight.
	g := helpers.NewLineGraph(t, 2, 1000, 80)
	w := world.New(g, shared.SecondsPerDay/2, 1)

	// Act
	results := helpers.StepN(w, 4)

	// Assert
	changes := helpers.EventsOfType(results, world.EventFuelPriceChanged)
	assert.Len(t, changes, 2)
	low := world.DefaultFuelPrice * (1 - world.DefaultFuelVolatility) * (1 - world.DefaultFuelVolatility)
	high := world.DefaultFuelPrice * (1 + world.DefaultFuelVolatility) * (1 + world.DefaultFuelVolatility)
	assert.GreaterOrEqual(t, w.GlobalFuelPrice, low)
	assert.LessOrEqual(t, w.GlobalFuelPrice, high)
}

func TestWaitingPackageExpiresAfterPickupDeadline(t *testing.T) {
	// Arrange
	g := helpers.NewLineGraph(t, 2, 1000, 80)
	siteA := helpers.AttachSite(t, g, 0, "site-a", 0)
	helpers.AttachSite(t, g, 1, "site-b", 0)
	w := world.New(g, 60, 1)
	pkg := helpers.InjectPackage(t, w, siteA, "site-b", "pkg-1", 10, 100, 2, 50)

	// Act
	results := helpers.StepN(w, 3)

	// Assert: deadline tick 2 passes during tick 3.
	expired := helpers.EventsOfType(results, world.EventPackageExpired)
	require.Len(t, expired, 1)
	assert.EqualValues(t, 3, expired[0].Tick)
	_, stillActive := w.Package(pkg.ID)
	assert.False(t, stillActive)
	assert.False(t, siteA.HoldsPackage(pkg.ID))
	assert.Equal(t, 1, siteA.Stats().Expired)
}

func TestStepCollectsAgentDiffsAndBuildingUpdates(t *testing.T) {
	// Arrange
	g := helpers.NewLineGraph(t, 2, 1000, 80)
	siteA := helpers.AttachSite(t, g, 0, "site-a", 0)
	w := world.New(g, 60, 1)
	p := newProbe("probe-a")
	require.NoError(t, w.AddAgent(p))
	p.diff = map[string]interface{}{"state": "changed"}
	siteA.RecordPickup()

	// Act
	result := w.Step()

	// Assert
	require.Len(t, result.AgentDiffs, 1)
	assert.Equal(t, shared.AgentID("probe-a"), result.AgentDiffs[0].AgentID)
	require.Len(t, result.BuildingUpdates, 1)
	assert.Equal(t, shared.BuildingID("site-a"), result.BuildingUpdates[0].BuildingID)
	assert.Empty(t, g.DirtyBuildings())

	// A second step with nothing changed stays quiet.
	next := w.Step()
	assert.Empty(t, next.AgentDiffs)
	assert.Empty(t, next.BuildingUpdates)
}
