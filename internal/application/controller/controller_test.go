package controller_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbeckers/freightsim-go/internal/adapters/persistence"
	"github.com/mbeckers/freightsim-go/internal/application/actions"
	"github.com/mbeckers/freightsim-go/internal/application/controller"
	"github.com/mbeckers/freightsim-go/internal/domain/truck"
	"github.com/mbeckers/freightsim-go/internal/domain/world"
	"github.com/mbeckers/freightsim-go/test/helpers"
)

// startController builds a small world and runs the controller loop until the
// test ends.
func startController(t *testing.T) *controller.Controller {
	t.Helper()
	g := helpers.NewLineGraph(t, 2, 1000, 50)
	helpers.AttachSite(t, g, 0, "site-a", 0)
	helpers.AttachSite(t, g, 1, "site-b", 0)
	w := controller.BuildWorld(g, 60, 1)
	require.NoError(t, w.AddAgent(truck.New("truck-1", truck.DefaultConfig(), 0)))

	ctrl := controller.New(w, controller.Options{TickRate: 200, Seed: 1})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go ctrl.Run(ctx)
	return ctrl
}

// nextSignal reads one signal or fails the test after the timeout.
func nextSignal(t *testing.T, ctrl *controller.Controller) actions.Signal {
	t.Helper()
	select {
	case sig := <-ctrl.Signals():
		return sig
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a signal")
		return actions.Signal{}
	}
}

// awaitSignal discards signals until one with the given name arrives.
func awaitSignal(t *testing.T, ctrl *controller.Controller, name string) actions.Signal {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case sig := <-ctrl.Signals():
			if sig.Signal == name {
				return sig
			}
		case <-deadline:
			t.Fatalf("timed out waiting for signal %s", name)
			return actions.Signal{}
		}
	}
}

func TestStateRequestStreamsAFullSnapshot(t *testing.T) {
	// Arrange
	ctrl := startController(t)

	// Act
	require.NoError(t, ctrl.SubmitAction(actions.Action{Action: actions.StateRequest}))

	// Assert: start bracket, map, one frame per agent (broker, two site
	// observers, one truck), end bracket.
	assert.Equal(t, actions.SignalSnapshotStart, nextSignal(t, ctrl).Signal)
	mapData := nextSignal(t, ctrl)
	assert.Equal(t, actions.SignalFullMapData, mapData.Signal)
	assert.NotNil(t, mapData.Data["map"])
	for i := 0; i < 4; i++ {
		assert.Equal(t, actions.SignalFullAgentData, nextSignal(t, ctrl).Signal)
	}
	assert.Equal(t, actions.SignalSnapshotEnd, nextSignal(t, ctrl).Signal)
}

func TestUnknownActionYieldsAnErrorSignal(t *testing.T) {
	// Arrange
	ctrl := startController(t)

	// Act
	require.NoError(t, ctrl.SubmitAction(actions.Action{Action: "warp.drive"}))

	// Assert
	sig := awaitSignal(t, ctrl, actions.SignalError)
	assert.Equal(t, actions.CodeUnknownAction, sig.Data["code"])
}

func TestInvalidParamsYieldAnErrorSignal(t *testing.T) {
	// Arrange
	ctrl := startController(t)

	// Act
	require.NoError(t, ctrl.SubmitAction(actions.Action{
		Action: actions.TickRateUpdate,
		Params: map[string]interface{}{"tick_rate": -5},
	}))

	// Assert
	sig := awaitSignal(t, ctrl, actions.SignalError)
	assert.Equal(t, actions.CodeInvalidParams, sig.Data["code"])
}

func TestStartTicksAndStops(t *testing.T) {
	// Arrange
	ctrl := startController(t)

	// Act
	require.NoError(t, ctrl.SubmitAction(actions.Action{Action: actions.SimulationStart}))

	// Assert: the started signal, then ticks begin flowing.
	awaitSignal(t, ctrl, actions.SignalSimulationStarted)
	tick := awaitSignal(t, ctrl, actions.SignalTickStart)
	assert.EqualValues(t, 1, tick.Data["tick"])
	awaitSignal(t, ctrl, actions.SignalTickEnd)

	require.NoError(t, ctrl.SubmitAction(actions.Action{Action: actions.SimulationStop}))
	awaitSignal(t, ctrl, actions.SignalSimulationStopped)
	assert.False(t, ctrl.Running())
}

func TestStateSaveAndLoadRoundTripThroughAFile(t *testing.T) {
	// Arrange
	ctrl := startController(t)
	path := filepath.Join(t.TempDir(), "state.json")

	// Act
	require.NoError(t, ctrl.SubmitAction(actions.Action{
		Action: actions.StateSaveFile,
		Params: map[string]interface{}{"path": path},
	}))
	saved := awaitSignal(t, ctrl, actions.SignalStateSaved)
	assert.Equal(t, path, saved.Data["path"])

	require.NoError(t, ctrl.SubmitAction(actions.Action{
		Action: actions.StateLoadFile,
		Params: map[string]interface{}{"path": path},
	}))

	// Assert: the load confirms and re-streams the full snapshot.
	loaded := awaitSignal(t, ctrl, actions.SignalStateLoaded)
	assert.EqualValues(t, 0, loaded.Data["tick"])
	awaitSignal(t, ctrl, actions.SignalSnapshotEnd)
	assert.False(t, ctrl.Running())
}

func TestAgentCreateRejectsMissingNode(t *testing.T) {
	// Arrange
	ctrl := startController(t)

	// Act
	require.NoError(t, ctrl.SubmitAction(actions.Action{
		Action: actions.AgentCreate,
		Params: map[string]interface{}{"type": "truck", "node_id": 99},
	}))

	// Assert
	sig := awaitSignal(t, ctrl, actions.SignalError)
	assert.Equal(t, actions.CodeNotFound, sig.Data["code"])
}

func TestEventQueryReadsTheArchive(t *testing.T) {
	// Arrange
	g := helpers.NewLineGraph(t, 2, 1000, 50)
	helpers.AttachSite(t, g, 0, "site-a", 0)
	w := controller.BuildWorld(g, 60, 1)
	archive, err := persistence.OpenEventArchive(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { archive.Close() })
	require.NoError(t, archive.Append([]world.Event{
		{Tick: 1, Type: "package.created", Data: map[string]interface{}{"id": "pkg-1"}},
		{Tick: 2, Type: "package.delivered", Data: map[string]interface{}{"id": "pkg-1"}},
	}))

	ctrl := controller.New(w, controller.Options{TickRate: 200, Seed: 1, Archive: archive})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go ctrl.Run(ctx)

	// Act
	require.NoError(t, ctrl.SubmitAction(actions.Action{
		Action: actions.EventQuery,
		Params: map[string]interface{}{"type": "package.delivered", "to_tick": 10},
	}))

	// Assert
	sig := awaitSignal(t, ctrl, actions.SignalEventQueryResult)
	events, ok := sig.Data["events"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, events, 1)
	assert.Equal(t, "package.delivered", events[0]["type"])
	assert.EqualValues(t, 2, events[0]["tick"])
}

func TestEventQueryWithoutAnArchiveFails(t *testing.T) {
	// Arrange
	ctrl := startController(t)

	// Act
	require.NoError(t, ctrl.SubmitAction(actions.Action{Action: actions.EventQuery}))

	// Assert
	sig := awaitSignal(t, ctrl, actions.SignalError)
	assert.Equal(t, actions.CodeEngineError, sig.Data["code"])
}

func TestMapCreateReplacesTheWorld(t *testing.T) {
	// Arrange
	ctrl := startController(t)

	// Act
	require.NoError(t, ctrl.SubmitAction(actions.Action{
		Action: actions.MapCreate,
		Params: map[string]interface{}{"seed": 5, "num_nodes": 12},
	}))

	// Assert
	created := awaitSignal(t, ctrl, actions.SignalMapCreated)
	assert.NotNil(t, created.Data["map"])
	assert.Len(t, ctrl.World().Graph.NodeIDs(), 12)
	assert.False(t, ctrl.Running())
	_, hasBroker := ctrl.World().BrokerID()
	assert.True(t, hasBroker)
}
