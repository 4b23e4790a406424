package controller

import (
	"github.com/mbeckers/freightsim-go/internal/adapters/persistence"
	"github.com/mbeckers/freightsim-go/internal/application/actions"
)

// emitFullSnapshot streams the complete world state: snapshot_start, the map,
// one full_agent_data per agent, snapshot_end. Consumers rebuild their view
// from this bracket and apply diffs afterwards.
func (c *Controller) emitFullSnapshot() {
	c.emit(actions.New(actions.SignalSnapshotStart, map[string]interface{}{
		"tick": c.world.Clock.Tick,
	}))

	c.emit(actions.New(actions.SignalFullMapData, map[string]interface{}{
		"map": persistence.ExportMap(c.world.Graph),
	}))

	for _, agent := range c.world.Agents() {
		c.emit(actions.New(actions.SignalFullAgentData, map[string]interface{}{
			"agent": agent.SerializeFull(),
		}))
	}

	c.emit(actions.New(actions.SignalSnapshotEnd, map[string]interface{}{
		"tick": c.world.Clock.Tick,
	}))
}
