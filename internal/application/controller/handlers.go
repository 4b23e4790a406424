package controller

import (
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/mbeckers/freightsim-go/internal/adapters/persistence"
	"github.com/mbeckers/freightsim-go/internal/application/actions"
	"github.com/mbeckers/freightsim-go/internal/application/mapgen"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
	"github.com/mbeckers/freightsim-go/internal/domain/truck"
	"github.com/mbeckers/freightsim-go/internal/domain/world"
)

func defaultRegistry() map[string]handlerFunc {
	return map[string]handlerFunc{
		actions.SimulationStart:  handleStart,
		actions.SimulationStop:   handleStop,
		actions.SimulationPause:  handlePause,
		actions.SimulationResume: handleResume,

		actions.TickRateUpdate: handleTickRate,

		actions.AgentCreate:   handleAgentCreate,
		actions.AgentDelete:   handleAgentDelete,
		actions.AgentUpdate:   handleAgentUpdate,
		actions.AgentDescribe: handleAgentDescribe,
		actions.AgentList:     handleAgentList,

		actions.MapCreate: handleMapCreate,
		actions.MapExport: handleMapExport,
		actions.MapImport: handleMapImport,

		actions.StateRequest:  handleStateRequest,
		actions.StateSaveFile: handleStateSave,
		actions.StateLoadFile: handleStateLoad,

		actions.EventQuery: handleEventQuery,
	}
}

// emitErr maps a typed failure to an error signal with a stable code.
func (c *Controller) emitErr(err error) {
	code := actions.CodeEngineError
	var validation *shared.ValidationError
	var notFound *shared.NotFoundError
	var ioErr *shared.IOError
	switch {
	case errors.As(err, &validation):
		code = actions.CodeInvalidParams
	case errors.As(err, &notFound):
		code = actions.CodeNotFound
	case errors.As(err, &ioErr):
		code = actions.CodeIOError
	}
	c.emit(actions.NewError(code, err.Error()))
}

func handleStart(c *Controller, _ actions.Action) {
	c.running = true
	c.paused = false
	c.emit(actions.New(actions.SignalSimulationStarted, map[string]interface{}{
		"tick": c.world.Clock.Tick,
	}))
	c.emitFullSnapshot()
}

func handleStop(c *Controller, _ actions.Action) {
	c.running = false
	c.paused = false
	c.emit(actions.New(actions.SignalSimulationStopped, map[string]interface{}{
		"tick": c.world.Clock.Tick,
	}))
}

func handlePause(c *Controller, _ actions.Action) {
	if c.running {
		c.paused = true
	}
	c.emit(actions.New(actions.SignalSimulationPaused, nil))
}

func handleResume(c *Controller, _ actions.Action) {
	c.paused = false
	c.emit(actions.New(actions.SignalSimulationResumed, nil))
}

func handleTickRate(c *Controller, a actions.Action) {
	var p actions.TickRateParams
	if err := actions.DecodeParams(a.Params, &p); err != nil {
		c.emit(actions.NewError(actions.CodeInvalidParams, err.Error()))
		return
	}
	c.tickRate = p.TickRate
	c.limiter.SetLimit(rate.Limit(p.TickRate))
	c.emit(actions.New(actions.SignalTickRateUpdated, map[string]interface{}{
		"tick_rate": p.TickRate,
	}))
}

func handleAgentCreate(c *Controller, a actions.Action) {
	var p actions.AgentCreateParams
	if err := actions.DecodeParams(a.Params, &p); err != nil {
		c.emit(actions.NewError(actions.CodeInvalidParams, err.Error()))
		return
	}
	node := shared.NodeID(*p.NodeID)
	if _, ok := c.world.Graph.Node(node); !ok {
		c.emitErr(shared.NewNotFoundError("node", fmt.Sprint(*p.NodeID)))
		return
	}

	id := shared.AgentID(p.AgentID)
	if id == "" {
		id = shared.NewAgentID(world.KindTruck)
	}
	cfg := truck.DefaultConfig()
	if p.MaxSpeedKPH > 0 {
		cfg.MaxSpeedKPH = p.MaxSpeedKPH
	}
	if p.Capacity > 0 {
		cfg.Capacity = p.Capacity
	}
	if p.FuelTankCapacityL > 0 {
		cfg.FuelTankCapacityL = p.FuelTankCapacityL
	}
	if p.BalanceDucats > 0 {
		cfg.BalanceDucats = p.BalanceDucats
	}

	t := truck.New(id, cfg, node)
	if err := c.world.AddAgent(t); err != nil {
		c.emitErr(err)
		return
	}
	c.emit(actions.New(actions.SignalAgentCreated, map[string]interface{}{
		"agent": t.SerializeFull(),
	}))
}

func handleAgentDelete(c *Controller, a actions.Action) {
	var p actions.AgentIDParams
	if err := actions.DecodeParams(a.Params, &p); err != nil {
		c.emit(actions.NewError(actions.CodeInvalidParams, err.Error()))
		return
	}
	if err := c.world.RemoveAgent(shared.AgentID(p.AgentID)); err != nil {
		c.emitErr(err)
		return
	}
	c.emit(actions.New(actions.SignalAgentDeleted, map[string]interface{}{
		"agent_id": p.AgentID,
	}))
}

func handleAgentUpdate(c *Controller, a actions.Action) {
	var p actions.AgentUpdateParams
	if err := actions.DecodeParams(a.Params, &p); err != nil {
		c.emit(actions.NewError(actions.CodeInvalidParams, err.Error()))
		return
	}
	agent, ok := c.world.Agent(shared.AgentID(p.AgentID))
	if !ok {
		c.emitErr(shared.NewNotFoundError("agent", p.AgentID))
		return
	}
	t, ok := agent.(*truck.Truck)
	if !ok {
		c.emit(actions.NewError(actions.CodeInvalidParams, "agent "+p.AgentID+" is not a truck"))
		return
	}
	if p.MaxSpeedKPH != nil {
		t.SetMaxSpeedKPH(*p.MaxSpeedKPH)
	}
	if p.BalanceDucats != nil {
		t.SetBalanceDucats(*p.BalanceDucats)
	}
	if p.CurrentFuelL != nil {
		t.SetCurrentFuelL(*p.CurrentFuelL)
	}
	c.emit(actions.New(actions.SignalAgentUpdated, map[string]interface{}{
		"agent_id": p.AgentID,
		"changes":  t.SerializeFull(),
	}))
}

func handleAgentDescribe(c *Controller, a actions.Action) {
	var p actions.AgentIDParams
	if err := actions.DecodeParams(a.Params, &p); err != nil {
		c.emit(actions.NewError(actions.CodeInvalidParams, err.Error()))
		return
	}
	agent, ok := c.world.Agent(shared.AgentID(p.AgentID))
	if !ok {
		c.emitErr(shared.NewNotFoundError("agent", p.AgentID))
		return
	}
	c.emit(actions.New(actions.SignalAgentDescribed, map[string]interface{}{
		"agent": agent.SerializeFull(),
	}))
}

func handleAgentList(c *Controller, _ actions.Action) {
	list := []map[string]interface{}{}
	for _, agent := range c.world.Agents() {
		list = append(list, map[string]interface{}{
			"agent_id": string(agent.ID()),
			"kind":     agent.Kind(),
		})
	}
	c.emit(actions.New(actions.SignalAgentListed, map[string]interface{}{
		"agents": list,
	}))
}

func handleMapCreate(c *Controller, a actions.Action) {
	var p actions.MapCreateParams
	if err := actions.DecodeParams(a.Params, &p); err != nil {
		c.emit(actions.NewError(actions.CodeInvalidParams, err.Error()))
		return
	}
	g, err := mapgen.Generate(mapgen.Config{
		Seed:            p.Seed,
		NumNodes:        p.NumNodes,
		SiteCount:       p.SiteCount,
		ParkingCount:    p.ParkingCount,
		GasStationCount: p.GasStationCount,
		WidthM:          p.WidthM,
		HeightM:         p.HeightM,
	})
	if err != nil {
		c.emitErr(err)
		return
	}
	c.running = false
	c.paused = false
	c.replaceWorld(g, c.world.Clock.DTSeconds, p.Seed)
	c.emit(actions.New(actions.SignalMapCreated, map[string]interface{}{
		"map": persistence.ExportMap(g),
	}))
}

func handleMapExport(c *Controller, _ actions.Action) {
	c.emit(actions.New(actions.SignalMapExported, map[string]interface{}{
		"map": persistence.ExportMap(c.world.Graph),
	}))
}

func handleMapImport(c *Controller, a actions.Action) {
	var p actions.MapImportParams
	if err := actions.DecodeParams(a.Params, &p); err != nil {
		c.emit(actions.NewError(actions.CodeInvalidParams, err.Error()))
		return
	}
	doc, err := persistence.DecodeMap(p.Map)
	if err != nil {
		c.emitErr(err)
		return
	}
	g, err := persistence.ImportMap(doc)
	if err != nil {
		c.emitErr(err)
		return
	}
	c.running = false
	c.paused = false
	c.replaceWorld(g, c.world.Clock.DTSeconds, c.seed)
	c.emit(actions.New(actions.SignalMapImported, map[string]interface{}{
		"nodes":     g.NodeCount(),
		"edges":     g.EdgeCount(),
		"buildings": len(doc.Buildings),
	}))
}

func handleEventQuery(c *Controller, a actions.Action) {
	var p actions.EventQueryParams
	if err := actions.DecodeParams(a.Params, &p); err != nil {
		c.emit(actions.NewError(actions.CodeInvalidParams, err.Error()))
		return
	}
	querier, ok := c.archive.(EventQuerier)
	if !ok || c.archive == nil {
		c.emit(actions.NewError(actions.CodeEngineError, "event archive is not enabled"))
		return
	}
	toTick := p.ToTick
	if toTick == 0 {
		toTick = c.world.Clock.Tick
	}
	events, err := querier.Query(p.Type, p.FromTick, toTick, p.Limit)
	if err != nil {
		c.emitErr(err)
		return
	}
	list := make([]map[string]interface{}, 0, len(events))
	for _, e := range events {
		list = append(list, map[string]interface{}{
			"tick": e.Tick,
			"type": e.Type,
			"data": e.Data,
		})
	}
	c.emit(actions.New(actions.SignalEventQueryResult, map[string]interface{}{
		"events": list,
	}))
}

func handleStateRequest(c *Controller, _ actions.Action) {
	c.emitFullSnapshot()
}

func handleStateSave(c *Controller, a actions.Action) {
	var p actions.StateSaveFileParams
	if err := actions.DecodeParams(a.Params, &p); err != nil {
		c.emit(actions.NewError(actions.CodeInvalidParams, err.Error()))
		return
	}
	doc := persistence.ExportState(c.world, c.seed)
	if err := persistence.SaveStateFile(p.Path, doc); err != nil {
		c.emitErr(err)
		return
	}
	c.emit(actions.New(actions.SignalStateSaved, map[string]interface{}{
		"path": p.Path,
		"tick": c.world.Clock.Tick,
	}))
}

func handleStateLoad(c *Controller, a actions.Action) {
	var p actions.StateLoadFileParams
	if err := actions.DecodeParams(a.Params, &p); err != nil {
		c.emit(actions.NewError(actions.CodeInvalidParams, err.Error()))
		return
	}
	if err := p.Validate(); err != nil {
		c.emit(actions.NewError(actions.CodeInvalidParams, err.Error()))
		return
	}

	var doc persistence.StateDocument
	var err error
	if p.Path != "" {
		doc, err = persistence.LoadStateFile(p.Path)
	} else {
		doc, err = persistence.LoadStateBase64(p.DataBase64)
	}
	if err != nil {
		c.emitErr(err)
		return
	}

	// Loading replaces the world wholesale; the simulation stops first and
	// the world is only swapped when the import fully succeeds.
	c.running = false
	c.paused = false
	restored, err := persistence.ImportState(doc)
	if err != nil {
		c.emitErr(err)
		return
	}
	c.world = restored
	c.seed = doc.Metadata.Seed
	c.emit(actions.New(actions.SignalStateLoaded, map[string]interface{}{
		"tick": restored.Clock.Tick,
	}))
	c.emitFullSnapshot()
}
