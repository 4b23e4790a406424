package actions

// Signal names emitted by the controller.
const (
	SignalSimulationStarted = "simulation.started"
	SignalSimulationStopped = "simulation.stopped"
	SignalSimulationPaused  = "simulation.paused"
	SignalSimulationResumed = "simulation.resumed"

	SignalTickStart = "tick.start"
	SignalTickEnd   = "tick.end"

	SignalTickRateUpdated = "tick_rate.updated"

	SignalAgentCreated   = "agent.created"
	SignalAgentDeleted   = "agent.deleted"
	SignalAgentUpdated   = "agent.updated"
	SignalAgentDescribed = "agent.described"
	SignalAgentListed    = "agent.listed"

	SignalMapCreated  = "map.created"
	SignalMapExported = "map.exported"
	SignalMapImported = "map.imported"

	SignalBuildingCreated = "building.created"
	SignalBuildingUpdated = "building.updated"

	SignalPackageCreated   = "package.created"
	SignalPackageExpired   = "package.expired"
	SignalPackagePickedUp  = "package.picked_up"
	SignalPackageDelivered = "package.delivered"
	SignalSiteStatsUpdate  = "site.stats_update"

	SignalEventCreated     = "event.created"
	SignalEventQueryResult = "event.query_result"

	SignalSnapshotStart = "state.snapshot_start"
	SignalSnapshotEnd   = "state.snapshot_end"
	SignalFullMapData   = "state.full_map_data"
	SignalFullAgentData = "state.full_agent_data"
	SignalStateSaved    = "state.saved"
	SignalStateLoaded   = "state.loaded"

	SignalError = "error"
)

// Signal is one controller-to-client notification.
type Signal struct {
	Signal string                 `json:"signal"`
	Data   map[string]interface{} `json:"data"`
}

// New builds a signal, normalizing a nil data map.
func New(name string, data map[string]interface{}) Signal {
	if data == nil {
		data = map[string]interface{}{}
	}
	return Signal{Signal: name, Data: data}
}

// Stable error codes carried by error signals.
const (
	CodeMalformedAction = "malformed_action"
	CodeUnknownAction   = "unknown_action"
	CodeInvalidParams   = "invalid_params"
	CodeNotFound        = "not_found"
	CodeEngineError     = "engine_error"
	CodeIOError         = "io_error"
	CodeQueueOverflow   = "queue_overflow"
)

// NewError builds an error signal with a stable code.
func NewError(code, message string) Signal {
	return Signal{
		Signal: SignalError,
		Data: map[string]interface{}{
			"code":    code,
			"message": message,
		},
	}
}
