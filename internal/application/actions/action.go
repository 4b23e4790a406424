package actions

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Action names accepted by the controller registry.
const (
	SimulationStart  = "simulation.start"
	SimulationStop   = "simulation.stop"
	SimulationPause  = "simulation.pause"
	SimulationResume = "simulation.resume"

	TickRateUpdate = "tick_rate.update"

	AgentCreate   = "agent.create"
	AgentDelete   = "agent.delete"
	AgentUpdate   = "agent.update"
	AgentDescribe = "agent.describe"
	AgentList     = "agent.list"

	MapCreate = "map.create"
	MapExport = "map.export"
	MapImport = "map.import"

	StateRequest  = "state.request"
	StateSaveFile = "state.save_file"
	StateLoadFile = "state.load_file"

	EventQuery = "event.query"
)

// namePattern is the wire-level shape every action name must match.
var namePattern = regexp.MustCompile(`^[a-z_]+\.[a-z_]+$`)

// Action is one client request: a dotted name and a free-form parameter
// object. Handlers decode Params into their own typed struct.
type Action struct {
	Action string                 `json:"action"`
	Params map[string]interface{} `json:"params"`
}

// Parse decodes and shape-checks one wire message. A malformed message or an
// ill-formed action name yields an error; unknown-but-well-formed names pass
// and are rejected by the registry instead.
func Parse(raw []byte) (Action, error) {
	var a Action
	if err := json.Unmarshal(raw, &a); err != nil {
		return Action{}, fmt.Errorf("decoding action: %w", err)
	}
	if !namePattern.MatchString(a.Action) {
		return Action{}, fmt.Errorf("action name %q does not match %s", a.Action, namePattern)
	}
	if a.Params == nil {
		a.Params = map[string]interface{}{}
	}
	return a, nil
}
