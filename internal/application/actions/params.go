package actions

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// DecodeParams maps a raw params object onto a typed, tagged struct and
// validates it.
func DecodeParams(params map[string]interface{}, out interface{}) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encoding params: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding params: %w", err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("validating params: %w", err)
	}
	return nil
}

// TickRateParams adjusts the controller pace in ticks per second.
type TickRateParams struct {
	TickRate float64 `json:"tick_rate" validate:"required,gt=0,lte=1000"`
}

// AgentCreateParams creates a truck at a node. Zero-valued optional fields
// fall back to the truck defaults.
type AgentCreateParams struct {
	Type              string  `json:"type" validate:"required,oneof=truck"`
	AgentID           string  `json:"agent_id"`
	NodeID            *int    `json:"node_id" validate:"required"`
	MaxSpeedKPH       float64 `json:"max_speed_kph" validate:"omitempty,gt=0,lte=130"`
	Capacity          int     `json:"capacity" validate:"omitempty,gte=1"`
	FuelTankCapacityL float64 `json:"fuel_tank_capacity_l" validate:"omitempty,gt=0"`
	BalanceDucats     float64 `json:"balance_ducats" validate:"omitempty,gte=0"`
}

// AgentIDParams addresses a single agent.
type AgentIDParams struct {
	AgentID string `json:"agent_id" validate:"required"`
}

// AgentUpdateParams patches mutable truck fields. Nil means leave unchanged.
type AgentUpdateParams struct {
	AgentID       string   `json:"agent_id" validate:"required"`
	MaxSpeedKPH   *float64 `json:"max_speed_kph" validate:"omitempty,gt=0,lte=130"`
	BalanceDucats *float64 `json:"balance_ducats" validate:"omitempty,gte=0"`
	CurrentFuelL  *float64 `json:"current_fuel_l" validate:"omitempty,gte=0"`
}

// MapCreateParams drives the procedural generator.
type MapCreateParams struct {
	Seed            int64   `json:"seed"`
	NumNodes        int     `json:"num_nodes" validate:"required,gte=2,lte=10000"`
	SiteCount       int     `json:"site_count" validate:"omitempty,gte=0"`
	ParkingCount    int     `json:"parking_count" validate:"omitempty,gte=0"`
	GasStationCount int     `json:"gas_station_count" validate:"omitempty,gte=0"`
	WidthM          float64 `json:"width_m" validate:"omitempty,gt=0"`
	HeightM         float64 `json:"height_m" validate:"omitempty,gt=0"`
}

// MapImportParams carries an inline map document.
type MapImportParams struct {
	Map json.RawMessage `json:"map" validate:"required"`
}

// StateSaveFileParams writes the current state document to a server-side
// path.
type StateSaveFileParams struct {
	Path string `json:"path" validate:"required"`
}

// StateLoadFileParams restores state from a server-side path or an inline
// base64 document. Exactly one source must be given.
type StateLoadFileParams struct {
	Path       string `json:"path"`
	DataBase64 string `json:"data_base64"`
}

// Validate enforces the one-source rule on top of the tag checks.
func (p StateLoadFileParams) Validate() error {
	if (p.Path == "") == (p.DataBase64 == "") {
		return fmt.Errorf("exactly one of path or data_base64 must be set")
	}
	return nil
}

// EventQueryParams filters the event archive. A zero ToTick means "up to the
// current tick"; an empty Type matches every event.
type EventQueryParams struct {
	Type     string `json:"type"`
	FromTick int64  `json:"from_tick" validate:"omitempty,gte=0"`
	ToTick   int64  `json:"to_tick" validate:"omitempty,gte=0"`
	Limit    int    `json:"limit" validate:"omitempty,gte=1,lte=1000"`
}
