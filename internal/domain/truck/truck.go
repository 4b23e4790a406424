package truck

import (
	"reflect"

	"github.com/mbeckers/freightsim-go/internal/domain/agent"
	"github.com/mbeckers/freightsim-go/internal/domain/cargo"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
	"github.com/mbeckers/freightsim-go/internal/domain/world"
)

// Capability bounds and physical constants.
const (
	MinCapacity = 4
	MaxCapacity = 45

	// Fuel consumption in liters per 100 km: base plus a per-tonne surcharge.
	BaseConsumptionLPer100KM     = 25.0
	PerTonneConsumptionLPer100KM = 1.5

	// Kilograms of CO2 emitted per liter of diesel burned.
	CO2KgPerLiter = 2.68

	// Pump throughput while fueling.
	PumpRateLPerSecond = 2.0

	// Cargo handling throughput in tonnes per minute.
	LoadingRateTonnesPerMinute = 0.5

	// Tachograph hard cap on cumulative driving.
	DrivingCapSeconds = 8 * 3600.0
)

// Config is the immutable capability set a truck is created with.
type Config struct {
	MaxSpeedKPH       float64
	Capacity          int
	FuelTankCapacityL float64
	BalanceDucats     float64
}

// DefaultConfig returns the standard truck build.
func DefaultConfig() Config {
	return Config{
		MaxSpeedKPH:       90,
		Capacity:          24,
		FuelTankCapacityL: 400,
		BalanceDucats:     1000,
	}
}

// Truck is the autonomous haulage agent. Its decide phase runs a strict
// priority ladder: fueling, resting, loading/unloading, broker messages,
// tachograph, fuel seeking, rest seeking, movement.
type Truck struct {
	agent.Base

	// Position: exactly one of currentNode or currentEdge is set.
	currentNode   *shared.NodeID
	currentEdge   *shared.EdgeID
	edgeProgressM float64

	// Navigation.
	route               []shared.NodeID
	destination         *shared.NodeID
	routeStartNode      *shared.NodeID
	routeEndNode        *shared.NodeID
	originalDestination *shared.NodeID

	// Capabilities.
	maxSpeedKPH float64
	capacity    int
	loaded      []shared.PackageID

	// Tachograph.
	drivingTimeS  float64
	restingTimeS  float64
	isResting     bool
	requiredRestS float64
	riskFactor    float64
	overCapFined  bool

	// Fuel.
	fuelTankCapacityL   float64
	currentFuelL        float64
	co2EmittedKg        float64
	isFueling           bool
	fuelingLitersNeeded float64
	outOfFuelReported   bool

	// Finance.
	balanceDucats float64

	// Delivery work.
	deliveryQueue []*DeliveryTask

	// Loading/unloading progress.
	isLoading        bool
	isUnloading      bool
	loadingProgressS float64
	loadingTargetS   float64

	// Occupancy: at most one building at a time.
	currentBuildingID *shared.BuildingID

	// Seeking flags: at most one active.
	isSeekingParking     bool
	isSeekingIdleParking bool
	isSeekingGasStation  bool

	// Facilities found full this trip, excluded from re-seeks.
	excludedBuildings map[shared.BuildingID]struct{}

	lastDiff map[string]interface{}
}

var _ world.Agent = (*Truck)(nil)

// New creates a truck standing at the given node with a full tank and a
// clamped capacity.
func New(id shared.AgentID, cfg Config, startNode shared.NodeID) *Truck {
	if cfg.Capacity < MinCapacity {
		cfg.Capacity = MinCapacity
	}
	if cfg.Capacity > MaxCapacity {
		cfg.Capacity = MaxCapacity
	}
	if cfg.MaxSpeedKPH <= 0 {
		cfg.MaxSpeedKPH = DefaultConfig().MaxSpeedKPH
	}
	if cfg.FuelTankCapacityL <= 0 {
		cfg.FuelTankCapacityL = DefaultConfig().FuelTankCapacityL
	}
	node := startNode
	return &Truck{
		Base:              agent.NewBase(id, world.KindTruck),
		currentNode:       &node,
		maxSpeedKPH:       cfg.MaxSpeedKPH,
		capacity:          cfg.Capacity,
		fuelTankCapacityL: cfg.FuelTankCapacityL,
		currentFuelL:      cfg.FuelTankCapacityL,
		balanceDucats:     cfg.BalanceDucats,
		riskFactor:        1.0,
		excludedBuildings: make(map[shared.BuildingID]struct{}),
	}
}

// AtNode returns the truck's node when it is not mid-edge.
func (t *Truck) AtNode() (shared.NodeID, bool) {
	if t.currentNode == nil {
		return 0, false
	}
	return *t.currentNode, true
}

// OnEdge returns the truck's edge and progress when it is mid-edge.
func (t *Truck) OnEdge() (shared.EdgeID, float64, bool) {
	if t.currentEdge == nil {
		return 0, 0, false
	}
	return *t.currentEdge, t.edgeProgressM, true
}

// EffectiveNode is the node the truck is at, or the one it is driving toward
// on its current edge. Used as the origin for route planning and ranking.
func (t *Truck) EffectiveNode(w *world.World) (shared.NodeID, bool) {
	if t.currentNode != nil {
		return *t.currentNode, true
	}
	if t.currentEdge != nil {
		if edge, ok := w.Graph.Edge(*t.currentEdge); ok {
			return edge.To, true
		}
	}
	return 0, false
}

// MaxSpeedKPH returns the truck's speed cap.
func (t *Truck) MaxSpeedKPH() float64 { return t.maxSpeedKPH }

// Capacity returns the cargo capacity in size units.
func (t *Truck) Capacity() int { return t.capacity }

// LoadedPackages returns the ids of the packages on board.
func (t *Truck) LoadedPackages() []shared.PackageID {
	out := make([]shared.PackageID, len(t.loaded))
	copy(out, t.loaded)
	return out
}

// LoadedSize sums the size units of the cargo on board.
func (t *Truck) LoadedSize(w *world.World) int {
	total := 0
	for _, id := range t.loaded {
		if pkg, ok := w.Package(id); ok {
			total += pkg.Size
		}
	}
	return total
}

func (t *Truck) cargoWeightTonnes(w *world.World) float64 {
	return float64(t.LoadedSize(w)) * cargo.TonnesPerSizeUnit
}

// CurrentFuelL returns the fuel on board.
func (t *Truck) CurrentFuelL() float64 { return t.currentFuelL }

// FuelTankCapacityL returns the tank size.
func (t *Truck) FuelTankCapacityL() float64 { return t.fuelTankCapacityL }

// CO2EmittedKg returns cumulative emissions.
func (t *Truck) CO2EmittedKg() float64 { return t.co2EmittedKg }

// BalanceDucats returns the truck's cash balance.
func (t *Truck) BalanceDucats() float64 { return t.balanceDucats }

// DrivingTimeS returns accumulated driving seconds since the last rest.
func (t *Truck) DrivingTimeS() float64 { return t.drivingTimeS }

// RiskFactor returns the driver's compliance factor in [0, 1].
func (t *Truck) RiskFactor() float64 { return t.riskFactor }

// IsResting reports whether the truck is parked for a mandated rest.
func (t *Truck) IsResting() bool { return t.isResting }

// IsFueling reports whether the truck is at a pump.
func (t *Truck) IsFueling() bool { return t.isFueling }

// IsLoading reports whether the truck is loading at a site.
func (t *Truck) IsLoading() bool { return t.isLoading }

// IsUnloading reports whether the truck is unloading at a site.
func (t *Truck) IsUnloading() bool { return t.isUnloading }

// IsIdleParked reports whether the truck sits in a parking with no work.
func (t *Truck) IsIdleParked() bool {
	return t.currentBuildingID != nil && !t.isResting && len(t.deliveryQueue) == 0
}

// CurrentBuilding returns the building the truck occupies, if any.
func (t *Truck) CurrentBuilding() (shared.BuildingID, bool) {
	if t.currentBuildingID == nil {
		return "", false
	}
	return *t.currentBuildingID, true
}

// Route returns the remaining route nodes.
func (t *Truck) Route() []shared.NodeID {
	out := make([]shared.NodeID, len(t.route))
	copy(out, t.route)
	return out
}

// Destination returns the truck's current navigation target.
func (t *Truck) Destination() (shared.NodeID, bool) {
	if t.destination == nil {
		return 0, false
	}
	return *t.destination, true
}

// DeliveryQueue returns a copy of the pending work queue.
func (t *Truck) DeliveryQueue() []DeliveryTask {
	out := make([]DeliveryTask, 0, len(t.deliveryQueue))
	for _, task := range t.deliveryQueue {
		copied := *task
		copied.PackageIDs = append([]shared.PackageID{}, task.PackageIDs...)
		out = append(out, copied)
	}
	return out
}

// HasWork reports whether any task is queued.
func (t *Truck) HasWork() bool { return len(t.deliveryQueue) > 0 }

// SetMaxSpeedKPH applies an admin update. Non-positive values are ignored.
func (t *Truck) SetMaxSpeedKPH(v float64) {
	if v > 0 {
		t.maxSpeedKPH = v
	}
}

// SetBalanceDucats applies an admin update to the cash balance.
func (t *Truck) SetBalanceDucats(v float64) {
	if v >= 0 {
		t.balanceDucats = v
	}
}

// SetCurrentFuelL applies an admin update, clamped to the tank.
func (t *Truck) SetCurrentFuelL(v float64) {
	if v < 0 {
		return
	}
	if v > t.fuelTankCapacityL {
		v = t.fuelTankCapacityL
	}
	t.currentFuelL = v
	if v > 0 {
		t.outOfFuelReported = false
	}
}

// Perceive is a no-op: the truck reads the world lazily during decide.
func (t *Truck) Perceive(w *world.World) {}

// SerializeDiff emits the watch fields (position, route, loaded packages,
// building, activity flags) when any of them changed since the last emission.
func (t *Truck) SerializeDiff() (map[string]interface{}, bool) {
	current := t.watchFields()
	if t.lastDiff != nil && reflect.DeepEqual(current, t.lastDiff) {
		return nil, false
	}
	t.lastDiff = current
	return current, true
}

func (t *Truck) watchFields() map[string]interface{} {
	fields := map[string]interface{}{
		"id":   string(t.ID()),
		"kind": t.Kind(),
	}
	if t.currentNode != nil {
		fields["current_node"] = int(*t.currentNode)
	}
	if t.currentEdge != nil {
		fields["current_edge"] = int(*t.currentEdge)
		fields["edge_progress_m"] = t.edgeProgressM
	}
	route := make([]int, len(t.route))
	for i, n := range t.route {
		route[i] = int(n)
	}
	fields["route"] = route
	loaded := make([]string, len(t.loaded))
	for i, p := range t.loaded {
		loaded[i] = string(p)
	}
	fields["loaded_packages"] = loaded
	if t.currentBuildingID != nil {
		fields["current_building_id"] = string(*t.currentBuildingID)
	}
	fields["is_resting"] = t.isResting
	fields["is_fueling"] = t.isFueling
	fields["is_loading"] = t.isLoading
	fields["is_unloading"] = t.isUnloading
	return fields
}

// SerializeFull returns the truck's complete state for snapshots and saves.
func (t *Truck) SerializeFull() map[string]interface{} {
	full := t.watchFields()
	if t.destination != nil {
		full["destination"] = int(*t.destination)
	}
	if t.routeStartNode != nil {
		full["route_start_node"] = int(*t.routeStartNode)
	}
	if t.routeEndNode != nil {
		full["route_end_node"] = int(*t.routeEndNode)
	}
	if t.originalDestination != nil {
		full["original_destination"] = int(*t.originalDestination)
	}
	full["max_speed_kph"] = t.maxSpeedKPH
	full["capacity"] = t.capacity
	full["driving_time_s"] = t.drivingTimeS
	full["resting_time_s"] = t.restingTimeS
	full["required_rest_s"] = t.requiredRestS
	full["risk_factor"] = t.riskFactor
	full["fuel_tank_capacity_l"] = t.fuelTankCapacityL
	full["current_fuel_l"] = t.currentFuelL
	full["co2_emitted_kg"] = t.co2EmittedKg
	full["fueling_liters_needed"] = t.fuelingLitersNeeded
	full["balance_ducats"] = t.balanceDucats
	full["is_seeking_parking"] = t.isSeekingParking
	full["is_seeking_idle_parking"] = t.isSeekingIdleParking
	full["is_seeking_gas_station"] = t.isSeekingGasStation

	queue := make([]map[string]interface{}, 0, len(t.deliveryQueue))
	for _, task := range t.deliveryQueue {
		ids := make([]string, len(task.PackageIDs))
		for i, id := range task.PackageIDs {
			ids[i] = string(id)
		}
		queue = append(queue, map[string]interface{}{
			"site_id":     string(task.SiteID),
			"task_type":   string(task.Type),
			"package_ids": ids,
			"status":      string(task.Status),
		})
	}
	full["delivery_queue"] = queue
	return full
}

// clearSeekingFlags drops all seeking flags; at most one is ever active.
func (t *Truck) clearSeekingFlags() {
	t.isSeekingParking = false
	t.isSeekingIdleParking = false
	t.isSeekingGasStation = false
}

func (t *Truck) setNode(node shared.NodeID) {
	n := node
	t.currentNode = &n
	t.currentEdge = nil
	t.edgeProgressM = 0
}

func (t *Truck) setEdge(edge shared.EdgeID) {
	e := edge
	t.currentEdge = &e
	t.currentNode = nil
	t.edgeProgressM = 0
}

// clearNavigation resets route bookkeeping after arrival.
func (t *Truck) clearNavigation() {
	t.route = nil
	t.destination = nil
	t.routeStartNode = nil
	t.routeEndNode = nil
}
