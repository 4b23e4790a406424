package truck

import (
	"github.com/mbeckers/freightsim-go/internal/domain/agent"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
	"github.com/mbeckers/freightsim-go/internal/domain/world"
)

// TaskSnapshot is the serialized form of one delivery task.
type TaskSnapshot struct {
	SiteID     string   `json:"site_id"`
	TaskType   string   `json:"task_type"`
	PackageIDs []string `json:"package_ids"`
	Status     string   `json:"status"`
}

// Snapshot is the truck's complete serialized state. All enums use string
// discriminators; the restore path parses them strictly.
type Snapshot struct {
	ID string `json:"id"`

	CurrentNode   *int    `json:"current_node,omitempty"`
	CurrentEdge   *int    `json:"current_edge,omitempty"`
	EdgeProgressM float64 `json:"edge_progress_m,omitempty"`

	Route               []int `json:"route"`
	Destination         *int  `json:"destination,omitempty"`
	RouteStartNode      *int  `json:"route_start_node,omitempty"`
	RouteEndNode        *int  `json:"route_end_node,omitempty"`
	OriginalDestination *int  `json:"original_destination,omitempty"`

	MaxSpeedKPH float64  `json:"max_speed_kph"`
	Capacity    int      `json:"capacity"`
	Loaded      []string `json:"loaded_packages"`

	DrivingTimeS  float64 `json:"driving_time_s"`
	RestingTimeS  float64 `json:"resting_time_s"`
	IsResting     bool    `json:"is_resting"`
	RequiredRestS float64 `json:"required_rest_s"`
	RiskFactor    float64 `json:"risk_factor"`

	FuelTankCapacityL   float64 `json:"fuel_tank_capacity_l"`
	CurrentFuelL        float64 `json:"current_fuel_l"`
	CO2EmittedKg        float64 `json:"co2_emitted_kg"`
	IsFueling           bool    `json:"is_fueling"`
	FuelingLitersNeeded float64 `json:"fueling_liters_needed"`

	BalanceDucats float64 `json:"balance_ducats"`

	DeliveryQueue []TaskSnapshot `json:"delivery_queue"`

	IsLoading        bool    `json:"is_loading"`
	IsUnloading      bool    `json:"is_unloading"`
	LoadingProgressS float64 `json:"loading_progress_s"`
	LoadingTargetS   float64 `json:"loading_target_s"`

	CurrentBuildingID *string `json:"current_building_id,omitempty"`

	IsSeekingParking     bool `json:"is_seeking_parking"`
	IsSeekingIdleParking bool `json:"is_seeking_idle_parking"`
	IsSeekingGasStation  bool `json:"is_seeking_gas_station"`
}

// Snapshot captures the truck's full state.
func (t *Truck) Snapshot() Snapshot {
	s := Snapshot{
		ID:                   string(t.ID()),
		EdgeProgressM:        t.edgeProgressM,
		MaxSpeedKPH:          t.maxSpeedKPH,
		Capacity:             t.capacity,
		DrivingTimeS:         t.drivingTimeS,
		RestingTimeS:         t.restingTimeS,
		IsResting:            t.isResting,
		RequiredRestS:        t.requiredRestS,
		RiskFactor:           t.riskFactor,
		FuelTankCapacityL:    t.fuelTankCapacityL,
		CurrentFuelL:         t.currentFuelL,
		CO2EmittedKg:         t.co2EmittedKg,
		IsFueling:            t.isFueling,
		FuelingLitersNeeded:  t.fuelingLitersNeeded,
		BalanceDucats:        t.balanceDucats,
		IsLoading:            t.isLoading,
		IsUnloading:          t.isUnloading,
		LoadingProgressS:     t.loadingProgressS,
		LoadingTargetS:       t.loadingTargetS,
		IsSeekingParking:     t.isSeekingParking,
		IsSeekingIdleParking: t.isSeekingIdleParking,
		IsSeekingGasStation:  t.isSeekingGasStation,
		Route:                []int{},
		Loaded:               []string{},
		DeliveryQueue:        []TaskSnapshot{},
	}
	s.CurrentNode = nodeIDPtr(t.currentNode)
	s.CurrentEdge = edgeIDPtr(t.currentEdge)
	s.Destination = nodeIDPtr(t.destination)
	s.RouteStartNode = nodeIDPtr(t.routeStartNode)
	s.RouteEndNode = nodeIDPtr(t.routeEndNode)
	s.OriginalDestination = nodeIDPtr(t.originalDestination)
	if t.currentBuildingID != nil {
		id := string(*t.currentBuildingID)
		s.CurrentBuildingID = &id
	}
	for _, n := range t.route {
		s.Route = append(s.Route, int(n))
	}
	for _, p := range t.loaded {
		s.Loaded = append(s.Loaded, string(p))
	}
	for _, task := range t.deliveryQueue {
		ids := make([]string, len(task.PackageIDs))
		for i, id := range task.PackageIDs {
			ids[i] = string(id)
		}
		s.DeliveryQueue = append(s.DeliveryQueue, TaskSnapshot{
			SiteID:     string(task.SiteID),
			TaskType:   string(task.Type),
			PackageIDs: ids,
			Status:     string(task.Status),
		})
	}
	return s
}

// FromSnapshot rebuilds a truck from its serialized state.
func FromSnapshot(s Snapshot) *Truck {
	t := &Truck{
		Base:                 agent.NewBase(shared.AgentID(s.ID), world.KindTruck),
		edgeProgressM:        s.EdgeProgressM,
		maxSpeedKPH:          s.MaxSpeedKPH,
		capacity:             s.Capacity,
		drivingTimeS:         s.DrivingTimeS,
		restingTimeS:         s.RestingTimeS,
		isResting:            s.IsResting,
		requiredRestS:        s.RequiredRestS,
		riskFactor:           s.RiskFactor,
		fuelTankCapacityL:    s.FuelTankCapacityL,
		currentFuelL:         s.CurrentFuelL,
		co2EmittedKg:         s.CO2EmittedKg,
		isFueling:            s.IsFueling,
		fuelingLitersNeeded:  s.FuelingLitersNeeded,
		balanceDucats:        s.BalanceDucats,
		isLoading:            s.IsLoading,
		isUnloading:          s.IsUnloading,
		loadingProgressS:     s.LoadingProgressS,
		loadingTargetS:       s.LoadingTargetS,
		isSeekingParking:     s.IsSeekingParking,
		isSeekingIdleParking: s.IsSeekingIdleParking,
		isSeekingGasStation:  s.IsSeekingGasStation,
		excludedBuildings:    make(map[shared.BuildingID]struct{}),
	}
	t.currentNode = toNodeID(s.CurrentNode)
	t.currentEdge = toEdgeID(s.CurrentEdge)
	t.destination = toNodeID(s.Destination)
	t.routeStartNode = toNodeID(s.RouteStartNode)
	t.routeEndNode = toNodeID(s.RouteEndNode)
	t.originalDestination = toNodeID(s.OriginalDestination)
	if s.CurrentBuildingID != nil {
		id := shared.BuildingID(*s.CurrentBuildingID)
		t.currentBuildingID = &id
	}
	for _, n := range s.Route {
		t.route = append(t.route, shared.NodeID(n))
	}
	for _, p := range s.Loaded {
		t.loaded = append(t.loaded, shared.PackageID(p))
	}
	for _, task := range s.DeliveryQueue {
		ids := make([]shared.PackageID, len(task.PackageIDs))
		for i, id := range task.PackageIDs {
			ids[i] = shared.PackageID(id)
		}
		t.deliveryQueue = append(t.deliveryQueue, &DeliveryTask{
			SiteID:     shared.SiteID(task.SiteID),
			Type:       TaskType(task.TaskType),
			PackageIDs: ids,
			Status:     TaskStatus(task.Status),
		})
	}
	return t
}

func nodeIDPtr(id *shared.NodeID) *int {
	if id == nil {
		return nil
	}
	v := int(*id)
	return &v
}

func edgeIDPtr(id *shared.EdgeID) *int {
	if id == nil {
		return nil
	}
	v := int(*id)
	return &v
}

func toNodeID(v *int) *shared.NodeID {
	if v == nil {
		return nil
	}
	id := shared.NodeID(*v)
	return &id
}

func toEdgeID(v *int) *shared.EdgeID {
	if v == nil {
		return nil
	}
	id := shared.EdgeID(*v)
	return &id
}
