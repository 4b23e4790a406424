package truck

import (
	"github.com/mbeckers/freightsim-go/internal/domain/graph"
	"github.com/mbeckers/freightsim-go/internal/domain/routing"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
	"github.com/mbeckers/freightsim-go/internal/domain/world"
)

// Fuel-seeking thresholds. Above the risk-adjusted threshold the truck never
// diverts; below the floor it always does.
const (
	fuelSeekFloorFraction = 0.10
)

func (t *Truck) fuelFraction() float64 {
	if t.fuelTankCapacityL <= 0 {
		return 0
	}
	return t.currentFuelL / t.fuelTankCapacityL
}

// fuelSeekThreshold is the fraction below which the truck starts considering
// a fuel stop: 0.30 - 0.15 * risk_factor.
func (t *Truck) fuelSeekThreshold() float64 {
	return 0.30 - 0.15*t.riskFactor
}

// maybeSeekGasStation decides whether to divert for fuel this tick. Between
// the threshold and the floor the probability ramps linearly.
func (t *Truck) maybeSeekGasStation(w *world.World) bool {
	if t.isSeekingGasStation || t.isFueling {
		return false
	}
	frac := t.fuelFraction()
	threshold := t.fuelSeekThreshold()
	if frac >= threshold {
		return false
	}
	if frac > fuelSeekFloorFraction {
		probability := (threshold - frac) / (threshold - fuelSeekFloorFraction)
		if w.RNG().Float64() >= probability {
			return false
		}
	}
	return t.seekGasStation(w)
}

// seekGasStation saves the current destination and routes to the gas station
// minimizing the total detour. Falls back to the plain closest station when
// the truck has no destination.
func (t *Truck) seekGasStation(w *world.World) bool {
	start, ok := t.EffectiveNode(w)
	if !ok {
		return false
	}

	criteria := routing.NewBuildingOfType(graph.KindGasStation)
	for id := range t.excludedBuildings {
		criteria = criteria.Excluding(id)
	}

	var path []shared.NodeID
	if t.destination != nil {
		match, found := w.Routing.FindClosestNodeOnRoute(start, *t.destination, criteria, t.maxSpeedKPH)
		if !found {
			return false
		}
		path = match.Path
	} else {
		match, found := w.Routing.FindClosestNode(start, criteria, t.maxSpeedKPH)
		if !found {
			return false
		}
		path = match.Path
	}
	if len(path) == 0 {
		return false
	}

	if t.originalDestination == nil && t.destination != nil {
		saved := *t.destination
		t.originalDestination = &saved
	}
	t.clearSeekingFlags()
	t.isSeekingGasStation = true
	t.installRoute(path)
	return true
}

// tryEnterGasStation attempts to start fueling at the node's station. A full
// station is excluded and the seek restarts.
func (t *Truck) tryEnterGasStation(w *world.World, node shared.NodeID) bool {
	graphNode, ok := w.Graph.Node(node)
	if !ok {
		return false
	}
	for _, b := range graphNode.Buildings(graph.KindGasStation) {
		if _, excluded := t.excludedBuildings[b.BuildingID()]; excluded {
			continue
		}
		if err := t.enterBuilding(w, b.BuildingID()); err != nil {
			t.excludedBuildings[b.BuildingID()] = struct{}{}
			continue
		}
		t.isFueling = true
		t.fuelingLitersNeeded = t.fuelTankCapacityL - t.currentFuelL
		t.clearSeekingFlags()
		t.clearNavigation()
		return true
	}
	// All stations here were full: look for the next one.
	return t.seekGasStation(w)
}

// handleFueling pumps fuel for one tick; on a full tank it pays the station,
// leaves, and resumes the interrupted trip.
func (t *Truck) handleFueling(w *world.World) {
	pumped := PumpRateLPerSecond * w.Clock.DTSeconds
	missing := t.fuelTankCapacityL - t.currentFuelL
	if pumped > missing {
		pumped = missing
	}
	t.currentFuelL += pumped

	if t.currentFuelL < t.fuelTankCapacityL {
		return
	}
	t.currentFuelL = t.fuelTankCapacityL
	t.finishFueling(w)
}

func (t *Truck) finishFueling(w *world.World) {
	liters := t.fuelingLitersNeeded
	var price float64
	if t.currentBuildingID != nil {
		if b, ok := w.Graph.Building(*t.currentBuildingID); ok {
			if station, ok := b.(*graph.GasStation); ok {
				price = station.PricePerLiter(w.GlobalFuelPrice)
				cost := liters * price
				t.balanceDucats -= cost
				station.RecordSale(cost)
				w.EmitEvent(world.EventTruckFuelPurchase, map[string]interface{}{
					"agent_id":        string(t.ID()),
					"station_id":      string(station.BuildingID()),
					"liters":          liters,
					"price_per_liter": price,
					"total":           cost,
				})
			}
		}
	}

	t.leaveCurrentBuilding(w)
	t.isFueling = false
	t.fuelingLitersNeeded = 0
	t.outOfFuelReported = false
	t.clearSeekingFlags()

	if t.originalDestination != nil {
		goal := *t.originalDestination
		t.originalDestination = nil
		t.planRouteTo(w, goal)
	}
}
