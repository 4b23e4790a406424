package truck

import (
	"github.com/mbeckers/freightsim-go/internal/domain/graph"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
	"github.com/mbeckers/freightsim-go/internal/domain/world"
)

// planRouteTo computes and installs a route from the truck's effective node
// to the goal. Returns false when no route exists.
func (t *Truck) planRouteTo(w *world.World, goal shared.NodeID) bool {
	start, ok := t.EffectiveNode(w)
	if !ok {
		return false
	}
	path := w.Routing.FindRoute(start, goal, t.maxSpeedKPH)
	if len(path) == 0 {
		return false
	}
	t.installRoute(path)
	return true
}

// installRoute sets navigation state from a full path (including the start
// node). The stored route holds only the remaining stops.
func (t *Truck) installRoute(path []shared.NodeID) {
	start := path[0]
	end := path[len(path)-1]
	t.routeStartNode = &start
	t.routeEndNode = &end
	t.destination = &end
	if len(path) > 1 {
		t.route = append([]shared.NodeID{}, path[1:]...)
	} else {
		t.route = nil
	}
}

// consumptionLPerKM is the fuel burn for the current cargo weight.
func (t *Truck) consumptionLPerKM(w *world.World) float64 {
	return (BaseConsumptionLPer100KM + PerTonneConsumptionLPer100KM*t.cargoWeightTonnes(w)) / 100.0
}

// advance moves the truck along its current edge for one tick, carrying
// leftover distance across node boundaries. A truck with an empty tank is
// stranded: speed drops to zero, an out-of-fuel event is emitted once, and
// the truck stays where it is.
func (t *Truck) advance(w *world.World) {
	edgeID, _, onEdge := t.OnEdge()
	if !onEdge {
		return
	}
	edge, ok := w.Graph.Edge(edgeID)
	if !ok {
		return
	}

	if t.currentFuelL <= 0 {
		if !t.outOfFuelReported {
			t.outOfFuelReported = true
			w.EmitEvent(world.EventTruckOutOfFuel, map[string]interface{}{
				"agent_id":        string(t.ID()),
				"edge_id":         int(edgeID),
				"edge_progress_m": t.edgeProgressM,
			})
		}
		return
	}

	speedKPH := t.maxSpeedKPH
	if edge.MaxSpeedKPH < speedKPH {
		speedKPH = edge.MaxSpeedKPH
	}
	distanceM := speedKPH * (1000.0 / 3600.0) * w.Clock.DTSeconds

	t.drivingTimeS += w.Clock.DTSeconds

	for distanceM > 0 && t.currentEdge != nil {
		edge, ok = w.Graph.Edge(*t.currentEdge)
		if !ok {
			return
		}
		remainingM := edge.LengthM - t.edgeProgressM
		stepM := distanceM
		if stepM > remainingM {
			stepM = remainingM
		}

		t.burnFuel(w, stepM)
		t.edgeProgressM += stepM
		distanceM -= stepM

		if t.currentFuelL <= 0 && t.edgeProgressM < edge.LengthM {
			// Tank ran dry mid-edge; the stranded check fires next tick.
			return
		}

		if t.edgeProgressM < edge.LengthM {
			return
		}

		arrived := edge.To
		t.setNode(arrived)
		if len(t.route) > 0 && t.route[0] == arrived {
			t.route = t.route[1:]
		}
		if t.destination != nil && *t.destination == arrived {
			t.destination = nil
		}

		// Transit passthrough: keep rolling onto the next edge unless this
		// node requires a stop.
		if t.requiresStopAt(w, arrived) || len(t.route) == 0 {
			return
		}
		next, ok := w.Graph.EdgeBetween(arrived, t.route[0])
		if !ok {
			// Route references a road that no longer connects; replanning
			// happens in the at-node handler next tick.
			return
		}
		t.setEdge(next.ID)
	}
}

// burnFuel consumes fuel and emits CO2 for a distance driven.
func (t *Truck) burnFuel(w *world.World, distanceM float64) {
	liters := t.consumptionLPerKM(w) * (distanceM / 1000.0)
	if liters > t.currentFuelL {
		liters = t.currentFuelL
	}
	t.currentFuelL -= liters
	t.co2EmittedKg += liters * CO2KgPerLiter
}

// requiresStopAt reports whether an arrival node is a stop: the end of the
// planned route while seeking a facility, or a site with work for the truck.
func (t *Truck) requiresStopAt(w *world.World, node shared.NodeID) bool {
	if t.destination == nil {
		// Destination was just cleared: this is the route's end.
		if t.isSeekingGasStation || t.isSeekingParking || t.isSeekingIdleParking {
			return true
		}
		if task := t.currentTask(); task != nil {
			if siteNode, ok := w.NodeOfSite(task.SiteID); ok && siteNode == node {
				return true
			}
		}
		return len(t.route) == 0
	}
	return false
}

// handleAtNode runs arrival semantics once the truck stands at a node: enter
// the facility it was seeking, start site work, continue the route, or plan
// the next destination.
func (t *Truck) handleAtNode(w *world.World) {
	node, ok := t.AtNode()
	if !ok {
		return
	}

	// Arrived at the end of a seek: try to enter the facility.
	if t.destination == nil {
		if t.isSeekingGasStation && t.tryEnterGasStation(w, node) {
			return
		}
		if (t.isSeekingParking || t.isSeekingIdleParking) && t.tryEnterParking(w, node) {
			return
		}
		if task := t.currentTask(); task != nil {
			if siteNode, ok := w.NodeOfSite(task.SiteID); ok && siteNode == node {
				t.startSiteWork(w, task)
				return
			}
		}
	}

	// Mid-route: roll onto the next edge.
	if len(t.route) > 0 {
		if next, ok := w.Graph.EdgeBetween(node, t.route[0]); ok {
			t.setEdge(next.ID)
			t.advance(w)
			return
		}
		// Broken route; replan toward the recorded destination.
		if t.destination != nil {
			goal := *t.destination
			t.clearNavigation()
			t.planRouteTo(w, goal)
			return
		}
		t.clearNavigation()
		return
	}

	// No route: plan the next piece of work, or go idle-park.
	if task := t.currentTask(); task != nil {
		if siteNode, ok := w.NodeOfSite(task.SiteID); ok {
			if siteNode == node {
				t.startSiteWork(w, task)
				return
			}
			t.planRouteTo(w, siteNode)
			return
		}
		// Site vanished (admin removal); drop the task.
		t.completeCurrentTask()
		return
	}

	t.seekIdleParking(w)
}

// leaveCurrentBuilding exits whatever facility the truck occupies.
func (t *Truck) leaveCurrentBuilding(w *world.World) {
	if t.currentBuildingID == nil {
		return
	}
	if b, ok := w.Graph.Building(*t.currentBuildingID); ok {
		if occ, ok := b.(graph.Occupiable); ok {
			occ.Leave(t.ID())
		}
	}
	t.currentBuildingID = nil
}

// enterBuilding records occupancy of a facility at the truck's node.
func (t *Truck) enterBuilding(w *world.World, id shared.BuildingID) error {
	if _, atNode := t.AtNode(); !atNode {
		return shared.NewPositionError(t.ID(), "enter building")
	}
	b, ok := w.Graph.Building(id)
	if !ok {
		return shared.NewNotFoundError("building", string(id))
	}
	occ, ok := b.(graph.Occupiable)
	if !ok {
		return shared.NewInvariantError("building %s is not occupiable", id)
	}
	if err := occ.Enter(t.ID()); err != nil {
		return err
	}
	t.leaveCurrentBuilding(w)
	bid := id
	t.currentBuildingID = &bid
	// Exclusions only cover facilities found full on the way here.
	t.excludedBuildings = make(map[shared.BuildingID]struct{})
	return nil
}
