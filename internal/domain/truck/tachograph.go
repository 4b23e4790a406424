package truck

import (
	"github.com/mbeckers/freightsim-go/internal/domain/graph"
	"github.com/mbeckers/freightsim-go/internal/domain/routing"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
	"github.com/mbeckers/freightsim-go/internal/domain/world"
)

// RequiredRestSeconds maps accumulated driving time to the mandated rest:
// hour for hour up to six hours of driving, then linear up to ten hours of
// rest at the eight-hour cap.
func RequiredRestSeconds(drivingTimeS float64) float64 {
	hours := drivingTimeS / shared.SecondsPerHour
	var restHours float64
	switch {
	case hours <= 0:
		restHours = 0
	case hours <= 6:
		restHours = hours
	default:
		restHours = 6 + (hours-6)*2
	}
	return restHours * shared.SecondsPerHour
}

// restSeekStartHours is the driving time at which the truck starts looking
// for a parking, shifted by the driver's risk appetite.
func (t *Truck) restSeekStartHours() float64 {
	return 7 + t.riskFactor
}

// maybeSeekRestParking decides whether to divert to a parking for the
// mandated rest. The probability ramps linearly from the start threshold to
// certainty at the eight-hour cap.
func (t *Truck) maybeSeekRestParking(w *world.World) bool {
	if t.isSeekingParking || t.isResting {
		return false
	}
	hours := t.drivingTimeS / shared.SecondsPerHour
	start := t.restSeekStartHours()
	if hours < start {
		return false
	}
	capHours := DrivingCapSeconds / shared.SecondsPerHour
	if hours < capHours && start < capHours {
		probability := (hours - start) / (capHours - start)
		if w.RNG().Float64() >= probability {
			return false
		}
	}
	return t.seekRestParking(w)
}

// seekRestParking routes to the parking minimizing total detour cost.
func (t *Truck) seekRestParking(w *world.World) bool {
	start, ok := t.EffectiveNode(w)
	if !ok {
		return false
	}

	criteria := routing.NewBuildingOfType(graph.KindParking)
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
	t.isSeekingParking = true
	t.installRoute(path)
	return true
}

// seekIdleParking routes the workless truck to the nearest parking, where it
// parks without resting until new work arrives.
func (t *Truck) seekIdleParking(w *world.World) bool {
	if t.isSeekingIdleParking || t.currentBuildingID != nil {
		return false
	}
	start, ok := t.EffectiveNode(w)
	if !ok {
		return false
	}
	criteria := routing.NewBuildingOfType(graph.KindParking)
	for id := range t.excludedBuildings {
		criteria = criteria.Excluding(id)
	}
	match, found := w.Routing.FindClosestNode(start, criteria, t.maxSpeedKPH)
	if !found || len(match.Path) == 0 {
		return false
	}
	t.clearSeekingFlags()
	t.isSeekingIdleParking = true
	if len(match.Path) == 1 {
		// Already at a parking node: enter directly.
		return t.tryEnterParking(w, start)
	}
	t.installRoute(match.Path)
	return true
}

// tryEnterParking attempts to enter a parking at the node. Full parkings are
// excluded and the seek restarts. Entering starts the rest when the truck
// was seeking rest; an idle seeker just parks.
func (t *Truck) tryEnterParking(w *world.World, node shared.NodeID) bool {
	graphNode, ok := w.Graph.Node(node)
	if !ok {
		return false
	}
	seekingRest := t.isSeekingParking
	for _, b := range graphNode.Buildings(graph.KindParking) {
		if _, excluded := t.excludedBuildings[b.BuildingID()]; excluded {
			continue
		}
		if err := t.enterBuilding(w, b.BuildingID()); err != nil {
			t.excludedBuildings[b.BuildingID()] = struct{}{}
			continue
		}
		t.clearSeekingFlags()
		t.clearNavigation()
		if seekingRest {
			t.beginRest(w)
		}
		return true
	}
	if seekingRest {
		return t.seekRestParking(w)
	}
	return t.seekIdleParking(w)
}

// beginRest starts the mandated rest. The rest requirement is fixed at the
// moment resting begins.
func (t *Truck) beginRest(w *world.World) {
	t.isResting = true
	t.restingTimeS = 0
	t.requiredRestS = RequiredRestSeconds(t.drivingTimeS)
	w.EmitEvent(world.EventTruckRestStarted, map[string]interface{}{
		"agent_id":        string(t.ID()),
		"driving_time_s":  t.drivingTimeS,
		"required_rest_s": t.requiredRestS,
	})
}

// handleResting accumulates rest; once the requirement is met the driving
// timer resets and the truck precomputes the route back to its interrupted
// destination so the next tick departs immediately.
func (t *Truck) handleResting(w *world.World) {
	t.restingTimeS += w.Clock.DTSeconds
	if t.restingTimeS < t.requiredRestS {
		// Precompute the return route once while resting.
		if t.originalDestination != nil && len(t.route) == 0 && t.destination == nil {
			t.planRouteTo(w, *t.originalDestination)
			// Keep standing: departure happens after the rest completes.
		}
		return
	}

	t.isResting = false
	t.drivingTimeS = 0
	t.restingTimeS = 0
	t.requiredRestS = 0
	t.overCapFined = false
	t.leaveCurrentBuilding(w)
	w.EmitEvent(world.EventTruckRestCompleted, map[string]interface{}{
		"agent_id": string(t.ID()),
	})

	if t.originalDestination != nil {
		goal := *t.originalDestination
		t.originalDestination = nil
		if t.destination == nil || *t.destination != goal {
			t.planRouteTo(w, goal)
		}
	}
}

// Tachograph fines, tiered by how far past the cap the driver went.
func tachographFine(overshootS float64) float64 {
	switch {
	case overshootS <= shared.SecondsPerHour:
		return 100
	case overshootS <= 2*shared.SecondsPerHour:
		return 200
	default:
		return 500
	}
}

// enforceDrivingCap applies the tiered fine once per violation episode and
// nudges the risk factor toward caution.
func (t *Truck) enforceDrivingCap(w *world.World) {
	if t.drivingTimeS <= DrivingCapSeconds || t.overCapFined {
		return
	}
	t.overCapFined = true
	overshoot := t.drivingTimeS - DrivingCapSeconds
	fine := tachographFine(overshoot)
	t.balanceDucats -= fine
	t.riskFactor *= shared.UniformBetween(w.RNG(), 0.99, 0.995)
	w.EmitEvent(world.EventTruckTachoFine, map[string]interface{}{
		"agent_id":       string(t.ID()),
		"fine":           fine,
		"driving_time_s": t.drivingTimeS,
		"overshoot_s":    overshoot,
	})
}
