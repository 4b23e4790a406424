package steps

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"

	"github.com/mbeckers/freightsim-go/internal/domain/broker"
	"github.com/mbeckers/freightsim-go/internal/domain/cargo"
	"github.com/mbeckers/freightsim-go/internal/domain/graph"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
	"github.com/mbeckers/freightsim-go/internal/domain/truck"
	"github.com/mbeckers/freightsim-go/internal/domain/world"
)

type simulationContext struct {
	g      *graph.Graph
	w      *world.World
	broker *broker.Broker
	trucks map[string]*truck.Truck
	sites  map[string]*cargo.Site
	events []world.Event
}

func (sc *simulationContext) reset() {
	sc.g = nil
	sc.w = nil
	sc.broker = nil
	sc.trucks = make(map[string]*truck.Truck)
	sc.sites = make(map[string]*cargo.Site)
	sc.events = nil
}

// aRoadNetwork builds a bidirectional chain of nodes with uniform roads.
func (sc *simulationContext) aRoadNetwork(nodeCount int, lengthM, speedKPH float64) error {
	sc.g = graph.New()
	for i := 0; i < nodeCount; i++ {
		if _, err := sc.g.AddNode(shared.NodeID(i), float64(i)*lengthM, 0); err != nil {
			return err
		}
	}
	edgeID := 0
	for i := 0; i < nodeCount-1; i++ {
		from, to := shared.NodeID(i), shared.NodeID(i+1)
		for _, pair := range [][2]shared.NodeID{{from, to}, {to, from}} {
			_, err := sc.g.AddEdge(shared.EdgeID(edgeID), pair[0], pair[1], lengthM, speedKPH, "primary", 1, "road")
			if err != nil {
				return err
			}
			edgeID++
		}
	}
	sc.w = world.New(sc.g, 60, 1)
	return nil
}

func (sc *simulationContext) aLogisticsSite(id string, node int) error {
	site := cargo.NewSite(shared.BuildingID(id), id, 0)
	if err := sc.g.AttachBuilding(shared.NodeID(node), site); err != nil {
		return err
	}
	sc.sites[id] = site
	return nil
}

func (sc *simulationContext) theCentralBroker() error {
	sc.broker = broker.New("broker-1")
	return sc.w.AddAgent(sc.broker)
}

func (sc *simulationContext) aTruckParkedAt(id string, node int) error {
	t := truck.New(shared.AgentID(id), truck.DefaultConfig(), shared.NodeID(node))
	if err := sc.w.AddAgent(t); err != nil {
		return err
	}
	sc.trucks[id] = t
	return nil
}

func (sc *simulationContext) aPackage(id string, size int, value float64, origin, destination string, pickupDeadline, deliveryDeadline int64) error {
	site, ok := sc.sites[origin]
	if !ok {
		return fmt.Errorf("unknown origin site %s", origin)
	}
	pkg := &cargo.Package{
		ID:                   shared.PackageID(id),
		Origin:               shared.SiteID(origin),
		Destination:          shared.SiteID(destination),
		Size:                 size,
		ValueDucats:          value,
		Priority:             cargo.PriorityMedium,
		Urgency:              cargo.UrgencyStandard,
		Status:               cargo.StatusWaitingPickup,
		PickupDeadlineTick:   pickupDeadline,
		DeliveryDeadlineTick: deliveryDeadline,
	}
	if err := sc.w.AddPackage(pkg); err != nil {
		return err
	}
	site.RestoreActivePackage(pkg.ID)
	return nil
}

func (sc *simulationContext) theSimulationRuns(ticks int) error {
	for i := 0; i < ticks; i++ {
		result := sc.w.Step()
		sc.events = append(sc.events, result.Events...)
	}
	return nil
}

func (sc *simulationContext) packageAssignedTo(pkg, truckID string) error {
	assigned, ok := sc.broker.AssignedTo(shared.PackageID(pkg))
	if !ok {
		return fmt.Errorf("package %s is not assigned", pkg)
	}
	if assigned != shared.AgentID(truckID) {
		return fmt.Errorf("package %s assigned to %s, expected %s", pkg, assigned, truckID)
	}
	return nil
}

func (sc *simulationContext) eventEmitted(eventType string) error {
	for _, e := range sc.events {
		if e.Type == eventType {
			return nil
		}
	}
	return fmt.Errorf("no %s event was emitted", eventType)
}

func (sc *simulationContext) brokerBalanceIs(balance float64) error {
	if got := sc.broker.BalanceDucats(); got != balance {
		return fmt.Errorf("broker balance is %.2f, expected %.2f", got, balance)
	}
	return nil
}

func (sc *simulationContext) brokerBooksAreEmpty() error {
	if n := sc.broker.QueueLength(); n != 0 {
		return fmt.Errorf("broker still queues %d packages", n)
	}
	if sc.broker.HasActiveNegotiation() {
		return fmt.Errorf("broker still has an active negotiation")
	}
	return nil
}

func (sc *simulationContext) truckIsEmpty(id string) error {
	t, ok := sc.trucks[id]
	if !ok {
		return fmt.Errorf("unknown truck %s", id)
	}
	if loaded := t.LoadedPackages(); len(loaded) != 0 {
		return fmt.Errorf("truck %s still carries %v", id, loaded)
	}
	return nil
}

// InitializeSimulationScenario registers the shared world-building and
// assertion steps.
func InitializeSimulationScenario(ctx *godog.ScenarioContext) {
	sc := &simulationContext{}
	ctx.Before(func(c context.Context, s *godog.Scenario) (context.Context, error) {
		sc.reset()
		return c, nil
	})

	ctx.Step(`^a road network of (\d+) nodes joined by (\d+)m roads at (\d+) km/h$`, func(nodes int, length, speed float64) error {
		return sc.aRoadNetwork(nodes, length, speed)
	})
	ctx.Step(`^a logistics site "([^"]*)" at node (\d+)$`, sc.aLogisticsSite)
	ctx.Step(`^the central broker$`, sc.theCentralBroker)
	ctx.Step(`^a truck "([^"]*)" parked at node (\d+)$`, sc.aTruckParkedAt)
	ctx.Step(`^a package "([^"]*)" of size (\d+) and value (\d+) from "([^"]*)" to "([^"]*)" with pickup deadline (\d+) and delivery deadline (\d+)$`, sc.aPackage)
	ctx.Step(`^the simulation runs for (\d+) ticks$`, sc.theSimulationRuns)
	ctx.Step(`^the package "([^"]*)" should be assigned to "([^"]*)"$`, sc.packageAssignedTo)
	ctx.Step(`^a "([^"]*)" event should have been emitted$`, sc.eventEmitted)
	ctx.Step(`^the broker balance should be (\d+) ducats$`, sc.brokerBalanceIs)
	ctx.Step(`^the broker should have no packages on its books$`, sc.brokerBooksAreEmpty)
	ctx.Step(`^the truck "([^"]*)" should be empty$`, sc.truckIsEmpty)
}
