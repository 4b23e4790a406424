package world

import (
	"math/rand"

	"github.com/mbeckers/freightsim-go/internal/domain/agent"
	"github.com/mbeckers/freightsim-go/internal/domain/cargo"
	"github.com/mbeckers/freightsim-go/internal/domain/graph"
	"github.com/mbeckers/freightsim-go/internal/domain/routing"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
)

// Agent variant discriminators.
const (
	KindTruck    = "truck"
	KindBroker   = "broker"
	KindBuilding = "building"
)

// Agent is the contract every world-owned agent implements. Perceive and
// Decide are called once per tick, in insertion order, each as a full sweep
// over all agents before the next phase begins.
type Agent interface {
	ID() shared.AgentID
	Kind() string
	Mailbox() *agent.Mailbox

	Perceive(w *World)
	Decide(w *World)

	// SerializeDiff returns the changed subset of watch fields since the last
	// call, and whether anything changed at all.
	SerializeDiff() (map[string]interface{}, bool)

	// SerializeFull returns the agent's complete state for snapshots.
	SerializeFull() map[string]interface{}
}

// World owns the graph, the agents, and the active packages, and advances
// them tick by tick. Everything here runs on the controller's single logical
// thread; agents never observe each other's mutations mid-phase.
type World struct {
	Clock   shared.SimClock
	Graph   *graph.Graph
	Routing *routing.Service

	// Fuel market state. The price drifts at most once per simulated day.
	GlobalFuelPrice  float64
	FuelVolatility   float64
	lastFuelPriceDay int

	agents     map[shared.AgentID]Agent
	agentOrder []shared.AgentID

	packages     map[shared.PackageID]*cargo.Package
	packageOrder []shared.PackageID

	events []Event
	rng    *rand.Rand
}

// DefaultFuelPrice is the opening per-liter fuel price in ducats.
const DefaultFuelPrice = 1.50

// DefaultFuelVolatility bounds the daily multiplicative fuel price walk.
const DefaultFuelVolatility = 0.10

// New creates a world around a graph with the given tick duration and seed.
func New(g *graph.Graph, dtSeconds float64, seed int64) *World {
	w := &World{
		Clock:           shared.NewSimClock(dtSeconds),
		Graph:           g,
		Routing:         routing.NewService(g),
		GlobalFuelPrice: DefaultFuelPrice,
		FuelVolatility:  DefaultFuelVolatility,
		agents:          make(map[shared.AgentID]Agent),
		packages:        make(map[shared.PackageID]*cargo.Package),
		rng:             shared.NewRand(seed),
	}
	w.lastFuelPriceDay = w.Clock.Day()
	return w
}

// RNG returns the world-owned random generator. All engine randomness flows
// through it so a replay with the same seed is deterministic.
func (w *World) RNG() *rand.Rand { return w.rng }

// AddAgent registers an agent. Insertion order is the iteration order for
// every tick phase and is stable across ticks.
func (w *World) AddAgent(a Agent) error {
	if _, exists := w.agents[a.ID()]; exists {
		return shared.NewInvariantError("agent %s already registered", a.ID())
	}
	w.agents[a.ID()] = a
	w.agentOrder = append(w.agentOrder, a.ID())
	return nil
}

// RemoveAgent unregisters an agent.
func (w *World) RemoveAgent(id shared.AgentID) error {
	if _, exists := w.agents[id]; !exists {
		return shared.NewNotFoundError("agent", string(id))
	}
	delete(w.agents, id)
	for i, existing := range w.agentOrder {
		if existing == id {
			w.agentOrder = append(w.agentOrder[:i], w.agentOrder[i+1:]...)
			break
		}
	}
	return nil
}

// Agent returns a registered agent by id.
func (w *World) Agent(id shared.AgentID) (Agent, bool) {
	a, ok := w.agents[id]
	return a, ok
}

// Agents returns all agents in insertion order.
func (w *World) Agents() []Agent {
	out := make([]Agent, 0, len(w.agentOrder))
	for _, id := range w.agentOrder {
		out = append(out, w.agents[id])
	}
	return out
}

// AgentsOfKind returns the agents of one variant in insertion order.
func (w *World) AgentsOfKind(kind string) []Agent {
	var out []Agent
	for _, id := range w.agentOrder {
		if a := w.agents[id]; a.Kind() == kind {
			out = append(out, a)
		}
	}
	return out
}

// BrokerID returns the singleton broker's id, if one is registered.
func (w *World) BrokerID() (shared.AgentID, bool) {
	for _, id := range w.agentOrder {
		if w.agents[id].Kind() == KindBroker {
			return id, true
		}
	}
	return "", false
}

// AddPackage registers a package in the active set.
func (w *World) AddPackage(p *cargo.Package) error {
	if _, exists := w.packages[p.ID]; exists {
		return shared.NewInvariantError("package %s already registered", p.ID)
	}
	w.packages[p.ID] = p
	w.packageOrder = append(w.packageOrder, p.ID)
	return nil
}

// RemovePackage drops a package from the active set. Delivered and expired
// packages survive only as emitted events.
func (w *World) RemovePackage(id shared.PackageID) {
	if _, exists := w.packages[id]; !exists {
		return
	}
	delete(w.packages, id)
	for i, existing := range w.packageOrder {
		if existing == id {
			w.packageOrder = append(w.packageOrder[:i], w.packageOrder[i+1:]...)
			break
		}
	}
}

// Package returns an active package by id.
func (w *World) Package(id shared.PackageID) (*cargo.Package, bool) {
	p, ok := w.packages[id]
	return p, ok
}

// Packages returns the active packages in creation order.
func (w *World) Packages() []*cargo.Package {
	out := make([]*cargo.Package, 0, len(w.packageOrder))
	for _, id := range w.packageOrder {
		out = append(out, w.packages[id])
	}
	return out
}

// Sites returns every site building in stable attach order.
func (w *World) Sites() []*cargo.Site {
	buildings := w.Graph.BuildingsOfKind(graph.KindSite)
	out := make([]*cargo.Site, 0, len(buildings))
	for _, b := range buildings {
		if site, ok := b.(*cargo.Site); ok {
			out = append(out, site)
		}
	}
	return out
}

// SiteByID resolves a site reference to the site building.
func (w *World) SiteByID(id shared.SiteID) (*cargo.Site, bool) {
	b, ok := w.Graph.Building(shared.BuildingIDOf(id))
	if !ok {
		return nil, false
	}
	site, ok := b.(*cargo.Site)
	return site, ok
}

// NodeOfSite returns the graph node a site sits on.
func (w *World) NodeOfSite(id shared.SiteID) (shared.NodeID, bool) {
	return w.Graph.BuildingNode(shared.BuildingIDOf(id))
}

// RestoreClock sets tick and dt during state import.
func (w *World) RestoreClock(tick int64, dtSeconds float64) {
	w.Clock = shared.SimClock{Tick: tick, DTSeconds: dtSeconds}
	w.lastFuelPriceDay = w.Clock.Day()
}

// RestoreFuelPrice sets the global fuel price during state import.
func (w *World) RestoreFuelPrice(price float64) {
	if price > 0 {
		w.GlobalFuelPrice = price
	}
}
