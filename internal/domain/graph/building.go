package graph

import (
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
)

// BuildingKind is the discriminator for the tagged building variants. The
// per-node building index is keyed on it so "all parkings at node N" is O(1).
type BuildingKind string

const (
	KindParking    BuildingKind = "parking"
	KindGasStation BuildingKind = "gas_station"
	KindSite       BuildingKind = "site"
)

// Building is the common header shared by every building variant.
type Building interface {
	BuildingID() shared.BuildingID
	Kind() BuildingKind

	// Dirty reports whether the building changed since the last collection
	// sweep; ClearDirty resets the flag after the world emits the update.
	Dirty() bool
	ClearDirty()

	// Payload serializes the variant-specific state for signals and export.
	// The "type" discriminator is always present.
	Payload() map[string]interface{}
}

// Occupiable is implemented by buildings agents can physically enter.
type Occupiable interface {
	Building
	Capacity() int
	Occupants() []shared.AgentID
	Enter(agent shared.AgentID) error
	Leave(agent shared.AgentID)
	HasOccupant(agent shared.AgentID) bool
}

// Header carries the state every building variant embeds.
type Header struct {
	id    shared.BuildingID
	dirty bool
}

// NewHeader creates a building header for the given identifier.
func NewHeader(id shared.BuildingID) Header {
	return Header{id: id}
}

func (h *Header) BuildingID() shared.BuildingID { return h.id }
func (h *Header) Dirty() bool                   { return h.dirty }
func (h *Header) ClearDirty()                   { h.dirty = false }

// MarkDirty flags the building for the next building-update collection.
func (h *Header) MarkDirty() { h.dirty = true }

// occupancy tracks the agents inside a capacity-limited facility. Order of
// entry is preserved so serialization is deterministic.
type occupancy struct {
	capacity int
	order    []shared.AgentID
	present  map[shared.AgentID]struct{}
}

func newOccupancy(capacity int) occupancy {
	return occupancy{
		capacity: capacity,
		present:  make(map[shared.AgentID]struct{}),
	}
}

func (o *occupancy) enter(building shared.BuildingID, agent shared.AgentID) error {
	if _, ok := o.present[agent]; ok {
		return nil
	}
	if o.capacity > 0 && len(o.order) >= o.capacity {
		return shared.NewCapacityError(building, o.capacity)
	}
	o.present[agent] = struct{}{}
	o.order = append(o.order, agent)
	return nil
}

func (o *occupancy) leave(agent shared.AgentID) {
	if _, ok := o.present[agent]; !ok {
		return
	}
	delete(o.present, agent)
	for i, id := range o.order {
		if id == agent {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
}

func (o *occupancy) has(agent shared.AgentID) bool {
	_, ok := o.present[agent]
	return ok
}

func (o *occupancy) occupants() []shared.AgentID {
	out := make([]shared.AgentID, len(o.order))
	copy(out, o.order)
	return out
}

// Parking is a rest and idle facility with a fixed number of slots.
type Parking struct {
	Header
	occ occupancy
}

var _ Occupiable = (*Parking)(nil)

// NewParking creates a parking with the given capacity (at least 1).
func NewParking(id shared.BuildingID, capacity int) *Parking {
	if capacity < 1 {
		capacity = 1
	}
	return &Parking{Header: NewHeader(id), occ: newOccupancy(capacity)}
}

func (p *Parking) Kind() BuildingKind { return KindParking }

func (p *Parking) Capacity() int { return p.occ.capacity }

func (p *Parking) Occupants() []shared.AgentID { return p.occ.occupants() }

func (p *Parking) HasOccupant(a shared.AgentID) bool { return p.occ.has(a) }

func (p *Parking) Enter(agent shared.AgentID) error {
	if err := p.occ.enter(p.BuildingID(), agent); err != nil {
		return err
	}
	p.MarkDirty()
	return nil
}

func (p *Parking) Leave(agent shared.AgentID) {
	p.occ.leave(agent)
	p.MarkDirty()
}

func (p *Parking) Payload() map[string]interface{} {
	occupants := make([]string, 0, len(p.occ.order))
	for _, a := range p.occ.order {
		occupants = append(occupants, string(a))
	}
	return map[string]interface{}{
		"type":      string(KindParking),
		"id":        string(p.BuildingID()),
		"capacity":  p.occ.capacity,
		"occupants": occupants,
	}
}

// GasStation sells fuel at the global price scaled by its cost factor.
type GasStation struct {
	Header
	occ        occupancy
	costFactor float64
	revenue    float64
}

var _ Occupiable = (*GasStation)(nil)

// NewGasStation creates a gas station. costFactor must be positive; it scales
// the world's global fuel price into this station's effective price.
func NewGasStation(id shared.BuildingID, capacity int, costFactor float64) *GasStation {
	if capacity < 1 {
		capacity = 1
	}
	if costFactor <= 0 {
		costFactor = 1.0
	}
	return &GasStation{Header: NewHeader(id), occ: newOccupancy(capacity), costFactor: costFactor}
}

func (g *GasStation) Kind() BuildingKind { return KindGasStation }

func (g *GasStation) Capacity() int { return g.occ.capacity }

func (g *GasStation) Occupants() []shared.AgentID { return g.occ.occupants() }

func (g *GasStation) HasOccupant(a shared.AgentID) bool { return g.occ.has(a) }

// CostFactor returns the per-station fuel price multiplier.
func (g *GasStation) CostFactor() float64 { return g.costFactor }

// Revenue returns the accumulated fueling revenue.
func (g *GasStation) Revenue() float64 { return g.revenue }

// PricePerLiter computes this station's effective price from the global one.
func (g *GasStation) PricePerLiter(globalFuelPrice float64) float64 {
	return globalFuelPrice * g.costFactor
}

// RecordSale credits a completed fueling transaction.
func (g *GasStation) RecordSale(amount float64) {
	if amount <= 0 {
		return
	}
	g.revenue += amount
	g.MarkDirty()
}

// RestoreRevenue sets the accumulated revenue during state import.
func (g *GasStation) RestoreRevenue(revenue float64) {
	if revenue >= 0 {
		g.revenue = revenue
	}
}

func (g *GasStation) Enter(agent shared.AgentID) error {
	if err := g.occ.enter(g.BuildingID(), agent); err != nil {
		return err
	}
	g.MarkDirty()
	return nil
}

func (g *GasStation) Leave(agent shared.AgentID) {
	g.occ.leave(agent)
	g.MarkDirty()
}

func (g *GasStation) Payload() map[string]interface{} {
	occupants := make([]string, 0, len(g.occ.order))
	for _, a := range g.occ.order {
		occupants = append(occupants, string(a))
	}
	return map[string]interface{}{
		"type":        string(KindGasStation),
		"id":          string(g.BuildingID()),
		"capacity":    g.occ.capacity,
		"occupants":   occupants,
		"cost_factor": g.costFactor,
		"revenue":     g.revenue,
	}
}
