package broker

import (
	"reflect"
	"sort"

	"github.com/mbeckers/freightsim-go/internal/domain/agent"
	"github.com/mbeckers/freightsim-go/internal/domain/cargo"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
	"github.com/mbeckers/freightsim-go/internal/domain/world"
)

// OpeningBalanceDucats is the broker's starting balance.
const OpeningBalanceDucats = 10000.0

// Payment and fine policy.
const (
	// Per-tick late-delivery discount on the package value.
	LatePenaltyPerTick = 0.001

	// Fraction of the package value fined when a pickup deadline lapses.
	PickupExpiryFineFactor = 0.5
)

// NegotiationStatus is the state of the single in-flight negotiation.
type NegotiationStatus string

const (
	NegotiationProposed NegotiationStatus = "PROPOSED"
	NegotiationAccepted NegotiationStatus = "ACCEPTED"
	NegotiationRejected NegotiationStatus = "REJECTED"
)

// negotiation tracks the serial assignment protocol for one package. The
// broker never holds more than one.
type negotiation struct {
	packageID      shared.PackageID
	status         NegotiationStatus
	candidates     []shared.AgentID
	currentIdx     int
	proposedIdx    int
	responsesRecvd int
}

// packageMeta caches what the broker needs to know about a package after it
// leaves the world's active set (expiry fines, late payments).
type packageMeta struct {
	origin               shared.SiteID
	destination          shared.SiteID
	size                 int
	value                float64
	pickupDeadlineTick   int64
	deliveryDeadlineTick int64
	pickedUp             bool
}

// Broker is the singleton logistics coordinator. It watches for new
// packages, runs one negotiation at a time, and keeps the books.
type Broker struct {
	agent.Base

	balanceDucats float64

	queue    []shared.PackageID
	known    map[shared.PackageID]packageMeta
	assigned map[shared.PackageID]shared.AgentID

	active *negotiation

	lastDiff map[string]interface{}
}

var _ world.Agent = (*Broker)(nil)

// New creates the broker with the opening balance.
func New(id shared.AgentID) *Broker {
	return &Broker{
		Base:          agent.NewBase(id, world.KindBroker),
		balanceDucats: OpeningBalanceDucats,
		known:         make(map[shared.PackageID]packageMeta),
		assigned:      make(map[shared.PackageID]shared.AgentID),
	}
}

// BalanceDucats returns the broker's balance.
func (b *Broker) BalanceDucats() float64 { return b.balanceDucats }

// QueueLength returns the number of packages awaiting negotiation.
func (b *Broker) QueueLength() int { return len(b.queue) }

// AssignedTo returns the truck a package is assigned to.
func (b *Broker) AssignedTo(pkg shared.PackageID) (shared.AgentID, bool) {
	truck, ok := b.assigned[pkg]
	return truck, ok
}

// Assignments returns a copy of the assignment table.
func (b *Broker) Assignments() map[shared.PackageID]shared.AgentID {
	out := make(map[shared.PackageID]shared.AgentID, len(b.assigned))
	for k, v := range b.assigned {
		out[k] = v
	}
	return out
}

// HasActiveNegotiation reports whether a negotiation is in flight.
func (b *Broker) HasActiveNegotiation() bool { return b.active != nil }

// knownIDs returns the tracked package IDs sorted, so every sweep and every
// serialization walks the books in the same order.
func (b *Broker) knownIDs() []shared.PackageID {
	ids := make([]shared.PackageID, 0, len(b.known))
	for id := range b.known {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ActivePackage returns the package under negotiation.
func (b *Broker) ActivePackage() (shared.PackageID, bool) {
	if b.active == nil {
		return "", false
	}
	return b.active.packageID, true
}

// Perceive scans the world for newly observed waiting packages and enqueues
// them.
func (b *Broker) Perceive(w *world.World) {
	for _, pkg := range w.Packages() {
		if pkg.Status != cargo.StatusWaitingPickup {
			continue
		}
		if _, seen := b.known[pkg.ID]; seen {
			continue
		}
		b.known[pkg.ID] = packageMeta{
			origin:               pkg.Origin,
			destination:          pkg.Destination,
			size:                 pkg.Size,
			value:                pkg.ValueDucats,
			pickupDeadlineTick:   pkg.PickupDeadlineTick,
			deliveryDeadlineTick: pkg.DeliveryDeadlineTick,
		}
		b.queue = append(b.queue, pkg.ID)
	}
}

// SerializeDiff emits the broker's watch fields when they changed.
func (b *Broker) SerializeDiff() (map[string]interface{}, bool) {
	current := b.watchFields()
	if b.lastDiff != nil && reflect.DeepEqual(current, b.lastDiff) {
		return nil, false
	}
	b.lastDiff = current
	return current, true
}

func (b *Broker) watchFields() map[string]interface{} {
	fields := map[string]interface{}{
		"id":             string(b.ID()),
		"kind":           b.Kind(),
		"balance_ducats": b.balanceDucats,
		"queue_length":   len(b.queue),
		"assigned_count": len(b.assigned),
	}
	if b.active != nil {
		fields["active_negotiation"] = map[string]interface{}{
			"package_id": string(b.active.packageID),
			"status":     string(b.active.status),
		}
	}
	return fields
}

// SerializeFull returns the broker's complete state.
func (b *Broker) SerializeFull() map[string]interface{} {
	queue := make([]string, len(b.queue))
	for i, id := range b.queue {
		queue[i] = string(id)
	}
	known := make([]string, 0, len(b.known))
	for _, id := range b.knownIDs() {
		known = append(known, string(id))
	}
	assigned := make(map[string]interface{}, len(b.assigned))
	for pkg, truck := range b.assigned {
		assigned[string(pkg)] = string(truck)
	}
	full := map[string]interface{}{
		"id":                string(b.ID()),
		"kind":              b.Kind(),
		"balance_ducats":    b.balanceDucats,
		"package_queue":     queue,
		"known_packages":    known,
		"assigned_packages": assigned,
	}
	if b.active != nil {
		candidates := make([]string, len(b.active.candidates))
		for i, id := range b.active.candidates {
			candidates[i] = string(id)
		}
		full["active_negotiation"] = map[string]interface{}{
			"package_id":         string(b.active.packageID),
			"status":             string(b.active.status),
			"candidate_trucks":   candidates,
			"current_truck_idx":  b.active.currentIdx,
			"responses_received": b.active.responsesRecvd,
		}
	}
	return full
}
