package broker

import (
	"math"
	"sort"

	"github.com/mbeckers/freightsim-go/internal/domain/agent"
	"github.com/mbeckers/freightsim-go/internal/domain/cargo"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
	"github.com/mbeckers/freightsim-go/internal/domain/world"
)

// candidateTruck is what the broker needs to see of a truck when ranking
// candidates. Trucks satisfy it; the broker never imports their package.
type candidateTruck interface {
	world.Agent
	IsFueling() bool
	IsResting() bool
	EffectiveNode(w *world.World) (shared.NodeID, bool)
	MaxSpeedKPH() float64
}

// Decide runs the broker's per-tick protocol in fixed order: settle inbound
// responses and confirmations, finalize or requeue the active negotiation,
// probe the next candidate, start a new negotiation, and collect expiry
// fines.
func (b *Broker) Decide(w *world.World) {
	b.processInbox(w)
	b.settleNegotiation(w)
	b.probeCandidate()
	b.startNegotiation(w)
	b.collectExpiryFines(w)
}

func (b *Broker) processInbox(w *world.World) {
	for _, msg := range b.Mailbox().DrainInbox() {
		switch msg.Type {
		case agent.TypeProposalAccept:
			b.handleAccept(msg)
		case agent.TypeProposalReject:
			b.handleReject(msg)
		case agent.TypePickupConfirmed:
			b.handlePickupConfirmed(w, msg)
		case agent.TypeDeliveryConfirmed:
			b.handleDeliveryConfirmed(w, msg)
		}
	}
}

// handleAccept records an acceptance from the candidate currently holding the
// proposal. Stale accepts, from earlier negotiations or out-of-turn trucks,
// are dropped.
func (b *Broker) handleAccept(msg agent.Message) {
	if b.active == nil || b.active.status != NegotiationProposed {
		return
	}
	pkg := shared.PackageID(stringField(msg.Body, "package_id"))
	if pkg != b.active.packageID {
		return
	}
	if b.active.currentIdx >= len(b.active.candidates) ||
		b.active.candidates[b.active.currentIdx] != msg.Src {
		return
	}
	b.active.status = NegotiationAccepted
	b.active.responsesRecvd++
}

// handleReject moves the negotiation to the next candidate.
func (b *Broker) handleReject(msg agent.Message) {
	if b.active == nil || b.active.status != NegotiationProposed {
		return
	}
	pkg := shared.PackageID(stringField(msg.Body, "package_id"))
	if pkg != b.active.packageID {
		return
	}
	if b.active.currentIdx >= len(b.active.candidates) ||
		b.active.candidates[b.active.currentIdx] != msg.Src {
		return
	}
	b.active.responsesRecvd++
	b.active.currentIdx++
}

// handlePickupConfirmed marks the packages as picked up so the expiry sweep
// leaves them alone.
func (b *Broker) handlePickupConfirmed(w *world.World, msg agent.Message) {
	for _, raw := range stringSliceField(msg.Body, "package_ids") {
		pkg := shared.PackageID(raw)
		if meta, known := b.known[pkg]; known {
			meta.pickedUp = true
			b.known[pkg] = meta
		}
		w.EmitEvent(world.EventBrokerPickupTracking, map[string]interface{}{
			"package_id": raw,
			"truck_id":   string(msg.Src),
		})
	}
}

// handleDeliveryConfirmed credits the delivery payment: the package value
// discounted per tick of lateness, never below zero.
func (b *Broker) handleDeliveryConfirmed(w *world.World, msg agent.Message) {
	pkg := shared.PackageID(stringField(msg.Body, "package_id"))
	meta, known := b.known[pkg]
	if !known {
		return
	}
	deliveredTick := int64Field(msg.Body, "delivered_tick")
	ticksLate := deliveredTick - meta.deliveryDeadlineTick
	if ticksLate < 0 {
		ticksLate = 0
	}
	payment := meta.value * math.Max(0, 1-LatePenaltyPerTick*float64(ticksLate))
	b.balanceDucats += payment

	w.EmitEvent(world.EventBrokerPayment, map[string]interface{}{
		"package_id":     string(pkg),
		"truck_id":       string(msg.Src),
		"payment_ducats": payment,
		"ticks_late":     ticksLate,
	})

	delete(b.assigned, pkg)
	delete(b.known, pkg)
}

// settleNegotiation finalizes an accepted negotiation or requeues the package
// when every candidate has rejected it.
func (b *Broker) settleNegotiation(w *world.World) {
	if b.active == nil {
		return
	}

	if b.active.status == NegotiationAccepted {
		winner := b.active.candidates[b.active.currentIdx]
		pkg := b.active.packageID
		meta := b.known[pkg]

		b.assigned[pkg] = winner
		b.Mailbox().Send(agent.Message{
			Src:  b.ID(),
			Dst:  winner,
			Type: agent.TypeAssignmentConfirmed,
			Body: assignmentBody(pkg, meta),
		})
		w.EmitEvent(world.EventBrokerAssignment, map[string]interface{}{
			"package_id": string(pkg),
			"truck_id":   string(winner),
		})
		b.active = nil
		return
	}

	if b.active.currentIdx >= len(b.active.candidates) {
		// Every candidate said no; back of the queue, try again later.
		pkg := b.active.packageID
		b.queue = append(b.queue, pkg)
		w.EmitEvent(world.EventBrokerRequeued, map[string]interface{}{
			"package_id": string(pkg),
			"rejections": b.active.responsesRecvd,
		})
		b.active = nil
	}
}

// probeCandidate sends the proposal to the current candidate if it has not
// been proposed to yet. One outstanding proposal at a time.
func (b *Broker) probeCandidate() {
	if b.active == nil || b.active.status != NegotiationProposed {
		return
	}
	if b.active.currentIdx >= len(b.active.candidates) {
		return
	}
	if b.active.proposedIdx == b.active.currentIdx {
		return
	}
	meta := b.known[b.active.packageID]
	b.Mailbox().Send(agent.Message{
		Src:  b.ID(),
		Dst:  b.active.candidates[b.active.currentIdx],
		Type: agent.TypeProposal,
		Body: assignmentBody(b.active.packageID, meta),
	})
	b.active.proposedIdx = b.active.currentIdx
}

// startNegotiation pops the queue until it finds a package still waiting for
// pickup, ranks the fleet by proximity to the origin, and opens the
// negotiation. At most one full rotation of the queue per tick.
func (b *Broker) startNegotiation(w *world.World) {
	if b.active != nil {
		return
	}
	for attempts := len(b.queue); attempts > 0 && len(b.queue) > 0; attempts-- {
		pkg := b.queue[0]
		b.queue = b.queue[1:]

		live, exists := w.Package(pkg)
		if !exists || live.Status != cargo.StatusWaitingPickup {
			// Expired or already handled; fines run off the cached meta.
			continue
		}

		candidates := b.rankCandidates(w, b.known[pkg].origin)
		if len(candidates) == 0 {
			b.queue = append(b.queue, pkg)
			continue
		}

		b.active = &negotiation{
			packageID:   pkg,
			status:      NegotiationProposed,
			candidates:  candidates,
			proposedIdx: -1,
		}
		b.probeCandidate()
		return
	}
}

// rankCandidates orders the fleet by estimated travel time to the origin
// site, closest first. Trucks that are fueling, resting, or off the map are
// skipped.
func (b *Broker) rankCandidates(w *world.World, origin shared.SiteID) []shared.AgentID {
	originNode, ok := w.NodeOfSite(origin)
	if !ok {
		return nil
	}

	type ranked struct {
		id    shared.AgentID
		hours float64
	}
	var pool []ranked
	for _, a := range w.AgentsOfKind(world.KindTruck) {
		truck, ok := a.(candidateTruck)
		if !ok || truck.IsFueling() || truck.IsResting() {
			continue
		}
		node, positioned := truck.EffectiveNode(w)
		if !positioned {
			continue
		}
		hours := w.Routing.EstimateTravelTime(node, originNode, truck.MaxSpeedKPH())
		if math.IsInf(hours, 1) {
			continue
		}
		pool = append(pool, ranked{id: truck.ID(), hours: hours})
	}
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].hours < pool[j].hours })

	out := make([]shared.AgentID, len(pool))
	for i, r := range pool {
		out[i] = r.id
	}
	return out
}

// collectExpiryFines charges the broker for every tracked package whose
// pickup deadline has lapsed and drops it from the books.
func (b *Broker) collectExpiryFines(w *world.World) {
	now := w.Clock.Tick
	for _, pkg := range b.knownIDs() {
		meta := b.known[pkg]
		if meta.pickedUp || now <= meta.pickupDeadlineTick {
			continue
		}
		if live, exists := w.Package(pkg); exists && live.Status != cargo.StatusWaitingPickup {
			// Picked up this tick; the confirmation is still in flight.
			continue
		}
		if b.active != nil && b.active.packageID == pkg {
			// Mid-negotiation for a package the world already expired.
			b.active = nil
		}
		fine := PickupExpiryFineFactor * meta.value
		b.balanceDucats -= fine
		w.EmitEvent(world.EventBrokerPickupExpiryFine, map[string]interface{}{
			"package_id":  string(pkg),
			"fine_ducats": fine,
		})
		b.removeFromQueue(pkg)
		delete(b.assigned, pkg)
		delete(b.known, pkg)
	}
}

func (b *Broker) removeFromQueue(pkg shared.PackageID) {
	for i, id := range b.queue {
		if id == pkg {
			b.queue = append(b.queue[:i], b.queue[i+1:]...)
			return
		}
	}
}

func assignmentBody(pkg shared.PackageID, meta packageMeta) map[string]interface{} {
	return map[string]interface{}{
		"package_id":             string(pkg),
		"origin_site":            string(meta.origin),
		"destination_site":       string(meta.destination),
		"size":                   meta.size,
		"value_ducats":           meta.value,
		"pickup_deadline_tick":   meta.pickupDeadlineTick,
		"delivery_deadline_tick": meta.deliveryDeadlineTick,
	}
}

func stringField(body map[string]interface{}, key string) string {
	if v, ok := body[key].(string); ok {
		return v
	}
	return ""
}

func stringSliceField(body map[string]interface{}, key string) []string {
	switch v := body[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func int64Field(body map[string]interface{}, key string) int64 {
	switch v := body[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}
