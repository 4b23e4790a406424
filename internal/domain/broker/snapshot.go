package broker

import (
	"github.com/mbeckers/freightsim-go/internal/domain/agent"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
	"github.com/mbeckers/freightsim-go/internal/domain/world"
)

// PackageMetaSnapshot is the serialized bookkeeping for one tracked package.
type PackageMetaSnapshot struct {
	PackageID            string  `json:"package_id"`
	OriginSite           string  `json:"origin_site"`
	DestinationSite      string  `json:"destination_site"`
	Size                 int     `json:"size"`
	ValueDucats          float64 `json:"value_ducats"`
	PickupDeadlineTick   int64   `json:"pickup_deadline_tick"`
	DeliveryDeadlineTick int64   `json:"delivery_deadline_tick"`
	PickedUp             bool    `json:"picked_up"`
}

// NegotiationSnapshot is the serialized in-flight negotiation.
type NegotiationSnapshot struct {
	PackageID         string   `json:"package_id"`
	Status            string   `json:"status"`
	CandidateTrucks   []string `json:"candidate_trucks"`
	CurrentIdx        int      `json:"current_truck_idx"`
	ProposedIdx       int      `json:"proposed_truck_idx"`
	ResponsesReceived int      `json:"responses_received"`
}

// Snapshot is the broker's complete serialized state.
type Snapshot struct {
	ID            string                `json:"id"`
	BalanceDucats float64               `json:"balance_ducats"`
	Queue         []string              `json:"package_queue"`
	Known         []PackageMetaSnapshot `json:"known_packages"`
	Assigned      map[string]string     `json:"assigned_packages"`
	Active        *NegotiationSnapshot  `json:"active_negotiation,omitempty"`
}

// Snapshot captures the broker's full state.
func (b *Broker) Snapshot() Snapshot {
	s := Snapshot{
		ID:            string(b.ID()),
		BalanceDucats: b.balanceDucats,
		Queue:         []string{},
		Known:         []PackageMetaSnapshot{},
		Assigned:      map[string]string{},
	}
	for _, id := range b.queue {
		s.Queue = append(s.Queue, string(id))
	}
	for _, pkg := range b.knownIDs() {
		meta := b.known[pkg]
		s.Known = append(s.Known, PackageMetaSnapshot{
			PackageID:            string(pkg),
			OriginSite:           string(meta.origin),
			DestinationSite:      string(meta.destination),
			Size:                 meta.size,
			ValueDucats:          meta.value,
			PickupDeadlineTick:   meta.pickupDeadlineTick,
			DeliveryDeadlineTick: meta.deliveryDeadlineTick,
			PickedUp:             meta.pickedUp,
		})
	}
	for pkg, truck := range b.assigned {
		s.Assigned[string(pkg)] = string(truck)
	}
	if b.active != nil {
		candidates := make([]string, len(b.active.candidates))
		for i, id := range b.active.candidates {
			candidates[i] = string(id)
		}
		s.Active = &NegotiationSnapshot{
			PackageID:         string(b.active.packageID),
			Status:            string(b.active.status),
			CandidateTrucks:   candidates,
			CurrentIdx:        b.active.currentIdx,
			ProposedIdx:       b.active.proposedIdx,
			ResponsesReceived: b.active.responsesRecvd,
		}
	}
	return s
}

// FromSnapshot rebuilds a broker from its serialized state.
func FromSnapshot(s Snapshot) *Broker {
	b := &Broker{
		Base:          agent.NewBase(shared.AgentID(s.ID), world.KindBroker),
		balanceDucats: s.BalanceDucats,
		known:         make(map[shared.PackageID]packageMeta, len(s.Known)),
		assigned:      make(map[shared.PackageID]shared.AgentID, len(s.Assigned)),
	}
	for _, id := range s.Queue {
		b.queue = append(b.queue, shared.PackageID(id))
	}
	for _, meta := range s.Known {
		b.known[shared.PackageID(meta.PackageID)] = packageMeta{
			origin:               shared.SiteID(meta.OriginSite),
			destination:          shared.SiteID(meta.DestinationSite),
			size:                 meta.Size,
			value:                meta.ValueDucats,
			pickupDeadlineTick:   meta.PickupDeadlineTick,
			deliveryDeadlineTick: meta.DeliveryDeadlineTick,
			pickedUp:             meta.PickedUp,
		}
	}
	for pkg, truck := range s.Assigned {
		b.assigned[shared.PackageID(pkg)] = shared.AgentID(truck)
	}
	if s.Active != nil {
		candidates := make([]shared.AgentID, len(s.Active.CandidateTrucks))
		for i, id := range s.Active.CandidateTrucks {
			candidates[i] = shared.AgentID(id)
		}
		b.active = &negotiation{
			packageID:      shared.PackageID(s.Active.PackageID),
			status:         NegotiationStatus(s.Active.Status),
			candidates:     candidates,
			currentIdx:     s.Active.CurrentIdx,
			proposedIdx:    s.Active.ProposedIdx,
			responsesRecvd: s.Active.ResponsesReceived,
		}
	}
	return b
}
