package world

import (
	"github.com/mbeckers/freightsim-go/internal/domain/cargo"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
)

// TickData summarizes simulated time at the end of a step.
type TickData struct {
	Tick int64   `json:"tick"`
	Time float64 `json:"time"`
	Day  int     `json:"day"`
}

// AgentDiff is one agent's changed watch fields for this tick.
type AgentDiff struct {
	AgentID shared.AgentID
	Data    map[string]interface{}
}

// BuildingUpdate is one dirty building's serialized state.
type BuildingUpdate struct {
	BuildingID shared.BuildingID
	Data       map[string]interface{}
}

// StepResult bundles everything a tick produced.
type StepResult struct {
	TickData        TickData
	Events          []Event
	AgentDiffs      []AgentDiff
	BuildingUpdates []BuildingUpdate
}

// Step advances the world by one tick. The phase order is fixed: fuel price,
// perceive, deliver, site spawn/expire, decide, diff collection, building
// collection, event drain. Each phase is a full sweep over all agents in
// insertion order before the next phase begins.
func (w *World) Step() *StepResult {
	w.Clock.Tick++

	w.updateFuelPrice()

	agents := w.Agents()

	for _, a := range agents {
		a.Perceive(w)
	}

	w.deliverMessages(agents)

	w.spawnAndExpire()

	for _, a := range agents {
		a.Decide(w)
	}

	var diffs []AgentDiff
	for _, a := range agents {
		if data, changed := a.SerializeDiff(); changed {
			diffs = append(diffs, AgentDiff{AgentID: a.ID(), Data: data})
		}
	}

	var buildingUpdates []BuildingUpdate
	for _, b := range w.Graph.DirtyBuildings() {
		buildingUpdates = append(buildingUpdates, BuildingUpdate{
			BuildingID: b.BuildingID(),
			Data:       b.Payload(),
		})
		b.ClearDirty()
	}

	return &StepResult{
		TickData: TickData{
			Tick: w.Clock.Tick,
			Time: w.Clock.TimeOfDay(),
			Day:  w.Clock.Day(),
		},
		Events:          w.drainEvents(),
		AgentDiffs:      diffs,
		BuildingUpdates: buildingUpdates,
	}
}

// deliverMessages moves every outbox message into the recipient's inbox, or
// into every subscriber's inbox for topic messages, then clears the outboxes.
// Messages sent during this tick's decide phase sit in outboxes until the
// next tick's delivery, which is what makes cross-agent state one tick stale
// by construction.
func (w *World) deliverMessages(agents []Agent) {
	for _, sender := range agents {
		for _, msg := range sender.Mailbox().DrainOutbox() {
			if msg.Dst != "" {
				if recipient, ok := w.agents[msg.Dst]; ok {
					recipient.Mailbox().Push(msg)
				}
				continue
			}
			if msg.Topic == "" {
				continue
			}
			for _, recipient := range agents {
				if recipient.ID() == sender.ID() {
					continue
				}
				if recipient.Mailbox().SubscribedTo(msg.Topic) {
					recipient.Mailbox().Push(msg)
				}
			}
		}
	}
}

// spawnAndExpire runs the per-site package phase: Poisson spawning first,
// then expiry of waiting packages whose pickup deadline has passed.
func (w *World) spawnAndExpire() {
	sites := w.Sites()

	siteIDs := make([]shared.SiteID, 0, len(sites))
	for _, site := range sites {
		siteIDs = append(siteIDs, site.SiteID())
	}

	for _, site := range sites {
		if !site.ShouldSpawn(w.Clock.DTSeconds, w.rng) {
			continue
		}
		available := make([]shared.SiteID, 0, len(siteIDs)-1)
		for _, id := range siteIDs {
			if id != site.SiteID() {
				available = append(available, id)
			}
		}
		destination, ok := site.SelectDestination(available, w.rng)
		if !ok {
			continue
		}
		pkg := site.GeneratePackage(w.Clock, destination, w.rng)
		if err := w.AddPackage(pkg); err != nil {
			continue
		}
		w.EmitEvent(EventPackageCreated, pkg.Payload())
	}

	for _, site := range sites {
		for _, pkgID := range site.ActivePackages() {
			pkg, ok := w.Package(pkgID)
			if !ok {
				site.RemoveActivePackage(pkgID)
				continue
			}
			if pkg.Status != cargo.StatusWaitingPickup {
				continue
			}
			if w.Clock.Tick <= pkg.PickupDeadlineTick {
				continue
			}
			if err := pkg.MarkExpired(); err != nil {
				continue
			}
			site.RemoveActivePackage(pkgID)
			site.RecordExpiry()
			w.RemovePackage(pkgID)
			w.EmitEvent(EventPackageExpired, pkg.Payload())
		}
	}
}
