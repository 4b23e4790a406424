package truck

import (
	"github.com/mbeckers/freightsim-go/internal/domain/agent"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
	"github.com/mbeckers/freightsim-go/internal/domain/world"
)

// Decide runs the truck's per-tick priority ladder. Fueling, resting, and
// site work are exclusive states that consume the whole tick; everything
// else happens in fixed order below them.
func (t *Truck) Decide(w *world.World) {
	if t.isFueling {
		t.handleFueling(w)
		return
	}
	if t.isResting {
		t.handleResting(w)
		return
	}
	if t.isLoading || t.isUnloading {
		t.handleSiteWork(w)
		return
	}

	t.processInbox(w)
	t.enforceDrivingCap(w)
	t.maybeSeekGasStation(w)
	t.maybeSeekRestParking(w)

	if _, atNode := t.AtNode(); atNode {
		t.handleAtNode(w)
	} else {
		t.advance(w)
	}
}

// processInbox answers broker proposals and ingests confirmed assignments.
func (t *Truck) processInbox(w *world.World) {
	for _, msg := range t.Mailbox().DrainInbox() {
		switch msg.Type {
		case agent.TypeProposal:
			t.answerProposal(w, msg)
		case agent.TypeAssignmentConfirmed:
			t.acceptAssignment(w, msg)
		}
	}
}

func (t *Truck) answerProposal(w *world.World, msg agent.Message) {
	terms := decodeProposal(msg.Body)
	reason := t.evaluateProposal(w, terms)
	reply := agent.Message{
		Src: t.ID(),
		Dst: msg.Src,
		Body: map[string]interface{}{
			"package_id": string(terms.packageID),
		},
	}
	if reason == "" {
		reply.Type = agent.TypeProposalAccept
	} else {
		reply.Type = agent.TypeProposalReject
		reply.Body["reason"] = reason
	}
	t.Mailbox().Send(reply)
}

func (t *Truck) acceptAssignment(w *world.World, msg agent.Message) {
	pkg := shared.PackageID(stringField(msg.Body, "package_id"))
	origin := shared.SiteID(stringField(msg.Body, "origin_site"))
	destination := shared.SiteID(stringField(msg.Body, "destination_site"))
	if pkg == "" || origin == "" || destination == "" {
		return
	}
	t.enqueueAssignment(pkg, origin, destination)

	// New work breaks the truck out of idle parking.
	if t.isSeekingIdleParking {
		t.clearSeekingFlags()
		t.clearNavigation()
	}
	if t.currentBuildingID != nil && !t.isResting && !t.isFueling && !t.isLoading && !t.isUnloading {
		t.leaveCurrentBuilding(w)
	}
}

func decodeProposal(body map[string]interface{}) proposalTerms {
	return proposalTerms{
		packageID:            shared.PackageID(stringField(body, "package_id")),
		originSite:           shared.SiteID(stringField(body, "origin_site")),
		destinationSite:      shared.SiteID(stringField(body, "destination_site")),
		size:                 intField(body, "size"),
		pickupDeadlineTick:   int64Field(body, "pickup_deadline_tick"),
		deliveryDeadlineTick: int64Field(body, "delivery_deadline_tick"),
	}
}

func stringField(body map[string]interface{}, key string) string {
	if v, ok := body[key].(string); ok {
		return v
	}
	return ""
}

func intField(body map[string]interface{}, key string) int {
	switch v := body[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
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
