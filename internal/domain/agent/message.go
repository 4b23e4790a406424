package agent

import "github.com/mbeckers/freightsim-go/internal/domain/shared"

// Message is the unit of agent-to-agent communication. A message is addressed
// either to a single recipient (Dst) or to every agent subscribed to a topic.
// Messages written to an outbox on tick N reach inboxes during the delivery
// phase of tick N+1; same-tick delivery never happens.
type Message struct {
	Src   shared.AgentID
	Dst   shared.AgentID
	Topic string
	Type  string
	Body  map[string]interface{}
}

// Broadcast reports whether the message targets a topic instead of a single
// recipient.
func (m Message) Broadcast() bool {
	return m.Dst == "" && m.Topic != ""
}

// Message types exchanged between trucks and the broker.
const (
	TypeProposal            = "proposal"
	TypeProposalAccept      = "accept"
	TypeProposalReject      = "reject"
	TypeAssignmentConfirmed = "assignment_confirmed"
	TypePickupConfirmed     = "pickup_confirmed"
	TypeDeliveryConfirmed   = "delivery_confirmed"
)
