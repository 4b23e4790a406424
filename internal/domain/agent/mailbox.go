package agent

import "github.com/mbeckers/freightsim-go/internal/domain/shared"

// TopicsTag is the tags key carrying an agent's topic subscriptions.
const TopicsTag = "topics"

// Mailbox holds an agent's inbox, outbox, and free-form tags. The inbox is
// drained during the agent's decide phase; the outbox is drained by the
// world's delivery phase.
type Mailbox struct {
	inbox  []Message
	outbox []Message
	tags   map[string]interface{}
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{tags: make(map[string]interface{})}
}

// Push appends a message to the inbox.
func (m *Mailbox) Push(msg Message) {
	m.inbox = append(m.inbox, msg)
}

// DrainInbox returns all pending inbox messages and clears the inbox.
func (m *Mailbox) DrainInbox() []Message {
	msgs := m.inbox
	m.inbox = nil
	return msgs
}

// Send queues a message for the next delivery phase.
func (m *Mailbox) Send(msg Message) {
	m.outbox = append(m.outbox, msg)
}

// DrainOutbox returns all queued outgoing messages and clears the outbox.
func (m *Mailbox) DrainOutbox() []Message {
	msgs := m.outbox
	m.outbox = nil
	return msgs
}

// PendingInbox returns the number of undelivered inbox messages.
func (m *Mailbox) PendingInbox() int { return len(m.inbox) }

// PendingOutbox returns the number of unsent outbox messages.
func (m *Mailbox) PendingOutbox() int { return len(m.outbox) }

// Tags returns the agent's tag map.
func (m *Mailbox) Tags() map[string]interface{} { return m.tags }

// Subscribe adds a topic subscription to the tags.
func (m *Mailbox) Subscribe(topic string) {
	topics := m.Subscriptions()
	for _, t := range topics {
		if t == topic {
			return
		}
	}
	m.tags[TopicsTag] = append(topics, topic)
}

// Subscriptions lists the topics the agent listens to.
func (m *Mailbox) Subscriptions() []string {
	raw, ok := m.tags[TopicsTag]
	if !ok {
		return nil
	}
	topics, ok := raw.([]string)
	if !ok {
		return nil
	}
	return topics
}

// SubscribedTo reports whether the agent listens to the topic.
func (m *Mailbox) SubscribedTo(topic string) bool {
	for _, t := range m.Subscriptions() {
		if t == topic {
			return true
		}
	}
	return false
}

// Base carries the identity and mailbox every agent variant embeds.
type Base struct {
	id      shared.AgentID
	kind    string
	mailbox *Mailbox
}

// NewBase creates the shared agent core.
func NewBase(id shared.AgentID, kind string) Base {
	return Base{id: id, kind: kind, mailbox: NewMailbox()}
}

// ID returns the agent's identifier.
func (b *Base) ID() shared.AgentID { return b.id }

// Kind returns the agent's variant discriminator.
func (b *Base) Kind() string { return b.kind }

// Mailbox returns the agent's mailbox for the world's delivery phase.
func (b *Base) Mailbox() *Mailbox { return b.mailbox }
