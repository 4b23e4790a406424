package agent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbeckers/freightsim-go/internal/domain/agent"
)

func TestDrainInboxClearsPendingMessages(t *testing.T) {
	// Arrange
	m := agent.NewMailbox()
	m.Push(agent.Message{Src: "a", Dst: "b", Type: "ping"})
	m.Push(agent.Message{Src: "a", Dst: "b", Type: "pong"})

	// Act
	msgs := m.DrainInbox()

	// Assert
	require.Len(t, msgs, 2)
	assert.Equal(t, "ping", msgs[0].Type)
	assert.Equal(t, "pong", msgs[1].Type)
	assert.Zero(t, m.PendingInbox())
	assert.Empty(t, m.DrainInbox())
}

func TestOutboxIsSeparateFromInbox(t *testing.T) {
	// Arrange
	m := agent.NewMailbox()
	m.Send(agent.Message{Src: "a", Dst: "b", Type: "request"})

	// Assert
	assert.Zero(t, m.PendingInbox())
	assert.Equal(t, 1, m.PendingOutbox())
	assert.Len(t, m.DrainOutbox(), 1)
	assert.Zero(t, m.PendingOutbox())
}

func TestSubscriptionsDeduplicate(t *testing.T) {
	// Arrange
	m := agent.NewMailbox()

	// Act
	m.Subscribe("fuel")
	m.Subscribe("fuel")
	m.Subscribe("traffic")

	// Assert
	assert.Equal(t, []string{"fuel", "traffic"}, m.Subscriptions())
	assert.True(t, m.SubscribedTo("fuel"))
	assert.False(t, m.SubscribedTo("weather"))
}

func TestBroadcastDetection(t *testing.T) {
	assert.True(t, agent.Message{Topic: "fuel"}.Broadcast())
	assert.False(t, agent.Message{Dst: "b", Topic: "fuel"}.Broadcast())
	assert.False(t, agent.Message{Dst: "b"}.Broadcast())
}
