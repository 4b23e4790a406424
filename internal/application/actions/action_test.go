package actions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbeckers/freightsim-go/internal/application/actions"
)

func TestParseAcceptsWellFormedActions(t *testing.T) {
	// Arrange
	raw := []byte(`{"action": "tick_rate.update", "params": {"tick_rate": 4}}`)

	// Act
	a, err := actions.Parse(raw)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, actions.TickRateUpdate, a.Action)
	assert.InDelta(t, 4.0, a.Params["tick_rate"].(float64), 1e-9)
}

func TestParseNormalizesMissingParams(t *testing.T) {
	// Arrange
	raw := []byte(`{"action": "simulation.start"}`)

	// Act
	a, err := actions.Parse(raw)

	// Assert
	require.NoError(t, err)
	assert.NotNil(t, a.Params)
	assert.Empty(t, a.Params)
}

func TestParseRejectsMalformedInput(t *testing.T) {
	for _, raw := range []string{
		`{not json`,
		`{"action": ""}`,
		`{"action": "noDot"}`,
		`{"action": "Upper.case"}`,
		`{"action": "too.many.parts"}`,
		`{"action": "spaced name.start"}`,
	} {
		_, err := actions.Parse([]byte(raw))
		assert.Error(t, err, "input %s", raw)
	}
}

func TestDecodeParamsValidatesTickRate(t *testing.T) {
	// Arrange
	var params actions.TickRateParams

	// Act / Assert
	require.NoError(t, actions.DecodeParams(map[string]interface{}{"tick_rate": 2.5}, &params))
	assert.InDelta(t, 2.5, params.TickRate, 1e-9)

	assert.Error(t, actions.DecodeParams(map[string]interface{}{"tick_rate": 0}, &actions.TickRateParams{}))
	assert.Error(t, actions.DecodeParams(map[string]interface{}{"tick_rate": -1}, &actions.TickRateParams{}))
	assert.Error(t, actions.DecodeParams(map[string]interface{}{"tick_rate": 5000}, &actions.TickRateParams{}))
}

func TestDecodeParamsRequiresNodeForAgentCreate(t *testing.T) {
	// Arrange
	var params actions.AgentCreateParams

	// Act
	err := actions.DecodeParams(map[string]interface{}{"type": "truck"}, &params)

	// Assert
	assert.Error(t, err)

	// node_id 0 is a valid node, so the pointer form must accept it.
	require.NoError(t, actions.DecodeParams(map[string]interface{}{"type": "truck", "node_id": 0}, &params))
	require.NotNil(t, params.NodeID)
	assert.Zero(t, *params.NodeID)
}

func TestDecodeParamsRejectsUnknownAgentType(t *testing.T) {
	// Arrange
	var params actions.AgentCreateParams

	// Act
	err := actions.DecodeParams(map[string]interface{}{"type": "drone", "node_id": 0}, &params)

	// Assert
	assert.Error(t, err)
}

func TestStateLoadFileParamsRequireExactlyOneSource(t *testing.T) {
	assert.Error(t, actions.StateLoadFileParams{}.Validate())
	assert.Error(t, actions.StateLoadFileParams{Path: "a.json", DataBase64: "Zm9v"}.Validate())
	assert.NoError(t, actions.StateLoadFileParams{Path: "a.json"}.Validate())
	assert.NoError(t, actions.StateLoadFileParams{DataBase64: "Zm9v"}.Validate())
}
