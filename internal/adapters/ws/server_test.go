package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbeckers/freightsim-go/internal/adapters/ws"
	"github.com/mbeckers/freightsim-go/internal/application/actions"
	"github.com/mbeckers/freightsim-go/internal/application/controller"
	"github.com/mbeckers/freightsim-go/test/helpers"
)

func startServer(t *testing.T) (*httptest.Server, *ws.Server) {
	t.Helper()
	g := helpers.NewLineGraph(t, 2, 1000, 50)
	helpers.AttachSite(t, g, 0, "site-a", 0)
	helpers.AttachSite(t, g, 1, "site-b", 0)
	w := controller.BuildWorld(g, 60, 1)
	ctrl := controller.New(w, controller.Options{TickRate: 100, Seed: 1})

	server := ws.NewServer(ctrl)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go ctrl.Run(ctx)
	go server.Run(ctx)

	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return ts, server
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readSignal(t *testing.T, conn *websocket.Conn) actions.Signal {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var sig actions.Signal
	require.NoError(t, json.Unmarshal(raw, &sig))
	return sig
}

func TestMalformedActionGetsAnErrorReply(t *testing.T) {
	// Arrange
	ts, _ := startServer(t)
	conn := dial(t, ts)

	// Act
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{broken`)))

	// Assert
	sig := readSignal(t, conn)
	assert.Equal(t, actions.SignalError, sig.Signal)
	assert.Equal(t, actions.CodeMalformedAction, sig.Data["code"])
}

func TestActionSignalsAreBroadcastToClients(t *testing.T) {
	// Arrange
	ts, _ := startServer(t)
	conn := dial(t, ts)

	// Act
	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"action": "state.request"}`)))

	// Assert: the snapshot bracket comes back over the socket.
	sig := readSignal(t, conn)
	assert.Equal(t, actions.SignalSnapshotStart, sig.Signal)
}

func TestHealthEndpointReportsStatus(t *testing.T) {
	// Arrange
	ts, _ := startServer(t)

	// Act
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	// Assert
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["running"])
}

func TestMetricsEndpointIsWired(t *testing.T) {
	// Arrange
	ts, _ := startServer(t)

	// Act
	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	// Assert
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
