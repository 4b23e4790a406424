package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mbeckers/freightsim-go/internal/application/actions"
	"github.com/mbeckers/freightsim-go/internal/application/controller"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20

	// clientBuffer bounds each client's outbound queue. A client that cannot
	// keep up is disconnected rather than blocking the fan-out.
	clientBuffer = 256
)

// Server is the transport boundary: it upgrades WebSocket clients, feeds
// their messages into the controller's action queue, and fans controller
// signals out to every connected client.
type Server struct {
	ctrl *controller.Controller

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewServer creates the transport around a controller.
func NewServer(ctrl *controller.Controller) *Server {
	return &Server{
		ctrl: ctrl,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Router builds the HTTP surface: the WebSocket endpoint, health, and
// metrics.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWS)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

// Run fans controller signals out to all clients until the context ends.
func (s *Server) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return nil
		case sig := <-s.ctrl.Signals():
			raw, err := json.Marshal(sig)
			if err != nil {
				log.Printf("encoding signal %s: %v", sig.Signal, err)
				continue
			}
			s.broadcast(raw)
		}
	}
}

func (s *Server) broadcast(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		if !c.trySend(raw) {
			// Slow consumer; drop the connection, not the simulation.
			delete(s.clients, c)
			c.close()
		}
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.close()
		delete(s.clients, c)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	go c.writePump()
	go s.readPump(c)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"tick":    s.ctrl.CurrentTick(),
		"running": s.ctrl.Running(),
	})
}

// readPump parses incoming action messages. Malformed messages and queue
// overflow yield an error signal back to the sending client only; the
// connection stays open.
func (s *Server) readPump(c *client) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		action, err := actions.Parse(raw)
		if err != nil {
			c.sendSignal(actions.NewError(actions.CodeMalformedAction, err.Error()))
			continue
		}
		if err := s.ctrl.SubmitAction(action); err != nil {
			c.sendSignal(actions.NewError(actions.CodeQueueOverflow, err.Error()))
		}
	}
}

// client is one connected WebSocket peer.
type client struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

// close shuts the outbound queue exactly once and tears down the connection.
// Every drop path funnels through here so no sender can hit a closed channel.
func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	c.conn.Close()
}

// trySend queues a frame, reporting false when the client is closed or its
// buffer is full.
func (c *client) trySend(raw []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- raw:
		return true
	default:
		return false
	}
}

func (c *client) sendSignal(sig actions.Signal) {
	raw, err := json.Marshal(sig)
	if err != nil {
		return
	}
	c.trySend(raw)
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case raw, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
