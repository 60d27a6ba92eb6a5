package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vaultgraph/vaultgraph/internal/layout"
	"github.com/vaultgraph/vaultgraph/internal/view"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsMessage is the envelope for both directions of the socket.
//
// Server → client: type "graph" with the snapshot.
// Client → server: type "config" (partial), "highlight" (ids), or
// "positions" (physics write-back).
type wsMessage struct {
	Type      string                     `json:"type"`
	Graph     *view.Snapshot             `json:"graph,omitempty"`
	Config    *view.Partial              `json:"config,omitempty"`
	IDs       []string                   `json:"ids,omitempty"`
	Positions map[string]layout.Position `json:"positions,omitempty"`
	Error     string                     `json:"error,omitempty"`
}

// hub tracks connected frontend clients and fans snapshots out to them.
type hub struct {
	log *zap.Logger

	mu      sync.Mutex
	clients map[string]*websocket.Conn
}

func newHub(logger *zap.Logger) *hub {
	return &hub{
		log:     logger.Named("ws"),
		clients: make(map[string]*websocket.Conn),
	}
}

func (h *hub) add(conn *websocket.Conn) string {
	id := uuid.New().String()
	h.mu.Lock()
	h.clients[id] = conn
	h.mu.Unlock()
	return id
}

func (h *hub) remove(id string) {
	h.mu.Lock()
	delete(h.clients, id)
	h.mu.Unlock()
}

// send writes one message to one client, serialized with broadcasts so a
// connection never sees concurrent writers.
func (h *hub) send(conn *websocket.Conn, msg wsMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("marshalling message", zap.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		h.log.Debug("websocket write", zap.Error(err))
	}
}

// broadcast sends a message to every connected client. Write failures drop
// the client; its read loop will notice and clean up.
func (h *hub) broadcast(msg wsMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("marshalling broadcast", zap.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Debug("dropping client", zap.String("client", id), zap.Error(err))
			conn.Close()
			delete(h.clients, id)
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.clients {
		conn.Close()
		delete(h.clients, id)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	id := s.hub.add(conn)
	defer func() {
		s.hub.remove(id)
		conn.Close()
	}()

	s.log.Debug("client connected", zap.String("client", id))

	// Send the current snapshot immediately so a reconnecting frontend does
	// not wait for the next update cycle.
	s.hub.send(conn, wsMessage{Type: "graph", Graph: snapshotPtr(s.controller.Snapshot())})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("websocket read", zap.String("client", id), zap.Error(err))
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.hub.send(conn, wsMessage{Type: "error", Error: "invalid message format"})
			continue
		}

		switch msg.Type {
		case "config":
			if msg.Config == nil {
				s.hub.send(conn, wsMessage{Type: "error", Error: "config payload required"})
				continue
			}
			// Result (or dropped trigger) is broadcast by the controller
			// callback; nothing to send directly.
			if _, err := s.controller.ApplyConfig(r.Context(), *msg.Config); err != nil {
				s.log.Debug("ws config update", zap.String("client", id), zap.Error(err))
			}
		case "highlight":
			s.controller.SetHighlight(msg.IDs)
		case "positions":
			s.controller.SetPositions(msg.Positions)
		default:
			s.hub.send(conn, wsMessage{Type: "error", Error: "unknown message type: " + msg.Type})
		}
	}
}

func snapshotPtr(snap view.Snapshot) *view.Snapshot { return &snap }
