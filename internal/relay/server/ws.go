package server

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"veilchat/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// Hub tracks open websocket connections per username and pushes new
// envelopes to the recipient's connections as they arrive. Delivery is
// best effort; clients always reconcile via GET /messages.
type Hub struct {
	log *zap.Logger

	mu    sync.Mutex
	conns map[string][]*websocket.Conn
}

func newHub(log *zap.Logger) *Hub {
	return &Hub{log: log, conns: make(map[string][]*websocket.Conn)}
}

func (h *Hub) add(username string, c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[username] = append(h.conns[username], c)
}

func (h *Hub) remove(username string, c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.conns[username]
	for i, other := range conns {
		if other == c {
			h.conns[username] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.conns[username]) == 0 {
		delete(h.conns, username)
	}
}

// Notify pushes env to every open connection of the recipient. Dead
// connections are dropped from the hub.
func (h *Hub) Notify(username string, env domain.Envelope) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, len(h.conns[username]))
	copy(conns, h.conns[username])
	h.mu.Unlock()

	for _, c := range conns {
		if err := c.WriteJSON(env); err != nil {
			h.log.Debug("websocket push failed", zap.String("username", username), zap.Error(err))
			c.Close()
			h.remove(username, c)
		}
	}
}

// handleWS upgrades an authenticated request and parks the connection in
// the hub until the peer goes away.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	me := usernameFrom(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade", zap.Error(err))
		return
	}
	s.hub.add(me, conn)
	s.log.Info("websocket connected", zap.String("username", me))

	go func() {
		defer func() {
			s.hub.remove(me, conn)
			conn.Close()
			s.log.Info("websocket disconnected", zap.String("username", me))
		}()
		// The client never sends application data; reading just
		// detects close and keeps control frames flowing.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
