// Package ws serves the realtime websocket gateways and the hub that routes
// pushes to connected sockets.
package ws

import (
	"encoding/json"
	"sync"

	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/metrics"
)

// Frame is the envelope of every message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hub tracks connected clients. User-addressed pushes reach notification
// sockets; room pushes reach the sockets that joined the room.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	byUser  map[int32]map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		byUser:  make(map[int32]map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	if c.gateway == GatewayNotifications {
		set, ok := h.byUser[c.userID]
		if !ok {
			set = make(map[*Client]struct{})
			h.byUser[c.userID] = set
		}
		set[c] = struct{}{}
	}
	metrics.WSConnected(c.gateway, 1)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	if set, ok := h.byUser[c.userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.byUser, c.userID)
		}
	}
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	close(c.send)
	metrics.WSConnected(c.gateway, -1)
}

func (h *Hub) join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	set, ok := h.rooms[room]
	if !ok {
		set = make(map[*Client]struct{})
		h.rooms[room] = set
	}
	set[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

func (h *Hub) leaveLocked(c *Client, room string) {
	delete(c.rooms, room)
	if set, ok := h.rooms[room]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Online reports whether the user has at least one notification socket.
func (h *Hub) Online(userID int32) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID]) > 0
}

func (h *Hub) PushToUser(userID int32, event string, data any) {
	h.PushToUsers([]int32{userID}, event, data)
}

func (h *Hub) PushToUsers(userIDs []int32, event string, data any) {
	msg, ok := encode(event, data)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range userIDs {
		for c := range h.byUser[id] {
			c.enqueue(msg, event)
		}
	}
}

func (h *Hub) PushToRoom(room string, event string, data any) {
	msg, ok := encode(event, data)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		c.enqueue(msg, event)
	}
}

// Broadcast reaches every notification socket.
func (h *Hub) Broadcast(event string, data any) {
	msg, ok := encode(event, data)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, set := range h.byUser {
		for c := range set {
			c.enqueue(msg, event)
		}
	}
}

func encode(event string, data any) ([]byte, bool) {
	raw, err := json.Marshal(data)
	if err != nil {
		logger.Warn("Failed to encode realtime payload", "event", event, "error", err)
		return nil, false
	}
	msg, err := json.Marshal(Frame{Event: event, Data: raw})
	if err != nil {
		logger.Warn("Failed to encode realtime frame", "event", event, "error", err)
		return nil, false
	}
	return msg, true
}
