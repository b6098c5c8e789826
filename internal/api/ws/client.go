package ws

import (
	"encoding/json"
	"time"

	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBuffer     = 64
)

// Gateway names, also used as metric labels.
const (
	GatewayNotifications = "notifications"
	GatewayChat          = "chat"
)

// Client is one websocket connection. rooms is guarded by the hub lock.
type Client struct {
	id      string
	userID  int32
	gateway string
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	rooms   map[string]struct{}
}

func newClient(hub *Hub, conn *websocket.Conn, userID int32, gateway string) *Client {
	return &Client{
		id:      uuid.NewString(),
		userID:  userID,
		gateway: gateway,
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		rooms:   make(map[string]struct{}),
	}
}

// enqueue must be called with the hub lock held. Slow clients drop messages
// rather than block the pusher.
func (c *Client) enqueue(msg []byte, event string) {
	select {
	case c.send <- msg:
		metrics.WSEventSent(event)
	default:
		logger.Warn("Websocket send buffer full, dropping event", "clientID", c.id, "userID", c.userID, "event", event)
	}
}

// emit queues a frame for this client only.
func (c *Client) emit(event string, data any) {
	msg, ok := encode(event, data)
	if !ok {
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, registered := c.hub.clients[c]; registered {
		c.enqueue(msg, event)
	}
}

// readPump dispatches inbound frames until the connection fails.
func (c *Client) readPump(handle func(*Client, Frame)) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("Websocket closed unexpectedly", "clientID", c.id, "error", err)
			}
			return
		}
		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil || frame.Event == "" {
			c.emit("error", map[string]string{"message": "malformed frame"})
			continue
		}
		handle(c, frame)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
