package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/security"
	"equiprent-backend/internal/service"

	"github.com/gorilla/websocket"
)

// Chat gateway events.
const (
	EventSendMessage = "sendMessage"
	EventJoinChat    = "joinChat"
	EventLeaveChat   = "leaveChat"
	EventJoinedChat  = "joinedChat"
	EventLeftChat    = "leftChat"
	EventGetUnread   = "get_unread_count"
)

const handlerTimeout = 10 * time.Second

// Gateway upgrades authenticated requests to websocket connections.
type Gateway struct {
	hub           *Hub
	auth          service.AuthService
	notifications service.NotificationService
	chats         service.ChatService
	upgrader      websocket.Upgrader
}

func NewGateway(hub *Hub, auth service.AuthService, notifications service.NotificationService, chats service.ChatService, allowedOrigins []string) *Gateway {
	return &Gateway{
		hub:           hub,
		auth:          auth,
		notifications: notifications,
		chats:         chats,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// bearerToken reads the token from the query string or the Authorization header.
func bearerToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func (g *Gateway) connect(w http.ResponseWriter, r *http.Request, gateway string) (*Client, *domain.User, bool) {
	user, err := g.auth.Authenticate(r.Context(), bearerToken(r), security.TokenTypeAccess)
	if err != nil {
		if !errors.Is(err, domain.ErrUnauthorized) && !errors.Is(err, domain.ErrNotFound) {
			logger.Error("Websocket authentication failed", "gateway", gateway, "error", err)
			rejectHandshake(w, http.StatusInternalServerError, "internal server error")
			return nil, nil, false
		}
		rejectHandshake(w, http.StatusUnauthorized, "invalid or missing token")
		return nil, nil, false
	}
	if !user.IsApproved() {
		rejectHandshake(w, http.StatusForbidden, "account is not approved")
		return nil, nil, false
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Websocket upgrade failed", "gateway", gateway, "userID", user.ID, "error", err)
		return nil, nil, false
	}
	c := newClient(g.hub, conn, user.ID, gateway)
	g.hub.register(c)
	logger.Info("Websocket connected", "gateway", gateway, "clientID", c.id, "userID", user.ID)
	return c, user, true
}

func rejectHandshake(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"statusCode": status,
		"error":      http.StatusText(status),
		"message":    message,
	})
}

// ServeNotifications handles /ws/notifications.
func (g *Gateway) ServeNotifications(w http.ResponseWriter, r *http.Request) {
	c, user, ok := g.connect(w, r, GatewayNotifications)
	if !ok {
		return
	}
	go c.writePump()

	c.emit(service.EventConnected, map[string]any{"userId": user.ID, "clientId": c.id})
	g.sendUnread(c)

	c.readPump(func(c *Client, f Frame) {
		switch f.Event {
		case EventGetUnread:
			g.sendUnread(c)
		default:
			c.emit(service.EventError, map[string]string{"message": "unknown event " + f.Event})
		}
	})
}

func (g *Gateway) sendUnread(c *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	n, err := g.notifications.UnreadCount(ctx, c.userID)
	if err != nil {
		logger.Warn("Failed to load unread count", "userID", c.userID, "error", err)
		return
	}
	c.emit(service.EventUnreadCount, map[string]int64{"count": n})
}

type chatFrame struct {
	ChatID  int32  `json:"chatId"`
	Content string `json:"content"`
}

// ServeChat handles /ws/chat.
func (g *Gateway) ServeChat(w http.ResponseWriter, r *http.Request) {
	c, user, ok := g.connect(w, r, GatewayChat)
	if !ok {
		return
	}
	go c.writePump()

	c.emit(service.EventConnected, map[string]any{"userId": user.ID, "clientId": c.id})

	c.readPump(func(c *Client, f Frame) {
		var in chatFrame
		if len(f.Data) > 0 {
			if err := json.Unmarshal(f.Data, &in); err != nil {
				c.emit(service.EventError, map[string]string{"event": f.Event, "message": "malformed payload"})
				return
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()

		var err error
		switch f.Event {
		case EventJoinChat:
			if _, err = g.chats.Join(ctx, user, in.ChatID); err == nil {
				g.hub.join(c, service.ChatRoom(in.ChatID))
				c.emit(EventJoinedChat, map[string]int32{"chatId": in.ChatID})
			}
		case EventLeaveChat:
			g.hub.leave(c, service.ChatRoom(in.ChatID))
			c.emit(EventLeftChat, map[string]int32{"chatId": in.ChatID})
		case EventSendMessage:
			_, err = g.chats.SendMessage(ctx, user, in.ChatID, in.Content)
		default:
			err = domain.BadRequest("unknown event %s", f.Event)
		}
		if err != nil {
			msg := domain.ErrorMessage(err)
			if msg == "" {
				logger.Error("Chat event failed", "event", f.Event, "userID", user.ID, "error", err)
				msg = "internal error"
			}
			c.emit(service.EventError, map[string]string{"event": f.Event, "message": msg})
		}
	})
}
