package http

import (
	"net/http"

	"equiprent-backend/internal/api/http/respond"
	"equiprent-backend/internal/service"
)

type NotificationHandler struct {
	notifications service.NotificationService
}

func NewNotificationHandler(notifications service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	items, total, err := h.notifications.List(r.Context(), currentUser(r).ID, queryBool(r, "unread"), page, limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, respond.NewPage(items, total, page, limit))
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.notifications.UnreadCount(r.Context(), currentUser(r).ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, map[string]int64{"count": count})
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.notifications.MarkAsRead(r.Context(), currentUser(r).ID, id); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.NoContent(w)
}

func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.notifications.MarkAllAsRead(r.Context(), currentUser(r).ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, map[string]int64{"updated": n})
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.notifications.Delete(r.Context(), currentUser(r).ID, id); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.NoContent(w)
}
