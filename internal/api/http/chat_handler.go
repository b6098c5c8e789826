package http

import (
	"net/http"

	"equiprent-backend/internal/api/http/respond"
	"equiprent-backend/internal/service"
)

// ChatHandler is the REST side of chats. Live delivery goes through the
// chat websocket gateway.
type ChatHandler struct {
	chats service.ChatService
}

func NewChatHandler(chats service.ChatService) *ChatHandler {
	return &ChatHandler{chats: chats}
}

type openChatRequest struct {
	UserID      int32  `json:"user_id"`
	EquipmentID *int32 `json:"equipment_id"`
}

func (h *ChatHandler) Open(w http.ResponseWriter, r *http.Request) {
	var in openChatRequest
	if err := decodeJSON(r, &in, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	chat, err := h.chats.Open(r.Context(), currentUser(r), in.UserID, in.EquipmentID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, chat)
}

func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	items, total, err := h.chats.ListChats(r.Context(), currentUser(r), page, limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, respond.NewPage(items, total, page, limit))
}

func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	page, limit, err := pageParams(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	items, total, err := h.chats.ListMessages(r.Context(), currentUser(r), id, page, limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, respond.NewPage(items, total, page, limit))
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var in sendMessageRequest
	if err := decodeJSON(r, &in, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	msg, err := h.chats.SendMessage(r.Context(), currentUser(r), id, in.Content)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Created(w, msg)
}

func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	n, err := h.chats.MarkRead(r.Context(), currentUser(r), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, map[string]int64{"updated": n})
}
