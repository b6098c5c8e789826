package http

import (
	"net/http"

	"equiprent-backend/internal/api/http/respond"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/service"
)

type AuthHandler struct {
	auth service.AuthService
}

func NewAuthHandler(auth service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type authResponse struct {
	User   *domain.User       `json:"user"`
	Tokens *service.TokenPair `json:"tokens"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeJSON(r, &in, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	user, tokens, err := h.auth.Register(r.Context(), in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Created(w, authResponse{User: user, Tokens: tokens})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeJSON(r, &in, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	user, tokens, err := h.auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, authResponse{User: user, Tokens: tokens})
}

// Refresh issues a new pair; the middleware already validated the refresh token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		respond.Message(w, http.StatusUnauthorized, "refresh token required")
		return
	}
	tokens, err := h.auth.IssueTokens(user)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, authResponse{User: user, Tokens: tokens})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, currentUser(r))
}
