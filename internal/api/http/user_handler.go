package http

import (
	"net/http"

	"equiprent-backend/internal/api/http/respond"
	"equiprent-backend/internal/service"
)

type UserHandler struct {
	users service.UserService
	// maxDocumentBody bounds JSON bodies carrying inline data URIs.
	maxDocumentBody int64
}

func NewUserHandler(users service.UserService, maxUploadBytes int64) *UserHandler {
	// base64 grows the payload by a third; leave room for the JSON envelope.
	return &UserHandler{users: users, maxDocumentBody: maxUploadBytes*4/3 + 4096}
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetProfile(r.Context(), currentUser(r).ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, user)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in service.ProfileInput
	if err := decodeJSON(r, &in, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	user, err := h.users.UpdateProfile(r.Context(), currentUser(r).ID, in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, user)
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var in changePasswordRequest
	if err := decodeJSON(r, &in, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.users.ChangePassword(r.Context(), currentUser(r).ID, in.OldPassword, in.NewPassword); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.NoContent(w)
}

type documentRequest struct {
	DataURI string `json:"data_uri"`
}

func (h *UserHandler) setDocument(set func(r *http.Request, dataURI string) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in documentRequest
		if err := decodeJSON(r, &in, h.maxDocumentBody); err != nil {
			respond.Error(w, r, err)
			return
		}
		out, err := set(r, in.DataURI)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, out)
	}
}

func (h *UserHandler) SetProfilePicture(w http.ResponseWriter, r *http.Request) {
	h.setDocument(func(r *http.Request, uri string) (any, error) {
		return h.users.SetProfilePicture(r.Context(), currentUser(r).ID, uri)
	})(w, r)
}

func (h *UserHandler) UploadBIDocument(w http.ResponseWriter, r *http.Request) {
	h.setDocument(func(r *http.Request, uri string) (any, error) {
		return h.users.UploadBIDocument(r.Context(), currentUser(r).ID, uri)
	})(w, r)
}

func (h *UserHandler) UploadCompanyDocuments(w http.ResponseWriter, r *http.Request) {
	h.setDocument(func(r *http.Request, uri string) (any, error) {
		return h.users.UploadCompanyDocuments(r.Context(), currentUser(r).ID, uri)
	})(w, r)
}

func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.users.DeleteAccount(r.Context(), currentUser(r).ID); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.NoContent(w)
}
