package http

import (
	"net/http"
	"strings"

	"equiprent-backend/internal/api/http/respond"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/service"

	"github.com/gorilla/mux"
)

type AdminHandler struct {
	admin    service.AdminService
	stats    service.StatsService
	settings service.SystemConfigService
}

func NewAdminHandler(admin service.AdminService, stats service.StatsService, settings service.SystemConfigService) *AdminHandler {
	return &AdminHandler{admin: admin, stats: stats, settings: settings}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	q := r.URL.Query()
	filter := domain.UserFilter{
		Role:           domain.Role(strings.ToUpper(q.Get("role"))),
		UserType:       domain.UserType(strings.ToUpper(q.Get("user_type"))),
		AccountStatus:  domain.AccountStatus(strings.ToUpper(q.Get("account_status"))),
		Search:         strings.TrimSpace(q.Get("search")),
		IncludeDeleted: queryBool(r, "include_deleted"),
	}
	users, total, err := h.admin.ListUsers(r.Context(), currentUser(r), filter, page, limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, respond.NewPage(users, total, page, limit))
}

func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	user, err := h.admin.GetUser(r.Context(), currentUser(r), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, user)
}

func (h *AdminHandler) ListPendingLandlords(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	users, total, err := h.admin.ListPendingLandlords(r.Context(), currentUser(r), page, limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, respond.NewPage(users, total, page, limit))
}

type landlordDecision struct {
	Status domain.AccountStatus `json:"status"`
	Reason string               `json:"reason"`
}

func (h *AdminHandler) ValidateLandlord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var in landlordDecision
	if err := decodeJSON(r, &in, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	user, err := h.admin.ValidateLandlord(r.Context(), currentUser(r), id, domain.AccountStatus(strings.ToUpper(string(in.Status))), in.Reason)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, user)
}

type biDecision struct {
	Valid *bool `json:"valid"`
}

func (h *AdminHandler) ValidateBIDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var in biDecision
	if err := decodeJSON(r, &in, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	if in.Valid == nil {
		respond.Message(w, http.StatusBadRequest, "valid is required")
		return
	}
	user, err := h.admin.ValidateBIDocument(r.Context(), currentUser(r), id, *in.Valid)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, user)
}

type roleChange struct {
	Role domain.Role `json:"role"`
}

func (h *AdminHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var in roleChange
	if err := decodeJSON(r, &in, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	user, err := h.admin.ChangeUserRole(r.Context(), currentUser(r), id, domain.Role(strings.ToUpper(string(in.Role))))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, user)
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.admin.DeleteUser(r.Context(), currentUser(r), id); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.NoContent(w)
}

func (h *AdminHandler) RestoreUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.admin.RestoreUser(r.Context(), currentUser(r), id); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Message(w, http.StatusOK, "user restored")
}

func (h *AdminHandler) ValidatePaymentReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	approve, reason, err := decodeReceiptDecision(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	rental, err := h.admin.ValidatePaymentReceipt(r.Context(), currentUser(r), id, approve, reason)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, rental)
}

func (h *AdminHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var in service.BroadcastInput
	if err := decodeJSON(r, &in, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	sent, err := h.admin.BroadcastNotification(r.Context(), currentUser(r), in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, map[string]int{"recipients": sent})
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Admin(r.Context(), currentUser(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, stats)
}

func (h *AdminHandler) LandlordStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Landlord(r.Context(), currentUser(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, stats)
}

// Settings

func (h *AdminHandler) ListSettings(w http.ResponseWriter, r *http.Request) {
	items, err := h.settings.List(r.Context(), currentUser(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, items)
}

func (h *AdminHandler) GetSetting(w http.ResponseWriter, r *http.Request) {
	item, err := h.settings.Get(r.Context(), currentUser(r), mux.Vars(r)["key"])
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, item)
}

type settingRequest struct {
	Value       string `json:"value"`
	Description string `json:"description"`
}

func (h *AdminHandler) SetSetting(w http.ResponseWriter, r *http.Request) {
	var in settingRequest
	if err := decodeJSON(r, &in, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	item, err := h.settings.Set(r.Context(), currentUser(r), mux.Vars(r)["key"], in.Value, in.Description)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, item)
}
