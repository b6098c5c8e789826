package http

import (
	"net/http"
	"strconv"
	"strings"

	"equiprent-backend/internal/api/http/respond"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/service"

	"github.com/shopspring/decimal"
)

type EquipmentHandler struct {
	equipment  service.EquipmentService
	edits      service.EquipmentEditService
	moderation service.ModerationService
}

func NewEquipmentHandler(equipment service.EquipmentService, edits service.EquipmentEditService, moderation service.ModerationService) *EquipmentHandler {
	return &EquipmentHandler{equipment: equipment, edits: edits, moderation: moderation}
}

// parseFilter reads the search query string.
func parseFilter(r *http.Request) (domain.EquipmentFilter, error) {
	q := r.URL.Query()
	f := domain.EquipmentFilter{
		Query:         strings.TrimSpace(q.Get("q")),
		PricePeriod:   domain.PricePeriod(strings.ToUpper(q.Get("price_period"))),
		Province:      strings.TrimSpace(q.Get("province")),
		City:          strings.TrimSpace(q.Get("city")),
		AvailableOnly: queryBool(r, "available_only"),
	}

	var err error
	if f.CategoryID, err = queryInt32(r, "category_id"); err != nil {
		return f, err
	}
	for name, dst := range map[string]**decimal.Decimal{"min_rate": &f.MinRate, "max_rate": &f.MaxRate} {
		if raw := q.Get(name); raw != "" {
			d, err := decimal.NewFromString(raw)
			if err != nil {
				return f, domain.BadRequest("invalid %s", name)
			}
			*dst = &d
		}
	}

	lat, lon := q.Get("lat"), q.Get("lon")
	if lat != "" || lon != "" {
		la, errLat := strconv.ParseFloat(lat, 64)
		lo, errLon := strconv.ParseFloat(lon, 64)
		if errLat != nil || errLon != nil {
			return f, domain.BadRequest("lat and lon must both be valid numbers")
		}
		f.Near = &domain.GeoPoint{Latitude: la, Longitude: lo}
		if raw := q.Get("radius_km"); raw != "" {
			if f.RadiusKm, err = strconv.ParseFloat(raw, 64); err != nil {
				return f, domain.BadRequest("invalid radius_km")
			}
		}
	}
	return f, nil
}

func (h *EquipmentHandler) Search(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	page, limit, err := pageParams(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	items, total, err := h.equipment.Search(r.Context(), filter, page, limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, respond.NewPage(items, total, page, limit))
}

func (h *EquipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	eq, err := h.equipment.Get(r.Context(), currentUser(r), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, eq)
}

func (h *EquipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.EquipmentInput
	if err := decodeJSON(r, &in, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	eq, err := h.equipment.Create(r.Context(), currentUser(r), in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Created(w, eq)
}

func (h *EquipmentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	items, total, err := h.equipment.ListMine(r.Context(), currentUser(r), page, limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, respond.NewPage(items, total, page, limit))
}

func (h *EquipmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var patch domain.EquipmentEdit
	if err := decodeJSON(r, &patch, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	eq, err := h.equipment.Update(r.Context(), currentUser(r), id, &patch)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, eq)
}

type availabilityRequest struct {
	Available *bool `json:"available"`
}

func (h *EquipmentHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var in availabilityRequest
	if err := decodeJSON(r, &in, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	if in.Available == nil {
		respond.Message(w, http.StatusBadRequest, "available is required")
		return
	}
	eq, err := h.equipment.SetAvailability(r.Context(), currentUser(r), id, *in.Available)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, eq)
}

func (h *EquipmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.equipment.Delete(r.Context(), currentUser(r), id); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.NoContent(w)
}

// Edits

func (h *EquipmentHandler) SubmitEdit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var diff domain.EquipmentEdit
	if err := decodeJSON(r, &diff, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	edit, err := h.edits.Submit(r.Context(), currentUser(r), id, &diff)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Created(w, edit)
}

func (h *EquipmentHandler) GetEdit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	edit, err := h.edits.Get(r.Context(), currentUser(r), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, edit)
}

func (h *EquipmentHandler) ListMyEdits(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	items, total, err := h.edits.ListMine(r.Context(), currentUser(r), page, limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, respond.NewPage(items, total, page, limit))
}

// Moderation

func (h *EquipmentHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	items, total, err := h.moderation.ListPending(r.Context(), currentUser(r), page, limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, respond.NewPage(items, total, page, limit))
}

func (h *EquipmentHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	eq, err := h.moderation.Approve(r.Context(), currentUser(r), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, eq)
}

func (h *EquipmentHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	reason, err := optionalReason(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	eq, err := h.moderation.Reject(r.Context(), currentUser(r), id, reason)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, eq)
}

func (h *EquipmentHandler) ModerationStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.moderation.Stats(r.Context(), currentUser(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, stats)
}

func (h *EquipmentHandler) ListPendingEdits(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	items, total, err := h.edits.ListPending(r.Context(), currentUser(r), page, limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, respond.NewPage(items, total, page, limit))
}

type editDecisionResponse struct {
	Edit      *domain.EquipmentEdit `json:"edit"`
	Equipment *domain.Equipment     `json:"equipment,omitempty"`
}

func (h *EquipmentHandler) ApproveEdit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	edit, eq, err := h.edits.Approve(r.Context(), currentUser(r), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, editDecisionResponse{Edit: edit, Equipment: eq})
}

func (h *EquipmentHandler) RejectEdit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	reason, err := optionalReason(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	edit, err := h.edits.Reject(r.Context(), currentUser(r), id, reason)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, editDecisionResponse{Edit: edit})
}
