package http

import (
	"net/http"
	"strings"

	"equiprent-backend/internal/api/http/respond"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/service"
)

type RentalHandler struct {
	rentals service.RentalService
}

func NewRentalHandler(rentals service.RentalService) *RentalHandler {
	return &RentalHandler{rentals: rentals}
}

func (h *RentalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateRentalInput
	if err := decodeJSON(r, &in, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	rental, err := h.rentals.Create(r.Context(), currentUser(r), in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Created(w, rental)
}

func (h *RentalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	rental, err := h.rentals.Get(r.Context(), currentUser(r), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, rental)
}

// ListMine serves both sides: ?as=owner lists incoming requests.
func (h *RentalHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	asOwner := strings.EqualFold(r.URL.Query().Get("as"), "owner")
	status := domain.RentalStatus(strings.ToUpper(r.URL.Query().Get("status")))
	items, total, err := h.rentals.ListMine(r.Context(), currentUser(r), asOwner, status, page, limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, respond.NewPage(items, total, page, limit))
}

func (h *RentalHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	filter := domain.RentalFilter{
		Status:        domain.RentalStatus(strings.ToUpper(r.URL.Query().Get("status"))),
		ReceiptStatus: domain.ModerationStatus(strings.ToUpper(r.URL.Query().Get("receipt_status"))),
	}
	for name, dst := range map[string]*int32{"renter_id": &filter.RenterID, "owner_id": &filter.OwnerID, "equipment_id": &filter.EquipmentID} {
		if *dst, err = queryInt32(r, name); err != nil {
			respond.Error(w, r, err)
			return
		}
	}
	items, total, err := h.rentals.ListAll(r.Context(), currentUser(r), filter, page, limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, respond.NewPage(items, total, page, limit))
}

func (h *RentalHandler) ListPendingReceipts(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	items, total, err := h.rentals.ListPendingReceipts(r.Context(), currentUser(r), page, limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, respond.NewPage(items, total, page, limit))
}

type rentalAction func(h *RentalHandler, r *http.Request, id int32) (*domain.Rental, error)

// transition adapts a status change into a handler.
func (h *RentalHandler) transition(action rentalAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		rental, err := action(h, r, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, rental)
	}
}

func (h *RentalHandler) Approve() http.HandlerFunc {
	return h.transition(func(h *RentalHandler, r *http.Request, id int32) (*domain.Rental, error) {
		return h.rentals.Approve(r.Context(), currentUser(r), id)
	})
}

func (h *RentalHandler) Reject() http.HandlerFunc {
	return h.transition(func(h *RentalHandler, r *http.Request, id int32) (*domain.Rental, error) {
		reason, err := optionalReason(r)
		if err != nil {
			return nil, err
		}
		return h.rentals.Reject(r.Context(), currentUser(r), id, reason)
	})
}

func (h *RentalHandler) Cancel() http.HandlerFunc {
	return h.transition(func(h *RentalHandler, r *http.Request, id int32) (*domain.Rental, error) {
		reason, err := optionalReason(r)
		if err != nil {
			return nil, err
		}
		return h.rentals.Cancel(r.Context(), currentUser(r), id, reason)
	})
}

func (h *RentalHandler) Activate() http.HandlerFunc {
	return h.transition(func(h *RentalHandler, r *http.Request, id int32) (*domain.Rental, error) {
		return h.rentals.Activate(r.Context(), currentUser(r), id)
	})
}

func (h *RentalHandler) Complete() http.HandlerFunc {
	return h.transition(func(h *RentalHandler, r *http.Request, id int32) (*domain.Rental, error) {
		return h.rentals.Complete(r.Context(), currentUser(r), id)
	})
}

type receiptRequest struct {
	UploadID int32 `json:"upload_id"`
}

func (h *RentalHandler) UploadReceipt() http.HandlerFunc {
	return h.transition(func(h *RentalHandler, r *http.Request, id int32) (*domain.Rental, error) {
		var in receiptRequest
		if err := decodeJSON(r, &in, 0); err != nil {
			return nil, err
		}
		return h.rentals.UploadPaymentReceipt(r.Context(), currentUser(r), id, in.UploadID)
	})
}

// receiptDecision is the body of receipt validation for both staff routes.
type receiptDecision struct {
	Approve *bool  `json:"approve"`
	Reason  string `json:"reason"`
}

func decodeReceiptDecision(r *http.Request) (bool, string, error) {
	var in receiptDecision
	if err := decodeJSON(r, &in, 0); err != nil {
		return false, "", err
	}
	if in.Approve == nil {
		return false, "", domain.BadRequest("approve is required")
	}
	return *in.Approve, in.Reason, nil
}

func (h *RentalHandler) ValidateReceipt() http.HandlerFunc {
	return h.transition(func(h *RentalHandler, r *http.Request, id int32) (*domain.Rental, error) {
		approve, reason, err := decodeReceiptDecision(r)
		if err != nil {
			return nil, err
		}
		return h.rentals.ValidatePaymentReceipt(r.Context(), currentUser(r), id, approve, reason)
	})
}
