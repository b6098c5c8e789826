package http

import (
	"net/http"

	"equiprent-backend/internal/api/http/respond"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/service"

	"github.com/gorilla/mux"
)

// CatalogHandler serves the reference data around listings: categories,
// static content pages, saved addresses and the bank accounts tenants pay into.
type CatalogHandler struct {
	categories service.CategoryService
	content    service.ContentService
	addresses  service.AddressService
	banks      service.BankInfoService
}

func NewCatalogHandler(categories service.CategoryService, content service.ContentService, addresses service.AddressService, banks service.BankInfoService) *CatalogHandler {
	return &CatalogHandler{categories: categories, content: content, addresses: addresses, banks: banks}
}

// Categories

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := h.categories.List(r.Context(), currentUser(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if items == nil {
		items = []domain.Category{}
	}
	respond.OK(w, items)
}

func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	c, err := h.categories.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, c)
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in domain.Category
	if err := decodeJSON(r, &in, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	c, err := h.categories.Create(r.Context(), currentUser(r), &in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Created(w, c)
}

func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var in domain.Category
	if err := decodeJSON(r, &in, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	c, err := h.categories.Update(r.Context(), currentUser(r), id, &in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, c)
}

func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.categories.Delete(r.Context(), currentUser(r), id); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.NoContent(w)
}

// Content

func (h *CatalogHandler) ListContent(w http.ResponseWriter, r *http.Request) {
	items, err := h.content.List(r.Context(), currentUser(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if items == nil {
		items = []domain.Content{}
	}
	respond.OK(w, items)
}

func (h *CatalogHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	c, err := h.content.Get(r.Context(), currentUser(r), mux.Vars(r)["slug"])
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, c)
}

func (h *CatalogHandler) UpsertContent(w http.ResponseWriter, r *http.Request) {
	var in domain.Content
	if err := decodeJSON(r, &in, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	in.Slug = mux.Vars(r)["slug"]
	c, err := h.content.Upsert(r.Context(), currentUser(r), &in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, c)
}

func (h *CatalogHandler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	if err := h.content.Delete(r.Context(), currentUser(r), mux.Vars(r)["slug"]); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.NoContent(w)
}

// Addresses

func (h *CatalogHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	items, err := h.addresses.List(r.Context(), currentUser(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if items == nil {
		items = []domain.Address{}
	}
	respond.OK(w, items)
}

func (h *CatalogHandler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	var in domain.Address
	if err := decodeJSON(r, &in, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	a, err := h.addresses.Create(r.Context(), currentUser(r), &in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Created(w, a)
}

func (h *CatalogHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var in domain.Address
	if err := decodeJSON(r, &in, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	a, err := h.addresses.Update(r.Context(), currentUser(r), id, &in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, a)
}

func (h *CatalogHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.addresses.Delete(r.Context(), currentUser(r), id); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.NoContent(w)
}

func (h *CatalogHandler) SetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.addresses.SetDefault(r.Context(), currentUser(r), id); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.NoContent(w)
}

// Bank info

func (h *CatalogHandler) ListActiveBanks(w http.ResponseWriter, r *http.Request) {
	items, err := h.banks.ListActive(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if items == nil {
		items = []domain.BankInfo{}
	}
	respond.OK(w, items)
}

func (h *CatalogHandler) ListAllBanks(w http.ResponseWriter, r *http.Request) {
	items, err := h.banks.ListAll(r.Context(), currentUser(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if items == nil {
		items = []domain.BankInfo{}
	}
	respond.OK(w, items)
}

func (h *CatalogHandler) CreateBank(w http.ResponseWriter, r *http.Request) {
	var in domain.BankInfo
	if err := decodeJSON(r, &in, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	b, err := h.banks.Create(r.Context(), currentUser(r), &in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Created(w, b)
}

func (h *CatalogHandler) UpdateBank(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var in domain.BankInfo
	if err := decodeJSON(r, &in, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	b, err := h.banks.Update(r.Context(), currentUser(r), id, &in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, b)
}

func (h *CatalogHandler) DeleteBank(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.banks.Delete(r.Context(), currentUser(r), id); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.NoContent(w)
}
