package http

import (
	"net/http"
	"strings"

	"equiprent-backend/internal/api/http/respond"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/service"
)

type MarketplaceHandler struct {
	favorites service.FavoriteService
	cart      service.CartService
	reviews   service.ReviewService
	reports   service.ReportService
}

func NewMarketplaceHandler(favorites service.FavoriteService, cart service.CartService, reviews service.ReviewService, reports service.ReportService) *MarketplaceHandler {
	return &MarketplaceHandler{favorites: favorites, cart: cart, reviews: reviews, reports: reports}
}

// Favorites

func (h *MarketplaceHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	items, total, err := h.favorites.List(r.Context(), currentUser(r), page, limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, respond.NewPage(items, total, page, limit))
}

func (h *MarketplaceHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	fav, err := h.favorites.Add(r.Context(), currentUser(r), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Created(w, fav)
}

func (h *MarketplaceHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.favorites.Remove(r.Context(), currentUser(r), id); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.NoContent(w)
}

func (h *MarketplaceHandler) IsFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	ok, err := h.favorites.IsFavorite(r.Context(), currentUser(r), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, map[string]bool{"favorite": ok})
}

// Cart

func (h *MarketplaceHandler) ListCart(w http.ResponseWriter, r *http.Request) {
	items, err := h.cart.List(r.Context(), currentUser(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if items == nil {
		items = []domain.CartItem{}
	}
	respond.OK(w, items)
}

func (h *MarketplaceHandler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var in service.CartItemInput
	if err := decodeJSON(r, &in, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	item, err := h.cart.AddItem(r.Context(), currentUser(r), in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Created(w, item)
}

func (h *MarketplaceHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var in service.CartItemInput
	if err := decodeJSON(r, &in, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	item, err := h.cart.UpdateItem(r.Context(), currentUser(r), id, in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, item)
}

func (h *MarketplaceHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.cart.RemoveItem(r.Context(), currentUser(r), id); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.NoContent(w)
}

func (h *MarketplaceHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.Clear(r.Context(), currentUser(r)); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.NoContent(w)
}

type checkoutRequest struct {
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
}

func (h *MarketplaceHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var in checkoutRequest
	if err := decodeJSON(r, &in, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	result, err := h.cart.Checkout(r.Context(), currentUser(r), domain.PaymentMethod(strings.ToUpper(string(in.PaymentMethod))))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, result)
}

// Reviews

type reviewRequest struct {
	RentalID int32  `json:"rental_id"`
	Rating   int16  `json:"rating"`
	Comment  string `json:"comment"`
}

func (h *MarketplaceHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var in reviewRequest
	if err := decodeJSON(r, &in, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	review, err := h.reviews.Create(r.Context(), currentUser(r), in.RentalID, in.Rating, in.Comment)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Created(w, review)
}

type reviewPage struct {
	respond.Page[domain.Review]
	AverageRating float64 `json:"average_rating"`
}

func (h *MarketplaceHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
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
	items, total, avg, err := h.reviews.ListByEquipment(r.Context(), id, page, limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, reviewPage{Page: respond.NewPage(items, total, page, limit), AverageRating: avg})
}

func (h *MarketplaceHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.reviews.Delete(r.Context(), currentUser(r), id); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.NoContent(w)
}

// Reports

func (h *MarketplaceHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var in domain.Report
	if err := decodeJSON(r, &in, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	report, err := h.reports.Create(r.Context(), currentUser(r), &in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Created(w, report)
}

func (h *MarketplaceHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	status := domain.ReportStatus(strings.ToUpper(r.URL.Query().Get("status")))
	items, total, err := h.reports.List(r.Context(), currentUser(r), status, page, limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, respond.NewPage(items, total, page, limit))
}

type resolveReportRequest struct {
	Status domain.ReportStatus `json:"status"`
	Note   string              `json:"note"`
}

func (h *MarketplaceHandler) ResolveReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var in resolveReportRequest
	if err := decodeJSON(r, &in, 0); err != nil {
		respond.Error(w, r, err)
		return
	}
	report, err := h.reports.Resolve(r.Context(), currentUser(r), id, domain.ReportStatus(strings.ToUpper(string(in.Status))), in.Note)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, report)
}
