package http

import (
	"context"
	"net/http"
	"time"

	"equiprent-backend/internal/api/http/middleware"
	"equiprent-backend/internal/api/http/respond"
	"equiprent-backend/internal/api/ws"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/metrics"

	"github.com/gorilla/mux"
)

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Handlers struct {
	Auth         *AuthHandler
	Users        *UserHandler
	Equipment    *EquipmentHandler
	Rentals      *RentalHandler
	Admin        *AdminHandler
	Notification *NotificationHandler
	Chat         *ChatHandler
	Marketplace  *MarketplaceHandler
	Catalog      *CatalogHandler
	Uploads      *UploadHandler
	Gateway      *ws.Gateway
}

// NewRouter registers every named route. Route names drive the security
// level applied by the auth middleware.
func NewRouter(h Handlers, auth *middleware.Auth, limiter *middleware.RateLimiter, checks map[string]HealthCheck) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respond.Message(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respond.Message(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Use(middleware.Recover, middleware.Logging, metrics.InstrumentHandler, auth.Handler)
	if limiter != nil {
		r.Use(limiter.Handler)
	}

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet).Name("metrics")
	r.HandleFunc("/health", healthHandler(checks)).Methods(http.MethodGet).Name("health")
	r.HandleFunc("/ws/notifications", h.Gateway.ServeNotifications).Name("ws.notifications")
	r.HandleFunc("/ws/chat", h.Gateway.ServeChat).Name("ws.chat")

	api := r.PathPrefix("/api/v1").Subrouter()
	const id = "/{id:[0-9]+}"

	// Auth
	api.HandleFunc("/auth/register", h.Auth.Register).Methods(http.MethodPost).Name("auth.register")
	api.HandleFunc("/auth/login", h.Auth.Login).Methods(http.MethodPost).Name("auth.login")
	api.HandleFunc("/auth/refresh", h.Auth.Refresh).Methods(http.MethodPost).Name("auth.refresh")
	api.HandleFunc("/auth/me", h.Auth.Me).Methods(http.MethodGet).Name("auth.me")

	// Profile
	api.HandleFunc("/users/me", h.Users.GetProfile).Methods(http.MethodGet).Name("users.profile")
	api.HandleFunc("/users/me", h.Users.UpdateProfile).Methods(http.MethodPatch).Name("users.update")
	api.HandleFunc("/users/me", h.Users.DeleteAccount).Methods(http.MethodDelete).Name("users.delete")
	api.HandleFunc("/users/me/password", h.Users.ChangePassword).Methods(http.MethodPut).Name("users.password")
	api.HandleFunc("/users/me/picture", h.Users.SetProfilePicture).Methods(http.MethodPut).Name("users.picture")
	api.HandleFunc("/users/me/bi-document", h.Users.UploadBIDocument).Methods(http.MethodPut).Name("users.bi_document")
	api.HandleFunc("/users/me/company-documents", h.Users.UploadCompanyDocuments).Methods(http.MethodPut).Name("users.company_documents")

	api.HandleFunc("/users/me/addresses", h.Catalog.ListAddresses).Methods(http.MethodGet).Name("addresses.list")
	api.HandleFunc("/users/me/addresses", h.Catalog.CreateAddress).Methods(http.MethodPost).Name("addresses.create")
	api.HandleFunc("/users/me/addresses"+id, h.Catalog.UpdateAddress).Methods(http.MethodPut).Name("addresses.update")
	api.HandleFunc("/users/me/addresses"+id, h.Catalog.DeleteAddress).Methods(http.MethodDelete).Name("addresses.delete")
	api.HandleFunc("/users/me/addresses"+id+"/default", h.Catalog.SetDefaultAddress).Methods(http.MethodPut).Name("addresses.default")

	// Equipment
	landlordOnly := middleware.RequireUserType(domain.UserTypeLandlord)
	tenantOnly := middleware.RequireUserType(domain.UserTypeTenant)

	api.HandleFunc("/equipment", h.Equipment.Search).Methods(http.MethodGet).Name("equipment.search")
	api.HandleFunc("/equipment", landlordOnly(h.Equipment.Create)).Methods(http.MethodPost).Name("equipment.create")
	api.HandleFunc("/equipment/mine", h.Equipment.ListMine).Methods(http.MethodGet).Name("equipment.mine")
	api.HandleFunc("/equipment"+id, h.Equipment.Get).Methods(http.MethodGet).Name("equipment.get")
	api.HandleFunc("/equipment"+id, h.Equipment.Update).Methods(http.MethodPatch).Name("equipment.update")
	api.HandleFunc("/equipment"+id, h.Equipment.Delete).Methods(http.MethodDelete).Name("equipment.delete")
	api.HandleFunc("/equipment"+id+"/availability", h.Equipment.SetAvailability).Methods(http.MethodPut).Name("equipment.availability")
	api.HandleFunc("/equipment"+id+"/edits", h.Equipment.SubmitEdit).Methods(http.MethodPost).Name("edits.submit")
	api.HandleFunc("/equipment"+id+"/reviews", h.Marketplace.ListReviews).Methods(http.MethodGet).Name("reviews.by_equipment")
	api.HandleFunc("/equipment"+id+"/favorite", h.Marketplace.IsFavorite).Methods(http.MethodGet).Name("favorites.check")
	api.HandleFunc("/equipment"+id+"/favorite", h.Marketplace.AddFavorite).Methods(http.MethodPut).Name("favorites.add")
	api.HandleFunc("/equipment"+id+"/favorite", h.Marketplace.RemoveFavorite).Methods(http.MethodDelete).Name("favorites.remove")
	api.HandleFunc("/equipment-edits/mine", h.Equipment.ListMyEdits).Methods(http.MethodGet).Name("edits.mine")
	api.HandleFunc("/equipment-edits"+id, h.Equipment.GetEdit).Methods(http.MethodGet).Name("edits.get")
	api.HandleFunc("/favorites", h.Marketplace.ListFavorites).Methods(http.MethodGet).Name("favorites.list")

	// Rentals
	api.HandleFunc("/rentals", tenantOnly(h.Rentals.Create)).Methods(http.MethodPost).Name("rentals.create")
	api.HandleFunc("/rentals", h.Rentals.ListMine).Methods(http.MethodGet).Name("rentals.mine")
	api.HandleFunc("/rentals"+id, h.Rentals.Get).Methods(http.MethodGet).Name("rentals.get")
	api.HandleFunc("/rentals"+id+"/approve", h.Rentals.Approve()).Methods(http.MethodPost).Name("rentals.approve")
	api.HandleFunc("/rentals"+id+"/reject", h.Rentals.Reject()).Methods(http.MethodPost).Name("rentals.reject")
	api.HandleFunc("/rentals"+id+"/cancel", h.Rentals.Cancel()).Methods(http.MethodPost).Name("rentals.cancel")
	api.HandleFunc("/rentals"+id+"/activate", h.Rentals.Activate()).Methods(http.MethodPost).Name("rentals.activate")
	api.HandleFunc("/rentals"+id+"/complete", h.Rentals.Complete()).Methods(http.MethodPost).Name("rentals.complete")
	api.HandleFunc("/rentals"+id+"/receipt", h.Rentals.UploadReceipt()).Methods(http.MethodPut).Name("rentals.receipt")

	// Cart
	api.HandleFunc("/cart", h.Marketplace.ListCart).Methods(http.MethodGet).Name("cart.list")
	api.HandleFunc("/cart", tenantOnly(h.Marketplace.AddCartItem)).Methods(http.MethodPost).Name("cart.add")
	api.HandleFunc("/cart", h.Marketplace.ClearCart).Methods(http.MethodDelete).Name("cart.clear")
	api.HandleFunc("/cart/checkout", tenantOnly(h.Marketplace.Checkout)).Methods(http.MethodPost).Name("cart.checkout")
	api.HandleFunc("/cart"+id, h.Marketplace.UpdateCartItem).Methods(http.MethodPut).Name("cart.update")
	api.HandleFunc("/cart"+id, h.Marketplace.RemoveCartItem).Methods(http.MethodDelete).Name("cart.remove")

	// Reviews and reports
	api.HandleFunc("/reviews", h.Marketplace.CreateReview).Methods(http.MethodPost).Name("reviews.create")
	api.HandleFunc("/reviews"+id, h.Marketplace.DeleteReview).Methods(http.MethodDelete).Name("reviews.delete")
	api.HandleFunc("/reports", h.Marketplace.CreateReport).Methods(http.MethodPost).Name("reports.create")

	// Notifications
	api.HandleFunc("/notifications", h.Notification.List).Methods(http.MethodGet).Name("notifications.list")
	api.HandleFunc("/notifications/unread-count", h.Notification.UnreadCount).Methods(http.MethodGet).Name("notifications.unread_count")
	api.HandleFunc("/notifications/read-all", h.Notification.MarkAllAsRead).Methods(http.MethodPut).Name("notifications.read_all")
	api.HandleFunc("/notifications"+id+"/read", h.Notification.MarkAsRead).Methods(http.MethodPut).Name("notifications.read")
	api.HandleFunc("/notifications"+id, h.Notification.Delete).Methods(http.MethodDelete).Name("notifications.delete")

	// Chats
	api.HandleFunc("/chats", h.Chat.List).Methods(http.MethodGet).Name("chats.list")
	api.HandleFunc("/chats", h.Chat.Open).Methods(http.MethodPost).Name("chats.open")
	api.HandleFunc("/chats"+id+"/messages", h.Chat.Messages).Methods(http.MethodGet).Name("chats.messages")
	api.HandleFunc("/chats"+id+"/messages", h.Chat.Send).Methods(http.MethodPost).Name("chats.send")
	api.HandleFunc("/chats"+id+"/read", h.Chat.MarkRead).Methods(http.MethodPut).Name("chats.read")

	// Catalogue reference data
	api.HandleFunc("/categories", h.Catalog.ListCategories).Methods(http.MethodGet).Name("categories.list")
	api.HandleFunc("/categories"+id, h.Catalog.GetCategory).Methods(http.MethodGet).Name("categories.get")
	api.HandleFunc("/content", h.Catalog.ListContent).Methods(http.MethodGet).Name("content.list")
	api.HandleFunc("/content/{slug}", h.Catalog.GetContent).Methods(http.MethodGet).Name("content.get")
	api.HandleFunc("/bank-info", h.Catalog.ListActiveBanks).Methods(http.MethodGet).Name("bank_info.list")

	// Uploads
	api.HandleFunc("/uploads", h.Uploads.Upload).Methods(http.MethodPost).Name("uploads.create")
	api.HandleFunc("/uploads"+id, h.Uploads.Get).Methods(http.MethodGet).Name("uploads.get")
	api.HandleFunc("/uploads"+id, h.Uploads.Delete).Methods(http.MethodDelete).Name("uploads.delete")
	api.HandleFunc("/files/{key:.+}", h.Uploads.Download).Methods(http.MethodGet).Name("files.download")

	api.HandleFunc("/stats/landlord", landlordOnly(h.Admin.LandlordStats)).Methods(http.MethodGet).Name("stats.landlord")

	// Moderation: MODERATOR and above
	mod := api.PathPrefix("/moderation").Subrouter()
	mod.Use(middleware.RequireRoles(domain.RoleModerator))
	mod.HandleFunc("/equipment", h.Equipment.ListPending).Methods(http.MethodGet).Name("moderation.equipment")
	mod.HandleFunc("/equipment"+id+"/approve", h.Equipment.Approve).Methods(http.MethodPost).Name("moderation.equipment_approve")
	mod.HandleFunc("/equipment"+id+"/reject", h.Equipment.Reject).Methods(http.MethodPost).Name("moderation.equipment_reject")
	mod.HandleFunc("/edits", h.Equipment.ListPendingEdits).Methods(http.MethodGet).Name("moderation.edits")
	mod.HandleFunc("/edits"+id+"/approve", h.Equipment.ApproveEdit).Methods(http.MethodPost).Name("moderation.edit_approve")
	mod.HandleFunc("/edits"+id+"/reject", h.Equipment.RejectEdit).Methods(http.MethodPost).Name("moderation.edit_reject")
	mod.HandleFunc("/stats", h.Equipment.ModerationStats).Methods(http.MethodGet).Name("moderation.stats")
	mod.HandleFunc("/rentals", h.Rentals.ListAll).Methods(http.MethodGet).Name("moderation.rentals")
	mod.HandleFunc("/receipts", h.Rentals.ListPendingReceipts).Methods(http.MethodGet).Name("moderation.receipts")
	mod.HandleFunc("/receipts"+id, h.Rentals.ValidateReceipt()).Methods(http.MethodPost).Name("moderation.receipt_validate")
	mod.HandleFunc("/reports", h.Marketplace.ListReports).Methods(http.MethodGet).Name("moderation.reports")
	mod.HandleFunc("/reports"+id+"/resolve", h.Marketplace.ResolveReport).Methods(http.MethodPost).Name("moderation.report_resolve")

	// Administration: the service layer applies the finer role checks
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireRoles(domain.RoleModerator))
	admin.HandleFunc("/users", h.Admin.ListUsers).Methods(http.MethodGet).Name("admin.users")
	admin.HandleFunc("/users"+id, h.Admin.GetUser).Methods(http.MethodGet).Name("admin.user")
	admin.HandleFunc("/users"+id, h.Admin.DeleteUser).Methods(http.MethodDelete).Name("admin.user_delete")
	admin.HandleFunc("/users"+id+"/restore", h.Admin.RestoreUser).Methods(http.MethodPost).Name("admin.user_restore")
	admin.HandleFunc("/users"+id+"/role", h.Admin.ChangeRole).Methods(http.MethodPut).Name("admin.user_role")
	admin.HandleFunc("/users"+id+"/bi-validation", h.Admin.ValidateBIDocument).Methods(http.MethodPut).Name("admin.bi_validate")
	admin.HandleFunc("/landlords/pending", h.Admin.ListPendingLandlords).Methods(http.MethodGet).Name("admin.landlords_pending")
	admin.HandleFunc("/landlords"+id+"/validate", h.Admin.ValidateLandlord).Methods(http.MethodPost).Name("admin.landlord_validate")
	admin.HandleFunc("/rentals"+id+"/receipt", h.Admin.ValidatePaymentReceipt).Methods(http.MethodPost).Name("admin.receipt_validate")
	admin.HandleFunc("/notifications/broadcast", h.Admin.Broadcast).Methods(http.MethodPost).Name("admin.broadcast")
	admin.HandleFunc("/stats", h.Admin.Stats).Methods(http.MethodGet).Name("admin.stats")
	admin.HandleFunc("/settings", h.Admin.ListSettings).Methods(http.MethodGet).Name("admin.settings")
	admin.HandleFunc("/settings/{key}", h.Admin.GetSetting).Methods(http.MethodGet).Name("admin.setting")
	admin.HandleFunc("/settings/{key}", h.Admin.SetSetting).Methods(http.MethodPut).Name("admin.setting_set")
	admin.HandleFunc("/categories", h.Catalog.CreateCategory).Methods(http.MethodPost).Name("admin.category_create")
	admin.HandleFunc("/categories"+id, h.Catalog.UpdateCategory).Methods(http.MethodPut).Name("admin.category_update")
	admin.HandleFunc("/categories"+id, h.Catalog.DeleteCategory).Methods(http.MethodDelete).Name("admin.category_delete")
	admin.HandleFunc("/content/{slug}", h.Catalog.UpsertContent).Methods(http.MethodPut).Name("admin.content_upsert")
	admin.HandleFunc("/content/{slug}", h.Catalog.DeleteContent).Methods(http.MethodDelete).Name("admin.content_delete")
	admin.HandleFunc("/bank-info", h.Catalog.ListAllBanks).Methods(http.MethodGet).Name("admin.bank_info")
	admin.HandleFunc("/bank-info", h.Catalog.CreateBank).Methods(http.MethodPost).Name("admin.bank_info_create")
	admin.HandleFunc("/bank-info"+id, h.Catalog.UpdateBank).Methods(http.MethodPut).Name("admin.bank_info_update")
	admin.HandleFunc("/bank-info"+id, h.Catalog.DeleteBank).Methods(http.MethodDelete).Name("admin.bank_info_delete")

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		respond.JSON(w, status, resp)
	}
}
