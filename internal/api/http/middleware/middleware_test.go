package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/security"
	"equiprent-backend/internal/service"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

type fakeAuth struct {
	service.AuthService
}

func (fakeAuth) Authenticate(ctx context.Context, token string, want security.TokenType) (*domain.User, error) {
	switch {
	case token == "access-admin" && want == security.TokenTypeAccess:
		return &domain.User{ID: 1, Role: domain.RoleAdmin, UserType: domain.UserTypeTenant, AccountStatus: domain.AccountStatusApproved}, nil
	case token == "access-landlord" && want == security.TokenTypeAccess:
		return &domain.User{ID: 2, Role: domain.RoleUser, UserType: domain.UserTypeLandlord, AccountStatus: domain.AccountStatusApproved}, nil
	case token == "access-pending" && want == security.TokenTypeAccess:
		return &domain.User{ID: 3, Role: domain.RoleModerator, UserType: domain.UserTypeLandlord, AccountStatus: domain.AccountStatusPending}, nil
	case token == "refresh" && want == security.TokenTypeRefresh:
		return &domain.User{ID: 4, Role: domain.RoleUser, AccountStatus: domain.AccountStatusApproved}, nil
	case token == "access-db-down":
		return nil, errors.New("pq: connection refused")
	case token == "access-deleted":
		return nil, domain.NotFound("user not found")
	}
	return nil, domain.Unauthorized("invalid token")
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	if u := UserFromContext(r.Context()); u != nil {
		w.Header().Set("X-User", string(rune('0'+u.ID)))
	}
	w.WriteHeader(http.StatusOK)
}

func newAuthRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(NewAuth(fakeAuth{}).Handler)
	r.HandleFunc("/health", echoUser).Name("health")
	r.HandleFunc("/auth/refresh", echoUser).Name("auth.refresh")
	r.HandleFunc("/equipment", echoUser).Name("equipment.search")
	r.HandleFunc("/rentals", echoUser).Name("rentals.mine")

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(RequireRoles(domain.RoleModerator))
	admin.HandleFunc("/stats", echoUser).Name("admin.stats")

	r.HandleFunc("/equipment/new", RequireUserType(domain.UserTypeLandlord)(echoUser)).Name("equipment.create")
	return r
}

func TestAuth_SecurityLevels(t *testing.T) {
	router := newAuthRouter()

	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
		wantUser   string
	}{
		{"Public route without token", "/health", "", http.StatusOK, ""},
		{"Protected route without token", "/rentals", "", http.StatusUnauthorized, ""},
		{"Protected route with access token", "/rentals", "access-landlord", http.StatusOK, "2"},
		{"Protected route rejects refresh token", "/rentals", "refresh", http.StatusUnauthorized, ""},
		{"Refresh route accepts refresh token", "/auth/refresh", "refresh", http.StatusOK, "4"},
		{"Refresh route rejects access token", "/auth/refresh", "access-admin", http.StatusUnauthorized, ""},
		{"Optional route anonymous", "/equipment", "", http.StatusOK, ""},
		{"Optional route with bad token stays anonymous", "/equipment", "garbage", http.StatusOK, ""},
		{"Optional route with access token", "/equipment", "access-admin", http.StatusOK, "1"},
		{"Role guard admits admin", "/admin/stats", "access-admin", http.StatusOK, "1"},
		{"Role guard rejects user", "/admin/stats", "access-landlord", http.StatusForbidden, ""},
		{"Role guard rejects unapproved moderator", "/admin/stats", "access-pending", http.StatusForbidden, ""},
		{"Type guard admits landlord", "/equipment/new", "access-landlord", http.StatusOK, "2"},
		{"Type guard rejects tenant", "/equipment/new", "access-admin", http.StatusForbidden, ""},
		{"Unknown route defaults to access", "/nowhere", "", http.StatusNotFound, ""},
		{"Missing account is unauthorized", "/rentals", "access-deleted", http.StatusUnauthorized, ""},
		{"Optional route with missing account stays anonymous", "/equipment", "access-deleted", http.StatusOK, ""},
		{"Lookup failure is a server error", "/rentals", "access-db-down", http.StatusInternalServerError, ""},
		{"Lookup failure on optional route is a server error", "/equipment", "access-db-down", http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantUser, rec.Header().Get("X-User"))
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// A different client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Authenticated users are keyed by ID, not address.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	req = req.WithContext(WithUser(req.Context(), &domain.User{ID: 9}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 0, rl.Cleanup(time.Hour))
	assert.Equal(t, 3, rl.Cleanup(-time.Second))
}

func TestCORS(t *testing.T) {
	h := NewCORS([]string{"https://app.example.com"}).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/rentals", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/rentals", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}
