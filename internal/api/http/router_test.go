package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"equiprent-backend/internal/api/http/middleware"
	"equiprent-backend/internal/api/http/respond"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/security"
	"equiprent-backend/internal/service"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tenant    = &domain.User{ID: 20, Role: domain.RoleUser, UserType: domain.UserTypeTenant, AccountStatus: domain.AccountStatusApproved}
	landlord  = &domain.User{ID: 10, Role: domain.RoleUser, UserType: domain.UserTypeLandlord, AccountStatus: domain.AccountStatusApproved}
	moderator = &domain.User{ID: 2, Role: domain.RoleModerator, UserType: domain.UserTypeTenant, AccountStatus: domain.AccountStatusApproved}
)

type stubAuth struct {
	service.AuthService
}

func (stubAuth) Authenticate(ctx context.Context, token string, want security.TokenType) (*domain.User, error) {
	if want != security.TokenTypeAccess {
		return nil, domain.Unauthorized("invalid token")
	}
	switch token {
	case "tenant":
		return tenant, nil
	case "landlord":
		return landlord, nil
	case "moderator":
		return moderator, nil
	}
	return nil, domain.Unauthorized("invalid token")
}

type stubEquipment struct {
	service.EquipmentService
	filter domain.EquipmentFilter
}

func (s *stubEquipment) Search(ctx context.Context, filter domain.EquipmentFilter, page, pageSize int32) ([]domain.Equipment, int32, error) {
	s.filter = filter
	return []domain.Equipment{{ID: 1, Title: "Drill"}}, 11, nil
}

func (s *stubEquipment) Create(ctx context.Context, actor *domain.User, in service.EquipmentInput) (*domain.Equipment, error) {
	return &domain.Equipment{ID: 7, OwnerID: actor.ID, Title: in.Title, ModerationStatus: domain.ModerationPending}, nil
}

type stubModeration struct {
	service.ModerationService
}

func (stubModeration) ListPending(ctx context.Context, actor *domain.User, page, pageSize int32) ([]domain.Equipment, int32, error) {
	return nil, 0, nil
}

type stubRentals struct {
	service.RentalService
	asOwner bool
	status  domain.RentalStatus
}

func (s *stubRentals) ListMine(ctx context.Context, actor *domain.User, asOwner bool, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error) {
	s.asOwner, s.status = asOwner, status
	return nil, 0, nil
}

func (s *stubRentals) Cancel(ctx context.Context, actor *domain.User, id int32, reason string) (*domain.Rental, error) {
	if id == 404 {
		return nil, domain.NotFound("rental not found")
	}
	return &domain.Rental{ID: id, Status: domain.RentalStatusCancelled, CancellationReason: reason}, nil
}

type stubUploads struct {
	service.UploadService
	in   service.UploadInput
	body string
}

func (s *stubUploads) Upload(ctx context.Context, actor *domain.User, in service.UploadInput) (*domain.Upload, error) {
	s.in = in
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(in.Body)
	s.body = buf.String()
	return &domain.Upload{ID: 1, UserID: actor.ID, Purpose: in.Purpose, FileName: in.FileName, URL: "http://files/x.png"}, nil
}

type fixture struct {
	router    *mux.Router
	equipment *stubEquipment
	rentals   *stubRentals
	uploads   *stubUploads
}

func newFixture(checks map[string]HealthCheck) *fixture {
	f := &fixture{equipment: &stubEquipment{}, rentals: &stubRentals{}, uploads: &stubUploads{}}
	h := Handlers{
		Equipment: NewEquipmentHandler(f.equipment, nil, stubModeration{}),
		Rentals:   NewRentalHandler(f.rentals),
		Uploads:   NewUploadHandler(f.uploads, nil, 1<<20),
	}
	f.router = NewRouter(h, middleware.NewAuth(stubAuth{}), nil, checks)
	return f
}

func (f *fixture) do(method, target, token string, body []byte, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_EquipmentSearchParsesFilter(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(http.MethodGet, "/api/v1/equipment?q=+drill+&category_id=3&min_rate=10.5&price_period=weekly&lat=-8.8&lon=13.2&radius_km=25&available_only=true&page=2&limit=5", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var page respond.Page[domain.Equipment]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int32(11), page.Total)
	assert.Equal(t, int32(2), page.Page)
	assert.Equal(t, int32(5), page.Limit)
	assert.Len(t, page.Data, 1)

	filter := f.equipment.filter
	assert.Equal(t, "drill", filter.Query)
	assert.Equal(t, int32(3), filter.CategoryID)
	assert.Equal(t, domain.PricePeriod("WEEKLY"), filter.PricePeriod)
	require.NotNil(t, filter.MinRate)
	assert.Equal(t, "10.5", filter.MinRate.String())
	assert.Nil(t, filter.MaxRate)
	require.NotNil(t, filter.Near)
	assert.InDelta(t, -8.8, filter.Near.Latitude, 1e-9)
	assert.InDelta(t, 13.2, filter.Near.Longitude, 1e-9)
	assert.InDelta(t, 25.0, filter.RadiusKm, 1e-9)
	assert.True(t, filter.AvailableOnly)
}

func TestRouter_EquipmentSearchRejectsBadParams(t *testing.T) {
	f := newFixture(nil)
	for _, query := range []string{"min_rate=abc", "lat=1.5", "category_id=x", "lat=1&lon=2&radius_km=far"} {
		t.Run(query, func(t *testing.T) {
			rec := f.do(http.MethodGet, "/api/v1/equipment?"+query, "", nil, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRouter_AccessControl(t *testing.T) {
	f := newFixture(nil)
	createBody := []byte(`{"title":"Excavator","daily_rate":"150"}`)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   []byte
		want   int
	}{
		{"health is public", http.MethodGet, "/health", "", nil, http.StatusOK},
		{"rentals need a token", http.MethodGet, "/api/v1/rentals", "", nil, http.StatusUnauthorized},
		{"bad token is rejected", http.MethodGet, "/api/v1/rentals", "garbage", nil, http.StatusUnauthorized},
		{"tenant cannot list equipment for sale", http.MethodPost, "/api/v1/equipment", "tenant", createBody, http.StatusForbidden},
		{"landlord creates equipment", http.MethodPost, "/api/v1/equipment", "landlord", createBody, http.StatusCreated},
		{"moderation needs staff", http.MethodGet, "/api/v1/moderation/equipment", "landlord", nil, http.StatusForbidden},
		{"moderator sees the queue", http.MethodGet, "/api/v1/moderation/equipment", "moderator", nil, http.StatusOK},
		{"unknown route", http.MethodGet, "/api/v1/nothing-here", "tenant", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(tt.method, tt.path, tt.token, tt.body, "application/json")
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_RentalListAndCancel(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(http.MethodGet, "/api/v1/rentals?as=owner&status=pending", "landlord", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.rentals.asOwner)
	assert.Equal(t, domain.RentalStatusPending, f.rentals.status)
	assert.JSONEq(t, `{"data":[],"total":0,"page":1,"limit":20}`, rec.Body.String())

	rec = f.do(http.MethodPost, "/api/v1/rentals/5/cancel", "tenant", []byte(`{"reason":"plans changed"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	var rental domain.Rental
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rental))
	assert.Equal(t, domain.RentalStatusCancelled, rental.Status)
	assert.Equal(t, "plans changed", rental.CancellationReason)

	rec = f.do(http.MethodPost, "/api/v1/rentals/404/cancel", "tenant", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body respond.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rental not found", body.Message)
}

func TestRouter_MultipartUpload(t *testing.T) {
	f := newFixture(nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("purpose", "payment_receipt"))
	part, err := mw.CreateFormFile("file", "receipt.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("fake-png"))
	require.NoError(t, mw.Close())

	rec := f.do(http.MethodPost, "/api/v1/uploads", "tenant", buf.Bytes(), mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, domain.UploadPurposePaymentReceipt, f.uploads.in.Purpose)
	assert.Equal(t, "receipt.png", f.uploads.in.FileName)
	assert.Equal(t, int64(len("fake-png")), f.uploads.in.Size)
	assert.Equal(t, "fake-png", f.uploads.body)

	rec = f.do(http.MethodPost, "/api/v1/uploads", "tenant", []byte("not a form"), "text/plain")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Health(t *testing.T) {
	f := newFixture(map[string]HealthCheck{
		"database": func(ctx context.Context) error { return nil },
		"redis":    func(ctx context.Context) error { return errors.New("connection refused") },
	})

	rec := f.do(http.MethodGet, "/health", "", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"database":"ok","redis":"connection refused"}}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", "", "request body is required"},
		{"syntax", "{", "request body is too large or truncated"},
		{"type", `{"rental_id":"x"}`, `invalid value for field "rental_id"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var v reviewRequest
			err := decodeJSON(req, &v, 0)
			require.Error(t, err)
			assert.Equal(t, tt.want, domain.ErrorMessage(err))
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"start_date":"2026-01-02T00:00:00Z"}`))
	var in service.CartItemInput
	require.NoError(t, decodeJSON(req, &in, 0))
	assert.True(t, in.StartDate.Equal(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)))
}
