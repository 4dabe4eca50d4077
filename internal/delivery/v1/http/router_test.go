package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/cfg"
	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/internal/infrastructure/auth"
	"github.com/DRSN-tech/admin-backend/internal/report"
	"github.com/DRSN-tech/admin-backend/internal/usecase"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeAuthUC struct {
	usecase.AuthUC
	admins map[int64]*domain.Admin
}

func (f *fakeAuthUC) Login(_ context.Context, req *usecase.LoginReq) (*usecase.LoginRes, error) {
	for _, a := range f.admins {
		if a.Email == req.Email && req.Password == "secret" {
			token, exp, err := auth.NewJWTManager(testSecret, time.Hour).Issue(a)
			return &usecase.LoginRes{Token: token, ExpiresAt: exp, Admin: *a}, err
		}
	}
	return nil, e.ErrBadCredentials
}

func (f *fakeAuthUC) Authenticate(_ context.Context, id int64) (*domain.Admin, error) {
	if a, ok := f.admins[id]; ok {
		return a, nil
	}
	return nil, e.ErrAdminNotResolved
}

func (f *fakeAuthUC) Me(ctx context.Context) (*usecase.Me, error) {
	id, ok := usecase.ActorFromContext(ctx)
	if !ok {
		return nil, e.ErrAdminNotResolved
	}
	return &usecase.Me{Admin: *f.admins[id], Counters: &usecase.AdminCounters{Products: 2, Categories: 1}}, nil
}

type fakePurchaseUC struct {
	usecase.PurchaseUC
	actor  int64
	err    error
	params report.FilterParams
}

func (f *fakePurchaseUC) CreatePurchase(ctx context.Context, req *usecase.CreatePurchaseReq) (*domain.PurchaseDetails, error) {
	f.actor, _ = usecase.ActorFromContext(ctx)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.PurchaseDetails{
		Purchase: domain.Purchase{ID: 1, ProductID: req.ProductID, CustomerID: req.CustomerID, Quantity: req.Quantity,
			TotalPrice: decimal.RequireFromString("59.97")},
		Product:  domain.Product{ID: req.ProductID, Name: "Mouse", Price: decimal.RequireFromString("19.99"), Stock: 7},
		Customer: domain.Customer{ID: req.CustomerID, Name: "Juan"},
	}, nil
}

func (f *fakePurchaseUC) ListPurchases(_ context.Context, params report.FilterParams, page usecase.Page) (*usecase.PurchaseList, error) {
	f.params = params
	return &usecase.PurchaseList{Pagination: usecase.NewPagination(page, 0)}, nil
}

type fakeReportUC struct {
	usecase.ReportUC
}

func (fakeReportUC) CountByGranularity(_ context.Context, granularity string, _ report.FilterParams) (*usecase.CountByGranularityRes, error) {
	g, err := report.ParseGranularity(granularity)
	if err != nil {
		return nil, err
	}
	return &usecase.CountByGranularityRes{Granularity: g, GroupedData: map[string]int64{"2024-01-01": 2}, TotalPurchases: 2}, nil
}

type testServer struct {
	handler  http.Handler
	purchase *fakePurchaseUC
	token    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	admin := &domain.Admin{ID: 1, Email: "ana@shop.local", Name: "Ana"}
	authUC := &fakeAuthUC{admins: map[int64]*domain.Admin{1: admin}}
	purchaseUC := &fakePurchaseUC{}

	mux := chi.NewRouter()
	NewRouter(mux, logger.Nop()).Init(&UseCases{
		Auth:     authUC,
		Purchase: purchaseUC,
		Report:   fakeReportUC{},
	}, auth.NewJWTManager(testSecret, time.Hour), &cfg.MinIOCfg{UploadImagesLimit: 3, MaxImageSize: 1 << 20},
		NewHealthHandler(map[string]Pinger{"postgres": PingFunc(func(context.Context) error { return nil })}))

	token, _, err := auth.NewJWTManager(testSecret, time.Hour).Issue(admin)
	require.NoError(t, err)

	return &testServer{handler: mux, purchase: purchaseUC, token: token}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec, out
}

func TestLoginAndMe(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodPost, "/api/v1/login", map[string]string{"email": "ana@shop.local", "password": "secret"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", body["status"])
	data := body["data"].(map[string]any)
	token := data["token"].(string)
	assert.Equal(t, "Ana", data["admin"].(map[string]any)["name"])

	rec, body = s.do(t, http.MethodGet, "/api/v1/me", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["data"].(map[string]any)["products_count"])

	rec, body = s.do(t, http.MethodPost, "/api/v1/login", map[string]string{"email": "ana@shop.local", "password": "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "error", body["status"])
}

func TestPrivateRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodPost, "/api/v1/purchases", map[string]any{"product_id": 1}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token is required", body["message"])

	rec, _ = s.do(t, http.MethodGet, "/api/v1/me", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ghost, _, err := auth.NewJWTManager(testSecret, time.Hour).Issue(&domain.Admin{ID: 99})
	require.NoError(t, err)
	rec, _ = s.do(t, http.MethodGet, "/api/v1/me", nil, ghost)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreatePurchase(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodPost, "/api/v1/purchases",
		map[string]any{"customer_id": 3, "product_id": 5, "quantity": 3}, s.token)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(1), s.purchase.actor)

	data := body["data"].(map[string]any)
	assert.Equal(t, "59.97", data["total_price"])
	assert.Equal(t, float64(7), data["product"].(map[string]any)["stock"])
}

func TestCreatePurchaseErrors(t *testing.T) {
	s := newTestServer(t)

	s.purchase.err = e.Wrap("PurchaseUseCase.CreatePurchase", e.NewInsufficientStockError(5, 2))
	rec, body := s.do(t, http.MethodPost, "/api/v1/purchases", map[string]any{"product_id": 5, "quantity": 3}, s.token)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, float64(2), body["details"].(map[string]any)["stock"])

	s.purchase.err = e.NewValidationError("quantity", "exceeds available stock (2)")
	rec, body = s.do(t, http.MethodPost, "/api/v1/purchases", map[string]any{"product_id": 5, "quantity": 3}, s.token)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []any{"quantity exceeds available stock (2)"}, body["details"])

	s.purchase.err = errors.New("boom")
	rec, _ = s.do(t, http.MethodPost, "/api/v1/purchases", map[string]any{"product_id": 5}, s.token)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestFilteredPurchasesPassesFilters(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, "/api/v1/purchases/filtered?start_date=2024-01-01&category_id=2&page=2&per_page=5", nil, s.token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-01-01", s.purchase.params.StartDate)
	assert.Equal(t, "2", s.purchase.params.CategoryID)

	data := body["data"].(map[string]any)
	assert.Equal(t, map[string]any{"start_date": "2024-01-01", "category_id": "2"}, data["filters_applied"])
	assert.Equal(t, float64(2), body["meta"].(map[string]any)["current_page"])
}

func TestCountByGranularity(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, "/api/v1/purchases/count_by_granularity?granularity=day", nil, s.token)
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, map[string]any{"2024-01-01": float64(2)}, data["grouped_data"])

	rec, _ = s.do(t, http.MethodGet, "/api/v1/purchases/count_by_granularity?granularity=fortnight", nil, s.token)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["data"].(map[string]any)["checks"].(map[string]any)["postgres"])
}
