package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analyticssvc "github.com/vavipcommerce/vavip-backend/internal/analytics"
	authsvc "github.com/vavipcommerce/vavip-backend/internal/auth"
	contactsvc "github.com/vavipcommerce/vavip-backend/internal/contacts"
	feedbacksvc "github.com/vavipcommerce/vavip-backend/internal/feedback"
	ordersvc "github.com/vavipcommerce/vavip-backend/internal/orders"
	productsvc "github.com/vavipcommerce/vavip-backend/internal/products"
	"github.com/vavipcommerce/vavip-backend/internal/users"
	pkgauth "github.com/vavipcommerce/vavip-backend/pkg/auth"
	"github.com/vavipcommerce/vavip-backend/pkg/config"
	"github.com/vavipcommerce/vavip-backend/pkg/enums"
	"github.com/vavipcommerce/vavip-backend/pkg/types"
)

type stubAuth struct{}

func (stubAuth) Register(context.Context, authsvc.RegisterRequest) (*authsvc.AuthResponse, error) {
	return &authsvc.AuthResponse{}, nil
}
func (stubAuth) Login(context.Context, authsvc.LoginRequest) (*authsvc.AuthResponse, error) {
	return &authsvc.AuthResponse{}, nil
}
func (stubAuth) Me(context.Context, uuid.UUID) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}
func (stubAuth) UpdateProfile(context.Context, uuid.UUID, authsvc.UpdateProfileRequest) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}
func (stubAuth) ChangePassword(context.Context, uuid.UUID, authsvc.ChangePasswordRequest) error {
	return nil
}
func (stubAuth) Refresh(context.Context, authsvc.RefreshRequest) (*authsvc.TokenPairResponse, error) {
	return &authsvc.TokenPairResponse{}, nil
}
func (stubAuth) Logout(context.Context, string, authsvc.LogoutRequest) error { return nil }
func (stubAuth) SendOTP(context.Context, authsvc.OTPSendRequest) (*authsvc.OTPSendResponse, error) {
	return &authsvc.OTPSendResponse{}, nil
}
func (stubAuth) VerifyOTP(context.Context, authsvc.OTPVerifyRequest) (*authsvc.OTPVerifyResponse, error) {
	return &authsvc.OTPVerifyResponse{}, nil
}

type stubProducts struct{}

func (stubProducts) List(context.Context, productsvc.ListQuery) (*types.Page, error) {
	return &types.Page{Items: []productsvc.ProductDTO{}}, nil
}
func (stubProducts) GetBySlug(context.Context, string) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{}, nil
}
func (stubProducts) GetByID(context.Context, uuid.UUID) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{}, nil
}
func (stubProducts) Featured(context.Context) ([]productsvc.ProductDTO, error) { return nil, nil }
func (stubProducts) CategoryTree(context.Context) ([]productsvc.CategoryDTO, error) {
	return nil, nil
}
func (stubProducts) GetCategoryBySlug(context.Context, string) (*productsvc.CategoryDTO, error) {
	return &productsvc.CategoryDTO{}, nil
}
func (stubProducts) CreateProduct(context.Context, productsvc.CreateProductRequest) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{}, nil
}
func (stubProducts) UpdateProduct(context.Context, uuid.UUID, productsvc.UpdateProductRequest) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{}, nil
}
func (stubProducts) DeleteProduct(context.Context, uuid.UUID) error { return nil }
func (stubProducts) AdjustStock(context.Context, uuid.UUID, int) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{}, nil
}
func (stubProducts) CreateCategory(context.Context, productsvc.CreateCategoryRequest) (*productsvc.CategoryDTO, error) {
	return &productsvc.CategoryDTO{}, nil
}
func (stubProducts) UpdateCategory(context.Context, uuid.UUID, productsvc.UpdateCategoryRequest) (*productsvc.CategoryDTO, error) {
	return &productsvc.CategoryDTO{}, nil
}
func (stubProducts) DeleteCategory(context.Context, uuid.UUID) error { return nil }
func (stubProducts) AddFavorite(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return true, nil
}
func (stubProducts) RemoveFavorite(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return true, nil
}
func (stubProducts) ListFavorites(context.Context, uuid.UUID) ([]productsvc.ProductDTO, error) {
	return []productsvc.ProductDTO{}, nil
}

type stubOrders struct {
	lastActor *uuid.UUID
}

func (s *stubOrders) Create(_ context.Context, actorID *uuid.UUID, _ ordersvc.CreateOrderRequest) (*ordersvc.CreateOrderResult, error) {
	s.lastActor = actorID
	return &ordersvc.CreateOrderResult{Order: &ordersvc.OrderDTO{}}, nil
}
func (s *stubOrders) Get(context.Context, uuid.UUID, enums.UserRole, uuid.UUID) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{}, nil
}
func (s *stubOrders) List(context.Context, uuid.UUID, enums.UserRole, ordersvc.ListQuery) (*types.Page, error) {
	return &types.Page{Items: []ordersvc.OrderDTO{}}, nil
}
func (s *stubOrders) UpdateStatus(context.Context, uuid.UUID, ordersvc.UpdateStatusRequest) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{}, nil
}
func (s *stubOrders) Cancel(context.Context, uuid.UUID, enums.UserRole, uuid.UUID) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{}, nil
}
func (s *stubOrders) Repeat(context.Context, uuid.UUID, uuid.UUID) (*ordersvc.CreateOrderResult, error) {
	return &ordersvc.CreateOrderResult{Order: &ordersvc.OrderDTO{}}, nil
}

type stubContacts struct{}

func (stubContacts) ListGrouped(context.Context) ([]contactsvc.CountryGroup, error) {
	return nil, nil
}
func (stubContacts) Countries(context.Context) ([]contactsvc.CountryDTO, error) { return nil, nil }
func (stubContacts) ByCountryCode(context.Context, string) ([]contactsvc.ContactDTO, error) {
	return nil, nil
}
func (stubContacts) ByCity(context.Context, string) ([]contactsvc.ContactDTO, error) {
	return nil, nil
}
func (stubContacts) Create(context.Context, contactsvc.CreateContactRequest) (*contactsvc.ContactDTO, error) {
	return &contactsvc.ContactDTO{}, nil
}
func (stubContacts) Update(context.Context, uuid.UUID, contactsvc.UpdateContactRequest) (*contactsvc.ContactDTO, error) {
	return &contactsvc.ContactDTO{}, nil
}
func (stubContacts) Delete(context.Context, uuid.UUID) error { return nil }

type stubFeedback struct{}

func (stubFeedback) Create(context.Context, feedbacksvc.CreateFeedbackRequest) (*feedbacksvc.FeedbackDTO, error) {
	return &feedbacksvc.FeedbackDTO{}, nil
}
func (stubFeedback) List(context.Context, feedbacksvc.ListQuery) (*types.Page, error) {
	return &types.Page{Items: []feedbacksvc.FeedbackDTO{}}, nil
}
func (stubFeedback) Get(context.Context, uuid.UUID) (*feedbacksvc.FeedbackDTO, error) {
	return &feedbacksvc.FeedbackDTO{}, nil
}
func (stubFeedback) Update(context.Context, uuid.UUID, feedbacksvc.UpdateFeedbackRequest) (*feedbacksvc.FeedbackDTO, error) {
	return &feedbacksvc.FeedbackDTO{}, nil
}
func (stubFeedback) Delete(context.Context, uuid.UUID) error { return nil }

type stubAnalytics struct{}

func (stubAnalytics) Stats(context.Context, int) (*analyticssvc.StatsDTO, error) {
	return &analyticssvc.StatsDTO{}, nil
}
func (stubAnalytics) SalesChart(context.Context, int) ([]analyticssvc.SalesPoint, error) {
	return nil, nil
}
func (stubAnalytics) TopProducts(context.Context, int, int) ([]analyticssvc.TopProduct, error) {
	return nil, nil
}
func (stubAnalytics) RecentOrders(context.Context, int) ([]ordersvc.OrderDTO, error) {
	return nil, nil
}
func (stubAnalytics) StatusBreakdown(context.Context) ([]analyticssvc.StatusCount, error) {
	return nil, nil
}
func (stubAnalytics) RevenueByCategory(context.Context, int) ([]analyticssvc.CategoryRevenue, error) {
	return nil, nil
}
func (stubAnalytics) ListUsers(context.Context, analyticssvc.UsersQuery) (*types.Page, error) {
	return &types.Page{Items: []users.UserDTO{}}, nil
}
func (stubAnalytics) UpdateUser(context.Context, uuid.UUID, analyticssvc.UpdateUserRequest) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}

func testRouterConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "router-test-secret-0123456789abcdef",
			Issuer:                 "vavip-test",
			ExpirationMinutes:      15,
			RefreshTokenTTLMinutes: 60,
		},
	}
}

func newTestRouter(t *testing.T, orders *stubOrders) (http.Handler, *config.Config) {
	t.Helper()
	cfg := testRouterConfig()
	handler := NewRouter(Deps{
		Config:    cfg,
		Auth:      stubAuth{},
		Products:  stubProducts{},
		Orders:    orders,
		Contacts:  stubContacts{},
		Feedback:  stubFeedback{},
		Analytics: stubAnalytics{},
	})
	return handler, cfg
}

func mintToken(t *testing.T, cfg *config.Config, role enums.UserRole) (uuid.UUID, string) {
	t.Helper()
	userID := uuid.New()
	pair, err := pkgauth.MintPair(cfg.JWT, time.Now().UTC(), pkgauth.TokenPayload{
		UserID: userID,
		Role:   role,
	})
	require.NoError(t, err)
	return userID, pair.AccessToken
}

func doRequest(handler http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_PublicSurface(t *testing.T) {
	handler, _ := newTestRouter(t, &stubOrders{})

	assert.Equal(t, http.StatusOK, doRequest(handler, http.MethodGet, "/health/live", "", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(handler, http.MethodGet, "/api/products", "", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(handler, http.MethodGet, "/api/products/featured", "", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(handler, http.MethodGet, "/api/contacts", "", "").Code)
	assert.Equal(t, http.StatusCreated, doRequest(handler, http.MethodPost, "/api/feedback", "",
		`{"name":"Anna","message":"hello"}`).Code)
}

func TestRouter_GuestCheckoutPassesNilActor(t *testing.T) {
	orders := &stubOrders{}
	handler, cfg := newTestRouter(t, orders)

	body := `{"items":[{"product_id":"` + uuid.NewString() + `","quantity":1}]}`
	rec := doRequest(handler, http.MethodPost, "/api/orders", "", body)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, orders.lastActor)

	userID, token := mintToken(t, cfg, enums.UserRoleCustomer)
	rec = doRequest(handler, http.MethodPost, "/api/orders", token, body)
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, orders.lastActor)
	assert.Equal(t, userID, *orders.lastActor)
}

func TestRouter_AuthGating(t *testing.T) {
	handler, cfg := newTestRouter(t, &stubOrders{})

	assert.Equal(t, http.StatusUnauthorized, doRequest(handler, http.MethodGet, "/api/orders", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(handler, http.MethodGet, "/api/auth/me", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(handler, http.MethodPost, "/api/products", "", "{}").Code)

	_, customer := mintToken(t, cfg, enums.UserRoleCustomer)
	assert.Equal(t, http.StatusOK, doRequest(handler, http.MethodGet, "/api/orders", customer, "").Code)
	assert.Equal(t, http.StatusOK, doRequest(handler, http.MethodGet, "/api/auth/me", customer, "").Code)
}

func TestRouter_FavoritesRequireAuth(t *testing.T) {
	handler, cfg := newTestRouter(t, &stubOrders{})
	productID := uuid.NewString()

	assert.Equal(t, http.StatusUnauthorized, doRequest(handler, http.MethodGet, "/api/products/favorites", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(handler, http.MethodPost, "/api/products/"+productID+"/favorite", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(handler, http.MethodDelete, "/api/products/"+productID+"/favorite", "", "").Code)

	_, customer := mintToken(t, cfg, enums.UserRoleCustomer)
	assert.Equal(t, http.StatusOK, doRequest(handler, http.MethodGet, "/api/products/favorites", customer, "").Code)
	assert.Equal(t, http.StatusCreated, doRequest(handler, http.MethodPost, "/api/products/"+productID+"/favorite", customer, "").Code)
	assert.Equal(t, http.StatusOK, doRequest(handler, http.MethodDelete, "/api/products/"+productID+"/favorite", customer, "").Code)
}

func TestRouter_StaffGating(t *testing.T) {
	handler, cfg := newTestRouter(t, &stubOrders{})

	_, customer := mintToken(t, cfg, enums.UserRoleCustomer)
	_, manager := mintToken(t, cfg, enums.UserRoleManager)

	assert.Equal(t, http.StatusForbidden, doRequest(handler, http.MethodGet, "/api/dashboard/stats", customer, "").Code)
	assert.Equal(t, http.StatusForbidden, doRequest(handler, http.MethodGet, "/api/feedback", customer, "").Code)
	assert.Equal(t, http.StatusForbidden, doRequest(handler, http.MethodPut,
		"/api/orders/"+uuid.NewString()+"/status", customer, `{"status":"confirmed"}`).Code)

	assert.Equal(t, http.StatusOK, doRequest(handler, http.MethodGet, "/api/dashboard/stats", manager, "").Code)
	assert.Equal(t, http.StatusOK, doRequest(handler, http.MethodGet, "/api/feedback", manager, "").Code)
	assert.Equal(t, http.StatusOK, doRequest(handler, http.MethodPut,
		"/api/orders/"+uuid.NewString()+"/status", manager, `{"status":"confirmed"}`).Code)
}

func TestRouter_InvalidPathID(t *testing.T) {
	handler, cfg := newTestRouter(t, &stubOrders{})
	_, manager := mintToken(t, cfg, enums.UserRoleManager)

	rec := doRequest(handler, http.MethodGet, "/api/orders/not-a-uuid", manager, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
