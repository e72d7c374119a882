package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/repository/memory"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/verification"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []services.Message
}

func (m *captureMailer) Send(_ context.Context, msg services.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) lastCode(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].To == to {
			body := m.sent[i].Body
			return body[strings.LastIndex(body, " ")+1:]
		}
	}
	return ""
}

type testServer struct {
	app    *fiber.App
	mailer *captureMailer
	store  *memory.Store
}

func newTestServer(t *testing.T, burst int) *testServer {
	t.Helper()
	store := memory.NewStore()
	store.SeedDemoCatalog()
	mailer := &captureMailer{}
	cfg := &config.Config{
		JWTSecret:      "test-secret",
		TokenExpires:   time.Hour,
		ShopName:       "T-Shirt Ecommerce",
		OperatorEmail:  "orders@storefront.local",
		RateLimitRPS:   0.001,
		RateLimitBurst: burst,
	}
	app := NewApp(Dependencies{
		Config:      cfg,
		Users:       store.Users(),
		Addresses:   store.Addresses(),
		Orders:      store.Orders(),
		Products:    store.Products(),
		Categories:  store.Categories(),
		Codes:       verification.NewMemoryStore(time.Minute),
		Mailer:      mailer,
		RateLimiter: middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	})
	return &testServer{app: app, mailer: mailer, store: store}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *testServer) register(t *testing.T, email string) api.AuthResponse {
	t.Helper()
	status := s.do(t, http.MethodPost, "/auth/signup", "", api.SignupRequest{Email: email, Password: "pw1"}, nil)
	require.Equal(t, http.StatusOK, status)

	var auth api.AuthResponse
	status = s.do(t, http.MethodPost, "/auth/verify-code", "", api.VerifyCodeRequest{
		Email: email, Code: s.mailer.lastCode(email), Password: "pw1",
	}, &auth)
	require.Equal(t, http.StatusCreated, status)
	return auth
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, 10)
	auth := s.register(t, "a@x.io")
	assert.NotEmpty(t, auth.Token)
	assert.True(t, auth.ExpiresAt.After(time.Now()))

	var login api.AuthResponse
	status := s.do(t, http.MethodPost, "/auth/login", "", api.LoginRequest{Email: "a@x.io", Password: "pw1"}, &login)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, auth.UserID, login.UserID)

	var msg api.MessageResponse
	status = s.do(t, http.MethodPost, "/auth/login", "", api.LoginRequest{Email: "a@x.io", Password: "bad"}, &msg)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid email or password", msg.Message)

	status = s.do(t, http.MethodPost, "/auth/signup", "", api.SignupRequest{Email: "a@x.io", Password: "pw"}, &msg)
	assert.Equal(t, http.StatusConflict, status)
}

func TestVerifyCodeRejectsBadCode(t *testing.T) {
	s := newTestServer(t, 10)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/auth/signup", "", api.SignupRequest{Email: "a@x.io", Password: "pw"}, nil))

	var msg api.MessageResponse
	status := s.do(t, http.MethodPost, "/auth/verify-code", "", api.VerifyCodeRequest{Email: "a@x.io", Code: "12345x", Password: "pw"}, &msg)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, msg.Message, "code")
}

func TestValidationErrors(t *testing.T) {
	s := newTestServer(t, 10)

	var msg api.MessageResponse
	status := s.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"email": "not-an-email"}, &msg)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, msg.Message, "email must be a valid email")
	assert.Contains(t, msg.Message, "password is required")
}

func TestPasswordEndpoints(t *testing.T) {
	s := newTestServer(t, 10)
	auth := s.register(t, "a@x.io")

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/auth/forgot-password", "", api.ForgotPasswordRequest{Email: "a@x.io"}, nil))
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/auth/reset-password", "", api.ResetPasswordRequest{
		Email: "a@x.io", Code: s.mailer.lastCode("a@x.io"), NewPassword: "pw2",
	}, nil))
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/auth/login", "", api.LoginRequest{Email: "a@x.io", Password: "pw2"}, nil))

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPut, "/auth/update-password", "", api.UpdatePasswordRequest{NewPassword: "pw3"}, nil))
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/auth/update-password", auth.Token, api.UpdatePasswordRequest{NewPassword: "pw3"}, nil))
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/auth/login", "", api.LoginRequest{Email: "a@x.io", Password: "pw3"}, nil))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, 10)

	var msg api.MessageResponse
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/addresses", "", nil, &msg))
	assert.Equal(t, "missing authorization header", msg.Message)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/addresses", "garbage", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/orders", "garbage", api.CreateOrderRequest{}, nil))
}

func TestAddressOwnership(t *testing.T) {
	s := newTestServer(t, 10)
	alice := s.register(t, "alice@x.io")
	bob := s.register(t, "bob@x.io")

	var created api.AddressResponse
	status := s.do(t, http.MethodPost, "/addresses", alice.Token, api.AddressRequest{
		Name: "Alice", Address: "1 Main St", MobileNumber: "555",
	}, &created)
	require.Equal(t, http.StatusCreated, status)

	path := "/addresses/" + created.Address.ID.String()
	name := "Mallory"
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPut, path, bob.Token, api.AddressUpdateRequest{Name: &name}, nil))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, path, bob.Token, nil, nil))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/addresses/not-a-uuid", bob.Token, nil, nil))

	var list api.AddressListResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/addresses", bob.Token, nil, &list))
	assert.Empty(t, list.Addresses)

	mobile := "777"
	var updated api.AddressResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, path, alice.Token, api.AddressUpdateRequest{MobileNumber: &mobile}, &updated))
	assert.Equal(t, "Alice", updated.Address.Name)
	assert.Equal(t, "777", updated.Address.MobileNumber)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/addresses", alice.Token, api.AddressRequest{Name: "A", Address: " ", MobileNumber: "1"}, nil))
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, path, alice.Token, nil, nil))
}

func TestCreateAndListOrders(t *testing.T) {
	s := newTestServer(t, 10)
	auth := s.register(t, "a@x.io")

	req := api.CreateOrderRequest{
		Items:   []api.OrderItem{{ProductID: "p1", Name: "Classic Tee", Price: 10, Quantity: 2, Size: "M"}},
		Total:   20,
		Address: api.ShippingAddress{Name: "Ann", Address: "1 Main St", MobileNumber: "555"},
	}
	var created api.OrderResponse
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/orders", auth.Token, req, &created))
	assert.Equal(t, 20.0, created.Order.Total)
	assert.NotNil(t, created.Order.NotifiedAt)

	var list api.OrderListResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/orders?page=1&limit=5", auth.Token, nil, &list))
	require.Len(t, list.Orders, 1)
	assert.EqualValues(t, 1, list.Pagination.Total)

	var got api.OrderResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/orders/"+created.Order.ID.String(), auth.Token, nil, &got))
	assert.Equal(t, "Classic Tee", got.Order.Items[0].Name)

	other := s.register(t, "b@x.io")
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/orders/"+created.Order.ID.String(), other.Token, nil, nil))

	bad := req
	bad.Items = []api.OrderItem{{ProductID: "p1", Name: "Tee", Price: 10, Quantity: 0}}
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/orders", auth.Token, bad, nil))
	bad.Items = nil
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/orders", auth.Token, bad, nil))
}

func TestCatalogRoutes(t *testing.T) {
	s := newTestServer(t, 10)

	var list api.ProductListResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/products?limit=2", "", nil, &list))
	assert.Len(t, list.Products, 2)
	require.NotNil(t, list.Pagination)
	assert.EqualValues(t, 3, list.Pagination.Total)

	var found api.ProductListResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/products/search?name=tee&size=L", "", nil, &found))
	assert.Len(t, found.Products, 2)

	var categories []api.Category
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/categories", "", nil, &categories))
	require.Len(t, categories, 3)

	var byCategory api.ProductListResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/products/category/"+categories[0].ID.String(), "", nil, &byCategory))
	assert.NotEmpty(t, byCategory.Products)

	var product api.Product
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/products/"+found.Products[0].ID.String(), "", nil, &product))
	assert.Equal(t, found.Products[0].Name, product.Name)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/products/not-a-uuid", "", nil, nil))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/categories/"+found.Products[0].ID.String(), "", nil, nil))
}

func TestSignupIsRateLimited(t *testing.T) {
	s := newTestServer(t, 1)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/auth/signup", "", api.SignupRequest{Email: "a@x.io", Password: "pw"}, nil))

	var msg api.MessageResponse
	assert.Equal(t, http.StatusTooManyRequests, s.do(t, http.MethodPost, "/auth/signup", "", api.SignupRequest{Email: "b@x.io", Password: "pw"}, &msg))
	assert.Contains(t, msg.Message, "rate limit")
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, 10)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health", "", nil, nil))

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `storefront_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
