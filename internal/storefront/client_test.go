package storefront

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/checkout"
	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/repository/memory"
	"github.com/example/storefront/internal/routes"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/verification"
)

type inbox struct {
	mu   sync.Mutex
	sent []services.Message
}

func (m *inbox) Send(_ context.Context, msg services.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *inbox) lastCode(to string) string {
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

func (m *inbox) withSubjectPrefix(prefix string) []services.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []services.Message
	for _, msg := range m.sent {
		if strings.HasPrefix(msg.Subject, prefix) {
			out = append(out, msg)
		}
	}
	return out
}

func startServer(t *testing.T) (*Client, *inbox) {
	t.Helper()
	store := memory.NewStore()
	store.SeedDemoCatalog()
	mail := &inbox{}
	cfg := &config.Config{
		JWTSecret:      "e2e-secret",
		TokenExpires:   time.Hour,
		ShopName:       "T-Shirt Ecommerce",
		OperatorEmail:  "orders@storefront.local",
		RateLimitRPS:   100,
		RateLimitBurst: 100,
	}
	app := routes.NewApp(routes.Dependencies{
		Config:     cfg,
		Users:      store.Users(),
		Addresses:  store.Addresses(),
		Orders:     store.Orders(),
		Products:   store.Products(),
		Categories: store.Categories(),
		Codes:      verification.NewMemoryStore(time.Minute),
		Mailer:     mail,
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return NewClient("http://" + ln.Addr().String()), mail
}

func TestCheckoutEndToEnd(t *testing.T) {
	ctx := context.Background()
	client, mail := startServer(t)

	products, err := client.SearchProducts(ctx, "classic", "M")
	require.NoError(t, err)
	require.Len(t, products, 1)
	tee := products[0]

	c := cart.New()
	require.NoError(t, c.Add(cart.LineItem{
		ProductID: tee.ID.String(),
		Name:      tee.Name,
		UnitPrice: 10,
		Quantity:  2,
		Size:      "M",
	}))

	o := checkout.New(c, client)
	require.NoError(t, o.Begin(ctx))
	require.Equal(t, checkout.Anonymous, o.State())

	require.NoError(t, o.SignUp(ctx, "shopper@x.io", "secret1"))
	require.Equal(t, checkout.AwaitingCode, o.State())

	code := mail.lastCode("shopper@x.io")
	require.Len(t, code, 6)
	require.NoError(t, o.Verify(ctx, code))
	require.Equal(t, checkout.NoAddress, o.State())

	require.NoError(t, o.AddAddress(ctx, api.AddressRequest{Name: "Ann", Address: "1 Main St", MobileNumber: "555-0100"}))
	require.Equal(t, checkout.OrderReview, o.State())

	order, err := o.PlaceOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20.0, order.Total)
	assert.Equal(t, checkout.OrderPlaced, o.State())
	assert.True(t, c.IsEmpty())

	confirmations := mail.withSubjectPrefix("Order Confirmation")
	require.Len(t, confirmations, 2)
	assert.Equal(t, "shopper@x.io", confirmations[0].To)
	assert.Equal(t, "orders@storefront.local", confirmations[1].To)
	assert.Contains(t, confirmations[0].Body, "Total: $20.00")

	history, err := client.ListOrders(ctx, o.Session().Token, 1, 10)
	require.NoError(t, err)
	require.Len(t, history.Orders, 1)
	assert.Equal(t, order.ID, history.Orders[0].ID)
}

func TestLoginAgainReusesAddress(t *testing.T) {
	ctx := context.Background()
	client, mail := startServer(t)

	require.NoError(t, client.Signup(ctx, "b@x.io", "secret1"))
	auth, err := client.VerifyCode(ctx, "b@x.io", mail.lastCode("b@x.io"), "secret1")
	require.NoError(t, err)
	_, err = client.CreateAddress(ctx, auth.Token, api.AddressRequest{Name: "Bo", Address: "9 Oak", MobileNumber: "1"})
	require.NoError(t, err)

	c := cart.New()
	require.NoError(t, c.Add(cart.LineItem{ProductID: "x", Name: "Tee", UnitPrice: 5, Quantity: 1, Size: "S"}))
	o := checkout.New(c, client)
	require.NoError(t, o.Begin(ctx))
	require.NoError(t, o.Login(ctx, "B@x.io", "secret1"))
	assert.Equal(t, checkout.OrderReview, o.State())
	assert.Equal(t, "9 Oak", o.Address().Address)
}

func TestPasswordResetThroughClient(t *testing.T) {
	ctx := context.Background()
	client, mail := startServer(t)

	require.NoError(t, client.Signup(ctx, "c@x.io", "secret1"))
	_, err := client.VerifyCode(ctx, "c@x.io", mail.lastCode("c@x.io"), "secret1")
	require.NoError(t, err)

	require.NoError(t, client.ForgotPassword(ctx, "c@x.io"))
	require.NoError(t, client.ResetPassword(ctx, "c@x.io", mail.lastCode("c@x.io"), "secret2"))

	_, err = client.Login(ctx, "c@x.io", "secret1")
	assert.True(t, IsStatus(err, http.StatusUnauthorized))

	auth, err := client.Login(ctx, "c@x.io", "secret2")
	require.NoError(t, err)
	require.NoError(t, client.UpdatePassword(ctx, auth.Token, "secret3"))
	_, err = client.Login(ctx, "c@x.io", "secret3")
	assert.NoError(t, err)
}

func TestAPIErrorMapsUnauthorized(t *testing.T) {
	ctx := context.Background()
	client, _ := startServer(t)

	_, err := client.ListAddresses(ctx, "not-a-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, checkout.ErrUnauthorized)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "invalid or expired token", apiErr.Message)

	_, err = client.GetProduct(ctx, "missing")
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.NotErrorIs(t, err, checkout.ErrUnauthorized)
}

func TestNonJSONErrorFallsBackToStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	err := NewClient(srv.URL).Signup(context.Background(), "a@x.io", "pw")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestClientHonorsContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := NewClient(srv.URL).Login(ctx, "a@x.io", "pw")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
