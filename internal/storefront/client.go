// Package storefront is a typed HTTP client for the storefront API. It
// satisfies checkout.Backend.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/checkout"
	"github.com/example/storefront/internal/logger"
)

const defaultTimeout = 10 * time.Second

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("storefront api: %d %s", e.Status, e.Message)
}

// Is maps 401 responses onto checkout.ErrUnauthorized.
func (e *APIError) Is(target error) bool {
	return target == checkout.ErrUnauthorized && e.Status == http.StatusUnauthorized
}

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ checkout.Backend = (*Client)(nil)

func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn("Storefront request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg api.MessageResponse
		if json.Unmarshal(data, &msg) != nil || msg.Message == "" {
			msg.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) Signup(ctx context.Context, email, password string) error {
	return c.do(ctx, http.MethodPost, "/auth/signup", "", api.SignupRequest{Email: email, Password: password}, nil)
}

func (c *Client) VerifyCode(ctx context.Context, email, code, password string) (*api.AuthResponse, error) {
	var out api.AuthResponse
	req := api.VerifyCodeRequest{Email: email, Code: code, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/verify-code", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*api.AuthResponse, error) {
	var out api.AuthResponse
	req := api.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/forgot-password", "", api.ForgotPasswordRequest{Email: email}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	req := api.ResetPasswordRequest{Email: email, Code: code, NewPassword: newPassword}
	return c.do(ctx, http.MethodPost, "/auth/reset-password", "", req, nil)
}

func (c *Client) UpdatePassword(ctx context.Context, token, newPassword string) error {
	return c.do(ctx, http.MethodPut, "/auth/update-password", token, api.UpdatePasswordRequest{NewPassword: newPassword}, nil)
}

func (c *Client) ListAddresses(ctx context.Context, token string) ([]api.Address, error) {
	var out api.AddressListResponse
	if err := c.do(ctx, http.MethodGet, "/addresses", token, nil, &out); err != nil {
		return nil, err
	}
	return out.Addresses, nil
}

func (c *Client) CreateAddress(ctx context.Context, token string, req api.AddressRequest) (*api.Address, error) {
	var out api.AddressResponse
	if err := c.do(ctx, http.MethodPost, "/addresses", token, req, &out); err != nil {
		return nil, err
	}
	return &out.Address, nil
}

func (c *Client) CreateOrder(ctx context.Context, token string, req api.CreateOrderRequest) (*api.Order, error) {
	var out api.OrderResponse
	if err := c.do(ctx, http.MethodPost, "/orders", token, req, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}

func (c *Client) ListOrders(ctx context.Context, token string, page, limit int) (*api.OrderListResponse, error) {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("limit", fmt.Sprint(limit))
	var out api.OrderListResponse
	if err := c.do(ctx, http.MethodGet, "/orders?"+q.Encode(), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*api.Product, error) {
	var out api.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchProducts filters by case-insensitive name and exact size; empty
// values are omitted.
func (c *Client) SearchProducts(ctx context.Context, name, size string) ([]api.Product, error) {
	q := url.Values{}
	if name != "" {
		q.Set("name", name)
	}
	if size != "" {
		q.Set("size", size)
	}
	path := "/products/search"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out api.ProductListResponse
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
