// Package api defines the JSON bodies exchanged between the storefront
// backend and its clients.
package api

import (
	"time"

	"github.com/google/uuid"
)

type MessageResponse struct {
	Message string `json:"message"`
}

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=1,max=72"`
}

type VerifyCodeRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code" validate:"required,len=6,numeric"`
	Password string `json:"password" validate:"required,min=1,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=1,max=72"`
}

type UpdatePasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required,min=1,max=72"`
}

// AuthResponse carries a fresh session token.
type AuthResponse struct {
	Message   string    `json:"message"`
	UserID    uuid.UUID `json:"userId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type AddressRequest struct {
	Name         string `json:"name" validate:"required,notblank"`
	Address      string `json:"address" validate:"required,notblank"`
	MobileNumber string `json:"mobileNumber" validate:"required,notblank"`
}

// AddressUpdateRequest is a partial update; nil fields are left unchanged.
type AddressUpdateRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,notblank"`
	Address      *string `json:"address,omitempty" validate:"omitempty,notblank"`
	MobileNumber *string `json:"mobileNumber,omitempty" validate:"omitempty,notblank"`
}

type Address struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	MobileNumber string    `json:"mobileNumber"`
	CreatedAt    time.Time `json:"createdAt"`
}

type AddressResponse struct {
	Message string  `json:"message"`
	Address Address `json:"address"`
}

type AddressListResponse struct {
	Addresses []Address `json:"addresses"`
}

// OrderItem is one cart line as submitted at checkout.
type OrderItem struct {
	ProductID string   `json:"id" validate:"required"`
	Name      string   `json:"name" validate:"required"`
	Price     float64  `json:"price" validate:"gte=0"`
	Image     string   `json:"image,omitempty"`
	Quantity  int      `json:"quantity" validate:"gte=1"`
	Discount  *float64 `json:"discount,omitempty" validate:"omitempty,gte=0,lte=100"`
	Size      string   `json:"size"`
}

type ShippingAddress struct {
	Name         string `json:"name" validate:"required,notblank"`
	Address      string `json:"address" validate:"required,notblank"`
	MobileNumber string `json:"mobileNumber" validate:"required,notblank"`
}

type CreateOrderRequest struct {
	Items   []OrderItem     `json:"items" validate:"required,min=1,dive"`
	Total   float64         `json:"total" validate:"gte=0"`
	Address ShippingAddress `json:"address"`
}

type Order struct {
	ID                uuid.UUID       `json:"id"`
	UserID            uuid.UUID       `json:"userId"`
	Items             []OrderItem     `json:"items"`
	Total             float64         `json:"total"`
	Address           ShippingAddress `json:"address"`
	CreatedAt         time.Time       `json:"createdAt"`
	NotifiedAt        *time.Time      `json:"notifiedAt,omitempty"`
	NotificationError string          `json:"notificationError,omitempty"`
}

type OrderResponse struct {
	Message string `json:"message,omitempty"`
	Order   Order  `json:"order"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

type OrderListResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

type Category struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Product struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Price       float64    `json:"price"`
	Description string     `json:"description"`
	Images      []string   `json:"images"`
	Discount    *float64   `json:"discount,omitempty"`
	Sizes       []string   `json:"sizes"`
	Categories  []Category `json:"categories,omitempty"`
}

type ProductListResponse struct {
	Products   []Product   `json:"products"`
	Pagination *Pagination `json:"pagination,omitempty"`
}
