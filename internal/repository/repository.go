// Package repository holds storage interfaces and their gorm implementations.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/example/storefront/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// AddressRepository scopes every lookup by owner.
type AddressRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	Create(ctx context.Context, address *models.Address) error
	FindOwned(ctx context.Context, id, userID uuid.UUID) (*models.Address, error)
	Save(ctx context.Context, address *models.Address) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	UpdateNotification(ctx context.Context, order *models.Order) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, int64, error)
	GetOwned(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
}

// ProductFilter narrows product search; empty fields match everything.
type ProductFilter struct {
	Name string
	Size string
}

type ProductRepository interface {
	List(ctx context.Context, limit, offset int) ([]models.Product, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Product, error)
	Search(ctx context.Context, filter ProductFilter) ([]models.Product, error)
}

type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Category, error)
}
