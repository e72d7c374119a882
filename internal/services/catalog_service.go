package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/example/storefront/internal/apperrors"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/repository"
)

// CatalogService serves read-only product and category queries.
type CatalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
}

func NewCatalogService(products repository.ProductRepository, categories repository.CategoryRepository) *CatalogService {
	return &CatalogService{products: products, categories: categories}
}

func (s *CatalogService) ListProducts(ctx context.Context, limit, offset int) ([]models.Product, int64, error) {
	products, total, err := s.products.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Internal(fmt.Errorf("list products: %w", err))
	}
	return products, total, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, apperrors.Internal(fmt.Errorf("get product: %w", err))
	}
	return product, nil
}

// ProductsByCategory fails with ErrCategoryNotFound for unknown categories.
func (s *CatalogService) ProductsByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Product, error) {
	if _, err := s.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	products, err := s.products.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("list category products: %w", err))
	}
	return products, nil
}

func (s *CatalogService) SearchProducts(ctx context.Context, name, size string) ([]models.Product, error) {
	products, err := s.products.Search(ctx, repository.ProductFilter{Name: name, Size: size})
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("search products: %w", err))
	}
	return products, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("list categories: %w", err))
	}
	return categories, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	category, err := s.categories.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Internal(fmt.Errorf("get category: %w", err))
	}
	return category, nil
}
