package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/apperrors"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

// ProductHandler serves public product reads.
type ProductHandler struct {
	catalog *services.CatalogService
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(catalog *services.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// ListProducts returns paginated products.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	products, total, err := h.catalog.ListProducts(c.UserContext(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}

	return c.JSON(api.ProductListResponse{
		Products:   toAPIProducts(products),
		Pagination: &api.Pagination{Page: pg.Page, Limit: pg.Limit, Total: total},
	})
}

// GetProduct loads a product with its categories.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperrors.ErrProductNotFound
	}

	product, err := h.catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(toAPIProduct(product))
}

// ListByCategory returns every product in a category.
func (h *ProductHandler) ListByCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperrors.ErrCategoryNotFound
	}

	products, err := h.catalog.ProductsByCategory(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(api.ProductListResponse{Products: toAPIProducts(products)})
}

// Search filters products by name substring and size.
func (h *ProductHandler) Search(c *fiber.Ctx) error {
	products, err := h.catalog.SearchProducts(c.UserContext(), c.Query("name"), c.Query("size"))
	if err != nil {
		return err
	}

	return c.JSON(api.ProductListResponse{Products: toAPIProducts(products)})
}
