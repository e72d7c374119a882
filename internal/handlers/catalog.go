package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/apperrors"
	"github.com/example/storefront/internal/services"
)

// CatalogHandler serves category reads.
type CatalogHandler struct {
	catalog *services.CatalogService
}

func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.catalog.ListCategories(c.UserContext())
	if err != nil {
		return err
	}

	out := make([]api.Category, len(categories))
	for i, cat := range categories {
		out[i] = toAPICategory(cat)
	}
	return c.JSON(out)
}

func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperrors.ErrCategoryNotFound
	}

	category, err := h.catalog.GetCategory(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(toAPICategory(*category))
}
