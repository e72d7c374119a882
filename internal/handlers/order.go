package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/apperrors"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

// OrderHandler serves checkout and order history.
type OrderHandler struct {
	orders *services.OrderService
}

func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// CreateOrder persists the submitted cart snapshot for the current user.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return apperrors.ErrUnauthorized
	}

	var req api.CreateOrderRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	order, err := h.orders.Create(c.UserContext(), userID, toModelItems(req.Items), req.Total, models.ShippingAddress{
		Name:         req.Address.Name,
		Address:      req.Address.Address,
		MobileNumber: req.Address.MobileNumber,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(api.OrderResponse{
		Message: "Order created successfully",
		Order:   toAPIOrder(order),
	})
}

// ListOrders returns orders for authenticated user, newest first.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return apperrors.ErrUnauthorized
	}

	pg := utils.ParsePagination(c)
	orders, total, err := h.orders.List(c.UserContext(), userID, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}

	out := make([]api.Order, len(orders))
	for i := range orders {
		out[i] = toAPIOrder(&orders[i])
	}
	return c.JSON(api.OrderListResponse{
		Orders:     out,
		Pagination: api.Pagination{Page: pg.Page, Limit: pg.Limit, Total: total},
	})
}

// GetOrder returns a single order for the authenticated user.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return apperrors.ErrUnauthorized
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperrors.ErrOrderNotFound
	}

	order, err := h.orders.Get(c.UserContext(), id, userID)
	if err != nil {
		return err
	}

	return c.JSON(api.OrderResponse{Order: toAPIOrder(order)})
}
