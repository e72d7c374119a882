package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/apperrors"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/services"
)

// ProfileHandler serves the authenticated user's address book.
type ProfileHandler struct {
	addresses *services.AddressService
}

func NewProfileHandler(addresses *services.AddressService) *ProfileHandler {
	return &ProfileHandler{addresses: addresses}
}

// ListAddresses returns user addresses, oldest first.
func (h *ProfileHandler) ListAddresses(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return apperrors.ErrUnauthorized
	}

	addresses, err := h.addresses.List(c.UserContext(), userID)
	if err != nil {
		return err
	}

	out := make([]api.Address, len(addresses))
	for i := range addresses {
		out[i] = toAPIAddress(&addresses[i])
	}
	return c.JSON(api.AddressListResponse{Addresses: out})
}

// CreateAddress creates an address for the user.
func (h *ProfileHandler) CreateAddress(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return apperrors.ErrUnauthorized
	}

	var req api.AddressRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	address, err := h.addresses.Create(c.UserContext(), userID, req.Name, req.Address, req.MobileNumber)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(api.AddressResponse{
		Message: "Address created successfully",
		Address: toAPIAddress(address),
	})
}

// UpdateAddress applies a partial update to an owned address.
func (h *ProfileHandler) UpdateAddress(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return apperrors.ErrUnauthorized
	}

	addrID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperrors.ErrAddressNotFound
	}

	var req api.AddressUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Name == nil && req.Address == nil && req.MobileNumber == nil {
		return apperrors.Validation("no fields to update")
	}

	address, err := h.addresses.Update(c.UserContext(), addrID, userID, services.AddressFields{
		Name:         req.Name,
		Address:      req.Address,
		MobileNumber: req.MobileNumber,
	})
	if err != nil {
		return err
	}

	return c.JSON(api.AddressResponse{
		Message: "Address updated successfully",
		Address: toAPIAddress(address),
	})
}

// DeleteAddress removes an owned address.
func (h *ProfileHandler) DeleteAddress(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return apperrors.ErrUnauthorized
	}

	addrID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperrors.ErrAddressNotFound
	}

	if err := h.addresses.Delete(c.UserContext(), addrID, userID); err != nil {
		return err
	}

	return c.JSON(api.MessageResponse{Message: "Address deleted successfully"})
}
