package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/apperrors"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/services"
)

// PasswordResetHandler serves forgot/reset/update password endpoints.
type PasswordResetHandler struct {
	auth *services.AuthService
}

func NewPasswordResetHandler(auth *services.AuthService) *PasswordResetHandler {
	return &PasswordResetHandler{auth: auth}
}

// ForgotPassword emails a reset code to a registered address.
func (h *PasswordResetHandler) ForgotPassword(c *fiber.Ctx) error {
	var req api.ForgotPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.auth.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return err
	}

	return c.JSON(api.MessageResponse{Message: "Password reset code sent to your email"})
}

// ResetPassword sets a new password using an emailed code.
func (h *PasswordResetHandler) ResetPassword(c *fiber.Ctx) error {
	var req api.ResetPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.auth.ResetPassword(c.UserContext(), req.Email, req.Code, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(api.MessageResponse{Message: "Password reset successful"})
}

// UpdatePassword changes the password of the authenticated user.
func (h *PasswordResetHandler) UpdatePassword(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return apperrors.ErrUnauthorized
	}

	var req api.UpdatePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.auth.UpdatePassword(c.UserContext(), userID, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(api.MessageResponse{Message: "Password updated successfully"})
}
