package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/services"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	auth *services.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Signup emails a verification code to a new address.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req api.SignupRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.auth.Signup(c.UserContext(), req.Email, req.Password); err != nil {
		return err
	}

	return c.JSON(api.MessageResponse{Message: "Verification code sent to your email"})
}

// VerifyCode completes signup and returns a session token.
func (h *AuthHandler) VerifyCode(c *fiber.Ctx) error {
	var req api.VerifyCodeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	session, err := h.auth.VerifyCode(c.UserContext(), req.Email, req.Code, req.Password)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(authResponse("User registered successfully", session))
}

// Login exchanges credentials for a session token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req api.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(authResponse("Login successful", session))
}

func authResponse(message string, s *services.Session) api.AuthResponse {
	return api.AuthResponse{
		Message:   message,
		UserID:    s.UserID,
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
	}
}
