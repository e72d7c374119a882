package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/storefront/internal/apperrors"
	"github.com/example/storefront/internal/utils"
)

const (
	userContextKey  = "currentUserID"
	emailContextKey = "currentUserEmail"
)

// AuthMiddleware validates bearer tokens and loads the user into locals.
func AuthMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperrors.New(apperrors.KindUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return apperrors.New(apperrors.KindUnauthorized, "invalid authorization header")
		}

		claims, userID, err := utils.ParseToken(secret, strings.TrimSpace(parts[1]))
		if err != nil {
			return apperrors.New(apperrors.KindUnauthorized, "invalid or expired token")
		}

		c.Locals(userContextKey, userID)
		c.Locals(emailContextKey, claims.Email)
		return c.Next()
	}
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(userContextKey).(uuid.UUID)
	return id, ok
}

func GetCurrentUserEmail(c *fiber.Ctx) string {
	email, _ := c.Locals(emailContextKey).(string)
	return email
}
