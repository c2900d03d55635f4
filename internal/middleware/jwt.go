package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/demo-credit/demo_credit/internal/apperrors"
	"github.com/demo-credit/demo_credit/internal/auth"
	"github.com/demo-credit/demo_credit/internal/user"
)

// JWTAuth validates bearer tokens and resolves the authenticated account,
// storing its id in c.Locals("user_id").
func JWTAuth(secret string, users user.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return apperrors.Unauthorized("Missing or malformed Authorization header.")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])

		claims, err := auth.ParseAndVerifyHS256(tokenStr, []byte(secret))
		if err != nil {
			return apperrors.Unauthorized("Token is invalid or has expired.")
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			return apperrors.Unauthorized("Token is invalid or has expired.")
		}

		u, err := users.FindByID(c.UserContext(), sub)
		if err != nil {
			return apperrors.Unauthorized("Token is invalid or has been revoked.")
		}

		c.Locals("user_id", u.ID)
		return c.Next()
	}
}
