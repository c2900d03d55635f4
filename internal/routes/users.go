package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/demo-credit/demo_credit/internal/user"
)

// RegisterUserRoutes wires onboarding and authentication endpoints.
func RegisterUserRoutes(r fiber.Router, h *user.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/users")
	group.Post("", h.Register)
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
}
