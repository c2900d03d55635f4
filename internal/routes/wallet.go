package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/demo-credit/demo_credit/internal/ledger"
)

// RegisterWalletRoutes wires wallet and transaction endpoints.
func RegisterWalletRoutes(r fiber.Router, h *ledger.Handler) {
	group := r.Group("/wallet")
	group.Get("", h.Balance)
	group.Get("/transactions", h.History)
	group.Post("/fund", h.Fund)
	group.Post("/withdraw", h.Withdraw)
	group.Post("/transfer", h.Transfer)
}
