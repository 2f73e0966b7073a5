package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/online_wallet/internal/wallet"
)

// RegisterWalletRoutes wires the online wallet endpoints under r. Paths match
// case-insensitively, so /OnlineWallet/Balance reaches the same handler.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, mw ...fiber.Handler) {
	group := r.Group("/onlinewallet", mw...)
	group.Get("/balance", h.Balance)
	group.Post("/deposit", h.Deposit)
	group.Post("/withdraw", h.Withdraw)
}
