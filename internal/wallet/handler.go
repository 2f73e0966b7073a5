package wallet

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/congo-pay/online_wallet/internal/ledger"
	"github.com/congo-pay/online_wallet/internal/logging"
	"github.com/congo-pay/online_wallet/internal/problem"
)

// TitleInsufficientFunds is the problem title returned for rejected withdrawals.
const TitleInsufficientFunds = "Invalid withdrawal amount. There are insufficient funds."

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{service: service, logger: logger}
}

// Balance returns the current wallet balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	balance, err := h.service.GetBalance(c.UserContext())
	if err != nil {
		return h.fail(c, "balance", err)
	}
	return c.Status(http.StatusOK).JSON(newBalanceResponse(balance))
}

// Deposit credits the wallet and returns the resulting balance.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	return h.movement(c, "deposit", h.service.Deposit)
}

// Withdraw debits the wallet and returns the resulting balance.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	return h.movement(c, "withdraw", h.service.Withdraw)
}

func (h *Handler) movement(c *fiber.Ctx, op string, apply func(context.Context, decimal.Decimal) (Balance, error)) error {
	var req MovementRequest
	if err := c.BodyParser(&req); err != nil {
		return problem.Write(c, problem.Validation(map[string][]string{fieldAmount: {msgAmountInvalid}}))
	}
	if fields := req.validate(); fields != nil {
		return problem.Write(c, problem.Validation(fields))
	}

	balance, err := apply(c.UserContext(), *req.Amount)
	if err != nil {
		return h.fail(c, op, err)
	}
	return c.Status(http.StatusOK).JSON(newBalanceResponse(balance))
}

func (h *Handler) fail(c *fiber.Ctx, op string, err error) error {
	var storageErr *ledger.StorageError
	switch {
	case errors.Is(err, ErrInsufficientBalance):
		return problem.Write(c, problem.New(http.StatusBadRequest, TitleInsufficientFunds))
	case errors.Is(err, ErrInvalidAmount):
		return problem.Write(c, problem.Validation(map[string][]string{fieldAmount: {msgAmountInvalid}}))
	case errors.Is(err, ledger.ErrConcurrentModification):
		h.logger.WarnContext(c.UserContext(), "wallet "+op+" conflicted", slog.Any("error", err))
		return problem.Write(c, problem.New(http.StatusServiceUnavailable, "The wallet is busy. Retry the request."))
	case errors.As(err, &storageErr):
		h.logger.ErrorContext(c.UserContext(), "wallet "+op+" storage failure", slog.String("op", storageErr.Op), slog.Any("error", err))
		return problem.Write(c, problem.New(http.StatusInternalServerError, "An error occurred while processing your request."))
	default:
		h.logger.ErrorContext(c.UserContext(), "wallet "+op+" failed", slog.Any("error", err))
		return problem.Write(c, problem.New(http.StatusInternalServerError, "An error occurred while processing your request."))
	}
}
