package routes

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/online_wallet/internal/config"
	"github.com/congo-pay/online_wallet/internal/events"
	"github.com/congo-pay/online_wallet/internal/ledger"
	"github.com/congo-pay/online_wallet/internal/middleware"
	"github.com/congo-pay/online_wallet/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg       config.Config
	DB        *pgxpool.Pool
	Cache     *redis.Client
	Logger    *slog.Logger
	Ledger    ledger.Store
	Publisher events.Publisher
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Ledger == nil {
		return errors.New("routes: ledger store is required")
	}
	if d.Cfg.IdempotencyRequired && d.Cache == nil {
		return errors.New("routes: IDEMPOTENCY_REQUIRED needs REDIS_URL")
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	if d.Cfg.IsDev() {
		// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}
	app.Use(middleware.Audit(d.Logger))

	// Health
	RegisterHealthRoutes(app, d)

	walletSvc := wallet.NewService(d.Ledger, d.Publisher, d.Logger,
		wallet.WithAppendAttempts(d.Cfg.AppendRetries),
	)
	walletHandler := wallet.NewHandler(walletSvc, d.Logger)

	walletMiddleware := []fiber.Handler{
		middleware.RateLimit(d.Cache, d.Cfg.RateLimitPerMinute, d.Logger),
		middleware.Idempotency(middleware.IdempotencyConfig{
			Cache:    d.Cache,
			TTL:      d.Cfg.IdempotencyTTL,
			Logger:   d.Logger,
			Required: d.Cfg.IdempotencyRequired,
		}),
	}

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals(middleware.RequestIDKey).(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterWalletRoutes(api, walletHandler, walletMiddleware...)
	// unversioned paths kept for existing /OnlineWallet clients
	RegisterWalletRoutes(app, walletHandler, walletMiddleware...)

	return nil
}
