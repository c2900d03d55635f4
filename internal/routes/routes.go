package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/demo-credit/demo_credit/internal/config"
	"github.com/demo-credit/demo_credit/internal/karma"
	"github.com/demo-credit/demo_credit/internal/ledger"
	"github.com/demo-credit/demo_credit/internal/middleware"
	"github.com/demo-credit/demo_credit/internal/notification"
	"github.com/demo-credit/demo_credit/internal/storage"
	"github.com/demo-credit/demo_credit/internal/transaction"
	"github.com/demo-credit/demo_credit/internal/user"
	"github.com/demo-credit/demo_credit/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
	Karma  karma.Checker
}

// Setup configures middlewares and all application routes. Without a database
// the service runs on in-memory storage, which only development mode allows.
func Setup(app *fiber.App, d Deps) error {
	if d.DB == nil && !d.Cfg.IsDev() {
		return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
	}
	if d.Karma == nil {
		if d.Cfg.AdjutorAPIKey != "" {
			d.Karma = karma.NewClient(d.Cfg.AdjutorBaseURL, d.Cfg.AdjutorAPIKey, d.Logger)
		} else {
			d.Karma = karma.AllowAll()
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	var (
		txm     storage.TxManager
		users   user.Repository
		wallets wallet.Repository
		txlog   transaction.Repository
	)
	if d.DB != nil {
		txm = storage.NewPgxManager(d.DB)
		users = user.NewPostgresRepository(d.DB)
		wallets = wallet.NewPostgresRepository(d.DB)
		txlog = transaction.NewPostgresRepository(d.DB)
	} else {
		txm = storage.NewMemoryManager()
		users = user.NewMemoryRepository()
		wallets = wallet.NewMemoryRepository()
		txlog = transaction.NewMemoryRepository()
	}

	notifier := notification.NewLoggerNotifier(d.Logger)
	engine := ledger.NewEngine(txm, wallets, txlog, user.NewDirectory(users), notifier, d.Logger)
	userSvc := user.NewService(txm, users, wallets, d.Karma, d.Cfg.JWTSecret, d.Cfg.AccessTokenTTL, d.Logger)

	userHandler := user.NewHandler(userSvc)
	walletHandler := ledger.NewHandler(engine)

	RegisterHealthRoutes(app, d)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterUserRoutes(api, userHandler, middleware.LoginRateLimit(d.Cache, 5))

	protected := api.Group("", middleware.JWTAuth(d.Cfg.JWTSecret, users))
	protected.Get("/users/me", userHandler.Profile)
	RegisterWalletRoutes(protected, walletHandler)

	return nil
}
