package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/demo-credit/demo_credit/internal/apperrors"
	"github.com/demo-credit/demo_credit/internal/config"
	"github.com/demo-credit/demo_credit/internal/karma"
	"github.com/demo-credit/demo_credit/internal/routes"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app   *fiber.App
	cfg   config.Config
	db    *pgxpool.Pool
	cache *redis.Client
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, checker karma.Checker, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: errorHandler(logger),
	})

	if err := routes.Setup(app, routes.Deps{Cfg: cfg, DB: db, Cache: cache, Logger: logger, Karma: checker}); err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg, db: db, cache: cache}, nil
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// errorHandler translates errors into the uniform error envelope.
func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return c.Status(appErr.Status).JSON(fiber.Map{
				"status":     "error",
				"message":    appErr.Message,
				"error_code": appErr.Code,
			})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"status":     "error",
				"message":    fiberErr.Message,
				"error_code": apperrors.CodeFor(fiberErr.Code),
			})
		}

		logger.Error("unhandled request error", "error", err, "path", c.Path())
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"status":     "error",
			"message":    "Something went wrong. Please try again later.",
			"error_code": apperrors.CodeInternal,
		})
	}
}
