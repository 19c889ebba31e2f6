package routes

import (
	"context"
	"database/sql"
	"time"

	"go-dblog/internal/bootstrap"
	"go-dblog/internal/config"
	mw "go-dblog/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const healthPingTimeout = 3 * time.Second

// SetupRoutes configures the application routes.
func SetupRoutes(
	app *fiber.App,
	cfg *config.Config,
	logger *zap.Logger,
	components *bootstrap.AppComponents,
	db *sql.DB, // Pass DB handle for health check
) {
	logger.Info("Setting up application routes...")

	app.Get("/health", func(c *fiber.Ctx) error {
		healthStatus := fiber.Map{"status": "healthy", "timestamp": time.Now().UTC()}
		dbStatus := fiber.Map{"driver": cfg.DBDriver}
		code := fiber.StatusOK

		if db != nil {
			pingCtx, cancel := context.WithTimeout(c.UserContext(), healthPingTimeout)
			defer cancel()
			if err := db.PingContext(pingCtx); err == nil {
				dbStatus["status"] = "connected"
			} else {
				dbStatus["status"] = "disconnected"
				healthStatus["status"] = "degraded"
				code = fiber.StatusServiceUnavailable
				mw.GetRequestFileLogger(c).Warn("Health check: database ping failed", zap.Error(err))
			}
		} else {
			dbStatus["status"] = "uninitialized"
		}
		if components != nil && components.DBHandler != nil {
			dbStatus["table"] = components.DBHandler.Table()
			dbStatus["initialized"] = components.DBHandler.Initialized()
		}
		healthStatus["database"] = dbStatus
		return c.Status(code).JSON(healthStatus)
	})

	api := app.Group("/api/v1")

	// POST /api/v1/auth/token
	components.AuthHandler.SetupAuthRoutes(api)

	// POST /api/v1/logs
	components.LogHandler.SetupLogRoutes(api, mw.Protected(cfg.JWTSecret))
}
