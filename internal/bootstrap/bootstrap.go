package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"go-dblog/internal/config"
	"go-dblog/internal/handlers"
	"go-dblog/internal/logging"
	"go-dblog/internal/models"
	"go-dblog/internal/repositories"
	"go-dblog/internal/services"

	"go.uber.org/zap"
)

// AppComponents holds the initialized sink, services and handlers.
type AppComponents struct {
	LogRepo     repositories.LogRepository
	DBHandler   *logging.DBHandler // nil when LOG_DB_ENABLED is false
	Chain       *logging.Chain
	AuthHandler *handlers.AuthHandler
	LogHandler  *handlers.LogHandler
}

// NewDBHandler builds the repository and database handler described by cfg.
// db is borrowed; the caller keeps ownership and closes it.
func NewDBHandler(cfg *config.Config, db *sql.DB, logger *zap.Logger) (repositories.LogRepository, *logging.DBHandler, error) {
	dialect, err := repositories.DialectFor(cfg.DBDriver)
	if err != nil {
		return nil, nil, err
	}
	level, err := models.ParseLevel(cfg.LogDBLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("LOG_DB_LEVEL: %w", err)
	}

	logRepo := repositories.NewLogRepository(db, dialect, logger)
	handler, err := logging.NewDBHandler(logRepo,
		logging.WithTable(cfg.LogTable),
		logging.WithAdditionalFields(cfg.LogAdditionalFields...),
		logging.WithLevel(level),
		logging.WithBubble(cfg.LogBubble),
		logging.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, err
	}
	return logRepo, handler, nil
}

// InitializeAppComponents wires the database sink into appLoggers and creates
// the services and handlers. When the database sink is enabled the schema is
// reconciled eagerly so a misconfigured table fails at startup.
func InitializeAppComponents(ctx context.Context, cfg *config.Config, appLoggers *logging.AppLoggers, db *sql.DB) (*AppComponents, error) {
	fileLogger := appLoggers.File
	fileLogger.Info("Initializing application components: Repositories, Handler chain, Services, Handlers...")

	components := &AppComponents{Chain: logging.NewChain()}

	if cfg.LogDBEnabled {
		logRepo, dbHandler, err := NewDBHandler(cfg, db, fileLogger)
		if err != nil {
			return nil, fmt.Errorf("database handler: %w", err)
		}
		diff, err := dbHandler.Initialize(ctx)
		if err != nil {
			return nil, fmt.Errorf("reconcile log table: %w", err)
		}
		if !diff.Empty() {
			fileLogger.Info("Log table schema reconciled",
				zap.String("table", dbHandler.Table()),
				zap.Strings("added", diff.Added),
				zap.Strings("removed", diff.Removed),
			)
		}
		components.LogRepo = logRepo
		components.DBHandler = dbHandler
		components.Chain.Push(dbHandler)
		appLoggers.AttachDB(components.Chain, cfg.LogChannel)
		fileLogger.Info("Database handler initialized",
			zap.String("table", dbHandler.Table()),
			zap.Strings("resolvedFields", dbHandler.ResolvedFields()),
		)
	} else {
		appLoggers.DB = fileLogger
		fileLogger.Info("Database logger is disabled by configuration.")
	}

	authService := services.NewAuthService(cfg.IngestAPIKeyHash, cfg.JWTSecret, fileLogger)
	ingestService := services.NewIngestService(components.Chain, fileLogger)
	fileLogger.Info("Services initialized.")

	components.AuthHandler = handlers.NewAuthHandler(authService)
	components.LogHandler = handlers.NewLogHandler(ingestService)
	fileLogger.Info("Handlers initialized.")

	return components, nil
}
