package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go-dblog/internal/bootstrap"
	"go-dblog/internal/config"
	"go-dblog/internal/database"
	"go-dblog/internal/logging"
	"go-dblog/internal/middleware"
	"go-dblog/internal/routes"
	"go-dblog/internal/utils"

	"github.com/DeRuina/timberjack"
	"github.com/gofiber/contrib/fiberzap/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	appName         = "go-dblog"
	shutdownTimeout = 60 * time.Second
)

// NewFileSyncer creates the rotating file writer shared by the file cores.
// It returns nil when no log file is configured.
func NewFileSyncer(cfg *config.Config) (zapcore.WriteSyncer, error) {
	if cfg.LogFilePath == "" {
		return nil, nil
	}
	logDir := filepath.Dir(cfg.LogFilePath)
	if logDir != "." && logDir != "/" {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory %s exists: %w", logDir, err)
		}
	}
	return zapcore.AddSync(&timberjack.Logger{
		Filename:         cfg.LogFilePath,
		MaxSize:          cfg.LogMaxSize,
		MaxBackups:       cfg.LogMaxBackups,
		MaxAge:           cfg.LogMaxAge,
		Compress:         cfg.LogCompress,
		LocalTime:        true,
		RotationInterval: time.Duration(cfg.LogRotateInterval) * time.Hour,
	}), nil
}

// NewFiberApp creates the Fiber application with its error handler and
// middleware stack.
func NewFiberApp(cfg *config.Config, fileLogger, dbLogger *zap.Logger) *fiber.App {
	appFiber := fiber.New(fiber.Config{
		AppName: appName,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			lg := middleware.GetRequestFileLogger(c)
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) && e != nil {
				code = e.Code
			}
			fields := []zap.Field{
				zap.Int("status", code),
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
				zap.String("ip", c.IP()),
				zap.Error(err),
			}
			if reqID := middleware.GetRequestID(c); reqID != "" {
				fields = append(fields, zap.String("request_id", reqID))
			}
			if code == fiber.StatusNotFound {
				lg.Warn("Resource not found", fields...)
			} else {
				lg.Error("Generic ErrorHandler", fields...)
			}
			resp := fiber.Map{"error": "An unexpected error occurred"}
			if cfg.AppEnv != "production" && err != nil {
				resp["detail"] = err.Error()
			}
			return c.Status(code).JSON(resp)
		},
	})

	appFiber.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.LogLevel == "debug",
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			middleware.GetRequestFileLogger(c).Error("Panic recovered", zap.Any("panic_value", e))
		},
	}))
	fileLogger.Info("Configuring CORS", zap.String("origins", cfg.CORSAllowOrigins), zap.String("methods", cfg.CORSAllowMethods), zap.String("headers", cfg.CORSAllowHeaders))
	appFiber.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowMethods: cfg.CORSAllowMethods,
		AllowHeaders: cfg.CORSAllowHeaders,
	}))
	appFiber.Use(middleware.RequestLoggers(fileLogger, dbLogger))
	if cfg.LogLevel == "debug" {
		appFiber.Use(middleware.RequestDebugLogger())
	}
	appFiber.Use(fiberzap.New(fiberzap.Config{
		Logger: fileLogger,
		Fields: []string{"status", "method", "url", "ip", "latency", "error"},
		FieldsFunc: func(c *fiber.Ctx) []zap.Field {
			fields := []zap.Field{zap.String("log_type", "access")}
			if reqID := middleware.GetRequestID(c); reqID != "" {
				fields = append(fields, zap.String("request_id", reqID))
			}
			return fields
		},
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health"
		},
	}))
	return appFiber
}

// Run loads the configuration, opens the database, reconciles the log table
// and serves the HTTP API until ctx is cancelled or a signal arrives.
func Run(ctx context.Context) error {
	initAppStartTime := time.Now()

	tempConfigLogger, _ := zap.NewProduction(zap.ErrorOutput(zapcore.Lock(os.Stderr)))
	defer tempConfigLogger.Sync()

	cfg, err := config.LoadConfig(tempConfigLogger)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	fileSyncer, err := NewFileSyncer(cfg)
	if err != nil {
		return err
	}

	appLoggers, err := logging.InitializeLoggers(cfg, nil, fileSyncer)
	if err != nil {
		return fmt.Errorf("initialize application loggers: %w", err)
	}
	fileLogger := appLoggers.File
	utils.TraceConfigDetails(fileLogger, cfg)

	db, err := database.Open(cfg, fileLogger)
	if err != nil {
		fileLogger.Error("Failed to open database", zap.String("driver", cfg.DBDriver), zap.Error(err))
		return err
	}
	defer closeDB(db, fileLogger)

	components, err := bootstrap.InitializeAppComponents(ctx, cfg, appLoggers, db)
	if err != nil {
		fileLogger.Error("Failed to initialize application components", zap.Error(err))
		return err
	}
	logging.SetGlobalLoggers(appLoggers.File, appLoggers.DB)

	appFiber := NewFiberApp(cfg, appLoggers.File, appLoggers.DB)
	routes.SetupRoutes(appFiber, cfg, fileLogger, components, db)

	serverCtx, cancelServerCtx := context.WithCancel(ctx)
	defer cancelServerCtx()
	serverStopped := make(chan struct{})
	var listenErr error

	go func() {
		defer close(serverStopped)
		listenAddr := ":" + cfg.Port
		fileLogger.Info(fmt.Sprintf("Completed initialization application in %d ms.", time.Since(initAppStartTime).Milliseconds()))
		fileLogger.Info("Starting Fiber server...",
			zap.String("address", listenAddr),
			zap.Int("pid", os.Getpid()),
			zap.String("app_env", cfg.AppEnv),
		)
		if err := appFiber.Listen(listenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fileLogger.Error("Server listener failed", zap.String("address", listenAddr), zap.Error(err))
			listenErr = err
			cancelServerCtx()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sig)
	select {
	case s := <-sig:
		fileLogger.Info("Shutdown signal received.", zap.String("signal", s.String()))
	case <-serverCtx.Done():
		fileLogger.Info("Server context cancelled, initiating shutdown.")
	}

	fileLogger.Info("Initiating graceful shutdown...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := appFiber.ShutdownWithContext(shutdownCtx); err != nil {
		fileLogger.Error("Fiber server shutdown failed", zap.Error(err))
	} else {
		fileLogger.Info("Fiber server gracefully stopped.")
	}
	<-serverStopped

	syncLogger(fileLogger)
	return listenErr
}

func syncLogger(logger *zap.Logger) {
	if errSync := logger.Sync(); errSync != nil {
		errMsg := errSync.Error()
		if strings.Contains(errMsg, "handle is invalid") || strings.Contains(errMsg, "sync /dev/stdout") {
			return
		}
		fmt.Fprintf(os.Stderr, "[WARN] Error syncing file/console logger: %v\n", errSync)
	}
}

func closeDB(db *sql.DB, logger *zap.Logger) {
	if err := db.Close(); err != nil {
		logger.Error("Error closing database", zap.Error(err))
		return
	}
	logger.Info("Database connection closed.")
}
