package utils

import (
	"fmt"

	"go-dblog/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TraceConfigDetails(logger *zap.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		fmt.Println("[WARN] logger or config is nil in TraceConfigDetails")
		return
	}
	maskedJWTSecret := "*** MASKED ***"
	if cfg.JWTSecret == "default-secret" {
		maskedJWTSecret = "default-secret (!!! WARNING: Using default JWT secret !!!)"
	} else if len(cfg.JWTSecret) < 8 {
		maskedJWTSecret = fmt.Sprintf("*** MASKED (short: %d chars) ***", len(cfg.JWTSecret))
	}
	apiKey := "--- NOT SET (ingestion token endpoint disabled) ---"
	if cfg.IngestAPIKeyHash != "" {
		apiKey = "*** SET ***"
	}
	fields := []zapcore.Field{
		zap.String("AppEnv", cfg.AppEnv),
		zap.String("Port", cfg.Port),
		zap.String("JWTSecret", maskedJWTSecret),
		zap.String("IngestAPIKeyHash", apiKey),
		zap.String("DBDriver", cfg.DBDriver),
		zap.String("DBDSN", MaskDSN(cfg.DBDSN)),
		zap.Int("DBMaxOpenConns", cfg.DBMaxOpenConns),
		zap.Int("DBMaxIdleConns", cfg.DBMaxIdleConns),
		zap.Int("DBConnMaxLifetimeMinutes", cfg.DBConnMaxLifetimeMinutes),
		zap.Bool("LogDBEnabled", cfg.LogDBEnabled),
		zap.String("LogTable", cfg.LogTable),
		zap.String("LogDBLevel", cfg.LogDBLevel),
		zap.Strings("LogAdditionalFields", cfg.LogAdditionalFields),
		zap.Bool("LogBubble", cfg.LogBubble),
		zap.String("LogChannel", cfg.LogChannel),
		zap.String("LogFilePath", cfg.LogFilePath),
		zap.String("LogLevel", cfg.LogLevel),
		zap.Int("LogRotateIntervalHours", cfg.LogRotateInterval),
		zap.Int("LogMaxSizeMB", cfg.LogMaxSize),
		zap.Int("LogMaxBackups", cfg.LogMaxBackups),
		zap.Int("LogMaxAgeDays", cfg.LogMaxAge),
		zap.Bool("LogCompress", cfg.LogCompress),
		zap.String("CORS_AllowOrigins", cfg.CORSAllowOrigins),
		zap.String("CORS_AllowMethods", cfg.CORSAllowMethods),
		zap.String("CORS_AllowHeaders", cfg.CORSAllowHeaders),
	}
	logger.Debug("Loaded application configuration details", fields...)
}
