package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap" // Use logger for loading errors
)

// Config holds all configuration for the application
type Config struct {
	AppEnv           string `validate:"required"`
	Port             string `validate:"required,numeric"`
	CORSAllowOrigins string
	CORSAllowMethods string
	CORSAllowHeaders string
	JWTSecret        string `validate:"required"`
	IngestAPIKeyHash string // bcrypt hash of the key exchanged for ingestion tokens

	DBDriver                 string `validate:"required,oneof=mysql sqlite sqlite3 oracle godror"`
	DBDSN                    string `validate:"required"`
	DBMaxOpenConns           int    `validate:"gte=1"`
	DBMaxIdleConns           int    `validate:"gte=0"`
	DBConnMaxLifetimeMinutes int    `validate:"gte=0"`

	LogDBEnabled        bool
	LogTable            string `validate:"required"`
	LogDBLevel          string `validate:"required"`
	LogAdditionalFields []string
	LogBubble           bool
	LogChannel          string `validate:"required"`

	LogFilePath       string
	LogLevel          string `validate:"oneof=debug info warn error dpanic panic fatal"`
	LogRotateInterval int    // Hour
	LogMaxSize        int    // MB
	LogMaxBackups     int
	LogMaxAge         int // Days
	LogCompress       bool
}

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig reads configuration from environment variables or .env file
func LoadConfig(logger *zap.Logger) (*Config, error) { // logger can be nil here
	if logger == nil {
		logger = zap.NewNop()
	}
	appEnv := getEnv("APP_ENV", "local")

	envFileName := fmt.Sprintf(".env.%s", appEnv)
	if _, err := os.Stat(envFileName); err == nil {
		if err := godotenv.Load(envFileName); err != nil {
			logger.Warn("Error loading .env file, continuing with environment variables", zap.String("file", envFileName), zap.Error(err))
		} else {
			logger.Info("Loaded configuration", zap.String("file", envFileName))
		}
	} else {
		logger.Debug("No .env file found for environment, relying on environment variables or defaults", zap.String("environment", appEnv))
	}

	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "local"),
		Port:             getEnv("PORT", "3000"),
		JWTSecret:        getEnv("JWT_SECRET", "default-secret"),
		IngestAPIKeyHash: getEnv("INGEST_API_KEY_HASH", ""),

		DBDriver:                 strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBDSN:                    getEnv("DB_DSN", "./logs/logs.db"),
		DBMaxOpenConns:           getEnvAsInt("DB_MAX_OPEN_CONNS", 4),
		DBMaxIdleConns:           getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
		DBConnMaxLifetimeMinutes: getEnvAsInt("DB_CONN_MAX_LIFETIME_MINUTES", 60),

		LogDBEnabled:        getEnvAsBool("LOG_DB_ENABLED", true),
		LogTable:            getEnv("LOG_TABLE", "logs"),
		LogDBLevel:          getEnv("LOG_DB_LEVEL", "debug"),
		LogAdditionalFields: getEnvAsList("LOG_ADDITIONAL_FIELDS"),
		LogBubble:           getEnvAsBool("LOG_BUBBLE", true),
		LogChannel:          getEnv("LOG_CHANNEL", "app"),

		LogFilePath:       getEnv("LOG_FILE_PATH", "./logs/app.log"),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogRotateInterval: getEnvAsInt("LOG_ROTATE_INTERVAL", 24),
		LogMaxSize:        getEnvAsInt("LOG_MAX_SIZE", 100),
		LogMaxBackups:     getEnvAsInt("LOG_MAX_BACKUPS", 5),
		LogMaxAge:         getEnvAsInt("LOG_MAX_AGE", 30),
		LogCompress:       getEnvAsBool("LOG_COMPRESS", false),

		CORSAllowOrigins: getEnv("CORS_ALLOW_ORIGINS", func() string {
			if env := getEnv("APP_ENV", "local"); env == "local" || env == "development" {
				return "*"
			}
			return ""
		}()),
		CORSAllowMethods: getEnv("CORS_ALLOW_METHODS", "GET,POST,HEAD"),
		CORSAllowHeaders: getEnv("CORS_ALLOW_HEADERS", "Origin,Content-Type,Accept,Authorization"),
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "dpanic": true, "panic": true, "fatal": true}
	if !validLevels[cfg.LogLevel] {
		logger.Warn("Invalid LOG_LEVEL specified, defaulting to 'info'", zap.String("invalidLevel", cfg.LogLevel))
		cfg.LogLevel = "info"
	}

	if err := configValidator.Struct(cfg); err != nil {
		logger.Error("Invalid configuration", zap.Error(err))
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.JWTSecret == "default-secret" {
		logger.Warn("JWT_SECRET is using the default value. Please set a strong secret in production.")
	}
	if cfg.AppEnv != "local" && cfg.AppEnv != "development" && (cfg.CORSAllowOrigins == "*" || cfg.CORSAllowOrigins == "") {
		logger.Warn("CORS_ALLOW_ORIGINS is set to '*' or is empty in a non-local/dev environment.")
		return nil, fmt.Errorf("CORS_ALLOW_ORIGINS must be set explicitly in production environments")
	}

	return cfg, nil
}

// Helper function to get env var or default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Helper function to get env var as int or default
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

// Helper function to get env var as bool or default
func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

// getEnvAsList splits a comma-separated env var, dropping empty entries.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
