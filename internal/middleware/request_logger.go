package middleware

import (
	"go-dblog/internal/logging"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestLoggers is a middleware that injects request-scoped loggers into c.Locals().
// Both carry a unique "request_id" field, which also lands in the request_id
// column when that column is configured as an additional field.
func RequestLoggers(baseFileLogger, baseDBLogger *zap.Logger) fiber.Handler {
	if baseFileLogger == nil {
		baseFileLogger = zap.NewNop()
	}
	if baseDBLogger == nil {
		baseDBLogger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(RequestIDHeader, requestID)
		c.Locals(RequestIDKey, requestID)
		c.Locals(RequestFileLoggerKey, baseFileLogger.With(zap.String("request_id", requestID)))
		c.Locals(RequestDBLoggerKey, baseDBLogger.With(zap.String("request_id", requestID)))

		return c.Next()
	}
}

// GetRequestFileLogger retrieves the request-scoped file/console logger from fiber.Ctx.Locals.
// Falls back to the global file logger if not found.
func GetRequestFileLogger(c *fiber.Ctx) *zap.Logger {
	if logger, ok := c.Locals(RequestFileLoggerKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return logging.GetFileLogger()
}

// GetRequestDBLogger retrieves the request-scoped database logger from fiber.Ctx.Locals.
// Falls back to the global database logger (which might be Nop).
func GetRequestDBLogger(c *fiber.Ctx) *zap.Logger {
	if logger, ok := c.Locals(RequestDBLoggerKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return logging.GetDBLogger()
}

// GetRequestID retrieves the request ID string from fiber.Ctx.Locals.
// Returns an empty string if not found.
func GetRequestID(c *fiber.Ctx) string {
	if reqID, ok := c.Locals(RequestIDKey).(string); ok {
		return reqID
	}
	return ""
}
