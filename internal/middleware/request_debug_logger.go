package middleware

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const maxBodyLogSize = 1024

var sensitiveBodyPattern = regexp.MustCompile(`("(?:api_key|password)"\s*:\s*")[^"]*(")`)

// RequestDebugLogger logs request headers and body at debug level, then the
// response status and latency. Credentials are masked.
func RequestDebugLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		logger := GetRequestFileLogger(c)
		startTime := time.Now()

		if logger.Core().Enabled(zapcore.DebugLevel) {
			headers := make(map[string]string)
			c.Request().Header.VisitAll(func(key, value []byte) {
				name := string(key)
				if name == AuthorizationHeader || name == "Cookie" {
					headers[name] = "*** HIDDEN ***"
				} else {
					headers[name] = string(value)
				}
			})

			logger.Debug("Incoming Request Details",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
				zap.Any("headers", headers),
				zap.String("body", describeBody(c)),
			)
		}

		err := c.Next()

		logger.Debug("Request Handled",
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(startTime)),
		)
		return err
	}
}

func describeBody(c *fiber.Ctx) string {
	body := c.BodyRaw()
	if len(body) == 0 {
		return "(Empty Body)"
	}
	contentType := string(c.Request().Header.ContentType())
	if !strings.Contains(contentType, "json") && !strings.Contains(contentType, "text") && !strings.Contains(contentType, "form") {
		return fmt.Sprintf("(Binary or non-text body, size: %d bytes)", len(body))
	}
	if len(body) > maxBodyLogSize {
		return sanitizeSensitiveData(string(body[:maxBodyLogSize])) + "... (truncated)"
	}
	return sanitizeSensitiveData(string(body))
}

// sanitizeSensitiveData masks credential values in a JSON request body.
func sanitizeSensitiveData(body string) string {
	return sensitiveBodyPattern.ReplaceAllString(body, `$1***$2`)
}
