package middleware

import (
	"errors"
	"strings"

	"go-dblog/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var (
	errMissingAuthorization = errors.New("missing authorization header")
	errNotBearer            = errors.New("invalid authorization format (Bearer token required)")
	errEmptyToken           = errors.New("missing token")
)

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingAuthorization
	}
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", errNotBearer
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	if token == "" {
		return "", errEmptyToken
	}
	return token, nil
}

// Protected rejects requests without a valid ingestion token and stores the
// token subject in c.Locals under SubjectKey.
func Protected(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logger := GetRequestFileLogger(c)

		token, err := bearerToken(c.Get(AuthorizationHeader))
		if err != nil {
			logger.Warn("Rejected request without usable bearer token", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}

		claims, err := utils.ValidateToken(token, jwtSecret)
		if err != nil {
			logger.Warn("Invalid JWT token", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals(SubjectKey, claims.Subject)
		return c.Next()
	}
}
