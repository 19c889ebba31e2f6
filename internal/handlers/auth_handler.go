package handlers

import (
	"errors"

	mw "go-dblog/internal/middleware"
	"go-dblog/internal/pkg/validation"
	"go-dblog/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthHandler issues bearer tokens for the ingestion endpoint.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// TokenRequest defines the expected JSON body for token requests
type TokenRequest struct {
	APIKey string `json:"api_key" validate:"required,min=8"`
}

// Token handles POST /auth/token requests
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	var req TokenRequest
	fileLogger := mw.GetRequestFileLogger(c)

	if !validation.ParseAndValidate(c, &req) {
		fileLogger.Warn("Token request validation failed or bad request body")
		return nil // Response already sent by ParseAndValidate
	}

	token, err := h.authService.IssueToken(c.UserContext(), req.APIKey)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidAPIKey):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrTokenIssueOff):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
		default:
			fileLogger.Error("Internal server error while issuing token", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Token issuing failed due to an internal error",
			})
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Token issued",
		"token":   token,
	})
}

// SetupAuthRoutes registers authentication routes
func (h *AuthHandler) SetupAuthRoutes(router fiber.Router) {
	authGroup := router.Group("/auth")
	authGroup.Post("/token", h.Token)
}
