package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-dblog/internal/utils"

	"go.uber.org/zap"
)

var (
	ErrInvalidAPIKey   = errors.New("invalid api key")
	ErrTokenIssueOff   = errors.New("token issuing is disabled")
	defaultTokenTTL    = 24 * time.Hour
	ingestTokenSubject = "ingest"
)

// AuthService exchanges the shared ingestion API key for bearer tokens.
type AuthService interface {
	IssueToken(ctx context.Context, apiKey string) (string, error)
}

type authServiceImpl struct {
	apiKeyHash string
	jwtSecret  string
	jwtExpires time.Duration
	logger     *zap.Logger
}

// NewAuthService creates an AuthService. An empty apiKeyHash disables token
// issuing.
func NewAuthService(apiKeyHash, jwtSecret string, logger *zap.Logger) AuthService {
	return &authServiceImpl{
		apiKeyHash: apiKeyHash,
		jwtSecret:  jwtSecret,
		jwtExpires: defaultTokenTTL,
		logger:     logger,
	}
}

func (s *authServiceImpl) IssueToken(ctx context.Context, apiKey string) (string, error) {
	if s.apiKeyHash == "" {
		s.logger.Warn("Token requested but INGEST_API_KEY_HASH is not configured")
		return "", ErrTokenIssueOff
	}
	if !utils.CheckPasswordHash(apiKey, s.apiKeyHash) {
		s.logger.Warn("Token request rejected: invalid api key")
		return "", ErrInvalidAPIKey
	}

	token, err := utils.GenerateToken(ingestTokenSubject, s.jwtSecret, s.jwtExpires)
	if err != nil {
		s.logger.Error("Failed to generate JWT token", zap.Error(err))
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	s.logger.Info("Ingestion token issued", zap.Duration("ttl", s.jwtExpires))
	return token, nil
}
