package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dudoxx/dudoxx-api/internal/config"
	"github.com/dudoxx/dudoxx-api/internal/platform/logger"
)

// hmacTokenService is an implementation of DownloadTokenService using HMAC-SHA signing.
type hmacTokenService struct {
	signingKey    []byte
	tokenLifetime time.Duration
	timeFunc      func() time.Time // Injectable for testing
	clockSkew     time.Duration    // Allowed time difference for validation to handle clock drift
}

type downloadClaims struct {
	TaskID    string `json:"tid"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

var _ DownloadTokenService = (*hmacTokenService)(nil)

// NewDownloadTokenService creates a DownloadTokenService using HMAC-SHA256 signing.
func NewDownloadTokenService(cfg config.AuthConfig) (DownloadTokenService, error) {
	if len(cfg.DownloadTokenSecret) < 32 {
		return nil, fmt.Errorf("download token secret must be at least 32 characters")
	}
	if cfg.DownloadTokenLifetime <= 0 {
		return nil, fmt.Errorf("download token lifetime must be positive")
	}

	return &hmacTokenService{
		signingKey:    []byte(cfg.DownloadTokenSecret),
		tokenLifetime: cfg.DownloadTokenLifetime,
		timeFunc:      time.Now,
		clockSkew:     30 * time.Second,
	}, nil
}

// GenerateDownloadToken creates a signed token for taskID.
func (s *hmacTokenService) GenerateDownloadToken(ctx context.Context, taskID string) (string, time.Time, error) {
	if taskID == "" {
		return "", time.Time{}, fmt.Errorf("task id cannot be empty")
	}

	log := logger.FromContext(ctx)
	now := s.timeFunc()
	expiresAt := now.Add(s.tokenLifetime)

	claims := downloadClaims{
		TaskID:    taskID,
		TokenType: TokenTypeDownload,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   taskID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.signingKey)
	if err != nil {
		log.Error("failed to sign download token",
			"error", err,
			"task_id", taskID,
			"signing_method", jwt.SigningMethodHS256.Name)
		return "", time.Time{}, fmt.Errorf("failed to sign download token with HMAC-SHA256: %w", err)
	}

	// NumericDate drops sub-second precision; report what the token actually says.
	return signedToken, claims.ExpiresAt.Time, nil
}

// ValidateDownloadToken validates token and checks it was issued for taskID.
func (s *hmacTokenService) ValidateDownloadToken(ctx context.Context, tokenString, taskID string) (*Claims, error) {
	log := logger.FromContext(ctx)
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	now := s.timeFunc()
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&downloadClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		parserOpts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			log.Debug("download token validation failed: token expired", "error", err)
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			log.Debug("download token validation failed: token not yet valid", "error", err)
			return nil, ErrTokenNotYetValid
		default:
			log.Debug("download token validation failed",
				"error", err,
				"error_type", fmt.Sprintf("%T", err))
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*downloadClaims)
	if !ok || !token.Valid {
		log.Debug("download token validation failed: invalid claims")
		return nil, ErrInvalidToken
	}
	if claims.TokenType != TokenTypeDownload {
		log.Debug("download token validation failed: wrong token type",
			"expected", TokenTypeDownload,
			"actual", claims.TokenType)
		return nil, ErrWrongTokenType
	}
	if claims.TaskID != taskID {
		log.Debug("download token validation failed: task mismatch",
			"token_task_id", claims.TaskID,
			"task_id", taskID)
		return nil, ErrTaskMismatch
	}

	return &Claims{
		TaskID:    claims.TaskID,
		TokenType: claims.TokenType,
		Subject:   claims.Subject,
		IssuedAt:  numericTime(claims.IssuedAt),
		ExpiresAt: numericTime(claims.ExpiresAt),
		ID:        claims.ID,
	}, nil
}

func numericTime(d *jwt.NumericDate) time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}
