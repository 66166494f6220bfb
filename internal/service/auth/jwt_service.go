package auth

import (
	"context"
	"time"
)

// TokenTypeDownload is the "type" claim of download tokens.
const TokenTypeDownload = "download"

// DownloadTokenService signs and checks short-lived links to generated files.
// A token stands in for the API key on requests that cannot carry headers,
// such as an audio element fetching speech.
type DownloadTokenService interface {
	// GenerateDownloadToken creates a signed token granting access to the result of taskID.
	// Returns the token and the time it stops being accepted.
	GenerateDownloadToken(ctx context.Context, taskID string) (string, time.Time, error)

	// ValidateDownloadToken checks the signature, expiry and type of token and
	// that it was issued for taskID. Returns the decoded claims on success.
	ValidateDownloadToken(ctx context.Context, token, taskID string) (*Claims, error)
}

// Claims represents the custom claims structure for download tokens.
type Claims struct {
	// TaskID is the task whose result the token unlocks.
	TaskID string `json:"tid,omitempty"`

	// TokenType prevents a token minted for one purpose being accepted for another.
	TokenType string `json:"type,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
