package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// APIKeyPrefix starts every issued key.
	APIKeyPrefix = "dud-"
	// APIKeyRandomLength is the number of random characters after APIKeyPrefix.
	APIKeyRandomLength = 32
	// APIKeyLookupLength is how many leading characters are stored in clear for lookup.
	APIKeyLookupLength = 8
)

const apiKeyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// APIKey is a stored API key. Only the lookup prefix and a bcrypt hash are
// persisted; the plaintext exists only in the creation response.
type APIKey struct {
	ID         uuid.UUID  `json:"id"`
	Prefix     string     `json:"prefix"`
	HashedKey  string     `json:"-"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// GenerateAPIKey returns a new random key of the form dud-<32 alphanumerics>.
func GenerateAPIKey() (string, error) {
	var sb strings.Builder
	sb.Grow(len(APIKeyPrefix) + APIKeyRandomLength)
	sb.WriteString(APIKeyPrefix)

	max := big.NewInt(int64(len(apiKeyAlphabet)))
	for i := 0; i < APIKeyRandomLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate api key: %w", err)
		}
		sb.WriteByte(apiKeyAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// ValidateAPIKeyFormat checks the dud- prefix, length and alphabet of key.
func ValidateAPIKeyFormat(key string) error {
	if !strings.HasPrefix(key, APIKeyPrefix) || len(key) != len(APIKeyPrefix)+APIKeyRandomLength {
		return ErrInvalidAPIKey
	}
	for _, r := range key[len(APIKeyPrefix):] {
		if !strings.ContainsRune(apiKeyAlphabet, r) {
			return ErrInvalidAPIKey
		}
	}
	return nil
}

// APIKeyLookupPrefix returns the clear-text prefix stored alongside the hash.
func APIKeyLookupPrefix(key string) string {
	if len(key) < APIKeyLookupLength {
		return key
	}
	return key[:APIKeyLookupLength]
}
