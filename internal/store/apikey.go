package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/dudoxx/dudoxx-api/internal/domain"
)

// APIKeyStore defines the interface for API key persistence. Only the
// lookup prefix and the bcrypt hash of a key are stored.
type APIKeyStore interface {
	// Create saves a new key.
	// Returns ErrAPIKeyPrefixExists if another key already uses the prefix.
	Create(ctx context.Context, key *domain.APIKey) error

	// FindByPrefix returns the active keys whose lookup prefix is prefix.
	// It returns an empty slice, not an error, when there are none.
	FindByPrefix(ctx context.Context, prefix string) ([]domain.APIKey, error)

	// List returns every stored key, newest first.
	List(ctx context.Context) ([]domain.APIKey, error)

	// TouchLastUsed records that the key was used at the given time.
	// Returns ErrAPIKeyNotFound if the key does not exist.
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error

	// Delete removes a key permanently.
	// Returns ErrAPIKeyNotFound if the key does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new APIKeyStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) APIKeyStore
}
