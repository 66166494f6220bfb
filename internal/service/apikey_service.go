package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/crypto/bcrypt"

	"github.com/dudoxx/dudoxx-api/internal/config"
	"github.com/dudoxx/dudoxx-api/internal/domain"
	"github.com/dudoxx/dudoxx-api/internal/store"
)

// createAttempts bounds retries when a freshly generated key collides on its lookup prefix.
const createAttempts = 3

// CreatedAPIKey is returned once at creation; Key is never retrievable again.
type CreatedAPIKey struct {
	Key       string
	Prefix    string
	CreatedAt time.Time
}

// APIKeyService manages API keys and validates presented keys.
type APIKeyService interface {
	// CreateKey issues a new key and returns its plaintext.
	CreateKey(ctx context.Context) (*CreatedAPIKey, error)

	// ListKeys returns metadata for every stored key.
	ListKeys(ctx context.Context) ([]domain.APIKey, error)

	// RevokeKey deletes the stored key matching the plaintext key.
	// Returns ErrAPIKeyNotFound when nothing matches.
	RevokeKey(ctx context.Context, key string) error

	// ValidateKey reports whether key is an active stored key.
	ValidateKey(ctx context.Context, key string) (bool, error)

	// Authenticate validates key and records its use.
	// Returns ErrInvalidAPIKey when the key is malformed, unknown or inactive.
	Authenticate(ctx context.Context, key string) (*domain.APIKey, error)
}

// apiKeyService implements APIKeyService with bcrypt hashes and a short-lived
// in-memory cache of successful validations.
type apiKeyService struct {
	keys     store.APIKeyStore
	db       *sql.DB
	cost     int
	cache    *expirable.LRU[string, domain.APIKey]
	logger   *slog.Logger
	now      func() time.Time
	generate func() (string, error)
}

var _ APIKeyService = (*apiKeyService)(nil)

// NewAPIKeyService creates an APIKeyService. db is used for the revoke transaction.
// A zero ValidationCacheTTL disables the validation cache.
func NewAPIKeyService(keys store.APIKeyStore, db *sql.DB, cfg config.APIKeysConfig, logger *slog.Logger) (APIKeyService, error) {
	if keys == nil {
		return nil, errors.New("api key store cannot be nil")
	}
	if db == nil {
		return nil, errors.New("database cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", cost)
	}

	s := &apiKeyService{
		keys:     keys,
		db:       db,
		cost:     cost,
		logger:   logger.With("component", "apikey_service"),
		now:      time.Now,
		generate: domain.GenerateAPIKey,
	}
	if cfg.ValidationCacheTTL > 0 {
		s.cache = expirable.NewLRU[string, domain.APIKey](cfg.ValidationCacheMax, nil, cfg.ValidationCacheTTL)
	}
	return s, nil
}

// CreateKey generates, hashes and stores a new key.
func (s *apiKeyService) CreateKey(ctx context.Context) (*CreatedAPIKey, error) {
	for attempt := 1; ; attempt++ {
		plaintext, err := s.generate()
		if err != nil {
			return nil, NewServiceError("apikey", "create", err)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), s.cost)
		if err != nil {
			return nil, NewServiceError("apikey", "create", fmt.Errorf("failed to hash api key: %w", err))
		}

		key := &domain.APIKey{
			ID:        uuid.New(),
			Prefix:    domain.APIKeyLookupPrefix(plaintext),
			HashedKey: string(hash),
			IsActive:  true,
			CreatedAt: s.now().UTC(),
		}
		err = s.keys.Create(ctx, key)
		if err == nil {
			s.logger.InfoContext(ctx, "api key created", "prefix", key.Prefix)
			return &CreatedAPIKey{Key: plaintext, Prefix: key.Prefix, CreatedAt: key.CreatedAt}, nil
		}
		if !errors.Is(err, store.ErrAPIKeyPrefixExists) || attempt >= createAttempts {
			s.logger.ErrorContext(ctx, "failed to store api key", "error", err, "attempt", attempt)
			return nil, NewServiceError("apikey", "create", err)
		}
		s.logger.WarnContext(ctx, "api key prefix collision, regenerating", "attempt", attempt)
	}
}

// ListKeys returns all keys without their hashes.
func (s *apiKeyService) ListKeys(ctx context.Context) ([]domain.APIKey, error) {
	keys, err := s.keys.List(ctx)
	if err != nil {
		return nil, NewServiceError("apikey", "list", err)
	}
	return keys, nil
}

// RevokeKey finds the key by prefix and hash and deletes it in one transaction.
func (s *apiKeyService) RevokeKey(ctx context.Context, key string) error {
	if domain.ValidateAPIKeyFormat(key) != nil {
		return ErrAPIKeyNotFound
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txKeys := s.keys.WithTx(tx)
		match, err := s.match(ctx, txKeys, key, false)
		if err != nil {
			return err
		}
		if match == nil {
			return ErrAPIKeyNotFound
		}
		if err := txKeys.Delete(ctx, match.ID); err != nil {
			if errors.Is(err, store.ErrAPIKeyNotFound) {
				return ErrAPIKeyNotFound
			}
			return err
		}
		return nil
	})
	if s.cache != nil {
		s.cache.Remove(digest(key))
	}
	if err != nil {
		if errors.Is(err, ErrAPIKeyNotFound) {
			return ErrAPIKeyNotFound
		}
		s.logger.ErrorContext(ctx, "failed to revoke api key", "error", err)
		return NewServiceError("apikey", "revoke", err)
	}

	s.logger.InfoContext(ctx, "api key revoked", "prefix", domain.APIKeyLookupPrefix(key))
	return nil
}

// ValidateKey reports whether key is valid without recording use.
func (s *apiKeyService) ValidateKey(ctx context.Context, key string) (bool, error) {
	match, err := s.lookup(ctx, key)
	if err != nil {
		return false, err
	}
	return match != nil, nil
}

// Authenticate validates key and updates its last-used time.
func (s *apiKeyService) Authenticate(ctx context.Context, key string) (*domain.APIKey, error) {
	match, err := s.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, ErrInvalidAPIKey
	}

	now := s.now().UTC()
	if err := s.keys.TouchLastUsed(ctx, match.ID, now); err != nil {
		if errors.Is(err, store.ErrAPIKeyNotFound) {
			if s.cache != nil {
				s.cache.Remove(digest(key))
			}
			return nil, ErrInvalidAPIKey
		}
		s.logger.WarnContext(ctx, "failed to record api key use", "error", err, "prefix", match.Prefix)
	} else {
		match.LastUsedAt = &now
	}
	return match, nil
}

// lookup returns the active key matching plaintext, or nil when none does.
func (s *apiKeyService) lookup(ctx context.Context, plaintext string) (*domain.APIKey, error) {
	if domain.ValidateAPIKeyFormat(plaintext) != nil {
		return nil, nil
	}

	cacheKey := digest(plaintext)
	if s.cache != nil {
		if cached, ok := s.cache.Get(cacheKey); ok {
			return &cached, nil
		}
	}

	match, err := s.match(ctx, s.keys, plaintext, true)
	if err != nil {
		return nil, NewServiceError("apikey", "validate", err)
	}
	if match != nil && s.cache != nil {
		s.cache.Add(cacheKey, *match)
	}
	return match, nil
}

// match compares plaintext against every key sharing its lookup prefix.
func (s *apiKeyService) match(ctx context.Context, keys store.APIKeyStore, plaintext string, activeOnly bool) (*domain.APIKey, error) {
	candidates, err := keys.FindByPrefix(ctx, domain.APIKeyLookupPrefix(plaintext))
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		c := candidates[i]
		if activeOnly && !c.IsActive {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(c.HashedKey), []byte(plaintext)) == nil {
			return &c, nil
		}
	}
	return nil, nil
}

// digest keys the validation cache so plaintext keys are not held in memory.
func digest(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
