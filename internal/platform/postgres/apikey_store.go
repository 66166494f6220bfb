package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dudoxx/dudoxx-api/internal/domain"
	"github.com/dudoxx/dudoxx-api/internal/platform/logger"
	"github.com/dudoxx/dudoxx-api/internal/store"
)

// PostgresAPIKeyStore implements the store.APIKeyStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAPIKeyStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAPIKeyStore creates a new PostgreSQL implementation of the APIKeyStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresAPIKeyStore(db store.DBTX, logger *slog.Logger) *PostgresAPIKeyStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAPIKeyStore{
		db:     db,
		logger: logger.With(slog.String("component", "api_key_store")),
	}
}

// Ensure PostgresAPIKeyStore implements store.APIKeyStore interface
var _ store.APIKeyStore = (*PostgresAPIKeyStore)(nil)

// Create implements store.APIKeyStore.Create
func (s *PostgresAPIKeyStore) Create(ctx context.Context, key *domain.APIKey) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if key.Prefix == "" || key.HashedKey == "" {
		return fmt.Errorf("%w: prefix and hash are required", store.ErrInvalidEntity)
	}

	query := `
		INSERT INTO api_keys (id, prefix, hashed_key, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query, key.ID, key.Prefix, key.HashedKey, key.IsActive, key.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("api key prefix collision", slog.String("prefix", key.Prefix))
			return MapError(err)
		}
		log.Error("failed to create api key",
			slog.String("error", err.Error()),
			slog.String("key_id", key.ID.String()))
		return MapError(err)
	}

	log.Info("api key created", slog.String("key_id", key.ID.String()), slog.String("prefix", key.Prefix))
	return nil
}

// FindByPrefix implements store.APIKeyStore.FindByPrefix
func (s *PostgresAPIKeyStore) FindByPrefix(ctx context.Context, prefix string) ([]domain.APIKey, error) {
	query := `
		SELECT id, prefix, hashed_key, is_active, created_at, last_used_at
		FROM api_keys
		WHERE prefix = $1 AND is_active
	`
	return s.query(ctx, "find_by_prefix", query, prefix)
}

// List implements store.APIKeyStore.List
func (s *PostgresAPIKeyStore) List(ctx context.Context) ([]domain.APIKey, error) {
	query := `
		SELECT id, prefix, hashed_key, is_active, created_at, last_used_at
		FROM api_keys
		ORDER BY created_at DESC
	`
	return s.query(ctx, "list", query)
}

func (s *PostgresAPIKeyStore) query(ctx context.Context, op, query string, args ...any) ([]domain.APIKey, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query api keys", slog.String("operation", op), slog.String("error", err.Error()))
		return nil, store.NewStoreError("api_key", op, "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	keys := []domain.APIKey{}
	for rows.Next() {
		var (
			key      domain.APIKey
			lastUsed sql.NullTime
		)
		if err := rows.Scan(&key.ID, &key.Prefix, &key.HashedKey, &key.IsActive, &key.CreatedAt, &lastUsed); err != nil {
			return nil, store.NewStoreError("api_key", op, "scan failed", err)
		}
		if lastUsed.Valid {
			t := lastUsed.Time
			key.LastUsedAt = &t
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("api_key", op, "row iteration failed", err)
	}
	return keys, nil
}

// TouchLastUsed implements store.APIKeyStore.TouchLastUsed
func (s *PostgresAPIKeyStore) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `UPDATE api_keys SET last_used_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return store.NewStoreError("api_key", "touch", "update failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrAPIKeyNotFound)
}

// Delete implements store.APIKeyStore.Delete
func (s *PostgresAPIKeyStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete api key", slog.String("key_id", id.String()), slog.String("error", err.Error()))
		return store.NewStoreError("api_key", "delete", "delete failed", MapError(err))
	}
	if err := CheckRowsAffected(result, store.ErrAPIKeyNotFound); err != nil {
		return err
	}

	log.Info("api key deleted", slog.String("key_id", id.String()))
	return nil
}

// WithTx implements store.APIKeyStore.WithTx
func (s *PostgresAPIKeyStore) WithTx(tx *sql.Tx) store.APIKeyStore {
	return &PostgresAPIKeyStore{db: tx, logger: s.logger}
}
